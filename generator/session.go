package generator

import (
	"strings"
	"time"
)

// Workflow holds one topic's pipeline state from generation through publish.
// Nothing is persisted: once published, the CMS is the system of record.
type Workflow struct {
	ID        string
	Topic     string
	Tone      string
	Keywords  string
	Research  string
	Draft     BlogDraft
	Socials   SocialCopy
	ImageURL  string
	Context   *ContextResult
	CreatedAt time.Time
}

// NewWorkflow creates a workflow with a fresh ID. An empty tone falls back to
// Conversational, the application default.
func NewWorkflow(topic, tone string) *Workflow {
	if tone == "" {
		tone = "Conversational"
	}
	return &Workflow{
		ID:        newWorkflowID(),
		Topic:     topic,
		Tone:      tone,
		CreatedAt: time.Now(),
	}
}

// Excerpt returns the draft excerpt, deriving one from the topic when the
// writer left it blank.
func (w *Workflow) Excerpt() string {
	if w.Draft.Excerpt != "" {
		return w.Draft.Excerpt
	}
	return defaultExcerpt(w.Topic, 120)
}

func defaultExcerpt(text string, limit int) string {
	joined := strings.Join(strings.Fields(text), " ")
	runes := []rune(joined)
	if len(runes) <= limit {
		return joined
	}
	return string(runes[:limit])
}

func newWorkflowID() string {
	return strings.ReplaceAll(time.Now().Format("20060102T150405.000000000"), ".", "")
}
