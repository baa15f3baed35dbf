package generator

import (
	"context"
	"errors"
	"log"
)

// Agent runs the generation pipeline against the configured providers. Stages
// execute strictly in sequence; each fails independently and halts the run,
// except the advisory keyword stage and the image stage, which degrade.
type Agent struct {
	researcher LLMClient
	writer     LLMClient
	artist     ImageGenerator
	verbose    bool
	logger     *log.Logger
}

// NewAgent wires the pipeline. The artist may be nil; runs then skip the
// image stage instead of failing.
func NewAgent(researcher, writer LLMClient, artist ImageGenerator, verbose bool, logger *log.Logger) (*Agent, error) {
	if researcher == nil {
		return nil, errors.New("research client is required")
	}
	if writer == nil {
		return nil, errors.New("writer client is required")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Agent{researcher: researcher, writer: writer, artist: artist, verbose: verbose, logger: logger}, nil
}

func (a *Agent) infof(format string, args ...interface{}) {
	if !a.verbose {
		return
	}
	a.logger.Printf("[INFO] "+format, args...)
}

// SuggestKeywords asks the research provider for SEO keywords. The stage is
// advisory: a failure yields empty keywords rather than halting the run.
func (a *Agent) SuggestKeywords(ctx context.Context, topic string) string {
	raw, err := a.researcher.Complete(ctx, BuildKeywordPrompt(topic))
	if err != nil {
		a.logger.Printf("[WARN] keyword suggestion failed: %v", err)
		return ""
	}
	return raw
}

// Research gathers source material for the topic.
func (a *Agent) Research(ctx context.Context, topic string, hasContext bool) (string, error) {
	raw, err := a.researcher.Complete(ctx, BuildResearchPrompt(topic, hasContext))
	if err != nil {
		return "", &GenerationError{Stage: "research", Err: err}
	}
	return raw, nil
}

// WriteDraft produces the structured blog draft.
func (a *Agent) WriteDraft(ctx context.Context, req DraftRequest) (BlogDraft, error) {
	obj, err := CompleteStructured(ctx, a.writer, "write", BuildWriterPrompt(req), Schema{
		Required: []string{"title", "meta_title", "meta_description", "excerpt", "html_content"},
	})
	if err != nil {
		return BlogDraft{}, err
	}
	return BlogDraft{
		Title:           stringField(obj, "title"),
		MetaTitle:       stringField(obj, "meta_title"),
		MetaDescription: stringField(obj, "meta_description"),
		Excerpt:         stringField(obj, "excerpt"),
		HTMLContent:     stringField(obj, "html_content"),
	}, nil
}

// SocialPack produces platform copy from the finished blog body.
func (a *Agent) SocialPack(ctx context.Context, blogHTML string) (SocialCopy, error) {
	obj, err := CompleteStructured(ctx, a.writer, "social", BuildSocialPrompt(blogHTML), Schema{
		Required: []string{"linkedin", "twitter", "reddit"},
	})
	if err != nil {
		return SocialCopy{}, err
	}
	return SocialCopy{
		LinkedIn: stringField(obj, "linkedin"),
		Twitter:  stringField(obj, "twitter"),
		Reddit:   stringField(obj, "reddit"),
	}, nil
}

// GenerateImage returns a transient provider URL for the header image, or ""
// when the stage is skipped or degrades.
func (a *Agent) GenerateImage(ctx context.Context, topic string) string {
	if a.artist == nil {
		return ""
	}
	url, err := a.artist.Generate(ctx, ImagePrompt(topic))
	if err != nil {
		a.logger.Printf("[WARN] image generation failed: %v", err)
		return ""
	}
	return url
}

// RunRequest describes one pipeline run.
type RunRequest struct {
	Topic       string
	Tone        string
	StyleSample string
	Keywords    string
	Context     *ContextResult
	// SuggestKeywords asks the researcher for keywords when none were given.
	SuggestKeywords bool
}

// Run executes keyword suggestion, research, writing, social copy, and image
// generation for one topic and returns the populated workflow.
func (a *Agent) Run(ctx context.Context, req RunRequest) (*Workflow, error) {
	if req.Topic == "" {
		return nil, errors.New("topic is required")
	}

	wf := NewWorkflow(req.Topic, req.Tone)
	wf.Context = req.Context

	wf.Keywords = req.Keywords
	if wf.Keywords == "" && req.SuggestKeywords {
		a.infof("Suggesting keywords for %q", req.Topic)
		wf.Keywords = a.SuggestKeywords(ctx, req.Topic)
	}

	a.infof("Researching %q", req.Topic)
	research, err := a.Research(ctx, req.Topic, req.Context != nil)
	if err != nil {
		return nil, err
	}
	wf.Research = research

	a.infof("Writing draft (%s tone)", wf.Tone)
	draftReq := DraftRequest{
		Topic:       req.Topic,
		Research:    research,
		StyleSample: req.StyleSample,
		Tone:        wf.Tone,
		Keywords:    wf.Keywords,
	}
	if req.Context != nil {
		draftReq.Context = req.Context.Text
		draftReq.ContextFileID = req.Context.FileID
	}
	draft, err := a.WriteDraft(ctx, draftReq)
	if err != nil {
		return nil, err
	}
	wf.Draft = draft

	a.infof("Drafting social copy")
	socials, err := a.SocialPack(ctx, draft.HTMLContent)
	if err != nil {
		return nil, err
	}
	wf.Socials = socials

	a.infof("Generating header image")
	wf.ImageURL = a.GenerateImage(ctx, req.Topic)

	return wf, nil
}
