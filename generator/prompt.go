package generator

import (
	"fmt"
	"strings"
)

const (
	// contextLimit caps the attached source material passed to the writer.
	contextLimit = 50000
	// socialSourceLimit caps the blog HTML quoted in the social-copy prompt.
	socialSourceLimit = 15000

	keywordMaxTokens  = 500
	researchMaxTokens = 4000
	writerMaxTokens   = 8000
	socialMaxTokens   = 2000
)

type toneProfile struct {
	temperature float64
	instruction string
}

var toneProfiles = map[string]toneProfile{
	"Technical":      {0.2, "Focus on technical accuracy, use industry jargon appropriate for experts, be precise and dense."},
	"Professional":   {0.5, "Use a clean, corporate, and concise voice. Be authoritative but accessible."},
	"Conversational": {0.7, "Write like a human speaking to a friend. Use contractions, rhetorical questions, and be relatable."},
	"Witty":          {0.8, "Use clever wordplay, light humor, and an entertaining voice. Be sharp and engaging."},
	"Storyteller":    {0.9, "Focus on narrative arc, emotive language, and painting a scene. Use metaphors and storytelling elements."},
}

// Tones lists the supported tone names.
func Tones() []string {
	return []string{"Technical", "Professional", "Conversational", "Witty", "Storyteller"}
}

func toneFor(name string) toneProfile {
	if p, ok := toneProfiles[name]; ok {
		return p
	}
	return toneProfile{0.7, "Professional and engaging."}
}

// BuildKeywordPrompt asks the research provider for SEO keyword suggestions.
func BuildKeywordPrompt(topic string) Prompt {
	return Prompt{
		System:    "You are an SEO expert. Given a topic, suggest 5-7 high-impact, relevant keywords or phrases separated by commas. Do not explain, just list them.",
		User:      fmt.Sprintf("Topic: %s", topic),
		MaxTokens: keywordMaxTokens,
	}
}

// BuildResearchPrompt asks the research provider for source material on the
// topic. With attached context the researcher also fact-checks it.
func BuildResearchPrompt(topic string, hasContext bool) Prompt {
	system := "You are an elite academic researcher. Find detailed, factual information on the given topic. Prioritize accurate data, dates, and technical details. Validate all claims with recent sources."
	if hasContext {
		system = "You are a specialized fact-checking researcher. The user has provided context in a file. Your job is to: 1. Research the main topic. 2. Verify claims or assumptions that might be relevant. 3. Find external data and statistics to validate the user's premise."
	}
	return Prompt{
		System:    system,
		User:      fmt.Sprintf("Research this topic deeply: %s", topic),
		MaxTokens: researchMaxTokens,
	}
}

// DraftRequest carries everything the writer stage needs.
type DraftRequest struct {
	Topic         string
	Research      string
	StyleSample   string
	Tone          string
	Keywords      string
	Context       string
	ContextFileID string
}

// BuildWriterPrompt assembles the ghostwriter prompt. Temperature follows the
// tone profile; context is truncated to keep the request inside the model's
// input budget.
func BuildWriterPrompt(req DraftRequest) Prompt {
	tone := toneFor(req.Tone)

	var sb strings.Builder
	sb.WriteString("You are a world-class ghostwriter.\n")

	if req.Context != "" {
		context := req.Context
		if len(context) > contextLimit {
			context = context[:contextLimit]
		}
		fmt.Fprintf(&sb, "USER'S MAIN GOAL: %q\n", req.Topic)
		fmt.Fprintf(&sb, "CONTEXT (FILE): %s\n", context)
		fmt.Fprintf(&sb, "RESEARCH (VALIDATION): %s\n", req.Research)
		sb.WriteString("INSTRUCTIONS:\n")
		sb.WriteString("1. Write a blog post addressing the MAIN GOAL.\n")
		sb.WriteString("2. Use the CONTEXT to frame the problem and narrative.\n")
		sb.WriteString("3. Use RESEARCH to validate claims and add external credibility.\n")
	} else {
		fmt.Fprintf(&sb, "USER'S MAIN GOAL: %q\n", req.Topic)
		fmt.Fprintf(&sb, "RESEARCH (VALIDATION): %s\n", req.Research)
		fmt.Fprintf(&sb, "INSTRUCTIONS: Write a blog post about %q based on the research.\n", req.Topic)
	}

	fmt.Fprintf(&sb, "\nTONE: %s\n", tone.instruction)
	if req.StyleSample != "" {
		sb.WriteString("\nSPECIFIC MIMICRY REQUEST:\n")
		fmt.Fprintf(&sb, "Analyze this writing sample: %q\n", req.StyleSample)
		fmt.Fprintf(&sb, "Adopt the sentence structure, vocabulary, and rhythm of this sample, while maintaining the %q vibe.\n", req.Tone)
	}
	if req.Keywords != "" {
		sb.WriteString("\nSEO MANDATE:\n")
		fmt.Fprintf(&sb, "You MUST naturally include the following keywords in the text: %s.\n", req.Keywords)
		sb.WriteString("Do not stuff them; use them where they fit logically for search optimization.\n")
	}

	sb.WriteString("\nOUTPUT FORMAT:\n")
	sb.WriteString(`Return a valid JSON object with keys: "title", "meta_title", "meta_description", "excerpt", "html_content" (semantic HTML).`)
	sb.WriteString("\n")

	return Prompt{
		User:        sb.String(),
		Temperature: tone.temperature,
		MaxTokens:   writerMaxTokens,
		FileID:      req.ContextFileID,
	}
}

// BuildSocialPrompt asks for the social media pack derived from the blog body.
func BuildSocialPrompt(blogHTML string) Prompt {
	source := blogHTML
	if len(source) > socialSourceLimit {
		source = source[:socialSourceLimit] + "... (truncated)"
	}

	var sb strings.Builder
	sb.WriteString("You are an expert social media manager. Based on this blog post content, generate:\n")
	sb.WriteString("1. A LinkedIn post (professional, engaging, bullet points).\n")
	sb.WriteString("2. A Twitter thread (just the first tweet hook).\n")
	sb.WriteString("3. A Reddit post (title + body).\n\n")
	fmt.Fprintf(&sb, "BLOG CONTENT:\n%s\n\n", source)
	sb.WriteString("OUTPUT FORMAT:\n")
	sb.WriteString(`Return a valid JSON object with keys: "linkedin", "twitter", "reddit".`)
	sb.WriteString("\n")

	return Prompt{
		User:        sb.String(),
		Temperature: 0.7,
		MaxTokens:   socialMaxTokens,
	}
}

// ImagePrompt is the fixed editorial-illustration brief for the header image.
func ImagePrompt(topic string) string {
	return fmt.Sprintf("A high-quality, modern editorial illustration about %s. Minimalist, tech-forward, 16:9 aspect ratio. No text.", topic)
}
