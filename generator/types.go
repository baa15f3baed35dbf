package generator

// BlogDraft is the writer stage's structured output.
type BlogDraft struct {
	Title           string `json:"title"`
	MetaTitle       string `json:"meta_title"`
	MetaDescription string `json:"meta_description"`
	Excerpt         string `json:"excerpt"`
	HTMLContent     string `json:"html_content"`
}

// SocialCopy is the social-media pack derived from a finished draft.
type SocialCopy struct {
	LinkedIn string `json:"linkedin"`
	Twitter  string `json:"twitter"`
	Reddit   string `json:"reddit"`
}

// ContextResult holds source material attached to a run: either inline text
// or a provider-side file reference (PDFs uploaded to Anthropic).
type ContextResult struct {
	Text   string
	FileID string
}
