// Package social builds share-intent deep links for the supported platforms.
// The links are constructed, never called: the caller opens them in a browser
// with the copy pre-filled.
package social

import "net/url"

// Per-platform character budgets applied before encoding, keeping the final
// URL under browser length limits.
const (
	twitterBudget  = 2000
	linkedInBudget = 3000
	redditBudget   = 3000
)

const (
	twitterIntent  = "https://twitter.com/intent/tweet?text="
	linkedInIntent = "https://www.linkedin.com/feed/?shareActive=true&text="
	redditIntent   = "https://www.reddit.com/submit?selftext=true&title=Check%20out%20my%20new%20post&text="
)

// ShareLink returns the share-intent URL for a platform with the text
// percent-encoded into its query parameter. Unknown platforms get "#".
func ShareLink(platform, text string) string {
	switch platform {
	case "twitter":
		return twitterIntent + encodeClipped(text, twitterBudget)
	case "linkedin":
		return linkedInIntent + encodeClipped(text, linkedInBudget)
	case "reddit":
		return redditIntent + encodeClipped(text, redditBudget)
	}
	return "#"
}

// Links builds the full set of share URLs for a social pack.
func Links(twitter, linkedin, reddit string) map[string]string {
	return map[string]string{
		"twitter":  ShareLink("twitter", twitter),
		"linkedin": ShareLink("linkedin", linkedin),
		"reddit":   ShareLink("reddit", reddit),
	}
}

// encodeClipped truncates on rune boundaries before encoding so a multi-byte
// character is never split.
func encodeClipped(text string, budget int) string {
	runes := []rune(text)
	if len(runes) > budget {
		text = string(runes[:budget])
	}
	return url.QueryEscape(text)
}
