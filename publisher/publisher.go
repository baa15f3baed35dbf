package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/yuin/goldmark"
)

const (
	postsPath  = "/ghost/api/admin/posts/?source=html"
	uploadPath = "/ghost/api/admin/images/upload/"

	draftStatus = "draft"

	// maxExcerptLen is Ghost's custom_excerpt character limit. Longer
	// excerpts are cut silently, with no ellipsis, as a last line of defense
	// before submit.
	maxExcerptLen = 300
)

// DraftPost describes the content to be pushed as a Ghost draft. Exactly one
// of HTML or Markdown must be set; Markdown is converted before submission.
type DraftPost struct {
	Title           string
	HTML            string
	Markdown        string
	Excerpt         string
	MetaTitle       string
	MetaDescription string
	FeatureImage    string
	Tags            []string
}

type ghostPost struct {
	Title           string     `json:"title"`
	HTML            string     `json:"html"`
	CustomExcerpt   string     `json:"custom_excerpt"`
	MetaTitle       string     `json:"meta_title"`
	MetaDescription string     `json:"meta_description"`
	FeatureImage    string     `json:"feature_image"`
	Status          string     `json:"status"`
	Tags            []ghostTag `json:"tags"`
}

type ghostTag struct {
	Name string `json:"name"`
}

type postsPayload struct {
	Posts []ghostPost `json:"posts"`
}

type postsResp struct {
	Posts []struct {
		ID  string `json:"id"`
		URL string `json:"url"`
	} `json:"posts"`
}

// PublishResult reports the created draft.
type PublishResult struct {
	PostID       string
	PostURL      string
	FeatureImage string
	// ImageRehosted is false when the feature image is still the provider's
	// transient URL (rehost skipped or degraded).
	ImageRehosted bool
}

// Publisher pushes drafts to a Ghost instance over its admin API. It keeps no
// state between calls; every privileged request carries a freshly minted token.
type Publisher struct {
	cfg     Config
	client  *http.Client
	verbose bool
	logger  *log.Logger
}

// New creates a Publisher. The admin key is validated up front so a malformed
// credential fails before any network call.
func New(cfg Config, client *http.Client, verbose bool, logger *log.Logger) (*Publisher, error) {
	if cfg.GhostAdminKey == "" || cfg.GhostURL == "" {
		return nil, &ConfigError{Field: "ghost", Reason: "ghost_admin_key and ghost_url are required"}
	}
	if _, err := mintToken(cfg.GhostAdminKey, timeNow()); err != nil {
		return nil, err
	}
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Publisher{cfg: cfg, client: client, verbose: verbose, logger: logger}, nil
}

func (p *Publisher) infof(format string, args ...interface{}) {
	if !p.verbose {
		return
	}
	p.logger.Printf("[INFO] "+format, args...)
}

// PublishDraft rehosts the feature image when one is set, then creates the
// draft. Calling it twice creates two drafts; Ghost assigns a new ID each time.
func (p *Publisher) PublishDraft(ctx context.Context, post DraftPost) (*PublishResult, error) {
	if post.Title == "" {
		return nil, errors.New("draft title is required")
	}
	if post.HTML == "" && post.Markdown == "" {
		return nil, errors.New("draft body is required")
	}

	html := post.HTML
	if html == "" {
		converted, err := mdToHTML(post.Markdown)
		if err != nil {
			return nil, err
		}
		html = converted
		p.infof("Converted markdown body to HTML")
	}

	featureImage := post.FeatureImage
	rehosted := false
	if featureImage != "" {
		hosted, err := p.RehostImage(ctx, featureImage)
		if err != nil {
			return nil, err
		}
		if hosted != "" {
			featureImage = hosted
			rehosted = true
			p.infof("Rehosted feature image -> %s", hosted)
		} else {
			p.logger.Printf("[WARN] image rehost degraded, keeping transient URL %s", featureImage)
		}
	}

	excerpt := truncateExcerpt(post.Excerpt)
	metaTitle := post.MetaTitle
	if metaTitle == "" {
		metaTitle = post.Title
	}
	metaDescription := post.MetaDescription
	if metaDescription == "" {
		metaDescription = excerpt
	}

	tags := make([]ghostTag, 0, len(post.Tags))
	for _, t := range post.Tags {
		tags = append(tags, ghostTag{Name: t})
	}

	id, url, err := p.addDraft(ctx, ghostPost{
		Title:           post.Title,
		HTML:            html,
		CustomExcerpt:   excerpt,
		MetaTitle:       metaTitle,
		MetaDescription: metaDescription,
		FeatureImage:    featureImage,
		Status:          draftStatus,
		Tags:            tags,
	})
	if err != nil {
		return nil, err
	}
	p.infof("Draft created: id=%s url=%s", id, url)

	return &PublishResult{
		PostID:        id,
		PostURL:       url,
		FeatureImage:  featureImage,
		ImageRehosted: rehosted,
	}, nil
}

func (p *Publisher) addDraft(ctx context.Context, post ghostPost) (string, string, error) {
	body, err := json.Marshal(postsPayload{Posts: []ghostPost{post}})
	if err != nil {
		return "", "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.GhostURL+postsPath, bytes.NewReader(body))
	if err != nil {
		return "", "", err
	}
	auth, err := authHeader(p.cfg.GhostAdminKey)
	if err != nil {
		return "", "", err
	}
	req.Header.Set("Authorization", auth)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		detail, _ := io.ReadAll(resp.Body)
		return "", "", &PublishRejectedError{StatusCode: resp.StatusCode, Body: string(detail)}
	}

	var data postsResp
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return "", "", err
	}
	if len(data.Posts) == 0 {
		return "", "", errors.New("ghost returned no post in response")
	}
	return data.Posts[0].ID, data.Posts[0].URL, nil
}

// truncateExcerpt clips to maxExcerptLen characters on rune boundaries so a
// multibyte character is never split.
func truncateExcerpt(excerpt string) string {
	runes := []rune(excerpt)
	if len(runes) <= maxExcerptLen {
		return excerpt
	}
	return string(runes[:maxExcerptLen])
}

func mdToHTML(md string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
