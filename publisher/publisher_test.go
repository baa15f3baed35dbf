package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"
)

const testAdminKey = "keyid:00112233445566778899aabbccddeeff"

func testConfig(ghostURL string) Config {
	return Config{GhostAdminKey: testAdminKey, GhostURL: ghostURL}
}

// fakeGhost records admin API calls and serves canned responses.
type fakeGhost struct {
	postBodies  []map[string]any
	postAuth    []string
	postQueries []string
	uploads     int
	uploadURL   string
	postStatus  int
}

func (g *fakeGhost) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ghost/api/admin/posts/", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var payload map[string]any
		_ = json.Unmarshal(body, &payload)
		g.postBodies = append(g.postBodies, payload)
		g.postAuth = append(g.postAuth, r.Header.Get("Authorization"))
		g.postQueries = append(g.postQueries, r.URL.RawQuery)

		status := g.postStatus
		if status == 0 {
			status = http.StatusCreated
		}
		w.WriteHeader(status)
		if status == http.StatusCreated || status == http.StatusOK {
			io.WriteString(w, `{"posts":[{"id":"p1","url":"http://cms/p1"}]}`)
		} else {
			io.WriteString(w, `{"errors":[{"message":"validation failed"}]}`)
		}
	})
	mux.HandleFunc("/ghost/api/admin/images/upload/", func(w http.ResponseWriter, r *http.Request) {
		g.uploads++
		if err := r.ParseMultipartForm(10 << 20); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if _, _, err := r.FormFile("file"); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"images":[{"url":"`+g.uploadURL+`"}]}`)
	})
	return mux
}

func firstPost(t *testing.T, g *fakeGhost) map[string]any {
	t.Helper()
	if len(g.postBodies) == 0 {
		t.Fatal("no post-creation call recorded")
	}
	posts, ok := g.postBodies[0]["posts"].([]any)
	if !ok || len(posts) != 1 {
		t.Fatalf("payload posts = %v, want a one-item batch", g.postBodies[0]["posts"])
	}
	return posts[0].(map[string]any)
}

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func TestPublishDraftSubmission(t *testing.T) {
	ghost := &fakeGhost{}
	srv := httptest.NewServer(ghost.handler())
	defer srv.Close()

	p, err := New(testConfig(srv.URL), srv.Client(), false, quietLogger())
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	result, err := p.PublishDraft(context.Background(), DraftPost{
		Title:   "Hello",
		HTML:    "<p>Hi</p>",
		Excerpt: strings.Repeat("x", 310),
		Tags:    []string{"A"},
	})
	if err != nil {
		t.Fatalf("PublishDraft() error: %v", err)
	}
	if result.PostID != "p1" || result.PostURL != "http://cms/p1" {
		t.Errorf("result = %+v, want id p1 url http://cms/p1", result)
	}

	if got := ghost.postQueries[0]; got != "source=html" {
		t.Errorf("query = %q, want source=html", got)
	}
	if !strings.HasPrefix(ghost.postAuth[0], "Ghost ") {
		t.Errorf("auth header = %q, want Ghost scheme", ghost.postAuth[0])
	}

	post := firstPost(t, ghost)
	if post["title"] != "Hello" || post["html"] != "<p>Hi</p>" {
		t.Errorf("title/html = %v/%v", post["title"], post["html"])
	}
	excerpt := post["custom_excerpt"].(string)
	if len([]rune(excerpt)) != 300 || !strings.HasPrefix(strings.Repeat("x", 310), excerpt) {
		t.Errorf("custom_excerpt length = %d, want 300-character prefix", len([]rune(excerpt)))
	}
	if post["status"] != "draft" {
		t.Errorf("status = %v, want draft", post["status"])
	}
	tags := post["tags"].([]any)
	if len(tags) != 1 || tags[0].(map[string]any)["name"] != "A" {
		t.Errorf("tags = %v, want [{name A}]", tags)
	}
	// Meta fields fall back to title/excerpt when absent.
	if post["meta_title"] != "Hello" {
		t.Errorf("meta_title = %v, want Hello", post["meta_title"])
	}
	if post["meta_description"] != excerpt {
		t.Errorf("meta_description = %v, want the excerpt", post["meta_description"])
	}
}

func TestPublishDraftKeepsMultibyteExcerpt(t *testing.T) {
	ghost := &fakeGhost{}
	srv := httptest.NewServer(ghost.handler())
	defer srv.Close()

	p, err := New(testConfig(srv.URL), srv.Client(), false, quietLogger())
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	// 111 characters, well under the limit, but more than 300 bytes.
	excerpt := "a" + strings.Repeat("€", 110)
	_, err = p.PublishDraft(context.Background(), DraftPost{
		Title:   "Unicode",
		HTML:    "<p>Hi</p>",
		Excerpt: excerpt,
	})
	if err != nil {
		t.Fatalf("PublishDraft() error: %v", err)
	}

	post := firstPost(t, ghost)
	if got := post["custom_excerpt"].(string); got != excerpt {
		t.Errorf("custom_excerpt = %q, want unchanged %q", got, excerpt)
	}
}

func TestPublishDraftRehostsFeatureImage(t *testing.T) {
	imageSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("pngbytes"))
	}))
	defer imageSrv.Close()

	ghost := &fakeGhost{uploadURL: "http://cms/img.png"}
	srv := httptest.NewServer(ghost.handler())
	defer srv.Close()

	p, err := New(testConfig(srv.URL), nil, false, quietLogger())
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	result, err := p.PublishDraft(context.Background(), DraftPost{
		Title:        "Hello",
		HTML:         "<p>Hi</p>",
		FeatureImage: imageSrv.URL + "/img.png",
	})
	if err != nil {
		t.Fatalf("PublishDraft() error: %v", err)
	}
	if !result.ImageRehosted {
		t.Error("ImageRehosted = false, want true")
	}
	if result.FeatureImage != "http://cms/img.png" {
		t.Errorf("FeatureImage = %q, want the CMS-hosted URL", result.FeatureImage)
	}
	if ghost.uploads != 1 {
		t.Errorf("uploads = %d, want 1", ghost.uploads)
	}
	post := firstPost(t, ghost)
	if post["feature_image"] != "http://cms/img.png" {
		t.Errorf("feature_image = %v, want http://cms/img.png", post["feature_image"])
	}
}

func TestPublishDraftDegradesWhenImageFetchFails(t *testing.T) {
	imageSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer imageSrv.Close()

	ghost := &fakeGhost{}
	srv := httptest.NewServer(ghost.handler())
	defer srv.Close()

	p, err := New(testConfig(srv.URL), nil, false, quietLogger())
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	original := imageSrv.URL + "/gone.png"
	result, err := p.PublishDraft(context.Background(), DraftPost{
		Title:        "Hello",
		HTML:         "<p>Hi</p>",
		FeatureImage: original,
	})
	if err != nil {
		t.Fatalf("PublishDraft() error: %v, want degraded success", err)
	}
	if result.ImageRehosted {
		t.Error("ImageRehosted = true, want false")
	}
	if result.FeatureImage != original {
		t.Errorf("FeatureImage = %q, want original %q", result.FeatureImage, original)
	}
	post := firstPost(t, ghost)
	if post["feature_image"] != original {
		t.Errorf("feature_image = %v, want the original transient URL", post["feature_image"])
	}
}

func TestPublishDraftRejected(t *testing.T) {
	ghost := &fakeGhost{postStatus: http.StatusUnprocessableEntity}
	srv := httptest.NewServer(ghost.handler())
	defer srv.Close()

	p, err := New(testConfig(srv.URL), nil, false, quietLogger())
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	_, err = p.PublishDraft(context.Background(), DraftPost{Title: "Hello", HTML: "<p>Hi</p>"})
	var rejected *PublishRejectedError
	if !errors.As(err, &rejected) {
		t.Fatalf("error = %v, want PublishRejectedError", err)
	}
	if rejected.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("StatusCode = %d, want 422", rejected.StatusCode)
	}
	if !strings.Contains(rejected.Body, "validation failed") {
		t.Errorf("Body = %q, want the response body", rejected.Body)
	}
}

// Publishing the same content twice creates two drafts; the CMS assigns new
// IDs each time and nothing deduplicates.
func TestPublishDraftNotIdempotent(t *testing.T) {
	ghost := &fakeGhost{}
	srv := httptest.NewServer(ghost.handler())
	defer srv.Close()

	p, err := New(testConfig(srv.URL), nil, false, quietLogger())
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	post := DraftPost{Title: "Hello", HTML: "<p>Hi</p>"}
	for i := 0; i < 2; i++ {
		if _, err := p.PublishDraft(context.Background(), post); err != nil {
			t.Fatalf("PublishDraft() #%d error: %v", i+1, err)
		}
	}
	if len(ghost.postBodies) != 2 {
		t.Errorf("post-creation calls = %d, want 2", len(ghost.postBodies))
	}
}

func TestPublishDraftConvertsMarkdown(t *testing.T) {
	ghost := &fakeGhost{}
	srv := httptest.NewServer(ghost.handler())
	defer srv.Close()

	p, err := New(testConfig(srv.URL), nil, false, quietLogger())
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	_, err = p.PublishDraft(context.Background(), DraftPost{
		Title:    "Hello",
		Markdown: "# Heading\n\nA paragraph.",
	})
	if err != nil {
		t.Fatalf("PublishDraft() error: %v", err)
	}
	post := firstPost(t, ghost)
	html := post["html"].(string)
	if !strings.Contains(html, "<h1") || !strings.Contains(html, "<p>") {
		t.Errorf("html = %q, want converted markdown", html)
	}
}

func TestPublishDraftValidation(t *testing.T) {
	p, err := New(testConfig("http://cms"), nil, false, quietLogger())
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	if _, err := p.PublishDraft(context.Background(), DraftPost{HTML: "<p>x</p>"}); err == nil {
		t.Error("empty title accepted")
	}
	if _, err := p.PublishDraft(context.Background(), DraftPost{Title: "x"}); err == nil {
		t.Error("empty body accepted")
	}
}

func TestTruncateExcerpt(t *testing.T) {
	tests := []struct {
		name      string
		in        string
		wantRunes int
	}{
		{"short unchanged", "short", 5},
		{"exactly 300", strings.Repeat("a", 300), 300},
		{"over limit", strings.Repeat("a", 301), 300},
		{"well over limit", strings.Repeat("a", 1000), 300},
		{"empty", "", 0},
		// 111 characters but 331 bytes: under the character limit, so it
		// must come through untouched.
		{"multibyte under limit", "a" + strings.Repeat("€", 110), 111},
		{"multibyte over limit", strings.Repeat("€", 301), 300},
		{"mixed width over limit", strings.Repeat("a€", 200), 300},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncateExcerpt(tt.in)
			if n := len([]rune(got)); n != tt.wantRunes {
				t.Errorf("rune count = %d, want %d", n, tt.wantRunes)
			}
			if !strings.HasPrefix(tt.in, got) {
				t.Error("result is not a prefix of the input")
			}
			if !utf8.ValidString(got) {
				t.Error("result is not valid UTF-8")
			}
		})
	}
}
