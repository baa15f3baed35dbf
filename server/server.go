package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"ghost_blog_agent/generator"
	"ghost_blog_agent/publisher"
	"ghost_blog_agent/social"
)

// Stage timeouts. A full run crosses four provider calls, so it gets a wider
// budget than the single publish round-trip.
const (
	runTimeout     = 5 * time.Minute
	publishTimeout = 2 * time.Minute
)

// Server exposes the generation pipeline and the publisher as a JSON API over
// in-memory workflow sessions. Workflows are never shared across requests
// beyond the store lookup, and every publish mints its own admin token.
type Server struct {
	agent   *generator.Agent
	fetcher *generator.ContextFetcher
	pub     *publisher.Publisher
	store   *workflowStore
	logger  *log.Logger
}

// workflowStore keeps workflows by value: get hands out a snapshot and update
// applies edits under the lock, so handlers never touch shared state directly.
type workflowStore struct {
	mu        sync.Mutex
	workflows map[string]generator.Workflow
}

func newStore() *workflowStore {
	return &workflowStore{workflows: make(map[string]generator.Workflow)}
}

func (s *workflowStore) set(wf generator.Workflow) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workflows[wf.ID] = wf
}

func (s *workflowStore) get(id string) (generator.Workflow, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	wf, ok := s.workflows[id]
	return wf, ok
}

// update runs fn on the stored workflow while holding the lock and returns the
// resulting snapshot.
func (s *workflowStore) update(id string, fn func(*generator.Workflow)) (generator.Workflow, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	wf, ok := s.workflows[id]
	if !ok {
		return generator.Workflow{}, false
	}
	fn(&wf)
	s.workflows[id] = wf
	return wf, true
}

func New(agent *generator.Agent, fetcher *generator.ContextFetcher, pub *publisher.Publisher, logger *log.Logger) (*Server, error) {
	if agent == nil {
		return nil, errors.New("generator agent required")
	}
	if pub == nil {
		return nil, errors.New("publisher required")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		agent:   agent,
		fetcher: fetcher,
		pub:     pub,
		store:   newStore(),
		logger:  logger,
	}, nil
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/workflows", s.handleWorkflowCreate)
	mux.HandleFunc("/api/workflows/", s.handleWorkflowByID)
	return s.logMiddleware(mux)
}

// --- Handlers ---

type workflowCreateReq struct {
	Topic           string `json:"topic"`
	Tone            string `json:"tone"`
	StyleSample     string `json:"style_sample"`
	Keywords        string `json:"keywords"`
	SuggestKeywords bool   `json:"suggest_keywords"`
	ContextURL      string `json:"context_url"`
	ContextText     string `json:"context_text"`
}

type workflowResp struct {
	WorkflowID string               `json:"workflow_id"`
	Topic      string               `json:"topic"`
	Tone       string               `json:"tone"`
	Keywords   string               `json:"keywords"`
	Draft      generator.BlogDraft  `json:"draft"`
	Socials    generator.SocialCopy `json:"socials"`
	ImageURL   string               `json:"image_url"`
}

type draftEditReq struct {
	Title           *string `json:"title"`
	HTMLContent     *string `json:"html_content"`
	Excerpt         *string `json:"excerpt"`
	MetaTitle       *string `json:"meta_title"`
	MetaDescription *string `json:"meta_description"`
	ImageURL        *string `json:"image_url"`
}

type publishReq struct {
	Tags []string `json:"tags"`
}

type publishResp struct {
	PostID        string            `json:"post_id"`
	PostURL       string            `json:"post_url"`
	FeatureImage  string            `json:"feature_image"`
	ImageRehosted bool              `json:"image_rehosted"`
	ShareLinks    map[string]string `json:"share_links"`
}

func (s *Server) handleWorkflowCreate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req workflowCreateReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Topic == "" {
		http.Error(w, "topic is required", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), runTimeout)
	defer cancel()

	var contextResult *generator.ContextResult
	if req.ContextText != "" {
		contextResult = &generator.ContextResult{Text: req.ContextText}
	} else if req.ContextURL != "" {
		if s.fetcher == nil {
			http.Error(w, "context fetching not configured", http.StatusBadRequest)
			return
		}
		fetched, err := s.fetcher.Fetch(ctx, req.ContextURL)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		contextResult = fetched
	}

	wf, err := s.agent.Run(ctx, generator.RunRequest{
		Topic:           req.Topic,
		Tone:            req.Tone,
		StyleSample:     req.StyleSample,
		Keywords:        req.Keywords,
		SuggestKeywords: req.SuggestKeywords,
		Context:         contextResult,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	s.store.set(*wf)
	writeJSON(w, toWorkflowResp(*wf))
}

func (s *Server) handleWorkflowByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/workflows/")
	id, action, _ := strings.Cut(rest, "/")
	if id == "" {
		http.NotFound(w, r)
		return
	}
	wf, ok := s.store.get(id)
	if !ok {
		http.Error(w, "workflow not found", http.StatusNotFound)
		return
	}

	switch {
	case action == "" && r.Method == http.MethodGet:
		writeJSON(w, toWorkflowResp(wf))
	case action == "draft" && r.Method == http.MethodPut:
		s.handleDraftEdit(w, r, id)
	case action == "publish" && r.Method == http.MethodPost:
		s.handlePublish(w, r, wf)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleDraftEdit(w http.ResponseWriter, r *http.Request, id string) {
	var req draftEditReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	wf, ok := s.store.update(id, func(wf *generator.Workflow) {
		if req.Title != nil {
			wf.Draft.Title = *req.Title
		}
		if req.HTMLContent != nil {
			wf.Draft.HTMLContent = *req.HTMLContent
		}
		if req.Excerpt != nil {
			wf.Draft.Excerpt = *req.Excerpt
		}
		if req.MetaTitle != nil {
			wf.Draft.MetaTitle = *req.MetaTitle
		}
		if req.MetaDescription != nil {
			wf.Draft.MetaDescription = *req.MetaDescription
		}
		if req.ImageURL != nil {
			wf.ImageURL = *req.ImageURL
		}
	})
	if !ok {
		http.Error(w, "workflow not found", http.StatusNotFound)
		return
	}
	writeJSON(w, toWorkflowResp(wf))
}

func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request, wf generator.Workflow) {
	var req publishReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), publishTimeout)
	defer cancel()

	result, err := s.pub.PublishDraft(ctx, publisher.DraftPost{
		Title:           wf.Draft.Title,
		HTML:            wf.Draft.HTMLContent,
		Excerpt:         wf.Excerpt(),
		MetaTitle:       wf.Draft.MetaTitle,
		MetaDescription: wf.Draft.MetaDescription,
		FeatureImage:    wf.ImageURL,
		Tags:            req.Tags,
	})
	if err != nil {
		var rejected *publisher.PublishRejectedError
		if errors.As(err, &rejected) {
			http.Error(w, rejected.Error(), http.StatusBadGateway)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, publishResp{
		PostID:        result.PostID,
		PostURL:       result.PostURL,
		FeatureImage:  result.FeatureImage,
		ImageRehosted: result.ImageRehosted,
		ShareLinks:    social.Links(wf.Socials.Twitter, wf.Socials.LinkedIn, wf.Socials.Reddit),
	})
}

// --- Helpers ---

func toWorkflowResp(wf generator.Workflow) workflowResp {
	return workflowResp{
		WorkflowID: wf.ID,
		Topic:      wf.Topic,
		Tone:       wf.Tone,
		Keywords:   wf.Keywords,
		Draft:      wf.Draft,
		Socials:    wf.Socials,
		ImageURL:   wf.ImageURL,
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}
