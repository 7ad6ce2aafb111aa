package server

import (
	"net/http"

	"github.com/jonathan/content-studio/internal/generation"
	"github.com/jonathan/content-studio/internal/llm"
	"github.com/jonathan/content-studio/internal/logging"
	"github.com/jonathan/content-studio/internal/review"
	"github.com/jonathan/content-studio/internal/types"
)

// handleHeadlines returns the ranked headline digest.
func (s *Server) handleHeadlines(w http.ResponseWriter, r *http.Request) {
	var req types.HeadlinesRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	resp, err := s.deps.Headlines.Headlines(r.Context(), &req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

// handleReviewHeadlines returns a keep or drop verdict per headline.
func (s *Server) handleReviewHeadlines(w http.ResponseWriter, r *http.Request) {
	var req types.ReviewRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	client, err := s.client(r, "")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	resp, err := review.New(client, *logging.FromContext(r.Context())).Review(r.Context(), &req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

// handleGenerate drafts and verifies an article.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req types.GenerateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	client, err := s.client(r, req.Provider)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	gen := generation.NewGenerator(client, s.cfg.Generation, *logging.FromContext(r.Context()))
	gen.Searcher = s.deps.Searcher
	gen.Excerpts = s.deps.Excerpts
	gen.Usage = s.deps.Usage

	result, err := gen.Generate(r.Context(), &req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, result.Response())
}

func (s *Server) client(r *http.Request, provider string) (llm.Client, error) {
	if s.deps.LLM == nil {
		return nil, s.missing("llm")
	}
	return s.deps.LLM(r.Context(), provider)
}
