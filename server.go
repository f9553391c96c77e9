package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
)

type qaRequest struct {
	Documents    []string `json:"documents"`
	Questions    []string `json:"questions"`
	DocumentType string   `json:"document_type,omitempty"`
}

type qaResponse struct {
	Answers []string `json:"answers"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// APIServer is the HTTP front of the pipeline: bearer-token auth, one
// question answering endpoint, and a health probe.
type APIServer struct {
	log       *slog.Logger
	answerer  questionAnswerer
	authToken string
}

func NewAPIServer(log *slog.Logger, answerer questionAnswerer, authToken string) *APIServer {
	return &APIServer{
		log:       log,
		answerer:  answerer,
		authToken: authToken,
	}
}

func (s *APIServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /api/v1/qa", s.auth(s.handleQA))

	return mux
}

func (s *APIServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *APIServer) handleQA(w http.ResponseWriter, r *http.Request) {
	var req qaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if len(req.Documents) == 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "documents must not be empty"})
		return
	}
	if len(req.Questions) == 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "questions must not be empty"})
		return
	}

	answers, err := s.answerer.AnswerQuestions(r.Context(), req.Documents, req.Questions, req.DocumentType)
	if err != nil {
		s.log.Error("question answering failed", "documents", len(req.Documents), "questions", len(req.Questions), "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to answer questions"})
		return
	}

	writeJSON(w, http.StatusOK, qaResponse{Answers: answers})
}

// auth checks the bearer token when one is configured. An empty
// configured token leaves the endpoint open, for local use.
func (s *APIServer) auth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.authToken == "" {
			next(w, r)
			return
		}

		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if token != s.authToken {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
			return
		}

		next(w, r)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
