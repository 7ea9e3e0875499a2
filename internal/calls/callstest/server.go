// Package callstest provides an in-process stand-in for the call QA backend,
// for use in tests.
package callstest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/gorilla/mux"

	"callqa/internal/calls"
)

// AskRequest is one recorded ask-question call.
type AskRequest struct {
	CallID    string
	Question  string
	History   []calls.QAMessage
	RawBody   string
	RequestID string
}

// AnswerFunc produces the answer for a question. Returning a non-zero status
// makes the server reply with that status instead.
type AnswerFunc func(req AskRequest) (answer string, status int)

// Server serves the /calls routes from fixture data.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	calls    map[string]calls.CallMetadata
	order    []string
	answer   AnswerFunc
	asks     []AskRequest
	hits     map[string]int
	idStatus int
}

// NewServer starts a server that knows the given calls, in order.
func NewServer(fixtures ...calls.CallMetadata) *Server {
	s := &Server{
		calls: map[string]calls.CallMetadata{},
		hits:  map[string]int{},
		answer: func(req AskRequest) (string, int) {
			return "no answer configured", 0
		},
	}
	for _, call := range fixtures {
		s.calls[call.CallID] = call
		s.order = append(s.order, call.CallID)
	}

	router := mux.NewRouter()
	api := router.PathPrefix(calls.BasePath).Subrouter()
	api.HandleFunc("/ids", s.handleIDs).Methods(http.MethodGet)
	api.HandleFunc("/metadata/{id}", s.handleMetadata).Methods(http.MethodGet)
	api.HandleFunc("/ask-question/{id}", s.handleAsk).Methods(http.MethodPost)
	s.Server = httptest.NewServer(router)
	return s
}

// SetAnswer replaces the answer function.
func (s *Server) SetAnswer(fn AnswerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.answer = fn
}

// SetIDsStatus makes /ids fail with status when non-zero.
func (s *Server) SetIDsStatus(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.idStatus = status
}

// Asks returns every ask-question request received so far.
func (s *Server) Asks() []AskRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]AskRequest(nil), s.asks...)
}

// Hits reports how many times a route name ("ids", "metadata", "ask") was hit.
func (s *Server) Hits(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[route]
}

func (s *Server) handleIDs(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.hits["ids"]++
	status := s.idStatus
	ids := append([]string{}, s.order...)
	s.mu.Unlock()
	if status != 0 {
		http.Error(w, "ids unavailable", status)
		return
	}
	writeJSON(w, ids)
}

func (s *Server) handleMetadata(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s.mu.Lock()
	s.hits["metadata"]++
	call, ok := s.calls[id]
	s.mu.Unlock()
	if !ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{"detail": "No call id " + id + " found"})
		return
	}
	writeJSON(w, call)
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Question            string            `json:"question"`
		ConversationHistory []calls.QAMessage `json:"conversation_history"`
	}
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "read body", http.StatusBadRequest)
		return
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		http.Error(w, "invalid json", http.StatusUnprocessableEntity)
		return
	}
	req := AskRequest{
		CallID:    mux.Vars(r)["id"],
		Question:  body.Question,
		History:   body.ConversationHistory,
		RawBody:   string(raw),
		RequestID: r.Header.Get("X-Request-ID"),
	}
	s.mu.Lock()
	s.hits["ask"]++
	s.asks = append(s.asks, req)
	answer := s.answer
	s.mu.Unlock()

	text, status := answer(req)
	if status != 0 {
		http.Error(w, "ask failed", status)
		return
	}
	writeJSON(w, text)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(v)
}
