package calls_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"callqa/internal/calls"
	"callqa/internal/calls/callstest"
)

func fixtureCalls() []calls.CallMetadata {
	return []calls.CallMetadata{
		{
			CallID:    "call-1",
			Title:     "Glyphic <> Onfido",
			Duration:  1830,
			StartTime: "2024-11-11T10:00:00Z",
			Parties: []calls.Party{
				{Name: "Devang Agrawal", Email: "devang@example.com"},
				{Name: "Theo Blake", Profile: &calls.Profile{JobTitle: "CTO", Location: "London"}},
			},
		},
		{CallID: "call-2", Title: "Weekly sync", Duration: 600, StartTime: "2024-11-12T09:30:00Z"},
	}
}

func newClient(t *testing.T, baseURL string) *calls.Client {
	t.Helper()
	client, err := calls.NewClient(calls.Options{BaseURL: baseURL})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestNewClientValidatesBaseURL(t *testing.T) {
	for _, raw := range []string{"", "   ", "ftp://example.com", "://bad"} {
		if _, err := calls.NewClient(calls.Options{BaseURL: raw}); err == nil {
			t.Fatalf("expected error for base url %q", raw)
		}
	}
	client := newClient(t, "http://localhost:8000/")
	if client.BaseURL() != "http://localhost:8000/calls" {
		t.Fatalf("unexpected base url: %s", client.BaseURL())
	}
}

func TestFetchCallMetadata(t *testing.T) {
	srv := callstest.NewServer(fixtureCalls()...)
	defer srv.Close()

	got, err := newClient(t, srv.URL).FetchCallMetadata(context.Background(), "call-1")
	if err != nil {
		t.Fatalf("fetch metadata: %v", err)
	}
	if got.Title != "Glyphic <> Onfido" || got.Duration != 1830 {
		t.Fatalf("unexpected metadata: %+v", got)
	}
	if len(got.Parties) != 2 || got.Parties[1].Profile == nil || got.Parties[1].Profile.JobTitle != "CTO" {
		t.Fatalf("unexpected parties: %+v", got.Parties)
	}
}

func TestFetchCallMetadataNotFound(t *testing.T) {
	srv := callstest.NewServer(fixtureCalls()...)
	defer srv.Close()

	_, err := newClient(t, srv.URL).FetchCallMetadata(context.Background(), "missing")
	if !errors.Is(err, calls.ErrNotFoundOrNetwork) {
		t.Fatalf("expected ErrNotFoundOrNetwork, got %v", err)
	}
	var reqErr *calls.RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("expected *RequestError, got %T", err)
	}
	if reqErr.Status != http.StatusNotFound || reqErr.CallID != "missing" {
		t.Fatalf("unexpected request error: %+v", reqErr)
	}
	if errors.Is(err, calls.ErrQASubmission) {
		t.Fatalf("metadata failure must not match ErrQASubmission")
	}
}

func TestFetchCallIDs(t *testing.T) {
	srv := callstest.NewServer(fixtureCalls()...)
	defer srv.Close()

	ids, err := newClient(t, srv.URL).FetchCallIDs(context.Background())
	if err != nil {
		t.Fatalf("fetch ids: %v", err)
	}
	if strings.Join(ids, ",") != "call-1,call-2" {
		t.Fatalf("unexpected ids: %v", ids)
	}
}

func TestFetchCallIDsEmptyIsNonNil(t *testing.T) {
	for _, body := range []string{"[]", "null"} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(body))
		}))
		ids, err := newClient(t, srv.URL).FetchCallIDs(context.Background())
		srv.Close()
		if err != nil {
			t.Fatalf("fetch ids for %s: %v", body, err)
		}
		if ids == nil || len(ids) != 0 {
			t.Fatalf("expected empty non-nil ids for %s, got %#v", body, ids)
		}
	}
}

func TestFetchCallIDsFailures(t *testing.T) {
	srv := callstest.NewServer()
	srv.SetIDsStatus(http.StatusServiceUnavailable)
	defer srv.Close()

	if _, err := newClient(t, srv.URL).FetchCallIDs(context.Background()); !errors.Is(err, calls.ErrNotFoundOrNetwork) {
		t.Fatalf("expected ErrNotFoundOrNetwork on 503, got %v", err)
	}

	garbage := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ids":`))
	}))
	defer garbage.Close()
	if _, err := newClient(t, garbage.URL).FetchCallIDs(context.Background()); !errors.Is(err, calls.ErrNotFoundOrNetwork) {
		t.Fatalf("expected ErrNotFoundOrNetwork on bad json, got %v", err)
	}

	closed := httptest.NewServer(http.NotFoundHandler())
	url := closed.URL
	closed.Close()
	if _, err := newClient(t, url).FetchCallIDs(context.Background()); !errors.Is(err, calls.ErrNotFoundOrNetwork) {
		t.Fatalf("expected ErrNotFoundOrNetwork on transport failure, got %v", err)
	}
}

func TestFetchAllCallsKeepsIDOrder(t *testing.T) {
	srv := callstest.NewServer(fixtureCalls()...)
	defer srv.Close()

	all, err := newClient(t, srv.URL).FetchAllCalls(context.Background())
	if err != nil {
		t.Fatalf("fetch all: %v", err)
	}
	if len(all) != 2 || all[0].CallID != "call-1" || all[1].CallID != "call-2" {
		t.Fatalf("unexpected calls: %+v", all)
	}
	if srv.Hits("metadata") != 2 {
		t.Fatalf("expected one metadata fetch per id, got %d", srv.Hits("metadata"))
	}
}

func TestFetchAllCallsFailsWhenAnyMetadataFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/calls/ids":
			_, _ = w.Write([]byte(`["a","b"]`))
		case "/calls/metadata/a":
			_, _ = w.Write([]byte(`{"call_id":"a","title":"A","duration":1,"start_time":"2024-01-01T00:00:00Z","parties":[]}`))
		default:
			http.Error(w, "boom", http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	if _, err := newClient(t, srv.URL).FetchAllCalls(context.Background()); !errors.Is(err, calls.ErrNotFoundOrNetwork) {
		t.Fatalf("expected ErrNotFoundOrNetwork, got %v", err)
	}
}

func TestSubmitQuestionSendsPayload(t *testing.T) {
	srv := callstest.NewServer(fixtureCalls()...)
	defer srv.Close()
	srv.SetAnswer(func(req callstest.AskRequest) (string, int) {
		return "Paris", 0
	})

	history := []calls.QAMessage{
		{Content: "who attended?", Role: calls.RoleUser},
		{Content: "Alice, Bob", Role: calls.RoleAssistant},
	}
	answer, err := newClient(t, srv.URL).SubmitQuestion(context.Background(), "call-1", "capital of France?", history)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if answer != "Paris" {
		t.Fatalf("unexpected answer: %q", answer)
	}
	asks := srv.Asks()
	if len(asks) != 1 {
		t.Fatalf("expected one ask, got %d", len(asks))
	}
	ask := asks[0]
	if ask.CallID != "call-1" || ask.Question != "capital of France?" {
		t.Fatalf("unexpected ask: %+v", ask)
	}
	if len(ask.History) != 2 || ask.History[0] != history[0] || ask.History[1] != history[1] {
		t.Fatalf("unexpected history: %+v", ask.History)
	}
	if ask.RequestID == "" {
		t.Fatalf("expected X-Request-ID header")
	}
}

func TestSubmitQuestionEmptyHistoryIsArray(t *testing.T) {
	srv := callstest.NewServer(fixtureCalls()...)
	defer srv.Close()
	srv.SetAnswer(func(req callstest.AskRequest) (string, int) { return "ok", 0 })

	if _, err := newClient(t, srv.URL).SubmitQuestion(context.Background(), "call-1", "hi", nil); err != nil {
		t.Fatalf("submit: %v", err)
	}
	raw := srv.Asks()[0].RawBody
	if !strings.Contains(raw, `"conversation_history":[]`) {
		t.Fatalf("expected empty history array in body, got %s", raw)
	}
}

func TestSubmitQuestionFailures(t *testing.T) {
	srv := callstest.NewServer(fixtureCalls()...)
	defer srv.Close()
	srv.SetAnswer(func(req callstest.AskRequest) (string, int) {
		return "", http.StatusInternalServerError
	})

	client := newClient(t, srv.URL)
	_, err := client.SubmitQuestion(context.Background(), "call-1", "anything", nil)
	if !errors.Is(err, calls.ErrQASubmission) {
		t.Fatalf("expected ErrQASubmission, got %v", err)
	}
	if srv.Hits("ask") != 1 {
		t.Fatalf("expected exactly one attempt, got %d", srv.Hits("ask"))
	}

	notString := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"answer":"Paris"}`))
	}))
	defer notString.Close()
	if _, err := newClient(t, notString.URL).SubmitQuestion(context.Background(), "c", "q", nil); !errors.Is(err, calls.ErrQASubmission) {
		t.Fatalf("expected ErrQASubmission on malformed answer, got %v", err)
	}
}

func TestSubmitQuestionEscapesCallID(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		_, _ = w.Write([]byte(`"ok"`))
	}))
	defer srv.Close()

	if _, err := newClient(t, srv.URL).SubmitQuestion(context.Background(), "a b?c", "q", nil); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if gotPath != "/calls/ask-question/a%20b%3Fc" {
		t.Fatalf("unexpected escaped path: %s", gotPath)
	}
}
