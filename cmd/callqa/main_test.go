package main

import (
	"bytes"
	"net/http"
	"strings"
	"testing"

	"callqa/internal/calls"
	"callqa/internal/calls/callstest"
)

func newBackend(t *testing.T) *callstest.Server {
	t.Helper()
	srv := callstest.NewServer(
		calls.CallMetadata{CallID: "c1", Title: "Kickoff", Duration: 1800, StartTime: "2024-05-01T09:00:00Z"},
		calls.CallMetadata{CallID: "c2", Title: "Renewal", Duration: 42, StartTime: "2024-05-02T10:30:00Z"},
	)
	t.Cleanup(srv.Close)
	return srv
}

func TestRunList(t *testing.T) {
	srv := newBackend(t)
	var stdout, stderr bytes.Buffer
	code := run([]string{"--api-url", srv.URL, "--list"}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("expected exit 0, got %d: %s", code, stderr.String())
	}
	want := "c1\tKickoff\t2024-05-01T09:00:00Z\t1800\nc2\tRenewal\t2024-05-02T10:30:00Z\t42\n"
	if stdout.String() != want {
		t.Fatalf("unexpected list output:\n%q", stdout.String())
	}
}

func TestRunListFailure(t *testing.T) {
	srv := newBackend(t)
	srv.SetIDsStatus(http.StatusServiceUnavailable)
	var stdout, stderr bytes.Buffer
	if code := run([]string{"--api-url", srv.URL, "--list"}, &stdout, &stderr); code != 1 {
		t.Fatalf("expected exit 1, got %d", code)
	}
	if stdout.Len() != 0 || stderr.Len() == 0 {
		t.Fatalf("expected error on stderr only, got stdout=%q stderr=%q", stdout.String(), stderr.String())
	}
}

func TestRunAsk(t *testing.T) {
	srv := newBackend(t)
	srv.SetAnswer(func(req callstest.AskRequest) (string, int) {
		return "Ada and Grace.", 0
	})
	var stdout, stderr bytes.Buffer
	code := run([]string{"--api-url", srv.URL, "--call-id", "c1", "--ask", "  Who attended?  "}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("expected exit 0, got %d: %s", code, stderr.String())
	}
	if strings.TrimSpace(stdout.String()) != "Ada and Grace." {
		t.Fatalf("unexpected answer %q", stdout.String())
	}
	asks := srv.Asks()
	if len(asks) != 1 || asks[0].Question != "Who attended?" || len(asks[0].History) != 0 {
		t.Fatalf("unexpected asks: %+v", asks)
	}
}

func TestRunAskFailurePrintsNoResponse(t *testing.T) {
	srv := newBackend(t)
	srv.SetAnswer(func(req callstest.AskRequest) (string, int) {
		return "", http.StatusInternalServerError
	})
	var stdout, stderr bytes.Buffer
	code := run([]string{"--api-url", srv.URL, "--call-id", "c1", "--ask", "Summarize"}, &stdout, &stderr)
	if code != 1 {
		t.Fatalf("expected exit 1, got %d", code)
	}
	if strings.TrimSpace(stdout.String()) != "No response" {
		t.Fatalf("expected failure answer, got %q", stdout.String())
	}
}

func TestRunRejectsBadArguments(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run([]string{"--ask", "q"}, &stdout, &stderr); code != 2 {
		t.Fatalf("expected exit 2 for --ask without --call-id, got %d", code)
	}
	if code := run([]string{"--api-url", "ftp://nope", "--list"}, &stdout, &stderr); code != 2 {
		t.Fatalf("expected exit 2 for unsupported scheme, got %d", code)
	}
	if code := run([]string{"--help"}, &stdout, &stderr); code != 0 {
		t.Fatalf("expected exit 0 for --help, got %d", code)
	}
}
