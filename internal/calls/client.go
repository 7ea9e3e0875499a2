// Package calls is the typed HTTP client for the call QA backend.
package calls

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	// BasePath is where the backend mounts its call routes.
	BasePath = "/calls"

	opMetadata = "metadata"
	opIDs      = "ids"
	opAsk      = "ask-question"

	errorBodyChars = 240
)

// Options configures a Client. BaseURL is the backend origin without the
// /calls base path.
type Options struct {
	BaseURL    string
	HTTPClient *http.Client
	Logger     logrus.FieldLogger
}

// Client issues plain request/response calls; it caches nothing and does not
// de-duplicate identical in-flight requests.
type Client struct {
	base   string
	http   *http.Client
	logger logrus.FieldLogger
}

// NewClient validates opts and returns a ready Client.
func NewClient(opts Options) (*Client, error) {
	raw := strings.TrimSpace(opts.BaseURL)
	if raw == "" {
		return nil, errors.New("calls: empty base url")
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("calls: invalid base url %q: %w", raw, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("calls: base url %q must be http or https", raw)
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	logger := opts.Logger
	if logger == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		logger = discard
	}
	return &Client{
		base:   strings.TrimRight(raw, "/") + BasePath,
		http:   httpClient,
		logger: logger,
	}, nil
}

// BaseURL returns the resolved endpoint prefix including the /calls path.
func (c *Client) BaseURL() string {
	return c.base
}

// FetchCallMetadata loads the display metadata of one call.
func (c *Client) FetchCallMetadata(ctx context.Context, id string) (CallMetadata, error) {
	var out CallMetadata
	requestID := uuid.NewString()
	status, payload, err := c.do(ctx, http.MethodGet, "/metadata/"+url.PathEscape(id), nil, requestID)
	if err != nil {
		return out, c.failed(fetchError(opMetadata, id, requestID, status, err))
	}
	if err := json.Unmarshal(payload, &out); err != nil {
		return out, c.failed(fetchError(opMetadata, id, requestID, 0, fmt.Errorf("decode metadata: %w", err)))
	}
	return out, nil
}

// FetchCallIDs lists the ids of every call the backend exposes. The result
// is never nil.
func (c *Client) FetchCallIDs(ctx context.Context) ([]string, error) {
	requestID := uuid.NewString()
	status, payload, err := c.do(ctx, http.MethodGet, "/ids", nil, requestID)
	if err != nil {
		return nil, c.failed(fetchError(opIDs, "", requestID, status, err))
	}
	var ids []string
	if err := json.Unmarshal(payload, &ids); err != nil {
		return nil, c.failed(fetchError(opIDs, "", requestID, 0, fmt.Errorf("decode ids: %w", err)))
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

// FetchAllCalls loads the id list and then every call's metadata
// concurrently. Results keep id order; any single failure fails the whole
// load.
func (c *Client) FetchAllCalls(ctx context.Context) ([]CallMetadata, error) {
	ids, err := c.FetchCallIDs(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]CallMetadata, len(ids))
	errs := make([]error, len(ids))
	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			out[i], errs[i] = c.FetchCallMetadata(ctx, id)
		}(i, id)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// SubmitQuestion posts a question with its (possibly empty) history and
// returns the answer text. A failed attempt is terminal; there is no retry.
func (c *Client) SubmitQuestion(ctx context.Context, callID, question string, history []QAMessage) (string, error) {
	if history == nil {
		history = []QAMessage{}
	}
	body, err := json.Marshal(questionPayload{Question: question, ConversationHistory: history})
	if err != nil {
		return "", submitError(callID, "", 0, fmt.Errorf("encode question: %w", err))
	}
	requestID := uuid.NewString()
	c.logger.WithFields(logrus.Fields{
		"op":            opAsk,
		"call_id":       callID,
		"request_id":    requestID,
		"history_count": len(history),
	}).Debug("submitting question")
	status, payload, err := c.do(ctx, http.MethodPost, "/ask-question/"+url.PathEscape(callID), body, requestID)
	if err != nil {
		return "", c.failed(submitError(callID, requestID, status, err))
	}
	var answer string
	if err := json.Unmarshal(payload, &answer); err != nil {
		return "", c.failed(submitError(callID, requestID, 0, fmt.Errorf("answer is not a json string: %w", err)))
	}
	return answer, nil
}

// do returns the response status and body. err is non-nil for transport
// failures and for any status outside 2xx.
func (c *Client) do(ctx context.Context, method, path string, body []byte, requestID string) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, payload, fmt.Errorf("http %d: %s", resp.StatusCode, compactSingleLine(string(payload), errorBodyChars))
	}
	return resp.StatusCode, payload, nil
}

func (c *Client) failed(err error) error {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		c.logger.WithFields(logrus.Fields{
			"op":         reqErr.Op,
			"call_id":    reqErr.CallID,
			"request_id": reqErr.RequestID,
			"status":     reqErr.Status,
		}).WithError(reqErr.Err).Warn("backend request failed")
	}
	return err
}

func compactSingleLine(text string, limit int) string {
	compact := strings.Join(strings.Fields(text), " ")
	if len(compact) <= limit {
		return compact
	}
	if limit <= 3 {
		return compact[:limit]
	}
	return compact[:limit-3] + "..."
}
