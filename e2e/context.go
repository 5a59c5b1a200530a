package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

const defaultBaseURL = "http://localhost:3000"

// TestContext carries the HTTP client and the last response across steps
// of one scenario.
type TestContext struct {
	BaseURL  string
	BasePath string

	client       *http.Client
	lastStatus   int
	lastBody     []byte
	lastHeaders  http.Header
	rememberedID map[string]string
}

// NewTestContext builds a context pointed at E2E_BASE_URL.
func NewTestContext() *TestContext {
	base := strings.TrimRight(os.Getenv("E2E_BASE_URL"), "/")
	if base == "" {
		base = defaultBaseURL
	}
	return &TestContext{
		BaseURL:      base,
		BasePath:     "/api/v1",
		client:       &http.Client{Timeout: 10 * time.Second},
		rememberedID: map[string]string{},
	}
}

// Reset clears per-scenario state.
func (tc *TestContext) Reset() {
	tc.lastStatus = 0
	tc.lastBody = nil
	tc.lastHeaders = nil
	tc.rememberedID = map[string]string{}
}

// Healthy reports whether the server answers /health.
func (tc *TestContext) Healthy() bool {
	resp, err := tc.client.Get(tc.BaseURL + "/health")
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func (tc *TestContext) APIPath(path string) string {
	return tc.BasePath + path
}

func (tc *TestContext) POST(path string, body any) error {
	return tc.send(http.MethodPost, path, body)
}

func (tc *TestContext) PUT(path string, body any) error {
	return tc.send(http.MethodPut, path, body)
}

func (tc *TestContext) GET(path string) error {
	return tc.send(http.MethodGet, path, nil)
}

func (tc *TestContext) DELETE(path string) error {
	return tc.send(http.MethodDelete, path, nil)
}

func (tc *TestContext) send(method, path string, body any) error {
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, tc.BaseURL+path, reader)
	if err != nil {
		return err
	}
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := tc.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	tc.lastStatus = resp.StatusCode
	tc.lastHeaders = resp.Header
	tc.lastBody, err = io.ReadAll(resp.Body)
	return err
}

func (tc *TestContext) GetLastResponseStatus() int {
	return tc.lastStatus
}

func (tc *TestContext) GetLastResponseBody() []byte {
	return tc.lastBody
}

func (tc *TestContext) GetLastResponseHeader(name string) string {
	if tc.lastHeaders == nil {
		return ""
	}
	return tc.lastHeaders.Get(name)
}

// GetResponseField resolves a dotted path such as "data.status" in the last
// JSON response.
func (tc *TestContext) GetResponseField(field string) (any, error) {
	var doc any
	if err := json.Unmarshal(tc.lastBody, &doc); err != nil {
		return nil, fmt.Errorf("response is not JSON: %w", err)
	}
	current := doc
	for _, part := range strings.Split(field, ".") {
		obj, ok := current.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("field %q: %q is not an object", field, part)
		}
		current, ok = obj[part]
		if !ok {
			return nil, fmt.Errorf("field %q not found in response", field)
		}
	}
	return current, nil
}

func (tc *TestContext) Remember(name, value string) {
	tc.rememberedID[name] = value
}

func (tc *TestContext) Recall(name string) string {
	return tc.rememberedID[name]
}
