// Package httpstep provides the `http_request` step kind: a stateless HTTP
// call whose response body becomes the step's text output.
package httpstep

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/nodeloom/nodeloom/internal/ctxlog"
	"github.com/nodeloom/nodeloom/internal/registry"
	"github.com/nodeloom/nodeloom/internal/workflow"
	"github.com/zclconf/go-cty/cty"
)

// Module implements the registry.Module interface for this package.
type Module struct {
	// Client overrides the HTTP client, primarily for tests. Nil means a
	// default client with a conservative timeout.
	Client *http.Client
}

// Register registers the http_request step kind.
func (m *Module) Register(r *registry.Registry) {
	client := m.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	r.RegisterStep(&registry.StepDefinition{
		Type:     "http_request",
		Category: registry.CategoryTask,
		Inputs:   []registry.Port{{Name: "body", Type: cty.String}},
		Outputs: []registry.Port{
			{Name: "status_code", Type: cty.Number},
			{Name: "text", Type: cty.String},
		},
	}, &step{client: client})
}

type step struct {
	client *http.Client
}

// Execute performs the configured request. The url and method come from the
// node configuration; an incoming `body` input becomes the request body.
func (s *step) Execute(ctx context.Context, inputs workflow.Record, config map[string]any, scope *workflow.Scope) (any, error) {
	logger := ctxlog.FromContext(ctx)

	url, _ := config["url"].(string)
	if url == "" {
		return nil, fmt.Errorf("http_request requires a url in config")
	}
	method, _ := config["method"].(string)
	if method == "" {
		method = http.MethodGet
	}

	var reqBody io.Reader
	if body, ok := inputs["body"].(string); ok && body != "" {
		reqBody = strings.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	if ct, ok := config["content_type"].(string); ok && ct != "" {
		req.Header.Set("Content-Type", ct)
	}

	logger.Debug("http request", "method", method, "url", url)
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	return workflow.Record{
		"status_code": resp.StatusCode,
		"text":        string(respBody),
	}, nil
}
