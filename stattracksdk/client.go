// Package stattracksdk is the typed HTTP client for the StatTrack
// API. Editor plugins and tests share it.
package stattracksdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/xerrors"
)

// SessionTokenHeader is the custom header carrying the session
// credential when the Authorization header is unavailable.
const SessionTokenHeader = "X-StatTrack-Session-Token"

// Client wraps raw HTTP communication with the StatTrack server.
type Client struct {
	HTTPClient *http.Client
	// SessionToken is the signed credential presented with every
	// request. It may be sent raw (Bearer) or base64-wrapped (Basic);
	// the server accepts both.
	SessionToken string
	URL          *url.URL
}

// New creates a StatTrack client for the given server URL.
func New(serverURL *url.URL) *Client {
	return &Client{
		URL:        serverURL,
		HTTPClient: &http.Client{},
	}
}

// Request performs an HTTP request with the body provided. The body
// is JSON-encoded unless it is nil or already a byte slice.
func (c *Client) Request(ctx context.Context, method, path string, body interface{}) (*http.Response, error) {
	serverURL, err := c.URL.Parse(path)
	if err != nil {
		return nil, xerrors.Errorf("parse url: %w", err)
	}

	var buf io.Reader
	if body != nil {
		if data, ok := body.([]byte); ok {
			buf = bytes.NewReader(data)
		} else {
			data, err := json.Marshal(body)
			if err != nil {
				return nil, xerrors.Errorf("marshal request body: %w", err)
			}
			buf = bytes.NewReader(data)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, serverURL.String(), buf)
	if err != nil {
		return nil, xerrors.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.SessionToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.SessionToken)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, xerrors.Errorf("do request: %w", err)
	}
	return resp, nil
}

// Response represents a generic HTTP JSON response.
type Response struct {
	Message string `json:"message"`
	// Detail is optional operator-facing context.
	Detail      string            `json:"detail,omitempty"`
	Validations []ValidationError `json:"validations,omitempty"`
}

// ValidationError represents an error scoped to a single request
// field.
type ValidationError struct {
	Field  string `json:"field"`
	Detail string `json:"detail"`
}

// Error represents an unaccepted or invalid request to the API.
type Error struct {
	Response

	statusCode int
	method     string
	url        string
}

func (e *Error) StatusCode() int {
	return e.statusCode
}

func (e *Error) Error() string {
	var builder strings.Builder
	_, _ = fmt.Fprintf(&builder, "%v %v: unexpected status code %v: %s", e.method, e.url, e.statusCode, e.Message)
	if e.Detail != "" {
		_, _ = fmt.Fprintf(&builder, "\n\tError: %s", e.Detail)
	}
	for _, err := range e.Validations {
		_, _ = fmt.Fprintf(&builder, "\n\t%s: %s", err.Field, err.Detail)
	}
	return builder.String()
}

// readBodyAsError reads the response as a Response and wraps it in an
// Error for the caller.
func readBodyAsError(res *http.Response) error {
	var method, u string
	if res.Request != nil {
		method = res.Request.Method
		if res.Request.URL != nil {
			u = res.Request.URL.String()
		}
	}

	var apiError Response
	err := json.NewDecoder(res.Body).Decode(&apiError)
	if err != nil {
		return &Error{
			statusCode: res.StatusCode,
			method:     method,
			url:        u,
			Response: Response{
				Message: "unexpected non-JSON response",
			},
		}
	}

	return &Error{
		statusCode: res.StatusCode,
		method:     method,
		url:        u,
		Response:   apiError,
	}
}
