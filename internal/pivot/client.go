// Package pivot is the client for the PDFPivot processing API, which charges
// usage against the caller's plan and stamps placements onto PDFs.
package pivot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// ServiceESign is the usage bucket e-sign requests are tracked under.
const ServiceESign = "e-sign"

const (
	trackPath = "/api/user/track"
	signPath  = "/api/sign-PDF"

	// errorBodyLimit caps how much of a failed response is kept for the
	// error message.
	errorBodyLimit = 512
)

var (
	// ErrUnauthorized means the bearer token was missing or rejected.
	ErrUnauthorized = errors.New("upstream: unauthorized")
	// ErrQuotaExceeded means the caller's plan has no usage left.
	ErrQuotaExceeded = errors.New("upstream: quota exceeded")
	// ErrUpstream covers every other failure talking to the API.
	ErrUpstream = errors.New("upstream: request failed")
)

// Client is the subset of the PDFPivot API the signing flow needs.
type Client interface {
	// Track charges imageCount units of e-sign usage to the token's owner.
	Track(ctx context.Context, token string, imageCount int) error
	// Sign uploads the PDF with its placements and binaries and returns the
	// stamped PDF. The caller closes the reader.
	Sign(ctx context.Context, token string, req SignRequest) (io.ReadCloser, error)
}

type httpClient struct {
	baseURL string
	http    *http.Client
}

// NewClient returns a Client rooted at baseURL. Requests are traced through
// otelhttp and bounded by timeout.
func NewClient(baseURL string, timeout time.Duration) (Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("pivot base url is required")
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &httpClient{
		baseURL: baseURL,
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}, nil
}

type trackRequest struct {
	Service    string `json:"service"`
	ImageCount int    `json:"imageCount"`
}

func (c *httpClient) Track(ctx context.Context, token string, imageCount int) error {
	body, err := json.Marshal(trackRequest{Service: ServiceESign, ImageCount: imageCount})
	if err != nil {
		return fmt.Errorf("encode track request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+trackPath, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build track request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	setBearer(req, token)

	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (c *httpClient) Sign(ctx context.Context, token string, sr SignRequest) (io.ReadCloser, error) {
	var buf bytes.Buffer
	contentType, err := WriteSignForm(&buf, sr)
	if err != nil {
		return nil, fmt.Errorf("build sign form: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+signPath, &buf)
	if err != nil {
		return nil, fmt.Errorf("build sign request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/pdf")
	setBearer(req, token)

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// do sends req and maps non-2xx responses onto the package errors. On
// success the caller owns resp.Body.
func (c *httpClient) do(req *http.Request) (*http.Response, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	defer resp.Body.Close()
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
	return nil, statusError(resp.StatusCode, strings.TrimSpace(string(msg)))
}

func statusError(code int, msg string) error {
	var base error
	switch code {
	case http.StatusUnauthorized:
		base = ErrUnauthorized
	case http.StatusForbidden:
		base = ErrQuotaExceeded
	default:
		base = ErrUpstream
	}
	if msg == "" {
		return fmt.Errorf("%w: status %d", base, code)
	}
	return fmt.Errorf("%w: status %d: %s", base, code, msg)
}

func setBearer(req *http.Request, token string) {
	token = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(token), "Bearer "))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}
