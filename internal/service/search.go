package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/esgai/esgsearch/internal/models"
	"github.com/rs/zerolog/log"
)

const (
	ESGSearchPath      = "/esg_search"
	InternetSearchPath = "/internet_search"
)

// SearchClient posts search requests to the backend behind BASE_URL
type SearchClient struct {
	httpClient *http.Client
	baseURL    string
	anonKey    string
	region     string
}

// NewSearchClient creates a client. A zero timeout leaves requests without a
// deadline beyond the caller's context.
func NewSearchClient(baseURL, anonKey, region string, timeout time.Duration) *SearchClient {
	return &SearchClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		anonKey:    anonKey,
		region:     region,
	}
}

// WithHTTPClient swaps the underlying transport client
func (c *SearchClient) WithHTTPClient(hc *http.Client) *SearchClient {
	c.httpClient = hc
	return c
}

// Configured reports whether a backend URL is set
func (c *SearchClient) Configured() bool {
	return c.baseURL != ""
}

// ESGSearch calls POST {BASE_URL}/esg_search
func (c *SearchClient) ESGSearch(ctx context.Context, creds models.Credentials, body models.ESGSearchBody) (string, error) {
	return c.post(ctx, ESGSearchPath, creds, body)
}

// InternetSearch calls POST {BASE_URL}/internet_search
func (c *SearchClient) InternetSearch(ctx context.Context, creds models.Credentials, body models.InternetSearchBody) (string, error) {
	return c.post(ctx, InternetSearchPath, creds, body)
}

func (c *SearchClient) post(ctx context.Context, path string, creds models.Credentials, body any) (string, error) {
	url := c.baseURL + path

	out, err := c.do(ctx, url, creds, body)
	if err != nil {
		log.Error().Err(err).Str("url", url).Msg("error making the request")
		return "", err
	}
	return out, nil
}

func (c *SearchClient) do(ctx context.Context, url string, creds models.Credentials, body any) (string, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	c.setHeaders(req, creds)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &NetworkError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &HTTPStatusError{StatusCode: resp.StatusCode, StatusText: statusText(resp)}
	}

	return reencode(resp.Body)
}

// setHeaders attaches the backend's auth scheme: a bearer anon key plus the
// user's credentials as plain custom headers
func (c *SearchClient) setHeaders(req *http.Request, creds models.Credentials) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.anonKey)
	req.Header.Set("email", creds.Email)
	req.Header.Set("password", creds.Password)
	req.Header.Set("x-region", c.region)
}

func statusText(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return text
}

// reencode checks the body is a single JSON value and strips insignificant
// whitespace. Key order, number text and string escapes are kept as sent.
func reencode(r io.Reader) (string, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return "", &ParseError{Err: fmt.Errorf("read body: %w", err)}
	}
	if !json.Valid(raw) {
		// Unmarshal only to get a positioned syntax error
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return "", &ParseError{Err: err}
		}
		return "", &ParseError{Err: errors.New("invalid JSON body")}
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return "", &ParseError{Err: err}
	}
	return buf.String(), nil
}
