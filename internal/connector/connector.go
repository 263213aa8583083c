// Package connector holds the HTTP clients for the upstream commerce
// systems. Each pane owns its own client; the pipeline uses the media
// uploader.
package connector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/merchdeck/merchdeck/internal/logging"
)

// TokenEnv is the environment variable carrying the upstream API token.
const TokenEnv = "MERCHDECK_API_TOKEN"

// Client is the shared HTTP plumbing for one upstream.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// New builds a client for the given base URL. The token is read from
// the environment.
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   os.Getenv(TokenEnv),
		http:    &http.Client{Timeout: 60 * time.Second},
	}
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return c.http.Do(req)
}

// MediaUploader pushes processed artifacts to the e-commerce upstream.
// It never retries; every failure is a per-item error for the pipeline
// to report.
type MediaUploader struct {
	client *Client
	log    *slog.Logger
}

// NewMediaUploader builds an uploader against the given base URL.
func NewMediaUploader(baseURL string) *MediaUploader {
	return &MediaUploader{
		client: New(baseURL),
		log:    logging.WithComponent("uploader"),
	}
}

type uploadResponse struct {
	Message string `json:"message"`
}

// Upload sends one image as multipart form data, attributed to its
// record.
func (u *MediaUploader) Upload(ctx context.Context, recordKey, fileName string, data []byte) (string, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if err := w.WriteField("record_key", recordKey); err != nil {
		return "", err
	}
	part, err := w.CreateFormFile("file", fileName)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(data); err != nil {
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}

	endpoint := u.client.baseURL + "/api/media/upload"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := u.client.do(req)
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", fileName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		u.log.Warn("upload rejected", "file", fileName, "status", resp.StatusCode)
		return "", fmt.Errorf("upload %s: upstream returned %d: %s", fileName, resp.StatusCode, snippet)
	}

	var parsed uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		// Some upstreams answer with an empty body on success.
		return "uploaded", nil
	}
	return parsed.Message, nil
}

// Record is one row from an upstream listing endpoint. Fields beyond
// the identity pair stay schemaless; grids render what they get.
type Record struct {
	ID     string            `json:"id"`
	Label  string            `json:"label"`
	Fields map[string]string `json:"fields"`
}

// Page is one slice of an upstream listing.
type Page struct {
	Records []Record `json:"records"`
	Total   int      `json:"total"`
	Offset  int      `json:"offset"`
}

// RecordSource fetches listing pages for a grid pane.
type RecordSource interface {
	Fetch(ctx context.Context, resource string, offset, limit int) (*Page, error)
}

// RecordClient is the HTTP RecordSource.
type RecordClient struct {
	client *Client
}

// NewRecordClient builds a record source against the given base URL.
func NewRecordClient(baseURL string) *RecordClient {
	return &RecordClient{client: New(baseURL)}
}

// Fetch loads one page of the named resource.
func (r *RecordClient) Fetch(ctx context.Context, resource string, offset, limit int) (*Page, error) {
	q := url.Values{}
	q.Set("offset", strconv.Itoa(offset))
	q.Set("limit", strconv.Itoa(limit))
	endpoint := fmt.Sprintf("%s/api/%s?%s", r.client.baseURL, resource, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.client.do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", resource, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: upstream returned %d", resource, resp.StatusCode)
	}
	var page Page
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("fetch %s: %w", resource, err)
	}
	return &page, nil
}
