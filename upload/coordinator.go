package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/emergent-lab/flow-extension/upload/uploadtypes"
)

// Coordinator REST endpoints.
const (
	createPath   = "/upload/create"
	signPath     = "/upload/sign"
	completePath = "/upload/complete"
	abortPath    = "/upload/abort"
)

// HTTPCoordinator implements the Coordinator interface against the upload
// coordinator's REST protocol. Credentials are resolved by Authorize and
// pinned as a header snapshot; every request carries the snapshot taken by
// the most recent Authorize call.
type HTTPCoordinator struct {
	baseURL     string
	credentials uploadtypes.CredentialProvider
	httpClient  *http.Client

	mu      sync.Mutex
	headers http.Header
}

var _ uploadtypes.Coordinator = (*HTTPCoordinator)(nil)

// NewHTTPCoordinator creates a coordinator client for the service at
// baseURL. A nil httpClient falls back to http.DefaultClient.
func NewHTTPCoordinator(
	baseURL string,
	credentials uploadtypes.CredentialProvider,
	httpClient *http.Client,
) *HTTPCoordinator {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &HTTPCoordinator{
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		credentials: credentials,
		httpClient:  httpClient,
	}
}

// createSessionRequest is the wire form of a session create call.
type createSessionRequest struct {
	Filename string `json:"filename"`
	MIME     string `json:"mime"`
	Size     int64  `json:"size"`
}

// signPartResponse is the wire form of a part URL signing response.
type signPartResponse struct {
	URL string `json:"url"`
}

// completeSessionRequest is the wire form of a session complete call. Parts
// marshal by field name, giving the {PartNumber, ETag} objects the protocol
// requires.
type completeSessionRequest struct {
	Key      string                   `json:"key"`
	UploadID string                   `json:"uploadId"`
	Parts    []uploadtypes.PartResult `json:"parts"`
}

// abortSessionRequest is the wire form of a session abort call.
type abortSessionRequest struct {
	Key      string `json:"key"`
	UploadID string `json:"uploadId"`
}

// errorEnvelope is the structured error body the coordinator returns on
// non-2xx responses.
type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Hint    string `json:"hint,omitempty"`
}

// Authorize resolves credentials through the provider and pins them for
// subsequent requests. Called once per batch before any session is created.
func (c *HTTPCoordinator) Authorize(ctx context.Context) error {
	headers, err := c.credentials.AuthHeaders(ctx)
	if err != nil {
		return fmt.Errorf("resolving credentials: %w", err)
	}

	c.mu.Lock()
	c.headers = headers.Clone()
	c.mu.Unlock()

	return nil
}

// CreateSession opens a multipart session for one logical file and returns
// the coordinator's chunking plan.
func (c *HTTPCoordinator) CreateSession(
	ctx context.Context,
	filename, mimeType string,
	size int64,
) (uploadtypes.Session, error) {
	payload := createSessionRequest{Filename: filename, MIME: mimeType, Size: size}

	var session uploadtypes.Session
	if err := c.doJSON(ctx, http.MethodPost, createPath, nil, payload, &session); err != nil {
		return uploadtypes.Session{}, fmt.Errorf("creating session: %w", err)
	}

	return session, nil
}

// SignPartURL requests a short-lived URL for a direct PUT of one part.
// Callers request a fresh URL for every attempt.
func (c *HTTPCoordinator) SignPartURL(
	ctx context.Context,
	key, uploadID string,
	partNumber int,
) (string, error) {
	query := url.Values{}
	query.Set("key", key)
	query.Set("uploadId", uploadID)
	query.Set("partNumber", strconv.Itoa(partNumber))

	var signed signPartResponse
	if err := c.doJSON(ctx, http.MethodGet, signPath, query, nil, &signed); err != nil {
		return "", fmt.Errorf("signing part url: %w", err)
	}
	if signed.URL == "" {
		return "", fmt.Errorf("coordinator returned an empty signed url")
	}

	return signed.URL, nil
}

// CompleteSession assembles the transmitted parts into the final object.
// Parts must already be sorted ascending by PartNumber.
func (c *HTTPCoordinator) CompleteSession(
	ctx context.Context,
	key, uploadID string,
	parts []uploadtypes.PartResult,
) error {
	payload := completeSessionRequest{Key: key, UploadID: uploadID, Parts: parts}

	if err := c.doJSON(ctx, http.MethodPatch, completePath, nil, payload, nil); err != nil {
		return fmt.Errorf("completing session: %w", err)
	}

	return nil
}

// AbortSession discards an unfinished session so storage can reclaim its
// parts.
func (c *HTTPCoordinator) AbortSession(ctx context.Context, key, uploadID string) error {
	payload := abortSessionRequest{Key: key, UploadID: uploadID}

	if err := c.doJSON(ctx, http.MethodDelete, abortPath, nil, payload, nil); err != nil {
		return fmt.Errorf("aborting session: %w", err)
	}

	return nil
}

// doJSON performs one coordinator round trip: marshal payload, attach the
// credential snapshot, check the status, and decode into out when non-nil.
func (c *HTTPCoordinator) doJSON(
	ctx context.Context,
	method, path string,
	query url.Values,
	payload, out any,
) error {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, values := range c.snapshot() {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return decodeFailure(resp.StatusCode, raw)
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	return nil
}

// snapshot returns the pinned credential headers, or nil before the first
// Authorize call.
func (c *HTTPCoordinator) snapshot() http.Header {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.headers
}

// decodeFailure turns a non-2xx response into an error, preferring the
// structured envelope's message when the body carries one.
func decodeFailure(status int, raw []byte) error {
	var envelope errorEnvelope
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Message != "" {
		if envelope.Hint != "" {
			return fmt.Errorf("coordinator returned status %d: %s (%s)", status, envelope.Message, envelope.Hint)
		}
		return fmt.Errorf("coordinator returned status %d: %s", status, envelope.Message)
	}

	return fmt.Errorf("coordinator returned status %d", status)
}
