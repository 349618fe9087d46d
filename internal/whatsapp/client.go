// Package whatsapp talks to the Meta WhatsApp Cloud API: it decodes webhook
// payloads, answers the verification handshake, sends text replies and
// downloads media attachments.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// ErrUnavailable is returned by a client without credentials.
var ErrUnavailable = errors.New("whatsapp: not configured")

// maxMediaBytes caps downloaded attachments; WhatsApp audio is at most 16 MB.
const maxMediaBytes = 16 << 20

// Client is the messaging capability.
type Client interface {
	Available() bool
	SendText(ctx context.Context, to, body string) error
	DownloadMedia(ctx context.Context, mediaID string) ([]byte, string, error)
}

// CloudClient communicates with the Graph API on behalf of one phone number.
type CloudClient struct {
	baseURL       string
	apiVersion    string
	phoneNumberID string
	accessToken   string
	httpClient    *http.Client
}

// NewCloudClient creates a Cloud API client. baseURL is usually
// https://graph.facebook.com and apiVersion e.g. "v20.0".
func NewCloudClient(baseURL, apiVersion, phoneNumberID, accessToken string, httpClient *http.Client) *CloudClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &CloudClient{
		baseURL:       strings.TrimRight(baseURL, "/"),
		apiVersion:    apiVersion,
		phoneNumberID: phoneNumberID,
		accessToken:   accessToken,
		httpClient:    httpClient,
	}
}

// Available implements Client.
func (c *CloudClient) Available() bool { return true }

func (c *CloudClient) url(path string) string {
	return c.baseURL + "/" + c.apiVersion + "/" + path
}

// SendText sends a plain text message to the given number.
func (c *CloudClient) SendText(ctx context.Context, to, body string) error {
	payload := map[string]interface{}{
		"messaging_product": "whatsapp",
		"recipient_type":    "individual",
		"to":                to,
		"type":              "text",
		"text":              map[string]interface{}{"preview_url": false, "body": body},
	}
	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url(c.phoneNumberID+"/messages"), bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending message: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("sending message: unexpected status %d: %s", resp.StatusCode, readSnippet(resp.Body))
	}
	return nil
}

// DownloadMedia resolves a media id to its URL and fetches the bytes.
// It returns the content and its MIME type.
func (c *CloudClient) DownloadMedia(ctx context.Context, mediaID string) ([]byte, string, error) {
	meta, err := c.mediaInfo(ctx, mediaID)
	if err != nil {
		return nil, "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, meta.URL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("downloading media: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("downloading media: unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxMediaBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("reading media: %w", err)
	}
	if len(data) > maxMediaBytes {
		return nil, "", fmt.Errorf("downloading media: larger than %d bytes", maxMediaBytes)
	}

	mimeType := meta.MIMEType
	if mimeType == "" {
		mimeType = resp.Header.Get("Content-Type")
	}
	return data, mimeType, nil
}

type mediaInfo struct {
	URL      string `json:"url"`
	MIMEType string `json:"mime_type"`
}

func (c *CloudClient) mediaInfo(ctx context.Context, mediaID string) (*mediaInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url(mediaID), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching media info: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching media info: unexpected status %d", resp.StatusCode)
	}

	var info mediaInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("decoding media info: %w", err)
	}
	if info.URL == "" {
		return nil, errors.New("fetching media info: missing url")
	}
	return &info, nil
}

func readSnippet(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, 512))
	return strings.TrimSpace(string(b))
}

// Disabled is the Client used when no credentials are configured.
type Disabled struct{}

// Available implements Client.
func (Disabled) Available() bool { return false }

// SendText implements Client.
func (Disabled) SendText(context.Context, string, string) error { return ErrUnavailable }

// DownloadMedia implements Client.
func (Disabled) DownloadMedia(context.Context, string) ([]byte, string, error) {
	return nil, "", ErrUnavailable
}
