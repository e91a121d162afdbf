package republish

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"packmule/internal/config"
)

// Sticker is one slot of an outbound pack: raw image bytes plus the emoji
// the destination platform associates with it.
type Sticker struct {
	Emoji string
	Image []byte
}

// Pack is the destination platform's pack representation, assembled from the
// on-disk descriptor and slot images.
type Pack struct {
	Title    string
	Author   string
	Cover    []byte
	Stickers []Sticker
}

// Receipt is what the destination platform hands back after an upload.
type Receipt struct {
	PackID  string `json:"pack_id"`
	PackKey string `json:"pack_key"`
}

// Client defines destination platform operations used by the pipeline.
type Client interface {
	UploadPack(ctx context.Context, p *Pack) (Receipt, error)
}

// HTTPDoer describes the HTTP client used by the destination service.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type httpClient struct {
	baseURL string
	apiKey  string
	client  HTTPDoer
}

// NewHTTPClient constructs a destination client from the configured API URL
// and key. The caller is expected to have validated that both are present.
func NewHTTPClient(cfg *config.Config) Client {
	timeout := time.Duration(cfg.Destination.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return NewHTTPClientWithDoer(cfg.Destination.APIURL, cfg.Destination.APIKey, &http.Client{Timeout: timeout})
}

// NewHTTPClientWithDoer constructs a destination client with an explicit
// HTTP doer, used by tests.
func NewHTTPClientWithDoer(baseURL, apiKey string, doer HTTPDoer) Client {
	return &httpClient{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:  strings.TrimSpace(apiKey),
		client:  doer,
	}
}

type manifest struct {
	Title  string   `json:"title"`
	Author string   `json:"author"`
	Emojis []string `json:"emojis"`
}

// UploadPack streams the pack as a multipart request: a JSON manifest part,
// the cover image, and one part per sticker in slot order.
func (c *httpClient) UploadPack(ctx context.Context, p *Pack) (Receipt, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	m := manifest{Title: p.Title, Author: p.Author, Emojis: make([]string, 0, len(p.Stickers))}
	for _, s := range p.Stickers {
		m.Emojis = append(m.Emojis, s.Emoji)
	}
	manifestJSON, err := json.Marshal(m)
	if err != nil {
		return Receipt{}, fmt.Errorf("marshal manifest: %w", err)
	}
	if err := writer.WriteField("manifest", string(manifestJSON)); err != nil {
		return Receipt{}, fmt.Errorf("write manifest part: %w", err)
	}

	cover, err := writer.CreateFormFile("cover", "cover.webp")
	if err != nil {
		return Receipt{}, fmt.Errorf("create cover part: %w", err)
	}
	if _, err := cover.Write(p.Cover); err != nil {
		return Receipt{}, fmt.Errorf("write cover part: %w", err)
	}

	for i, s := range p.Stickers {
		name := fmt.Sprintf("sticker_%03d", i)
		part, err := writer.CreateFormFile(name, name+".webp")
		if err != nil {
			return Receipt{}, fmt.Errorf("create sticker part %d: %w", i, err)
		}
		if _, err := part.Write(s.Image); err != nil {
			return Receipt{}, fmt.Errorf("write sticker part %d: %w", i, err)
		}
	}
	if err := writer.Close(); err != nil {
		return Receipt{}, fmt.Errorf("finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/packs", &body)
	if err != nil {
		return Receipt{}, fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return Receipt{}, fmt.Errorf("upload pack: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return Receipt{}, fmt.Errorf("destination returned %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	var receipt Receipt
	if err := json.NewDecoder(resp.Body).Decode(&receipt); err != nil {
		return Receipt{}, fmt.Errorf("decode upload receipt: %w", err)
	}
	if receipt.PackID == "" || receipt.PackKey == "" {
		return Receipt{}, fmt.Errorf("destination returned incomplete receipt")
	}
	return receipt, nil
}
