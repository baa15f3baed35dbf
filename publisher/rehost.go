package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
)

// fallbackImageType is used when the source response carries no Content-Type.
const fallbackImageType = "image/jpeg"

type uploadResp struct {
	Images []struct {
		URL string `json:"url"`
	} `json:"images"`
}

// RehostImage copies a transient provider-hosted image into Ghost storage and
// returns the Ghost-owned URL. Network or non-success failures at either step
// return "" so callers can fall back to the original URL; the draft then
// points at an image that expires with the provider's link, which is the
// accepted trade-off. The error return is reserved for credential problems.
func (p *Publisher) RehostImage(ctx context.Context, srcURL string) (string, error) {
	data, contentType, ok := p.fetchImage(ctx, srcURL)
	if !ok {
		return "", nil
	}

	hosted, err := p.uploadImage(ctx, data, contentType)
	if err != nil {
		var cfgErr *ConfigError
		if errors.As(err, &cfgErr) {
			return "", err
		}
		p.logger.Printf("[WARN] image upload failed: %v", err)
		return "", nil
	}
	return hosted, nil
}

func (p *Publisher) fetchImage(ctx context.Context, srcURL string) ([]byte, string, bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srcURL, nil)
	if err != nil {
		p.logger.Printf("[WARN] image fetch failed: %v", err)
		return nil, "", false
	}
	resp, err := p.client.Do(req)
	if err != nil {
		p.logger.Printf("[WARN] image fetch failed: %v", err)
		return nil, "", false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		p.logger.Printf("[WARN] image fetch returned status %d for %s", resp.StatusCode, srcURL)
		return nil, "", false
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		p.logger.Printf("[WARN] image fetch failed: %v", err)
		return nil, "", false
	}

	contentType := resp.Header.Get("Content-Type")
	if i := strings.Index(contentType, ";"); i >= 0 {
		contentType = strings.TrimSpace(contentType[:i])
	}
	if contentType == "" {
		contentType = fallbackImageType
	}
	return data, contentType, true
}

func (p *Publisher) uploadImage(ctx context.Context, data []byte, contentType string) (string, error) {
	filename := fmt.Sprintf("cover-%d%s", timeNow().UnixNano(), extensionFor(contentType))

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, filename))
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(data); err != nil {
		return "", err
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.GhostURL+uploadPath, &body)
	if err != nil {
		return "", err
	}
	auth, err := authHeader(p.cfg.GhostAdminKey)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", auth)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := p.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		detail, _ := io.ReadAll(resp.Body)
		return "", &PublishRejectedError{StatusCode: resp.StatusCode, Body: string(detail)}
	}

	var parsed uploadResp
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", err
	}
	if len(parsed.Images) == 0 || parsed.Images[0].URL == "" {
		return "", fmt.Errorf("ghost upload returned no image URL")
	}
	return parsed.Images[0].URL, nil
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ".jpg"
	}
}
