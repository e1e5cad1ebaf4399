package core

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"time"
)

// ErrUploadNotConfigured is returned when no image host is configured.
var ErrUploadNotConfigured = errors.New("image upload url not configured")

// ImageUploader stores an image on the external host and returns its public URL.
type ImageUploader interface {
	Upload(ctx context.Context, filename string, data []byte) (string, error)
}

// HTTPUploadClient posts images to a Cloudinary-compatible unsigned upload endpoint.
type HTTPUploadClient struct {
	client *http.Client
	url    string
	preset string
}

func NewHTTPUploadClient(uploadURL, preset string) *HTTPUploadClient {
	return &HTTPUploadClient{
		client: &http.Client{Timeout: 30 * time.Second},
		url:    uploadURL,
		preset: preset,
	}
}

type uploadResponse struct {
	SecureURL string `json:"secure_url"`
	URL       string `json:"url"`
	Error     *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *HTTPUploadClient) Upload(ctx context.Context, filename string, data []byte) (string, error) {
	if c.url == "" {
		return "", ErrUploadNotConfigured
	}

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(data); err != nil {
		return "", err
	}
	if c.preset != "" {
		if err := mw.WriteField("upload_preset", c.preset); err != nil {
			return "", err
		}
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	log.Printf("image upload name=%s size=%dB", filename, len(data))

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}
	var out uploadResponse
	_ = json.Unmarshal(raw, &out)
	if resp.StatusCode >= 300 {
		msg := string(raw)
		if out.Error != nil && out.Error.Message != "" {
			msg = out.Error.Message
		}
		return "", fmt.Errorf("image host returned status %d: %s", resp.StatusCode, msg)
	}
	if out.SecureURL != "" {
		return out.SecureURL, nil
	}
	if out.URL != "" {
		return out.URL, nil
	}
	return "", errors.New("image host response has no url")
}
