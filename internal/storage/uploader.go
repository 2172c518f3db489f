package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MaxImageBytes is the upload size cap enforced before any network call.
const MaxImageBytes = 10 << 20

var ErrImageTooLarge = errors.New("image exceeds the 10 MB upload limit")

type UploadResult struct {
	PublicURL   string
	ExpiringURL string
}

type Uploader interface {
	Upload(ctx context.Context, data []byte, contentType string) (UploadResult, error)
}

// HTTPUploader posts image binaries to a hosted object-storage endpoint and
// returns the resolvable URLs it assigns.
type HTTPUploader struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

func (u HTTPUploader) Upload(ctx context.Context, data []byte, contentType string) (UploadResult, error) {
	if len(data) > MaxImageBytes {
		return UploadResult{}, ErrImageTooLarge
	}
	if strings.TrimSpace(u.BaseURL) == "" {
		return UploadResult{}, fmt.Errorf("STORAGE_UPLOAD_URL is not set")
	}
	client := u.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	ext := "jpg"
	if parts := strings.SplitN(contentType, "/", 2); len(parts) == 2 && parts[1] != "" {
		ext = parts[1]
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("image", uuid.NewString()+"."+ext)
	if err != nil {
		return UploadResult{}, err
	}
	if _, err := part.Write(data); err != nil {
		return UploadResult{}, err
	}
	if err := writer.Close(); err != nil {
		return UploadResult{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.BaseURL, &buf)
	if err != nil {
		return UploadResult{}, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if strings.TrimSpace(u.APIKey) != "" {
		req.Header.Set("Authorization", "Bearer "+u.APIKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		return UploadResult{}, fmt.Errorf("storage upload: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return UploadResult{}, fmt.Errorf("storage upload error: %s", resp.Status)
	}

	var res struct {
		URL         string `json:"url"`
		ExpiringURL string `json:"expiring_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return UploadResult{}, err
	}
	if res.URL == "" {
		return UploadResult{}, fmt.Errorf("storage upload returned no url")
	}
	return UploadResult{PublicURL: res.URL, ExpiringURL: res.ExpiringURL}, nil
}
