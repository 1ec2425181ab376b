package storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// AvatarRehoster перезаливает внешний аватар в собственное хранилище и
// возвращает ключ объекта. Вызов best-effort: ошибки перезаливки не должны
// прерывать reconciliation игрока.
type AvatarRehoster interface {
	Rehost(ctx context.Context, externalURL string) (key string, err error)
	GetPublicURL(key string) string
}

type uploaderRehoster struct {
	uploader   FileUploader
	httpClient *http.Client
	keyPrefix  string
}

func NewAvatarRehoster(uploader FileUploader, httpClient *http.Client) AvatarRehoster {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &uploaderRehoster{
		uploader:   uploader,
		httpClient: httpClient,
		keyPrefix:  "avatars/",
	}
}

func (r *uploaderRehoster) Rehost(ctx context.Context, externalURL string) (string, error) {
	if externalURL == "" {
		return "", errors.New("external avatar URL is empty")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, externalURL, nil)
	if err != nil {
		return "", fmt.Errorf("creating avatar download request: %w", err)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("downloading avatar %s: %w", externalURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("downloading avatar %s: unexpected status %d", externalURL, resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	key := r.keyPrefix + uuid.NewString() + extensionForContentType(contentType)
	if _, err := r.uploader.Upload(ctx, key, contentType, resp.Body); err != nil {
		return "", err
	}

	return key, nil
}

func (r *uploaderRehoster) GetPublicURL(key string) string {
	return r.uploader.GetPublicURL(key)
}

func extensionForContentType(contentType string) string {
	switch contentType {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		parts := strings.Split(contentType, "/")
		if len(parts) == 2 && strings.HasPrefix(parts[0], "image") && parts[1] != "" {
			return "." + strings.Split(parts[1], "+")[0]
		}
		return ""
	}
}
