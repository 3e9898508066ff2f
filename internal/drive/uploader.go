package drive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"booktracker/internal/config"

	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
)

const downloadTimeout = 12 * time.Second

// uploadService is the slice of the Drive API the uploader needs. It
// exists so tests can exercise the credential fallback without a real
// Drive backend.
type uploadService interface {
	Upload(ctx context.Context, name string, data []byte, folderID string) (string, error)
}

// apiService adapts the real Drive client to uploadService.
type apiService struct {
	svc *drive.Service
}

func (a *apiService) Upload(ctx context.Context, name string, data []byte, folderID string) (string, error) {
	meta := &drive.File{Name: name}
	if folderID != "" {
		meta.Parents = []string{folderID}
	}

	created, err := a.svc.Files.Create(meta).
		Media(bytes.NewReader(data)).
		Fields("id").
		Context(ctx).
		Do()
	if err != nil {
		return "", err
	}
	return created.Id, nil
}

// credentialStrategy is one way of obtaining an authenticated Drive
// client, tried in order.
type credentialStrategy struct {
	name  string
	build func(ctx context.Context) (uploadService, error)
}

// Uploader copies cover images into a Drive folder. Uploads go through
// the service account first; a quota rejection falls back to stored user
// credentials, which own the storage the service account lacks.
type Uploader struct {
	httpClient *http.Client
	folderID   string
	strategies []credentialStrategy
}

// Options configures an Uploader. A zero FolderID falls back to the
// configured Drive folder.
type Options struct {
	HTTPClient *http.Client
	FolderID   string
}

// NewUploader creates an uploader with the default credential chain.
func NewUploader(opts Options) *Uploader {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: downloadTimeout}
	}
	folderID := opts.FolderID
	if folderID == "" {
		folderID = config.DriveFolderID
	}

	return &Uploader{
		httpClient: httpClient,
		folderID:   folderID,
		strategies: []credentialStrategy{
			{name: "service account", build: func(ctx context.Context) (uploadService, error) {
				svc, err := serviceAccountService(ctx)
				if err != nil {
					return nil, err
				}
				return &apiService{svc: svc}, nil
			}},
			{name: "user credentials", build: func(ctx context.Context) (uploadService, error) {
				svc, err := userService(ctx)
				if err != nil {
					return nil, err
				}
				return &apiService{svc: svc}, nil
			}},
		},
	}
}

// UploadCover downloads the image at sourceURL and stores it in the
// Drive folder under name, returning a direct link to the uploaded file.
// Every failure is soft: the caller gets an empty string and keeps the
// local copy it already has.
func (u *Uploader) UploadCover(ctx context.Context, sourceURL, name string) string {
	if sourceURL == "" {
		return ""
	}

	data, err := u.download(ctx, sourceURL)
	if err != nil {
		slog.Warn("Failed to download cover for backup", "url", sourceURL, "error", err)
		return ""
	}

	for _, strategy := range u.strategies {
		svc, err := strategy.build(ctx)
		if err != nil {
			slog.Debug("Drive credentials unavailable", "strategy", strategy.name, "error", err)
			continue
		}

		id, err := svc.Upload(ctx, name, data, u.folderID)
		if err != nil {
			if isQuotaError(err) {
				slog.Info("Drive upload hit storage quota, trying next credentials", "strategy", strategy.name)
				continue
			}
			slog.Warn("Drive upload failed", "strategy", strategy.name, "name", name, "error", err)
			return ""
		}
		return fmt.Sprintf("https://drive.google.com/uc?id=%s", id)
	}

	slog.Warn("No Drive credentials could complete the upload", "name", name)
	return ""
}

func (u *Uploader) download(ctx context.Context, sourceURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d downloading image", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// isQuotaError reports whether the upload was rejected because the
// authenticated identity has no storage quota. Only this error advances
// the credential chain; everything else aborts.
func isQuotaError(err error) bool {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Code == http.StatusForbidden &&
		strings.Contains(strings.ToLower(apiErr.Message), "storage quota")
}
