// Package s3 provides the "s3" node type, which moves files to and from S3
// through pre-signed URLs.
package s3

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/vk/flowgrid/internal/ctxlog"
	"github.com/vk/flowgrid/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct {
	Client *http.Client
}

// Config selects the action. Inputs named like the path and URL fields
// override them, so pre-signed URLs can be produced by upstream nodes.
type Config struct {
	Action          string `json:"action" jsonschema:"Either upload or download."`
	SourcePath      string `json:"source_path,omitempty"`
	UploadURL       string `json:"upload_url,omitempty"`
	DownloadURL     string `json:"download_url,omitempty"`
	DestinationPath string `json:"destination_path,omitempty"`
}

func (c *Config) applyInputs(inputs map[string]any) {
	for name, field := range map[string]*string{
		"source_path":      &c.SourcePath,
		"upload_url":       &c.UploadURL,
		"download_url":     &c.DownloadURL,
		"destination_path": &c.DestinationPath,
	} {
		if v, ok := inputs[name].(string); ok && v != "" {
			*field = v
		}
	}
}

// handleUpload PUTs a local file to a pre-signed URL.
func (m *Module) handleUpload(ctx context.Context, cfg Config) (map[string]any, error) {
	logger := ctxlog.FromContext(ctx).With("action", "upload")
	if cfg.SourcePath == "" || cfg.UploadURL == "" {
		return nil, fmt.Errorf("upload requires source_path and upload_url")
	}

	file, err := os.Open(cfg.SourcePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open source file '%s': %w", cfg.SourcePath, err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to get file stats for '%s': %w", cfg.SourcePath, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, cfg.UploadURL, file)
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 upload request: %w", err)
	}

	contentType := mime.TypeByExtension(filepath.Ext(cfg.SourcePath))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	req.Header.Set("Content-Type", contentType)
	req.ContentLength = stat.Size()

	logger.Info("Uploading file to S3.", "source", cfg.SourcePath, "size", stat.Size(), "contentType", contentType)
	resp, err := m.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute S3 upload request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("S3 upload failed with status: %s", resp.Status)
	}

	logger.Info("Successfully uploaded file.", "status", resp.Status)
	return map[string]any{"success": true, "status": resp.Status, "bytes": stat.Size()}, nil
}

// handleDownload GETs a pre-signed URL into a local file.
func (m *Module) handleDownload(ctx context.Context, cfg Config) (map[string]any, error) {
	logger := ctxlog.FromContext(ctx).With("action", "download")
	if cfg.DownloadURL == "" || cfg.DestinationPath == "" {
		return nil, fmt.Errorf("download requires download_url and destination_path")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.DownloadURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 download request: %w", err)
	}
	resp, err := m.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute S3 download request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("S3 download failed with status: %s", resp.Status)
	}

	file, err := os.Create(cfg.DestinationPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create destination file '%s': %w", cfg.DestinationPath, err)
	}

	n, err := io.Copy(file, resp.Body)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		// A partial download is never left behind.
		_ = os.Remove(cfg.DestinationPath)
		return nil, fmt.Errorf("failed to write destination file '%s': %w", cfg.DestinationPath, err)
	}

	logger.Info("Successfully downloaded file.", "destination", cfg.DestinationPath, "size", n)
	return map[string]any{"success": true, "status": resp.Status, "bytes": n}, nil
}

func (m *Module) onRunS3(ctx context.Context, inputs map[string]any, cfg Config) (map[string]any, error) {
	cfg.applyInputs(inputs)
	switch strings.ToLower(cfg.Action) {
	case "upload":
		return m.handleUpload(ctx, cfg)
	case "download":
		return m.handleDownload(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown s3 action: '%s'", cfg.Action)
	}
}

// Register registers the handler with the registry.
func (m *Module) Register(r *registry.Registry) {
	if m.Client == nil {
		m.Client = &http.Client{}
	}
	r.Register("s3", registry.MustTyped(m.onRunS3, nil))
}
