// Package drive mirrors note files to Google Drive through the official API
// client. Files are plain text and live in the scope-restricted app space.
package drive

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/notekeeper/internal/server/oauth"
	"github.com/dmitrijs2005/notekeeper/internal/server/services"
	gdrive "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

const noteMimeType = "text/plain"

// Client wraps one authenticated Drive service.
type Client struct {
	svc *gdrive.Service
}

var _ services.RemoteStore = (*Client)(nil)

// NewClient builds a Drive client on top of an already-authenticated HTTP
// client. Extra options let tests point it at a local server.
func NewClient(ctx context.Context, httpClient *http.Client, extra ...option.ClientOption) (*Client, error) {
	opts := append([]option.ClientOption{option.WithHTTPClient(httpClient)}, extra...)
	svc, err := gdrive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating drive service: %w", err)
	}
	return &Client{svc: svc}, nil
}

// Create uploads a new file and returns its Drive id.
func (c *Client) Create(ctx context.Context, name, content string) (string, error) {
	f := &gdrive.File{Name: name, MimeType: noteMimeType}
	created, err := c.svc.Files.Create(f).
		Media(strings.NewReader(content)).
		Fields("id").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("creating remote file: %w", err)
	}
	return created.Id, nil
}

// Update replaces the content of an existing file, keeping its id.
func (c *Client) Update(ctx context.Context, fileID, content string) (string, error) {
	updated, err := c.svc.Files.Update(fileID, &gdrive.File{}).
		Media(strings.NewReader(content)).
		Fields("id").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("updating remote file: %w", err)
	}
	return updated.Id, nil
}

// Delete removes a file.
func (c *Client) Delete(ctx context.Context, fileID string) error {
	if err := c.svc.Files.Delete(fileID).Context(ctx).Do(); err != nil {
		return fmt.Errorf("deleting remote file: %w", err)
	}
	return nil
}

// Factory adapts the OAuth coordinator into a per-user RemoteStore factory.
// Errors from the coordinator (not linked, reconnect required) pass through
// untouched so the sync layer can classify them.
func Factory(coord *oauth.Coordinator) services.RemoteFactory {
	return func(ctx context.Context, userID string) (services.RemoteStore, error) {
		httpClient, err := coord.Client(ctx, userID)
		if err != nil {
			return nil, err
		}
		return NewClient(ctx, httpClient)
	}
}
