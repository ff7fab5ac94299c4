// Package gdrive implements service.Remote on the Google Drive application
// data folder. Only the user-initiated export and import commands use it.
package gdrive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"tabnotes/internal/config"
	"tabnotes/internal/service"
)

const (
	// Scope limits access to files this application created in appDataFolder.
	Scope = drive.DriveAppdataScope

	// APITimeout is the timeout for API calls.
	APITimeout = 30 * time.Second

	appDataFolder = "appDataFolder"
	listFields    = "files(id,name,size,modifiedTime)"
	maxListed     = 100
)

// Client implements service.Remote using the Drive API.
type Client struct {
	svc *drive.Service
}

// New creates a Drive client from the stored OAuth client and token.
// Requires oauth_client.json and token.json to exist.
func New(ctx context.Context, cfg *config.Config) (*Client, error) {
	if !cfg.HasOAuthClient() {
		return nil, fmt.Errorf("%w: oauth_client.json not found in %s", service.ErrAuth, cfg.Dir)
	}
	if !cfg.HasToken() {
		return nil, fmt.Errorf("%w: not logged in (run: tabnotes login)", service.ErrAuth)
	}

	oauthConfig, err := OAuthConfig(cfg)
	if err != nil {
		return nil, err
	}

	tokenData, err := os.ReadFile(cfg.TokenPath())
	if err != nil {
		return nil, fmt.Errorf("failed to read token.json: %w", err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(tokenData, &token); err != nil {
		return nil, fmt.Errorf("%w: invalid token.json: %v", service.ErrAuth, err)
	}

	// Token source refreshes the access token when needed
	httpClient := oauth2.NewClient(ctx, oauthConfig.TokenSource(ctx, &token))

	return NewWithHTTPClient(ctx, httpClient)
}

// NewWithHTTPClient creates a client with a custom HTTP client (for testing).
func NewWithHTTPClient(ctx context.Context, httpClient *http.Client, opts ...option.ClientOption) (*Client, error) {
	opts = append([]option.ClientOption{option.WithHTTPClient(httpClient)}, opts...)
	svc, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create drive service: %w", err)
	}
	return &Client{svc: svc}, nil
}

// OAuthConfig loads the OAuth client credentials for the Drive scope.
func OAuthConfig(cfg *config.Config) (*oauth2.Config, error) {
	clientJSON, err := os.ReadFile(cfg.OAuthClientPath())
	if err != nil {
		return nil, fmt.Errorf("failed to read oauth_client.json: %w", err)
	}
	oauthConfig, err := google.ConfigFromJSON(clientJSON, Scope)
	if err != nil {
		return nil, fmt.Errorf("invalid oauth_client.json: %w", err)
	}
	return oauthConfig, nil
}

// Upload implements service.Remote.
func (c *Client) Upload(ctx context.Context, name string, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	existing, err := c.find(ctx, name)
	if err != nil {
		return err
	}

	if existing != nil {
		_, err = c.svc.Files.Update(existing.Id, &drive.File{}).
			Media(bytes.NewReader(data)).
			Context(ctx).
			Do()
		return wrapError(err)
	}

	_, err = c.svc.Files.Create(&drive.File{
		Name:     name,
		MimeType: service.BackupContentType,
		Parents:  []string{appDataFolder},
	}).Media(bytes.NewReader(data)).Context(ctx).Do()
	return wrapError(err)
}

// Download implements service.Remote.
func (c *Client) Download(ctx context.Context, name string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	f, err := c.find(ctx, name)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, fmt.Errorf("backup not found: %s", name)
	}

	resp, err := c.svc.Files.Get(f.Id).Context(ctx).Download()
	if err != nil {
		return nil, wrapError(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, wrapError(err)
	}
	return data, nil
}

// List implements service.Remote.
func (c *Client) List(ctx context.Context) ([]service.RemoteFile, error) {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	resp, err := c.svc.Files.List().
		Spaces(appDataFolder).
		Q("trashed = false").
		OrderBy("modifiedTime desc").
		PageSize(maxListed).
		Fields(listFields).
		Context(ctx).
		Do()
	if err != nil {
		return nil, wrapError(err)
	}

	result := make([]service.RemoteFile, 0, len(resp.Files))
	for _, f := range resp.Files {
		result = append(result, service.RemoteFile{
			ID:       f.Id,
			Name:     f.Name,
			Size:     f.Size,
			Modified: f.ModifiedTime,
		})
	}
	return result, nil
}

// find returns the newest file called name, or nil.
func (c *Client) find(ctx context.Context, name string) (*drive.File, error) {
	resp, err := c.svc.Files.List().
		Spaces(appDataFolder).
		Q(fmt.Sprintf("name = '%s' and trashed = false", escapeQuery(name))).
		OrderBy("modifiedTime desc").
		PageSize(1).
		Fields(listFields).
		Context(ctx).
		Do()
	if err != nil {
		return nil, wrapError(err)
	}
	if len(resp.Files) == 0 {
		return nil, nil
	}
	return resp.Files[0], nil
}

func escapeQuery(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}

// wrapError wraps API errors with user-friendly messages.
func wrapError(err error) error {
	if err == nil {
		return nil
	}

	errStr := err.Error()

	// Check for timeout
	if strings.Contains(errStr, "context deadline exceeded") {
		return fmt.Errorf("request timed out")
	}

	// Check for auth errors
	if strings.Contains(errStr, "401") || strings.Contains(errStr, "403") {
		return fmt.Errorf("%w: token expired or revoked (run: tabnotes login)", service.ErrAuth)
	}

	// Check for not found
	if strings.Contains(errStr, "404") {
		return fmt.Errorf("not found")
	}

	return err
}
