package drive

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	"github.com/screenvault/go-drive-gateway/internal/apperrors"
)

// imageQuery selects image-typed, non-deleted files.
const imageQuery = "mimeType contains 'image/' and trashed=false"

const listFields = "files(id, name, mimeType, createdTime, thumbnailLink, webViewLink)"

// Client performs listing and retrieval calls against the provider on
// behalf of a connected user. It holds no per-user state; the caller
// supplies the user's token set on each call.
type Client struct {
	baseURL  string
	oauth    *oauth2.Config
	base     *http.Client // underlying transport, injectable for tests
	timeout  time.Duration
	pageSize int
	logger   zerolog.Logger
}

// ClientOption defines a function type to modify the Client instance.
type ClientOption func(*Client)

// WithHTTPClient sets the underlying transport (primarily for testing)
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.base = hc
	}
}

// NewClient creates a Drive API client.
// baseURL is typically "https://www.googleapis.com/drive/v3".
func NewClient(baseURL string, oauthConfig *oauth2.Config, timeout time.Duration, pageSize int, logger zerolog.Logger, options ...ClientOption) *Client {
	c := &Client{
		baseURL:  baseURL,
		oauth:    oauthConfig,
		timeout:  timeout,
		pageSize: pageSize,
		logger:   logger,
	}

	for _, opt := range options {
		opt(c)
	}

	return c
}

// httpClient builds a token-refreshing HTTP client for the given token
// set. Refreshes happen transparently via the oauth2 transport.
func (c *Client) httpClient(ctx context.Context, token *oauth2.Token) *http.Client {
	if c.base != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, c.base)
	}
	return c.oauth.Client(ctx, token)
}

// ListImages queries the provider for image files, newest first, capped
// at the configured page size.
func (c *Client) ListImages(ctx context.Context, token *oauth2.Token) ([]File, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	params := url.Values{}
	params.Set("q", imageQuery)
	params.Set("fields", listFields)
	params.Set("orderBy", "createdTime desc")
	params.Set("pageSize", strconv.Itoa(c.pageSize))

	var out listResponse
	if err := c.getJSON(ctx, token, "/files?"+params.Encode(), &out); err != nil {
		return nil, errors.Wrap(err, "[Client.ListImages]")
	}

	c.logger.Debug().Int("count", len(out.Files)).Msg("listed drive images")
	return out.Files, nil
}

// GetMeta fetches the name and content type of a single file.
func (c *Client) GetMeta(ctx context.Context, token *oauth2.Token, fileID string) (Meta, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var meta Meta
	path := "/files/" + url.PathEscape(fileID) + "?fields=" + url.QueryEscape("name, mimeType")
	if err := c.getJSON(ctx, token, path, &meta); err != nil {
		return Meta{}, errors.Wrap(err, "[Client.GetMeta]")
	}
	return meta, nil
}

// Download fetches the file metadata and opens a content stream. The
// returned ReadCloser streams directly from the provider; the caller
// copies it to the response sink and closes it. Nothing is buffered
// beyond the transport's internal buffers.
//
// The metadata call is bounded by the client timeout. The content stream
// is bounded by ctx instead, so a large transfer is not cut off mid-copy
// while a disappearing client still cancels it.
func (c *Client) Download(ctx context.Context, token *oauth2.Token, fileID string) (Meta, io.ReadCloser, error) {
	meta, err := c.GetMeta(ctx, token, fileID)
	if err != nil {
		return Meta{}, nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/files/"+url.PathEscape(fileID)+"?alt=media", http.NoBody)
	if err != nil {
		return Meta{}, nil, errors.Wrap(err, "[Client.Download] NewRequest")
	}

	resp, err := c.httpClient(ctx, token).Do(req)
	if err != nil {
		return Meta{}, nil, c.transportError(err)
	}

	if sentinel := classifyStatus(resp.StatusCode); sentinel != nil {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return Meta{}, nil, &APIError{StatusCode: resp.StatusCode, Message: string(body), Err: sentinel}
	}

	c.logger.Debug().Str("file_id", fileID).Str("name", meta.Name).Msg("streaming download")
	return meta, resp.Body, nil
}

func (c *Client) getJSON(ctx context.Context, token *oauth2.Token, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return errors.Wrap(err, "NewRequest")
	}

	resp, err := c.httpClient(ctx, token).Do(req)
	if err != nil {
		return c.transportError(err)
	}
	defer resp.Body.Close()

	if sentinel := classifyStatus(resp.StatusCode); sentinel != nil {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{StatusCode: resp.StatusCode, Message: string(body), Err: sentinel}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(apperrors.ErrUnavailable, "decoding provider response")
	}

	return nil
}

// transportError maps network and timeout failures to ErrUnavailable.
// An oauth2 refresh rejection surfaces as ErrDelegationFailed since the
// stored credential is no longer honored.
func (c *Client) transportError(err error) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		return fmt.Errorf("refreshing delegated credential: %v: %w", err, apperrors.ErrDelegationFailed)
	}
	return fmt.Errorf("provider request failed: %v: %w", err, apperrors.ErrUnavailable)
}
