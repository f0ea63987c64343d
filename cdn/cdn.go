// Package cdn is a client for the hosted image CDN's upload API. Assets are
// uploaded with signed requests and later addressed by the public ID embedded
// in their delivery URL.
package cdn

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// DefaultBaseURL is the CDN's upload API endpoint.
const DefaultBaseURL = "https://api.cloudinary.com"

// DefaultDeliveryHost serves uploaded assets.
const DefaultDeliveryHost = "res.cloudinary.com"

// ErrNotFound indicates the referenced asset does not exist on the CDN.
var ErrNotFound = errors.New("asset not found")

// Config carries the credentials and endpoints for a Client. It is passed
// explicitly to NewClient; the package keeps no global state.
type Config struct {
	// CloudName identifies the tenant on the CDN.
	CloudName string
	// APIKey and APISecret sign upload and destroy requests.
	APIKey    string
	APISecret string
	// BaseURL overrides the upload API endpoint. Defaults to DefaultBaseURL.
	BaseURL string
	// DeliveryHost is the hostname assets are served from. Defaults to
	// DefaultDeliveryHost.
	DeliveryHost string
	// UploadFolder is the default folder for uploads when the caller passes
	// an empty folder.
	UploadFolder string
	// HTTPClient overrides the HTTP client used for API calls.
	HTTPClient *http.Client
	// Logger receives structured request/response events. Defaults to a nop
	// logger.
	Logger *zap.Logger
}

// Asset describes an uploaded CDN asset.
type Asset struct {
	// PublicID is the provider-assigned path identifying the asset.
	PublicID string `json:"public_id"`
	// URL is the delivery URL of the asset.
	URL string `json:"secure_url"`
	// Format is the stored format reported by the CDN.
	Format string `json:"format"`
	// Bytes is the stored size.
	Bytes int `json:"bytes"`
	// Width and Height are the stored dimensions.
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Client talks to the CDN upload API. Safe for concurrent use.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *zap.Logger
	// now is swapped in tests to pin signature timestamps.
	now func() time.Time
}

// NewClient validates cfg and returns a Client.
//
// Arguments:
//   - cfg: Credentials and endpoints. CloudName, APIKey, and APISecret are
//     required.
//
// Returns:
//   - *Client: The configured client.
//   - error: An error if a required field is missing.
func NewClient(cfg Config) (*Client, error) {
	if cfg.CloudName == "" {
		return nil, errors.New("cdn: cloud name is required")
	}
	if cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, errors.New("cdn: api key and secret are required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.DeliveryHost == "" {
		cfg.DeliveryHost = DefaultDeliveryHost
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{cfg: cfg, http: httpClient, logger: logger, now: time.Now}, nil
}

// signature computes the SHA-1 request signature over the sorted
// key=value parameter string concatenated with the API secret.
func (c *Client) signature(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+params[k])
	}
	sum := sha1.Sum([]byte(strings.Join(pairs, "&") + c.cfg.APISecret))
	return hex.EncodeToString(sum[:])
}

// signedParams builds the signed parameter set for a request, stamping in
// the timestamp and credentials.
func (c *Client) signedParams(params map[string]string) map[string]string {
	params["timestamp"] = fmt.Sprintf("%d", c.now().Unix())
	params["signature"] = c.signature(params)
	params["api_key"] = c.cfg.APIKey
	return params
}

// Upload pushes encoded image bytes to the CDN under folder. An empty folder
// falls back to the configured default. The public ID is a fresh UUID so
// repeated uploads of the same bytes never collide.
//
// Arguments:
//   - ctx: Context for cancellation and deadlines.
//   - data: The encoded image bytes.
//   - folder: Destination folder on the CDN.
//
// Returns:
//   - *Asset: The stored asset as reported by the CDN.
//   - error: An error if the request fails or the CDN rejects the upload.
func (c *Client) Upload(ctx context.Context, data []byte, folder string) (*Asset, error) {
	if len(data) == 0 {
		return nil, errors.New("cdn: no data to upload")
	}
	if folder == "" {
		folder = c.cfg.UploadFolder
	}

	params := map[string]string{
		"public_id": uuid.NewString(),
	}
	if folder != "" {
		params["folder"] = folder
	}
	params = c.signedParams(params)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for k, v := range params {
		if err := writer.WriteField(k, v); err != nil {
			return nil, errors.Wrap(err, "cdn: failed to write form field")
		}
	}
	part, err := writer.CreateFormFile("file", "upload")
	if err != nil {
		return nil, errors.Wrap(err, "cdn: failed to create file part")
	}
	if _, err := part.Write(data); err != nil {
		return nil, errors.Wrap(err, "cdn: failed to write file part")
	}
	if err := writer.Close(); err != nil {
		return nil, errors.Wrap(err, "cdn: failed to finalize form")
	}

	asset, err := c.postUpload(ctx, &body, writer.FormDataContentType())
	if err != nil {
		return nil, err
	}
	c.logger.Info("uploaded asset",
		zap.String("public_id", asset.PublicID),
		zap.Int("bytes", asset.Bytes),
		zap.String("folder", folder))
	return asset, nil
}

// UploadFromURL has the CDN fetch an existing remote asset by URL and store
// it under folder, avoiding a download/re-upload round trip through this
// client.
func (c *Client) UploadFromURL(ctx context.Context, remoteURL, folder string) (*Asset, error) {
	if remoteURL == "" {
		return nil, errors.New("cdn: remote url is required")
	}
	if folder == "" {
		folder = c.cfg.UploadFolder
	}

	params := map[string]string{
		"public_id": uuid.NewString(),
	}
	if folder != "" {
		params["folder"] = folder
	}
	params = c.signedParams(params)
	params["file"] = remoteURL

	form := url.Values{}
	for k, v := range params {
		form.Set(k, v)
	}

	asset, err := c.postUpload(ctx, strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
	if err != nil {
		return nil, err
	}
	c.logger.Info("ingested remote asset",
		zap.String("public_id", asset.PublicID),
		zap.String("source", remoteURL),
		zap.String("folder", folder))
	return asset, nil
}

func (c *Client) postUpload(ctx context.Context, body io.Reader, contentType string) (*Asset, error) {
	endpoint := fmt.Sprintf("%s/v1_1/%s/image/upload", c.cfg.BaseURL, c.cfg.CloudName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return nil, errors.Wrap(err, "cdn: failed to build upload request")
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "cdn: upload request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp)
	}

	var asset Asset
	if err := json.NewDecoder(resp.Body).Decode(&asset); err != nil {
		return nil, errors.Wrap(err, "cdn: failed to decode upload response")
	}
	return &asset, nil
}

// Delete destroys the asset behind a delivery URL. Deleting an asset the CDN
// no longer knows returns ErrNotFound.
func (c *Client) Delete(ctx context.Context, deliveryURL string) error {
	publicID, err := PublicIDFromURL(deliveryURL)
	if err != nil {
		return err
	}

	params := c.signedParams(map[string]string{"public_id": publicID})
	form := url.Values{}
	for k, v := range params {
		form.Set(k, v)
	}

	endpoint := fmt.Sprintf("%s/v1_1/%s/image/destroy", c.cfg.BaseURL, c.cfg.CloudName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return errors.Wrap(err, "cdn: failed to build destroy request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "cdn: destroy request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return apiError(resp)
	}

	var result struct {
		Result string `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return errors.Wrap(err, "cdn: failed to decode destroy response")
	}
	if result.Result == "not found" {
		return errors.Wrapf(ErrNotFound, "public id %s", publicID)
	}
	if result.Result != "ok" {
		return errors.Errorf("cdn: destroy returned %q for public id %s", result.Result, publicID)
	}

	c.logger.Info("deleted asset", zap.String("public_id", publicID))
	return nil
}

// IsDeliveryURL reports whether rawURL points at this client's CDN delivery
// hostname.
func (c *Client) IsDeliveryURL(rawURL string) bool {
	return strings.Contains(rawURL, c.cfg.DeliveryHost)
}

// apiError turns a non-200 response into an error carrying the CDN's message
// when one is present.
func apiError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var payload struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error.Message != "" {
		return errors.Errorf("cdn: api error (status %d): %s", resp.StatusCode, payload.Error.Message)
	}
	return errors.Errorf("cdn: api error (status %d)", resp.StatusCode)
}
