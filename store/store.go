// Package store is a REST client for the hosted document database. Documents
// live in collections under a single database and carry server-assigned
// creation and update timestamps.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// listPageSize is the page size used for cursor pagination.
const listPageSize = 100

// ErrNotFound indicates the referenced document does not exist.
var ErrNotFound = errors.New("document not found")

// Config carries the credentials and endpoint for a Client. It is passed
// explicitly to NewClient; the package keeps no global state.
type Config struct {
	// Endpoint is the API root, e.g. "https://cloud.appwrite.io/v1".
	Endpoint string
	// ProjectID scopes requests to a project.
	ProjectID string
	// APIKey authenticates server-side access.
	APIKey string
	// DatabaseID selects the database all collections live in.
	DatabaseID string
	// HTTPClient overrides the HTTP client used for API calls.
	HTTPClient *http.Client
	// Logger receives structured request events. Defaults to a nop logger.
	Logger *zap.Logger
}

// Document is a stored record. CreatedAt and UpdatedAt are assigned by the
// server and never sent by this client.
type Document struct {
	ID           string
	CollectionID string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	// Fields holds the user payload of the document.
	Fields map[string]any
}

// Client talks to the document database API. Safe for concurrent use.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *zap.Logger
}

// NewClient validates cfg and returns a Client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("store: endpoint is required")
	}
	if cfg.ProjectID == "" || cfg.APIKey == "" {
		return nil, errors.New("store: project id and api key are required")
	}
	if cfg.DatabaseID == "" {
		return nil, errors.New("store: database id is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{cfg: cfg, http: httpClient, logger: logger}, nil
}

// rawDocument is the wire shape of a document. The metadata keys are
// $-prefixed; everything else is payload.
type rawDocument map[string]json.RawMessage

func (r rawDocument) toDocument() (Document, error) {
	doc := Document{Fields: make(map[string]any)}
	for key, value := range r {
		switch key {
		case "$id":
			if err := json.Unmarshal(value, &doc.ID); err != nil {
				return Document{}, errors.Wrap(err, "store: malformed $id")
			}
		case "$collectionId":
			if err := json.Unmarshal(value, &doc.CollectionID); err != nil {
				return Document{}, errors.Wrap(err, "store: malformed $collectionId")
			}
		case "$createdAt":
			if err := unmarshalTime(value, &doc.CreatedAt); err != nil {
				return Document{}, err
			}
		case "$updatedAt":
			if err := unmarshalTime(value, &doc.UpdatedAt); err != nil {
				return Document{}, err
			}
		case "$databaseId", "$permissions", "$sequence":
			// Metadata the client has no use for.
		default:
			var v any
			if err := json.Unmarshal(value, &v); err != nil {
				return Document{}, errors.Wrapf(err, "store: malformed field %s", key)
			}
			doc.Fields[key] = v
		}
	}
	if doc.ID == "" {
		return Document{}, errors.New("store: document without $id")
	}
	return doc, nil
}

func unmarshalTime(raw json.RawMessage, dst *time.Time) error {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return errors.Wrap(err, "store: malformed timestamp")
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return errors.Wrapf(err, "store: unparseable timestamp %q", s)
	}
	*dst = t
	return nil
}

// ListDocuments returns every document in a collection, following cursor
// pagination until the server runs out of pages.
//
// Arguments:
//   - ctx: Context for cancellation and deadlines.
//   - collection: The collection ID.
//
// Returns:
//   - []Document: All documents in the collection.
//   - error: An error if any page request fails.
func (c *Client) ListDocuments(ctx context.Context, collection string) ([]Document, error) {
	var all []Document
	cursor := ""

	for {
		query := url.Values{}
		query.Add("queries[]", fmt.Sprintf(`{"method":"limit","values":[%d]}`, listPageSize))
		if cursor != "" {
			query.Add("queries[]", fmt.Sprintf(`{"method":"cursorAfter","values":[%q]}`, cursor))
		}

		var page struct {
			Total     int           `json:"total"`
			Documents []rawDocument `json:"documents"`
		}
		path := fmt.Sprintf("/databases/%s/collections/%s/documents?%s",
			c.cfg.DatabaseID, collection, query.Encode())
		if err := c.do(ctx, http.MethodGet, path, nil, &page); err != nil {
			return nil, err
		}

		for _, raw := range page.Documents {
			doc, err := raw.toDocument()
			if err != nil {
				return nil, err
			}
			all = append(all, doc)
		}

		if len(page.Documents) < listPageSize {
			break
		}
		cursor = all[len(all)-1].ID
	}

	c.logger.Debug("listed documents",
		zap.String("collection", collection),
		zap.Int("count", len(all)))
	return all, nil
}

// CreateDocument inserts a document with the given ID and payload. The server
// assigns the timestamps.
func (c *Client) CreateDocument(ctx context.Context, collection, id string, fields map[string]any) (*Document, error) {
	if id == "" {
		return nil, errors.New("store: document id is required")
	}

	body := map[string]any{
		"documentId": id,
		"data":       fields,
	}
	var raw rawDocument
	path := fmt.Sprintf("/databases/%s/collections/%s/documents", c.cfg.DatabaseID, collection)
	if err := c.do(ctx, http.MethodPost, path, body, &raw); err != nil {
		return nil, err
	}

	doc, err := raw.toDocument()
	if err != nil {
		return nil, err
	}
	c.logger.Debug("created document",
		zap.String("collection", collection),
		zap.String("id", doc.ID))
	return &doc, nil
}

// UpdateDocument patches the payload of an existing document. Unmentioned
// fields are left alone; the server bumps the update timestamp.
func (c *Client) UpdateDocument(ctx context.Context, collection, id string, fields map[string]any) (*Document, error) {
	if id == "" {
		return nil, errors.New("store: document id is required")
	}

	body := map[string]any{"data": fields}
	var raw rawDocument
	path := fmt.Sprintf("/databases/%s/collections/%s/documents/%s", c.cfg.DatabaseID, collection, id)
	if err := c.do(ctx, http.MethodPatch, path, body, &raw); err != nil {
		return nil, err
	}

	doc, err := raw.toDocument()
	if err != nil {
		return nil, err
	}
	c.logger.Debug("updated document",
		zap.String("collection", collection),
		zap.String("id", doc.ID))
	return &doc, nil
}

// DeleteDocument removes a document. Deleting a document the server does not
// know returns ErrNotFound.
func (c *Client) DeleteDocument(ctx context.Context, collection, id string) error {
	if id == "" {
		return errors.New("store: document id is required")
	}

	path := fmt.Sprintf("/databases/%s/collections/%s/documents/%s", c.cfg.DatabaseID, collection, id)
	if err := c.do(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return err
	}
	c.logger.Debug("deleted document",
		zap.String("collection", collection),
		zap.String("id", id))
	return nil
}

// do issues one API request, encoding body as JSON when present and decoding
// the response into out when out is non-nil.
func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "store: failed to encode request body")
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.Endpoint+path, reader)
	if err != nil {
		return errors.Wrap(err, "store: failed to build request")
	}
	req.Header.Set("X-Appwrite-Project", c.cfg.ProjectID)
	req.Header.Set("X-Appwrite-Key", c.cfg.APIKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "store: request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return errors.Wrapf(ErrNotFound, "%s %s", method, path)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apiError(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return errors.Wrap(err, "store: failed to decode response")
		}
	}
	return nil
}

func apiError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		return errors.Errorf("store: api error (status %d): %s", resp.StatusCode, payload.Message)
	}
	return errors.Errorf("store: api error (status %d)", resp.StatusCode)
}
