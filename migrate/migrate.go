// Package migrate moves product image URLs off the legacy storage provider
// and onto the image CDN. The batch runs strictly sequentially with a fixed
// delay between items to stay inside the CDN's rate limit; one failing item
// never aborts the batch.
package migrate

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/cartlab/go-media/cdn"
	"github.com/cartlab/go-media/metrics"
	"github.com/cartlab/go-media/store"
)

// DocumentStore is the slice of the document database client the migrator
// needs.
type DocumentStore interface {
	ListDocuments(ctx context.Context, collection string) ([]store.Document, error)
	UpdateDocument(ctx context.Context, collection, id string, fields map[string]any) (*store.Document, error)
}

// AssetIngester is the slice of the CDN client the migrator needs.
type AssetIngester interface {
	UploadFromURL(ctx context.Context, remoteURL, folder string) (*cdn.Asset, error)
	IsDeliveryURL(rawURL string) bool
}

// Action classifies what happened to one item.
type Action string

const (
	// ActionMigrated means the image was re-ingested and the record updated.
	ActionMigrated Action = "migrated"
	// ActionSkipped means the item needed no work (already on the CDN,
	// empty, or not a legacy URL).
	ActionSkipped Action = "skipped"
	// ActionFailed means the item errored; the batch continued.
	ActionFailed Action = "failed"
)

// ItemResult records the outcome for one document.
type ItemResult struct {
	DocumentID string
	Action     Action
	// Reason explains a skip.
	Reason string
	// FromURL and ToURL trace a migration.
	FromURL string
	ToURL   string
	// Err carries the failure message for ActionFailed items.
	Err string
}

// Summary is the batch outcome.
type Summary struct {
	Migrated int
	Skipped  int
	Failed   int
	Items    []ItemResult
}

// Options configures a migration run.
type Options struct {
	// Collection is the document collection holding the products.
	Collection string
	// ImageField is the document field carrying the image URL.
	ImageField string
	// LegacyHosts identify URLs still on the old storage provider.
	LegacyHosts []string
	// Folder is the CDN destination folder.
	Folder string
	// Delay is the pause between consecutive items.
	Delay time.Duration
}

// Migrator runs the batch. Construct with New.
type Migrator struct {
	store   DocumentStore
	cdnc    AssetIngester
	opts    Options
	logger  *zap.Logger
	tracker *metrics.Tracker
}

// New validates opts and returns a Migrator. Logger and tracker may be nil.
func New(docs DocumentStore, assets AssetIngester, opts Options, logger *zap.Logger, tracker *metrics.Tracker) (*Migrator, error) {
	if docs == nil || assets == nil {
		return nil, errors.New("migrate: store and cdn clients are required")
	}
	if opts.Collection == "" {
		return nil, errors.New("migrate: collection is required")
	}
	if opts.ImageField == "" {
		opts.ImageField = store.FieldImageURL
	}
	if len(opts.LegacyHosts) == 0 {
		return nil, errors.New("migrate: at least one legacy host is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if tracker == nil {
		tracker = metrics.NewTracker()
	}
	return &Migrator{store: docs, cdnc: assets, opts: opts, logger: logger, tracker: tracker}, nil
}

// IsLegacyURL reports whether rawURL points at one of the legacy storage
// hostnames. Plain substring matching, same as the delivery-URL classifier.
func IsLegacyURL(rawURL string, hosts []string) bool {
	for _, host := range hosts {
		if host != "" && strings.Contains(rawURL, host) {
			return true
		}
	}
	return false
}

// Run lists the collection and processes the documents one at a time,
// sleeping between items. Per-item failures are recorded in the summary and
// the loop moves on. Cancelling ctx stops the batch between items; the
// partial summary is returned alongside the context error.
//
// Arguments:
//   - ctx: Context for cancellation.
//
// Returns:
//   - *Summary: Counts and per-item results for everything processed.
//   - error: A list failure or the context error; per-item failures are not
//     returned here.
func (m *Migrator) Run(ctx context.Context) (*Summary, error) {
	docs, err := m.store.ListDocuments(ctx, m.opts.Collection)
	if err != nil {
		return nil, errors.Wrap(err, "migrate: failed to list documents")
	}

	m.logger.Info("starting migration batch",
		zap.String("collection", m.opts.Collection),
		zap.Int("documents", len(docs)),
		zap.Duration("delay", m.opts.Delay))

	summary := &Summary{}
	for i, doc := range docs {
		if i > 0 && m.opts.Delay > 0 {
			if err := sleep(ctx, m.opts.Delay); err != nil {
				return summary, err
			}
		}
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		start := time.Now()
		result := m.processItem(ctx, doc)
		m.tracker.Observe("migrate.item", time.Since(start))
		m.tracker.Add("migrate."+string(result.Action), 1)

		summary.Items = append(summary.Items, result)
		switch result.Action {
		case ActionMigrated:
			summary.Migrated++
			m.logger.Info("migrated item",
				zap.String("document", result.DocumentID),
				zap.String("from", result.FromURL),
				zap.String("to", result.ToURL))
		case ActionSkipped:
			summary.Skipped++
			m.logger.Debug("skipped item",
				zap.String("document", result.DocumentID),
				zap.String("reason", result.Reason))
		case ActionFailed:
			summary.Failed++
			m.logger.Warn("item failed, continuing batch",
				zap.String("document", result.DocumentID),
				zap.String("error", result.Err))
		}
	}

	m.logger.Info("migration batch finished",
		zap.Int("migrated", summary.Migrated),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed))
	return summary, nil
}

// processItem handles one document end to end: classify the URL, re-ingest
// through the CDN, and swap the record's image field.
func (m *Migrator) processItem(ctx context.Context, doc store.Document) ItemResult {
	result := ItemResult{DocumentID: doc.ID}

	rawURL, _ := doc.Fields[m.opts.ImageField].(string)
	switch {
	case rawURL == "":
		result.Action = ActionSkipped
		result.Reason = "no image url"
		return result
	case m.cdnc.IsDeliveryURL(rawURL):
		result.Action = ActionSkipped
		result.Reason = "already on cdn"
		return result
	case !IsLegacyURL(rawURL, m.opts.LegacyHosts):
		result.Action = ActionSkipped
		result.Reason = "not a legacy url"
		return result
	}

	result.FromURL = rawURL
	asset, err := m.cdnc.UploadFromURL(ctx, rawURL, m.opts.Folder)
	if err != nil {
		result.Action = ActionFailed
		result.Err = err.Error()
		return result
	}

	if _, err := m.store.UpdateDocument(ctx, m.opts.Collection, doc.ID,
		map[string]any{m.opts.ImageField: asset.URL}); err != nil {
		result.Action = ActionFailed
		result.Err = err.Error()
		return result
	}

	result.Action = ActionMigrated
	result.ToURL = asset.URL
	return result
}

// sleep waits for d or until ctx is cancelled.
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
