// Package watcher runs one price check: fetch the current price, compare it
// with the last recorded one, record it, and alert when it went down.
//
// A run is strictly sequential. Any error before the price is recorded
// aborts the run with nothing written. An alert failure is reported after the
// record is already durable and does not undo it.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/geniass/pricewatch/pkg/alert"
	"github.com/geniass/pricewatch/pkg/delta"
)

// PriceFetcher produces the currently displayed price of a product.
type PriceFetcher interface {
	FetchPrice(ctx context.Context, productID string) (int64, error)
	TargetURL(productID string) string
}

// Store is the price history.
type Store interface {
	Latest(ctx context.Context) (price int64, ok bool, err error)
	Append(ctx context.Context, price int64, at time.Time) error
}

// Result describes a completed run.
type Result struct {
	RunID       string
	ProductID   string
	URL         string
	Price       int64
	Previous    int64
	HadPrevious bool
	PercentDrop int64
	Alerted     bool
}

// Watcher checks a single product.
type Watcher struct {
	productID string
	fetcher   PriceFetcher
	store     Store
	notifier  alert.Notifier
	logger    *slog.Logger
	now       func() time.Time
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Watcher) {
		w.logger = logger
	}
}

// WithClock replaces time.Now for record timestamps.
func WithClock(now func() time.Time) Option {
	return func(w *Watcher) {
		w.now = now
	}
}

func New(productID string, fetcher PriceFetcher, store Store, notifier alert.Notifier, opts ...Option) *Watcher {
	w := &Watcher{
		productID: productID,
		fetcher:   fetcher,
		store:     store,
		notifier:  notifier,
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// ShouldAlert reports whether a percent drop is worth a notification.
func ShouldAlert(percentDrop int64) bool {
	return percentDrop > 0
}

// AlertMessage is the notification text for a percent drop.
func AlertMessage(percentDrop int64) string {
	return fmt.Sprintf("Price has decreased by %d%%", percentDrop)
}

// Run performs one check.
func (w *Watcher) Run(ctx context.Context) (Result, error) {
	res := Result{
		RunID:     uuid.NewString(),
		ProductID: w.productID,
		URL:       w.fetcher.TargetURL(w.productID),
	}
	log := w.logger.With("run_id", res.RunID, "product_id", res.ProductID)

	log.Info("fetching current price", "url", res.URL)
	price, err := w.fetcher.FetchPrice(ctx, w.productID)
	if err != nil {
		log.Error("couldn't fetch price", "url", res.URL, "error", err)
		return res, fmt.Errorf("fetch price: %w", err)
	}
	res.Price = price

	log.Info("getting price difference")
	previous, ok, err := w.store.Latest(ctx)
	if err != nil {
		log.Error("couldn't read price history", "error", err)
		return res, fmt.Errorf("read latest price: %w", err)
	}
	res.Previous, res.HadPrevious = previous, ok
	if !ok {
		log.Info("no price history yet, using current price as reference")
	}

	drop, err := delta.Compare(previous, ok, price)
	if err != nil {
		log.Error("couldn't compute price difference", "previous", previous, "current", price, "error", err)
		return res, fmt.Errorf("compute price difference: %w", err)
	}
	res.PercentDrop = drop

	log.Info("writing price to history", "price", price)
	if err := w.store.Append(ctx, price, w.now()); err != nil {
		log.Error("couldn't write price history", "price", price, "error", err)
		return res, fmt.Errorf("record price: %w", err)
	}

	if !ShouldAlert(drop) {
		log.Info("price did not decrease", "price", price, "previous", previous, "percent_drop", drop)
		return res, nil
	}

	msg := AlertMessage(drop)
	if err := w.notifier.Send(ctx, msg); err != nil {
		log.Error("error sending alert", "message", msg, "error", err)
		return res, fmt.Errorf("send alert: %w", err)
	}
	res.Alerted = true
	log.Info("alert sent", "percent_drop", drop)

	return res, nil
}
