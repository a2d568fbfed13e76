package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"resumecheck/internal/docstore"
	"resumecheck/internal/resume"
)

// DocumentStore is the authoritative record store the coordinator writes to
// first. Get must wrap docstore.ErrNotFound for missing ids.
type DocumentStore interface {
	Put(ctx context.Context, r *resume.Resume) error
	Get(ctx context.Context, id string) (*resume.Resume, error)
	Query(ctx context.Context, ownerID string) ([]resume.Resume, error)
	Delete(ctx context.Context, id string) error
}

// KeyValueCache is the secondary, best-effort store kept for legacy readers
// that cannot query by owner.
type KeyValueCache interface {
	Set(ctx context.Context, key, value string) error
	Get(ctx context.Context, key string) (string, bool, error)
	Del(ctx context.Context, key string) error
}

// Coordinator applies every resume write to the document store and the
// key-value cache, in that order. The document store is authoritative; the
// cache may lag or be missing and readers fall back accordingly.
type Coordinator struct {
	docs   DocumentStore
	cache  KeyValueCache
	logger *slog.Logger
}

// NewCoordinator builds a Coordinator. A nil logger falls back to slog.Default.
func NewCoordinator(docs DocumentStore, cache KeyValueCache, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{docs: docs, cache: cache, logger: logger}
}

func cacheKey(id string) string {
	return "resume:" + id
}

// Save writes the resume to both backends. A document-store failure fails the
// whole write and skips the cache, so the cache never holds state absent from
// the authoritative store. A cache failure is logged and swallowed.
func (c *Coordinator) Save(ctx context.Context, r *resume.Resume) error {
	if err := c.docs.Put(ctx, r); err != nil {
		return fmt.Errorf("save resume %q: %w", r.ID, err)
	}

	payload, err := json.Marshal(r)
	if err != nil {
		c.logger.Error("marshal resume for cache failed",
			slog.String("resume_id", r.ID),
			slog.Any("error", err),
		)
		return nil
	}
	if err := c.cache.Set(ctx, cacheKey(r.ID), string(payload)); err != nil {
		c.logger.Warn("cache write failed, document store remains authoritative",
			slog.String("resume_id", r.ID),
			slog.Any("error", err),
		)
	}
	return nil
}

// List returns all resumes for an owner. Listing never consults the cache.
func (c *Coordinator) List(ctx context.Context, ownerID string) ([]resume.Resume, error) {
	return c.docs.Query(ctx, ownerID)
}

// Get returns a single resume for detail views. The cache is consulted first
// for compatibility with previously-created consumers, but whenever the
// document store also has the record, its feedback and status win.
func (c *Coordinator) Get(ctx context.Context, id string) (*resume.Resume, error) {
	cached := c.readCache(ctx, id)
	if cached == nil {
		return c.docs.Get(ctx, id)
	}

	authoritative, err := c.docs.Get(ctx, id)
	switch {
	case err == nil:
		cached.Feedback = authoritative.Feedback
		cached.Status = authoritative.Status
		return cached, nil
	case errors.Is(err, docstore.ErrNotFound):
		// Legacy record that predates the document store.
		return cached, nil
	default:
		c.logger.Warn("document store read failed, serving cached value",
			slog.String("resume_id", id),
			slog.Any("error", err),
		)
		return cached, nil
	}
}

// Delete removes the resume from both backends, document store first. A cache
// deletion failure is logged but does not fail the operation.
func (c *Coordinator) Delete(ctx context.Context, id string) error {
	if err := c.docs.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete resume %q: %w", id, err)
	}
	if err := c.cache.Del(ctx, cacheKey(id)); err != nil {
		c.logger.Warn("cache delete failed",
			slog.String("resume_id", id),
			slog.Any("error", err),
		)
	}
	return nil
}

func (c *Coordinator) readCache(ctx context.Context, id string) *resume.Resume {
	payload, found, err := c.cache.Get(ctx, cacheKey(id))
	if err != nil {
		c.logger.Warn("cache read failed",
			slog.String("resume_id", id),
			slog.Any("error", err),
		)
		return nil
	}
	if !found {
		return nil
	}

	var r resume.Resume
	if err := json.Unmarshal([]byte(payload), &r); err != nil {
		c.logger.Warn("cached resume undecodable, falling back to document store",
			slog.String("resume_id", id),
			slog.Any("error", err),
		)
		return nil
	}
	return &r
}
