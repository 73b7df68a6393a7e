// Package repository provides the typed work-item repositories built on
// the document store: CRUD with advisory locking, a TTL read cache, and
// a filter/sort/paginate engine that scans the kind's directory on every
// query. Two instantiations exist, one per kind (Feature, Bug), sharing
// a single generic implementation.
package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/quarryhq/quarry/models"
	"github.com/quarryhq/quarry/store"
	"github.com/quarryhq/quarry/types"
)

const (
	// DefaultCacheTTL bounds read-cache freshness.
	DefaultCacheTTL = 5 * time.Minute
	// DefaultLockTimeout bounds advisory lock acquisition.
	DefaultLockTimeout = 5 * time.Second

	jsonExt = ".json"
)

// Config tunes a repository instance.
type Config struct {
	// Dir is the kind's directory, e.g. ".quarry/features".
	Dir string
	// Prefix is the id namespace, e.g. "FEA".
	Prefix string
	// CacheTTL and LockTimeout fall back to the package defaults when zero.
	CacheTTL    time.Duration
	LockTimeout time.Duration
	// Clock defaults to SystemClock.
	Clock Clock
}

// Repository is the generic typed layer over the document store,
// instantiated per work-item kind.
type Repository[T models.Item] struct {
	docs        *store.DocumentStore
	dir         string
	prefix      string
	newItem     func() T
	clock       Clock
	cache       *ttlCache[T]
	lockTimeout time.Duration
}

// New builds a repository for one kind. newItem must return a blank
// item of the kind for decoding.
func New[T models.Item](docs *store.DocumentStore, newItem func() T, cfg Config) *Repository[T] {
	if cfg.Clock == nil {
		cfg.Clock = SystemClock
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultCacheTTL
	}
	if cfg.LockTimeout <= 0 {
		cfg.LockTimeout = DefaultLockTimeout
	}
	return &Repository[T]{
		docs:        docs,
		dir:         cfg.Dir,
		prefix:      cfg.Prefix,
		newItem:     newItem,
		clock:       cfg.Clock,
		cache:       newTTLCache[T](cfg.CacheTTL, cfg.Clock),
		lockTimeout: cfg.LockTimeout,
	}
}

// Dir returns the repository's data directory.
func (r *Repository[T]) Dir() string { return r.dir }

func (r *Repository[T]) itemPath(id string) string {
	return filepath.Join(r.dir, id+jsonExt)
}

// annotate stamps the item id onto storage errors passing through.
func annotate(err error, id string) error {
	var se *types.StorageError
	if errors.As(err, &se) && se.ID == "" {
		se.ID = id
	}
	return err
}

// existingIDs derives the kind's live id listing from the directory.
func (r *Repository[T]) existingIDs() ([]string, error) {
	names, err := r.docs.ListDir(r.dir)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(names))
	for _, name := range names {
		if strings.HasSuffix(name, jsonExt) {
			ids = append(ids, strings.TrimSuffix(name, jsonExt))
		}
	}
	return ids, nil
}

// Create assigns the next sequential id, applies kind defaults and
// creation metadata, validates, persists, and caches the item. The
// whole sequence holds the directory's advisory lock so concurrent
// creates cannot mint the same id.
func (r *Repository[T]) Create(item T, createdBy string) (T, error) {
	var zero T
	lock, err := r.docs.Lock(r.dir, r.lockTimeout)
	if err != nil {
		return zero, fmt.Errorf("create: %w", err)
	}
	defer lock.Release()

	ids, err := r.existingIDs()
	if err != nil {
		return zero, fmt.Errorf("create: %w", err)
	}

	core := item.Core()
	core.ID = models.NextID(r.prefix, ids)
	core.CreatedBy = createdBy
	now := r.clock.Now()
	core.CreatedAt = now
	core.UpdatedAt = now
	item.ApplyDefaults()

	if violations := models.Validate(item); len(violations) > 0 {
		return zero, types.NewValidationError(violations)
	}
	// The directory lock only covers this process; a document written
	// out-of-band between the scan and here must not be clobbered.
	if ok, err := r.docs.Exists(r.itemPath(core.ID)); err != nil {
		return zero, annotate(err, core.ID)
	} else if ok {
		return zero, fmt.Errorf("create %s: %w", core.ID, types.ErrExists)
	}
	if err := r.docs.WriteJSON(r.itemPath(core.ID), item); err != nil {
		return zero, annotate(err, core.ID)
	}
	r.cache.set(core.ID, item)
	return item, nil
}

// GetByID returns the item and true when it exists. A missing item is
// not an error: the zero value and false come back with a nil error. A
// fresh cache entry short-circuits the read; a miss reads storage and
// refreshes the cache.
func (r *Repository[T]) GetByID(id string) (T, bool, error) {
	var zero T
	if item, ok := r.cache.get(id); ok {
		return item, true, nil
	}
	item := r.newItem()
	err := r.docs.ReadJSON(r.itemPath(id), item)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return zero, false, nil
		}
		return zero, false, annotate(err, id)
	}
	r.cache.set(id, item)
	return item, true, nil
}

// immutable fields re-asserted from the stored record on every update.
var immutableFields = []string{"id", "kind", "createdAt", "createdBy"}

// Update merges the partial changes (keyed by JSON field name) over the
// stored item, re-asserts the immutable fields, advances updatedAt,
// validates the merged result, and persists it. The read-merge-write
// sequence holds the item's advisory lock. A missing item fails with
// types.ErrNotFound; validation failures are raised before any write.
func (r *Repository[T]) Update(id string, changes map[string]any) (T, error) {
	var zero T
	lock, err := r.docs.Lock(r.itemPath(id), r.lockTimeout)
	if err != nil {
		return zero, fmt.Errorf("update %s: %w", id, err)
	}
	defer lock.Release()

	existing := r.newItem()
	if err := r.docs.ReadJSON(r.itemPath(id), existing); err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return zero, fmt.Errorf("update %s: %w", id, types.ErrNotFound)
		}
		return zero, annotate(err, id)
	}

	merged, err := mergeItem(existing, changes, r.newItem())
	if err != nil {
		return zero, fmt.Errorf("update %s: %w", id, err)
	}

	prev := existing.Core().UpdatedAt
	now := r.clock.Now()
	if !now.After(prev) {
		// updatedAt must strictly increase even under a frozen clock.
		now = prev.Add(time.Millisecond)
	}
	merged.Core().UpdatedAt = now

	if violations := models.Validate(merged); len(violations) > 0 {
		return zero, types.NewValidationError(violations)
	}
	if err := r.docs.WriteJSON(r.itemPath(id), merged); err != nil {
		return zero, annotate(err, id)
	}
	r.cache.set(id, merged)
	return merged, nil
}

// mergeItem overlays changes on the serialized form of existing and
// decodes the result into blank, with the immutable fields copied back
// from the stored record regardless of caller input.
func mergeItem[T models.Item](existing T, changes map[string]any, blank T) (T, error) {
	var zero T
	raw, err := json.Marshal(existing)
	if err != nil {
		return zero, err
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return zero, err
	}
	snapshot := make(map[string]any, len(immutableFields))
	for _, field := range immutableFields {
		snapshot[field] = doc[field]
	}
	for key, value := range changes {
		doc[key] = value
	}
	for _, field := range immutableFields {
		doc[field] = snapshot[field]
	}
	mergedRaw, err := json.Marshal(doc)
	if err != nil {
		return zero, err
	}
	if err := json.Unmarshal(mergedRaw, blank); err != nil {
		return zero, err
	}
	return blank, nil
}

// Delete removes the item's file and evicts its cache entry. Deletion
// is permanent; a missing item fails with types.ErrNotFound.
func (r *Repository[T]) Delete(id string) error {
	lock, err := r.docs.Lock(r.itemPath(id), r.lockTimeout)
	if err != nil {
		return fmt.Errorf("delete %s: %w", id, err)
	}
	defer lock.Release()

	if err := r.docs.Remove(r.itemPath(id)); err != nil {
		return annotate(err, id)
	}
	r.cache.evict(id)
	return nil
}

// ListOptions bundles the query parameters for List.
type ListOptions struct {
	Filter *Filter
	Sort   *Sort
	Page   *Pagination
}

// List scans the kind's directory, reading every item fresh from disk
// (the cache is never consulted), then applies filter, sort, and
// pagination in that order. A corrupt file surfaces as an error rather
// than being skipped.
func (r *Repository[T]) List(opts ListOptions) (ListResult[T], error) {
	items, err := r.scan()
	if err != nil {
		return ListResult[T]{}, err
	}
	filtered := items[:0:0]
	for _, item := range items {
		if opts.Filter.matches(item) {
			filtered = append(filtered, item)
		}
	}
	sortItems(filtered, opts.Sort)
	return paginate(filtered, opts.Page), nil
}

// scan reads every document in the directory. A file deleted between
// the listing and the read is skipped; anything unparseable aborts.
func (r *Repository[T]) scan() ([]T, error) {
	names, err := r.docs.ListDir(r.dir)
	if err != nil {
		return nil, err
	}
	items := make([]T, 0, len(names))
	for _, name := range names {
		if !strings.HasSuffix(name, jsonExt) {
			continue
		}
		item := r.newItem()
		if err := r.docs.ReadJSON(filepath.Join(r.dir, name), item); err != nil {
			if errors.Is(err, types.ErrNotFound) {
				continue
			}
			return nil, annotate(err, strings.TrimSuffix(name, jsonExt))
		}
		items = append(items, item)
	}
	return items, nil
}

// Search returns the items whose search text contains the query.
func (r *Repository[T]) Search(query string) ([]T, error) {
	res, err := r.List(ListOptions{Filter: &Filter{Search: query}})
	if err != nil {
		return nil, err
	}
	return res.Items, nil
}

// FindByStatus returns the items in any of the given statuses.
func (r *Repository[T]) FindByStatus(statuses ...string) ([]T, error) {
	res, err := r.List(ListOptions{Filter: &Filter{Statuses: statuses}})
	if err != nil {
		return nil, err
	}
	return res.Items, nil
}

// UpdateStatus is a single-field convenience wrapper over Update.
func (r *Repository[T]) UpdateStatus(id, status string) (T, error) {
	return r.Update(id, map[string]any{"status": status})
}

// UpdatePhase is a single-field convenience wrapper over Update.
func (r *Repository[T]) UpdatePhase(id, phase string) (T, error) {
	return r.Update(id, map[string]any{"currentPhase": phase})
}

// AddTag appends a tag if not already present; tags form a set.
func (r *Repository[T]) AddTag(id, tag string) (T, error) {
	return r.mutate(id, func(item T) {
		core := item.Core()
		if !containsAny(core.Tags, tag) {
			core.Tags = append(core.Tags, tag)
		}
	})
}

// RemoveTag removes every occurrence of a tag.
func (r *Repository[T]) RemoveTag(id, tag string) (T, error) {
	return r.mutate(id, func(item T) {
		core := item.Core()
		kept := make([]string, 0, len(core.Tags))
		for _, t := range core.Tags {
			if t != tag {
				kept = append(kept, t)
			}
		}
		core.Tags = kept
	})
}

// mutate is the lock-guarded read-modify-write used by the tag
// operations: load, apply fn, advance updatedAt, validate, persist.
func (r *Repository[T]) mutate(id string, fn func(T)) (T, error) {
	var zero T
	lock, err := r.docs.Lock(r.itemPath(id), r.lockTimeout)
	if err != nil {
		return zero, fmt.Errorf("update %s: %w", id, err)
	}
	defer lock.Release()

	item := r.newItem()
	if err := r.docs.ReadJSON(r.itemPath(id), item); err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return zero, fmt.Errorf("update %s: %w", id, types.ErrNotFound)
		}
		return zero, annotate(err, id)
	}

	fn(item)

	core := item.Core()
	now := r.clock.Now()
	if !now.After(core.UpdatedAt) {
		now = core.UpdatedAt.Add(time.Millisecond)
	}
	core.UpdatedAt = now

	if violations := models.Validate(item); len(violations) > 0 {
		return zero, types.NewValidationError(violations)
	}
	if err := r.docs.WriteJSON(r.itemPath(id), item); err != nil {
		return zero, annotate(err, id)
	}
	r.cache.set(id, item)
	return item, nil
}
