// Package engine keeps an in-memory, date-bucketed copy of the service records
// in sync with a RecordStore.
//
// The engine owns the only mutable RecordsByDate. Readers receive deep copies.
// Remote changes are reconciled by reloading everything; local mutations are
// patched into the mapping only after the store confirms them.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/julianstephens/fleetcal/internal/constants"
	ferrors "github.com/julianstephens/fleetcal/internal/errors"
	"github.com/julianstephens/fleetcal/internal/logger"
	"github.com/julianstephens/fleetcal/internal/models"
	"github.com/julianstephens/fleetcal/internal/storage"
)

// State is the coarse lifecycle of the engine.
type State int

const (
	StateUninitialized State = iota
	StateLoading
	StateSynced
	StateMutating
	StateRefetching
	StateError
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateSynced:
		return "synced"
	case StateMutating:
		return "mutating"
	case StateRefetching:
		return "refetching"
	case StateError:
		return "error"
	default:
		return "uninitialized"
	}
}

type Options struct {
	// ResyncWindow coalesces change events arriving within the window into a
	// single reload.
	ResyncWindow time.Duration
	// CallTimeout bounds every store call.
	CallTimeout time.Duration
}

func (o Options) withDefaults() Options {
	if o.ResyncWindow <= 0 {
		o.ResyncWindow = constants.DefaultResyncWindow
	}
	if o.CallTimeout <= 0 {
		o.CallTimeout = constants.StoreCallTimeout
	}
	return o
}

type Engine struct {
	store storage.RecordStore
	opts  Options

	mu      sync.RWMutex
	records models.RecordsByDate
	loaded  bool
	failed  bool
	loading int
	writing int
	// loadSeq numbers loads by start order; applied is the newest applied.
	loadSeq uint64
	applied uint64

	outMu    sync.Mutex
	outcomes chan Outcome
	closed   bool

	subMu      sync.Mutex
	sub        storage.Subscription
	subscribed bool
	release    *sync.Once
	stopWatch  context.CancelFunc

	resync *throttle
}

func New(store storage.RecordStore, opts Options) *Engine {
	e := &Engine{
		store:    store,
		opts:     opts.withDefaults(),
		records:  models.RecordsByDate{},
		outcomes: make(chan Outcome, constants.OutcomeBufferSize),
	}
	e.resync = newThrottle(e.opts.ResyncWindow, e.reconcile)
	return e
}

// Outcomes streams the result of every load and mutation attempt. The channel
// is closed by Close.
func (e *Engine) Outcomes() <-chan Outcome {
	return e.outcomes
}

func (e *Engine) State() State {
	e.mu.RLock()
	defer e.mu.RUnlock()

	switch {
	case e.writing > 0:
		return StateMutating
	case e.loading > 0 && e.loaded:
		return StateRefetching
	case e.loading > 0:
		return StateLoading
	case e.failed:
		return StateError
	case e.loaded:
		return StateSynced
	default:
		return StateUninitialized
	}
}

// Loaded reports whether at least one load has been applied.
func (e *Engine) Loaded() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.loaded
}

// Snapshot returns a deep copy of the current mapping.
func (e *Engine) Snapshot() models.RecordsByDate {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.records.Clone()
}

// Get returns a copy of the bucket for k.
func (e *Engine) Get(k models.DateKey) []models.ServiceRecord {
	e.mu.RLock()
	defer e.mu.RUnlock()

	bucket := e.records.Get(k)
	if len(bucket) == 0 {
		return nil
	}
	out := make([]models.ServiceRecord, len(bucket))
	for i, r := range bucket {
		out[i] = r.Clone()
	}
	return out
}

// Find returns a copy of the record with the given id.
func (e *Engine) Find(id string) (models.ServiceRecord, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	r, _, ok := e.records.Find(id)
	if !ok {
		return models.ServiceRecord{}, false
	}
	return r.Clone(), true
}

func (e *Engine) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, e.opts.CallTimeout)
}

// LoadAll fetches every record and replaces the mapping in one step. On
// failure the previous mapping is kept. A load that finishes after a newer
// load has been applied is discarded, failed or not, and the current mapping
// is returned.
func (e *Engine) LoadAll(ctx context.Context) (models.RecordsByDate, error) {
	e.mu.Lock()
	e.loadSeq++
	seq := e.loadSeq
	e.loading++
	e.mu.Unlock()

	cctx, cancel := e.callCtx(ctx)
	records, err := e.store.SelectAll(cctx)
	cancel()

	var fresh models.RecordsByDate
	if err == nil {
		fresh = bucket(records)
	}

	e.mu.Lock()
	e.loading--
	if seq < e.applied {
		current, applied := e.records.Clone(), e.applied
		e.mu.Unlock()

		if err != nil {
			logger.Debug("Discarding stale failed load", "seq", seq, "applied", applied, "error", err)
		} else {
			logger.Debug("Discarding stale load", "seq", seq, "applied", applied)
		}
		return current, nil
	}
	if err != nil {
		e.failed = true
		e.mu.Unlock()

		ferr := ferrors.E(ferrors.FetchFailed, string(OpLoad), err)
		logger.Warn("Failed to load service records", "error", err)
		e.emit(failure(OpLoad, "", ferr))
		return nil, ferr
	}
	e.records = fresh
	e.applied = seq
	e.loaded = true
	e.failed = false
	out := fresh.Clone()
	e.mu.Unlock()

	logger.Debug("Loaded service records", "count", out.Count(), "days", len(out))
	e.emit(success(OpLoad, "", "loaded %d services", out.Count()))
	return out, nil
}

// bucket files every record under the key derived from its own date.
func bucket(records []models.ServiceRecord) models.RecordsByDate {
	out := make(models.RecordsByDate)
	for _, r := range records {
		k := r.Key()
		out[k] = append(out[k], r)
	}
	return out
}

// Subscribe registers with the store's change feed. Every change schedules a
// reload; bursts inside the resync window share one reload. The registration
// is released by Unsubscribe, by Close, or when ctx is done. Calling
// Subscribe while subscribed does nothing.
func (e *Engine) Subscribe(ctx context.Context) error {
	e.subMu.Lock()
	defer e.subMu.Unlock()

	if e.subscribed {
		return nil
	}
	if e.isClosed() {
		return errors.New("engine closed")
	}

	sub, err := e.store.SubscribeToChanges(e.resync.Trigger)
	if err != nil {
		return fmt.Errorf("failed to subscribe to changes: %w", err)
	}

	watchCtx, stop := context.WithCancel(ctx)
	once := &sync.Once{}
	e.sub = sub
	e.subscribed = true
	e.release = once
	e.stopWatch = stop

	go func() {
		<-watchCtx.Done()
		e.releaseSub(sub, once)
	}()

	logger.Debug("Subscribed to service changes", "subscription", sub)
	return nil
}

// Unsubscribe releases the change-feed registration if there is one.
func (e *Engine) Unsubscribe() {
	e.subMu.Lock()
	if !e.subscribed {
		e.subMu.Unlock()
		return
	}
	sub, once, stop := e.sub, e.release, e.stopWatch
	e.subMu.Unlock()

	stop()
	e.releaseSub(sub, once)
}

func (e *Engine) releaseSub(sub storage.Subscription, once *sync.Once) {
	once.Do(func() {
		if err := e.store.Unsubscribe(sub); err != nil {
			logger.Warn("Failed to release change subscription", "subscription", sub, "error", err)
		}
		e.subMu.Lock()
		if e.release == once {
			e.subscribed = false
			e.release = nil
			e.stopWatch = nil
		}
		e.subMu.Unlock()
		logger.Debug("Released change subscription", "subscription", sub)
	})
}

// Subscribed reports whether a change-feed registration is held.
func (e *Engine) Subscribed() bool {
	e.subMu.Lock()
	defer e.subMu.Unlock()
	return e.subscribed
}

// reconcile is the throttled reaction to a change event or a stale write.
func (e *Engine) reconcile() {
	if e.isClosed() {
		return
	}
	if _, err := e.LoadAll(context.Background()); err != nil {
		logger.Debug("Resync failed", "error", err)
	}
}

// requestResync schedules a reload after a write found local state stale.
func (e *Engine) requestResync() {
	e.resync.Trigger()
}

func (e *Engine) isClosed() bool {
	e.outMu.Lock()
	defer e.outMu.Unlock()
	return e.closed
}

// Close releases the subscription, stops pending reloads and closes the
// outcome channel. It is safe to call more than once.
func (e *Engine) Close() {
	e.Unsubscribe()
	e.resync.Stop()

	e.outMu.Lock()
	defer e.outMu.Unlock()
	if !e.closed {
		e.closed = true
		close(e.outcomes)
	}
}

func (e *Engine) beginWrite() {
	e.mu.Lock()
	e.writing++
	e.mu.Unlock()
}

// endWrite finishes a write, applying patch under the lock when the write
// succeeded.
func (e *Engine) endWrite(err error, patch func(models.RecordsByDate)) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.writing--
	if err != nil {
		e.failed = true
		return
	}
	e.failed = false
	if patch != nil {
		patch(e.records)
	}
}

// classifyWrite maps a store error to the engine taxonomy. A missing row means
// the local mapping is stale, so it also schedules a resync. Empty results
// stay WriteFailed: the canonical row is unknown.
func (e *Engine) classifyWrite(op Op, err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		e.requestResync()
		return ferrors.E(ferrors.NotFound, string(op), err)
	}
	return ferrors.E(ferrors.WriteFailed, string(op), err)
}

// Create inserts a draft and files the stored row under its own date.
func (e *Engine) Create(ctx context.Context, draft models.ServiceRecord) (models.ServiceRecord, error) {
	if !draft.IsDraft() {
		err := ferrors.E(ferrors.Invalid, string(OpCreate), fmt.Errorf("record %s already has an id", draft.ID))
		e.emit(failure(OpCreate, draft.ID, err))
		return models.ServiceRecord{}, err
	}

	e.beginWrite()
	cctx, cancel := e.callCtx(ctx)
	saved, err := e.store.Insert(cctx, draft)
	cancel()
	if err == nil && saved.ID == "" {
		err = storage.ErrEmptyResult
	}

	if err != nil {
		e.endWrite(err, nil)
		ferr := e.classifyWrite(OpCreate, err)
		logger.Warn("Failed to create service", "client", draft.ClientName, "error", err)
		e.emit(failure(OpCreate, "", ferr))
		return models.ServiceRecord{}, ferr
	}

	e.endWrite(nil, func(m models.RecordsByDate) {
		upsert(m, saved.Clone())
	})

	logger.Info("Service created", "id", saved.ID, "date", saved.Key())
	e.emit(success(OpCreate, saved.ID, "service for %s created on %s", saved.ClientName, saved.Key()))
	return saved, nil
}

// Update stores record and moves it to the bucket of its (possibly new) date.
func (e *Engine) Update(ctx context.Context, record models.ServiceRecord) (models.ServiceRecord, error) {
	if record.IsDraft() {
		err := ferrors.E(ferrors.Invalid, string(OpUpdate), errors.New("record has no id"))
		e.emit(failure(OpUpdate, "", err))
		return models.ServiceRecord{}, err
	}

	e.beginWrite()
	cctx, cancel := e.callCtx(ctx)
	saved, err := e.store.UpdateByID(cctx, record.ID, record)
	cancel()
	if err == nil && saved.ID == "" {
		err = storage.ErrEmptyResult
	}

	if err != nil {
		e.endWrite(err, nil)
		ferr := e.classifyWrite(OpUpdate, err)
		logger.Warn("Failed to update service", "id", record.ID, "error", err)
		e.emit(failure(OpUpdate, record.ID, ferr))
		return models.ServiceRecord{}, ferr
	}

	e.endWrite(nil, func(m models.RecordsByDate) {
		upsert(m, saved.Clone())
	})

	logger.Info("Service updated", "id", saved.ID, "date", saved.Key())
	e.emit(success(OpUpdate, saved.ID, "service for %s updated on %s", saved.ClientName, saved.Key()))
	return saved, nil
}

// MarkCompleted writes only the completed flag, so edits made elsewhere since
// the last load are left alone. The row the store returns replaces the local
// copy.
func (e *Engine) MarkCompleted(ctx context.Context, id string) (models.ServiceRecord, error) {
	if id == "" {
		err := ferrors.E(ferrors.Invalid, string(OpComplete), errors.New("record has no id"))
		e.emit(failure(OpComplete, "", err))
		return models.ServiceRecord{}, err
	}

	e.beginWrite()
	cctx, cancel := e.callCtx(ctx)
	saved, err := e.store.SetCompleted(cctx, id, true)
	cancel()
	if err == nil && saved.ID == "" {
		err = storage.ErrEmptyResult
	}

	if err != nil {
		e.endWrite(err, nil)
		ferr := e.classifyWrite(OpComplete, err)
		logger.Warn("Failed to complete service", "id", id, "error", err)
		e.emit(failure(OpComplete, id, ferr))
		return models.ServiceRecord{}, ferr
	}

	e.endWrite(nil, func(m models.RecordsByDate) {
		upsert(m, saved.Clone())
	})

	logger.Info("Service completed", "id", saved.ID, "date", saved.Key())
	e.emit(success(OpComplete, saved.ID, "service for %s marked completed", saved.ClientName))
	return saved, nil
}

// Delete removes the record with the given id. key is the bucket the caller
// saw it in; the record is still removed if it has moved since.
func (e *Engine) Delete(ctx context.Context, id string, key models.DateKey) error {
	e.beginWrite()
	cctx, cancel := e.callCtx(ctx)
	err := e.store.DeleteByID(cctx, id)
	cancel()

	if err != nil {
		e.endWrite(err, nil)
		ferr := e.classifyWrite(OpDelete, err)
		logger.Warn("Failed to delete service", "id", id, "error", err)
		e.emit(failure(OpDelete, id, ferr))
		return ferr
	}

	e.endWrite(nil, func(m models.RecordsByDate) {
		remove(m, id, key)
	})

	logger.Info("Service deleted", "id", id, "date", key)
	e.emit(success(OpDelete, id, "service deleted from %s", key))
	return nil
}

// upsert files r under its own date. An existing entry with the same id is
// replaced in place when the date is unchanged, or moved otherwise.
func upsert(m models.RecordsByDate, r models.ServiceRecord) {
	k := r.Key()
	if _, old, ok := m.Find(r.ID); ok {
		if old == k {
			bucket := m[k]
			for i := range bucket {
				if bucket[i].ID == r.ID {
					bucket[i] = r
					return
				}
			}
		}
		remove(m, r.ID, old)
	}
	m[k] = append(m[k], r)
}

// remove drops the record from its bucket, looking it up by id when it is not
// under hint, and deletes the bucket once it is empty.
func remove(m models.RecordsByDate, id string, hint models.DateKey) {
	k := hint
	idx := indexOf(m[k], id)
	if idx < 0 {
		_, found, ok := m.Find(id)
		if !ok {
			return
		}
		k = found
		idx = indexOf(m[k], id)
	}

	bucket := m[k]
	rest := make([]models.ServiceRecord, 0, len(bucket)-1)
	rest = append(rest, bucket[:idx]...)
	rest = append(rest, bucket[idx+1:]...)
	if len(rest) == 0 {
		delete(m, k)
		return
	}
	m[k] = rest
}

func indexOf(bucket []models.ServiceRecord, id string) int {
	for i, r := range bucket {
		if r.ID == id {
			return i
		}
	}
	return -1
}
