package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/julianstephens/fleetcal/internal/models"
	"github.com/julianstephens/fleetcal/internal/storage"
)

// fakeStore is an in-memory RecordStore with hooks for failure injection.
type fakeStore struct {
	mu   sync.Mutex
	rows []models.ServiceRecord
	next int

	selectErr error
	insertErr error
	updateErr error
	deleteErr error

	// selectHook runs after the rows for call n were captured and before
	// selectErr is read.
	selectHook  func(n int)
	selectCalls int

	hub          storage.Hub
	unsubscribes int
}

func newFakeStore(rows ...models.ServiceRecord) *fakeStore {
	return &fakeStore{rows: rows}
}

func (f *fakeStore) SelectAll(ctx context.Context) ([]models.ServiceRecord, error) {
	f.mu.Lock()
	f.selectCalls++
	n := f.selectCalls
	hook := f.selectHook
	rows := make([]models.ServiceRecord, len(f.rows))
	for i, r := range f.rows {
		rows[i] = r.Clone()
	}
	f.mu.Unlock()

	if hook != nil {
		hook(n)
	}
	f.mu.Lock()
	err := f.selectErr
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (f *fakeStore) Insert(ctx context.Context, r models.ServiceRecord) (models.ServiceRecord, error) {
	f.mu.Lock()
	if f.insertErr != nil {
		err := f.insertErr
		f.mu.Unlock()
		return models.ServiceRecord{}, err
	}
	f.next++
	r.ID = fmt.Sprintf("svc-%d", f.next)
	f.rows = append(f.rows, r.Clone())
	f.mu.Unlock()

	f.hub.Broadcast()
	return r, nil
}

func (f *fakeStore) UpdateByID(ctx context.Context, id string, r models.ServiceRecord) (models.ServiceRecord, error) {
	f.mu.Lock()
	if f.updateErr != nil {
		err := f.updateErr
		f.mu.Unlock()
		return models.ServiceRecord{}, err
	}
	for i := range f.rows {
		if f.rows[i].ID == id {
			r.ID = id
			f.rows[i] = r.Clone()
			f.mu.Unlock()
			f.hub.Broadcast()
			return r, nil
		}
	}
	f.mu.Unlock()
	return models.ServiceRecord{}, storage.ErrNotFound
}

func (f *fakeStore) SetCompleted(ctx context.Context, id string, completed bool) (models.ServiceRecord, error) {
	f.mu.Lock()
	if f.updateErr != nil {
		err := f.updateErr
		f.mu.Unlock()
		return models.ServiceRecord{}, err
	}
	for i := range f.rows {
		if f.rows[i].ID == id {
			f.rows[i].Completed = completed
			out := f.rows[i].Clone()
			f.mu.Unlock()
			f.hub.Broadcast()
			return out, nil
		}
	}
	f.mu.Unlock()
	return models.ServiceRecord{}, storage.ErrNotFound
}

func (f *fakeStore) DeleteByID(ctx context.Context, id string) error {
	f.mu.Lock()
	if f.deleteErr != nil {
		err := f.deleteErr
		f.mu.Unlock()
		return err
	}
	for i := range f.rows {
		if f.rows[i].ID == id {
			f.rows = append(f.rows[:i], f.rows[i+1:]...)
			f.mu.Unlock()
			f.hub.Broadcast()
			return nil
		}
	}
	f.mu.Unlock()
	return storage.ErrNotFound
}

func (f *fakeStore) SubscribeToChanges(handler storage.ChangeHandler) (storage.Subscription, error) {
	return f.hub.Add(handler)
}

func (f *fakeStore) Unsubscribe(sub storage.Subscription) error {
	f.mu.Lock()
	f.unsubscribes++
	f.mu.Unlock()
	f.hub.Remove(sub)
	return nil
}

func (f *fakeStore) set(fn func(f *fakeStore)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

func (f *fakeStore) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.selectCalls
}

func (f *fakeStore) unsubscribeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.unsubscribes
}
