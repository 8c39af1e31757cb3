// Package sync moves the meal and family collections between the local
// store and a remote Google backend: Drive CSV files or a Sheets
// spreadsheet. Both backends exchange the same Snapshot; the engine owns
// push, pull and the two-way merge.
package sync

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"mymeals/internal/models"
	"mymeals/internal/notify"
	"mymeals/internal/store"
)

var ErrSyncInProgress = errors.New("sync already in progress")

// Snapshot is a full copy of both collections, tombstones included.
type Snapshot struct {
	Meals   []models.Meal
	Members []models.FamilyMember
}

// Backend reads and writes snapshots at a remote location.
type Backend interface {
	// Name identifies the backend in logs and status responses.
	Name() string
	// Fetch downloads the remote snapshot. found is false when the remote
	// location holds no data yet; that is not an error.
	Fetch(ctx context.Context) (snapshot Snapshot, found bool, err error)
	// Store uploads the snapshot, replacing the remote contents.
	Store(ctx context.Context, snapshot Snapshot) error
}

// Engine coordinates transfers between the store and one backend. At most
// one transfer runs at a time; concurrent calls get ErrSyncInProgress.
type Engine struct {
	backend Backend
	store   store.Store
	events  *notify.Broadcaster
	syncing atomic.Bool
}

func NewEngine(backend Backend, s store.Store, events *notify.Broadcaster) *Engine {
	return &Engine{backend: backend, store: s, events: events}
}

// Syncing reports whether a transfer is currently running.
func (e *Engine) Syncing() bool {
	return e.syncing.Load()
}

// BackendName returns the active backend's name.
func (e *Engine) BackendName() string {
	return e.backend.Name()
}

// LastSyncedAt returns the timestamp of the last completed transfer.
func (e *Engine) LastSyncedAt() (string, bool) {
	return e.store.LoadValue(store.LastSyncKey)
}

// Push uploads the local collections, replacing the remote contents.
func (e *Engine) Push(ctx context.Context) error {
	if !e.syncing.CompareAndSwap(false, true) {
		return ErrSyncInProgress
	}
	defer e.syncing.Store(false)

	local, err := e.localSnapshot()
	if err != nil {
		return err
	}
	if err := e.backend.Store(ctx, local); err != nil {
		return fmt.Errorf("failed to upload to %s: %w", e.backend.Name(), err)
	}
	e.recordSync()
	return nil
}

// Pull replaces the local collections with the remote snapshot. When the
// remote holds no data it returns false and leaves local data untouched.
func (e *Engine) Pull(ctx context.Context) (bool, error) {
	if !e.syncing.CompareAndSwap(false, true) {
		return false, ErrSyncInProgress
	}
	defer e.syncing.Store(false)

	remote, found, err := e.backend.Fetch(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to download from %s: %w", e.backend.Name(), err)
	}
	if !found {
		return false, nil
	}
	if err := e.saveLocal(remote); err != nil {
		return false, err
	}
	e.recordSync()
	e.events.Publish(notify.Event{Kind: notify.EventImported})
	return true, nil
}

// Sync merges the local and remote snapshots and writes the result to both
// sides. Per record the newer updatedAt wins; on a tie the remote copy
// wins. A missing remote snapshot merges as empty, so the first sync is
// effectively a push.
func (e *Engine) Sync(ctx context.Context) error {
	if !e.syncing.CompareAndSwap(false, true) {
		return ErrSyncInProgress
	}
	defer e.syncing.Store(false)

	local, err := e.localSnapshot()
	if err != nil {
		return err
	}
	remote, _, err := e.backend.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("failed to download from %s: %w", e.backend.Name(), err)
	}

	merged := Snapshot{
		Meals:   MergeMeals(local.Meals, remote.Meals),
		Members: MergeMembers(local.Members, remote.Members),
	}

	if err := e.backend.Store(ctx, merged); err != nil {
		return fmt.Errorf("failed to upload to %s: %w", e.backend.Name(), err)
	}
	if err := e.saveLocal(merged); err != nil {
		return err
	}
	e.recordSync()
	e.events.Publish(notify.Event{Kind: notify.EventImported})
	return nil
}

func (e *Engine) localSnapshot() (Snapshot, error) {
	meals, err := e.store.LoadMeals()
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to load meals: %w", err)
	}
	members, err := e.store.LoadMembers()
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to load family members: %w", err)
	}
	return Snapshot{Meals: meals, Members: members}, nil
}

func (e *Engine) saveLocal(snapshot Snapshot) error {
	if err := e.store.SaveMeals(snapshot.Meals); err != nil {
		return fmt.Errorf("failed to save meals: %w", err)
	}
	if err := e.store.SaveMembers(snapshot.Members); err != nil {
		return fmt.Errorf("failed to save family members: %w", err)
	}
	return nil
}

func (e *Engine) recordSync() {
	if err := e.store.SaveValue(store.LastSyncKey, models.Now()); err != nil {
		// A missing sync timestamp only affects the status display.
		return
	}
}
