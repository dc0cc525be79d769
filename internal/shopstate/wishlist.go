package shopstate

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"sync"

	"stackstore-be/internal/logger"

	"go.uber.org/zap"
)

// Normalize maps any accepted spelling of a wishlist id onto its canonical form.
func Normalize(id string) string {
	return strings.TrimSpace(id)
}

// NormalizeAll normalizes ids, drops empties and removes duplicates keeping first-seen order.
func NormalizeAll(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = Normalize(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// decodeStoredIDs accepts the current string array plus older shapes: numeric ids
// and objects carrying an "id" field.
func decodeStoredIDs(raw []byte) []string {
	var entries []any
	if err := json.Unmarshal(raw, &entries); err != nil {
		return []string{}
	}

	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, legacyID(e))
	}
	return NormalizeAll(ids)
}

func legacyID(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case map[string]any:
		switch id := t["id"].(type) {
		case string:
			return id
		case float64:
			return strconv.FormatFloat(id, 'f', -1, 64)
		}
	}
	return ""
}

type Wishlist struct {
	mu    sync.Mutex
	ids   []string
	store Storage
	sync  *syncer[[]string]
}

func NewWishlist(store Storage, remote WishlistRemote, opts Options) *Wishlist {
	w := &Wishlist{store: store, ids: loadWishlist(store)}

	if remote != nil {
		w.sync = newSyncer("wishlist", syncHooks[[]string]{
			fetch:    remote.FetchWishlist,
			push:     remote.PushWishlist,
			merge:    w.mergeRemote,
			snapshot: w.IDs,
		}, opts)
	}
	return w
}

func loadWishlist(store Storage) []string {
	raw, ok, err := store.Get(WishlistStorageKey)
	if err != nil {
		logger.L().Warn("failed to read stored wishlist", zap.Error(err))
		return []string{}
	}
	if !ok {
		return []string{}
	}
	return decodeStoredIDs(raw)
}

func (w *Wishlist) mergeRemote(remote []string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	remote = NormalizeAll(remote)
	merged := NormalizeAll(append(append([]string{}, remote...), w.ids...))
	w.ids = merged
	w.persistLocked()
	return len(merged) != len(remote)
}

func (w *Wishlist) Add(id string) {
	id = Normalize(id)
	if id == "" {
		return
	}
	w.mutate(func(ids []string) ([]string, bool) {
		if indexOf(ids, id) >= 0 {
			return ids, false
		}
		return append(ids, id), true
	})
}

func (w *Wishlist) Remove(id string) {
	id = Normalize(id)
	w.mutate(func(ids []string) ([]string, bool) {
		if i := indexOf(ids, id); i >= 0 {
			return append(ids[:i], ids[i+1:]...), true
		}
		return ids, false
	})
}

func (w *Wishlist) Toggle(id string) {
	id = Normalize(id)
	if id == "" {
		return
	}
	w.mutate(func(ids []string) ([]string, bool) {
		if i := indexOf(ids, id); i >= 0 {
			return append(ids[:i], ids[i+1:]...), true
		}
		return append(ids, id), true
	})
}

func (w *Wishlist) Clear() {
	w.mutate(func(ids []string) ([]string, bool) { return []string{}, len(ids) > 0 })
}

// Has reports whether id, or any of its alternate spellings, is saved.
func (w *Wishlist) Has(id string, alternates ...string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, candidate := range append([]string{id}, alternates...) {
		if n := Normalize(candidate); n != "" && indexOf(w.ids, n) >= 0 {
			return true
		}
	}
	return false
}

func (w *Wishlist) IDs() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string{}, w.ids...)
}

func (w *Wishlist) Count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.ids)
}

// mutate applies fn and, when it reports a change, persists and schedules a push.
func (w *Wishlist) mutate(fn func([]string) ([]string, bool)) {
	w.mu.Lock()
	ids, changed := fn(w.ids)
	w.ids = ids
	if changed {
		w.persistLocked()
	}
	w.mu.Unlock()

	if changed && w.sync != nil {
		w.sync.Touch()
	}
}

func (w *Wishlist) persistLocked() {
	raw, err := json.Marshal(w.ids)
	if err != nil {
		logger.L().Error("failed to encode wishlist", zap.Error(err))
		return
	}
	if err := w.store.Set(WishlistStorageKey, raw); err != nil {
		logger.L().Warn("failed to persist wishlist", zap.Error(err))
	}
}

func (w *Wishlist) SetAuthenticated(ctx context.Context, authenticated bool) {
	if w.sync != nil {
		w.sync.SetAuthenticated(ctx, authenticated)
	}
}

func (w *Wishlist) Flush(ctx context.Context) error {
	if w.sync == nil {
		return nil
	}
	return w.sync.Flush(ctx)
}

func (w *Wishlist) SyncStatus() SyncStatus {
	if w.sync == nil {
		return SyncStatus{}
	}
	return w.sync.Status()
}

func indexOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}
