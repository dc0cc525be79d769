package shopstate

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"stackstore-be/internal/logger"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// MaxLineQuantity is the largest quantity a line may carry; the remote store rejects more.
const MaxLineQuantity = 999

// CartLine is one product in the shopper's cart. Lines are unique by ProductID.
type CartLine struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"price"`
	ImageURL  string          `json:"imageUrl"`
	Quantity  int             `json:"quantity"`
}

// Subtotal is UnitPrice times Quantity.
func (l CartLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type Cart struct {
	mu    sync.Mutex
	items []CartLine
	store Storage
	sync  *syncer[[]CartLine]
}

// NewCart restores the cart from store. remote may be nil for a device that never
// signs in; the cart then lives only in local storage.
func NewCart(store Storage, remote CartRemote, opts Options) *Cart {
	c := &Cart{store: store, items: loadCart(store)}

	if remote != nil {
		c.sync = newSyncer("cart", syncHooks[[]CartLine]{
			fetch:    remote.FetchCart,
			push:     remote.PushCart,
			merge:    c.mergeRemote,
			snapshot: c.Items,
		}, opts)
	}
	return c
}

func loadCart(store Storage) []CartLine {
	raw, ok, err := store.Get(CartStorageKey)
	if err != nil {
		logger.L().Warn("failed to read stored cart", zap.Error(err))
		return []CartLine{}
	}
	if !ok {
		return []CartLine{}
	}

	var stored []CartLine
	if err := json.Unmarshal(raw, &stored); err != nil {
		logger.L().Warn("discarding unreadable stored cart", zap.Error(err))
		return []CartLine{}
	}
	return foldLines(nil, stored)
}

// foldLines appends extra onto base, summing quantities for ids already present and
// capping each line at MaxLineQuantity. Lines without an id or with a non-positive
// quantity are dropped.
func foldLines(base, extra []CartLine) []CartLine {
	out := make([]CartLine, 0, len(base)+len(extra))
	index := make(map[string]int, len(base)+len(extra))
	for _, l := range append(append([]CartLine{}, base...), extra...) {
		l.ProductID = strings.TrimSpace(l.ProductID)
		if l.ProductID == "" || l.Quantity < 1 {
			continue
		}
		if i, ok := index[l.ProductID]; ok {
			out[i].Quantity = min(out[i].Quantity+l.Quantity, MaxLineQuantity)
			continue
		}
		l.Quantity = min(l.Quantity, MaxLineQuantity)
		index[l.ProductID] = len(out)
		out = append(out, l)
	}
	return out
}

func (c *Cart) mergeRemote(remote []CartLine) bool {
	c.mu.Lock()
	local := c.items
	c.items = foldLines(remote, local)
	c.persistLocked()
	c.mu.Unlock()
	return len(local) > 0
}

// AddItem adds quantity (1 when below 1) of line.ProductID, merging with an existing line.
// The resulting quantity is capped at MaxLineQuantity.
func (c *Cart) AddItem(line CartLine, quantity int) {
	if quantity < 1 {
		quantity = 1
	}
	line.ProductID = strings.TrimSpace(line.ProductID)
	if line.ProductID == "" {
		return
	}

	c.mutate(func(items []CartLine) ([]CartLine, bool) {
		for i := range items {
			if items[i].ProductID == line.ProductID {
				next := min(items[i].Quantity+quantity, MaxLineQuantity)
				if next == items[i].Quantity {
					return items, false
				}
				items[i].Quantity = next
				return items, true
			}
		}
		line.Quantity = min(quantity, MaxLineQuantity)
		return append(items, line), true
	})
}

func (c *Cart) RemoveItem(productID string) {
	c.mutate(func(items []CartLine) ([]CartLine, bool) {
		out := items[:0]
		for _, l := range items {
			if l.ProductID != productID {
				out = append(out, l)
			}
		}
		return out, len(out) != len(items)
	})
}

// UpdateQuantity sets the quantity of an existing line, capped at MaxLineQuantity;
// values below 1 are ignored.
func (c *Cart) UpdateQuantity(productID string, quantity int) {
	if quantity < 1 {
		return
	}
	quantity = min(quantity, MaxLineQuantity)
	c.mutate(func(items []CartLine) ([]CartLine, bool) {
		changed := false
		for i := range items {
			if items[i].ProductID == productID && items[i].Quantity != quantity {
				items[i].Quantity = quantity
				changed = true
			}
		}
		return items, changed
	})
}

func (c *Cart) Clear() {
	c.mutate(func(items []CartLine) ([]CartLine, bool) { return []CartLine{}, len(items) > 0 })
}

// mutate applies fn and, when it reports a change, persists and schedules a push.
func (c *Cart) mutate(fn func([]CartLine) ([]CartLine, bool)) {
	c.mu.Lock()
	items, changed := fn(c.items)
	c.items = items
	if changed {
		c.persistLocked()
	}
	c.mu.Unlock()

	if changed && c.sync != nil {
		c.sync.Touch()
	}
}

func (c *Cart) persistLocked() {
	raw, err := json.Marshal(c.items)
	if err != nil {
		logger.L().Error("failed to encode cart", zap.Error(err))
		return
	}
	if err := c.store.Set(CartStorageKey, raw); err != nil {
		logger.L().Warn("failed to persist cart", zap.Error(err))
	}
}

// Items returns a copy of the current lines.
func (c *Cart) Items() []CartLine {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]CartLine{}, c.items...)
}

func (c *Cart) Total() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := decimal.Zero
	for _, l := range c.items {
		total = total.Add(l.Subtotal())
	}
	return total
}

// Count is the number of units across all lines.
func (c *Cart) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, l := range c.items {
		n += l.Quantity
	}
	return n
}

func (c *Cart) SetAuthenticated(ctx context.Context, authenticated bool) {
	if c.sync != nil {
		c.sync.SetAuthenticated(ctx, authenticated)
	}
}

func (c *Cart) Flush(ctx context.Context) error {
	if c.sync == nil {
		return nil
	}
	return c.sync.Flush(ctx)
}

func (c *Cart) SyncStatus() SyncStatus {
	if c.sync == nil {
		return SyncStatus{}
	}
	return c.sync.Status()
}
