package shopstate

import (
	"context"
	"errors"
)

// Manager bundles the shopper's cart and wishlist and moves them through sign-in
// and sign-out together.
type Manager struct {
	Cart     *Cart
	Wishlist *Wishlist
}

type Remote interface {
	CartRemote
	WishlistRemote
}

func NewManager(store Storage, remote Remote, opts Options) *Manager {
	var (
		cartRemote     CartRemote
		wishlistRemote WishlistRemote
	)
	if remote != nil {
		cartRemote, wishlistRemote = remote, remote
	}
	return &Manager{
		Cart:     NewCart(store, cartRemote, opts),
		Wishlist: NewWishlist(store, wishlistRemote, opts),
	}
}

func (m *Manager) SetAuthenticated(ctx context.Context, authenticated bool) {
	m.Cart.SetAuthenticated(ctx, authenticated)
	m.Wishlist.SetAuthenticated(ctx, authenticated)
}

func (m *Manager) Flush(ctx context.Context) error {
	return errors.Join(m.Cart.Flush(ctx), m.Wishlist.Flush(ctx))
}
