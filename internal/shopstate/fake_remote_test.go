package shopstate

import (
	"context"
	"sync"
)

type fakeRemote struct {
	mu sync.Mutex

	remoteCart     []CartLine
	remoteWishlist []string
	fetchErr       error
	pushErr        error

	cartFetches     int
	wishlistFetches int
	cartPushes      [][]CartLine
	wishlistPushes  [][]string

	// when set, the next cart push signals entered and waits for release
	entered chan struct{}
	release chan struct{}
}

func (f *fakeRemote) FetchCart(context.Context) ([]CartLine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cartFetches++
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return append([]CartLine{}, f.remoteCart...), nil
}

func (f *fakeRemote) PushCart(_ context.Context, items []CartLine) error {
	f.mu.Lock()
	entered, release := f.entered, f.release
	f.entered, f.release = nil, nil
	f.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
		<-release
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.cartPushes = append(f.cartPushes, items)
	return f.pushErr
}

func (f *fakeRemote) FetchWishlist(context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.wishlistFetches++
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return append([]string{}, f.remoteWishlist...), nil
}

func (f *fakeRemote) PushWishlist(_ context.Context, ids []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.wishlistPushes = append(f.wishlistPushes, ids)
	return f.pushErr
}

func (f *fakeRemote) cartPushCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.cartPushes)
}

func (f *fakeRemote) lastCartPush() []CartLine {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.cartPushes) == 0 {
		return nil
	}
	return f.cartPushes[len(f.cartPushes)-1]
}
