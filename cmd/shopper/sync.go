package main

import (
	"context"
	"errors"
	"fmt"

	"stackstore-be/internal/shopstate"

	"github.com/spf13/cobra"
)

func (c *cli) syncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Merge local state with the signed-in account and report the result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s := c.session
			if !s.signedIn {
				return errors.New("sync needs a token (--token, STACKSTORE_TOKEN or token in the config file)")
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), flushTimeout)
			defer cancel()
			err := s.manager.Flush(ctx)

			printStatus(s, "cart", s.manager.Cart.SyncStatus(), s.manager.Cart.Count())
			printStatus(s, "wishlist", s.manager.Wishlist.SyncStatus(), s.manager.Wishlist.Count())

			if errors.Is(err, shopstate.ErrSessionExpired) || s.expired.Load() {
				return shopstate.ErrSessionExpired
			}
			return err
		},
	}
}

func printStatus(s *session, name string, st shopstate.SyncStatus, count int) {
	state := "in sync"
	switch {
	case st.LastErr != nil:
		state = "error: " + st.LastErr.Error()
	case st.Pending || st.InFlight:
		state = "pending"
	case !st.Loaded:
		state = "not loaded"
	}
	fmt.Fprintf(s.out, "%-9s %3d  %s\n", name+":", count, state)
}
