package main

import (
	"fmt"

	"stackstore-be/internal/shopstate"

	"github.com/spf13/cobra"
)

func (c *cli) wishlistCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "wishlist",
		Aliases: []string{"wl"},
		Short:   "Show and edit the wishlist",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "Print saved product ids",
			Args:  cobra.NoArgs,
			RunE: func(*cobra.Command, []string) error {
				ids := c.session.manager.Wishlist.IDs()
				if len(ids) == 0 {
					fmt.Fprintln(c.session.out, "Wishlist is empty")
					return nil
				}
				for _, id := range ids {
					fmt.Fprintln(c.session.out, id)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "add <product-id>...",
			Short: "Save products to the wishlist",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(_ *cobra.Command, args []string) error {
				for _, id := range args {
					c.session.manager.Wishlist.Add(id)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "remove <product-id>...",
			Short: "Drop products from the wishlist",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(_ *cobra.Command, args []string) error {
				for _, id := range args {
					c.session.manager.Wishlist.Remove(id)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "toggle <product-id>",
			Short: "Save the product, or drop it when already saved",
			Args:  cobra.ExactArgs(1),
			RunE: func(_ *cobra.Command, args []string) error {
				wl := c.session.manager.Wishlist
				wl.Toggle(args[0])
				if wl.Has(args[0]) {
					fmt.Fprintf(c.session.out, "Saved %s\n", shopstate.Normalize(args[0]))
				} else {
					fmt.Fprintf(c.session.out, "Removed %s\n", shopstate.Normalize(args[0]))
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Remove every saved product",
			Args:  cobra.NoArgs,
			RunE: func(*cobra.Command, []string) error {
				c.session.manager.Wishlist.Clear()
				return nil
			},
		},
	)
	return cmd
}
