package main

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"text/tabwriter"

	"stackstore-be/internal/shopstate"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func (c *cli) cartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Show and edit the cart",
	}
	cmd.AddCommand(
		c.cartListCmd(),
		c.cartAddCmd(),
		c.cartRemoveCmd(),
		c.cartSetCmd(),
		&cobra.Command{
			Use:   "clear",
			Short: "Remove every line from the cart",
			Args:  cobra.NoArgs,
			RunE: func(*cobra.Command, []string) error {
				c.session.manager.Cart.Clear()
				fmt.Fprintln(c.session.out, "Cart cleared")
				return nil
			},
		},
	)
	return cmd
}

func (c *cli) cartListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print the cart lines and total",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			printCart(c.session)
			return nil
		},
	}
}

func (c *cli) cartAddCmd() *cobra.Command {
	var (
		qty   int
		name  string
		price string
		image string
	)

	cmd := &cobra.Command{
		Use:   "add <slug|product-id>",
		Short: "Add a product to the cart",
		Long: "Add a product to the cart. Without --price the argument is treated as a product slug\n" +
			"and the name and price are looked up from the catalog.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var line shopstate.CartLine
			if price != "" {
				p, err := decimal.NewFromString(price)
				if err != nil || p.IsNegative() {
					return fmt.Errorf("invalid price %q", price)
				}
				line = shopstate.CartLine{ProductID: args[0], Name: name, UnitPrice: p, ImageURL: image}
				if line.Name == "" {
					line.Name = args[0]
				}
			} else {
				found, err := c.session.remote.LookupProduct(cmd.Context(), args[0])
				if err != nil {
					var remoteErr *shopstate.RemoteError
					if errors.As(err, &remoteErr) && remoteErr.Status == http.StatusNotFound {
						return fmt.Errorf("product %q not found", args[0])
					}
					return fmt.Errorf("look up product: %w", err)
				}
				line = found
			}

			c.session.manager.Cart.AddItem(line, qty)
			fmt.Fprintf(c.session.out, "Added %s\n", line.Name)
			return nil
		},
	}

	cmd.Flags().IntVarP(&qty, "qty", "q", 1, "quantity to add")
	cmd.Flags().StringVar(&name, "name", "", "line name (with --price)")
	cmd.Flags().StringVar(&price, "price", "", "unit price; skips the catalog lookup")
	cmd.Flags().StringVar(&image, "image", "", "image URL (with --price)")
	return cmd
}

func (c *cli) cartRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <product-id>",
		Short: "Remove a line from the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			c.session.manager.Cart.RemoveItem(args[0])
			return nil
		},
	}
}

func (c *cli) cartSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <product-id> <quantity>",
		Short: "Set the quantity of a cart line",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			qty, err := strconv.Atoi(args[1])
			if err != nil || qty < 1 {
				return fmt.Errorf("quantity must be a whole number of at least 1, got %q", args[1])
			}
			c.session.manager.Cart.UpdateQuantity(args[0], qty)
			return nil
		},
	}
}

func printCart(s *session) {
	cart := s.manager.Cart
	items := cart.Items()
	if len(items) == 0 {
		fmt.Fprintln(s.out, "Cart is empty")
		return
	}

	tw := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tQTY\tPRICE\tSUBTOTAL")
	for _, l := range items {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n",
			l.ProductID, l.Name, l.Quantity, l.UnitPrice.StringFixed(2), l.Subtotal().StringFixed(2))
	}
	_ = tw.Flush()

	units := "items"
	if cart.Count() == 1 {
		units = "item"
	}
	fmt.Fprintf(s.out, "%s\nTotal: %s (%d %s)\n", strings.Repeat("-", 24), cart.Total().StringFixed(2), cart.Count(), units)
}
