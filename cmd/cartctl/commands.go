package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/nikolayk812/cartsession/internal/cart"
	"github.com/nikolayk812/cartsession/internal/domain"
	"github.com/nikolayk812/cartsession/internal/remote"
	"github.com/nikolayk812/cartsession/internal/session"
	"github.com/spf13/cobra"
)

// withSession opens a cart session, runs fn and waits for the mirror calls fn
// dispatched before printing the cart.
func (a *app) withSession(ctx context.Context, fn func(s *cartSession) error) error {
	s, err := a.openSession(ctx)
	if err != nil {
		return err
	}
	defer s.close()

	if err := fn(s); err != nil {
		return err
	}

	s.store.Wait()
	printCart(a.out, s.store.State())

	return nil
}

func (a *app) showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd.Context(), func(*cartSession) error { return nil })
		},
	}
}

func (a *app) addCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <product-id>",
		Short: "Add one unit of a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			return a.withSession(ctx, func(s *cartSession) error {
				p, err := s.client.GetProduct(ctx, args[0])
				if err != nil {
					if errors.Is(err, remote.ErrNotFound) {
						return fmt.Errorf("product %s not found", args[0])
					}
					return fmt.Errorf("client.GetProduct: %w", err)
				}

				s.store.Add(ctx, p)
				return nil
			})
		},
	}
}

func (a *app) removeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <product-id>",
		Short: "Remove a product from the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			return a.withSession(ctx, func(s *cartSession) error {
				s.store.Remove(ctx, args[0])
				return nil
			})
		},
	}
}

func (a *app) setCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <product-id> <quantity>",
		Short: "Set a product's quantity; 0 removes it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			quantity, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("quantity %q is not a number", args[1])
			}

			ctx := cmd.Context()

			return a.withSession(ctx, func(s *cartSession) error {
				s.store.SetQuantity(ctx, args[0], quantity)
				return nil
			})
		},
	}
}

func (a *app) clearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Empty the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			return a.withSession(ctx, func(s *cartSession) error {
				s.store.Clear(ctx)
				return nil
			})
		},
	}
}

func (a *app) checkoutCmd() *cobra.Command {
	var contact domain.Contact

	cmd := &cobra.Command{
		Use:   "checkout",
		Short: "Place an order for the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateContact(contact); err != nil {
				return err
			}

			ctx := cmd.Context()

			return a.withSession(ctx, func(s *cartSession) error {
				err := s.store.Checkout(ctx, contact)
				switch {
				case errors.Is(err, cart.ErrAuthRequired):
					return fmt.Errorf("sign in first: pass --token or set CARTSESSION_TOKEN")
				case err != nil:
					return err
				}

				fmt.Fprintln(a.out, "Checkout successful!")
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&contact.Email, "email", "", "customer email")
	cmd.Flags().StringVar(&contact.Name, "name", "", "customer name")
	cmd.Flags().StringVar(&contact.Phone, "phone", "", "customer phone")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("phone")

	return cmd
}

func (a *app) invoicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "invoices",
		Short: "List invoices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.newRemoteClient(session.FromToken(a.cfg.Session.Token))
			if err != nil {
				return err
			}

			invoices, err := client.ListInvoices(cmd.Context())
			if err != nil {
				return fmt.Errorf("client.ListInvoices: %w", err)
			}

			printInvoices(a.out, invoices)
			return nil
		},
	}
}

func (a *app) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the local cart of this session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			return a.withSession(ctx, func(s *cartSession) error {
				s.store.Logout(ctx)
				return nil
			})
		},
	}
}

func validateContact(c domain.Contact) error {
	var missing []string
	if strings.TrimSpace(c.Email) == "" {
		missing = append(missing, "email")
	}
	if strings.TrimSpace(c.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(c.Phone) == "" {
		missing = append(missing, "phone")
	}

	if len(missing) > 0 {
		return fmt.Errorf("%s must not be empty", strings.Join(missing, ", "))
	}
	return nil
}
