// Package cli implements cidrgroupctl, an admin tool that runs registry
// operations directly against the configured store.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/bcnelson/cidr-group-central/internal/registry"
	"github.com/spf13/cobra"
)

// OpenFunc opens the registry for one command invocation. The returned
// close function releases the underlying store.
type OpenFunc func(ctx context.Context) (*registry.Registry, func() error, error)

// NewRootCommand builds the cidrgroupctl command tree.
func NewRootCommand(open OpenFunc) *cobra.Command {
	root := &cobra.Command{
		Use:           "cidrgroupctl",
		Short:         "Manage CIDR groups",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newListCommand(open),
		newGetCommand(open),
		newCreateCommand(open),
		newUpdateCommand(open),
		newDeleteCommand(open),
	)
	return root
}

// withRegistry opens the registry, runs fn and closes the store.
func withRegistry(cmd *cobra.Command, open OpenFunc, fn func(ctx context.Context, reg *registry.Registry) error) (err error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	reg, closeFn, err := open(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeFn(); cerr != nil && err == nil {
			err = fmt.Errorf("closing store: %w", cerr)
		}
	}()
	return fn(ctx, reg)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newListCommand(open OpenFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all groups ordered by name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRegistry(cmd, open, func(ctx context.Context, reg *registry.Registry) error {
				groups, err := reg.List(ctx)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), groups)
			})
		},
	}
}

func newGetCommand(open OpenFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "get NAME",
		Short: "Show one group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRegistry(cmd, open, func(ctx context.Context, reg *registry.Registry) error {
				group, err := reg.Get(ctx, args[0])
				if err != nil {
					return fmt.Errorf("group %q: %w", args[0], err)
				}
				return printJSON(cmd.OutOrStdout(), group)
			})
		},
	}
}

func newCreateCommand(open OpenFunc) *cobra.Command {
	var description, cidr string
	cmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Create a group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRegistry(cmd, open, func(ctx context.Context, reg *registry.Registry) error {
				group, err := reg.Create(ctx, args[0], description, cidr)
				if err != nil {
					return fmt.Errorf("creating group %q: %w", args[0], err)
				}
				return printJSON(cmd.OutOrStdout(), group)
			})
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "group description (required)")
	cmd.Flags().StringVarP(&cidr, "cidr", "c", "", "network in CIDR notation, e.g. 10.0.0.0/24")
	_ = cmd.MarkFlagRequired("description")
	return cmd
}

func newUpdateCommand(open OpenFunc) *cobra.Command {
	var description, cidr string
	cmd := &cobra.Command{
		Use:   "update NAME",
		Short: "Change a group's description or CIDR",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var descPtr, cidrPtr *string
			if cmd.Flags().Changed("description") {
				descPtr = &description
			}
			if cmd.Flags().Changed("cidr") {
				cidrPtr = &cidr
			}
			if descPtr == nil && cidrPtr == nil {
				return fmt.Errorf("nothing to update: pass --description and/or --cidr")
			}
			return withRegistry(cmd, open, func(ctx context.Context, reg *registry.Registry) error {
				group, err := reg.Update(ctx, args[0], descPtr, cidrPtr)
				if err != nil {
					return fmt.Errorf("updating group %q: %w", args[0], err)
				}
				return printJSON(cmd.OutOrStdout(), group)
			})
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "new description")
	cmd.Flags().StringVarP(&cidr, "cidr", "c", "", "new CIDR; pass an empty string to clear")
	return cmd
}

func newDeleteCommand(open OpenFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "delete NAME",
		Short: "Delete a group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRegistry(cmd, open, func(ctx context.Context, reg *registry.Registry) error {
				if err := reg.Delete(ctx, args[0]); err != nil {
					return fmt.Errorf("deleting group %q: %w", args[0], err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
				return nil
			})
		},
	}
}
