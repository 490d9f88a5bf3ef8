package main

import (
	"context"
	"fmt"
	"io"

	"pcspec/internal/core"
	"pcspec/pkg/domain"

	"github.com/spf13/cobra"
)

func newPCCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pc",
		Short: "List, show, add, remove and reorder PCs",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List PC names in order",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.withService(cmd.Context(), false, func(svc *core.Service) error {
					for _, name := range svc.Store().Names() {
						fmt.Fprintln(cmd.OutOrStdout(), name)
					}
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "show NAME",
			Short: "Print every component and parameter of a PC",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.withService(cmd.Context(), false, func(svc *core.Service) error {
					pc, ok := svc.Store().PC(args[0])
					if !ok {
						return errPCNotFound(args[0])
					}
					printPC(cmd.OutOrStdout(), pc)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "add NAME",
			Short: "Add an empty PC at the end",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.withService(cmd.Context(), true, func(svc *core.Service) error {
					if svc.Store().HasPC(args[0]) {
						return fmt.Errorf("pc %q already exists", args[0])
					}
					return report(cmd, "added", args[0])(svc.AddPC(cmd.Context(), args[0]))
				})
			},
		},
		pcNameCmd(a, "rm NAME", "Remove a PC", "removed", (*core.Service).RemovePC),
		pcNameCmd(a, "up NAME", "Move a PC one position up", "moved up", (*core.Service).MovePCUp),
		pcNameCmd(a, "down NAME", "Move a PC one position down", "moved down", (*core.Service).MovePCDown),
	)
	return cmd
}

func pcNameCmd(a *app, use, short, verb string, op func(*core.Service, context.Context, string) (bool, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withService(cmd.Context(), true, func(svc *core.Service) error {
				if !svc.Store().HasPC(args[0]) {
					return errPCNotFound(args[0])
				}
				return report(cmd, verb, args[0])(op(svc, cmd.Context(), args[0]))
			})
		},
	}
}

func errPCNotFound(name string) error { return fmt.Errorf("pc %q not found", name) }

// report prints the outcome of a mutation. A no-op (a move at either end)
// is not an error.
func report(cmd *cobra.Command, verb, subject string) func(bool, error) error {
	return func(changed bool, err error) error {
		if err != nil {
			return err
		}
		if changed {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", verb, subject)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "%s unchanged\n", subject)
		}
		return nil
	}
}

func printPC(w io.Writer, pc *domain.PC) {
	fmt.Fprintln(w, pc.Name())
	for _, category := range pc.Categories() {
		fmt.Fprintf(w, "  %s\n", category)
		spec, _ := pc.Spec(category)
		for _, e := range spec.Entries() {
			fmt.Fprintf(w, "    %s: %s\n", e.Key, e.Value)
		}
	}
}
