package main

import (
	"context"
	"fmt"

	"pcspec/internal/core"
	"pcspec/pkg/domain"

	"github.com/spf13/cobra"
)

func newParamCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "param",
		Short: "Set, remove and reorder the spec parameters of a component",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   `set PC CATEGORY "NAME: VALUE"`,
			Short: "Set a parameter, keeping the stored name and position when it exists",
			Args:  cobra.ExactArgs(3),
			RunE: func(cmd *cobra.Command, args []string) error {
				name, value, err := domain.ParseSpecParam(args[2])
				if err != nil {
					return err
				}
				return a.withService(cmd.Context(), true, func(svc *core.Service) error {
					pc, err := lookupComponent(svc, args[0], args[1])
					if err != nil {
						return err
					}
					return report(cmd, "set", paramRef(pc, args[1], name))(svc.UpdateComponent(cmd.Context(), args[0], args[1], name, value))
				})
			},
		},
		paramCmd(a, "rm PC CATEGORY NAME", "Remove a parameter", "removed", (*core.Service).RemoveSpecParam),
		paramCmd(a, "up PC CATEGORY NAME", "Move a parameter one position up", "moved up", (*core.Service).MoveSpecParamUp),
		paramCmd(a, "down PC CATEGORY NAME", "Move a parameter one position down", "moved down", (*core.Service).MoveSpecParamDown),
	)
	return cmd
}

func paramCmd(a *app, use, short, verb string, op func(*core.Service, context.Context, string, string, string) (bool, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withService(cmd.Context(), true, func(svc *core.Service) error {
				pc, err := lookupComponent(svc, args[0], args[1])
				if err != nil {
					return err
				}
				if !pc.HasSpecParam(args[1], args[2]) {
					return fmt.Errorf("parameter %q not found in %s", args[2], componentRef(pc, args[1]))
				}
				return report(cmd, verb, paramRef(pc, args[1], args[2]))(op(svc, cmd.Context(), args[0], args[1], args[2]))
			})
		},
	}
}

func paramRef(pc *domain.PC, category, name string) string {
	return componentRef(pc, category) + ": " + name
}
