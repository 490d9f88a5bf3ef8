package main

import (
	"context"
	"fmt"

	"pcspec/internal/core"
	"pcspec/pkg/domain"

	"github.com/spf13/cobra"
)

func newComponentCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "component",
		Aliases: []string{"comp"},
		Short:   "Add, swap, remove and reorder the components of a PC",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "add PC CATEGORY [NAME:VALUE...]",
			Short: "Append a component, optionally with spec parameters",
			Args:  cobra.MinimumNArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				spec, err := parseSpec(args[2:])
				if err != nil {
					return err
				}
				return a.withService(cmd.Context(), true, func(svc *core.Service) error {
					pc, ok := svc.Store().PC(args[0])
					if !ok {
						return errPCNotFound(args[0])
					}
					if pc.HasComponent(args[1]) {
						return fmt.Errorf("component %q already exists in %s", args[1], pc.Name())
					}
					return report(cmd, "added", componentRef(pc, args[1]))(svc.AddComponent(cmd.Context(), args[0], args[1], spec))
				})
			},
		},
		&cobra.Command{
			Use:   "swap PC CATEGORY [NAME:VALUE...]",
			Short: "Replace every spec parameter of a component",
			Args:  cobra.MinimumNArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				spec, err := parseSpec(args[2:])
				if err != nil {
					return err
				}
				return a.withService(cmd.Context(), true, func(svc *core.Service) error {
					pc, err := lookupComponent(svc, args[0], args[1])
					if err != nil {
						return err
					}
					return report(cmd, "swapped", componentRef(pc, args[1]))(svc.SwapComponent(cmd.Context(), args[0], args[1], spec))
				})
			},
		},
		componentCmd(a, "rm PC CATEGORY", "Remove a component", "removed", (*core.Service).RemoveComponent),
		componentCmd(a, "up PC CATEGORY", "Move a component one position up", "moved up", (*core.Service).MoveComponentUp),
		componentCmd(a, "down PC CATEGORY", "Move a component one position down", "moved down", (*core.Service).MoveComponentDown),
	)
	return cmd
}

func componentCmd(a *app, use, short, verb string, op func(*core.Service, context.Context, string, string) (bool, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withService(cmd.Context(), true, func(svc *core.Service) error {
				pc, err := lookupComponent(svc, args[0], args[1])
				if err != nil {
					return err
				}
				return report(cmd, verb, componentRef(pc, args[1]))(op(svc, cmd.Context(), args[0], args[1]))
			})
		},
	}
}

func lookupComponent(svc *core.Service, pcName, category string) (*domain.PC, error) {
	pc, ok := svc.Store().PC(pcName)
	if !ok {
		return nil, errPCNotFound(pcName)
	}
	if !pc.HasComponent(category) {
		return nil, fmt.Errorf("component %q not found in %s", category, pc.Name())
	}
	return pc, nil
}

func componentRef(pc *domain.PC, category string) string {
	return pc.Name() + "/" + category
}

// parseSpec builds a Spec from "NAME: VALUE" arguments. A repeated name
// keeps its first position and the last value.
func parseSpec(params []string) (domain.Spec, error) {
	var spec domain.Spec
	for _, line := range params {
		name, value, err := domain.ParseSpecParam(line)
		if err != nil {
			return domain.Spec{}, err
		}
		spec.Set(name, value)
	}
	return spec, nil
}
