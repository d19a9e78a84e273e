package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"gamelens/internal/preflight"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	var offline bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check directories, credentials and source connectivity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd.Context(), ctx, func(reqCtx context.Context, rt *runtime) error {
				registry := rt.registry
				if offline {
					registry = nil
				}
				results := preflight.RunAll(reqCtx, rt.cfg, registry)
				if ctx.jsonOutput() {
					if err := writeJSON(cmd, results); err != nil {
						return err
					}
				} else {
					out := cmd.OutOrStdout()
					colorize := shouldColorize(out)
					for _, r := range results {
						kind := statusError
						switch {
						case r.Passed && r.Detail == "Disabled":
							kind = statusInfo
						case r.Passed:
							kind = statusOK
						}
						fmt.Fprintln(out, renderStatusLine(r.Name, kind, r.Detail, colorize))
					}
				}
				if preflight.Failed(results) {
					return errors.New("one or more checks failed")
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&offline, "offline", false, "Skip the live probe search against each source")
	return cmd
}
