package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newResetCmd(root *rootOptions) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete every profile, then restore the example profiles",
		Long:  "Delete every profile and timed action. The example profiles are written back unless seeding is disabled in the config file.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !force {
				ok, err := confirm(cmd, "Delete all profiles and actions? (y/N) ")
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), "Reset cancelled")
					return nil
				}
			}

			ctx := cmd.Context()
			svc, closeFn, err := root.open(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			if err := svc.Reset(ctx); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Reset profile store")
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Skip confirmation prompt")

	return cmd
}
