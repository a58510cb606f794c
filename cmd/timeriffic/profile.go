package main

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/timeriffic/timeriffic/internal/services"
	"github.com/timeriffic/timeriffic/internal/usecase"
)

func newProfileCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Add, change or delete profiles",
	}

	cmd.AddCommand(newProfileAddCmd(root))
	cmd.AddCommand(newProfileUpdateCmd(root))
	cmd.AddCommand(newProfileDeleteCmd(root))

	return cmd
}

func parseIndex(s, what string) (int64, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", what, s)
	}
	return n, nil
}

// confirm asks a yes/no question on stderr and reads the answer from stdin.
func confirm(cmd *cobra.Command, message string) (bool, error) {
	reader := bufio.NewReader(cmd.InOrStdin())
	fmt.Fprint(cmd.ErrOrStderr(), message)
	answer, err := reader.ReadString('\n')
	if err != nil && answer == "" {
		return false, err
	}

	answer = strings.TrimSpace(strings.ToLower(answer))
	return answer == "y", nil
}

func newProfileAddCmd(root *rootOptions) *cobra.Command {
	var (
		before   int64
		disabled bool
	)

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a profile at the end, or before another profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, closeFn, err := root.open(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			index, err := svc.Profiles.InsertProfile(ctx, before, args[0], !disabled)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Added profile '%s' at index %d\n", args[0], index)
			return nil
		},
	}

	cmd.Flags().Int64Var(&before, "before", 0, "Insert before the profile with this index")
	cmd.Flags().BoolVar(&disabled, "disabled", false, "Create the profile disabled")

	return cmd
}

func newProfileUpdateCmd(root *rootOptions) *cobra.Command {
	var (
		title   string
		enabled bool
	)

	cmd := &cobra.Command{
		Use:   "update <index>",
		Short: "Rename, enable or disable a profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parseIndex(args[0], "profile index")
			if err != nil {
				return err
			}

			var upd services.ProfileUpdate
			if cmd.Flags().Changed("title") {
				upd.Title = &title
			}
			if cmd.Flags().Changed("enabled") {
				upd.Enabled = &enabled
			}

			ctx := cmd.Context()
			svc, closeFn, err := root.open(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			if err := svc.Profiles.UpdateProfileByIndex(ctx, index, upd); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Updated profile %d\n", index)
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().BoolVar(&enabled, "enabled", true, "Enable or disable the profile")

	return cmd
}

func newProfileDeleteCmd(root *rootOptions) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete <index>",
		Short: "Delete a profile and all of its timed actions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parseIndex(args[0], "profile index")
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			svc, closeFn, err := root.open(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			p, err := usecase.NewProfiles(svc).Profile(ctx, index)
			if err != nil {
				return err
			}

			if !force {
				ok, err := confirm(cmd, fmt.Sprintf("Delete profile '%s' and its %d action(s)? (y/N) ", p.Title, len(p.Actions)))
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), "Deletion cancelled")
					return nil
				}
			}

			deleted, err := svc.Profiles.DeleteProfile(ctx, p.RowID)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Deleted profile '%s' and %d action(s)\n", p.Title, deleted-1)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Skip confirmation prompt")

	return cmd
}
