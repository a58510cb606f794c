package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/timeriffic/timeriffic/internal/usecase"
)

func newActionCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "action",
		Short: "Add, change or delete timed actions",
	}

	cmd.AddCommand(newActionAddCmd(root))
	cmd.AddCommand(newActionUpdateCmd(root))
	cmd.AddCommand(newActionDeleteCmd(root))

	return cmd
}

func newActionAddCmd(root *rootOptions) *cobra.Command {
	var (
		before   int64
		inactive bool
		opts     usecase.ActionOptions
	)

	cmd := &cobra.Command{
		Use:   "add <profile-index>",
		Short: "Add a timed action to a profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			profileIndex, err := parseIndex(args[0], "profile index")
			if err != nil {
				return err
			}

			opts.Active = !inactive
			in, err := usecase.ResolveAction(opts)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			svc, closeFn, err := root.open(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			offset, err := svc.Actions.InsertTimedAction(ctx, profileIndex, before, in)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Added action at offset %d of profile %d\n", offset, profileIndex)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Time, "time", "", "Time of day as HH:MM (required)")
	cmd.Flags().StringVar(&opts.Days, "days", "all", "Days of week, for example Mon-Thu, Fri,Sat or weekend")
	cmd.Flags().StringVarP(&opts.Description, "description", "d", "", "Description of the action")
	cmd.Flags().StringVar(&opts.Payload, "payload", "", "Action payload")
	cmd.Flags().Int64Var(&opts.NextFireMs, "next-fire", 0, "Next fire time in epoch milliseconds")
	cmd.Flags().Int64Var(&before, "before", 0, "Insert before the action with this offset")
	cmd.Flags().BoolVar(&inactive, "inactive", false, "Create the action inactive")
	_ = cmd.MarkFlagRequired("time")

	return cmd
}

func newActionUpdateCmd(root *rootOptions) *cobra.Command {
	var (
		description string
		active      bool
		at          string
		days        string
		payload     string
		nextFire    int64
	)

	cmd := &cobra.Command{
		Use:   "update <row-id>",
		Short: "Change the fields of a timed action",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rowID, err := parseIndex(args[0], "row id")
			if err != nil {
				return err
			}

			var changes usecase.ActionChanges
			if cmd.Flags().Changed("description") {
				changes.Description = &description
			}
			if cmd.Flags().Changed("active") {
				changes.Active = &active
			}
			if cmd.Flags().Changed("time") {
				changes.Time = &at
			}
			if cmd.Flags().Changed("days") {
				changes.Days = &days
			}
			if cmd.Flags().Changed("payload") {
				changes.Payload = &payload
			}
			if cmd.Flags().Changed("next-fire") {
				changes.NextFireMs = &nextFire
			}

			upd, err := usecase.ResolveActionUpdate(changes)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			svc, closeFn, err := root.open(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			if err := svc.Actions.UpdateAction(ctx, rowID, upd); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Updated action row %d\n", rowID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&description, "description", "d", "", "New description")
	cmd.Flags().BoolVar(&active, "active", true, "Activate or deactivate the action")
	cmd.Flags().StringVar(&at, "time", "", "New time of day as HH:MM")
	cmd.Flags().StringVar(&days, "days", "", "New days of week")
	cmd.Flags().StringVar(&payload, "payload", "", "New payload")
	cmd.Flags().Int64Var(&nextFire, "next-fire", 0, "New next fire time in epoch milliseconds")

	return cmd
}

func newActionDeleteCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <row-id>",
		Short: "Delete a timed action",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rowID, err := parseIndex(args[0], "row id")
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			svc, closeFn, err := root.open(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			deleted, err := svc.Actions.DeleteAction(ctx, rowID)
			if err != nil {
				return err
			}
			if deleted == 0 {
				return fmt.Errorf("action row %d not found", rowID)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Deleted action row %d\n", rowID)
			return nil
		},
	}

	return cmd
}
