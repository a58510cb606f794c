package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/timeriffic/timeriffic/internal/mcp"
)

func newMCPCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server",
		Long:  "Start the Model Context Protocol server for timeriffic on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, closeFn, err := root.open(ctx)
			if err != nil {
				return fmt.Errorf("failed to open profile store: %w", err)
			}
			defer closeFn()

			return mcp.NewServer(svc, version).Run(ctx)
		},
	}

	return cmd
}
