package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/timeriffic/timeriffic/internal/services"
	"github.com/timeriffic/timeriffic/internal/usecase"
)

func newListCmd(root *rootOptions) *cobra.Command {
	var (
		enabledOnly bool
		descending  bool
		format      string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List profiles and their timed actions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if format != "table" && format != "json" {
				return fmt.Errorf("invalid format: %s (valid values: table, json)", format)
			}

			ctx := cmd.Context()
			svc, closeFn, err := root.open(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			tree, err := usecase.NewProfiles(svc).Tree(ctx, services.ListOptions{
				EnabledOnly: enabledOnly,
				Descending:  descending,
			})
			if err != nil {
				return err
			}

			if format == "json" {
				return outputJSON(cmd, tree)
			}
			outputTable(cmd, tree)
			return nil
		},
	}

	cmd.Flags().BoolVar(&enabledOnly, "enabled-only", false, "Only show enabled profiles and active actions")
	cmd.Flags().BoolVar(&descending, "descending", false, "Show in reverse display order")
	cmd.Flags().StringVar(&format, "format", "table", "Output format: table or json")

	return cmd
}

func outputJSON(cmd *cobra.Command, v any) error {
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func getTerminalWidth() int {
	if width, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && width > 0 {
		return width
	}
	return 80
}

// descriptionWidth is what remains of termWidth once the fixed columns are
// laid out. Index and Row are sized from the data.
func descriptionWidth(termWidth int, tree []usecase.ProfileTree) int {
	indexWidth, rowWidth := len("Index"), len("Row")
	for _, p := range tree {
		indexWidth = max(indexWidth, len(strconv.FormatInt(p.Index, 10)))
		rowWidth = max(rowWidth, len(strconv.FormatInt(p.RowID, 10)))
		for _, a := range p.Actions {
			indexWidth = max(indexWidth, len(strconv.FormatInt(a.Offset, 10))+2)
			rowWidth = max(rowWidth, len(strconv.FormatInt(a.RowID, 10)))
		}
	}

	const (
		onWidth       = 3
		scheduleWidth = 30
		borderPadding = 5 * 3
	)
	w := termWidth - borderPadding - indexWidth - rowWidth - onWidth - scheduleWidth
	if w < 15 {
		w = 15
	}
	return w
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func outputTable(cmd *cobra.Command, tree []usecase.ProfileTree) {
	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)
	t.Style().Format.Header = text.FormatDefault

	descWidth := descriptionWidth(getTerminalWidth(), tree)

	t.AppendHeader(table.Row{"Index", "Row", "On", "Schedule", "Description"})

	for i, p := range tree {
		if i > 0 {
			t.AppendSeparator()
		}
		t.AppendRow(table.Row{
			p.Index,
			p.RowID,
			onOff(p.Enabled),
			"",
			runewidth.Truncate(p.Title, descWidth, "..."),
		})
		for _, a := range p.Actions {
			t.AppendRow(table.Row{
				"+ " + strconv.FormatInt(a.Offset, 10),
				a.RowID,
				onOff(a.Active),
				usecase.FormatAction(a),
				runewidth.Truncate(a.Description, descWidth, "..."),
			})
		}
	}

	t.Render()
}
