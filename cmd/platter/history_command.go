package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded conversion outcomes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			resp, err := client.History(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(resp.Entries) == 0 {
				fmt.Fprintln(out, "No recorded conversions")
				return nil
			}
			rows := make([][]string, 0, len(resp.Entries))
			for _, entry := range resp.Entries {
				detail := entry.OutputFile
				if entry.Error != "" {
					detail = entry.Error
				}
				size := "-"
				if entry.OutputSize > 0 {
					size = humanSize(entry.OutputSize)
				}
				rows = append(rows, []string{
					entry.FinishedAt.Local().Format("2006-01-02 15:04"),
					entry.Phase,
					entry.Format,
					size,
					detail,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]column{{title: "Finished"}, {title: "Outcome"}, {title: "Format"}, {title: "Size", right: true}, {title: "Detail"}},
				rows,
			))
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum entries to list")
	return cmd
}
