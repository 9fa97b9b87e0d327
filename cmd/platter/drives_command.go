package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDrivesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "drives",
		Short: "List candidate source volumes visible to the daemon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			resp, err := client.Drives(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(resp.Volumes) == 0 {
				fmt.Fprintln(out, "No volumes found under the configured mount roots")
				return nil
			}
			rows := make([][]string, 0, len(resp.Volumes))
			for _, volume := range resp.Volumes {
				rows = append(rows, []string{volume.Name, yesNo(volume.Structured), volume.Path})
			}
			fmt.Fprintln(out, renderTable(
				[]column{{title: "Volume"}, {title: "Disc structure"}, {title: "Path"}},
				rows,
			))
			return nil
		},
	}
}
