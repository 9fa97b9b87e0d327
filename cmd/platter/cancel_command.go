package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCancelCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel",
		Short: "Cancel the active conversion job",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			resp, err := client.Cancel(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !resp.Cancelled {
				fmt.Fprintln(out, "No active job to cancel")
				return nil
			}
			fmt.Fprintf(out, "Cancellation requested for job %s\n", resp.Job.JobID)
			return nil
		},
	}
}
