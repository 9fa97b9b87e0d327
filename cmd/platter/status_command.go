package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"platter/internal/api"
	"platter/internal/controller"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon and job status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			status, err := client.Status(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				encoder := json.NewEncoder(out)
				encoder.SetIndent("", "  ")
				return encoder.Encode(status)
			}
			renderStatus(out, status)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit raw JSON")
	return cmd
}

func renderStatus(out io.Writer, status *api.StatusResponse) {
	fmt.Fprintf(out, "Daemon:  running (pid %d)\n", status.PID)
	if status.LockFilePath != "" {
		fmt.Fprintf(out, "Lock:    %s\n", status.LockFilePath)
	}
	if status.HistoryDBPath != "" {
		fmt.Fprintf(out, "History: %s\n", status.HistoryDBPath)
	}

	job := status.Job
	fmt.Fprintf(out, "\nJob phase: %s\n", job.Phase)
	if job.Phase.Active() {
		fmt.Fprintf(out, "Progress:  %.1f%%  %s\n", job.Progress, job.Message)
	}
	switch job.Phase {
	case controller.PhaseCompleted:
		fmt.Fprintf(out, "Output:    %s (%s)\n", job.OutputFile, humanSize(job.OutputSize))
	case controller.PhaseError:
		fmt.Fprintf(out, "Error:     %s\n", job.Error)
	}

	if len(status.Dependencies) > 0 {
		rows := make([][]string, 0, len(status.Dependencies))
		for _, dep := range status.Dependencies {
			state := "ok"
			if !dep.Available {
				state = "missing"
				if dep.Optional {
					state = "missing (optional)"
				}
			}
			detail := dep.Detail
			if detail == "" {
				detail = dep.Command
			}
			rows = append(rows, []string{dep.Name, state, detail})
		}
		fmt.Fprintln(out)
		fmt.Fprintln(out, renderTable(
			[]column{{title: "Dependency"}, {title: "State"}, {title: "Detail"}},
			rows,
		))
	}

	if len(status.Preflight) > 0 {
		rows := make([][]string, 0, len(status.Preflight))
		for _, check := range status.Preflight {
			state := "ok"
			if !check.Passed {
				state = "failed"
			}
			rows = append(rows, []string{check.Name, state, check.Detail})
		}
		fmt.Fprintln(out, renderTable(
			[]column{{title: "Check"}, {title: "State"}, {title: "Detail"}},
			rows,
		))
	}
}
