package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"platter/internal/api"
	"platter/internal/controller"
)

// follow streams job state from the daemon and renders progress until the job
// reaches a terminal phase. On a TTY the line is redrawn in place; otherwise
// each update is its own line.
func follow(ctx context.Context, out io.Writer, client *api.Client) error {
	interactive := isTerminal(out)

	var final controller.State
	err := client.Watch(ctx, func(state controller.State) bool {
		if state.Phase.Terminal() {
			final = state
			return false
		}
		renderProgress(out, state, interactive)
		return true
	})
	if err != nil {
		return err
	}
	if interactive {
		fmt.Fprint(out, "\r\033[K")
	}

	switch final.Phase {
	case controller.PhaseCompleted:
		fmt.Fprintf(out, "Completed: %s (%s", final.OutputFile, humanSize(final.OutputSize))
		if final.OutputDuration > 0 {
			fmt.Fprintf(out, ", %s", humanDuration(final.OutputDuration))
		}
		fmt.Fprintln(out, ")")
		return nil
	case controller.PhaseCancelled:
		fmt.Fprintln(out, "Conversion cancelled")
		return nil
	default:
		if final.Error != "" {
			return errors.New(final.Error)
		}
		return fmt.Errorf("job ended in phase %q", final.Phase)
	}
}

func renderProgress(out io.Writer, state controller.State, interactive bool) {
	if interactive {
		fmt.Fprintf(out, "\r\033[K%-13s %5.1f%%  %s", state.Phase, state.Progress, state.Message)
		return
	}
	fmt.Fprintf(out, "%s %.1f%% %s\n", state.Phase, state.Progress, state.Message)
}

func isTerminal(out io.Writer) bool {
	file, ok := out.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
