package engine

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"
)

// ErrEngineNotFound reports that the external engine binary is missing from
// PATH. Fatal for the job, not for the process.
var ErrEngineNotFound = errors.New("transcoding engine not found")

// Executor abstracts engine invocation for testability. Implementations
// stream every diagnostic output line to onLine as it is produced, one call
// at a time (callbacks may mutate unsynchronized state), and return once the
// process has exited.
type Executor interface {
	Run(ctx context.Context, binary string, args []string, onLine func(string)) error
}

// CommandExecutor runs the engine as a subprocess. Cancelling the context
// kills the running process; this is how job cancellation terminates an
// in-flight invocation.
type CommandExecutor struct{}

func (CommandExecutor) Run(ctx context.Context, binary string, args []string, onLine func(string)) error {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return fmt.Errorf("%w: %q", ErrEngineNotFound, binary)
		}
		return fmt.Errorf("start %s: %w", binary, err)
	}

	var wg sync.WaitGroup
	var scanErr error
	var once sync.Once

	// stdout and stderr are scanned concurrently; delivery to onLine is
	// serialized so callbacks need no locking of their own.
	var lineMu sync.Mutex
	emit := func(line string) {
		if onLine == nil {
			return
		}
		lineMu.Lock()
		onLine(line)
		lineMu.Unlock()
	}

	scan := func(r io.Reader) {
		defer wg.Done()
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		scanner.Split(scanStatusLines)
		for scanner.Scan() {
			emit(scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			once.Do(func() {
				scanErr = err
			})
		}
	}

	wg.Add(2)
	go scan(stdout)
	go scan(stderr)

	wg.Wait()
	if scanErr != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return fmt.Errorf("scan engine output: %w", scanErr)
	}

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%s: %w", binary, err)
	}
	return nil
}

// scanStatusLines splits on \n, \r, or \r\n. ffmpeg rewrites its status line
// in place with bare \r terminators, so splitting only on \n would hold every
// progress update until the process exits.
func scanStatusLines(data []byte, atEOF bool) (int, []byte, error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		if data[i] == '\n' {
			return i + 1, data[:i], nil
		}
		// A \r at the end of the buffer may be half of a \r\n pair; wait for
		// the next read before deciding.
		if i+1 == len(data) && !atEOF {
			return 0, nil, nil
		}
		if i+1 < len(data) && data[i+1] == '\n' {
			return i + 2, data[:i], nil
		}
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
