package editor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"

	"golang.org/x/sync/semaphore"
)

// Request describes one editor launch.
type Request struct {
	Template string
	File     string
	Line     uint
	Col      uint
	Title    string
	URL      string
}

// Launcher starts editor processes for sessions. In single-instance mode
// a weighted semaphore serializes launches so only one editor runs at a
// time; sessions queue until the slot frees up.
type Launcher struct {
	sem *semaphore.Weighted
	log *slog.Logger
}

// NewLauncher builds a launcher shared by all sessions of one server.
func NewLauncher(singleInstance bool, log *slog.Logger) *Launcher {
	l := &Launcher{log: log}
	if singleInstance {
		l.sem = semaphore.NewWeighted(1)
	}
	return l
}

// Start launches the editor in the background and returns a channel that
// receives the outcome once the editor exits. The channel is buffered so
// an abandoned launch never leaks its goroutine.
func (l *Launcher) Start(ctx context.Context, req Request) <-chan error {
	done := make(chan error, 1)
	go func() {
		done <- l.run(ctx, req)
	}()
	return done
}

func (l *Launcher) run(ctx context.Context, req Request) error {
	argv, err := BuildCommand(req.Template, req.File, req.Line, req.Col)
	if err != nil {
		return err
	}

	if l.sem != nil {
		if err := l.sem.Acquire(ctx, 1); err != nil {
			return err
		}
		defer l.sem.Release(1)
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Env = append(os.Environ(),
		"GHOST_TEXT_URL="+req.URL,
		"GHOST_TEXT_TITLE="+req.Title,
	)
	// Terminal editors need the server's terminal.
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start editor %q: %w", argv[0], err)
	}
	l.log.Info("editor started", "argv", argv, "pid", cmd.Process.Pid)

	waitErr := make(chan error, 1)
	go func() {
		waitErr <- cmd.Wait()
	}()

	select {
	case <-ctx.Done():
		cmd.Process.Kill()
		<-waitErr
		return ctx.Err()
	case err := <-waitErr:
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			// A non-zero exit still ends the session normally.
			l.log.Warn("editor exited with failure status", "code", exitErr.ExitCode())
			return nil
		}
		return err
	}
}
