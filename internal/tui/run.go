package tui

import (
	"context"
	"errors"
	"io"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// ErrInterrupted reports that the user quit the progress display before the
// background work finished.
var ErrInterrupted = errors.New("interrupted")

// RunWithWork creates a bubbletea program, launches workFn in a goroutine,
// and blocks until both the program and the work have finished. workFn
// receives a context that is cancelled when the user quits early, and a send
// callback that wraps tea.Program.Send with a small yield so the renderer can
// draw between updates. The work goroutine is always waited on before
// returning, so results written by workFn are safe to read afterwards.
func RunWithWork(ctx context.Context, out io.Writer, model ProgressModel, workFn func(ctx context.Context, send func(tea.Msg)), opts ...tea.ProgramOption) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	opts = append([]tea.ProgramOption{tea.WithOutput(out)}, opts...)
	p := tea.NewProgram(model, opts...)

	done := make(chan struct{})
	go func() {
		defer close(done)
		// Let bubbletea start its event loop and render the initial frame.
		time.Sleep(50 * time.Millisecond)

		workFn(ctx, func(msg tea.Msg) {
			p.Send(msg)
			time.Sleep(5 * time.Millisecond)
		})

		p.Send(JobDoneMsg{})
	}()

	finalModel, runErr := p.Run()

	// Quitting the display cancels in-flight work; either way the work
	// goroutine must finish before callers read what it produced.
	cancel()
	<-done

	if runErr != nil {
		return runErr
	}
	if m, ok := finalModel.(ProgressModel); ok {
		if m.Err() != nil {
			return m.Err()
		}
		if m.Interrupted() {
			return ErrInterrupted
		}
	}
	return nil
}
