package tui

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

func testModel() ProgressModel {
	return NewProgressModel("test", []Column{
		{Header: "SLOT", Width: 4},
		{Header: "STATUS", Width: 10},
	})
}

func TestRunWithWorkCompletes(t *testing.T) {
	var ran bool
	err := RunWithWork(context.Background(), io.Discard, testModel(), func(_ context.Context, send func(tea.Msg)) {
		send(SlotUpdateMsg{Key: SlotKey(0), Fields: map[string]string{"SLOT": "0", "STATUS": "rendered"}})
		ran = true
	}, tea.WithInput(nil))
	if err != nil {
		t.Fatalf("RunWithWork error: %v", err)
	}
	if !ran {
		t.Fatal("work function never ran")
	}
}

func TestRunWithWorkQuitCancelsAndWaits(t *testing.T) {
	var cancelled, settled bool
	err := RunWithWork(context.Background(), io.Discard, testModel(), func(ctx context.Context, send func(tea.Msg)) {
		send(tea.KeyMsg{Type: tea.KeyCtrlC})

		// The quit must cancel our context rather than abandon us.
		select {
		case <-ctx.Done():
			cancelled = true
		case <-time.After(5 * time.Second):
		}

		// Anything written here must be visible to the caller, which means
		// RunWithWork has to wait for this function before returning.
		settled = true
	}, tea.WithInput(nil))

	if !errors.Is(err, ErrInterrupted) {
		t.Fatalf("expected ErrInterrupted, got %v", err)
	}
	if !cancelled {
		t.Fatal("quitting the display did not cancel the work context")
	}
	if !settled {
		t.Fatal("RunWithWork returned before the work goroutine finished")
	}
}

func TestRunWithWorkSurfacesJobError(t *testing.T) {
	wantErr := errors.New("render slot 3 failed")
	err := RunWithWork(context.Background(), io.Discard, testModel(), func(_ context.Context, send func(tea.Msg)) {
		send(JobErrorMsg{Err: wantErr})
	}, tea.WithInput(nil))

	if err == nil || err.Error() != wantErr.Error() {
		t.Fatalf("expected job error to surface, got %v", err)
	}
}
