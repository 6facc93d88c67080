package tui

import (
	"fmt"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tijender7/dancer-latest/internal/render"
	"github.com/tijender7/dancer-latest/internal/segment"
)

// SlotKey is the row key for one timeline slot.
func SlotKey(index int) string {
	return fmt.Sprintf("slot-%03d", index)
}

// SlotReporter adapts render progress callbacks into row updates for the
// compile progress table.
type SlotReporter struct {
	send func(tea.Msg)
}

// NewSlotReporter constructs a reporter that forwards updates through send.
func NewSlotReporter(send func(tea.Msg)) *SlotReporter {
	return &SlotReporter{send: send}
}

// Start implements render.ProgressReporter.
func (r *SlotReporter) Start(plan segment.Plan) {
	status := "rendering"
	if plan.Hold {
		status = "held"
	}
	clip := ""
	if plan.Slot.Clip.Path != "" {
		clip = filepath.Base(plan.Slot.Clip.Path)
	}
	r.send(SlotUpdateMsg{
		Key: SlotKey(plan.Slot.Index),
		Fields: map[string]string{
			"SLOT":     fmt.Sprintf("%d", plan.Slot.Index),
			"CLIP":     NonEmptyOrDash(clip),
			"DURATION": fmt.Sprintf("%.2fs", plan.Slot.Duration()),
			"STATUS":   status,
		},
	})
}

// Complete implements render.ProgressReporter.
func (r *SlotReporter) Complete(res render.Result) {
	status := "rendered"
	if res.Err != nil {
		status = "error"
	}
	r.send(SlotUpdateMsg{
		Key: SlotKey(res.Index),
		Fields: map[string]string{
			"STATUS": status,
		},
	})
}
