package tui

// SlotUpdateMsg updates one slot row's fields by column name. Rows are keyed
// by SlotKey, and unknown keys create their row, since slots only exist once
// the timeline has been allocated.
type SlotUpdateMsg struct {
	Key    string
	Fields map[string]string
}

// JobDoneMsg signals that the compilation job has finished.
type JobDoneMsg struct{}

// JobErrorMsg carries a fatal compilation error; the display quits and the
// error is surfaced to the caller.
type JobErrorMsg struct {
	Err error
}
