package filespacer

// Stage identifies the phase of an operation a progress Event reports on.
type Stage int

const (
	// StageStarted is emitted once, before the first chunk of an operation.
	StageStarted Stage = iota

	// StageChunk is emitted synchronously after each chunk of I/O.
	StageChunk

	// StageEntry is emitted after an archive member has been fully
	// packed or extracted.
	StageEntry

	// StageWarning carries a non-fatal condition: an integrity mismatch,
	// a skipped member, a rejected path.
	StageWarning

	// StageCompleted is emitted once, after the output is finalized.
	StageCompleted
)

// Event is a structured progress notification. It replaces free-form text
// so that consumers other than a terminal (metrics, structured logs, a
// progress bar) do not have to parse strings.
type Event struct {
	Stage Stage

	// Name is the file or archive member the event concerns, when any.
	Name string

	// Bytes is the number of payload bytes processed so far;
	// Total is the expected total, or 0 when unknown up front.
	Bytes int64
	Total int64

	// Message is an optional human-readable rendering hint.
	// Warning events always carry one.
	Message string
}

// ProgressFunc consumes progress events. It is called synchronously from
// the I/O loop and must return quickly.
type ProgressFunc func(Event)

// emit delivers ev to the configured consumer. A panicking consumer is
// swallowed: notification failures must never stall or kill the I/O loop.
func (e *Engine) emit(ev Event) {
	if e.Progress == nil {
		return
	}

	defer func() {
		_ = recover()
	}()

	e.Progress(ev)
}
