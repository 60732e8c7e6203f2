package statusline

import "fmt"

// Kind tags an Outcome.
type Kind int

const (
	// KindUpdated means the renderer ran successfully.
	KindUpdated Kind = iota
	// KindFailed means the attempt failed for any reason.
	KindFailed
)

func (k Kind) String() string {
	switch k {
	case KindUpdated:
		return "updated"
	case KindFailed:
		return "failed"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Outcome is the result of one render attempt.
type Outcome struct {
	Kind Kind
	// Line is the rendered line for KindUpdated. Nil means the renderer
	// produced nothing to show.
	Line *string
}

// Updated returns an Outcome carrying line, which may be nil.
func Updated(line *string) Outcome {
	return Outcome{Kind: KindUpdated, Line: line}
}

// Failed returns a failed Outcome.
func Failed() Outcome {
	return Outcome{Kind: KindFailed}
}

func (o Outcome) String() string {
	if o.Kind == KindUpdated && o.Line != nil {
		return fmt.Sprintf("updated(%q)", *o.Line)
	}
	return o.Kind.String()
}

// Sink receives the single Outcome of an attempt. Send is called from the
// attempt goroutine.
type Sink interface {
	Send(Outcome)
}

// SinkFunc adapts a function, such as tea.Program.Send wrapped in a
// closure, to a Sink.
type SinkFunc func(Outcome)

// Send calls f(o).
func (f SinkFunc) Send(o Outcome) { f(o) }

// ChanSink delivers outcomes over a channel.
type ChanSink chan Outcome

// NewChanSink returns a ChanSink with room for one outcome, enough for a
// single-flight gate so Send never blocks the attempt goroutine.
func NewChanSink() ChanSink {
	return make(ChanSink, 1)
}

// Send writes o to the channel.
func (c ChanSink) Send(o Outcome) { c <- o }
