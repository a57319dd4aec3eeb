// Package events emits structured lifecycle events for the three
// pipeline entry points (initialize, compile, clear), in the CloudEvents
// envelope shape, so an operator can wire a real event bus in front of
// the default logging sink without touching pipeline code.
package events

import (
	"context"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"go.uber.org/zap"
)

const source = "hotreloadd/pipeline"

// Phase names a lifecycle event type, mapped to
// "com.hotreloadd.pipeline.<phase>".
type Phase string

const (
	PhaseInitialize Phase = "initialize"
	PhaseCompile    Phase = "compile"
	PhaseClear      Phase = "clear"
)

// Sink accepts a lifecycle event. The pipeline depends only on this
// interface; Emitter is the concrete event-construction helper that
// feeds it.
type Sink interface {
	Accept(ctx context.Context, ev cloudevents.Event)
}

// LoggingSink logs every event at Info via zap; it is the default Sink
// until a real event-bus transport is wired in.
type LoggingSink struct {
	Logger *zap.Logger
}

func (s LoggingSink) Accept(_ context.Context, ev cloudevents.Event) {
	s.Logger.Info("lifecycle event",
		zap.String("type", ev.Type()),
		zap.String("subject", ev.Subject()),
		zap.Time("time", ev.Time()),
	)
}

// Emitter constructs and dispatches lifecycle events to a Sink.
type Emitter struct {
	Sink Sink
}

// Emit builds a CloudEvents envelope for phase/projectPath and a
// success flag, and dispatches it to the sink.
func (e Emitter) Emit(ctx context.Context, phase Phase, projectPath string, success bool, elapsed time.Duration) {
	if e.Sink == nil {
		return
	}
	ev := cloudevents.NewEvent()
	ev.SetSource(source)
	ev.SetType("com.hotreloadd.pipeline." + string(phase))
	ev.SetSubject(projectPath)
	ev.SetTime(timeNow())
	_ = ev.SetData(cloudevents.ApplicationJSON, map[string]any{
		"success":       success,
		"elapsedMillis": elapsed.Milliseconds(),
	})
	e.Sink.Accept(ctx, ev)
}

// timeNow is a seam so tests can avoid depending on wall-clock time if
// they assert on event contents rather than just side effects.
var timeNow = time.Now
