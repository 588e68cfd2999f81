package log

import (
	"context"
	"testing"

	"cdr.dev/slog"
	"github.com/stretchr/testify/assert"
)

type recordSink struct {
	entries []slog.SinkEntry
	syncs   int
}

func (s *recordSink) LogEntry(_ context.Context, e slog.SinkEntry) {
	s.entries = append(s.entries, e)
}

func (s *recordSink) Sync() {
	s.syncs++
}

func TestFieldsAndSync(t *testing.T) {
	t.Parallel()

	sink := &recordSink{}
	ctx := With(context.Background(), slog.Make(sink))
	ctx = Named(ctx, "session")
	ctx = Fields(ctx, slog.F("project", "p1"))

	Info(ctx, "frame sent", slog.F("version", 2))
	if assert.Len(t, sink.entries, 1) {
		e := sink.entries[0]
		assert.Equal(t, "frame sent", e.Message)
		assert.Equal(t, []string{"session"}, e.LoggerNames)
		var names []string
		for _, f := range e.Fields {
			names = append(names, f.Name)
		}
		assert.Equal(t, []string{"project", "version"}, names)
	}

	Sync(ctx)
	assert.Equal(t, 1, sink.syncs)
}
