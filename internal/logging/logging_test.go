package logging

import (
	"testing"

	"go.uber.org/zap"
)

func TestNewLevels(t *testing.T) {
	rows := []struct {
		verbose bool
		debug   bool
	}{
		{false, false},
		{true, true},
	}
	for _, r := range rows {
		l := New(r.verbose)
		if got := l.Core().Enabled(zap.DebugLevel); got != r.debug {
			t.Fatalf("New(%v) debug enabled = %v, want %v", r.verbose, got, r.debug)
		}
		if !l.Core().Enabled(zap.ErrorLevel) {
			t.Fatalf("New(%v) error level disabled", r.verbose)
		}
	}
}
