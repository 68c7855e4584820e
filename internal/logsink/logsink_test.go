package logsink

import (
	"bytes"
	"strings"
	"testing"
)

func TestStderrVerboseGatesTrace(t *testing.T) {
	var buf bytes.Buffer
	quiet := To(&buf, false)
	quiet.Tracef("hidden %d", 1)
	if buf.Len() != 0 {
		t.Errorf("expected no trace output when not verbose, got %q", buf.String())
	}

	buf.Reset()
	loud := To(&buf, true)
	loud.Tracef("visible %d", 1)
	if !strings.Contains(buf.String(), "visible 1") {
		t.Errorf("expected trace output, got %q", buf.String())
	}
}

func TestWarnfAlwaysPrints(t *testing.T) {
	var buf bytes.Buffer
	s := To(&buf, false)
	s.Warnf("trouble %s", "ahead")
	if !strings.Contains(buf.String(), "warning: trouble ahead") {
		t.Errorf("got %q", buf.String())
	}
}

func TestDiscard(t *testing.T) {
	s := Discard()
	s.Tracef("x")
	s.Warnf("y")
}
