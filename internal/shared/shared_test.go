package shared

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestNewLogger(t *testing.T) {
	t.Run("with writer", func(t *testing.T) {
		buf := &bytes.Buffer{}
		logger := NewLogger(buf)

		logger.Info("hello", "key", "value")
		if !strings.Contains(buf.String(), "hello") {
			t.Errorf("expected log output, got %q", buf.String())
		}
	})

	t.Run("with nil writer", func(t *testing.T) {
		if logger := NewLogger(nil); logger == nil {
			t.Error("expected a logger")
		}
	})
}

func TestWithLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewLogger(buf)

	child := WithLogger(logger, "id", "job-1")
	child.Info("working")

	if !strings.Contains(buf.String(), "job-1") {
		t.Errorf("expected the bound field in output, got %q", buf.String())
	}
}

func TestSetLogLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewLogger(buf)

	SetLogLevel(logger, log.ErrorLevel)
	logger.Info("suppressed")

	if strings.Contains(buf.String(), "suppressed") {
		t.Errorf("expected info output suppressed, got %q", buf.String())
	}
}

func TestGenerateID(t *testing.T) {
	first := GenerateID()
	second := GenerateID()

	if first == second {
		t.Error("expected unique ids")
	}
	if len(first) != 36 {
		t.Errorf("expected a uuid string, got %q", first)
	}
}

func TestMarshalJSON(t *testing.T) {
	data := map[string]int{"count": 3}

	compact, err := MarshalJSON(data, false)
	if err != nil {
		t.Fatalf("MarshalJSON failed: %v", err)
	}
	if string(compact) != `{"count":3}` {
		t.Errorf("compact = %q", compact)
	}

	pretty, err := MarshalJSON(data, true)
	if err != nil {
		t.Fatalf("MarshalJSON failed: %v", err)
	}
	if !strings.Contains(string(pretty), "\n") {
		t.Errorf("expected indented output, got %q", pretty)
	}
}

func TestErrorWrapping(t *testing.T) {
	err := fmt.Errorf("%w: url is required", ErrValidation)
	if !errors.Is(err, ErrValidation) {
		t.Error("expected wrapped sentinel to match")
	}
	if errors.Is(err, ErrNotFound) {
		t.Error("expected distinct sentinels not to match")
	}
}
