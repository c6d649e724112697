package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewLogger_ServiceAttr(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "drms-server", "info")
	logger.Info("starting")

	out := buf.String()
	if !strings.Contains(out, `"service":"drms-server"`) {
		t.Errorf("expected service attribute in log line, got %s", out)
	}
	if !strings.Contains(out, `"msg":"starting"`) {
		t.Errorf("expected message in log line, got %s", out)
	}
}

func TestNewLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "", "warn")

	logger.Info("dropped")
	if buf.Len() != 0 {
		t.Errorf("expected info to be filtered at warn level, got %s", buf.String())
	}

	logger.Warn("kept")
	if !strings.Contains(buf.String(), `"msg":"kept"`) {
		t.Errorf("expected warn line, got %s", buf.String())
	}
}
