package utils

import (
	"bytes"
	"os"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	SetOutput(buf)
	t.Cleanup(func() { SetOutput(os.Stderr) })
	return buf
}

func TestSetVerbose_And_IsVerbose(t *testing.T) {
	// save original state and restore after test
	original := IsVerbose()
	defer SetVerbose(original)

	SetVerbose(true)
	if !IsVerbose() {
		t.Error("expected IsVerbose() = true after SetVerbose(true)")
	}

	SetVerbose(false)
	if IsVerbose() {
		t.Error("expected IsVerbose() = false after SetVerbose(false)")
	}
}

func TestVerbose_SilentWhenDisabled(t *testing.T) {
	original := IsVerbose()
	defer SetVerbose(original)
	buf := captureOutput(t)

	SetVerbose(false)
	Verbose("test message %s %d", "arg", 42)

	assert.Empty(t, buf.String())
}

func TestVerbose_WritesWhenEnabled(t *testing.T) {
	original := IsVerbose()
	defer SetVerbose(original)
	buf := captureOutput(t)

	SetVerbose(true)
	Verbose("test message %s %d", "arg", 42)

	assert.Contains(t, buf.String(), "test message arg 42")
	assert.Contains(t, buf.String(), "level=debug")
}

func TestInfoWarnError(t *testing.T) {
	buf := captureOutput(t)

	Info("test info %s", "message")
	Warn("careful")
	Error("broken %d", 7)

	out := buf.String()
	assert.Contains(t, out, "test info message")
	assert.Contains(t, out, "level=warning")
	assert.Contains(t, out, "broken 7")
}

func TestWithFields(t *testing.T) {
	buf := captureOutput(t)

	WithFields(logrus.Fields{"session": "abc"}).Info("opened")

	assert.Contains(t, buf.String(), "session=abc")
	assert.Contains(t, buf.String(), "opened")
}
