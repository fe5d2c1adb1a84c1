package buildlog

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorFormatsFileLine(t *testing.T) {
	var stderr bytes.Buffer
	logger := New(&stderr, nil)

	logger.Error("main.asm", 12, errors.New("undefined symbol \"foo\""))

	assert.Equal(t, 1, logger.ErrorCount())
	assert.Contains(t, stderr.String(), "main.asm:12: error:")
	assert.Contains(t, stderr.String(), "undefined symbol")
}

func TestWarningCounter(t *testing.T) {
	var stderr bytes.Buffer
	logger := New(&stderr, nil)

	logger.Warning("main.asm", 3, errors.New("unknown section name"))

	assert.Equal(t, 0, logger.ErrorCount())
	assert.Equal(t, 1, logger.WarningCount())
	assert.True(t, strings.Contains(stderr.String(), "warning:"))
}

func TestPlainDiagnosticsHaveNoLocation(t *testing.T) {
	var stderr bytes.Buffer
	logger := New(&stderr, nil)

	logger.PlainError(errors.New("duplicate global symbol"))

	assert.Equal(t, 1, logger.ErrorCount())
	assert.Contains(t, stderr.String(), "ez80: error: duplicate global symbol")
}

func TestFanoutWritesToFileHandlerToo(t *testing.T) {
	var stderr, file bytes.Buffer
	fileHandler := slog.NewJSONHandler(&file, nil)
	logger := New(&stderr, fileHandler)

	logger.Error("main.asm", 1, errors.New("boom"))

	assert.Contains(t, stderr.String(), "main.asm:1: error: boom")
	assert.Contains(t, file.String(), "boom")
}
