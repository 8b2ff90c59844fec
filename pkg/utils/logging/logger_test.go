package logging_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/atelierhq/decormem/pkg/utils/logging"
	"github.com/m-mizutani/gt"
)

func TestLevelFiltering(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := logging.New("warn", buf)

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")

	out := buf.String()
	gt.False(t, strings.Contains(out, "debug message"))
	gt.False(t, strings.Contains(out, "info message"))
	gt.True(t, strings.Contains(out, "warn message"))
}

func TestContextLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := logging.New("debug", buf).With("component", "test")

	ctx := logging.With(context.Background(), logger)
	logging.From(ctx).Info("hello")

	gt.True(t, strings.Contains(buf.String(), "hello"))
}

func TestFromWithoutLogger(t *testing.T) {
	logger := logging.From(context.Background())
	gt.V(t, logger).NotNil()
}

func TestSetDefault(t *testing.T) {
	original := logging.Default()
	defer logging.SetDefault(original)

	buf := &bytes.Buffer{}
	logging.SetDefault(logging.New("info", buf))
	logging.From(context.Background()).Info("via default")

	gt.True(t, strings.Contains(buf.String(), "via default"))
}
