package report_test

import (
	"bytes"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/The-OpenROAD-Project/stacore/report"
)

func TestLogSinkSuppressesByID(t *testing.T) {
	var buf bytes.Buffer
	sink := report.NewLogSink(report.WithLogger(log.New(&buf, "", 0)))

	sink.Warn(report.WarnDegenerateLoadClamped, "cap=%f", 0.0)
	assert.Contains(t, buf.String(), "degenerate")

	buf.Reset()
	sink.Suppress(report.WarnDegenerateLoadClamped)
	assert.True(t, sink.Suppressed(report.WarnDegenerateLoadClamped))
	sink.Warn(report.WarnDegenerateLoadClamped, "cap=%f", 0.0)
	assert.Empty(t, buf.String())

	sink.Unsuppress(report.WarnDegenerateLoadClamped)
	sink.Warn(report.WarnDegenerateLoadClamped, "cap=%f", 0.0)
	assert.Contains(t, buf.String(), "degenerate")
}

func TestFatalErrorFormats(t *testing.T) {
	err := &report.FatalError{ID: report.WarnBorrowFixedPointCapped, Message: "cycle unbreakable"}
	assert.Contains(t, err.Error(), "cycle unbreakable")
}
