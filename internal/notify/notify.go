// Package notify delivers import/export outcomes to whoever is presenting
// them. A Sink is passed explicitly to the layers that report results.
package notify

import (
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ginjaninja78/debtledger/internal/types"
)

// Sink receives user-facing messages.
type Sink interface {
	Success(message string)
	Warning(message string)
	Error(message string)
}

// Discard drops every message.
var Discard Sink = discard{}

type discard struct{}

func (discard) Success(string) {}
func (discard) Warning(string) {}
func (discard) Error(string)   {}

// LogSink writes messages as log entries.
type LogSink struct {
	Logger logrus.FieldLogger
}

func (s LogSink) Success(message string) {
	s.Logger.WithField("notify", "success").Info(message)
}

func (s LogSink) Warning(message string) {
	s.Logger.WithField("notify", "warning").Warn(message)
}

func (s LogSink) Error(message string) {
	s.Logger.WithField("notify", "error").Error(message)
}

// WriterSink prints messages to a writer, one block per message.
type WriterSink struct {
	W io.Writer
}

func (s WriterSink) Success(message string) { fmt.Fprintf(s.W, "✓ %s\n", message) }
func (s WriterSink) Warning(message string) { fmt.Fprintf(s.W, "! %s\n", message) }
func (s WriterSink) Error(message string)   { fmt.Fprintf(s.W, "✗ %s\n", message) }

// Summarize renders "imported/total imported" followed by at most maxErrors
// error lines. Remaining errors are counted, not listed.
func Summarize(report types.ImportReport, maxErrors int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d/%d imported", report.Imported, report.Total)

	if len(report.Errors) == 0 {
		return b.String()
	}

	shown := report.Errors
	if maxErrors > 0 && len(shown) > maxErrors {
		shown = shown[:maxErrors]
	}
	for _, e := range shown {
		b.WriteString("\n  - ")
		b.WriteString(e)
	}
	if rest := len(report.Errors) - len(shown); rest > 0 {
		fmt.Fprintf(&b, "\n  ... and %d more", rest)
	}
	return b.String()
}

// Deliver sends the report summary to sink at a level matching the outcome:
// success when everything was imported, warning on partial success, error
// when nothing was imported.
func Deliver(sink Sink, report types.ImportReport, maxErrors int) {
	if sink == nil {
		return
	}
	message := Summarize(report, maxErrors)
	switch {
	case !report.Success:
		sink.Error(message)
	case len(report.Errors) > 0:
		sink.Warning(message)
	default:
		sink.Success(message)
	}
}
