// Package logger wraps the standard log.Logger with the progress-
// reporting vocabulary the CPU engine, the GPU engine and the pipeline
// resolver all need: a one-line "found a candidate" report and a
// "N attempts, best so far" report, so every caller logs those in the
// same shape instead of hand-formatting them at each call site.
package logger

import (
	"io"
	"log"
	"os"

	"github.com/KONFeature/create2crunch/pkg/types"
)

// Log flags
const (
	LstdFlags     = log.LstdFlags
	Lmicroseconds = log.Lmicroseconds
)

// Logger wraps the standard log.Logger with additional functionality
type Logger struct {
	*log.Logger
}

// New creates a new logger
func New() *Logger {
	return &Logger{
		Logger: log.New(os.Stdout, "", log.LstdFlags),
	}
}

// NewWriter creates a new logger that writes to the provided writer
func NewWriter(w io.Writer) *Logger {
	return &Logger{
		Logger: log.New(w, "", log.LstdFlags),
	}
}

// SetOutput sets the output destination for the logger
func (l *Logger) SetOutput(w io.Writer) {
	l.Logger.SetOutput(w)
}

// SetFlags sets the output flags for the logger
func (l *Logger) SetFlags(flag int) {
	l.Logger.SetFlags(flag)
}

// Found reports a newly improving candidate. Both search engines wire
// this to the aggregator's onImprove callback.
func (l *Logger) Found(c types.Candidate) {
	l.Printf("found candidate: reward=%d leading=%d total=%d salt=%x", c.Reward, c.Leading, c.Total, c.Salt)
}

// Progress reports a running attempt count under label ("progress",
// "gpu progress", ...) plus the best candidate seen so far, or its
// absence, so the CPU and GPU engines' periodic tickers share one line
// shape.
func (l *Logger) Progress(label string, attempts int64, best *types.Candidate) {
	if best == nil {
		l.Printf("%s: %d attempts, no reportable candidate yet", label, attempts)
		return
	}
	l.Printf("%s: %d attempts, best reward=%d leading=%d total=%d", label, attempts, best.Reward, best.Leading, best.Total)
}
