// Package logger wraps charm/log for structured logging.
package logger

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// Logger wraps charm/log for structured logging
type Logger struct {
	*log.Logger
}

// New creates a new logger with the given output
func New(w io.Writer) *Logger {
	l := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.DateTime,
	})
	return &Logger{Logger: l}
}

// NewWithLevel creates a logger with a specific level
func NewWithLevel(w io.Writer, level log.Level) *Logger {
	l := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.DateTime,
		Level:           level,
	})
	return &Logger{Logger: l}
}

// Discard returns a logger that discards all output
func Discard() *Logger {
	return New(io.Discard)
}

// ConversionStarted logs the start of a document conversion
func (l *Logger) ConversionStarted(source string) {
	l.Debug("conversion started", "source", source)
}

// ConversionCompleted logs the completion of a document conversion
func (l *Logger) ConversionCompleted(source string, blocks int, duration time.Duration) {
	l.Info("conversion completed",
		"source", source,
		"blocks", blocks,
		"duration", duration.Round(time.Millisecond))
}

// PageUploaded logs a successful page upload
func (l *Logger) PageUploaded(pageID, title string) {
	l.Info("page uploaded",
		"page_id", pageID,
		"title", title)
}

// AttachmentUploaded logs a successful attachment upload
func (l *Logger) AttachmentUploaded(pageID, filename, fileID string) {
	l.Info("attachment uploaded",
		"page_id", pageID,
		"file", filename,
		"file_id", fileID)
}

// PageDownloaded logs a successful page download
func (l *Logger) PageDownloaded(pageID, title, dest string) {
	l.Info("page downloaded",
		"page_id", pageID,
		"title", title,
		"dest", dest)
}

// FileError logs an error for a specific file
func (l *Logger) FileError(file string, err error) {
	l.Error("file error",
		"file", file,
		"error", err)
}
