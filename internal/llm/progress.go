package llm

import (
	"fmt"
	"io"
)

// ProgressEvent represents a single progress update during grading.
type ProgressEvent struct {
	Type    string `json:"type"`              // "stage", "info", "done", "error"
	Stage   string `json:"stage,omitempty"`   // pipeline stage name
	Message string `json:"message,omitempty"` // human-readable message
}

// ProgressEmitter receives progress events as the grading pipeline runs.
type ProgressEmitter interface {
	Emit(event ProgressEvent)
}

// TextEmitter formats progress events as human-readable text for CLI output.
type TextEmitter struct {
	W io.Writer
}

// Emit writes a formatted progress line to the underlying writer.
func (e *TextEmitter) Emit(ev ProgressEvent) {
	switch ev.Type {
	case "stage":
		fmt.Fprintf(e.W, "[%s] %s\n", ev.Stage, ev.Message)
	case "info":
		fmt.Fprintf(e.W, "  %s\n", ev.Message)
	case "error":
		fmt.Fprintf(e.W, "Error: %s\n", ev.Message)
	}
}

// NopEmitter discards all progress events.
type NopEmitter struct{}

func (NopEmitter) Emit(ProgressEvent) {}
