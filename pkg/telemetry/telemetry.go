// Package telemetry implements the engine's append-only JSONL diagnostic
// stream: compile and evaluation diagnostics are structured events written
// directly to an io.Writer, not routed through a logging library.
package telemetry

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/ormasoftchile/formengine/pkg/ir"
)

// EventType enumerates every diagnostic event this engine emits.
type EventType string

const (
	EventCompileStart    EventType = "compile_start"
	EventCompileComplete EventType = "compile_complete"
	EventNodeInvoked     EventType = "node_invoked"
	EventNodeCached      EventType = "node_cached"
	EventNodeError       EventType = "node_error"
	EventRuntimeNodes    EventType = "runtime_nodes_registered"
	EventEvaluateStart   EventType = "evaluate_start"
	EventEvaluateComplete EventType = "evaluate_complete"
)

// Event is a single line of the JSONL stream.
type Event struct {
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	RequestID string         `json:"request_id"`
	Data      map[string]any `json:"data,omitempty"`
}

// Writer appends Events to a JSONL stream, one request's worth of
// diagnostics at a time.
type Writer struct {
	mu        sync.Mutex
	w         io.Writer
	requestID string
	enc       *json.Encoder
}

// NewWriter returns a Writer appending to w, tagging every event with
// requestID.
func NewWriter(w io.Writer, requestID string) *Writer {
	return &Writer{w: w, requestID: requestID, enc: json.NewEncoder(w)}
}

// NewFileWriter opens (or creates) path for append and returns a Writer
// over it.
func NewFileWriter(path, requestID string) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open telemetry file: %w", err)
	}
	return NewWriter(f, requestID), nil
}

// Emit writes one event.
func (w *Writer) Emit(t EventType, data map[string]any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.enc.Encode(Event{Type: t, Timestamp: time.Now().UTC(), RequestID: w.requestID, Data: data})
}

// EmitCompileStart emits a compile_start event.
func (w *Writer) EmitCompileStart(stepID ir.NodeID) error {
	return w.Emit(EventCompileStart, map[string]any{"step_id": stepID})
}

// EmitCompileComplete emits a compile_complete event summarizing the
// compiled artefact's size.
func (w *Writer) EmitCompileComplete(stepID ir.NodeID, nodeCount, handlerCount int, duration time.Duration) error {
	return w.Emit(EventCompileComplete, map[string]any{
		"step_id":       stepID,
		"node_count":    nodeCount,
		"handler_count": handlerCount,
		"duration":      duration.String(),
	})
}

// EmitNodeInvoked emits a node_invoked event.
func (w *Writer) EmitNodeInvoked(id ir.NodeID, kind ir.Kind, duration time.Duration) error {
	return w.Emit(EventNodeInvoked, map[string]any{
		"node_id":  id,
		"kind":     string(kind),
		"duration": duration.String(),
	})
}

// EmitNodeCached emits a node_cached event (a pseudo-node P5 cache hit).
func (w *Writer) EmitNodeCached(id ir.NodeID) error {
	return w.Emit(EventNodeCached, map[string]any{"node_id": id})
}

// EmitNodeError emits a node_error event.
func (w *Writer) EmitNodeError(id ir.NodeID, kind string, message string) error {
	return w.Emit(EventNodeError, map[string]any{"node_id": id, "error_kind": kind, "message": message})
}

// EmitRuntimeNodes emits a runtime_nodes_registered event — one per
// Iterate batch, the only place evaluation grows the registry.
func (w *Writer) EmitRuntimeNodes(parent ir.NodeID, property string, count int) error {
	return w.Emit(EventRuntimeNodes, map[string]any{"parent": parent, "property": property, "count": count})
}

// EmitEvaluateStart emits an evaluate_start event.
func (w *Writer) EmitEvaluateStart(stepID ir.NodeID, method string) error {
	return w.Emit(EventEvaluateStart, map[string]any{"step_id": stepID, "method": method})
}

// EmitEvaluateComplete emits an evaluate_complete event.
func (w *Writer) EmitEvaluateComplete(stepID ir.NodeID, duration time.Duration, errKind string) error {
	data := map[string]any{"step_id": stepID, "duration": duration.String()}
	if errKind != "" {
		data["error_kind"] = errKind
	}
	return w.Emit(EventEvaluateComplete, data)
}
