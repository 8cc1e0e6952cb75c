package services

import (
	"context"
	"encoding/json"

	"github.com/mshogin/fastslow/internal/domain/models"
	"github.com/mshogin/fastslow/internal/domain/services/switching"
)

// Event types emitted by a streamed solve.
const (
	EventState    = "state"
	EventSolution = "solution"
	EventError    = "error"
	EventDone     = "done"
)

// StreamEvent represents an event in a streamed solve.
// Events are sent from the solve service to the HTTP handler for SSE streaming.
type StreamEvent struct {
	Type string      `json:"type"` // "state", "solution", "error", "done"
	Data interface{} `json:"data"`
}

// NewStateEvent creates an event for a switcher state change.
func NewStateEvent(state switching.SwitchState) *StreamEvent {
	return &StreamEvent{
		Type: EventState,
		Data: map[string]string{
			"state": string(state),
		},
	}
}

// NewSolutionEvent creates the event carrying the final result.
func NewSolutionEvent(resp *models.SolveResponse) *StreamEvent {
	return &StreamEvent{
		Type: EventSolution,
		Data: resp,
	}
}

// NewErrorEvent creates an error event.
func NewErrorEvent(message string) *StreamEvent {
	return &StreamEvent{
		Type: EventError,
		Data: map[string]string{
			"message": message,
		},
	}
}

// NewDoneEvent creates a done event (signals end of stream).
func NewDoneEvent() *StreamEvent {
	return &StreamEvent{
		Type: EventDone,
		Data: map[string]string{
			"status": "complete",
		},
	}
}

// ToJSON converts the event to JSON string.
func (e *StreamEvent) ToJSON() (string, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ToSSE formats the event as a Server-Sent Event.
func (e *StreamEvent) ToSSE() (string, error) {
	jsonData, err := e.ToJSON()
	if err != nil {
		return "", err
	}
	return "event: " + e.Type + "\ndata: " + jsonData + "\n\n", nil
}

type sinkKey struct{}

// eventSink receives the events of one streamed solve.
type eventSink func(*StreamEvent)

func withEventSink(ctx context.Context, sink eventSink) context.Context {
	return context.WithValue(ctx, sinkKey{}, sink)
}

func eventSinkFrom(ctx context.Context) eventSink {
	sink, _ := ctx.Value(sinkKey{}).(eventSink)
	return sink
}
