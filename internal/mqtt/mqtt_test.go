package mqtt

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/sweeney/button-sensor/internal/logic"
)

func TestFormatPayload(t *testing.T) {
	event := logic.Event{
		Timestamp:  time.Date(2026, 2, 2, 22, 18, 12, 0, time.UTC),
		Type:       logic.EventPress,
		ButtonID:   2,
		State:      "RELEASED_WAIT",
		DurationMs: 151,
	}

	payload, err := FormatPayload(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var parsed Payload
	if err := json.Unmarshal(payload, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if parsed.Button.Timestamp != "2026-02-02T22:18:12Z" {
		t.Errorf("unexpected timestamp: %s", parsed.Button.Timestamp)
	}
	if parsed.Button.Event != "BUTTON_PRESS" {
		t.Errorf("unexpected event: %s", parsed.Button.Event)
	}
	if parsed.Button.ID != 2 {
		t.Errorf("unexpected id: %d", parsed.Button.ID)
	}
	if parsed.Button.State != "RELEASED_WAIT" {
		t.Errorf("unexpected state: %s", parsed.Button.State)
	}
	if parsed.Button.DurationMs != 151 {
		t.Errorf("unexpected duration: %d", parsed.Button.DurationMs)
	}
}

func TestFormatPayloadExactJSON(t *testing.T) {
	tests := []struct {
		name  string
		event logic.Event
		want  string
	}{
		{
			name: "down",
			event: logic.Event{
				Timestamp: time.Date(2026, 2, 2, 22, 18, 12, 0, time.UTC),
				Type:      logic.EventDown,
				State:     "PRESSED",
			},
			want: `{"button":{"timestamp":"2026-02-02T22:18:12Z","event":"BUTTON_DOWN","id":0,"state":"PRESSED"}}`,
		},
		{
			name: "press",
			event: logic.Event{
				Timestamp:  time.Date(2026, 2, 2, 22, 18, 12, 0, time.UTC),
				Type:       logic.EventPress,
				State:      "RELEASED_WAIT",
				DurationMs: 151,
			},
			want: `{"button":{"timestamp":"2026-02-02T22:18:12Z","event":"BUTTON_PRESS","id":0,"state":"RELEASED_WAIT","duration_ms":151}}`,
		},
		{
			name: "up",
			event: logic.Event{
				Timestamp: time.Date(2026, 2, 2, 22, 18, 12, 0, time.UTC),
				Type:      logic.EventUp,
				ButtonID:  1,
				State:     "RELEASED",
			},
			want: `{"button":{"timestamp":"2026-02-02T22:18:12Z","event":"BUTTON_UP","id":1,"state":"RELEASED"}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, err := FormatPayload(tt.event)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(payload) != tt.want {
				t.Errorf("unexpected payload:\ngot:  %s\nwant: %s", payload, tt.want)
			}
		})
	}
}

func TestFormatPayloadTimezoneConversion(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	event := logic.Event{
		Timestamp: time.Date(2026, 2, 2, 23, 0, 0, 0, loc),
		Type:      logic.EventDown,
	}

	payload, err := FormatPayload(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var parsed Payload
	if err := json.Unmarshal(payload, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if parsed.Button.Timestamp != "2026-02-02T22:00:00Z" {
		t.Errorf("expected UTC timestamp, got %s", parsed.Button.Timestamp)
	}
}

func TestTopic(t *testing.T) {
	if Topic != "home/button/sensor/events" {
		t.Errorf("unexpected topic: %s", Topic)
	}
}

func TestTopicSystem(t *testing.T) {
	if TopicSystem != "home/button/sensor/system" {
		t.Errorf("unexpected system topic: %s", TopicSystem)
	}
}

func TestFormatSystemPayloadExactJSON(t *testing.T) {
	event := SystemEvent{
		Timestamp: time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC),
		Event:     "SHUTDOWN",
		Reason:    "SIGTERM",
	}

	payload, err := FormatSystemPayload(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := `{"system":{"timestamp":"2026-02-03T10:00:00Z","event":"SHUTDOWN","reason":"SIGTERM"}}`
	if string(payload) != expected {
		t.Errorf("unexpected payload:\ngot:  %s\nwant: %s", payload, expected)
	}
}

func TestFormatSystemPayloadOmitsEmptyReason(t *testing.T) {
	event := SystemEvent{
		Timestamp: time.Date(2026, 2, 10, 14, 30, 0, 0, time.UTC),
		Event:     "RECONNECTED",
	}

	payload, err := FormatSystemPayload(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := `{"system":{"timestamp":"2026-02-10T14:30:00Z","event":"RECONNECTED"}}`
	if string(payload) != expected {
		t.Errorf("unexpected payload:\ngot:  %s\nwant: %s", payload, expected)
	}
}

func TestFormatSystemPayloadRawPassthrough(t *testing.T) {
	raw := []byte(`{"status":{"event":"HEARTBEAT"}}`)
	event := SystemEvent{
		Timestamp:  time.Now(),
		Event:      "HEARTBEAT",
		RawPayload: raw,
	}

	payload, err := FormatSystemPayload(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(payload) != string(raw) {
		t.Errorf("expected raw payload passthrough, got %s", payload)
	}
}

func TestWillPayloadFormat(t *testing.T) {
	event := SystemEvent{
		Timestamp: time.Date(2026, 2, 10, 8, 30, 0, 0, time.UTC),
		Event:     "SHUTDOWN",
		Reason:    "MQTT_DISCONNECT",
	}

	payload, err := FormatSystemPayload(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := `{"system":{"timestamp":"2026-02-10T08:30:00Z","event":"SHUTDOWN","reason":"MQTT_DISCONNECT"}}`
	if string(payload) != expected {
		t.Errorf("unexpected payload:\ngot:  %s\nwant: %s", payload, expected)
	}
}

func TestFakePublisher(t *testing.T) {
	f := NewFakePublisher()

	event := logic.Event{
		Timestamp: time.Now(),
		Type:      logic.EventDown,
		State:     "PRESSED",
	}

	if err := f.Publish(event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(f.Events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(f.Events))
	}
	if f.Events[0].Type != logic.EventDown {
		t.Errorf("unexpected event type: %s", f.Events[0].Type)
	}
	if len(f.Payloads) != 1 {
		t.Fatalf("expected 1 payload, got %d", len(f.Payloads))
	}
}

func TestFakePublisherError(t *testing.T) {
	f := NewFakePublisher()
	f.PublishError = errors.New("simulated error")

	err := f.Publish(logic.Event{Type: logic.EventDown})
	if err == nil {
		t.Error("expected error")
	}
	if len(f.Events) != 0 {
		t.Errorf("expected no events recorded on error, got %d", len(f.Events))
	}
}

func TestFakePublisherPublishSystem(t *testing.T) {
	f := NewFakePublisher()

	event := SystemEvent{
		Timestamp: time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC),
		Event:     "SHUTDOWN",
		Reason:    "SIGINT",
		Retained:  true,
	}
	if err := f.PublishSystem(event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(f.SystemEvents) != 1 || len(f.SystemPayloads) != 1 {
		t.Fatalf("expected 1 system event and payload, got %d/%d", len(f.SystemEvents), len(f.SystemPayloads))
	}
	if !f.SystemEvents[0].Retained {
		t.Error("expected retained flag to be recorded")
	}

	f.PublishSystemError = errors.New("boom")
	if err := f.PublishSystem(event); err == nil {
		t.Error("expected system publish error")
	}
}

func TestFakePublisherHelpers(t *testing.T) {
	f := NewFakePublisher()
	f.Publish(logic.Event{Type: logic.EventDown})
	f.Publish(logic.Event{Type: logic.EventPress, DurationMs: 10})
	f.Publish(logic.Event{Type: logic.EventUp})
	f.Publish(logic.Event{Type: logic.EventDown})
	f.PublishSystem(SystemEvent{Event: "STARTUP"})
	f.PublishSystem(SystemEvent{Event: "SHUTDOWN"})

	if got := len(f.EventsOfType(logic.EventDown)); got != 2 {
		t.Errorf("expected 2 BUTTON_DOWN, got %d", got)
	}
	if got := f.EventsOfType(logic.EventPress); len(got) != 1 || got[0].DurationMs != 10 {
		t.Errorf("unexpected BUTTON_PRESS events: %+v", got)
	}

	names := f.SystemEventNames()
	if len(names) != 2 || names[0] != "STARTUP" || names[1] != "SHUTDOWN" {
		t.Errorf("unexpected system event names: %v", names)
	}
}

func TestFakePublisherReset(t *testing.T) {
	f := NewFakePublisher()
	f.Publish(logic.Event{Type: logic.EventDown})
	f.PublishSystem(SystemEvent{Event: "STARTUP"})
	f.Close()
	f.Connected = true
	f.PublishError = errors.New("x")

	f.Reset()

	if len(f.Events) != 0 || len(f.Payloads) != 0 || len(f.SystemEvents) != 0 || len(f.SystemPayloads) != 0 {
		t.Error("expected recorded events cleared")
	}
	if f.Closed || f.Connected || f.PublishError != nil {
		t.Error("expected flags and errors cleared")
	}

	if err := f.Publish(logic.Event{Type: logic.EventUp}); err != nil {
		t.Errorf("publisher not reusable after reset: %v", err)
	}
}
