package web

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sweeney/button-sensor/internal/logic"
	"github.com/sweeney/button-sensor/internal/status"
)

const testDiagram = "digraph fsm {\n}\n"

func newTestServer(t *testing.T, diagram string) (*httptest.Server, *status.Tracker) {
	t.Helper()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := status.Config{
		PollMs:      10,
		DebounceMs:  150,
		HeartbeatMs: 900000,
		ButtonID:    0,
		Chip:        "gpiochip0",
		Pin:         17,
		Broker:      "tcp://192.168.1.200:1883",
		HTTPPort:    ":80",
	}
	tr := status.NewTracker(start, cfg)
	srv := New(":0", tr, diagram)
	ts := httptest.NewServer(srv.httpServer.Handler)
	t.Cleanup(ts.Close)
	return ts, tr
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, string(body)
}

func TestJSONEndpoint(t *testing.T) {
	ts, tr := newTestServer(t, testDiagram)
	tr.Update("PRESSED", true, 0, logic.EventCounts{Down: 5, Press: 4, Up: 4})
	tr.SetMQTTConnected(true)

	resp, body := get(t, ts.URL+"/index.json")
	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q, want application/json", ct)
	}

	var sj status.StatusJSON
	if err := json.Unmarshal([]byte(body), &sj); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}

	if sj.Status.State != "PRESSED" {
		t.Errorf("State: got %q, want PRESSED", sj.Status.State)
	}
	if !sj.Status.Active {
		t.Error("expected active")
	}
	if !sj.Status.MQTT.Connected {
		t.Error("expected MQTT connected")
	}
	if sj.Status.Counts.Down != 5 || sj.Status.Counts.Press != 4 {
		t.Errorf("Counts: got %+v", sj.Status.Counts)
	}
	if sj.Status.Config.PollMs != 10 || sj.Status.Config.DebounceMs != 150 {
		t.Errorf("Config: got %+v", sj.Status.Config)
	}
	if sj.Status.Event != "" {
		t.Errorf("web JSON should have no event, got %q", sj.Status.Event)
	}
}

func TestJSONEndpointBeforeFirstPoll(t *testing.T) {
	ts, _ := newTestServer(t, testDiagram)

	_, body := get(t, ts.URL+"/index.json")
	var sj status.StatusJSON
	if err := json.Unmarshal([]byte(body), &sj); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}
	if sj.Status.State != "UNKNOWN" {
		t.Errorf("State: got %q, want UNKNOWN", sj.Status.State)
	}
}

func TestHTMLEndpoint(t *testing.T) {
	ts, tr := newTestServer(t, testDiagram)
	tr.Update("RELEASED", false, 151, logic.EventCounts{Down: 1, Press: 1, Up: 1})

	for _, path := range []string{"/", "/index.html"} {
		resp, body := get(t, ts.URL+path)
		if resp.StatusCode != 200 {
			t.Errorf("%s status: got %d, want 200", path, resp.StatusCode)
		}
		if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
			t.Errorf("%s Content-Type: got %q", path, ct)
		}
		for _, want := range []string{"Button Sensor", "RELEASED", "151ms", "gpiochip0/17", "tcp://192.168.1.200:1883"} {
			if !strings.Contains(body, want) {
				t.Errorf("%s: body missing %q", path, want)
			}
		}
	}
}

func TestHTMLLiveScriptOnlyWithWSBroker(t *testing.T) {
	ts, _ := newTestServer(t, testDiagram)
	_, body := get(t, ts.URL+"/")
	if strings.Contains(body, "mqtt.connect") {
		t.Error("live script should be absent without ws broker")
	}

	tr := status.NewTracker(time.Now(), status.Config{WSBroker: "ws://192.168.1.200:9001"})
	srv := New(":0", tr, "")
	ts2 := httptest.NewServer(srv.httpServer.Handler)
	defer ts2.Close()

	_, body = get(t, ts2.URL+"/")
	if !strings.Contains(body, "mqtt.connect") {
		t.Error("expected live script with ws broker")
	}
	if !strings.Contains(body, "home/button/sensor/events") {
		t.Error("expected events topic in live script")
	}
}

func TestDiagramEndpoint(t *testing.T) {
	ts, _ := newTestServer(t, testDiagram)

	resp, body := get(t, ts.URL+"/fsm.dot")
	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/vnd.graphviz") {
		t.Errorf("Content-Type: got %q", ct)
	}
	if body != testDiagram {
		t.Errorf("body: got %q, want %q", body, testDiagram)
	}
}

func TestDiagramEndpointDisabled(t *testing.T) {
	ts, _ := newTestServer(t, "")

	resp, _ := get(t, ts.URL+"/fsm.dot")
	if resp.StatusCode != 404 {
		t.Errorf("status: got %d, want 404", resp.StatusCode)
	}
}

func TestNotFound(t *testing.T) {
	ts, _ := newTestServer(t, testDiagram)

	for _, path := range []string{"/foo", "/index.xml", "/status"} {
		resp, _ := get(t, ts.URL+path)
		if resp.StatusCode != 404 {
			t.Errorf("%s: got %d, want 404", path, resp.StatusCode)
		}
	}
}

func TestStateChangesReflected(t *testing.T) {
	ts, tr := newTestServer(t, testDiagram)

	tr.Update("PRESSED", true, 0, logic.EventCounts{Down: 1})
	_, body := get(t, ts.URL+"/index.json")
	var first status.StatusJSON
	if err := json.Unmarshal([]byte(body), &first); err != nil {
		t.Fatalf("decode: %v", err)
	}

	tr.Update("RELEASED", false, 320, logic.EventCounts{Down: 1, Press: 1, Up: 1})
	_, body = get(t, ts.URL+"/index.json")
	var second status.StatusJSON
	if err := json.Unmarshal([]byte(body), &second); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if first.Status.State != "PRESSED" || second.Status.State != "RELEASED" {
		t.Errorf("states: got %q then %q", first.Status.State, second.Status.State)
	}
	if second.Status.LastDurationMs != 320 {
		t.Errorf("LastDurationMs: got %d, want 320", second.Status.LastDurationMs)
	}
}
