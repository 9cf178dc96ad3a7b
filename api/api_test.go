package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/matt-g-everett/ledrace/race"
)

func testPlan(t *testing.T) *race.Plan {
	t.Helper()
	p, err := race.NewPlan([]race.Entity{{Name: "C", Duration: 0.5}, {Name: "Python", Duration: 74.42}}, 1, 60)
	if err != nil {
		t.Fatalf("NewPlan: %v", err)
	}
	return p
}

// decodeEnvelope and decodePayload read messages the way a browser does.
func decodeEnvelope(t *testing.T, b []byte) Envelope {
	t.Helper()
	var env Envelope
	if err := json.Unmarshal(b, &env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return env
}

func decodePayload[T any](t *testing.T, env Envelope) T {
	t.Helper()
	var out T
	if len(env.P) == 0 {
		t.Fatalf("empty payload for type %q", env.T)
	}
	if err := json.Unmarshal(env.P, &out); err != nil {
		t.Fatalf("decode %q payload: %v", env.T, err)
	}
	return out
}

func TestEncodeRejectsEmpty(t *testing.T) {
	if _, err := Encode("", FrameMessage{}); err == nil {
		t.Error("expected error for empty type")
	}
	if _, err := Encode(MsgFrame, nil); err == nil {
		t.Error("expected error for nil payload")
	}
}

func TestEncodeWrapsPayload(t *testing.T) {
	b, err := Encode(MsgFrame, FrameMessage{Frame: 3, States: []race.FrameState{{Position: 0.5, Counter: 7}}})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	env := decodeEnvelope(t, b)
	if env.T != MsgFrame {
		t.Fatalf("type = %q, want %q", env.T, MsgFrame)
	}
	msg := decodePayload[FrameMessage](t, env)
	if msg.Frame != 3 || len(msg.States) != 1 || msg.States[0].Counter != 7 {
		t.Errorf("frame = %+v", msg)
	}
}

func TestHubFansOutFrames(t *testing.T) {
	h := NewHub(testPlan(t))
	s1 := h.Subscribe()
	s2 := h.Subscribe()
	if h.SubscriberCount() != 2 {
		t.Fatalf("SubscriberCount = %d, want 2", h.SubscriberCount())
	}

	h.ObserveFrame(4464, []race.FrameState{{Counter: race.DefaultCeiling}, {Counter: race.DefaultCeiling}})

	for i, s := range []*Subscriber{s1, s2} {
		select {
		case b := <-s.C:
			env := decodeEnvelope(t, b)
			if env.T != MsgFrame {
				t.Fatalf("type = %q, want %q", env.T, MsgFrame)
			}
			msg := decodePayload[FrameMessage](t, env)
			if msg.Frame != 4464 || !msg.Finished || len(msg.States) != 2 {
				t.Errorf("subscriber %d got %+v", i, msg)
			}
		default:
			t.Fatalf("subscriber %d got nothing", i)
		}
	}

	h.Unsubscribe(s1)
	h.Unsubscribe(s1)
	if h.SubscriberCount() != 1 {
		t.Errorf("SubscriberCount = %d, want 1", h.SubscriberCount())
	}
}

func TestHubDropsFramesForSlowSubscribers(t *testing.T) {
	h := NewHub(testPlan(t))
	s := h.Subscribe()
	for i := 0; i < subscriberBuffer+10; i++ {
		h.ObserveFrame(i, []race.FrameState{{}, {}})
	}
	if len(s.C) != subscriberBuffer {
		t.Errorf("buffered %d frames, want %d", len(s.C), subscriberBuffer)
	}
	latest, ok := h.Latest()
	if !ok || latest.Frame != subscriberBuffer+9 {
		t.Errorf("Latest = %+v, %v", latest, ok)
	}
}

func TestPlanEndpoint(t *testing.T) {
	plan := testPlan(t)
	srv := httptest.NewServer(NewApi(":0", "", plan, NewHub(plan)).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/plan")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var got struct {
		Entities    []race.Entity `json:"entities"`
		TotalFrames int           `json:"totalFrames"`
		Mode        string        `json:"mode"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.TotalFrames != 4465 || len(got.Entities) != 2 || got.Mode != "synchronized" {
		t.Errorf("plan = %+v", got)
	}
}

func TestFrameEndpoint(t *testing.T) {
	plan := testPlan(t)
	hub := NewHub(plan)
	srv := httptest.NewServer(NewApi(":0", "", plan, hub).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/frame")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status before the race = %d, want 404", resp.StatusCode)
	}

	hub.ObserveFrame(30, plan.Frame(30))
	resp, err = http.Get(srv.URL + "/api/frame")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	var msg FrameMessage
	if err := json.NewDecoder(resp.Body).Decode(&msg); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if msg.Frame != 30 || msg.Finished || msg.States[0].Counter <= msg.States[1].Counter {
		t.Errorf("frame = %+v", msg)
	}
}

func TestEndpointsRequireGet(t *testing.T) {
	plan := testPlan(t)
	srv := httptest.NewServer(NewApi(":0", "", plan, NewHub(plan)).Handler())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/plan", "application/json", strings.NewReader("{}"))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", resp.StatusCode)
	}
}

func TestWebsocketStreamsPlanThenFrames(t *testing.T) {
	plan := testPlan(t)
	hub := NewHub(plan)
	srv := httptest.NewServer(NewApi(":0", "", plan, hub).Handler())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	_, b, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read plan: %v", err)
	}
	if env := decodeEnvelope(t, b); env.T != MsgPlan {
		t.Fatalf("first message = %q, want %q", env.T, MsgPlan)
	}

	// The plan is written after subscribing, so this frame cannot be missed.
	hub.ObserveFrame(0, plan.Frame(0))

	_, b, err = conn.ReadMessage()
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}
	env := decodeEnvelope(t, b)
	if env.T != MsgFrame {
		t.Fatalf("second message = %q, want %q", env.T, MsgFrame)
	}
	msg := decodePayload[FrameMessage](t, env)
	if msg.Frame != 0 || len(msg.States) != 2 {
		t.Errorf("frame = %+v", msg)
	}
}

func TestWebsocketClosedOnShutdown(t *testing.T) {
	plan := testPlan(t)
	hub := NewHub(plan)
	shutdown := make(chan struct{})
	srv := httptest.NewServer(NewApi(":0", "", plan, hub).handler(shutdown))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	if _, _, err := conn.ReadMessage(); err != nil {
		t.Fatalf("read plan: %v", err)
	}

	close(shutdown)
	_, _, err = conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseGoingAway) {
		t.Fatalf("err = %v, want a going-away close", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for hub.SubscriberCount() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("subscriber still registered after shutdown")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
