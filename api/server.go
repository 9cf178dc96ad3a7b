package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/matt-g-everett/ledrace/race"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 25 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Api serves the race plan and live frames to browsers.
type Api struct {
	addr   string
	static string
	plan   *race.Plan
	hub    *Hub
}

// NewApi creates an Api listening on addr. Files under static are served at
// "/" when static is not empty.
func NewApi(addr string, static string, plan *race.Plan, hub *Hub) *Api {
	a := new(Api)
	a.addr = addr
	a.static = static
	a.plan = plan
	a.hub = hub
	return a
}

// Handler routes the API. Websockets it opens stay open until the browser
// goes away; Serve also closes them when its context is done.
func (a *Api) Handler() http.Handler {
	return a.handler(nil)
}

func (a *Api) handler(done <-chan struct{}) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/plan", a.handlePlan)
	mux.HandleFunc("/api/frame", a.handleFrame)
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		a.handleWebsocket(w, r, done)
	})
	if a.static != "" {
		mux.Handle("/", http.FileServer(http.Dir(a.static)))
	}
	return mux
}

// Serve listens until ctx is done, then closes the server and every open
// websocket.
func (a *Api) Serve(ctx context.Context) error {
	server := &http.Server{Addr: a.addr, Handler: a.handler(ctx.Done())}

	go func() {
		<-ctx.Done()
		server.Close()
	}()

	log.Printf("Listening on %s...", a.addr)
	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("api: write response: %v", err)
	}
}

func (a *Api) handlePlan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "GET required", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, a.plan)
}

func (a *Api) handleFrame(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "GET required", http.StatusMethodNotAllowed)
		return
	}
	msg, ok := a.hub.Latest()
	if !ok {
		http.Error(w, "race not started", http.StatusNotFound)
		return
	}
	writeJSON(w, msg)
}

func (a *Api) handleWebsocket(w http.ResponseWriter, r *http.Request, shutdown <-chan struct{}) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("upgrade:", err)
		return
	}
	defer conn.Close()

	sub := a.hub.Subscribe()
	defer a.hub.Unsubscribe(sub)
	log.Printf("Browser connected (total: %d)", a.hub.SubscriberCount())

	planMsg, err := Encode(MsgPlan, a.plan)
	if err != nil {
		log.Println("encode plan:", err)
		return
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteMessage(websocket.TextMessage, planMsg); err != nil {
		return
	}

	// Browsers only read; this loop notices when they go away.
	done := make(chan struct{})
	conn.SetReadLimit(1 << 10)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-shutdown:
			// server.Close does not reach hijacked connections
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(writeWait))
			return
		case <-r.Context().Done():
			return
		case b := <-sub.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
				log.Println("write:", err)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
