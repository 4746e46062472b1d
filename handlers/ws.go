package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"pilot_server/actions"
	"pilot_server/agent"
	"pilot_server/llm"
	"pilot_server/tracing"
)

// Deps holds shared dependencies injected into handlers.
type Deps struct {
	Registry *agent.Registry
	Model    llm.Client
	Traces   *tracing.Store

	// InferTimeout bounds a single model call. Zero means no timeout.
	InferTimeout time.Duration
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1 << 20, // screenshots arrive inline
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// RegisterRoutes registers the agent channel and trace routes.
func RegisterRoutes(mux *http.ServeMux, deps *Deps) {
	if deps.Traces == nil {
		deps.Traces = tracing.NewStore(1000)
	}
	h := &agentHandler{deps: deps}
	mux.HandleFunc("/ws/agent/", h.serveAgent)
	mux.HandleFunc("/traces", h.listTraces)
	mux.HandleFunc("/traces/", h.getTrace)
}

type agentHandler struct {
	deps *Deps
}

// serveAgent owns one client connection for its whole lifetime: open a
// session in the registry, run the request/response loop, and guarantee
// registry cleanup on every exit path.
func (h *agentHandler) serveAgent(w http.ResponseWriter, r *http.Request) {
	clientID := strings.TrimPrefix(r.URL.Path, "/ws/agent/")
	if clientID == "" || strings.Contains(clientID, "/") {
		http.Error(w, "Missing client id", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[%s] upgrade failed: %v", clientID, err)
		return
	}

	session, err := h.deps.Registry.Open(clientID, conn)
	if err != nil {
		// Duplicate client id: refuse this connection, keep the prior one.
		conn.WriteJSON(errorResponse{Status: "error", Message: err.Error()})
		conn.Close()
		return
	}
	defer h.deps.Registry.Close(clientID)
	defer conn.Close()

	log.Printf("Client connected: %s", clientID)

	for {
		var msg clientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("[%s] read error: %v", clientID, err)
			}
			log.Printf("Client disconnected: %s", clientID)
			return
		}
		h.process(conn, session, msg)
	}
}

// process handles one validated-or-not message. Validation failures reply
// with an error status and leave the session untouched; the loop keeps
// waiting for the next message.
func (h *agentHandler) process(conn *websocket.Conn, session *agent.Session, msg clientMessage) {
	screenInfo := msg.ScreenInfo
	if screenInfo == "" {
		screenInfo = defaultScreenInfo
	}

	switch msg.Type {
	case "init":
		if msg.Screenshot == "" {
			h.writeError(conn, session, "Missing screenshot")
			return
		}
		if msg.Task == "" {
			h.writeError(conn, session, "Missing task for init")
			return
		}
		if err := session.Init(msg.Task, screenInfo, msg.Screenshot); err != nil {
			h.writeError(conn, session, err.Error())
			return
		}
		log.Printf("[%s] Task initialized: %s", session.ClientID(), msg.Task)

	case "step":
		if msg.Screenshot == "" {
			h.writeError(conn, session, "Missing screenshot")
			return
		}
		if err := session.Advance(screenInfo, msg.Screenshot); err != nil {
			if errors.Is(err, agent.ErrNotInitialized) {
				h.writeError(conn, session, "Session not initialized: send init first")
				return
			}
			h.writeError(conn, session, err.Error())
			return
		}
		log.Printf("[%s] Processing step %d", session.ClientID(), session.Step())

	default:
		h.writeError(conn, session, "Unknown message type: "+msg.Type)
		return
	}

	trace := tracing.NewStepTrace(session.ClientID(), msg.Type)
	trace.Step = session.Step()

	// Model inference. On failure the session keeps its pending user
	// message; the client's next step carries it forward unanswered.
	ctx := context.Background()
	if h.deps.InferTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.deps.InferTimeout)
		defer cancel()
	}
	resp, err := h.deps.Model.Call(ctx, session.Context())
	if err != nil {
		trace.Finish(err)
		h.deps.Traces.Put(trace)
		h.writeError(conn, session, "Model inference failed: "+err.Error())
		return
	}

	// A non-parsing action most commonly means the model declared the task
	// done in free text, so it becomes a finish result, not an error.
	var payload map[string]any
	finished := false
	if act, err := actions.Parse(resp.Action); err != nil {
		payload = actions.FinishPayload(resp.Action)
		finished = true
		trace.Action = actions.CallFinish
	} else {
		payload = act.Payload()
		finished = act.Finish()
		trace.Action = act.Name
	}

	session.RecordAssistant(resp.Thinking, resp.Action)

	trace.Finish(nil)
	h.deps.Traces.Put(trace)

	out := stepResponse{
		Status:      "success",
		Step:        session.Step(),
		Thinking:    resp.Thinking,
		Action:      payload,
		RawResponse: resp.Action,
		Finished:    finished,
	}
	if err := conn.WriteJSON(out); err != nil {
		// Peer is gone; the read loop will observe the close next.
		log.Printf("[%s] write failed: %v", session.ClientID(), err)
		return
	}
	if finished {
		log.Printf("[%s] Task finished.", session.ClientID())
	}
}

// writeError reports a recoverable failure. Send errors are swallowed: if
// the peer is gone the read loop exits on the next receive.
func (h *agentHandler) writeError(conn *websocket.Conn, session *agent.Session, msg string) {
	if err := conn.WriteJSON(errorResponse{Status: "error", Message: msg}); err != nil {
		log.Printf("[%s] write failed: %v", session.ClientID(), err)
	}
}

// --- Trace inspection -----------------------------------------------------

func (h *agentHandler) listTraces(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	writeJSON(w, http.StatusOK, h.deps.Traces.List(limit))
}

func (h *agentHandler) getTrace(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/traces/")
	t := h.deps.Traces.Get(id)
	if t == nil {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
