package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"similarity-lab/db"
	"similarity-lab/ranker"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins
	},
}

const readTimeout = 60 * time.Second

/*
wsResponse is sent for every message. Connection echoes the id assigned to
the socket so clients can correlate server logs.
*/
type wsResponse struct {
	Type       string                `json:"type,omitempty"`
	Connection string                `json:"connection"`
	Status     string                `json:"status,omitempty"`
	Results    []ranker.ScoredResult `json:"results,omitempty"`
	Error      string                `json:"error,omitempty"`
}

/*
handleWebSocket serves JSON messages of type "search", "add_vector" and
"rank" until the client disconnects or stays silent past the read timeout
*/
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warnf("WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	id := uuid.NewString()
	log.Debugf("WebSocket %s connected from %s", id, r.RemoteAddr)
	defer log.Debugf("WebSocket %s closed", id)

	conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})

	for {
		_, p, err := conn.ReadMessage()
		if err != nil {
			return
		}
		conn.SetReadDeadline(time.Now().Add(readTimeout))

		response := s.handleMessage(r.Context(), p)
		response.Connection = id
		if err := conn.WriteJSON(response); err != nil {
			log.Warnf("WebSocket %s write failed: %v", id, err)
			return
		}
	}
}

func (s *Server) handleMessage(ctx context.Context, p []byte) wsResponse {
	if !gjson.ValidBytes(p) {
		return wsResponse{Error: "invalid JSON"}
	}
	msg := gjson.ParseBytes(p)
	kind := msg.Get("type").String()

	switch kind {
	case "search":
		results, err := s.searchCollection(ctx, msg.Get("collection").String(), searchFrom(msg))
		if err != nil {
			return wsResponse{Type: kind, Error: err.Error()}
		}
		return wsResponse{Type: kind, Results: results}

	case "add_vector":
		vector := db.Vector{
			ID:   msg.Get("id").String(),
			Data: floatsOf(msg.Get("data")),
		}
		if meta := msg.Get("meta"); meta.Exists() {
			if err := json.Unmarshal([]byte(meta.Raw), &vector.Meta); err != nil {
				return wsResponse{Type: kind, Error: "invalid meta: " + err.Error()}
			}
		}
		if err := s.services.Manager.AddVector(msg.Get("collection").String(), vector); err != nil {
			return wsResponse{Type: kind, Error: err.Error()}
		}
		return wsResponse{Type: kind, Status: "success"}

	case "rank":
		req := searchFrom(msg)
		if c := msg.Get("candidates"); c.Exists() {
			if err := json.Unmarshal([]byte(c.Raw), &req.Candidates); err != nil {
				return wsResponse{Type: kind, Error: "invalid candidates: " + err.Error()}
			}
		}
		results, err := rankRequest(req)
		if err != nil {
			return wsResponse{Type: kind, Error: err.Error()}
		}
		return wsResponse{Type: kind, Results: results}

	default:
		return wsResponse{Type: kind, Error: "unknown message type"}
	}
}

// searchFrom reads the fields shared by "search" and "rank" messages.
func searchFrom(msg gjson.Result) searchRequest {
	req := searchRequest{
		Query:          floatsOf(msg.Get("query")),
		K:              int(msg.Get("k").Int()),
		Metric:         msg.Get("metric").String(),
		Category:       msg.Get("category").String(),
		RequireResults: msg.Get("require_results").Bool(),
	}
	for _, id := range msg.Get("exclude").Array() {
		req.Exclude = append(req.Exclude, id.String())
	}
	return req
}

func floatsOf(r gjson.Result) []float32 {
	values := r.Array()
	out := make([]float32, len(values))
	for i, v := range values {
		out[i] = float32(v.Float())
	}
	return out
}
