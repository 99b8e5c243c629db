package http

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/Seashocker17/quiz-arena/internal/app"
	"github.com/Seashocker17/quiz-arena/internal/domain"
)

// WSHandler upgrades clients onto the push channel. A connection is either a
// player (joins the roster) or the host (observes and drives start).
type WSHandler struct {
	service  *app.GameService
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.GameService, log zerolog.Logger) *WSHandler {
	return &WSHandler{
		service: service,
		log:     log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	OptionIndex *int `json:"optionIndex"` // null = explicit pass
}

type joinedPayload struct {
	PlayerID string             `json:"playerId"`
	View     domain.SessionView `json:"view"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS attaches a connection to a session. Players pass name and avatar
// params and join the lobby; the host passes hostId and only observes. Both
// receive the snapshot stream, starting with the current state.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	code := query.Get("code")
	name := query.Get("name")
	hostID := query.Get("hostId")
	if code == "" || (name == "" && hostID == "") {
		http.Error(w, "missing code and one of name or hostId", http.StatusBadRequest)
		return
	}

	var avatar domain.Avatar
	if name != "" {
		avatar = domain.Avatar{
			Style: domain.AvatarStyle(query.Get("avatarStyle")),
			Seed:  query.Get("avatarSeed"),
			Color: query.Get("avatarColor"),
		}
		if avatar.Style == "" {
			avatar.Style = domain.AvatarIdenticon
		}
		if !avatar.Style.Valid() {
			http.Error(w, "unknown avatar style", http.StatusBadRequest)
			return
		}
		if avatar.Seed == "" {
			avatar.Seed = name
		}
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("ws upgrade failed")
		return
	}
	defer conn.Close()

	var playerID string
	if name != "" {
		id, joined, err := h.service.Join(code, name, avatar)
		if err != nil {
			_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
			return
		}
		playerID = id
		defer h.service.Leave(code, playerID)
		_ = conn.WriteJSON(outboundMessage[joinedPayload]{Type: "joined", Payload: joinedPayload{PlayerID: id, View: joined}})
	}

	updates, cancel, err := h.service.Subscribe(code)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				h.log.Debug().Err(err).Msg("ws write error")
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "snapshot", Payload: update}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "start":
			if hostID == "" {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: domain.ErrForbidden.Error()}}
				continue
			}
			if err := h.service.Start(code, hostID); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
			}
		case "answer":
			if playerID == "" {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: domain.ErrPlayerNotFound.Error()}}
				continue
			}
			var payload answerPayload
			if len(inbound.Payload) > 0 {
				if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
					send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid answer payload"}}
					continue
				}
			}
			if err := h.service.SubmitAnswer(code, playerID, payload.OptionIndex); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
			}
		case "leave":
			if playerID != "" {
				h.service.Leave(code, playerID)
			}
		default:
			send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}
