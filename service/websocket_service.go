package service

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/caovinh/manual-rag-be/types"
)

// WebSocketService serves questions over a websocket so a client can keep
// one connection open for a whole session. Each inbound query frame gets
// exactly one answer or error frame back.
type WebSocketService struct {
	query    *QueryService
	upgrader websocket.Upgrader
}

func NewWebSocketService(query *QueryService) *WebSocketService {
	return &WebSocketService{
		query: query,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins (adjust for production)
			},
		},
	}
}

func (s *WebSocketService) HandleQuery(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("Upgrade error:", err)
		return
	}
	defer conn.Close()

	conn.SetReadLimit(64 * 1024)
	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("WebSocket read error: %v", err)
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))

		var req types.WebsocketRequest
		if err := json.Unmarshal(payload, &req); err != nil {
			s.writeError(conn, types.ErrorKindBadRequest, "invalid request frame")
			continue
		}

		switch req.Type {
		case types.TypeWebsocketPing:
			conn.WriteJSON(types.WebsocketResponse{Type: types.TypeWebsocketPong})
		case types.TypeWebsocketQuery:
			if req.Question == "" {
				s.writeError(conn, types.ErrorKindBadRequest, "question is required")
				continue
			}
			resp, err := s.query.Answer(r.Context(), req.Question)
			if err != nil {
				var qerr *types.QueryError
				if errors.As(err, &qerr) {
					s.writeError(conn, qerr.Kind, qerr.Message)
				} else {
					s.writeError(conn, types.ErrorKindGeneration, err.Error())
				}
				continue
			}
			conn.WriteJSON(types.WebsocketResponse{
				Type:   types.TypeWebsocketAnswer,
				Answer: resp,
			})
		default:
			s.writeError(conn, types.ErrorKindBadRequest, "unknown frame type "+req.Type)
		}
	}
}

func (s *WebSocketService) writeError(conn *websocket.Conn, kind, message string) {
	conn.WriteJSON(types.WebsocketResponse{
		Type:  types.TypeWebsocketError,
		Error: &types.ErrorResponse{ErrorKind: kind, Message: message},
	})
}
