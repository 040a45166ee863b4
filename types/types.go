package types

// Message represents a single message in a model conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Websocket frame types for the streaming query endpoint.
const (
	TypeWebsocketPing   = "ping"
	TypeWebsocketPong   = "pong"
	TypeWebsocketQuery  = "query"
	TypeWebsocketAnswer = "answer"
	TypeWebsocketError  = "error"
)

// WebsocketRequest is one inbound frame on the websocket query endpoint.
type WebsocketRequest struct {
	Type     string `json:"type"`
	Question string `json:"question,omitempty"`
}

// WebsocketResponse is one outbound frame on the websocket query endpoint.
type WebsocketResponse struct {
	Type   string         `json:"type"`
	Answer *QueryResponse `json:"answer,omitempty"`
	Error  *ErrorResponse `json:"error,omitempty"`
}
