package types

// DataResponse is the generic success envelope for list endpoints.
type DataResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// Reference points the caller back at a chunk that supported the answer.
type Reference struct {
	Document string `json:"document"`
	Page     int    `json:"page"`
	ChunkID  int64  `json:"chunk_id"`
}

// QueryResponse is the successful result of one query. An empty store or a
// question with no relevant documentation is still a success: the answer is
// the designated no-documentation text and References is empty.
type QueryResponse struct {
	Answer     string      `json:"answer"`
	References []Reference `json:"references"`
}

// ErrorResponse is the structured error object returned by the query API.
type ErrorResponse struct {
	ErrorKind string `json:"error_kind"`
	Message   string `json:"message"`
}
