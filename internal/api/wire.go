package api

// StatusAvailable is the readiness string the backend reports for a chat
// mode that is up and serving. Anything else ("No PDF loaded", "Error: ...")
// means that mode is not ready.
const StatusAvailable = "Available"

// StatusPayload is the GET /status response.
type StatusPayload struct {
	GeneralChat string `json:"general_chat"`
	PDFChat     string `json:"pdf_chat"`
	PDFLoaded   bool   `json:"pdf_loaded"`
}

// GeneralReady reports whether open-domain chat is serving.
func (s StatusPayload) GeneralReady() bool { return s.GeneralChat == StatusAvailable }

// DocumentReady reports whether document chat is serving.
func (s StatusPayload) DocumentReady() bool { return s.PDFChat == StatusAvailable }

// HistoryItem is one prior conversation line sent along with a general chat
// request so the backend can answer in context.
type HistoryItem struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatReply is the response body of both chat endpoints.
type ChatReply struct {
	Response string   `json:"response"`
	Sources  []string `json:"sources,omitempty"`
}

// UploadAck is the acknowledgment body of upload and document-clear calls.
type UploadAck struct {
	Message string `json:"message"`
}

// HealthPayload is the GET /health response.
type HealthPayload struct {
	Status string `json:"status"`
}

// RootPayload is the GET / banner response.
type RootPayload struct {
	Message string `json:"message"`
}

type generalChatRequest struct {
	Message string        `json:"message"`
	History []HistoryItem `json:"history,omitempty"`
}

type documentChatRequest struct {
	Question string `json:"question"`
}

// errorBody is the structured error shape FastAPI-style backends return.
type errorBody struct {
	Detail string `json:"detail"`
}
