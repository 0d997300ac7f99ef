package models

// StatusResponse is the JSON envelope returned by POST /backup.
// Clients branch on Status ("success" or "error") and the HTTP code, never on Message.
type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

const (
	StatusSuccess = "success"
	StatusError   = "error"
)
