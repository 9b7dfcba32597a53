package common

import (
	"encoding/json"
	"time"
)

const (
	ResultTypeDownload = "download"
	ResultTypeExport   = "export"
)

// Result is the event published for each dispatched job
type Result struct {
	Type      string    `json:"type"` // download (ResultTypeDownload) or export (ResultTypeExport)
	RequestID string    `json:"request_id"`
	Index     int       `json:"index"`
	Name      string    `json:"name"`
	Status    Status    `json:"status"`
	URI       string    `json:"uri,omitempty"`
	TaskID    string    `json:"task_id,omitempty"`
	Message   string    `json:"message,omitempty"`
	Time      time.Time `json:"time"`
}

// Marshal returns the json payload of the result
func (r Result) Marshal() ([]byte, error) {
	return json.Marshal(r)
}
