package dto

import "encoding/json"

type UpdateDeviceRequest struct {
	Name    *string `json:"name"`
	Trusted *bool   `json:"trusted"`
}

type SyncEventRequest struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type SyncEventsResponse struct {
	Events     interface{} `json:"events"`
	NextCursor uint64      `json:"next_cursor"`
}
