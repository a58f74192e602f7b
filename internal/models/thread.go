package models

// ThreadRecord is one unit of the dataset being filtered or rendered. The
// shape is whatever the upload or agent export contained; no field is
// guaranteed present, and consumers must treat it as opaque.
type ThreadRecord = map[string]interface{}

type ThreadSummary struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	MessageCount int      `json:"message_count"`
	Rating       *float64 `json:"rating,omitempty"`
	Models       []string `json:"models,omitempty"`
	CreatedAt    int64    `json:"created_at"`
	UpdatedAt    int64    `json:"updated_at"`
}

type QAPair struct {
	ThreadID string                 `json:"thread_id"`
	Question map[string]interface{} `json:"question"`
	Answer   map[string]interface{} `json:"answer"`
}

type DatasetInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ThreadCount int    `json:"thread_count"`
	CreatedAt   int64  `json:"created_at"`
	UpdatedAt   int64  `json:"updated_at"`
}
