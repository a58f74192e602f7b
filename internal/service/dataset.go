package service

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"

	"feedlens/internal/models"
)

// ParseThreadDump decodes an uploaded dataset. Both a bare JSON array of
// thread records and an object wrapping one under "threads" are accepted.
func ParseThreadDump(data []byte) ([]models.ThreadRecord, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("dataset is not valid JSON")
	}

	root := gjson.ParseBytes(data)
	array := root
	if root.IsObject() {
		array = root.Get("threads")
		if !array.Exists() {
			return nil, fmt.Errorf("dataset object has no threads array")
		}
	}
	if !array.IsArray() {
		return nil, fmt.Errorf("dataset must be an array of thread records")
	}

	var records []models.ThreadRecord
	if err := json.Unmarshal([]byte(array.Raw), &records); err != nil {
		return nil, fmt.Errorf("failed to decode thread records: %w", err)
	}

	return records, nil
}
