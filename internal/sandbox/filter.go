package sandbox

import (
	"context"
	"strings"

	"feedlens/internal/models"
)

// ApplyFilter executes generated filter source against threads and returns
// the filtered slice. It fails closed: on any validation or runtime failure
// the original slice is returned unmodified, so a broken generated filter
// degrades to "show everything" instead of crashing the view.
func (e *Executor) ApplyFilter(ctx context.Context, threads []models.ThreadRecord, source string) []models.ThreadRecord {
	if strings.TrimSpace(source) == "" {
		return threads
	}

	clean := stripFences(source)

	if err := e.validate(clean); err != nil {
		e.logger.Warn("filter script rejected", "error", err)
		return threads
	}

	var entry string
	switch {
	case strings.Contains(clean, "func FilterThreads"):
		entry = "FilterThreads"
	case strings.Contains(clean, "func ProcessThreads"):
		entry = "ProcessThreads"
	default:
		e.logger.Warn("filter script defines neither FilterThreads nor ProcessThreads")
		return threads
	}

	out, err := e.run(ctx, clean, entry, threads)
	if err != nil {
		e.logger.Warn("filter script failed", "entry", entry, "error", err)
		return threads
	}

	filtered, ok := toRecordSlice(out)
	if !ok {
		e.logger.Warn("filter script did not return an array of records", "entry", entry)
		return threads
	}

	return filtered
}

func toRecordSlice(value interface{}) ([]models.ThreadRecord, bool) {
	switch out := value.(type) {
	case []map[string]interface{}:
		return out, true
	case []interface{}:
		records := make([]models.ThreadRecord, 0, len(out))
		for _, item := range out {
			record, ok := item.(map[string]interface{})
			if !ok {
				return nil, false
			}
			records = append(records, record)
		}
		return records, true
	default:
		return nil, false
	}
}
