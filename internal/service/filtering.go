package service

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"feedlens/internal/models"
	"feedlens/internal/sandbox"
)

var (
	ratingPaths  = []string{"rating", "values.rating", "feedback.rating"}
	createdPaths = []string{"created_at", "createdAt", "values.created_at"}
	updatedPaths = []string{"updated_at", "updatedAt", "values.updated_at"}
	idPaths      = []string{"thread_id", "id", "values.thread_id"}
	titlePaths   = []string{"title", "name", "values.title"}
)

// ApplyFilters evaluates the combined filter pipeline: a stored filter script
// runs over the full unfiltered set first, then the plain-text search term and
// the remaining structured filters apply on top of its output.
func ApplyFilters(ctx context.Context, threads []models.ThreadRecord, options models.FilterOptions, executor *sandbox.Executor) []models.ThreadRecord {
	filtered := threads
	if options.CustomFilterScript != "" && executor != nil {
		filtered = executor.ApplyFilter(ctx, threads, options.CustomFilterScript)
	}

	out := make([]models.ThreadRecord, 0, len(filtered))
	for _, record := range filtered {
		view, ok := viewRecord(record)
		if !ok {
			out = append(out, record)
			continue
		}
		if !view.matchesSearch(options.SearchTerm) {
			continue
		}
		if !view.matchesDateRange(options.DateRange) {
			continue
		}
		if !view.matchesRating(options.RatingFilter) {
			continue
		}
		if !view.matchesModels(options.ModelFilter) {
			continue
		}
		out = append(out, record)
	}

	return out
}

// ModelNames returns the distinct model names observed across the dataset,
// sorted for prompt stability.
func ModelNames(threads []models.ThreadRecord) []string {
	seen := make(map[string]bool)
	for _, record := range threads {
		view, ok := viewRecord(record)
		if !ok {
			continue
		}
		for _, name := range view.modelNames() {
			seen[name] = true
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// Summarize projects full thread records down to the display-level summaries
// the thread list shows.
func Summarize(threads []models.ThreadRecord) []*models.ThreadSummary {
	summaries := make([]*models.ThreadSummary, 0, len(threads))
	for _, record := range threads {
		view, ok := viewRecord(record)
		if !ok {
			continue
		}

		summary := &models.ThreadSummary{
			ID:           view.firstString(idPaths),
			Title:        view.title(),
			MessageCount: len(view.messages()),
			Models:       view.modelNames(),
			CreatedAt:    view.firstTimeMillis(createdPaths),
			UpdatedAt:    view.firstTimeMillis(updatedPaths),
		}
		if rating, ok := view.rating(); ok {
			value := rating
			summary.Rating = &value
		}
		summaries = append(summaries, summary)
	}

	return summaries
}

// recordView wraps one serialized record so field lookups are null safe
// regardless of the record's actual shape.
type recordView struct {
	raw  gjson.Result
	text string
}

func viewRecord(record models.ThreadRecord) (recordView, bool) {
	data, err := json.Marshal(record)
	if err != nil {
		return recordView{}, false
	}
	return recordView{
		raw:  gjson.ParseBytes(data),
		text: strings.ToLower(string(data)),
	}, true
}

func (v recordView) matchesSearch(term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	return strings.Contains(v.text, term)
}

func (v recordView) matchesDateRange(dateRange *models.DateRange) bool {
	if dateRange == nil || (dateRange.Start == nil && dateRange.End == nil) {
		return true
	}

	created, ok := v.firstTime(createdPaths)
	if !ok {
		return false
	}

	if dateRange.Start != nil {
		start, err := time.Parse("2006-01-02", *dateRange.Start)
		if err == nil && created.Before(start) {
			return false
		}
	}
	if dateRange.End != nil {
		end, err := time.Parse("2006-01-02", *dateRange.End)
		if err == nil && !created.Before(end.AddDate(0, 0, 1)) {
			return false
		}
	}

	return true
}

func (v recordView) matchesRating(filter *models.RatingFilter) bool {
	if filter == nil {
		return true
	}

	rating, ok := v.rating()
	if !ok {
		return filter.IncludeUnrated
	}

	return rating >= float64(filter.Min) && rating <= float64(filter.Max)
}

func (v recordView) matchesModels(allowed []string) bool {
	if len(allowed) == 0 {
		return true
	}

	for _, name := range v.modelNames() {
		lowered := strings.ToLower(name)
		for _, want := range allowed {
			if strings.Contains(lowered, strings.ToLower(want)) {
				return true
			}
		}
	}

	return false
}

func (v recordView) rating() (float64, bool) {
	for _, path := range ratingPaths {
		value := v.raw.Get(path)
		if value.Exists() && value.Type == gjson.Number {
			return value.Float(), true
		}
	}
	return 0, false
}

func (v recordView) messages() []gjson.Result {
	for _, path := range []string{"messages", "values.messages"} {
		value := v.raw.Get(path)
		if value.IsArray() {
			return value.Array()
		}
	}
	return nil
}

func (v recordView) modelNames() []string {
	seen := make(map[string]bool)
	var names []string

	appendName := func(name string) {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		names = append(names, name)
	}

	appendName(v.raw.Get("model").String())
	for _, message := range v.messages() {
		appendName(message.Get("model").String())
		appendName(message.Get("response_metadata.model_name").String())
	}

	return names
}

func (v recordView) title() string {
	if title := v.firstString(titlePaths); title != "" {
		return title
	}

	// Fall back to the first user message, truncated for the list view.
	for _, message := range v.messages() {
		if !isUserRole(messageRole(message)) {
			continue
		}
		content := strings.TrimSpace(message.Get("content").String())
		if content == "" {
			continue
		}
		if len(content) > 80 {
			return content[:80]
		}
		return content
	}

	return "(untitled thread)"
}

func (v recordView) firstString(paths []string) string {
	for _, path := range paths {
		value := v.raw.Get(path)
		if value.Exists() && value.Type == gjson.String && value.String() != "" {
			return value.String()
		}
	}
	return ""
}

func (v recordView) firstTime(paths []string) (time.Time, bool) {
	for _, path := range paths {
		value := v.raw.Get(path)
		if !value.Exists() {
			continue
		}
		if parsed, ok := parseTime(value); ok {
			return parsed, true
		}
	}
	return time.Time{}, false
}

func (v recordView) firstTimeMillis(paths []string) int64 {
	parsed, ok := v.firstTime(paths)
	if !ok {
		return 0
	}
	return parsed.UnixMilli()
}

// parseTime accepts epoch values in seconds or milliseconds as well as
// RFC 3339 or plain date strings.
func parseTime(value gjson.Result) (time.Time, bool) {
	switch value.Type {
	case gjson.Number:
		epoch := value.Float()
		if epoch <= 0 {
			return time.Time{}, false
		}
		if epoch > 1e12 {
			return time.UnixMilli(int64(epoch)), true
		}
		return time.Unix(int64(epoch), 0), true
	case gjson.String:
		text := value.String()
		if parsed, err := time.Parse(time.RFC3339, text); err == nil {
			return parsed, true
		}
		if parsed, err := time.Parse("2006-01-02", text); err == nil {
			return parsed, true
		}
		return time.Time{}, false
	default:
		return time.Time{}, false
	}
}

func messageRole(message gjson.Result) string {
	if role := message.Get("role").String(); role != "" {
		return role
	}
	return message.Get("type").String()
}

func isUserRole(role string) bool {
	switch strings.ToLower(role) {
	case "user", "human":
		return true
	default:
		return false
	}
}

func isAssistantRole(role string) bool {
	switch strings.ToLower(role) {
	case "assistant", "ai":
		return true
	default:
		return false
	}
}
