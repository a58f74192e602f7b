package models

type FilterLevel string

const (
	FilterLevelConversation FilterLevel = "conversation"
	FilterLevelQA           FilterLevel = "qa"
)

type DateRange struct {
	Start *string `json:"start"`
	End   *string `json:"end"`
}

type RatingFilter struct {
	Min            int  `json:"min"`
	Max            int  `json:"max"`
	IncludeUnrated bool `json:"includeUnrated"`
}

// StructuredFilter is the shape the schema-guided prompt asks the model to
// emit. IncludeUnrated is a pointer so that an absent key can be defaulted to
// true during reconciliation.
type StructuredFilter struct {
	DateRange    *DateRange              `json:"dateRange,omitempty"`
	RatingFilter *StructuredRatingFilter `json:"ratingFilter,omitempty"`
	FilterLevel  FilterLevel             `json:"filterLevel,omitempty"`
	ModelFilter  []string                `json:"modelFilter,omitempty"`
	// CustomConditions carries free-form conditions the model could not map
	// onto the structured fields. They are surfaced to the user, not executed.
	CustomConditions []string `json:"customConditions,omitempty"`
}

type StructuredRatingFilter struct {
	Min            int   `json:"min"`
	Max            int   `json:"max"`
	IncludeUnrated *bool `json:"includeUnrated"`
}

// FilterOptions is the single source of truth for what subset of the dataset
// is currently shown. It is always replaced wholesale, never mutated in place.
type FilterOptions struct {
	SearchTerm           string        `json:"search_term"`
	DateRange            *DateRange    `json:"date_range,omitempty"`
	RatingFilter         *RatingFilter `json:"rating_filter,omitempty"`
	ModelFilter          []string      `json:"model_filter,omitempty"`
	FilterLevel          FilterLevel   `json:"filter_level,omitempty"`
	NaturalLanguageQuery string        `json:"natural_language_query,omitempty"`
	CustomFilterScript   string        `json:"custom_filter_script,omitempty"`
	CustomRenderScript   string        `json:"custom_render_script,omitempty"`
	// RenderScriptTimestamp re-triggers the render overlay when it changes,
	// even if the script source is identical.
	RenderScriptTimestamp int64 `json:"render_script_timestamp,omitempty"`
}

func DefaultFilterOptions() FilterOptions {
	return FilterOptions{
		FilterLevel: FilterLevelConversation,
	}
}
