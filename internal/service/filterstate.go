package service

import (
	"feedlens/internal/models"
)

// Action describes one filter-state transition. Reduce always returns a fresh
// FilterOptions value and never mutates its input.
type Action interface {
	isAction()
}

// ApplyJSONFilter installs a structured filter produced by the schema-guided
// path. Script fields are cleared, the free-text search term survives.
type ApplyJSONFilter struct {
	Filter *models.StructuredFilter
}

// ApplyScript installs generated filter/render scripts. Structured fields are
// left untouched; combined filtering prefers the script while one is present.
type ApplyScript struct {
	Query        string
	FilterScript string
	RenderScript string
	Timestamp    int64
}

type ClearFilters struct{}

type SetSearchTerm struct {
	Term string
}

type SetFilterLevel struct {
	Level models.FilterLevel
}

// ShowRenderOverlay bumps the render timestamp so the overlay re-runs the
// stored render script even though its source is unchanged.
type ShowRenderOverlay struct {
	Timestamp int64
}

func (ApplyJSONFilter) isAction() {}

func (ApplyScript) isAction() {}

func (ClearFilters) isAction() {}

func (SetSearchTerm) isAction() {}

func (SetFilterLevel) isAction() {}

func (ShowRenderOverlay) isAction() {}

func Reduce(state models.FilterOptions, action Action) models.FilterOptions {
	switch act := action.(type) {
	case ApplyJSONFilter:
		return applyStructuredFilter(state, act.Filter)
	case ApplyScript:
		next := state
		next.NaturalLanguageQuery = act.Query
		if act.FilterScript != "" {
			next.CustomFilterScript = act.FilterScript
		}
		if act.RenderScript != "" {
			next.CustomRenderScript = act.RenderScript
			next.RenderScriptTimestamp = act.Timestamp
		}
		return next
	case ClearFilters:
		return models.DefaultFilterOptions()
	case SetSearchTerm:
		next := state
		next.SearchTerm = act.Term
		return next
	case SetFilterLevel:
		next := state
		if act.Level == models.FilterLevelQA {
			next.FilterLevel = models.FilterLevelQA
		} else {
			next.FilterLevel = models.FilterLevelConversation
		}
		return next
	case ShowRenderOverlay:
		next := state
		if next.CustomRenderScript != "" {
			next.RenderScriptTimestamp = act.Timestamp
		}
		return next
	default:
		return state
	}
}

func applyStructuredFilter(state models.FilterOptions, filter *models.StructuredFilter) models.FilterOptions {
	next := state
	next.CustomFilterScript = ""
	next.NaturalLanguageQuery = ""
	next.DateRange = nil
	next.RatingFilter = nil
	next.ModelFilter = nil
	next.FilterLevel = models.FilterLevelConversation

	if filter == nil {
		return next
	}

	if filter.DateRange != nil {
		dateRange := *filter.DateRange
		next.DateRange = &dateRange
	}

	if filter.RatingFilter != nil {
		includeUnrated := true
		if filter.RatingFilter.IncludeUnrated != nil {
			includeUnrated = *filter.RatingFilter.IncludeUnrated
		}
		min := filter.RatingFilter.Min
		max := filter.RatingFilter.Max
		if min < 1 {
			min = 1
		}
		if max < min {
			max = 10
		}
		next.RatingFilter = &models.RatingFilter{
			Min:            min,
			Max:            max,
			IncludeUnrated: includeUnrated,
		}
	}

	if filter.FilterLevel == models.FilterLevelQA {
		next.FilterLevel = models.FilterLevelQA
	}

	if len(filter.ModelFilter) > 0 {
		next.ModelFilter = append([]string(nil), filter.ModelFilter...)
	}

	return next
}

// Reconcile folds one classified artifact into the filter state. The second
// return value reports whether the state actually changed; unrecognized
// artifacts and empty script envelopes leave it untouched.
func Reconcile(state models.FilterOptions, artifact models.GeneratedArtifact, query string, now int64) (models.FilterOptions, bool) {
	switch artifact.Kind {
	case models.ArtifactJSONFilter:
		return Reduce(state, ApplyJSONFilter{Filter: artifact.Filter}), true
	case models.ArtifactDualScript, models.ArtifactRawScript:
		if artifact.FilterScript == "" && artifact.RenderScript == "" {
			return state, false
		}
		return Reduce(state, ApplyScript{
			Query:        query,
			FilterScript: artifact.FilterScript,
			RenderScript: artifact.RenderScript,
			Timestamp:    now,
		}), true
	default:
		return state, false
	}
}
