package sandbox

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"feedlens/internal/models"
)

// Render executes generated render source against threads and classifies the
// return value: a string becomes markdown, a map with a chart-kind tag and
// chart data becomes a graph. Unlike the filter path this does not fail
// closed to silence; a render failure has no sensible fallback to display,
// so the error is surfaced to the overlay.
func (e *Executor) Render(ctx context.Context, threads []models.ThreadRecord, source string) models.RenderResult {
	if strings.TrimSpace(source) == "" {
		return renderError("render script is empty")
	}

	clean := stripFences(source)

	if err := e.validate(clean); err != nil {
		return renderError(err.Error())
	}

	if !strings.Contains(clean, "func RenderContent") {
		return renderError("render script must define a function named RenderContent")
	}

	out, err := e.run(ctx, clean, "RenderContent", threads)
	if err != nil {
		return renderError(err.Error())
	}

	switch value := out.(type) {
	case string:
		return models.RenderResult{Type: models.RenderMarkdown, Content: value}
	case map[string]interface{}:
		spec, err := decodeGraphSpec(value)
		if err != nil {
			return renderError(err.Error())
		}
		return models.RenderResult{Type: models.RenderGraph, Graph: spec}
	default:
		return renderError(fmt.Sprintf("render result has unsupported type %T", out))
	}
}

func decodeGraphSpec(value map[string]interface{}) (*models.GraphSpec, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("render result is not serializable: %w", err)
	}

	var spec models.GraphSpec
	if err := json.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("render result is neither markdown nor a chart specification: %w", err)
	}

	if spec.Type == "" {
		return nil, fmt.Errorf("render result is missing a chart type")
	}
	if len(spec.Data.Labels) == 0 && len(spec.Data.Datasets) == 0 {
		return nil, fmt.Errorf("render result is missing chart data")
	}

	return &spec, nil
}

func renderError(message string) models.RenderResult {
	return models.RenderResult{Type: models.RenderError, Error: message}
}
