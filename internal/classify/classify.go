// Package classify decides what shape an LLM response took. The model is not
// contractually bound to one output shape, so classification is resilient to
// structured JSON, JSON-wrapped scripts, bare script text and garbage, in
// that fixed priority order, without ever failing.
package classify

import (
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"

	"feedlens/internal/models"
)

// Classify inspects raw response text and produces a GeneratedArtifact.
// The JSON region is taken from the first "{" to the last "}"; prose with
// stray braces around a valid JSON block can defeat this, which is a known
// robustness gap of the extraction strategy.
func Classify(raw string) models.GeneratedArtifact {
	if region, ok := jsonRegion(raw); ok {
		if artifact, ok := classifyJSON(region, raw); ok {
			return artifact
		}
	}

	if strings.Contains(raw, "func FilterThreads") || strings.Contains(raw, "func ProcessThreads") {
		return models.GeneratedArtifact{
			Kind:         models.ArtifactRawScript,
			FilterScript: raw,
			RawText:      raw,
		}
	}

	return models.GeneratedArtifact{
		Kind:    models.ArtifactUnrecognized,
		RawText: raw,
	}
}

func jsonRegion(raw string) (string, bool) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end <= start {
		return "", false
	}
	return raw[start : end+1], true
}

func classifyJSON(region, raw string) (models.GeneratedArtifact, bool) {
	if !gjson.Valid(region) {
		return models.GeneratedArtifact{}, false
	}

	parsed := gjson.Parse(region)
	if !parsed.IsObject() {
		return models.GeneratedArtifact{}, false
	}

	filterScript := parsed.Get("filterScript")
	renderScript := parsed.Get("renderScript")
	if filterScript.Exists() || renderScript.Exists() {
		return models.GeneratedArtifact{
			Kind:         models.ArtifactDualScript,
			FilterScript: scriptValue(filterScript),
			RenderScript: scriptValue(renderScript),
			RawText:      raw,
		}, true
	}

	var filter models.StructuredFilter
	if err := json.Unmarshal([]byte(region), &filter); err != nil {
		// Valid JSON that does not decode into the structured shape is still
		// a structured-filter attempt; preserve it as unrecognized rather
		// than misreading it as a script.
		return models.GeneratedArtifact{
			Kind:    models.ArtifactUnrecognized,
			RawText: raw,
		}, true
	}

	return models.GeneratedArtifact{
		Kind:    models.ArtifactJSONFilter,
		Filter:  &filter,
		RawText: raw,
	}, true
}

func scriptValue(result gjson.Result) string {
	if !result.Exists() || result.Type == gjson.Null {
		return ""
	}
	return result.String()
}
