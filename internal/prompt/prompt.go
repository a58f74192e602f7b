// Package prompt builds the exact text sent to the LLM. Sample-guided
// prompting is preferred whenever a representative record is available,
// because free-form nested message schemas vary too much for a fixed schema
// description to capture reliably; schema-guided prompting is the fallback
// for structured filtering when no sample exists.
package prompt

import (
	_ "embed"
	"strings"
	"time"

	"feedlens/internal/models"
	"feedlens/internal/params"
)

//go:embed assets/templates/schema_filter.txt
var schemaFilterTemplate string

//go:embed assets/templates/sample_script.txt
var sampleScriptTemplate string

// BuildSchemaGuided embeds a fixed description of the filterable shape and
// asks the model for a structured JSON filter. The caller injects "today" so
// relative date phrases resolve deterministically.
func BuildSchemaGuided(query string, knownModels []string, today time.Time) string {
	return params.Substitute(schemaFilterTemplate, map[string]string{
		"query":  strings.TrimSpace(query),
		"today":  today.Format("2006-01-02"),
		"models": formatModelList(knownModels),
	})
}

// BuildSampleGuided embeds one literal record as ground truth for the data
// shape and asks the model for executable filter/render source.
func BuildSampleGuided(query string, sample models.ThreadRecord) (string, error) {
	resolved, err := params.Resolve(map[string]params.Value{
		"query":  {Source: params.SourceCustom, Text: strings.TrimSpace(query)},
		"sample": {Source: params.SourceThread},
	}, sample, nil, time.Now())
	if err != nil {
		return "", err
	}

	return params.Substitute(sampleScriptTemplate, resolved), nil
}

func formatModelList(knownModels []string) string {
	if len(knownModels) == 0 {
		return "(none recorded in this dataset)"
	}
	return strings.Join(knownModels, ", ")
}
