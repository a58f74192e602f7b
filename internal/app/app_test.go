package app

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feedlens/internal/models"
	"feedlens/internal/service"
)

func newTestApp(t *testing.T, response string) (*App, *[]string) {
	t.Helper()

	application := New()
	prompts := &[]string{}
	application.invoke = func(ctx context.Context, configName string, promptText string) (*service.InvokeResult, error) {
		*prompts = append(*prompts, promptText)
		return &service.InvokeResult{Content: response}, nil
	}

	application.UseDataset("test.json", []models.ThreadRecord{
		{"thread_id": "t-1", "rating": 9.0, "messages": []interface{}{
			map[string]interface{}{"role": "user", "content": "question one", "model": "gpt-4o"},
			map[string]interface{}{"role": "assistant", "content": "answer one", "model": "gpt-4o"},
		}},
		{"thread_id": "t-2", "rating": 3.0},
		{"thread_id": "t-3"},
	})

	return application, prompts
}

func TestGenerateAppliesJSONFilter(t *testing.T) {
	application, _ := newTestApp(t, `{"ratingFilter": {"min": 8, "max": 10, "includeUnrated": false}}`)

	artifact, err := application.Generate(context.Background(), "only highly rated", "", false)
	require.NoError(t, err)
	assert.Equal(t, models.ArtifactJSONFilter, artifact.Kind)

	options := application.FilterOptions()
	require.NotNil(t, options.RatingFilter)
	assert.False(t, options.RatingFilter.IncludeUnrated)

	filtered := application.FilteredThreads(context.Background())
	require.Len(t, filtered, 1)
	assert.Equal(t, "t-1", filtered[0]["thread_id"])
}

func TestGenerateAppliesDualScriptAndRendersOverlay(t *testing.T) {
	response := `{
		"filterScript": "func FilterThreads(threads []map[string]interface{}) []map[string]interface{} {\n\tvar out []map[string]interface{}\n\tfor _, thread := range threads {\n\t\tif _, ok := thread[\"rating\"]; ok {\n\t\t\tout = append(out, thread)\n\t\t}\n\t}\n\treturn out\n}",
		"renderScript": "func RenderContent(threads []map[string]interface{}) interface{} {\n\treturn \"# Report\"\n}"
	}`
	application, _ := newTestApp(t, response)

	artifact, err := application.Generate(context.Background(), "rated threads with a report", "", false)
	require.NoError(t, err)
	assert.Equal(t, models.ArtifactDualScript, artifact.Kind)

	filtered := application.FilteredThreads(context.Background())
	assert.Len(t, filtered, 2)

	overlay := application.RenderOverlay()
	require.NotNil(t, overlay)
	assert.Equal(t, models.RenderMarkdown, overlay.Type)
	assert.Equal(t, "# Report", overlay.Content)
}

func TestGenerateUnrecognizedLeavesFiltersUntouched(t *testing.T) {
	application, _ := newTestApp(t, "I cannot help with that request.")
	before := application.FilterOptions()

	artifact, err := application.Generate(context.Background(), "gibberish request", "", false)
	require.NoError(t, err)
	assert.Equal(t, models.ArtifactUnrecognized, artifact.Kind)
	assert.Equal(t, before, application.FilterOptions())
	assert.Nil(t, application.RenderOverlay())
}

func TestGenerateRejectsEmptyQuery(t *testing.T) {
	application, _ := newTestApp(t, "{}")

	_, err := application.Generate(context.Background(), "   ", "", false)
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestGenerateRequiresDataset(t *testing.T) {
	application := New()
	application.invoke = func(ctx context.Context, configName string, promptText string) (*service.InvokeResult, error) {
		return &service.InvokeResult{Content: "{}"}, nil
	}

	_, err := application.Generate(context.Background(), "anything", "", false)
	assert.ErrorIs(t, err, ErrNoDataset)
}

func TestGenerateSurfacesInvokerError(t *testing.T) {
	application, _ := newTestApp(t, "")
	application.invoke = func(ctx context.Context, configName string, promptText string) (*service.InvokeResult, error) {
		return nil, errors.New("network down")
	}

	_, err := application.Generate(context.Background(), "anything", "", false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "network down")

	// A failed round trip must release the busy flag.
	_, err = application.Generate(context.Background(), "again", "", false)
	assert.Contains(t, err.Error(), "network down")
}

func TestGenerateSchemaPromptContainsDatasetModels(t *testing.T) {
	application, prompts := newTestApp(t, "{}")

	_, err := application.Generate(context.Background(), "anything", "", false)
	require.NoError(t, err)
	require.Len(t, *prompts, 1)
	assert.Contains(t, (*prompts)[0], "gpt-4o")
}

func TestGenerateSamplePromptEmbedsFirstThread(t *testing.T) {
	application, prompts := newTestApp(t, "{}")

	_, err := application.Generate(context.Background(), "anything", "", true)
	require.NoError(t, err)
	require.Len(t, *prompts, 1)
	assert.Contains(t, (*prompts)[0], `"thread_id":"t-1"`)
}

func TestClearFiltersDiscardsArtifactAndOverlay(t *testing.T) {
	response := `{"renderScript": "func RenderContent(threads []map[string]interface{}) interface{} {\n\treturn \"# R\"\n}"}`
	application, _ := newTestApp(t, response)

	_, err := application.Generate(context.Background(), "make a report", "", false)
	require.NoError(t, err)
	require.NotNil(t, application.RenderOverlay())

	application.ClearFilters()
	assert.Nil(t, application.Artifact())
	assert.Nil(t, application.RenderOverlay())
	assert.Equal(t, models.DefaultFilterOptions(), application.FilterOptions())
}

func TestDismissAndShowOverlay(t *testing.T) {
	response := `{"renderScript": "func RenderContent(threads []map[string]interface{}) interface{} {\n\treturn \"# R\"\n}"}`
	application, _ := newTestApp(t, response)

	_, err := application.Generate(context.Background(), "make a report", "", false)
	require.NoError(t, err)
	before := application.FilterOptions().RenderScriptTimestamp

	application.DismissOverlay()
	assert.Nil(t, application.RenderOverlay())

	result := application.ShowRenderOverlay(context.Background())
	require.NotNil(t, result)
	assert.Equal(t, "# R", result.Content)
	assert.Greater(t, application.FilterOptions().RenderScriptTimestamp, before)

	// The stored script survives dismissal, so the overlay state round trips.
	require.NotNil(t, application.RenderOverlay())
}

func TestShowOverlayWithoutScript(t *testing.T) {
	application, _ := newTestApp(t, "{}")
	assert.Nil(t, application.ShowRenderOverlay(context.Background()))
}

func TestQAPairsUseSearchTerm(t *testing.T) {
	application, _ := newTestApp(t, "{}")

	pairs := application.QAPairs(context.Background())
	require.Len(t, pairs, 1)

	application.SetSearchTerm("question one")
	assert.Len(t, application.QAPairs(context.Background()), 1)

	application.SetSearchTerm("no such phrase")
	assert.Empty(t, application.QAPairs(context.Background()))
}

func TestSetFilterLevel(t *testing.T) {
	application, _ := newTestApp(t, "{}")

	application.SetFilterLevel(models.FilterLevelQA)
	assert.Equal(t, models.FilterLevelQA, application.FilterOptions().FilterLevel)

	application.SetFilterLevel("bogus")
	assert.Equal(t, models.FilterLevelConversation, application.FilterOptions().FilterLevel)
}
