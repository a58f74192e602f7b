package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"feedlens/internal/classify"
	"feedlens/internal/models"
	"feedlens/internal/prompt"
	"feedlens/internal/sandbox"
	"feedlens/internal/service"
	"feedlens/internal/service/storage"
	"feedlens/internal/utils"
)

var (
	ErrGenerationInFlight = errors.New("a generation request is already in flight")
	ErrNoDataset          = errors.New("no dataset loaded")
	ErrEmptyQuery         = errors.New("query is empty")
)

// Invoker is the llm round-trip. Tests replace it with a canned responder.
type Invoker func(ctx context.Context, configName string, promptText string) (*service.InvokeResult, error)

// App owns the session state: the loaded dataset, the current filter options,
// the last classified artifact and the render overlay. All state transitions
// replace values wholesale under the mutex.
type App struct {
	mu       sync.RWMutex
	executor *sandbox.Executor
	invoke   Invoker

	dataset *models.DatasetInfo
	threads []models.ThreadRecord

	filter   models.FilterOptions
	artifact *models.GeneratedArtifact
	overlay  *models.RenderResult

	busy    bool
	issued  int64
	applied int64
}

func New() *App {
	return &App{
		executor: sandbox.New(sandbox.DefaultTimeout),
		invoke:   service.Invoke,
		filter:   models.DefaultFilterOptions(),
	}
}

// UseDataset installs an in-memory dataset without persisting it.
func (a *App) UseDataset(name string, threads []models.ThreadRecord) *models.DatasetInfo {
	now := time.Now().UnixMilli()
	info := &models.DatasetInfo{
		ID:          utils.GenerateID(),
		Name:        name,
		ThreadCount: len(threads),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	a.installDataset(info, threads)
	return info
}

// LoadDatasetFromFile parses a thread dump from disk, persists it, and makes
// it the active dataset.
func (a *App) LoadDatasetFromFile(path string) (*models.DatasetInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset file: %w", err)
	}

	threads, err := service.ParseThreadDump(data)
	if err != nil {
		return nil, err
	}

	info := a.UseDataset(filepath.Base(path), threads)
	if err := storage.SaveDataset(info, threads); err != nil {
		return nil, fmt.Errorf("failed to persist dataset: %w", err)
	}

	return info, nil
}

// OpenStoredDataset activates a previously persisted dataset.
func (a *App) OpenStoredDataset(id string) (*models.DatasetInfo, error) {
	record, err := storage.LoadDataset(id)
	if err != nil {
		return nil, err
	}

	a.installDataset(record.Info, record.Threads)
	return record.Info, nil
}

func (a *App) installDataset(info *models.DatasetInfo, threads []models.ThreadRecord) {
	a.mu.Lock()
	a.dataset = info
	a.threads = threads
	script := a.filter.CustomRenderScript
	a.mu.Unlock()

	// The stored render script re-runs against the new dataset so the overlay
	// never shows stale data.
	if script != "" {
		result := a.executor.Render(context.Background(), threads, script)
		a.mu.Lock()
		a.overlay = &result
		a.mu.Unlock()
	}
}

func (a *App) Dataset() *models.DatasetInfo {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.dataset
}

// Generate runs one prompt round-trip: build the prompt, invoke the llm,
// classify the response, and reconcile the artifact into the filter state.
// Only one generation may be in flight at a time.
func (a *App) Generate(ctx context.Context, query string, configName string, useSample bool) (*models.GeneratedArtifact, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	a.mu.Lock()
	if a.busy {
		a.mu.Unlock()
		return nil, ErrGenerationInFlight
	}
	if len(a.threads) == 0 {
		a.mu.Unlock()
		return nil, ErrNoDataset
	}
	a.busy = true
	a.issued++
	token := a.issued
	threads := a.threads
	a.mu.Unlock()

	defer func() {
		a.mu.Lock()
		a.busy = false
		a.mu.Unlock()
	}()

	promptText, err := buildPrompt(query, threads, useSample)
	if err != nil {
		return nil, err
	}

	result, err := a.invoke(ctx, configName, promptText)
	if err != nil {
		return nil, err
	}

	artifact := classify.Classify(result.Content)
	a.applyArtifact(artifact, query, token)

	return &artifact, nil
}

func buildPrompt(query string, threads []models.ThreadRecord, useSample bool) (string, error) {
	if useSample {
		return prompt.BuildSampleGuided(query, threads[0])
	}
	return prompt.BuildSchemaGuided(query, service.ModelNames(threads), time.Now()), nil
}

// applyArtifact installs an artifact only if its token is still the newest
// issued request, so a stale response never overwrites a fresher one.
func (a *App) applyArtifact(artifact models.GeneratedArtifact, query string, token int64) {
	now := time.Now().UnixMilli()

	a.mu.Lock()
	if token < a.issued || token <= a.applied {
		a.mu.Unlock()
		return
	}
	a.applied = token
	a.artifact = &artifact

	next, changed := service.Reconcile(a.filter, artifact, query, now)
	if changed {
		a.filter = next
	}
	renderScript := ""
	if changed && artifact.RenderScript != "" {
		renderScript = artifact.RenderScript
	}
	threads := a.threads
	a.mu.Unlock()

	if renderScript != "" {
		result := a.executor.Render(context.Background(), threads, renderScript)
		a.mu.Lock()
		a.overlay = &result
		a.mu.Unlock()
	}
}

func (a *App) Artifact() *models.GeneratedArtifact {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.artifact
}

func (a *App) FilterOptions() models.FilterOptions {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.filter
}

// FilteredThreads applies the combined filter pipeline to the active dataset.
func (a *App) FilteredThreads(ctx context.Context) []models.ThreadRecord {
	a.mu.RLock()
	threads := a.threads
	options := a.filter
	a.mu.RUnlock()

	return service.ApplyFilters(ctx, threads, options, a.executor)
}

func (a *App) Summaries(ctx context.Context) []*models.ThreadSummary {
	return service.Summarize(a.FilteredThreads(ctx))
}

// QAPairs returns the filtered set flattened to question/answer pairs, for
// the "qa" filter level.
func (a *App) QAPairs(ctx context.Context) []*models.QAPair {
	a.mu.RLock()
	searchTerm := a.filter.SearchTerm
	a.mu.RUnlock()

	pairs := service.DeriveQAPairs(a.FilteredThreads(ctx))
	return service.FilterQAPairs(pairs, searchTerm)
}

func (a *App) SetSearchTerm(term string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.filter = service.Reduce(a.filter, service.SetSearchTerm{Term: term})
}

func (a *App) SetFilterLevel(level models.FilterLevel) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.filter = service.Reduce(a.filter, service.SetFilterLevel{Level: level})
}

// ClearFilters resets the filter state and discards the transient artifact
// and overlay.
func (a *App) ClearFilters() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.filter = service.Reduce(a.filter, service.ClearFilters{})
	a.artifact = nil
	a.overlay = nil
}

func (a *App) RenderOverlay() *models.RenderResult {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.overlay
}

// DismissOverlay hides the overlay without discarding the stored render
// script; ShowRenderOverlay brings it back.
func (a *App) DismissOverlay() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.overlay = nil
}

// ShowRenderOverlay re-executes the stored render script against the current
// dataset, bumping the render timestamp so an unchanged script still re-runs.
func (a *App) ShowRenderOverlay(ctx context.Context) *models.RenderResult {
	a.mu.Lock()
	a.filter = service.Reduce(a.filter, service.ShowRenderOverlay{Timestamp: time.Now().UnixMilli()})
	script := a.filter.CustomRenderScript
	threads := a.threads
	a.mu.Unlock()

	if script == "" {
		return nil
	}

	result := a.executor.Render(ctx, threads, script)
	a.mu.Lock()
	a.overlay = &result
	a.mu.Unlock()

	return &result
}
