package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"feedlens/internal/app"
	"feedlens/internal/service"
	"feedlens/internal/service/storage"
)

func main() {
	var (
		datasetPath string
		datasetID   string
		query       string
		configName  string
		useSample   bool
		configPath  string
	)

	flag.StringVar(&datasetPath, "dataset", "", "path to a JSON thread dump to load")
	flag.StringVar(&datasetID, "dataset-id", "", "id of a previously stored dataset to open")
	flag.StringVar(&query, "query", "", "natural language filter/report request")
	flag.StringVar(&configName, "config", "", "llm configuration name (defaults to the configured default)")
	flag.BoolVar(&useSample, "sample", false, "build the prompt from a sample record instead of the filter schema")
	flag.StringVar(&configPath, "config-file", "", "path to an llm configuration YAML file")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	if err := run(datasetPath, datasetID, query, configName, useSample, configPath); err != nil {
		slog.Error("feedlens failed", "error", err)
		os.Exit(1)
	}
}

func run(datasetPath, datasetID, query, configName string, useSample bool, configPath string) error {
	if err := loadConfigurations(configPath); err != nil {
		return err
	}

	if err := storage.Open(""); err != nil {
		return err
	}
	defer storage.Close()

	application := app.New()
	ctx := context.Background()

	switch {
	case datasetPath != "":
		info, err := application.LoadDatasetFromFile(datasetPath)
		if err != nil {
			return err
		}
		slog.Info("dataset loaded", "id", info.ID, "name", info.Name, "threads", info.ThreadCount)
	case datasetID != "":
		info, err := application.OpenStoredDataset(datasetID)
		if err != nil {
			return err
		}
		slog.Info("dataset opened", "id", info.ID, "name", info.Name, "threads", info.ThreadCount)
	default:
		return listDatasets()
	}

	if query != "" {
		artifact, err := application.Generate(ctx, query, configName, useSample)
		if err != nil {
			return err
		}
		slog.Info("response classified", "kind", artifact.Kind)
	}

	summaries := application.Summaries(ctx)
	fmt.Printf("%d threads match\n", len(summaries))
	for _, summary := range summaries {
		line, err := json.Marshal(summary)
		if err != nil {
			return err
		}
		fmt.Println(string(line))
	}

	if overlay := application.RenderOverlay(); overlay != nil {
		rendered, err := json.MarshalIndent(overlay, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(rendered))
	}

	return nil
}

func loadConfigurations(configPath string) error {
	if configPath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil
		}
		configPath = filepath.Join(homeDir, ".feedlens", "config.yaml")
		if _, err := os.Stat(configPath); err != nil {
			return nil
		}
	}
	return service.LoadConfigurationsFromFile(configPath)
}

func listDatasets() error {
	infos, err := storage.ListDatasets()
	if err != nil {
		return err
	}

	fmt.Printf("%d stored datasets\n", len(infos))
	for _, info := range infos {
		fmt.Printf("%s  %s  (%d threads)\n", info.ID, info.Name, info.ThreadCount)
	}

	return nil
}
