package storage

import (
	"encoding/json"
	"fmt"
	"sort"

	"feedlens/internal/models"
)

const datasetKeyPrefix = "dataset:"

type DatasetRecord struct {
	Info    *models.DatasetInfo   `json:"info"`
	Threads []models.ThreadRecord `json:"threads"`
}

func datasetKey(id string) []byte {
	return []byte(datasetKeyPrefix + id)
}

func SaveDataset(info *models.DatasetInfo, threads []models.ThreadRecord) error {
	if info == nil || info.ID == "" {
		return fmt.Errorf("dataset info is missing an id")
	}

	data, err := json.Marshal(&DatasetRecord{
		Info:    info,
		Threads: threads,
	})
	if err != nil {
		return fmt.Errorf("failed to serialize dataset %s: %w", info.ID, err)
	}

	return Put(datasetKey(info.ID), data)
}

func LoadDataset(id string) (*DatasetRecord, error) {
	data, err := Get(datasetKey(id))
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, fmt.Errorf("dataset %s not found", id)
	}

	var record DatasetRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to deserialize dataset %s: %w", id, err)
	}

	return &record, nil
}

// ListDatasets returns stored dataset metadata sorted by creation time,
// newest first.
func ListDatasets() ([]*models.DatasetInfo, error) {
	entries, err := List([]byte(datasetKeyPrefix))
	if err != nil {
		return nil, err
	}

	infos := make([]*models.DatasetInfo, 0, len(entries))
	for key, data := range entries {
		var record DatasetRecord
		if err := json.Unmarshal(data, &record); err != nil {
			return nil, fmt.Errorf("failed to deserialize dataset at %s: %w", key, err)
		}
		if record.Info != nil {
			infos = append(infos, record.Info)
		}
	}

	sort.Slice(infos, func(a, b int) bool {
		return infos[a].CreatedAt > infos[b].CreatedAt
	})

	return infos, nil
}

func DeleteDataset(id string) error {
	return Delete(datasetKey(id))
}
