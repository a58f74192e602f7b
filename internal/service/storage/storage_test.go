package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feedlens/internal/models"
)

func openTempDatabase(t *testing.T) {
	t.Helper()
	require.NoError(t, Open(t.TempDir()))
	t.Cleanup(func() {
		require.NoError(t, Close())
	})
}

func TestPutGetDelete(t *testing.T) {
	openTempDatabase(t)

	require.NoError(t, Put([]byte("key"), []byte("value")))

	value, err := Get([]byte("key"))
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), value)

	require.NoError(t, Delete([]byte("key")))

	value, err = Get([]byte("key"))
	require.NoError(t, err)
	assert.Nil(t, value)
}

func TestListByPrefix(t *testing.T) {
	openTempDatabase(t)

	require.NoError(t, Put([]byte("dataset:a"), []byte("1")))
	require.NoError(t, Put([]byte("dataset:b"), []byte("2")))
	require.NoError(t, Put([]byte("other:c"), []byte("3")))

	entries, err := List([]byte("dataset:"))
	require.NoError(t, err)
	assert.Len(t, entries, 2)
	assert.Equal(t, []byte("1"), entries["dataset:a"])
}

func TestOperationsFailBeforeOpen(t *testing.T) {
	_, err := Get([]byte("key"))
	assert.Error(t, err)

	assert.Error(t, Put([]byte("key"), []byte("value")))
}

func TestDatasetRoundTrip(t *testing.T) {
	openTempDatabase(t)

	info := &models.DatasetInfo{
		ID:          "ds-1",
		Name:        "threads.json",
		ThreadCount: 2,
		CreatedAt:   100,
		UpdatedAt:   100,
	}
	threads := []models.ThreadRecord{
		{"thread_id": "t-1", "rating": 8.0},
		{"thread_id": "t-2"},
	}

	require.NoError(t, SaveDataset(info, threads))

	record, err := LoadDataset("ds-1")
	require.NoError(t, err)
	assert.Equal(t, "threads.json", record.Info.Name)
	require.Len(t, record.Threads, 2)
	assert.Equal(t, "t-1", record.Threads[0]["thread_id"])
}

func TestLoadDatasetNotFound(t *testing.T) {
	openTempDatabase(t)

	_, err := LoadDataset("missing")
	assert.ErrorContains(t, err, "not found")
}

func TestListDatasetsNewestFirst(t *testing.T) {
	openTempDatabase(t)

	require.NoError(t, SaveDataset(&models.DatasetInfo{ID: "old", CreatedAt: 100}, nil))
	require.NoError(t, SaveDataset(&models.DatasetInfo{ID: "new", CreatedAt: 200}, nil))

	infos, err := ListDatasets()
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, "new", infos[0].ID)
	assert.Equal(t, "old", infos[1].ID)
}

func TestDeleteDataset(t *testing.T) {
	openTempDatabase(t)

	require.NoError(t, SaveDataset(&models.DatasetInfo{ID: "ds-1"}, nil))
	require.NoError(t, DeleteDataset("ds-1"))

	_, err := LoadDataset("ds-1")
	assert.Error(t, err)
}

func TestSaveDatasetRequiresID(t *testing.T) {
	openTempDatabase(t)

	assert.Error(t, SaveDataset(nil, nil))
	assert.Error(t, SaveDataset(&models.DatasetInfo{}, nil))
}
