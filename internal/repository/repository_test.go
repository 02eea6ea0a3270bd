package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/fyerfyer/finsight/internal/database"
	"github.com/fyerfyer/finsight/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	// 使用唯一的内存数据库标识符
	dbName := fmt.Sprintf("file:memdb_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dbName), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err, "Failed to open in-memory database")
	require.NoError(t, database.AutoMigrate(db), "Failed to run migrations")
	return db
}

func newFile(id, name string) *models.FileMetadata {
	return &models.FileMetadata{
		ID:          id,
		StoredAs:    "stored-" + id,
		Name:        name,
		Size:        1024,
		ContentType: "application/pdf",
		Company:     "Acme",
	}
}

func TestFileRepository_CreateAndGet(t *testing.T) {
	repo := NewFileRepositoryWithDB(setupTestDB(t))

	require.NoError(t, repo.Create(newFile("f1", "acme.pdf")))

	file, err := repo.GetByID("f1")
	require.NoError(t, err)
	assert.Equal(t, "acme.pdf", file.Name)
	assert.Equal(t, models.FileStatusUploaded, file.Status)
	assert.False(t, file.UploadedAt.IsZero())

	_, err = repo.GetByID("missing")
	assert.ErrorIs(t, err, models.ErrFileNotFound)

	assert.Error(t, repo.Create(&models.FileMetadata{}))
}

func TestFileRepository_List(t *testing.T) {
	repo := NewFileRepositoryWithDB(setupTestDB(t))

	for i := 0; i < 5; i++ {
		f := newFile(fmt.Sprintf("f%d", i), fmt.Sprintf("report-%d.pdf", i))
		f.UploadedAt = time.Now().Add(time.Duration(i) * time.Minute)
		if i%2 == 0 {
			f.Company = "Zomato"
		}
		require.NoError(t, repo.Create(f))
	}
	require.NoError(t, repo.UpdateStatus("f4", models.FileStatusCompleted, ""))

	files, total, err := repo.List(0, 2, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, files, 2)
	// 新上传的在前
	assert.Equal(t, "f4", files[0].ID)

	files, total, err = repo.List(0, 10, map[string]interface{}{"company": "zom"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, files, 3)

	files, total, err = repo.List(0, 10, map[string]interface{}{"status": models.FileStatusCompleted})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "f4", files[0].ID)
}

func TestFileRepository_UpdateStatus(t *testing.T) {
	repo := NewFileRepositoryWithDB(setupTestDB(t))
	require.NoError(t, repo.Create(newFile("f1", "acme.pdf")))

	require.NoError(t, repo.UpdateStatus("f1", models.FileStatusFailed, "no pages"))
	file, err := repo.GetByID("f1")
	require.NoError(t, err)
	assert.Equal(t, models.FileStatusFailed, file.Status)
	assert.Equal(t, "no pages", file.Error)
	assert.Nil(t, file.AnalyzedAt)

	require.NoError(t, repo.UpdateStatus("f1", models.FileStatusCompleted, ""))
	require.NoError(t, repo.SetTotalPages("f1", 312))
	file, err = repo.GetByID("f1")
	require.NoError(t, err)
	assert.Empty(t, file.Error)
	assert.NotNil(t, file.AnalyzedAt)
	assert.Equal(t, 312, file.TotalPages)

	assert.ErrorIs(t, repo.UpdateStatus("f1", "archived", ""), models.ErrInvalidFileStatus)
	assert.ErrorIs(t, repo.UpdateStatus("missing", models.FileStatusCompleted, ""), models.ErrFileNotFound)
}

func TestFileRepository_DeleteCascades(t *testing.T) {
	db := setupTestDB(t)
	files := NewFileRepositoryWithDB(db)
	analyses := NewAnalysisRepositoryWithDB(db)

	require.NoError(t, files.Create(newFile("f1", "acme.pdf")))
	require.NoError(t, analyses.Create(&models.AnalysisRecord{ID: "a1", FileID: "f1", Kind: models.KindFinancial, Status: models.AnalysisCompleted}))

	require.NoError(t, files.Delete("f1"))
	_, err := files.GetByID("f1")
	assert.ErrorIs(t, err, models.ErrFileNotFound)
	_, err = analyses.GetByID("a1")
	assert.ErrorIs(t, err, models.ErrAnalysisNotFound)

	assert.ErrorIs(t, files.Delete("f1"), models.ErrFileNotFound)
}

func TestAnalysisRepository(t *testing.T) {
	repo := NewAnalysisRepositoryWithDB(setupTestDB(t))
	base := time.Now()

	old := &models.AnalysisRecord{
		ID: "a1", FileID: "f1", Kind: models.KindFinancial, Status: models.AnalysisCompleted,
		Result: datatypes.JSON(`{"company":"Old"}`), CreatedAt: base.Add(-time.Hour),
	}
	latest := &models.AnalysisRecord{
		ID: "a2", FileID: "f1", Kind: models.KindFinancial, Status: models.AnalysisCompleted,
		Result: datatypes.JSON(`{"company":"New"}`), CreatedAt: base,
	}
	pending := &models.AnalysisRecord{
		ID: "a3", FileID: "f1", Kind: models.KindFinancial, Status: models.AnalysisPending,
		TaskID: "task-1", CreatedAt: base.Add(time.Hour),
	}
	for _, rec := range []*models.AnalysisRecord{old, latest, pending} {
		require.NoError(t, repo.Create(rec))
	}

	got, err := repo.Latest("f1", models.KindFinancial)
	require.NoError(t, err)
	assert.Equal(t, "a2", got.ID)
	assert.JSONEq(t, `{"company":"New"}`, string(got.Result))

	_, err = repo.Latest("f1", models.KindNarrative)
	assert.ErrorIs(t, err, models.ErrAnalysisNotFound)

	got, err = repo.GetByTaskID("task-1")
	require.NoError(t, err)
	assert.Equal(t, "a3", got.ID)
	assert.False(t, got.Finished())

	got.Status = models.AnalysisFailed
	got.Error = "boom"
	require.NoError(t, repo.Update(got))
	got, err = repo.GetByID("a3")
	require.NoError(t, err)
	assert.True(t, got.Finished())
	assert.Equal(t, "boom", got.Error)

	list, err := repo.ListByFile("f1")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "a3", list[0].ID)
}
