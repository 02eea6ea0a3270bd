package database

import (
	"fmt"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/fyerfyer/finsight/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestOpenMigratesModels(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DSN = fmt.Sprintf("file:dbtest_%d?mode=memory&cache=shared", time.Now().UnixNano())

	db, err := Open(cfg, quietLogger())
	require.NoError(t, err)

	assert.True(t, db.Migrator().HasTable(&models.FileMetadata{}))
	assert.True(t, db.Migrator().HasTable(&models.AnalysisRecord{}))
}

func TestSetupCreatesDirectory(t *testing.T) {
	original := DB
	defer func() { DB = original }()

	cfg := DefaultConfig()
	cfg.DSN = filepath.Join(t.TempDir(), "nested", "finsight.db")

	require.NoError(t, Setup(cfg, quietLogger()))
	assert.NotNil(t, MustDB())
	assert.FileExists(t, cfg.DSN)
	require.NoError(t, Close())
}

func TestMustDBPanicsWhenUninitialized(t *testing.T) {
	original := DB
	defer func() { DB = original }()

	DB = nil
	assert.PanicsWithValue(t, ErrNotInitialized, func() { MustDB() })
}

func TestOpenUnsupportedType(t *testing.T) {
	_, err := Open(&Config{Type: "oracle"}, quietLogger())
	assert.Error(t, err)
}
