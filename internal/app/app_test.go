package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/imadgeboyega/kiekky-weekly/internal/config"
	"github.com/imadgeboyega/kiekky-weekly/internal/matching"
	"github.com/imadgeboyega/kiekky-weekly/internal/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const fixture = `
profiles:
  - user_id: ana
    gender: female
    birth_date: 2004-03-01
    year: second
    school: pomona
    majors: [economics]
  - user_id: ben
    gender: male
    birth_date: 2003-09-12
    year: third
    school: pomona
    majors: [economics]
preferences:
  - user_id: ana
    genders: [male]
  - user_id: ben
    genders: [female]
responses:
  week-1: [ana, ben]
`

func memoryConfig(fixtureFile string) *config.Config {
	return &config.Config{
		Environment:      "development",
		StoreBackend:     config.StoreMemory,
		FixtureFile:      fixtureFile,
		WriteConcurrency: 2,
		LoadTimeout:      time.Minute,
		LockTTL:          time.Minute,
	}
}

func TestNewWithMemoryFixture(t *testing.T) {
	path := filepath.Join(t.TempDir(), "week.yaml")
	require.NoError(t, os.WriteFile(path, []byte(fixture), 0o600))

	a, err := New(context.Background(), memoryConfig(path), zap.NewNop())
	require.NoError(t, err)
	defer a.Close()

	assert.IsType(t, &memory.Store{}, a.Repo)
	assert.IsType(t, &memory.Locker{}, a.Locker)

	report, err := a.Service.Generate(context.Background(), "week-1", matching.GenerateOptions{})
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{"ana": {"ben"}, "ben": {"ana"}}, report.Final)
	assert.Equal(t, 2, report.Written)
}

func TestNewRejectsUnknownBackend(t *testing.T) {
	cfg := memoryConfig("")
	cfg.StoreBackend = "mongo"

	_, err := New(context.Background(), cfg, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid store backend")
}

func TestNewFailsOnMissingFixture(t *testing.T) {
	_, err := New(context.Background(), memoryConfig(filepath.Join(t.TempDir(), "absent.yaml")), zap.NewNop())
	require.Error(t, err)
}
