package storage

import (
	"errors"
	"ntpbg/internal/models"
	"ntpbg/internal/testutil"
	"os"
	"path/filepath"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPrefs() *models.PrefStore {
	prefs := models.NewPrefStore()
	prefs.RegisterBoolean(models.PrefShowBackgroundImage, true)
	prefs.RegisterInteger(models.PrefSuperReferralThemesOption, models.SuperReferral)
	prefs.RegisterList(models.PrefNewTabsCreated)
	return prefs
}

func TestFileManager_SaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.dat")
	comp, err := NewZstdCompressor()
	require.NoError(t, err)
	defer comp.Close()

	src := newPrefs()
	src.SetBoolean(models.PrefShowBackgroundImage, false)
	src.SetInteger(models.PrefSuperReferralThemesOption, models.SuperReferralDefault)
	src.SetList(models.PrefNewTabsCreated, []any{map[string]any{"day": "2024-03-10", "value": 4}})

	require.NoError(t, NewFileManager(comp, src, &testutil.MockLogger{}).SaveToFile(path))
	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))

	dst := newPrefs()
	require.NoError(t, NewFileManager(comp, dst, &testutil.MockLogger{}).LoadFromFile(path))
	assert.False(t, dst.GetBoolean(models.PrefShowBackgroundImage))
	assert.Equal(t, models.SuperReferralDefault, dst.GetInteger(models.PrefSuperReferralThemesOption))
	require.Len(t, dst.GetList(models.PrefNewTabsCreated), 1)
}

func TestFileManager_LoadMissingFile(t *testing.T) {
	fm := NewFileManager(&testutil.MockCompressor{}, newPrefs(), &testutil.MockLogger{})
	assert.NoError(t, fm.LoadFromFile(filepath.Join(t.TempDir(), "absent.dat")))
}

func TestFileManager_LoadUnversionedFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy.dat")
	raw, err := json.Marshal(map[string]any{models.PrefShowBackgroundImage: false})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, raw, 0644))

	prefs := newPrefs()
	logger := &testutil.MockLogger{}
	require.NoError(t, NewFileManager(&testutil.MockCompressor{}, prefs, logger).LoadFromFile(path))
	assert.False(t, prefs.GetBoolean(models.PrefShowBackgroundImage))
	assert.Equal(t, 2, logger.Count("warn"))
}

func TestFileManager_LoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt.dat")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0644))

	fm := NewFileManager(&testutil.MockCompressor{}, newPrefs(), &testutil.MockLogger{})
	assert.Error(t, fm.LoadFromFile(path))
}

func TestFileManager_CompressorErrors(t *testing.T) {
	dir := t.TempDir()
	boom := errors.New("boom")

	fm := NewFileManager(&testutil.MockCompressor{
		CompressFn: func([]byte) ([]byte, error) { return nil, boom },
	}, newPrefs(), &testutil.MockLogger{})
	assert.ErrorIs(t, fm.SaveToFile(filepath.Join(dir, "a.dat")), boom)

	path := filepath.Join(dir, "b.dat")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0644))
	fm = NewFileManager(&testutil.MockCompressor{
		DecompressFn: func([]byte) ([]byte, error) { return nil, boom },
	}, newPrefs(), &testutil.MockLogger{})
	assert.ErrorIs(t, fm.LoadFromFile(path), boom)
}

func TestFileManager_SaveToMissingDir(t *testing.T) {
	fm := NewFileManager(&testutil.MockCompressor{}, newPrefs(), &testutil.MockLogger{})
	assert.Error(t, fm.SaveToFile(filepath.Join(t.TempDir(), "missing", "prefs.dat")))
}

func TestFileManager_Close(t *testing.T) {
	comp := &testutil.MockCompressor{}
	NewFileManager(comp, newPrefs(), &testutil.MockLogger{}).Close()
	assert.True(t, comp.Closed)
}
