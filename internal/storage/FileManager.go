package storage

import (
	"fmt"
	json "github.com/goccy/go-json"
	"ntpbg/internal/providers"
	"ntpbg/internal/storage/interfaces"
	"os"
)

const prefsFileVersion = 1

type prefsFile struct {
	Version int            `json:"version"`
	Prefs   map[string]any `json:"prefs"`
}

// FileManager persists the preference store snapshot. The file is written to
// a temporary path and renamed so a crash never leaves a torn file behind.
type FileManager struct {
	prefs      interfaces.PrefSnapshotter
	compressor interfaces.CompressorInterface
	logger     providers.Logger
}

func NewFileManager(compressor interfaces.CompressorInterface, prefs interfaces.PrefSnapshotter, logger providers.Logger) *FileManager {
	return &FileManager{
		compressor: compressor,
		prefs:      prefs,
		logger:     logger,
	}
}

func (f *FileManager) SaveToFile(fileName string) error {
	jsonData, err := json.Marshal(prefsFile{Version: prefsFileVersion, Prefs: f.prefs.Snapshot()})
	if err != nil {
		return fmt.Errorf("encode prefs: %w", err)
	}
	data, err := f.compressor.Compress(jsonData)
	if err != nil {
		return fmt.Errorf("compress prefs: %w", err)
	}

	tmpFile := fileName + ".tmp"
	file, err := os.Create(tmpFile)
	if err != nil {
		return err
	}

	_, err = file.Write(data)
	if err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}

	if err = file.Sync(); err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}

	if err = file.Close(); err != nil {
		os.Remove(tmpFile)
		return err
	}

	return os.Rename(tmpFile, fileName)
}

func (f *FileManager) Close() {
	f.compressor.Close()
}

// LoadFromFile restores the snapshot. A missing file is not an error: the
// daemon starts with default prefs.
func (f *FileManager) LoadFromFile(fileName string) error {
	data, err := os.ReadFile(fileName)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	decompressedData, err := f.compressor.Decompress(data)
	if err != nil {
		return fmt.Errorf("decompress prefs: %w", err)
	}

	var file prefsFile
	if err := json.Unmarshal(decompressedData, &file); err == nil && file.Version > 0 && file.Prefs != nil {
		if file.Version > prefsFileVersion {
			f.logger.Warnf(providers.TypeApp, "Prefs file version %d is newer than supported %d", file.Version, prefsFileVersion)
		}
		f.prefs.Restore(file.Prefs)
		return nil
	}

	// Unversioned files hold the bare prefs map.
	f.logger.Warnf(providers.TypeApp, "Unversioned prefs file found, try to migrate")
	var prefs map[string]any
	if err := json.Unmarshal(decompressedData, &prefs); err != nil {
		f.logger.Warnf(providers.TypeApp, "Migration failed")
		return fmt.Errorf("decode prefs: %w", err)
	}
	f.logger.Warnf(providers.TypeApp, "Migration from unversioned format successful")
	f.prefs.Restore(prefs)
	return nil
}
