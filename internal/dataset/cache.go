package dataset

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"olist-dashboard/internal/models"
)

const cacheVersion = "v1"

type cachedSnapshot struct {
	Records  []models.OrderRecord
	Stats    LoadStats
	Source   string
	LoadedAt time.Time
}

func (l *Loader) cacheFilename(csvPath string) string {
	name := strings.NewReplacer("/", "_", "\\", "_", ":", "_").Replace(csvPath)
	return filepath.Join(l.cacheDir, fmt.Sprintf("%s_%s.gob", name, cacheVersion))
}

func (l *Loader) saveToCache(csvPath string, snap *Snapshot) error {
	if err := os.MkdirAll(l.cacheDir, 0o755); err != nil {
		return err
	}

	file, err := os.Create(l.cacheFilename(csvPath))
	if err != nil {
		return err
	}
	defer file.Close()

	return gob.NewEncoder(file).Encode(cachedSnapshot{
		Records:  snap.records,
		Stats:    snap.stats,
		Source:   snap.source,
		LoadedAt: snap.loadedAt,
	})
}

func (l *Loader) loadFromCache(csvPath string) (*Snapshot, error) {
	file, err := os.Open(l.cacheFilename(csvPath))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var cached cachedSnapshot
	if err := gob.NewDecoder(file).Decode(&cached); err != nil {
		return nil, err
	}

	// records are already sorted; rebuilding keeps bounds in one place.
	snap := NewSnapshot(cached.Records, cached.Stats)
	snap.source = cached.Source
	snap.loadedAt = cached.LoadedAt
	return snap, nil
}
