// Store footprint on disk, reported by `simrec status`.
package storage

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/hyperjump/simrec/internal/config"
)

// StoreFiles returns the paths that hold the data of a store opened with cfg: the
// badger directory, or the SQLite database with its -wal and -shm companions. The
// memory driver has none.
func StoreFiles(cfg config.StoreConfig) []string {
	switch cfg.Driver {
	case config.DriverMemory:
		return nil
	case config.DriverSQLite:
		if cfg.Path == "" {
			return nil
		}
		return []string{cfg.Path, cfg.Path + "-wal", cfg.Path + "-shm"}
	default:
		if cfg.Path == "" {
			return nil
		}
		return []string{cfg.Path}
	}
}

// DiskUsage sums the sizes of StoreFiles(cfg). ok is false for stores that live
// only in memory.
func DiskUsage(cfg config.StoreConfig) (size int64, ok bool, err error) {
	paths := StoreFiles(cfg)
	if len(paths) == 0 {
		return 0, false, nil
	}
	size, err = DiskUsageBytes(paths...)
	return size, err == nil, err
}

// DiskUsageBytes returns the total size of the files under paths. Directories are
// walked; paths that do not exist count as zero.
func DiskUsageBytes(paths ...string) (int64, error) {
	var total int64
	for _, p := range paths {
		if p == "" {
			continue
		}
		err := filepath.WalkDir(p, func(_ string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			info, err := d.Info()
			if err != nil {
				return err
			}
			total += info.Size()
			return nil
		})
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return 0, err
		}
	}
	return total, nil
}
