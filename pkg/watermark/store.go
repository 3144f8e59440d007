package watermark

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"feedjournal/pkg/logger"
)

// Store persists the highest post identifier imported so far as the decimal
// content of a single file.
type Store struct {
	path   string
	logger logger.Logger
}

// NewStore creates a store backed by the file at path
func NewStore(path string, log logger.Logger) *Store {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Store{path: path, logger: log}
}

// Path returns the watermark file location
func (s *Store) Path() string {
	return s.path
}

// Restore reads the persisted watermark. A missing file yields 0. Any other
// read failure, or content that is not a non-negative integer, is returned
// as an error and must not be treated as "no watermark".
func (s *Store) Restore() (int64, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.DebugWithFields("No watermark file, starting from zero", map[string]interface{}{
				"path": s.path,
			})
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read watermark file: %w", err)
	}

	content := strings.TrimSpace(string(data))
	if content == "" {
		return 0, nil
	}

	value, err := strconv.ParseInt(content, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse watermark %q in %s: %w", content, s.path, err)
	}
	if value < 0 {
		return 0, fmt.Errorf("negative watermark %d in %s", value, s.path)
	}

	s.logger.DebugWithFields("Watermark restored", map[string]interface{}{
		"path":      s.path,
		"watermark": value,
	})
	return value, nil
}

// Persist overwrites the watermark file with value. A non-positive value is
// ignored so that a run which saw no posts never erases an existing
// watermark. The write is atomic: readers see the old or the new value.
func (s *Store) Persist(value int64) error {
	if value <= 0 {
		s.logger.DebugWithFields("Watermark not written, nothing observed", map[string]interface{}{
			"path": s.path,
		})
		return nil
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create watermark directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary watermark file: %w", err)
	}
	tempPath := tmp.Name()

	if _, err := tmp.WriteString(strconv.FormatInt(value, 10)); err != nil {
		tmp.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to write watermark: %w", err)
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync watermark file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close watermark file: %w", err)
	}

	if err := os.Chmod(tempPath, 0644); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to set watermark permissions: %w", err)
	}

	if err := os.Rename(tempPath, s.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace watermark file: %w", err)
	}

	s.logger.InfoWithFields("Watermark saved", map[string]interface{}{
		"path":      s.path,
		"watermark": value,
	})
	return nil
}
