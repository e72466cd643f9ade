package images

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Storage performs file operations on stored images addressed by their
// relative locators. Locators come from trusted metadata rows, but paths
// are still validated against escaping the base directory.
type Storage struct {
	layout *Layout
}

// NewStorage creates a Storage over the given layout.
func NewStorage(layout *Layout) *Storage {
	return &Storage{layout: layout}
}

// Read returns the file bytes for a locator.
func (s *Storage) Read(locator string) ([]byte, error) {
	abs, err := s.resolve(locator)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("image not found at %s: %w", locator, err)
		}
		return nil, fmt.Errorf("read image file: %w", err)
	}
	return data, nil
}

// Exists checks whether a file exists at the locator.
func (s *Storage) Exists(locator string) bool {
	abs, err := s.resolve(locator)
	if err != nil {
		return false
	}
	_, err = os.Stat(abs)
	return err == nil
}

// Delete removes the file at the locator. A missing file is treated as
// success, which makes repeated deletes idempotent.
func (s *Storage) Delete(locator string) error {
	abs, err := s.resolve(locator)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("delete image file: %w", err)
	}
	return nil
}

// resolve validates a locator and maps it to an absolute path.
func (s *Storage) resolve(locator string) (string, error) {
	if locator == "" {
		return "", fmt.Errorf("locator cannot be empty")
	}
	clean := filepath.Clean(filepath.FromSlash(locator))
	if strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("invalid locator %q", locator)
	}
	return filepath.Join(s.layout.Base(), clean), nil
}
