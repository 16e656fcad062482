package errors

import (
	"path/filepath"
	"strings"
	"unicode"
)

// maxKeyLength bounds record keys so they fit every backend's key column.
const maxKeyLength = 128

// ValidateKey validates a contract record key.
// Keys end up as file names, Redis keys and primary key values, so the rules are
// conservative:
//   - No empty keys
//   - No control characters
//   - No path separators or traversal sequences
//   - Maximum length of 128 characters
func ValidateKey(key string) error {
	if key == "" {
		return New(ErrCodeInvalidInput, "record key cannot be empty")
	}

	if len(key) > maxKeyLength {
		return New(ErrCodeInvalidInput, "record key too long (max %d characters)", maxKeyLength)
	}

	for _, r := range key {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "record key contains invalid control characters")
		}
	}

	for _, pattern := range []string{"..", "/", "\\"} {
		if strings.Contains(key, pattern) {
			return New(ErrCodeInvalidInput, "record key contains invalid characters: %q", pattern)
		}
	}

	return nil
}

// ValidateExportPath validates the destination of a printable export.
// The path may be absolute but must name a .png file and contain no control characters.
func ValidateExportPath(path string) error {
	if strings.TrimSpace(path) == "" {
		return New(ErrCodeInvalidPath, "export path cannot be empty")
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "export path contains invalid characters")
		}
	}

	if !strings.EqualFold(filepath.Ext(path), ".png") {
		return New(ErrCodeInvalidPath, "export path must end in .png, got %q", filepath.Base(path))
	}

	return nil
}
