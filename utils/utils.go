package utils

import (
	"path/filepath"
	"regexp"

	"github.com/google/uuid"
)

// GetUUID returns a fresh random identifier, used for request ids.
func GetUUID() string {
	return uuid.New().String()
}

var filenameRe = regexp.MustCompile(`[^\w.\-]`)

// SanitizeFilename strips path components and replaces anything outside
// [word, dot, dash] with underscores.
func SanitizeFilename(name string) string {
	clean := filenameRe.ReplaceAllString(filepath.Base(name), "_")
	if clean == "" {
		return "file"
	}
	return clean
}
