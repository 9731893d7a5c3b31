package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// symbolNameRegex matches dotted symbol identifiers such as "star.fill" or
// "0.circle".
var symbolNameRegex = regexp.MustCompile(`^[a-z0-9]+(\.[a-z0-9]+)*$`)

// ValidateSymbolName validates a symbol catalog name before it is turned into
// a file path. It rejects names that could be used for path traversal.
func ValidateSymbolName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidSymbol, "symbol name cannot be empty")
	}

	if len(name) > 128 {
		return New(ErrCodeInvalidSymbol, "symbol name too long (max 128 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidSymbol, "symbol name contains invalid control characters")
		}
	}

	if strings.Contains(name, "..") || strings.ContainsAny(name, "/\\") {
		return New(ErrCodeInvalidSymbol, "symbol name contains path characters: %q", name)
	}

	if !symbolNameRegex.MatchString(name) {
		return New(ErrCodeInvalidSymbol, "invalid symbol name: %q", name)
	}

	return nil
}

// ValidatePath validates a relative file path for safety.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No absolute paths (must be relative)
//   - No path traversal sequences (..)
//   - No backslashes (Windows-style paths)
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	if strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidPath, "path must be relative (cannot start with /)")
	}

	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
	}

	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "path cannot contain backslashes")
	}

	return nil
}
