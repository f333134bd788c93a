package security

import (
	"errors"
	"regexp"
	"strings"
	"unicode"
)

const (
	// MaxDocumentIDLength defines the maximum allowed length in bytes for a document identifier
	MaxDocumentIDLength = 1500
)

// reservedIDPattern matches identifiers the document store reserves for itself
var reservedIDPattern = regexp.MustCompile(`^__.*__$`)

// ValidateDocumentID checks that id is usable as a user identifier in a request path or cursor
func ValidateDocumentID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", errors.New("document id is empty")
	}

	if len(id) > MaxDocumentIDLength {
		return "", errors.New("document id too long")
	}

	if id == "." || id == ".." {
		return "", errors.New("document id is reserved")
	}

	if reservedIDPattern.MatchString(id) {
		return "", errors.New("document id is reserved")
	}

	for _, char := range id {
		if !isValidIDChar(char) {
			return "", errors.New("document id contains invalid characters")
		}
	}

	return id, nil
}

// isValidIDChar rejects path separators and control characters
func isValidIDChar(char rune) bool {
	return char != '/' && char != '\\' && !unicode.IsControl(char) && !unicode.IsSpace(char)
}
