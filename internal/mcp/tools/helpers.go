// Package tools contains MCP tool implementations for docschema.
package tools

import (
	"strings"
)

// MIME type constant.
const MimeJSON = "application/json"

// maxCollectionName bounds collection names; they are used in resource URIs.
const maxCollectionName = 128

// validateCollection checks a collection name.
func validateCollection(name string) error {
	switch {
	case name == "":
		return ErrInvalidInput("collection is required")
	case len(name) > maxCollectionName:
		return ErrInvalidInput("collection name is too long")
	case strings.ContainsAny(name, "/\x00"):
		return ErrInvalidInput("collection name must not contain '/'")
	}
	return nil
}
