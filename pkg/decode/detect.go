package decode

import (
	"bytes"
	"encoding/binary"
	"mime"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// DetectFormat guesses the format of a file from its name, falling back to
// sniffing the first bytes of its content. Plain JSON is never guessed:
// Extended JSON is a superset for every document without "$" keys.
func DetectFormat(filename string, head []byte) Format {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".json", ".jsonl", ".ndjson", ".ejson":
		return FormatExtJSON
	case ".yaml", ".yml":
		return FormatYAML
	case ".bson":
		return FormatBSON
	}

	trimmed := bytes.TrimLeft(head, " \t\r\n")
	if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') {
		return FormatExtJSON
	}
	if looksLikeBSON(head) {
		return FormatBSON
	}
	if utf8.Valid(head) {
		return FormatYAML
	}
	return FormatBSON
}

// looksLikeBSON checks for a plausible length prefix followed by an element
// type byte or the terminator of an empty document.
func looksLikeBSON(head []byte) bool {
	if len(head) < 5 {
		return false
	}
	size := binary.LittleEndian.Uint32(head)
	if size < 5 || size > DefaultMaxDocumentBytes {
		return false
	}
	t := head[4]
	return t == 0x00 || (t >= 0x01 && t <= 0x13) || t == 0x7F || t == 0xFF
}

// FormatForMediaType maps a content type to a format. ok is false when the
// media type names none of the supported formats.
func FormatForMediaType(contentType string) (f Format, ok bool) {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(contentType))
	}
	switch {
	case strings.Contains(mediaType, "bson"):
		return FormatBSON, true
	case strings.Contains(mediaType, "json"):
		return FormatExtJSON, true
	case strings.Contains(mediaType, "yaml"):
		return FormatYAML, true
	}
	return "", false
}
