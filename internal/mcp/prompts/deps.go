// Package prompts contains MCP prompt implementations for docschema.
package prompts

// Config holds configuration needed by prompts.
type Config struct {
	SampleSize     int
	TraverseArrays bool
	MaxCollections int
}
