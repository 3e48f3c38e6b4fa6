package prompts

import (
	"context"
	"testing"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func promptText(t *testing.T, cfg *Config, args map[string]string) string {
	t.Helper()
	req := &sdkmcp.GetPromptRequest{Params: &sdkmcp.GetPromptParams{Name: "infer_schema", Arguments: args}}
	res, err := HandleInferSchema(cfg)(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, res.Messages, 1)
	text, ok := res.Messages[0].Content.(*sdkmcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestHandleInferSchema(t *testing.T) {
	cfg := &Config{SampleSize: 10, MaxCollections: 64}

	text := promptText(t, cfg, map[string]string{"collection": "orders", "format": "yaml"})
	assert.Contains(t, text, `docschema_ingest(collection: "orders", format: "yaml", documents: [...])`)
	assert.Contains(t, text, "Up to 10 distinct sample values")
	assert.Contains(t, text, "Arrays are opaque")

	cfg.TraverseArrays = true
	text = promptText(t, cfg, nil)
	assert.Contains(t, text, `docschema_snapshot(collection: "docs", max_samples: 3)`)
	assert.Contains(t, text, "Documents inside arrays are traversed")
}
