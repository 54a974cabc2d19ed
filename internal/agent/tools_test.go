package agent

import (
	"Vybe_AI/internal/memory"
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedMemoryStore struct {
	docs []memory.Document
}

func (f *fixedMemoryStore) Ingest(ctx context.Context, collection string, doc memory.Document) error {
	f.docs = append(f.docs, doc)
	return nil
}

func (f *fixedMemoryStore) Query(ctx context.Context, collection, query string, topK int) ([]memory.Document, error) {
	return f.docs, nil
}

func (f *fixedMemoryStore) Stats(ctx context.Context, collection string) (*memory.Stats, error) {
	return &memory.Stats{Collection: collection, Count: int64(len(f.docs))}, nil
}

func TestWorkspaceRejectsEscapes(t *testing.T) {
	ws, err := NewWorkspace(t.TempDir())
	require.NoError(t, err)

	_, err = ws.Read("../outside.txt")
	assert.Error(t, err)

	err = ws.Write("../../etc/passwd", "nope")
	assert.Error(t, err)

	err = ws.Write("/tmp/absolute.txt", "nope")
	assert.Error(t, err)

	err = ws.Write("", "nope")
	assert.Error(t, err)
}

func TestWorkspaceFileRoundTrip(t *testing.T) {
	ws, err := NewWorkspace(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, ws.Write("notes/report.md", "# hello"))

	content, err := ws.Read("notes/report.md")
	require.NoError(t, err)
	assert.Equal(t, "# hello", content)

	names, err := ws.List("notes")
	require.NoError(t, err)
	assert.Equal(t, []string{"report.md"}, names)

	require.NoError(t, ws.Delete("notes/report.md"))
	_, err = ws.Read("notes/report.md")
	assert.Error(t, err)
}

func TestDispatchReceipts(t *testing.T) {
	ts := testToolset(t)
	ctx := context.Background()

	receipt, err := ts.Dispatch(ctx, "a1", ToolWebSearch, map[string]interface{}{"query": "cats"})
	require.NoError(t, err)
	assert.Equal(t, "Web search completed for: cats", receipt)

	receipt, err = ts.Dispatch(ctx, "a1", ToolGenerateImage, map[string]interface{}{"prompt": "a cat"})
	require.NoError(t, err)
	assert.Equal(t, "Image generated for prompt: a cat", receipt)

	// Missing args degrade to "unknown", not an error.
	receipt, err = ts.Dispatch(ctx, "a1", ToolSpeakText, nil)
	require.NoError(t, err)
	assert.Equal(t, "Text-to-speech completed for: unknown", receipt)
}

func TestDispatchUnknownTool(t *testing.T) {
	ts := testToolset(t)

	assert.False(t, ts.Known("ai_web_scrape"))
	_, err := ts.Dispatch(context.Background(), "a1", "ai_web_scrape", nil)
	assert.Error(t, err)
}

func TestDispatchFileTools(t *testing.T) {
	ts := testToolset(t)
	ctx := context.Background()

	receipt, err := ts.Dispatch(ctx, "a1", ToolWriteFile, map[string]interface{}{
		"filename": "out.md",
		"content":  "body",
	})
	require.NoError(t, err)
	assert.Equal(t, "Wrote to file: out.md", receipt)

	receipt, err = ts.Dispatch(ctx, "a1", ToolReadFile, map[string]interface{}{"filename": "out.md"})
	require.NoError(t, err)
	assert.Contains(t, receipt, "body")

	// Expected-input problems come back as failure receipts, not errors.
	receipt, err = ts.Dispatch(ctx, "a1", ToolWriteFile, nil)
	require.NoError(t, err)
	assert.Equal(t, "File write failed: filename is required", receipt)

	receipt, err = ts.Dispatch(ctx, "a1", ToolDeleteFile, map[string]interface{}{"filename": "out.md"})
	require.NoError(t, err)
	assert.Equal(t, "Deleted file: out.md", receipt)
}

func TestDispatchHomeAssistantRequiresServiceAndEntity(t *testing.T) {
	ts := testToolset(t)

	receipt, err := ts.Dispatch(context.Background(), "a1", ToolHomeAssistant, map[string]interface{}{
		"service": "light.turn_on",
	})
	require.NoError(t, err)
	assert.Equal(t, "Error: Both 'service' and 'entity_id' are required for Home Assistant control", receipt)
}

func TestDispatchUnconfiguredCollaborators(t *testing.T) {
	ts := testToolset(t)
	ctx := context.Background()

	_, err := ts.Dispatch(ctx, "a1", ToolExecutePython, map[string]interface{}{"code": "print(1)"})
	assert.Error(t, err)

	_, err = ts.Dispatch(ctx, "a1", ToolStoreMemory, map[string]interface{}{"content": "fact"})
	assert.Error(t, err)
}

func TestRetrieveMemoriesTruncatesOnRuneBoundary(t *testing.T) {
	ts := testToolset(t)
	ts.Memory = &fixedMemoryStore{docs: []memory.Document{{Content: strings.Repeat("忆", 150)}}}
	ts.MemoryCollection = "agent_memory"

	receipt, err := ts.Dispatch(context.Background(), "a1", ToolRetrieveMemories, map[string]interface{}{"query": "past"})
	require.NoError(t, err)
	assert.True(t, utf8.ValidString(receipt))
	assert.Contains(t, receipt, strings.Repeat("忆", 100)+"...")
	assert.NotContains(t, receipt, strings.Repeat("忆", 101))
}

func TestKnownToolsMatchesDispatchTable(t *testing.T) {
	ts := testToolset(t)
	for _, tool := range KnownTools() {
		assert.True(t, ts.Known(tool), tool)
	}
	assert.Len(t, KnownTools(), 15)
}
