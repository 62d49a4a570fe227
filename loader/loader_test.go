package loader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stigctl/engine/apply"
)

func TestParseYAMLBatch(t *testing.T) {
	doc := []byte(`
operations:
  - type: create_entity
  - type: upsert_invariant
    asserts: "hp > 0"
`)
	req, err := ParseYAML(doc)
	require.NoError(t, err)
	require.Len(t, req.Operations, 2)
	assert.Equal(t, apply.OpCreateEntity, req.Operations[0].Type)
	assert.Equal(t, apply.OpUpsertInvariant, req.Operations[1].Type)
	assert.Equal(t, "hp > 0", req.Operations[1].Asserts)
}

func TestParseMarkdownExtractsFencedBlock(t *testing.T) {
	doc := []byte("# Batch\n\nSome prose explaining the batch.\n\n```yaml\noperations:\n  - type: create_entity\n```\n\nTrailing notes.\n")
	req, err := ParseMarkdown(doc)
	require.NoError(t, err)
	require.Len(t, req.Operations, 1)
	assert.Equal(t, apply.OpCreateEntity, req.Operations[0].Type)
}

func TestParseMarkdownNoFencedBlockErrors(t *testing.T) {
	_, err := ParseMarkdown([]byte("# Batch\n\nNo code here.\n"))
	require.Error(t, err)
}

func TestParseYAMLInvalidOperationType(t *testing.T) {
	req, err := ParseYAML([]byte(`operations: [{type: not_a_real_op}]`))
	require.NoError(t, err)
	require.Len(t, req.Operations, 1)
	assert.Equal(t, apply.OpType("not_a_real_op"), req.Operations[0].Type)
}
