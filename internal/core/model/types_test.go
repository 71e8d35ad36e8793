package model

import (
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlexibleContentUnmarshalJSON(t *testing.T) {
	tests := []struct {
		name        string
		jsonData    string
		expected    FlexibleContent
		expectError bool
	}{
		{
			name:     "string_content",
			jsonData: `"Hello, world!"`,
			expected: FlexibleContent{{Type: "text", Text: "Hello, world!"}},
		},
		{
			name:     "array_content",
			jsonData: `[{"type": "text", "text": "first"}, {"type": "tool_use", "name": "Edit", "id": "toolu_1"}]`,
			expected: FlexibleContent{
				{Type: "text", Text: "first"},
				{Type: "tool_use", Name: "Edit", Id: "toolu_1"},
			},
		},
		{
			name:     "empty_array",
			jsonData: `[]`,
			expected: FlexibleContent{},
		},
		{
			name:        "number_is_rejected",
			jsonData:    `42`,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var fc FlexibleContent
			err := sonic.Unmarshal([]byte(tt.jsonData), &fc)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, fc)
		})
	}
}

func TestFlexibleToolResultUnmarshalJSON(t *testing.T) {
	t.Run("object", func(t *testing.T) {
		var fr FlexibleToolResult
		data := `{"filePath": "/tmp/a.go", "oldString": "a", "newString": "b",
			"structuredPatch": [{"oldStart": 1, "oldLines": 1, "newStart": 1, "newLines": 1, "lines": ["-a", "+b"]}]}`
		require.NoError(t, sonic.Unmarshal([]byte(data), &fr))
		require.NotNil(t, fr.Result)
		assert.Equal(t, "/tmp/a.go", fr.Result.FilePath)
		assert.Len(t, fr.Result.StructuredPatch, 1)
	})

	t.Run("error_string", func(t *testing.T) {
		var fr FlexibleToolResult
		require.NoError(t, sonic.Unmarshal([]byte(`"Error: String to replace not found"`), &fr))
		assert.Nil(t, fr.Result)
		assert.Equal(t, "Error: String to replace not found", fr.Message)
	})

	t.Run("other_shape_is_ignored", func(t *testing.T) {
		var fr FlexibleToolResult
		require.NoError(t, sonic.Unmarshal([]byte(`[1, 2, 3]`), &fr))
		assert.Nil(t, fr.Result)
		assert.Empty(t, fr.Message)
	})
}

func TestConversationLogEditToolUse(t *testing.T) {
	line := `{"type":"assistant","sessionId":"s1","timestamp":"2025-01-01T10:00:00Z","uuid":"u1",
		"message":{"role":"assistant","model":"claude-sonnet-4-20250514","content":[
			{"type":"tool_use","id":"toolu_1","name":"Edit","input":{"file_path":"/src/main.go","old_string":"a\n","new_string":"b\n"}}]}}`

	var log ConversationLog
	require.NoError(t, sonic.Unmarshal([]byte(line), &log))
	require.Len(t, log.Message.Content, 1)

	item := log.Message.Content[0]
	assert.Equal(t, "tool_use", item.Type)
	assert.Equal(t, "Edit", item.Name)
	assert.Equal(t, "/src/main.go", item.Input.FilePath)
	assert.Equal(t, "a\n", item.Input.OldString)
	assert.Equal(t, "b\n", item.Input.NewString)
}

func TestPatchCounts(t *testing.T) {
	hunks := []StructuredpatchItem{
		{Lines: []string{" keep", "-old", "+new", "+extra"}},
		{Lines: []string{"", "-gone"}},
	}
	added, removed := PatchCounts(hunks)
	assert.Equal(t, 2, added)
	assert.Equal(t, 2, removed)

	added, removed = PatchCounts(nil)
	assert.Zero(t, added)
	assert.Zero(t, removed)
}

func TestEditStatusString(t *testing.T) {
	assert.Equal(t, "pending", EditPending.String())
	assert.Equal(t, "success", EditSucceeded.String())
	assert.Equal(t, "failed", EditFailed.String())
}

func TestDiffKindString(t *testing.T) {
	assert.Equal(t, "unchanged", DiffUnchanged.String())
	assert.Equal(t, "added", DiffAdded.String())
	assert.Equal(t, "removed", DiffRemoved.String())
}
