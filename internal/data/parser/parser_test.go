package parser

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/penwyp/go-usage-board/internal/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const editTranscript = `{"type":"user","uuid":"u1","sessionId":"s1","timestamp":"2025-01-01T10:00:00Z","message":{"role":"user","content":"rename the variable"}}
{"type":"assistant","uuid":"u2","sessionId":"s1","timestamp":"2025-01-01T10:00:05Z","message":{"role":"assistant","content":[{"type":"text","text":"Updating."},{"type":"tool_use","id":"toolu_1","name":"Edit","input":{"file_path":"/src/main.go","old_string":"a := 1\nb := 2\n","new_string":"a := 1\nc := 2\n"}}]}}
{"type":"user","uuid":"u3","sessionId":"s1","timestamp":"2025-01-01T10:00:06Z","message":{"role":"user","content":[{"type":"tool_result","tool_use_id":"toolu_1","content":"ok"}]},"toolUseResult":{"filePath":"/src/main.go","oldString":"b := 2","newString":"c := 2","structuredPatch":[{"oldStart":1,"oldLines":2,"newStart":1,"newLines":2,"lines":[" a := 1","-b := 2","+c := 2"]}]}}
{"type":"assistant","uuid":"u4","sessionId":"s1","timestamp":"2025-01-01T10:01:00Z","message":{"role":"assistant","content":[{"type":"tool_use","id":"toolu_2","name":"Edit","input":{"file_path":"/src/util.go","old_string":"missing","new_string":"x"}}]}}
{"type":"user","uuid":"u5","sessionId":"s1","timestamp":"2025-01-01T10:01:01Z","message":{"role":"user","content":[{"type":"tool_result","tool_use_id":"toolu_2","is_error":true,"content":"String to replace not found"}]},"toolUseResult":"Error: String to replace not found"}
{"type":"assistant","uuid":"u6","sessionId":"s1","timestamp":"2025-01-01T10:02:00Z","message":{"role":"assistant","content":[{"type":"tool_use","id":"toolu_3","name":"MultiEdit","input":{"file_path":"/src/app.py","edits":[{"old_string":"x = 1\n","new_string":"x = 2\n"},{"old_string":"y\n","new_string":"z\n"}]}}]}}
{"type":"assistant","uuid":"u7","sessionId":"s1","timestamp":"2025-01-01T10:03:00Z","message":{"role":"assistant","content":[{"type":"tool_use","id":"toolu_4","name":"Bash","input":{"command":"ls"}}]}}
`

func writeTranscript(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "session.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestParseSkipsInvalidLines(t *testing.T) {
	input := `{"type":"user","uuid":"u1","message":{"role":"user","content":"Hello"}}
invalid json line here

{"type":"assistant","uuid":"u2","message":{"role":"assistant","content":"Hi"}}`

	logs, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "u1", logs[0].Uuid)
	assert.Equal(t, "Hi", logs[1].Message.Content[0].Text)
}

func TestParseFileNonExistent(t *testing.T) {
	_, err := ParseFile(filepath.Join(t.TempDir(), "missing.jsonl"))
	assert.True(t, os.IsNotExist(err))
}

func TestParseFileEmpty(t *testing.T) {
	logs, err := ParseFile(writeTranscript(t, ""))
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestParseEdits(t *testing.T) {
	edits, err := ParseEdits(writeTranscript(t, editTranscript))
	require.NoError(t, err)
	require.Len(t, edits, 4)

	first := edits[0]
	assert.Equal(t, "toolu_1", first.ToolUseID)
	assert.Equal(t, "/src/main.go", first.FilePath)
	assert.Equal(t, "a := 1\nb := 2\n", first.OldString)
	assert.Equal(t, model.EditSucceeded, first.Status)
	assert.True(t, first.Reported)
	assert.Equal(t, 1, first.ReportedAdded)
	assert.Equal(t, 1, first.ReportedRemoved)

	failed := edits[1]
	assert.Equal(t, model.EditFailed, failed.Status)
	assert.False(t, failed.Reported)

	for _, multi := range edits[2:] {
		assert.Equal(t, "toolu_3", multi.ToolUseID)
		assert.Equal(t, "/src/app.py", multi.FilePath)
		assert.Equal(t, model.EditPending, multi.Status)
	}
	assert.Equal(t, "y\n", edits[3].OldString)
}

func TestExtractEditsIgnoresOrphanResults(t *testing.T) {
	input := `{"type":"user","message":{"role":"user","content":[{"type":"tool_result","tool_use_id":"unknown"}]}}`
	logs, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	assert.Empty(t, ExtractEdits(logs))
}

func TestParseLargeLine(t *testing.T) {
	big := strings.Repeat("x", 2*1024*1024)
	input := `{"type":"assistant","message":{"role":"assistant","content":[{"type":"tool_use","id":"t","name":"Edit","input":{"file_path":"f","old_string":"","new_string":"` + big + `"}}]}}`

	edits, err := ParseEdits(writeTranscript(t, input))
	require.NoError(t, err)
	require.Len(t, edits, 1)
	assert.Len(t, edits[0].NewString, len(big))
}
