package parser

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/bytedance/sonic"
	"github.com/penwyp/go-usage-board/internal/core/model"
	"github.com/penwyp/go-usage-board/internal/util"
)

const (
	toolEdit      = "Edit"
	toolMultiEdit = "MultiEdit"
)

// ParseFile reads a session transcript (JSONL) and returns its valid lines.
func ParseFile(path string) ([]model.ConversationLog, error) {
	util.LogDebug("Start parsing file", util.F("path", path))

	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	logs, err := Parse(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return logs, nil
}

// Parse decodes one ConversationLog per line, skipping lines that are not
// valid JSON.
func Parse(r io.Reader) ([]model.ConversationLog, error) {
	var logs []model.ConversationLog
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)

	lineCount := 0
	for scanner.Scan() {
		lineCount++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var log model.ConversationLog
		if err := sonic.Unmarshal(line, &log); err != nil {
			util.LogDebug("Skip invalid JSON line", util.F("line", lineCount), util.F("error", err))
			continue
		}
		logs = append(logs, log)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return logs, nil
}

// ExtractEdits pairs every Edit and MultiEdit tool call with its tool
// result and returns the edits in transcript order. Calls without a result
// stay pending.
func ExtractEdits(logs []model.ConversationLog) []model.EditOperation {
	var edits []model.EditOperation
	byID := make(map[string][]int)

	for _, log := range logs {
		for _, item := range log.Message.Content {
			switch item.Type {
			case "tool_use":
				ops := editsFromToolUse(item, log.Timestamp)
				for _, op := range ops {
					byID[op.ToolUseID] = append(byID[op.ToolUseID], len(edits))
					edits = append(edits, op)
				}
			case "tool_result":
				indexes, ok := byID[item.ToolUseId]
				if !ok {
					continue
				}
				status := model.EditSucceeded
				if item.IsError {
					status = model.EditFailed
				}
				for _, i := range indexes {
					edits[i].Status = status
				}
				// A structured patch describes the whole call, so it can
				// only be attributed when the call made a single edit.
				if result := log.ToolUseResult.Result; result != nil && len(indexes) == 1 && len(result.StructuredPatch) > 0 {
					added, removed := model.PatchCounts(result.StructuredPatch)
					op := &edits[indexes[0]]
					op.Reported = true
					op.ReportedAdded = added
					op.ReportedRemoved = removed
				}
			}
		}
	}

	util.LogDebug("Extracted edits", util.F("logs", len(logs)), util.F("edits", len(edits)))
	return edits
}

func editsFromToolUse(item model.ContentItem, timestamp string) []model.EditOperation {
	switch item.Name {
	case toolEdit:
		return []model.EditOperation{{
			ToolUseID: item.Id,
			FilePath:  item.Input.FilePath,
			OldString: item.Input.OldString,
			NewString: item.Input.NewString,
			Timestamp: timestamp,
		}}
	case toolMultiEdit:
		ops := make([]model.EditOperation, 0, len(item.Input.Edits))
		for _, e := range item.Input.Edits {
			ops = append(ops, model.EditOperation{
				ToolUseID: item.Id,
				FilePath:  item.Input.FilePath,
				OldString: e.OldString,
				NewString: e.NewString,
				Timestamp: timestamp,
			})
		}
		return ops
	default:
		return nil
	}
}

// ParseEdits reads path and returns the edits it records.
func ParseEdits(path string) ([]model.EditOperation, error) {
	logs, err := ParseFile(path)
	if err != nil {
		return nil, err
	}
	return ExtractEdits(logs), nil
}
