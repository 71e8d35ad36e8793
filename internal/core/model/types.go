package model

import (
	"fmt"

	"github.com/bytedance/sonic"
)

// ConversationLog is one JSONL line of an assistant session transcript.
// Only the fields needed to recover file edits are decoded.
type ConversationLog struct {
	Cwd           string             `json:"cwd"`
	Message       Message            `json:"message"`
	SessionId     string             `json:"sessionId"`
	Timestamp     string             `json:"timestamp"`
	ToolUseResult FlexibleToolResult `json:"toolUseResult,omitempty"`
	Type          string             `json:"type"`
	Uuid          string             `json:"uuid"`
}

type Message struct {
	Content FlexibleContent `json:"content"`
	Model   string          `json:"model,omitempty"`
	Role    string          `json:"role"`
}

// FlexibleContent accepts either a plain string or an array of content items.
type FlexibleContent []ContentItem

func (fc *FlexibleContent) UnmarshalJSON(data []byte) error {
	var items []ContentItem
	if err := sonic.Unmarshal(data, &items); err == nil {
		*fc = items
		return nil
	}

	var str string
	if err := sonic.Unmarshal(data, &str); err == nil {
		*fc = []ContentItem{{Type: "text", Text: str}}
		return nil
	}

	return fmt.Errorf("content must be either string or array of ContentItem")
}

type ContentItem struct {
	Id        string `json:"id,omitempty"`
	Input     Input  `json:"input,omitempty"`
	IsError   bool   `json:"is_error,omitempty"`
	Name      string `json:"name,omitempty"`
	Text      string `json:"text,omitempty"`
	ToolUseId string `json:"tool_use_id,omitempty"`
	Type      string `json:"type"`
}

type Input struct {
	Edits      []EditsItem `json:"edits,omitempty"`
	FilePath   string      `json:"file_path,omitempty"`
	NewString  string      `json:"new_string,omitempty"`
	OldString  string      `json:"old_string,omitempty"`
	ReplaceAll bool        `json:"replace_all,omitempty"`
}

type EditsItem struct {
	NewString  string `json:"new_string"`
	OldString  string `json:"old_string"`
	ReplaceAll bool   `json:"replace_all"`
}

// ToolUseResult is the structured result attached to a tool_result line.
type ToolUseResult struct {
	FilePath        string                `json:"filePath"`
	NewString       string                `json:"newString"`
	OldString       string                `json:"oldString"`
	StructuredPatch []StructuredpatchItem `json:"structuredPatch"`
}

// FlexibleToolResult decodes toolUseResult, which is an object for
// successful edits and a bare error string otherwise.
type FlexibleToolResult struct {
	Result  *ToolUseResult
	Message string
}

func (fr *FlexibleToolResult) UnmarshalJSON(data []byte) error {
	var result ToolUseResult
	if err := sonic.Unmarshal(data, &result); err == nil {
		fr.Result = &result
		return nil
	}

	var str string
	if err := sonic.Unmarshal(data, &str); err == nil {
		fr.Message = str
		return nil
	}

	// Other tools attach arbitrary shapes; they carry nothing for edits.
	return nil
}

type StructuredpatchItem struct {
	Lines    []string `json:"lines"`
	NewLines int      `json:"newLines"`
	NewStart int      `json:"newStart"`
	OldLines int      `json:"oldLines"`
	OldStart int      `json:"oldStart"`
}

// EditStatus is the outcome of an edit tool call as seen in the transcript.
type EditStatus int

const (
	EditPending EditStatus = iota
	EditSucceeded
	EditFailed
)

func (s EditStatus) String() string {
	switch s {
	case EditSucceeded:
		return "success"
	case EditFailed:
		return "failed"
	default:
		return "pending"
	}
}

// EditOperation is one old/new text replacement applied to a file.
type EditOperation struct {
	ToolUseID string
	FilePath  string
	OldString string
	NewString string
	Timestamp string
	Status    EditStatus
	// Reported counts come from the tool's structured patch when present.
	Reported        bool
	ReportedAdded   int
	ReportedRemoved int
}

// PatchCounts sums added and removed lines across structured patch hunks.
func PatchCounts(hunks []StructuredpatchItem) (added, removed int) {
	for _, h := range hunks {
		for _, line := range h.Lines {
			if line == "" {
				continue
			}
			switch line[0] {
			case '+':
				added++
			case '-':
				removed++
			}
		}
	}
	return added, removed
}

// DiffKind classifies a run of lines in a diff.
type DiffKind int

const (
	DiffUnchanged DiffKind = iota
	DiffAdded
	DiffRemoved
)

func (k DiffKind) String() string {
	switch k {
	case DiffAdded:
		return "added"
	case DiffRemoved:
		return "removed"
	default:
		return "unchanged"
	}
}

// DiffRun is a maximal sequence of consecutive lines sharing one kind.
// Text holds the lines verbatim, trailing newlines included.
type DiffRun struct {
	Kind  DiffKind
	Text  string
	Lines int
}
