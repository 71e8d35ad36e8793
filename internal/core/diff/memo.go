package diff

import (
	"sync"

	"github.com/penwyp/go-usage-board/internal/core/model"
	"github.com/penwyp/go-usage-board/internal/util"
)

// Result is everything derived from one (old, new, file) triple.
type Result struct {
	Runs     []model.DiffRun
	Stats    Stats
	Language string
}

type memoKey struct {
	oldText string
	newText string
	file    string
}

// Memo keeps the most recent Result and recomputes only when the old text,
// new text or file identifier changes.
type Memo struct {
	mu           sync.Mutex
	detect       func(file string) string
	key          memoKey
	result       *Result
	computations int
}

// NewMemo creates a memoizer. detect maps a file identifier to a language
// tag; nil leaves the language empty.
func NewMemo(detect func(file string) string) *Memo {
	return &Memo{detect: detect}
}

func (m *Memo) Compute(oldText, newText, file string) *Result {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := memoKey{oldText: oldText, newText: newText, file: file}
	if m.result != nil && m.key == key {
		return m.result
	}

	runs := Lines(oldText, newText)
	result := &Result{
		Runs:  runs,
		Stats: Summarize(runs),
	}
	if m.detect != nil {
		result.Language = m.detect(file)
	}

	m.key = key
	m.result = result
	m.computations++

	util.LogDebug("diff computed",
		util.F("file", file),
		util.F("runs", len(runs)),
		util.F("added", result.Stats.Added),
		util.F("removed", result.Stats.Removed))
	return result
}

// Computations returns how many times a diff was actually computed.
func (m *Memo) Computations() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.computations
}
