// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package layout names every durable artifact path and writes JSON records
// atomically. Paths are namespaced by topic and document ID so concurrent
// items never share a file.
//
//	<root>/<topic>/<topic>_papers.json
//	<root>/<topic>/<doc_id>/paper_data.json
//	<root>/<topic>/<doc_id>/ai_result.json
//	<root>/<topic>/<doc_id>/figures_result.json
//	<root>/<topic>/<doc_id>/audio/<doc_id>.mp3
//	<root>/<topic>/<doc_id>/video/<doc_id>.mp4
//	<root>/<topic>/<doc_id>/result.json   (success)
//	<root>/<topic>/<doc_id>/error.json    (failure)
package layout

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

const (
	PaperDataFile     = "paper_data.json"
	AIResultFile      = "ai_result.json"
	FiguresResultFile = "figures_result.json"
	ResultFile        = "result.json"
	ErrorFile         = "error.json"

	audioDir = "audio"
	videoDir = "video"
)

// Slug turns a topic or identifier into a safe directory name: lowercase,
// with runs of characters other than letters and digits replaced by "_".
func Slug(s string) string {
	var b strings.Builder
	underscore := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '.' {
			b.WriteRune(r)
			underscore = false
			continue
		}
		if !underscore && b.Len() > 0 {
			b.WriteByte('_')
			underscore = true
		}
	}
	out := strings.Trim(b.String(), "_.")
	if out == "" {
		return "unknown"
	}
	return out
}

// Layout resolves paths under one output root.
type Layout struct {
	Root string
}

// New returns a Layout rooted at root, made absolute when possible so
// paths handed to external tools do not depend on their working directory.
func New(root string) Layout {
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	return Layout{Root: root}
}

// TopicDir is <root>/<topic>.
func (l Layout) TopicDir(topic string) string {
	return filepath.Join(l.Root, Slug(topic))
}

// SnapshotPath is the discovery snapshot for topic.
func (l Layout) SnapshotPath(topic string) string {
	t := Slug(topic)
	return filepath.Join(l.Root, t, t+"_papers.json")
}

// ItemDir is <root>/<topic>/<doc_id>.
func (l Layout) ItemDir(topic, docID string) string {
	return filepath.Join(l.TopicDir(topic), Slug(docID))
}

// ItemFile is a named file within the item directory.
func (l Layout) ItemFile(topic, docID, name string) string {
	return filepath.Join(l.ItemDir(topic, docID), name)
}

// AudioPath is the combined narration file for the item.
func (l Layout) AudioPath(topic, docID string) string {
	return filepath.Join(l.ItemDir(topic, docID), audioDir, Slug(docID)+".mp3")
}

// VideoPath is the rendered video file for the item.
func (l Layout) VideoPath(topic, docID string) string {
	return filepath.Join(l.ItemDir(topic, docID), videoDir, Slug(docID)+".mp4")
}

// WorkDir is a scratch directory inside the item directory for
// intermediate media (slides, audio chunks).
func (l Layout) WorkDir(topic, docID, stage string) string {
	return filepath.Join(l.ItemDir(topic, docID), "work", stage)
}

// WriteJSON writes v as indented JSON to path through a temp file and
// rename, creating parent directories. An existing file is replaced.
func WriteJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", filepath.Base(path), err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".medibrief-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	_, writeErr := tmp.Write(data)
	closeErr := tmp.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing %s: %w", path, writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// ReadJSON decodes the JSON file at path into v.
func ReadJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	return nil
}

// Remove deletes path, ignoring a missing file.
func Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
