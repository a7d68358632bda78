// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Stage names one step of the per-item pipeline state machine.
type Stage string

const (
	StageFetched       Stage = "fetched"
	StageExtracted     Stage = "extracted"
	StageSummarized    Stage = "summarized"
	StageFiguresRanked Stage = "figures_ranked"
	StageNarrated      Stage = "narrated"
	StageAssembled     Stage = "assembled"
	StagePublished     Stage = "published"
	StageSucceeded     Stage = "succeeded"
	StageFailed        Stage = "failed"
)

// Terminal reports whether s is Succeeded or Failed.
func (s Stage) Terminal() bool {
	return s == StageSucceeded || s == StageFailed
}

// AIResult holds the four generated texts for one document.
type AIResult struct {
	Summary         string   `json:"summary"`
	NarrationScript string   `json:"narration_script"`
	KeyTakeaways    []string `json:"key_takeaways"`

	// TakeawaysRequested is the configured target count. KeyTakeaways may
	// hold fewer when generation under-produced.
	TakeawaysRequested int `json:"takeaways_requested"`

	ClinicalRelevance string `json:"clinical_relevance"`
}

// FiguresResult is the figures_result.json record.
type FiguresResult struct {
	Analyzed []FigureCandidate `json:"analyzed"`
	Selected []FigureCandidate `json:"selected"`
}

// NarrationResult describes the combined narration audio.
type NarrationResult struct {
	AudioPath string `json:"audio_path"`

	// Chunks is the number of text chunks; Synthesized how many produced audio.
	Chunks      int `json:"chunks"`
	Synthesized int `json:"synthesized"`

	Duration time.Duration `json:"duration"`
}

// PaperProcessingResult is the terminal success record for one document
// within one run, persisted as result.json.
type PaperProcessingResult struct {
	DocumentID  string    `json:"document_id"`
	Title       string    `json:"title"`
	Topic       string    `json:"topic"`
	VideoPath   string    `json:"video_path"`
	VideoURL    string    `json:"video_url"`
	PlatformID  string    `json:"platform_id"`
	PlatformURL string    `json:"platform_url"`
	DryRun      bool      `json:"dry_run"`
	RunID       string    `json:"run_id"`
	Timestamp   time.Time `json:"timestamp"`
}

// ErrorRecord is the terminal failure record for one document within one
// run, persisted as error.json.
type ErrorRecord struct {
	DocumentID string    `json:"document_id"`
	Title      string    `json:"title"`
	Topic      string    `json:"topic"`
	Stage      Stage     `json:"stage"`
	Error      string    `json:"error"`
	RunID      string    `json:"run_id"`
	Timestamp  time.Time `json:"timestamp"`
}
