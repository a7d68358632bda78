// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package narration turns a narration script into one combined audio file.
// Chunks are synthesized independently; failed chunks are dropped and the
// rest are joined with short silences by ffmpeg.
package narration

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/medibrief/internal/adapter"
	"github.com/pdiddy/medibrief/internal/container"
	"github.com/pdiddy/medibrief/pkg/types"
)

// Gap is the silence inserted between synthesized chunks.
const Gap = 500 * time.Millisecond

// Segment is one entry of a join plan: either an audio file or a silence.
type Segment struct {
	Path    string        `json:"path,omitempty"`
	Silence time.Duration `json:"silence,omitempty"`
}

// IsSilence reports whether the segment is a gap.
func (s Segment) IsSilence() bool { return s.Path == "" }

// JoinPlan interleaves a Gap of silence between the given audio files.
func JoinPlan(paths []string) []Segment {
	plan := make([]Segment, 0, max(2*len(paths)-1, 0))
	for i, p := range paths {
		if i > 0 {
			plan = append(plan, Segment{Silence: Gap})
		}
		plan = append(plan, Segment{Path: p})
	}
	return plan
}

// Narrator synthesizes a script and joins the chunks.
type Narrator struct {
	Synthesizer Synthesizer
	Adapter     *adapter.Adapter
	Exec        container.Executor
	Config      types.SpeechConfig
	Logger      *slog.Logger
}

// Narrate preprocesses and chunks script, synthesizes every chunk through
// the adapter into workDir, and joins the survivors into outPath. A failed
// chunk is logged and dropped; the call fails only when no chunk survives
// or the join fails.
func (n *Narrator) Narrate(ctx context.Context, script, workDir, outPath string) (types.NarrationResult, error) {
	maxLen := n.Config.MaxChunkLength
	if maxLen <= 0 {
		maxLen = 4500
	}
	chunks := SplitChunks(Preprocess(script), maxLen)
	if len(chunks) == 0 {
		return types.NarrationResult{}, fmt.Errorf("empty narration script")
	}
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return types.NarrationResult{}, fmt.Errorf("creating work dir: %w", err)
	}

	ext := extension(n.Config.Audio.Encoding)
	var paths []string
	for i, chunk := range chunks {
		audio, err := adapter.Call(ctx, n.Adapter, "synthesize", func(ctx context.Context) ([]byte, error) {
			return n.Synthesizer.Synthesize(ctx, chunk)
		})
		if err != nil {
			if ctx.Err() != nil {
				return types.NarrationResult{}, ctx.Err()
			}
			n.Logger.Warn("dropping narration chunk", "chunk", i+1, "chunks", len(chunks), "error", err)
			continue
		}
		p := filepath.Join(workDir, fmt.Sprintf("chunk_%03d%s", i, ext))
		if err := os.WriteFile(p, audio, 0o644); err != nil {
			return types.NarrationResult{}, fmt.Errorf("writing chunk %d: %w", i, err)
		}
		paths = append(paths, p)
	}
	if len(paths) == 0 {
		return types.NarrationResult{}, fmt.Errorf("all %d narration chunks failed", len(chunks))
	}

	plan := JoinPlan(paths)
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return types.NarrationResult{}, fmt.Errorf("creating audio dir: %w", err)
	}
	if err := n.Exec.RunSilent(ctx, "ffmpeg", joinArgs(plan, n.sampleRate(), outPath)...); err != nil {
		return types.NarrationResult{}, fmt.Errorf("joining narration: %w", err)
	}
	for _, p := range paths {
		_ = os.Remove(p)
	}

	d, err := ProbeDuration(ctx, n.Exec, outPath)
	if err != nil {
		return types.NarrationResult{}, err
	}
	n.Logger.Info("narration synthesized", "chunks", len(chunks), "synthesized", len(paths), "duration", d)
	return types.NarrationResult{
		AudioPath:   outPath,
		Chunks:      len(chunks),
		Synthesized: len(paths),
		Duration:    d,
	}, nil
}

func (n *Narrator) sampleRate() int {
	if n.Config.Audio.SampleRateHertz > 0 {
		return n.Config.Audio.SampleRateHertz
	}
	return 24000
}

// joinArgs builds an ffmpeg invocation that concatenates the plan with the
// concat filter and encodes MP3. Silences come from anullsrc inputs.
func joinArgs(plan []Segment, sampleRate int, outPath string) []string {
	args := []string{"-y", "-hide_banner", "-loglevel", "error"}
	var labels strings.Builder
	for i, s := range plan {
		if s.IsSilence() {
			args = append(args,
				"-f", "lavfi",
				"-t", strconv.FormatFloat(s.Silence.Seconds(), 'f', 3, 64),
				"-i", fmt.Sprintf("anullsrc=r=%d:cl=mono", sampleRate))
		} else {
			args = append(args, "-i", s.Path)
		}
		fmt.Fprintf(&labels, "[%d:a]", i)
	}
	filter := fmt.Sprintf("%sconcat=n=%d:v=0:a=1[out]", labels.String(), len(plan))
	return append(args,
		"-filter_complex", filter,
		"-map", "[out]",
		"-c:a", "libmp3lame", "-b:a", "128k",
		outPath)
}

// ProbeDuration reads a media file's duration with ffprobe.
func ProbeDuration(ctx context.Context, exec container.Executor, path string) (time.Duration, error) {
	out, err := exec.Output(ctx, "ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path)
	if err != nil {
		return 0, fmt.Errorf("probing %s: %w", filepath.Base(path), err)
	}
	secs, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0, fmt.Errorf("parsing duration of %s: %w", filepath.Base(path), err)
	}
	return time.Duration(secs * float64(time.Second)), nil
}
