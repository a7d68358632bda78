// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package narration

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"github.com/pdiddy/medibrief/internal/adapter"
	"github.com/pdiddy/medibrief/internal/container/containertest"
	"github.com/pdiddy/medibrief/pkg/types"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestPreprocess(t *testing.T) {
	in := "As Dr. Smith et al. showed in Fig. 2, drug A vs. B cut risk; however the effect e.g. in women was approx. half."
	want := "As Doctor Smith and colleagues showed in Figure 2, drug A versus B cut risk;, however, the effect for example in women was approximately half."
	assert.Equal(t, want, Preprocess(in))
	assert.Equal(t, "Results, in conclusion, hold.", Preprocess("Results in conclusion hold."))
}

func TestSentences(t *testing.T) {
	assert.Equal(t, []string{"One.", "Two!", "Three?", "tail"}, Sentences("One. Two!  Three? tail"))
	assert.Empty(t, Sentences("   "))
}

func TestSplitChunks(t *testing.T) {
	text := "Aaaa. Bbbb. Cccc. " + strings.Repeat("x", 30) + ". Dd."
	got := SplitChunks(text, 11)
	assert.Equal(t, []string{"Aaaa. Bbbb.", "Cccc.", strings.Repeat("x", 30) + ".", "Dd."}, got)
}

func TestSplitChunks_Properties(t *testing.T) {
	r := rand.New(rand.NewPCG(3, 5))
	words := []string{"alpha", "beta", "gamma", "delta", "epsilon", "zeta", "eta"}
	for range 500 {
		var sb strings.Builder
		for range r.IntN(15) {
			for w := range r.IntN(12) + 1 {
				if w > 0 {
					sb.WriteByte(' ')
				}
				sb.WriteString(words[r.IntN(len(words))])
			}
			sb.WriteString([]string{". ", "! ", "? "}[r.IntN(3)])
		}
		text := sb.String()
		maxLen := r.IntN(80) + 10

		chunks := SplitChunks(text, maxLen)

		var rejoined []string
		for _, c := range chunks {
			parts := Sentences(c)
			if runeLen(c) > maxLen {
				require.Len(t, parts, 1, "only a single sentence may exceed max: %q", c)
			}
			rejoined = append(rejoined, parts...)
		}
		require.Equal(t, Sentences(text), rejoined)
	}
}

func TestJoinPlan(t *testing.T) {
	assert.Empty(t, JoinPlan(nil))
	assert.Equal(t, []Segment{{Path: "a"}}, JoinPlan([]string{"a"}))
	assert.Equal(t, []Segment{{Path: "a"}, {Silence: Gap}, {Path: "b"}}, JoinPlan([]string{"a", "b"}))
}

type scriptedSynth struct {
	fail map[string]bool
	seen []string
}

func (s *scriptedSynth) Synthesize(_ context.Context, text string) ([]byte, error) {
	s.seen = append(s.seen, text)
	if s.fail[text] {
		return nil, adapter.Permanent("tts", "synthesize", 400, errors.New("invalid input"))
	}
	return []byte("audio:" + text), nil
}

func ffmpegRecorder() *containertest.Recorder {
	return &containertest.Recorder{Handler: func(c containertest.Call) ([]byte, error) {
		switch c.Name {
		case "ffmpeg":
			out := c.Args[len(c.Args)-1]
			return nil, os.WriteFile(out, []byte("mp3"), 0o644)
		case "ffprobe":
			return []byte("12.500000\n"), nil
		}
		return nil, fmt.Errorf("unexpected %s", c.Name)
	}}
}

// inputs returns the -i arguments of an ffmpeg call.
func inputs(args []string) []string {
	var out []string
	for i, a := range args {
		if a == "-i" {
			out = append(out, args[i+1])
		}
	}
	return out
}

func TestNarrate_DropsFailedChunk(t *testing.T) {
	synth := &scriptedSynth{fail: map[string]bool{"Second one.": true}}
	rec := ffmpegRecorder()
	n := &Narrator{
		Synthesizer: synth,
		Adapter:     adapter.New("tts", adapter.Options{MaxAttempts: 1}, discard),
		Exec:        rec,
		Config:      types.SpeechConfig{MaxChunkLength: 12, Audio: types.AudioConfig{Encoding: "MP3", SampleRateHertz: 22050}},
		Logger:      discard,
	}
	work := t.TempDir()
	out := filepath.Join(t.TempDir(), "audio", "123.mp3")

	res, err := n.Narrate(context.Background(), "First one. Second one. Third one.", work, out)
	require.NoError(t, err)
	assert.Equal(t, []string{"First one.", "Second one.", "Third one."}, synth.seen)
	assert.Equal(t, out, res.AudioPath)
	assert.Equal(t, 3, res.Chunks)
	assert.Equal(t, 2, res.Synthesized)
	assert.Equal(t, 12500*time.Millisecond, res.Duration)
	assert.FileExists(t, out)

	calls := rec.Named("ffmpeg")
	require.Len(t, calls, 1)
	args := calls[0].Args
	assert.Equal(t, []string{
		filepath.Join(work, "chunk_000.mp3"),
		"anullsrc=r=22050:cl=mono",
		filepath.Join(work, "chunk_002.mp3"),
	}, inputs(args), "join plan is chunk 1, silence, chunk 3")
	assert.Contains(t, args, "0.500")
	assert.Contains(t, args, "[0:a][1:a][2:a]concat=n=3:v=0:a=1[out]")
	assert.Equal(t, out, args[len(args)-1])

	assert.NoFileExists(t, filepath.Join(work, "chunk_000.mp3"), "chunk files are removed after joining")
}

func TestNarrate_AllChunksFail(t *testing.T) {
	n := &Narrator{
		Synthesizer: &scriptedSynth{fail: map[string]bool{"Only.": true}},
		Adapter:     adapter.New("tts", adapter.Options{MaxAttempts: 1}, discard),
		Exec:        ffmpegRecorder(),
		Logger:      discard,
	}
	_, err := n.Narrate(context.Background(), "Only.", t.TempDir(), filepath.Join(t.TempDir(), "a.mp3"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all 1 narration chunks failed")
}

func TestNarrate_EmptyScript(t *testing.T) {
	n := &Narrator{Synthesizer: &scriptedSynth{}, Exec: ffmpegRecorder(), Logger: discard}
	_, err := n.Narrate(context.Background(), "  ", t.TempDir(), filepath.Join(t.TempDir(), "a.mp3"))
	assert.Error(t, err)
}

func TestProbeDuration_BadOutput(t *testing.T) {
	rec := &containertest.Recorder{Handler: func(containertest.Call) ([]byte, error) { return []byte("N/A"), nil }}
	_, err := ProbeDuration(context.Background(), rec, "x.mp3")
	assert.Error(t, err)
}

func TestTTSSynthesizer(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/text:synthesize", r.URL.Path)
		var req struct {
			Input       struct{ Text string }
			Voice       struct{ LanguageCode, Name string }
			AudioConfig struct {
				AudioEncoding   string
				SampleRateHertz int
				SpeakingRate    float64
			}
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Hello there.", req.Input.Text)
		assert.Equal(t, "en-US-Neural2-D", req.Voice.Name)
		assert.Equal(t, "MP3", req.AudioConfig.AudioEncoding)
		assert.Equal(t, 24000, req.AudioConfig.SampleRateHertz)
		assert.InDelta(t, 1.1, req.AudioConfig.SpeakingRate, 1e-9)
		fmt.Fprintf(w, `{"audioContent": %q}`, base64.StdEncoding.EncodeToString([]byte("ID3-audio")))
	}))
	defer ts.Close()

	cfg := types.SpeechConfig{
		Voice: types.VoiceConfig{LanguageCode: "en-US", Name: "en-US-Neural2-D", SpeakingRate: 1.1},
		Audio: types.AudioConfig{Encoding: "MP3", SampleRateHertz: 24000},
	}
	s, err := NewTTSSynthesizer(context.Background(), cfg, option.WithEndpoint(ts.URL+"/"), option.WithHTTPClient(ts.Client()))
	require.NoError(t, err)

	audio, err := s.Synthesize(context.Background(), "Hello there.")
	require.NoError(t, err)
	assert.Equal(t, "ID3-audio", string(audio))
}

func TestExtension(t *testing.T) {
	for enc, want := range map[string]string{"MP3": ".mp3", "LINEAR16": ".wav", "MULAW": ".wav", "OGG_OPUS": ".ogg", "": ".mp3"} {
		assert.Equal(t, want, extension(enc), enc)
	}
}
