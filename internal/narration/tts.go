// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package narration

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"google.golang.org/api/option"
	texttospeech "google.golang.org/api/texttospeech/v1"

	"github.com/pdiddy/medibrief/internal/adapter"
	"github.com/pdiddy/medibrief/pkg/types"
)

// Synthesizer turns one chunk of text into encoded audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// TTSSynthesizer synthesizes speech with Cloud Text-to-Speech.
type TTSSynthesizer struct {
	svc   *texttospeech.Service
	voice types.VoiceConfig
	audio types.AudioConfig
}

// NewTTSSynthesizer creates a Text-to-Speech client for the configured voice.
func NewTTSSynthesizer(ctx context.Context, cfg types.SpeechConfig, opts ...option.ClientOption) (*TTSSynthesizer, error) {
	svc, err := texttospeech.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating Text-to-Speech client: %w", err)
	}
	return &TTSSynthesizer{svc: svc, voice: cfg.Voice, audio: cfg.Audio}, nil
}

// Synthesize implements Synthesizer.
func (s *TTSSynthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	resp, err := s.svc.Text.Synthesize(&texttospeech.SynthesizeSpeechRequest{
		Input: &texttospeech.SynthesisInput{Text: text},
		Voice: &texttospeech.VoiceSelectionParams{
			LanguageCode: s.voice.LanguageCode,
			Name:         s.voice.Name,
		},
		AudioConfig: &texttospeech.AudioConfig{
			AudioEncoding:   s.audio.Encoding,
			SampleRateHertz: int64(s.audio.SampleRateHertz),
			SpeakingRate:    s.voice.SpeakingRate,
			Pitch:           s.voice.Pitch,
		},
	}).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	audio, err := base64.StdEncoding.DecodeString(resp.AudioContent)
	if err != nil {
		return nil, adapter.Permanent("tts", "synthesize", 0, fmt.Errorf("decoding audio: %w", err))
	}
	if len(audio) == 0 {
		return nil, adapter.Permanent("tts", "synthesize", 0, errors.New("empty audio"))
	}
	return audio, nil
}

// extension returns the file extension for a TTS audio encoding.
func extension(encoding string) string {
	switch encoding {
	case "LINEAR16", "MULAW", "ALAW":
		return ".wav"
	case "OGG_OPUS":
		return ".ogg"
	}
	return ".mp3"
}
