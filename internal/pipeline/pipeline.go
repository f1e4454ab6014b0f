// Package pipeline orchestrates the audio fan-out chain: one recorded
// utterance in, one backlog message with per-language synthesized audio out.
// Stages run in sequence; within the translation and synthesis stages, calls
// for distinct languages run concurrently and the stage completes only when
// all have returned.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/danschewy/townhall/internal/asr"
	"github.com/danschewy/townhall/internal/clock"
	"github.com/danschewy/townhall/internal/idgen"
	"github.com/danschewy/townhall/internal/metrics"
	"github.com/danschewy/townhall/internal/models"
	"github.com/danschewy/townhall/internal/rooms"
	"github.com/danschewy/townhall/internal/translate"
	"github.com/danschewy/townhall/internal/tts"
)

// Stage identifies where in the chain an utterance currently is, or where it
// failed.
type Stage string

const (
	StageResolving    Stage = "resolving_targets"
	StageTranscribing Stage = "transcribing"
	StageTranslating  Stage = "translating"
	StageSynthesizing Stage = "synthesizing"
	StageAppending    Stage = "appending"
)

// StageError is a terminal pipeline failure carrying the failing stage. The
// utterance is dropped whole: partial results for other languages are
// discarded, never appended.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Validation failures reported before any upstream call is made.
var (
	ErrAudioTooShort = errors.New("recording too short")
	ErrNoSpeech      = errors.New("no speech detected")
)

// Utterance is one capture event submitted for processing.
type Utterance struct {
	RoomCode string
	UserID   string
	Language string // sender's declared language
	Audio    []byte
	MimeType string
}

// Result reports a completed utterance.
type Result struct {
	MessageID    string
	Text         string
	Translations map[string]string
	// Skipped is set when the target set was empty and the pipeline
	// short-circuited without producing anything.
	Skipped bool
}

// Pipeline sequences transcription, target resolution, translation fan-out,
// synthesis fan-out, and the backlog append.
type Pipeline struct {
	rooms    *rooms.Service
	asr      asr.Recognizer
	trans    translate.Translator
	tts      tts.Synthesizer
	clock    clock.Clock
	logger   zerolog.Logger
	minBytes int
}

// New creates a pipeline. minBytes is the smallest audio payload accepted;
// shorter recordings are rejected before any upstream call.
func New(roomSvc *rooms.Service, recognizer asr.Recognizer, translator translate.Translator, synthesizer tts.Synthesizer, clk clock.Clock, logger zerolog.Logger, minBytes int) *Pipeline {
	return &Pipeline{
		rooms:    roomSvc,
		asr:      recognizer,
		trans:    translator,
		tts:      synthesizer,
		clock:    clk,
		logger:   logger,
		minBytes: minBytes,
	}
}

// Process runs one utterance through the whole chain. It either fully
// succeeds (every target language got audio and the message is appended) or
// fails with a StageError; there is no partial delivery. No retries are
// performed here.
func (p *Pipeline) Process(ctx context.Context, utt Utterance) (*Result, error) {
	if len(utt.Audio) < p.minBytes {
		metrics.UtterancesProcessed.WithLabelValues("failed").Inc()
		return nil, ErrAudioTooShort
	}

	targets, err := p.rooms.TargetLanguages(ctx, utt.RoomCode, utt.UserID, utt.Language)
	if err != nil {
		return nil, p.fail(StageResolving, err)
	}
	if len(targets) == 0 {
		// Explicit no-op path: nothing to produce, report success.
		metrics.UtterancesProcessed.WithLabelValues("skipped").Inc()
		return &Result{Skipped: true}, nil
	}

	p.logger.Debug().
		Str("room", utt.RoomCode).
		Str("user", utt.UserID).
		Strs("targets", targets).
		Msg("processing utterance")

	text, err := p.asr.Transcribe(ctx, utt.Audio, utt.MimeType)
	if err != nil {
		return nil, p.fail(StageTranscribing, err)
	}
	if strings.TrimSpace(text) == "" {
		metrics.UtterancesProcessed.WithLabelValues("failed").Inc()
		return nil, ErrNoSpeech
	}

	translations, err := p.translateAll(ctx, text, utt.Language, targets)
	if err != nil {
		return nil, p.fail(StageTranslating, err)
	}

	audio, err := p.synthesizeAll(ctx, translations)
	if err != nil {
		return nil, p.fail(StageSynthesizing, err)
	}

	// Denormalize the sender's name at creation time; it does not track
	// later renames.
	senderName := "Unknown"
	if sender, ok, err := p.rooms.Member(ctx, utt.RoomCode, utt.UserID); err == nil && ok {
		senderName = sender.Name
	}

	msg := &models.AudioMessage{
		ID:              idgen.NewMessageID(),
		SenderID:        utt.UserID,
		SenderName:      senderName,
		Text:            text,
		Timestamp:       p.clock.Now().UnixMilli(),
		AudioByLanguage: audio,
	}

	if err := p.rooms.Append(ctx, utt.RoomCode, msg); err != nil {
		return nil, p.fail(StageAppending, err)
	}

	metrics.UtterancesProcessed.WithLabelValues("ok").Inc()
	p.logger.Info().
		Str("room", utt.RoomCode).
		Str("message", msg.ID).
		Int("languages", len(audio)).
		Msg("utterance appended")

	return &Result{MessageID: msg.ID, Text: text, Translations: translations}, nil
}

func (p *Pipeline) fail(stage Stage, err error) error {
	metrics.UtterancesProcessed.WithLabelValues("failed").Inc()
	metrics.PipelineStageFailures.WithLabelValues(string(stage)).Inc()
	p.logger.Error().Err(err).Str("stage", string(stage)).Msg("pipeline stage failed")
	return &StageError{Stage: stage, Err: err}
}

// translateAll produces one translation per unique target language. The
// source language always maps to the original text without a call; the
// target list is deduplicated before fan-out. Calls run concurrently, one
// goroutine per language; the stage is a join-all barrier. Any failure fails
// the stage after in-flight siblings have drained.
func (p *Pipeline) translateAll(ctx context.Context, text, sourceLang string, targets []string) (map[string]string, error) {
	out := map[string]string{sourceLang: text}

	seen := map[string]struct{}{sourceLang: {}}
	unique := make([]string, 0, len(targets))
	for _, lang := range targets {
		if _, ok := seen[lang]; ok {
			continue
		}
		seen[lang] = struct{}{}
		unique = append(unique, lang)
	}
	if len(unique) == 0 {
		return out, nil
	}

	type result struct {
		lang string
		text string
		err  error
	}
	results := make(chan result, len(unique))

	var wg sync.WaitGroup
	for _, lang := range unique {
		wg.Add(1)
		metrics.TranslationCalls.Inc()
		go func(lang string) {
			defer wg.Done()
			translated, err := p.trans.Translate(ctx, text, sourceLang, lang)
			results <- result{lang: lang, text: translated, err: err}
		}(lang)
	}
	wg.Wait()
	close(results)

	var firstErr error
	for r := range results {
		if r.err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("%s: %w", r.lang, r.err)
			}
			continue
		}
		out[r.lang] = r.text
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}

// synthesizeAll produces one audio payload per language in the translation
// map, concurrently, with the same all-or-nothing join as translateAll.
func (p *Pipeline) synthesizeAll(ctx context.Context, translations map[string]string) (map[string]string, error) {
	type result struct {
		lang  string
		audio string
		err   error
	}
	results := make(chan result, len(translations))

	var wg sync.WaitGroup
	for lang, text := range translations {
		wg.Add(1)
		metrics.SynthesisCalls.Inc()
		go func(lang, text string) {
			defer wg.Done()
			audio, err := p.tts.Synthesize(ctx, text, lang)
			results <- result{lang: lang, audio: audio, err: err}
		}(lang, text)
	}
	wg.Wait()
	close(results)

	out := make(map[string]string, len(translations))
	var firstErr error
	for r := range results {
		if r.err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("%s: %w", r.lang, r.err)
			}
			continue
		}
		out[r.lang] = r.audio
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}
