package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"ella/internal/metrics"
	"ella/internal/speech"
)

// SpeechService transcribes learner audio and scores it against the word
// they were asked to read.
type SpeechService struct {
	transcriber speech.Transcriber
	metrics     *metrics.Metrics
	logger      *zap.Logger
}

// NewSpeechService creates a new speech service. transcriber may be nil when
// speech recognition is disabled.
func NewSpeechService(transcriber speech.Transcriber, m *metrics.Metrics, logger *zap.Logger) *SpeechService {
	return &SpeechService{
		transcriber: transcriber,
		metrics:     m,
		logger:      logger.Named("speech"),
	}
}

// Available reports whether a transcriber is configured
func (s *SpeechService) Available() bool {
	return s.transcriber != nil
}

// Evaluate transcribes audio and compares it with expected. A failed or
// empty transcription is not an error: it yields an unsuccessful evaluation
// the client can show as "try again".
func (s *SpeechService) Evaluate(ctx context.Context, audio []byte, expected string) (*speech.Evaluation, error) {
	if strings.TrimSpace(expected) == "" {
		return nil, invalidInput("Expected word is required")
	}
	if len(audio) == 0 {
		return nil, invalidInput("No audio data provided")
	}
	if s.transcriber == nil {
		return nil, ErrTranscriptionUnavailable
	}

	transcript, err := s.transcriber.Transcribe(ctx, audio)
	if err != nil {
		s.logger.Warn("Transcription failed", zap.Error(err))
		transcript = nil
	}

	result := speech.Evaluate(transcript, expected)
	switch {
	case !result.Success:
		s.metrics.Evaluations.WithLabelValues(metrics.OutcomeUnrecognized).Inc()
	case result.Correct:
		s.metrics.Evaluations.WithLabelValues(metrics.OutcomeCorrect).Inc()
	default:
		s.metrics.Evaluations.WithLabelValues(metrics.OutcomeIncorrect).Inc()
	}

	s.logger.Debug("Pronunciation evaluated",
		zap.String("expected", result.Expected),
		zap.String("transcript", result.Transcript),
		zap.Bool("correct", result.Correct),
		zap.Float64("similarity", result.Similarity))

	return &result, nil
}

// Transcribe returns the raw transcript; nil means nothing was recognized
func (s *SpeechService) Transcribe(ctx context.Context, audio []byte) (*speech.Transcript, error) {
	if len(audio) == 0 {
		return nil, invalidInput("No audio data provided")
	}
	if s.transcriber == nil {
		return nil, ErrTranscriptionUnavailable
	}

	transcript, err := s.transcriber.Transcribe(ctx, audio)
	if err != nil {
		s.logger.Warn("Transcription failed", zap.Error(err))
		return nil, newError(ErrUpstreamUnavailable, "Speech recognition failed")
	}
	return transcript, nil
}
