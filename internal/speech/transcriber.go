package speech

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	speechapi "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"go.uber.org/zap"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Transcriber turns raw audio into text. It returns (nil, nil) when the audio
// contained no recognizable speech.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (*Transcript, error)
}

// RecognizerConfig controls the recognition request
type RecognizerConfig struct {
	LanguageCode    string
	SampleRateHertz int
	// CredentialsFile is a path or an inline JSON key; empty uses ADC
	CredentialsFile string
	MaxRetries      int
	Timeout         time.Duration
}

// recognizer is the subset of the Cloud Speech client used here
type recognizer interface {
	Recognize(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error)
	Close() error
}

type clientRecognizer struct {
	client *speechapi.Client
}

func (c clientRecognizer) Recognize(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error) {
	return c.client.Recognize(ctx, req)
}

func (c clientRecognizer) Close() error {
	return c.client.Close()
}

// GoogleTranscriber calls Cloud Speech-to-Text synchronous recognition
type GoogleTranscriber struct {
	log        *zap.Logger
	client     recognizer
	cfg        RecognizerConfig
	backoff    time.Duration
	maxBackoff time.Duration
}

// NewGoogleTranscriber dials the Speech API
func NewGoogleTranscriber(ctx context.Context, cfg RecognizerConfig, log *zap.Logger) (*GoogleTranscriber, error) {
	if log == nil {
		return nil, errors.New("logger required")
	}

	var opts []option.ClientOption
	creds := strings.TrimSpace(cfg.CredentialsFile)
	if strings.HasPrefix(creds, "{") {
		opts = append(opts, option.WithCredentialsJSON([]byte(creds)))
	} else if creds != "" {
		opts = append(opts, option.WithCredentialsFile(creds))
	}

	c, err := speechapi.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("speech client: %w", err)
	}

	return newGoogleTranscriber(clientRecognizer{client: c}, cfg, log), nil
}

func newGoogleTranscriber(client recognizer, cfg RecognizerConfig, log *zap.Logger) *GoogleTranscriber {
	if cfg.LanguageCode == "" {
		cfg.LanguageCode = "en-US"
	}
	if cfg.SampleRateHertz <= 0 {
		cfg.SampleRateHertz = 16000
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &GoogleTranscriber{
		log:        log.Named("speech"),
		client:     client,
		cfg:        cfg,
		backoff:    500 * time.Millisecond,
		maxBackoff: 5 * time.Second,
	}
}

// Close releases the underlying gRPC connection
func (g *GoogleTranscriber) Close() error {
	if g == nil || g.client == nil {
		return nil
	}
	return g.client.Close()
}

// Transcribe sends LINEAR16 audio and returns the top alternative of the
// first result.
func (g *GoogleTranscriber) Transcribe(ctx context.Context, audio []byte) (*Transcript, error) {
	if len(audio) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	req := &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:                   speechpb.RecognitionConfig_LINEAR16,
			SampleRateHertz:            int32(g.cfg.SampleRateHertz),
			LanguageCode:               g.cfg.LanguageCode,
			EnableAutomaticPunctuation: false,
			Model:                      "default",
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audio},
		},
	}

	resp, err := g.retry(ctx, func() (*speechpb.RecognizeResponse, error) {
		return g.client.Recognize(ctx, req)
	})
	if err != nil {
		return nil, fmt.Errorf("speech recognize: %w", err)
	}

	return firstAlternative(resp), nil
}

func (g *GoogleTranscriber) retry(ctx context.Context, fn func() (*speechpb.RecognizeResponse, error)) (*speechpb.RecognizeResponse, error) {
	backoff := g.backoff
	var last error
	for attempt := 0; attempt <= g.cfg.MaxRetries; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		resp, err := fn()
		if err == nil {
			return resp, nil
		}
		last = err

		code := status.Code(err)
		if code != codes.Unavailable && code != codes.ResourceExhausted && code != codes.DeadlineExceeded {
			return nil, err
		}
		if attempt == g.cfg.MaxRetries {
			break
		}
		g.log.Warn("retrying speech recognition",
			zap.Int("attempt", attempt+1),
			zap.String("code", code.String()),
			zap.Duration("backoff", backoff))

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > g.maxBackoff {
			backoff = g.maxBackoff
		}
	}
	return nil, last
}

func firstAlternative(resp *speechpb.RecognizeResponse) *Transcript {
	if resp == nil {
		return nil
	}
	for _, result := range resp.GetResults() {
		alts := result.GetAlternatives()
		if len(alts) == 0 {
			continue
		}
		return &Transcript{
			Text:       normalize(alts[0].GetTranscript()),
			Confidence: float64(alts[0].GetConfidence()),
		}
	}
	return nil
}
