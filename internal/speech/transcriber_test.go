package speech

import (
	"context"
	"testing"
	"time"

	"cloud.google.com/go/speech/apiv1/speechpb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type fakeRecognizer struct {
	errs  []error
	resp  *speechpb.RecognizeResponse
	calls int
	last  *speechpb.RecognizeRequest
}

func (f *fakeRecognizer) Recognize(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error) {
	f.calls++
	f.last = req
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return nil, err
	}
	return f.resp, nil
}

func (f *fakeRecognizer) Close() error { return nil }

func newTestTranscriber(rec recognizer, retries int) *GoogleTranscriber {
	g := newGoogleTranscriber(rec, RecognizerConfig{MaxRetries: retries}, zap.NewNop())
	g.backoff = time.Millisecond
	g.maxBackoff = time.Millisecond
	return g
}

func response(text string, confidence float32) *speechpb.RecognizeResponse {
	return &speechpb.RecognizeResponse{
		Results: []*speechpb.SpeechRecognitionResult{{
			Alternatives: []*speechpb.SpeechRecognitionAlternative{{Transcript: text, Confidence: confidence}},
		}},
	}
}

func TestGoogleTranscriberNormalizesTranscript(t *testing.T) {
	rec := &fakeRecognizer{resp: response("  Rabbit ", 0.8)}
	g := newTestTranscriber(rec, 0)

	got, err := g.Transcribe(context.Background(), []byte{1, 2, 3})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "rabbit", got.Text)
	assert.InDelta(t, 0.8, got.Confidence, 1e-6)

	cfg := rec.last.GetConfig()
	assert.Equal(t, speechpb.RecognitionConfig_LINEAR16, cfg.GetEncoding())
	assert.Equal(t, int32(16000), cfg.GetSampleRateHertz())
	assert.Equal(t, "en-US", cfg.GetLanguageCode())
}

func TestGoogleTranscriberNoResults(t *testing.T) {
	g := newTestTranscriber(&fakeRecognizer{resp: &speechpb.RecognizeResponse{}}, 0)

	got, err := g.Transcribe(context.Background(), []byte{1})
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestGoogleTranscriberEmptyAudio(t *testing.T) {
	rec := &fakeRecognizer{}
	g := newTestTranscriber(rec, 0)

	got, err := g.Transcribe(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Zero(t, rec.calls)
}

func TestGoogleTranscriberRetries(t *testing.T) {
	tests := []struct {
		name      string
		errs      []error
		retries   int
		wantErr   bool
		wantCalls int
	}{
		{
			name:      "recovers from unavailable",
			errs:      []error{status.Error(codes.Unavailable, "down")},
			retries:   2,
			wantCalls: 2,
		},
		{
			name:      "gives up after max retries",
			errs:      []error{status.Error(codes.ResourceExhausted, "quota"), status.Error(codes.DeadlineExceeded, "slow"), status.Error(codes.Unavailable, "down")},
			retries:   2,
			wantErr:   true,
			wantCalls: 3,
		},
		{
			name:      "does not retry invalid argument",
			errs:      []error{status.Error(codes.InvalidArgument, "bad audio")},
			retries:   3,
			wantErr:   true,
			wantCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &fakeRecognizer{errs: tt.errs, resp: response("cat", 0.9)}
			g := newTestTranscriber(rec, tt.retries)

			_, err := g.Transcribe(context.Background(), []byte{1})
			if (err != nil) != tt.wantErr {
				t.Errorf("Transcribe() error = %v, wantErr %v", err, tt.wantErr)
			}
			assert.Equal(t, tt.wantCalls, rec.calls)
		})
	}
}
