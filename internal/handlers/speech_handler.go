package handlers

import (
	"encoding/base64"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"ella/internal/service"
)

// multipartMemory is how much of an upload is buffered in memory before
// spilling to temp files
const multipartMemory = 4 << 20

// SpeechHandler serves pronunciation evaluation
type SpeechHandler struct {
	speechService *service.SpeechService
	logger        *zap.Logger
}

// NewSpeechHandler creates a new speech handler
func NewSpeechHandler(speechService *service.SpeechService, logger *zap.Logger) *SpeechHandler {
	return &SpeechHandler{
		speechService: speechService,
		logger:        logger.Named("speech"),
	}
}

type speechJSONRequest struct {
	Audio        string `json:"audio"`
	ExpectedWord string `json:"expectedWord"`
}

// Evaluate scores a recording of the learner reading expectedWord. The
// audio arrives either as a multipart "audio" file or base64 in JSON.
func (h *SpeechHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	audio, expected, err := readSpeechRequest(r)
	if err != nil {
		respondWithError(w, h.logger, "Invalid evaluate request", err)
		return
	}

	result, err := h.speechService.Evaluate(r.Context(), audio, expected)
	if err != nil {
		respondWithError(w, h.logger, "Failed to evaluate pronunciation", err)
		return
	}

	respondJSON(w, http.StatusOK, envelope{
		"success":    result.Success,
		"correct":    result.Correct,
		"transcript": result.Transcript,
		"expected":   result.Expected,
		"confidence": result.Confidence,
		"similarity": result.Similarity,
		"score":      result.Score,
		"message":    result.Message,
	})
}

// Transcribe returns what the recognizer heard, without scoring
func (h *SpeechHandler) Transcribe(w http.ResponseWriter, r *http.Request) {
	audio, _, err := readSpeechRequest(r)
	if err != nil {
		respondWithError(w, h.logger, "Invalid transcribe request", err)
		return
	}

	transcript, err := h.speechService.Transcribe(r.Context(), audio)
	if err != nil {
		respondWithError(w, h.logger, "Failed to transcribe audio", err)
		return
	}
	if transcript == nil {
		respondJSON(w, http.StatusOK, envelope{
			"success":    false,
			"transcript": "",
			"confidence": 0,
			"message":    "No speech recognized",
		})
		return
	}
	respondJSON(w, http.StatusOK, envelope{
		"transcript": transcript.Text,
		"confidence": transcript.Confidence,
	})
}

// readSpeechRequest extracts the audio bytes and expected word from either
// request encoding. Missing fields are left empty for the service to reject.
func readSpeechRequest(r *http.Request) ([]byte, string, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		var req speechJSONRequest
		if err := decodeJSON(r, &req); err != nil {
			return nil, "", err
		}
		if req.Audio == "" {
			return nil, req.ExpectedWord, nil
		}
		audio, err := base64.StdEncoding.DecodeString(stripDataURL(req.Audio))
		if err != nil {
			return nil, "", &service.Error{Category: service.ErrInvalidInput, Message: "Audio must be base64 encoded"}
		}
		return audio, req.ExpectedWord, nil
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, "", &service.Error{Category: service.ErrInvalidInput, Message: "Request body too large"}
		}
		return nil, "", &service.Error{Category: service.ErrInvalidInput, Message: "Invalid multipart form"}
	}
	expected := r.FormValue("expectedWord")

	file, _, err := r.FormFile("audio")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, expected, nil
	}
	if err != nil {
		return nil, "", &service.Error{Category: service.ErrInvalidInput, Message: "Invalid audio upload"}
	}
	defer file.Close()

	audio, err := io.ReadAll(file)
	if err != nil {
		return nil, "", err
	}
	return audio, expected, nil
}

// stripDataURL drops a "data:audio/...;base64," prefix browsers add
func stripDataURL(s string) string {
	if strings.HasPrefix(s, "data:") {
		if _, data, ok := strings.Cut(s, ","); ok {
			return data
		}
	}
	return s
}
