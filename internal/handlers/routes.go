package handlers

import (
	"net/http"

	"ella/internal/security"
)

// Router bundles the handlers mounted on the HTTP mux
type Router struct {
	Middleware *Middleware
	Auth       *AuthHandler
	Users      *UserHandler
	Books      *BookHandler
	Reading    *ReadingHandler
	Speech     *SpeechHandler
	Prizes     *PrizeHandler

	// EvaluateLimiter throttles pronunciation evaluation per user
	EvaluateLimiter *security.RateLimiter
	MetricsHandler  http.Handler
	AllowedOrigins  []string
	MaxBodyBytes    int64
}

// Handler builds the mux and wraps it with logging, CORS and body limits
func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	auth := rt.Middleware.RequireAuth

	mux.HandleFunc("GET /{$}", rt.serviceInfo)
	mux.HandleFunc("GET /api/health", rt.health)
	if rt.MetricsHandler != nil {
		mux.Handle("GET /metrics", rt.MetricsHandler)
	}

	// Auth routes
	mux.HandleFunc("POST /api/auth/verify", rt.Auth.Verify)
	mux.HandleFunc("POST /api/auth/signup", rt.Auth.Signup)
	mux.HandleFunc("POST /api/auth/logout", auth(rt.Auth.Logout))
	mux.HandleFunc("GET /api/auth/user", auth(rt.Auth.CurrentUser))

	// User routes
	mux.HandleFunc("GET /api/user/progress", auth(rt.Users.GetProgress))
	mux.HandleFunc("POST /api/user/progress", auth(rt.Users.UpdateProgress))
	mux.HandleFunc("GET /api/user/achievements", auth(rt.Users.GetAchievements))
	mux.HandleFunc("PUT /api/user/profile", auth(rt.Users.UpdateProfile))
	mux.HandleFunc("GET /api/user/history", auth(rt.Users.History))

	// Book routes
	mux.HandleFunc("GET /api/books/catalog", auth(rt.Books.Catalog))
	mux.HandleFunc("GET /api/books/book/{bookId}", auth(rt.Books.GetBook))
	mux.HandleFunc("GET /api/books/search", auth(rt.Books.Search))
	mux.HandleFunc("GET /api/books/last-unfinished", auth(rt.Books.LastUnfinished))

	// Reading routes
	mux.HandleFunc("POST /api/reading/start", auth(rt.Reading.StartSession))
	mux.HandleFunc("GET /api/reading/session/{sessionId}", auth(rt.Reading.GetSession))
	mux.HandleFunc("POST /api/reading/record-word", auth(rt.Reading.RecordWord))
	mux.HandleFunc("POST /api/reading/advance-sentence", auth(rt.Reading.AdvanceSentence))
	mux.HandleFunc("POST /api/reading/complete", auth(rt.Reading.CompleteSession))
	mux.HandleFunc("GET /api/reading/sessions/user", auth(rt.Reading.ListUserSessions))

	// Speech routes
	evaluate := rt.Speech.Evaluate
	if rt.EvaluateLimiter != nil {
		evaluate = rt.Middleware.RateLimit(rt.EvaluateLimiter, evaluate)
	}
	mux.HandleFunc("POST /api/speech/evaluate", auth(evaluate))
	mux.HandleFunc("POST /api/speech/transcribe", auth(rt.Speech.Transcribe))

	// Prize routes
	mux.HandleFunc("GET /api/prizes/stickers", auth(rt.Prizes.Stickers))
	mux.HandleFunc("GET /api/prizes/unlocked", auth(rt.Prizes.Unlocked))
	mux.HandleFunc("POST /api/prizes/unlock/{stickerId}", auth(rt.Prizes.Unlock))
	mux.HandleFunc("POST /api/prizes/redeem", auth(rt.Prizes.Redeem))
	mux.HandleFunc("GET /api/prizes/redemptions", auth(rt.Prizes.Redemptions))
	mux.HandleFunc("GET /api/prizes/leaderboard", auth(rt.Prizes.Leaderboard))
	mux.HandleFunc("GET /api/prizes/stats", auth(rt.Prizes.Stats))

	var handler http.Handler = mux
	handler = MaxBytes(rt.MaxBodyBytes)(handler)
	handler = CORS(rt.AllowedOrigins)(handler)
	return rt.Middleware.Logging(handler)
}

func (rt *Router) serviceInfo(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, envelope{
		"service": "ELLA reading backend",
		"status":  "running",
		"endpoints": []string{
			"/api/health", "/api/auth", "/api/user", "/api/books",
			"/api/reading", "/api/speech", "/api/prizes",
		},
	})
}

func (rt *Router) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, envelope{
		"status": "healthy",
		"speech": rt.Speech.speechService.Available(),
	})
}
