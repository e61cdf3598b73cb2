package handlers

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"ella/internal/service"
)

// PrizeHandler serves stickers, redemptions, the leaderboard and stats
type PrizeHandler struct {
	prizeService *service.PrizeService
	logger       *zap.Logger
}

// NewPrizeHandler creates a new prize handler
func NewPrizeHandler(prizeService *service.PrizeService, logger *zap.Logger) *PrizeHandler {
	return &PrizeHandler{
		prizeService: prizeService,
		logger:       logger.Named("prizes"),
	}
}

type redeemRequest struct {
	PrizeID   flexibleID `json:"prizeId"`
	PointCost int        `json:"pointCost"`
}

// Stickers lists the catalog with the caller's unlock status
func (h *PrizeHandler) Stickers(w http.ResponseWriter, r *http.Request) {
	stickers, err := h.prizeService.Stickers(r.Context(), callerID(r))
	if err != nil {
		respondWithError(w, h.logger, "Failed to get stickers", err)
		return
	}

	unlocked := 0
	for _, s := range stickers {
		if s.Unlocked {
			unlocked++
		}
	}
	respondJSON(w, http.StatusOK, envelope{
		"stickers":      stickers,
		"unlockedCount": unlocked,
		"totalCount":    len(stickers),
	})
}

// Unlocked lists only the caller's unlocked stickers
func (h *PrizeHandler) Unlocked(w http.ResponseWriter, r *http.Request) {
	stickers, err := h.prizeService.Unlocked(r.Context(), callerID(r))
	if err != nil {
		respondWithError(w, h.logger, "Failed to get unlocked stickers", err)
		return
	}
	respondJSON(w, http.StatusOK, envelope{"stickers": stickers, "count": len(stickers)})
}

// Unlock unlocks a sticker the caller's lifetime points cover
func (h *PrizeHandler) Unlock(w http.ResponseWriter, r *http.Request) {
	stickerID, err := strconv.Atoi(r.PathValue("stickerId"))
	if err != nil {
		respondWithMessage(w, http.StatusBadRequest, "Invalid sticker ID")
		return
	}

	result, err := h.prizeService.Unlock(r.Context(), callerID(r), stickerID)
	if err != nil {
		respondWithError(w, h.logger, "Failed to unlock sticker", err)
		return
	}

	message := "Unlocked " + result.Sticker.Name + "!"
	if result.AlreadyUnlocked {
		message = "Sticker already unlocked"
	}
	respondJSON(w, http.StatusOK, envelope{"message": message, "sticker": result.Sticker})
}

// Redeem spends current points on a prize
func (h *PrizeHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	var req redeemRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, h.logger, "Invalid redeem request", err)
		return
	}

	remaining, err := h.prizeService.Redeem(r.Context(), callerID(r), service.RedeemInput{
		PrizeID:   req.PrizeID.String(),
		PointCost: req.PointCost,
	})
	if err != nil {
		respondWithError(w, h.logger, "Failed to redeem prize", err)
		return
	}
	respondJSON(w, http.StatusOK, envelope{
		"message":   "Prize redeemed successfully",
		"newPoints": remaining,
	})
}

// Redemptions lists the caller's recent redemptions
func (h *PrizeHandler) Redemptions(w http.ResponseWriter, r *http.Request) {
	redemptions, err := h.prizeService.Redemptions(r.Context(), callerID(r))
	if err != nil {
		respondWithError(w, h.logger, "Failed to get redemptions", err)
		return
	}
	respondJSON(w, http.StatusOK, envelope{"redemptions": redemptions, "count": len(redemptions)})
}

// Leaderboard ranks users by lifetime points
func (h *PrizeHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			respondWithMessage(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	entries, err := h.prizeService.Leaderboard(r.Context(), limit)
	if err != nil {
		respondWithError(w, h.logger, "Failed to get leaderboard", err)
		return
	}
	respondJSON(w, http.StatusOK, envelope{"leaderboard": entries, "count": len(entries)})
}

// Stats summarizes the caller's reading
func (h *PrizeHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.prizeService.Stats(r.Context(), callerID(r))
	if err != nil {
		respondWithError(w, h.logger, "Failed to get stats", err)
		return
	}
	respondJSON(w, http.StatusOK, envelope{"stats": stats, "totalStickers": len(service.Stickers)})
}
