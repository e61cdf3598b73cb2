package models

import "time"

// Sticker is a cosmetic reward unlocked by lifetime points
type Sticker struct {
	ID          int    `json:"stickerId"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Cost        int    `json:"pointCost"`
}

// StickerStatus is a catalog sticker as seen by one user
type StickerStatus struct {
	Sticker
	Unlocked  bool `json:"unlocked"`
	CanUnlock bool `json:"canUnlock"`
}

// Redemption debits spendable points for a prize
type Redemption struct {
	ID        string    `json:"id"`
	UserID    string    `json:"uid"`
	PrizeID   string    `json:"prizeId"`
	PointCost int       `json:"pointCost"`
	CreatedAt time.Time `json:"timestamp"`
}

// Activity is a reading history record written alongside progress updates
type Activity struct {
	ID             string    `json:"id"`
	UserID         string    `json:"uid"`
	BookID         string    `json:"bookId"`
	SentencesRead  int       `json:"sentencesRead"`
	TotalSentences int       `json:"totalSentences"`
	PointsEarned   int       `json:"pointsEarned"`
	Completed      bool      `json:"completed"`
	CreatedAt      time.Time `json:"timestamp"`
}

// ReadingStats summarizes a user's reading for the prizes page
type ReadingStats struct {
	TotalPoints       int     `json:"totalPoints"`
	CurrentPoints     int     `json:"currentPoints"`
	BooksStarted      int     `json:"booksStarted"`
	BooksCompleted    int     `json:"booksCompleted"`
	TotalSentences    int     `json:"totalSentencesRead"`
	CompletedSessions int     `json:"completedSessions"`
	AverageAccuracy   float64 `json:"averageAccuracy"`
	StickersUnlocked  int     `json:"stickersUnlocked"`
}

// LedgerRecord is a history row written in the same transaction as a
// reward update. Implemented by *Activity and *Redemption.
type LedgerRecord interface {
	ledgerRecord()
}

func (*Activity) ledgerRecord()   {}
func (*Redemption) ledgerRecord() {}
