package models

import (
	"sort"
	"time"
)

const (
	DefaultCharacter = "owl"
	DefaultRole      = "Student"

	// BaselineSticker is granted at signup and never removed
	BaselineSticker = 1
)

// User is a learner account. Identity lives with the auth provider; UID is
// the provider's stable user id.
type User struct {
	UID          string          `json:"uid"`
	Email        string          `json:"email"`
	Name         string          `json:"name"`
	Character    string          `json:"character"`
	Role         string          `json:"role"`
	EnrolledCode string          `json:"enrolledCode"`
	ClassCode    string          `json:"classCode"`
	Rewards      UserRewardState `json:"-"`
	CreatedAt    time.Time       `json:"createdAt"`
	LastLogin    *time.Time      `json:"lastLogin,omitempty"`
	LastActivity *time.Time      `json:"lastActivity,omitempty"`
}

// UserRewardState is the part of the user record the reading engine merges into
type UserRewardState struct {
	Points           int             `json:"points"`
	TotalPoints      int             `json:"totalPoints"`
	UnlockedStickers []int           `json:"unlockedStickers"`
	Progress         []ProgressEntry `json:"progress"`

	Version int64 `json:"-"`
}

// Normalize fills defaults on state decoded from storage: stickers always
// include the baseline and are kept sorted, progress is never nil.
func (r *UserRewardState) Normalize() {
	if r.Progress == nil {
		r.Progress = []ProgressEntry{}
	}
	if !r.HasSticker(BaselineSticker) {
		r.UnlockedStickers = append(r.UnlockedStickers, BaselineSticker)
	}
	sort.Ints(r.UnlockedStickers)
}

// HasSticker reports whether id is unlocked
func (r *UserRewardState) HasSticker(id int) bool {
	for _, s := range r.UnlockedStickers {
		if s == id {
			return true
		}
	}
	return false
}

// BooksCompleted counts progress entries that reached the last sentence
func (r *UserRewardState) BooksCompleted() int {
	n := 0
	for _, p := range r.Progress {
		if p.Completed() {
			n++
		}
	}
	return n
}

// ProgressEntry is the per-book progress embedded in the user record
type ProgressEntry struct {
	BookID         string `json:"bookId"`
	SentencesRead  int    `json:"sentencesRead"`
	TotalSentences int    `json:"totalSentences"`
}

// Completed is derived, never stored
func (p ProgressEntry) Completed() bool {
	return p.SentencesRead >= p.TotalSentences
}

// NewUser returns a user with the signup defaults
func NewUser(uid, email, name string, now time.Time) *User {
	return &User{
		UID:       uid,
		Email:     email,
		Name:      name,
		Character: DefaultCharacter,
		Role:      DefaultRole,
		Rewards: UserRewardState{
			UnlockedStickers: []int{BaselineSticker},
			Progress:         []ProgressEntry{},
		},
		CreatedAt: now,
		LastLogin: &now,
	}
}

// UserProfile is the user record as returned to its owner, rewards included
type UserProfile struct {
	User
	UserRewardState
}

// Profile flattens the user and its reward state for clients
func (u *User) Profile() UserProfile {
	return UserProfile{User: *u, UserRewardState: u.Rewards}
}

// LeaderboardEntry is one row of the points leaderboard
type LeaderboardEntry struct {
	Rank           int    `json:"rank"`
	UID            string `json:"uid"`
	Name           string `json:"name"`
	Character      string `json:"character"`
	TotalPoints    int    `json:"totalPoints"`
	BooksCompleted int    `json:"booksCompleted"`
}

// ProfileUpdate carries the editable profile fields; nil means unchanged
type ProfileUpdate struct {
	Name         *string `json:"name"`
	Character    *string `json:"character"`
	EnrolledCode *string `json:"enrolledCode"`
	ClassCode    *string `json:"classCode"`

	// Role is only honored at signup
	Role *string `json:"-"`
}

// IsEmpty reports whether no field was supplied
func (p ProfileUpdate) IsEmpty() bool {
	return p.Name == nil && p.Character == nil && p.EnrolledCode == nil && p.ClassCode == nil && p.Role == nil
}

// RewardUpdate mutates reward state inside a storage transaction. It may run
// more than once when a concurrent writer forces a retry, so it must depend
// only on the state it is given. Returning an error aborts the update.
type RewardUpdate func(state *UserRewardState) error
