package model

import (
	"cmp"
	"slices"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// MaxUsernameLength is the longest accepted username, in characters
const MaxUsernameLength = 20

// Credential is the stored login data for a user
type Credential struct {
	Username     string    `json:"username"`
	PasswordHash string    `json:"password_hash"` // bcrypt hash
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ValidateUsername checks that a username is non-empty, short and has no
// whitespace or control characters
func ValidateUsername(name string) error {
	if name == "" || utf8.RuneCountInString(name) > MaxUsernameLength {
		return ErrInvalidUsername
	}
	if strings.IndexFunc(name, invalidNameRune) >= 0 {
		return ErrInvalidUsername
	}
	return nil
}

func invalidNameRune(r rune) bool {
	return unicode.IsSpace(r) || unicode.IsControl(r)
}

// ValidatePassword checks that a password is non-empty and has no whitespace
func ValidatePassword(passwd string) error {
	if passwd == "" || strings.IndexFunc(passwd, unicode.IsSpace) >= 0 {
		return ErrInvalidPassword
	}
	return nil
}

// LeaderboardSize is how many entries the leaderboard keeps
const LeaderboardSize = 10

// LeaderboardEntry is one finished game's score
type LeaderboardEntry struct {
	User  string `json:"user"`
	Score uint64 `json:"score"`
}

// CompareEntries orders entries best first: higher score, then user name descending
func CompareEntries(a, b LeaderboardEntry) int {
	if r := cmp.Compare(b.Score, a.Score); r != 0 {
		return r
	}
	return cmp.Compare(b.User, a.User)
}

// InsertEntry adds an entry to a leaderboard, re-sorts it and truncates it to limit
func InsertEntry(board []LeaderboardEntry, entry LeaderboardEntry, limit int) []LeaderboardEntry {
	out := append(slices.Clone(board), entry)
	slices.SortStableFunc(out, CompareEntries)
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
