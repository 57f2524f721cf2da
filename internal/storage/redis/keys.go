package redis

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Key prefix for all pacman data
const keyPrefix = "pacman"

// credentialKey returns the Redis key for a user's credential
func credentialKey(username string) string {
	return fmt.Sprintf("%s:credential:%s", keyPrefix, username)
}

// leaderboardKey returns the Redis key for the leaderboard ZSET
func leaderboardKey() string {
	return fmt.Sprintf("%s:leaderboard", keyPrefix)
}

// memberSep sorts below every byte a valid username can hold, so members with
// equal scores order exactly as their usernames do (model.CompareEntries).
const memberSep = "\x00"

// leaderboardMember makes a ZSET member for one game. The same user may hold
// several entries with the same score, so each member carries a unique suffix.
func leaderboardMember(user string) string {
	return user + memberSep + uuid.NewString()
}

// memberUser recovers the username from a leaderboard member
func memberUser(member string) string {
	if i := strings.Index(member, memberSep); i >= 0 {
		return member[:i]
	}
	return member
}
