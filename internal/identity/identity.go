// Package identity derives the two book identifiers the agent uses.
//
// ClientBookID addresses the book on the server and is stable across
// devices; BookPathHash partitions the local session store and is only
// meaningful on this device. The two must never be conflated.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// ClientBookID returns the device-independent identifier for a book,
// derived from its normalized title and author.
func ClientBookID(title, author string) string {
	key := normalize(title) + "|" + normalize(author)
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// BookPathHash returns the device-local identifier for a document,
// derived from its absolute path.
func BookPathHash(path string) string {
	sum := sha256.Sum256([]byte(path))
	return hex.EncodeToString(sum[:])
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
