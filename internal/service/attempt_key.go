package service

import (
	"fmt"
	"strings"
)

// The attempt key is the sole idempotency mechanism for sessions: the same
// participant revisiting the same test in the same evaluation always maps to
// the same key, and the storage-level unique index on it guarantees at most
// one session row per key. The format is versioned so older formats can be
// migrated rather than guessed at.
const (
	attemptKeyVersion      = "v1"
	participantTokenMarker = ":pt:"
)

// BuildAttemptKey derives the canonical key for one
// (evaluation, test, participant) combination. The participant token is the
// trailing segment so it can be recovered from a bare key.
func BuildAttemptKey(evaluationID, testDefinitionID, participantToken string) string {
	return fmt.Sprintf("%s:eval:%s:test:%s%s%s",
		attemptKeyVersion, evaluationID, testDefinitionID, participantTokenMarker, participantToken)
}

// ParticipantTokenFromAttemptKey recovers the participant token from a key,
// or "" when the key does not carry one.
func ParticipantTokenFromAttemptKey(attemptKey string) string {
	idx := strings.LastIndex(attemptKey, participantTokenMarker)
	if idx == -1 {
		return ""
	}
	return attemptKey[idx+len(participantTokenMarker):]
}
