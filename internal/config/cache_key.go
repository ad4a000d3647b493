package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// SessionStartKey returns the cache key for a skill session's start time.
func (r *CacheKeyStruct) SessionStartKey(sessionID string) string {
	return fmt.Sprintf("session:%s:start", sessionID)
}

// SessionAnswersKey returns the cache key for a session's autosaved answers.
func (r *CacheKeyStruct) SessionAnswersKey(sessionID string) string {
	return fmt.Sprintf("session:%s:answers", sessionID)
}

// TestPayloadKey returns the cache key for a test's candidate-safe payload.
func (r *CacheKeyStruct) TestPayloadKey(testID string) string {
	return fmt.Sprintf("test:%s:payload", testID)
}

// TestAnswerKeyKey returns the cache key for a test's answer key.
func (r *CacheKeyStruct) TestAnswerKeyKey(testID string) string {
	return fmt.Sprintf("test:%s:key", testID)
}

// CandidateActiveSessionKey returns the cache key for a candidate's
// currently active session for a given test.
func (r *CacheKeyStruct) CandidateActiveSessionKey(candidateID int, testID string) string {
	return fmt.Sprintf("candidate:%d:test:%s:session", candidateID, testID)
}

var CacheKey = NewCacheKeyStruct()
