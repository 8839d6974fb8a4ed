package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// CandidateSessionKey returns the cache key for a candidate's login session.
func (r *CacheKeyStruct) CandidateSessionKey(candidateID string) string {
	return fmt.Sprintf("login:candidate:%s", candidateID)
}

// ExamSnapshotKey returns the cache key for a candidate's in-progress exam snapshot.
func (r *CacheKeyStruct) ExamSnapshotKey(candidateID string) string {
	return fmt.Sprintf("candidate:%s:exam_snapshot", candidateID)
}

var CacheKey = NewCacheKeyStruct()
