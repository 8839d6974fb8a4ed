package exam

import (
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/horizon-rp/department-backend/internal/model"
)

// Generate draws a randomized exam instance from the question pool.
//
// It samples min(sampleSize, len(pool)) questions without replacement (the
// sample order is the presentation order) and independently permutes every
// question's option list, remapping the correct indices against the new
// order. The remapped indices always refer to the same option texts as the
// authored question, so shuffling never changes semantic correctness.
func Generate(examTypeID uuid.UUID, pool []model.Question, sampleSize int) (*model.GeneratedExam, error) {
	if len(pool) == 0 {
		return nil, ErrEmptyPool
	}

	n := sampleSize
	if n <= 0 || n > len(pool) {
		n = len(pool)
	}

	picked := rand.Perm(len(pool))[:n]

	questions := make([]model.GeneratedQuestion, 0, n)
	for _, idx := range picked {
		questions = append(questions, shuffleQuestion(pool[idx]))
	}

	return &model.GeneratedExam{
		ExamTypeID:  examTypeID,
		Questions:   questions,
		GeneratedAt: time.Now(),
	}, nil
}

// shuffleQuestion permutes the option order of a single question and
// recomputes the correct-index set against the permuted order.
func shuffleQuestion(q model.Question) model.GeneratedQuestion {
	perm := rand.Perm(len(q.Options))

	// perm[newPos] = originalPos, so invert it to map original -> new.
	newPosOf := make([]int, len(q.Options))
	options := make([]string, len(q.Options))
	for newPos, origPos := range perm {
		newPosOf[origPos] = newPos
		options[newPos] = q.Options[origPos]
	}

	correct := make([]int, 0, len(q.CorrectIndices))
	for _, origIdx := range q.CorrectIndices {
		correct = append(correct, newPosOf[origIdx])
	}

	return model.GeneratedQuestion{
		ID:               q.ID,
		Prompt:           q.Prompt,
		Options:          options,
		CorrectIndices:   correct,
		MultipleChoice:   q.MultipleChoice,
		TimeLimitSeconds: q.TimeLimitSeconds,
	}
}
