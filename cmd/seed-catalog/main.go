package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/horizon-rp/department-backend/internal/config"
	"github.com/horizon-rp/department-backend/internal/database"
	"github.com/horizon-rp/department-backend/internal/logger"
	"github.com/horizon-rp/department-backend/internal/repository"
)

type seedQuestion struct {
	Prompt           string
	Options          []string
	CorrectIndices   []int
	MultipleChoice   bool
	TimeLimitSeconds int
}

type seedExamType struct {
	Name             string
	PassingThreshold float64
	QuestionCount    int
	Questions        []seedQuestion
}

var catalog = []seedExamType{
	{
		Name:             "Patrol Certification",
		PassingThreshold: 75,
		QuestionCount:    5,
		Questions: []seedQuestion{
			{
				Prompt:           "Which radio code signals an officer in distress?",
				Options:          []string{"Code 4", "Code 0", "Code 7", "Code 2"},
				CorrectIndices:   []int{1},
				TimeLimitSeconds: 30,
			},
			{
				Prompt:           "When is a felony traffic stop warranted?",
				Options:          []string{"Expired registration", "Occupant wanted for a violent crime", "Broken taillight", "Failure to signal"},
				CorrectIndices:   []int{1},
				TimeLimitSeconds: 45,
			},
			{
				Prompt:           "Select every item required before going on duty.",
				Options:          []string{"Body camera", "Radio check", "Personal phone", "Duty belt inspection"},
				CorrectIndices:   []int{0, 1, 3},
				MultipleChoice:   true,
				TimeLimitSeconds: 60,
			},
			{
				Prompt:           "What takes priority when arriving at an active scene?",
				Options:          []string{"Scene safety", "Witness statements", "Evidence collection", "Media control"},
				CorrectIndices:   []int{0},
				TimeLimitSeconds: 30,
			},
			{
				Prompt:           "Which pursuits must be terminated immediately?",
				Options:          []string{"Speeds above the limit", "Risk to bystanders outweighs the offense", "Suspect known to dispatch", "Nighttime pursuits"},
				CorrectIndices:   []int{1},
				TimeLimitSeconds: 45,
			},
		},
	},
	{
		Name:             "Field Training Evaluation",
		PassingThreshold: 80,
		QuestionCount:    3,
		Questions: []seedQuestion{
			{
				Prompt:           "A trainee draws their weapon without cause. First action?",
				Options:          []string{"Report after shift", "Immediate verbal correction", "Ignore once", "End the patrol"},
				CorrectIndices:   []int{1},
				TimeLimitSeconds: 40,
			},
			{
				Prompt:           "Select everything that belongs in a use-of-force report.",
				Options:          []string{"Force level applied", "Officer opinion of guilt", "Suspect behavior", "Medical aid rendered"},
				CorrectIndices:   []int{0, 2, 3},
				MultipleChoice:   true,
				TimeLimitSeconds: 60,
			},
			{
				Prompt:           "Who signs off a trainee's final evaluation?",
				Options:          []string{"Any senior officer", "The assigned field training officer", "Dispatch", "The trainee"},
				CorrectIndices:   []int{1},
				TimeLimitSeconds: 30,
			},
		},
	},
}

func main() {
	var (
		issueToken  = flag.String("issue-token", "", "issue an access token with this value instead of seeding")
		candidateID = flag.String("candidate-id", "", "candidate id for -issue-token")
		examTypeID  = flag.String("exam-type-id", "", "exam type id for -issue-token")
	)
	flag.Parse()

	cfg := config.Load()
	log.Logger = logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("PostgreSQL connection failed")
	}
	defer pool.Close()

	if *issueToken != "" {
		if err := issue(ctx, pool, *issueToken, *candidateID, *examTypeID); err != nil {
			log.Fatal().Err(err).Msg("Token issue failed")
		}
		log.Info().Str("token", *issueToken).Msg("Access token issued")
		return
	}

	for _, et := range catalog {
		if err := seedExam(ctx, pool, et); err != nil {
			log.Fatal().Err(err).Str("exam_type", et.Name).Msg("Seed failed")
		}
		log.Info().Str("exam_type", et.Name).Int("questions", len(et.Questions)).Msg("Seeded")
	}
}

func seedExam(ctx context.Context, pool *pgxpool.Pool, et seedExamType) error {
	var examTypeID uuid.UUID
	err := pool.QueryRow(ctx,
		`INSERT INTO exam_types (name, passing_threshold, question_count, active)
		 VALUES ($1, $2, $3, TRUE)
		 ON CONFLICT (name) DO UPDATE
		 SET passing_threshold = EXCLUDED.passing_threshold,
		     question_count = EXCLUDED.question_count,
		     active = TRUE
		 RETURNING id`,
		et.Name, et.PassingThreshold, et.QuestionCount,
	).Scan(&examTypeID)
	if err != nil {
		return fmt.Errorf("upsert exam type: %w", err)
	}

	// Re-seed the pool from scratch so edits to the catalog take effect.
	if _, err := pool.Exec(ctx, `DELETE FROM questions WHERE exam_type_id = $1`, examTypeID); err != nil {
		return fmt.Errorf("clear questions: %w", err)
	}

	for _, q := range et.Questions {
		optionsRaw, err := json.Marshal(q.Options)
		if err != nil {
			return fmt.Errorf("encode options: %w", err)
		}
		correctRaw, err := json.Marshal(q.CorrectIndices)
		if err != nil {
			return fmt.Errorf("encode correct indices: %w", err)
		}
		_, err = pool.Exec(ctx,
			`INSERT INTO questions (exam_type_id, prompt, options, correct_indices, multiple_choice, time_limit_seconds)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			examTypeID, q.Prompt, optionsRaw, correctRaw, q.MultipleChoice, q.TimeLimitSeconds,
		)
		if err != nil {
			return fmt.Errorf("insert question: %w", err)
		}
	}
	return nil
}

func issue(ctx context.Context, pool *pgxpool.Pool, token, candidateRaw, examTypeRaw string) error {
	candidateID, err := uuid.Parse(candidateRaw)
	if err != nil {
		return fmt.Errorf("parse candidate id: %w", err)
	}
	examTypeID, err := uuid.Parse(examTypeRaw)
	if err != nil {
		return fmt.Errorf("parse exam type id: %w", err)
	}
	return repository.NewAccessTokenRepository(pool).Issue(ctx, token, candidateID, examTypeID)
}
