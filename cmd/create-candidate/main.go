package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"syscall"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"

	"github.com/horizon-rp/department-backend/internal/config"
	"github.com/horizon-rp/department-backend/internal/database"
	"github.com/horizon-rp/department-backend/internal/logger"
	"github.com/horizon-rp/department-backend/internal/model"
	"github.com/horizon-rp/department-backend/internal/repository"
)

func main() {
	var (
		callsign   = flag.String("callsign", "", "department callsign (login name)")
		name       = flag.String("name", "", "display name")
		privileged = flag.Bool("privileged", false, "grant command staff access (examiner archive, token-free exams)")
	)
	flag.Parse()

	cfg := config.Load()
	log.Logger = logger.Setup(cfg.LogLevel, cfg.LogFormat)

	if *callsign == "" || *name == "" {
		fmt.Fprintln(os.Stderr, "usage: create-candidate -callsign <callsign> -name <name> [-privileged]")
		os.Exit(1)
	}

	fmt.Print("Password: ")
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		log.Fatal().Err(err).Msg("Password read failed")
	}
	if len(password) < 8 {
		log.Fatal().Msg("Password must be at least 8 characters")
	}

	fmt.Print("Confirm password: ")
	confirm, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		log.Fatal().Err(err).Msg("Password read failed")
	}
	if string(password) != string(confirm) {
		log.Fatal().Msg("Passwords do not match")
	}

	hash, err := bcrypt.GenerateFromPassword(password, cfg.BcryptCost)
	if err != nil {
		log.Fatal().Err(err).Msg("Password hash failed")
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("PostgreSQL connection failed")
	}
	defer pool.Close()

	candidate := &model.Candidate{
		Callsign:     *callsign,
		Name:         *name,
		PasswordHash: string(hash),
		Privileged:   *privileged,
	}
	if err := repository.NewCandidateRepository(pool).Create(ctx, candidate); err != nil {
		log.Fatal().Err(err).Msg("Candidate creation failed")
	}

	log.Info().
		Str("id", candidate.ID.String()).
		Str("callsign", candidate.Callsign).
		Bool("privileged", candidate.Privileged).
		Msg("Candidate created")
}
