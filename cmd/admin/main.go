package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"grana/internal/domain/category"
	"grana/internal/domain/transaction"
	"grana/internal/infrastructure/postgres"
	"grana/internal/shared/config"
	"grana/internal/shared/logger"
)

const usage = `Grana Admin CLI - Management commands for the Grana API

Usage:
  admin <command> [options]

Commands:
  seed-categories   Create the default category set for a user
  recategorize      Re-run keyword categorization over existing transactions

Examples:
  # Seed default categories for a specific user
  admin seed-categories --user-id=1

  # Fill category gaps for a user
  admin recategorize --user-id=1

  # Recategorize for multiple users, overwriting existing assignments
  admin recategorize --user-id=1,2,3 --force

  # Recategorize every user
  admin recategorize --all

  # Run with timeout
  admin recategorize --all --timeout=5m
`

func main() {
	logger.SetGlobal(logger.New())

	if len(os.Args) < 2 {
		fmt.Printf("%s\n", usage)
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "seed-categories":
		runSeedCategories(os.Args[2:])
	case "recategorize":
		runRecategorize(os.Args[2:])
	case "help", "-h", "--help":
		fmt.Printf("%s\n", usage)
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		fmt.Printf("%s\n", usage)
		os.Exit(1)
	}
}

func runSeedCategories(args []string) {
	fs := flag.NewFlagSet("seed-categories", flag.ExitOnError)

	userIDStr := fs.String("user-id", "", "User ID(s) to seed (comma-separated for multiple)")
	timeoutStr := fs.String("timeout", "1m", "Timeout for the operation (e.g., 30s, 5m)")

	fs.Usage = func() {
		fmt.Println("Usage: admin seed-categories [options]")
		fmt.Println("\nOptions:")
		fs.PrintDefaults()
		fmt.Println("\nExamples:")
		fmt.Println("  admin seed-categories --user-id=1")
		fmt.Println("  admin seed-categories --user-id=1,2,3")
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if *userIDStr == "" {
		fmt.Println("Error: must specify --user-id")
		fs.Usage()
		os.Exit(1)
	}

	timeout, err := time.ParseDuration(*timeoutStr)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid timeout format")
	}

	db := mustConnect()
	defer db.Close()

	categoryService := category.NewService(postgres.NewCategoryRepository(db), log.Logger)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	for _, userID := range mustParseUserIDs(*userIDStr) {
		created, err := categoryService.SeedDefaults(ctx, userID)
		if err != nil {
			log.Fatal().Err(err).Int64("user_id", userID).Msg("failed to seed categories")
		}
		fmt.Printf("user %d: created %d default categories\n", userID, created)
	}
}

func runRecategorize(args []string) {
	fs := flag.NewFlagSet("recategorize", flag.ExitOnError)

	userIDStr := fs.String("user-id", "", "User ID(s) to process (comma-separated for multiple)")
	allUsers := fs.Bool("all", false, "Process all users")
	force := fs.Bool("force", false, "Re-evaluate every transaction, not just uncategorized ones")
	timeoutStr := fs.String("timeout", "30m", "Timeout for the operation (e.g., 5m, 1h)")

	fs.Usage = func() {
		fmt.Println("Usage: admin recategorize [options]")
		fmt.Println("\nOptions:")
		fs.PrintDefaults()
		fmt.Println("\nExamples:")
		fmt.Println("  admin recategorize --user-id=1")
		fmt.Println("  admin recategorize --user-id=1,2,3 --force")
		fmt.Println("  admin recategorize --all --timeout=1h")
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if *userIDStr == "" && !*allUsers {
		fmt.Println("Error: must specify --user-id or --all")
		fs.Usage()
		os.Exit(1)
	}

	timeout, err := time.ParseDuration(*timeoutStr)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid timeout format")
	}

	db := mustConnect()
	defer db.Close()

	transactionService := transaction.NewService(
		postgres.NewTransactionRepository(db),
		postgres.NewCategoryRepository(db),
		log.Logger,
	)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var userIDs []int64
	if *allUsers {
		userIDs, err = postgres.NewUserRepository(db).ListIDs(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to list users")
		}
		log.Info().Int("count", len(userIDs)).Msg("found users")
	} else {
		userIDs = mustParseUserIDs(*userIDStr)
	}

	if len(userIDs) == 0 {
		log.Info().Msg("no users to process")
		return
	}

	mode := transaction.ModeFillGaps
	if *force {
		mode = transaction.ModeForce
	}

	startTime := time.Now()
	total := 0
	for _, userID := range userIDs {
		categorized, err := transactionService.AutoCategorize(ctx, userID, mode)
		if err != nil {
			log.Fatal().Err(err).Int64("user_id", userID).Msg("recategorization failed")
		}
		fmt.Printf("user %d: categorized %d transactions\n", userID, categorized)
		total += categorized
	}

	log.Info().
		Int("users", len(userIDs)).
		Int("categorized", total).
		Dur("elapsed", time.Since(startTime)).
		Msg("recategorization completed")
}

func mustConnect() *postgres.DB {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	db, err := postgres.New(cfg.Database.ConnectionString())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	log.Info().Msg("connected to database")
	return db
}

func mustParseUserIDs(s string) []int64 {
	var userIDs []int64
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			log.Fatal().Str("value", p).Msg("invalid user ID")
		}
		userIDs = append(userIDs, id)
	}
	return userIDs
}
