package cli

import (
	"context"
	"log"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/spf13/cobra"

	"quizdeck-service/internal/app"
	"quizdeck-service/internal/config"
	"quizdeck-service/internal/domain"
	pgstore "quizdeck-service/internal/infra/postgres"
)

// NewSeedCmd publishes a demo quiz through the regular draft path so a
// fresh install has something to play.
func NewSeedCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Publish a demo quiz into the configured store",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd.Context(), *configPath)
		},
	}
}

func runSeed(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := runMigrationsWithConfig(ctx, cfg); err != nil {
		return err
	}

	pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	bank := app.NewQuestionBank(pgstore.NewDocStore(pool))
	draft := app.NewDraftBuilder()
	for _, spec := range demoQuestions() {
		if err := draft.Stage(spec); err != nil {
			return err
		}
	}
	published, err := draft.Publish(ctx, "Capitals", bank)
	if err != nil {
		return err
	}
	log.Printf("seeded quiz %q with %d questions", "Capitals", published)
	return nil
}

func demoQuestions() []domain.QuestionSpec {
	return []domain.QuestionSpec{
		{
			Text:    "Capital of France?",
			Options: []string{"Paris", "Lyon", "Nice", "Rome"},
			Correct: "Paris",
			Points:  10,
		},
		{
			Text:    "Capital of Japan?",
			Options: []string{"Osaka", "Kyoto", "Tokyo", "Nagoya"},
			Correct: "Tokyo",
			Points:  10,
		},
		{
			Text:    "Capital of Australia?",
			Options: []string{"Sydney", "Canberra", "Melbourne", "Perth"},
			Correct: "Canberra",
			Points:  5,
		},
	}
}
