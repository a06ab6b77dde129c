package integration

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"quizdeck-service/internal/app"
	"quizdeck-service/internal/auth"
	"quizdeck-service/internal/domain"
	"quizdeck-service/internal/infra/memory"
	pgstore "quizdeck-service/internal/infra/postgres"
	pgmigrations "quizdeck-service/internal/infra/postgres/migrations"
	redisinfra "quizdeck-service/internal/infra/redis"
)

func TestQuizLifecycleEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	migrateDB(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}

	store := pgstore.NewDocStore(pool)
	bank := app.NewQuestionBank(store)
	results := app.NewResultLog(store)
	cache := redisinfra.NewQuestionCache(redisClient, bank, 5*time.Minute)
	attempts := redisinfra.NewAttemptStore(redisClient, 5*time.Minute)
	service := app.NewQuizService(bank, results, cache, attempts, memory.NewDraftStore())

	authSvc := auth.NewService(store)
	if err := authSvc.Register(ctx, "admin", "pw", auth.RoleAdmin); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := authSvc.Authenticate(ctx, "admin", "pw"); err != nil {
		t.Fatalf("authenticate: %v", err)
	}

	if err := service.StageQuestion("admin", domain.QuestionSpec{
		Text:    "Capital of France?",
		Options: []string{"Paris", "Lyon", "Nice", "Rome"},
		Correct: "Paris",
		Points:  10,
	}); err != nil {
		t.Fatalf("stage: %v", err)
	}
	if _, err := service.PublishDraft(ctx, "admin", "Capitals"); err != nil {
		t.Fatalf("publish: %v", err)
	}

	submit := func(username, option string) domain.Result {
		attempt, err := service.StartQuiz(ctx, "Capitals", domain.UserIdentity{Username: username, Role: "user"})
		if err != nil {
			t.Fatalf("start %s: %v", username, err)
		}
		if err := service.AnswerQuestion(attempt.ID, "Capital of France?", option); err != nil {
			t.Fatalf("answer %s: %v", username, err)
		}
		result, err := service.SubmitAttempt(ctx, attempt.ID)
		if err != nil {
			t.Fatalf("submit %s: %v", username, err)
		}
		return result
	}

	if r := submit("participant1", "Paris"); r.Score != 100.0 {
		t.Fatalf("expected 100.0, got %v", r.Score)
	}
	if r := submit("participant2", "Lyon"); r.Score != 0.0 {
		t.Fatalf("expected 0.0, got %v", r.Score)
	}

	stats, err := service.Stats(ctx, "Capitals")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.AttemptCount != 2 || stats.AverageScore != 50.0 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	breakdown, err := service.Breakdown(ctx, "Capitals")
	if err != nil {
		t.Fatalf("breakdown: %v", err)
	}
	want := map[string]float64{"Paris": 50.0, "Lyon": 50.0, "Nice": 0.0, "Rome": 0.0}
	for _, opt := range breakdown[0].Options {
		if opt.Percentage != want[opt.Option] {
			t.Fatalf("option %q: expected %v%%, got %v%%", opt.Option, want[opt.Option], opt.Percentage)
		}
	}

	leaderboard, err := service.Leaderboard(ctx, "Capitals", 10)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(leaderboard) != 2 || leaderboard[0].Username != "participant1" || leaderboard[0].BestScore != 100.0 {
		t.Fatalf("unexpected leaderboard: %+v", leaderboard)
	}
}

func TestConcurrentVotesAgainstPostgres(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, cleanup := startPostgres(t, ctx)
	defer cleanup()
	migrateDB(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	bank := app.NewQuestionBank(pgstore.NewDocStore(pool))
	if _, err := bank.AddQuestion(ctx, "Capitals", domain.QuestionSpec{
		Text:    "Capital of France?",
		Options: []string{"Paris", "Lyon", "Nice", "Rome"},
		Correct: "Paris",
		Points:  10,
	}); err != nil {
		t.Fatalf("add: %v", err)
	}

	const voters = 32
	var wg sync.WaitGroup
	errs := make(chan error, voters)
	for i := 0; i < voters; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- bank.RecordVote(ctx, "Capitals", "Capital of France?", "Paris")
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("vote: %v", err)
		}
	}

	questions, err := bank.QuestionsFor(ctx, "Capitals")
	if err != nil {
		t.Fatalf("questions: %v", err)
	}
	if questions[0].Votes["Paris"] != voters {
		t.Fatalf("expected %d votes, got %d (lost updates)", voters, questions[0].Votes["Paris"])
	}
}

func migrateDB(t *testing.T, ctx context.Context, dsn string) {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
