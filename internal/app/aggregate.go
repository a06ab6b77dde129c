package app

import (
	"context"
	"math"
	"sort"

	"quizdeck-service/internal/domain"
)

// DefaultLeaderboardLimit caps a leaderboard when the caller passes no limit.
const DefaultLeaderboardLimit = 10

// Aggregator derives dashboard views from the result log and the question
// bank. Nothing is cached; every call recomputes from current data.
type Aggregator struct {
	bank    *QuestionBank
	results *ResultLog
}

func NewAggregator(bank *QuestionBank, results *ResultLog) *Aggregator {
	return &Aggregator{bank: bank, results: results}
}

// QuizStats reports attempt count and mean score for a quiz. A quiz with no
// attempts has an average of zero.
func (a *Aggregator) QuizStats(ctx context.Context, quizName string) (domain.QuizStats, error) {
	results, err := a.results.ForQuiz(ctx, quizName)
	if err != nil {
		return domain.QuizStats{}, err
	}
	stats := domain.QuizStats{QuizName: quizName, AttemptCount: len(results)}
	if len(results) == 0 {
		return stats, nil
	}
	var sum float64
	for _, r := range results {
		sum += r.Score
	}
	stats.AverageScore = math.Round(sum/float64(len(results))*10) / 10
	return stats, nil
}

// QuestionBreakdown reports, for each question in insertion order, the vote
// share per option. A question with no votes reports all zeroes.
func (a *Aggregator) QuestionBreakdown(ctx context.Context, quizName string) ([]domain.QuestionBreakdown, error) {
	questions, err := a.bank.QuestionsFor(ctx, quizName)
	if err != nil {
		return nil, err
	}
	out := make([]domain.QuestionBreakdown, 0, len(questions))
	for _, q := range questions {
		breakdown := domain.QuestionBreakdown{QuestionText: q.Text}
		total := q.TotalVotes()
		for _, opt := range q.Options {
			votes := q.Votes[opt]
			pct := 0.0
			if total > 0 {
				pct = math.Round(float64(votes)/float64(total)*1000) / 10
			}
			breakdown.Options = append(breakdown.Options, domain.OptionBreakdown{
				Option:     opt,
				Votes:      votes,
				Percentage: pct,
				Correct:    opt == q.Correct,
			})
		}
		out = append(out, breakdown)
	}
	return out, nil
}

// Leaderboard ranks participants by best score, descending. Ties keep
// first-encountered order from the result log; each participant appears
// once. Truncated to limit.
func (a *Aggregator) Leaderboard(ctx context.Context, quizName string, limit int) ([]domain.LeaderboardEntry, error) {
	results, err := a.results.ForQuiz(ctx, quizName)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultLeaderboardLimit
	}

	byUser := make(map[string]*domain.LeaderboardEntry)
	order := make([]string, 0)
	for _, r := range results {
		entry, ok := byUser[r.Username]
		if !ok {
			byUser[r.Username] = &domain.LeaderboardEntry{
				Username:  r.Username,
				BestScore: r.Score,
				Attempts:  1,
			}
			order = append(order, r.Username)
			continue
		}
		entry.Attempts++
		if r.Score > entry.BestScore {
			entry.BestScore = r.Score
		}
	}

	entries := make([]domain.LeaderboardEntry, 0, len(order))
	for _, username := range order {
		entries = append(entries, *byUser[username])
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].BestScore > entries[j].BestScore
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}
