package domain

import "time"

// OptionCount is the fixed number of choices every question carries.
const OptionCount = 4

// UserIdentity is supplied by the identity collaborator; the core never
// inspects credentials.
type UserIdentity struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

// Question is a single multiple-choice item with exactly one correct option,
// a point weight, and per-option vote tallies.
type Question struct {
	ID       string           `json:"id"`
	QuizName string           `json:"quizName"`
	Text     string           `json:"text"`
	Options  []string         `json:"options"`
	Correct  string           `json:"correct"`
	Points   int              `json:"points"`
	Votes    map[string]int64 `json:"votes"`
}

// TotalVotes sums the tallies across all options.
func (q Question) TotalVotes() int64 {
	var total int64
	for _, n := range q.Votes {
		total += n
	}
	return total
}

// QuizSummary is a catalog entry: a quiz name and how many questions it holds.
type QuizSummary struct {
	Name          string `json:"name"`
	QuestionCount int    `json:"questionCount"`
}

// Result is an immutable record of one completed, scored attempt.
type Result struct {
	ID          string            `json:"id"`
	QuizName    string            `json:"quizName"`
	Username    string            `json:"username"`
	Answers     map[string]string `json:"answers"`
	Score       float64           `json:"score"`
	SubmittedAt time.Time         `json:"submittedAt"`
}

// QuizStats aggregates the result log for one quiz.
type QuizStats struct {
	QuizName     string  `json:"quizName"`
	AttemptCount int     `json:"attemptCount"`
	AverageScore float64 `json:"averageScore"`
}

// OptionBreakdown reports the vote share for a single option.
type OptionBreakdown struct {
	Option     string  `json:"option"`
	Votes      int64   `json:"votes"`
	Percentage float64 `json:"percentage"`
	Correct    bool    `json:"correct"`
}

// QuestionBreakdown is the per-question vote distribution, options in the
// question's declared order.
type QuestionBreakdown struct {
	QuestionText string            `json:"questionText"`
	Options      []OptionBreakdown `json:"options"`
}

// LeaderboardEntry is a participant's best showing on a quiz.
type LeaderboardEntry struct {
	Username  string  `json:"username"`
	BestScore float64 `json:"bestScore"`
	Attempts  int     `json:"attempts"`
}

// Leaderboard is the ranked view pushed to live subscribers.
type Leaderboard struct {
	QuizName  string             `json:"quizName"`
	Entries   []LeaderboardEntry `json:"entries"`
	UpdatedAt time.Time          `json:"updatedAt"`
}
