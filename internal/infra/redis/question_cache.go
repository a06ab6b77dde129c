package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"quizdeck-service/internal/app"
	"quizdeck-service/internal/domain"
)

// QuestionCache serves attempt-start question snapshots from Redis and
// falls back to the bank on a miss. Each quiz's questions are stored as one
// JSON blob with a jittered TTL. Vote counters inside a cached snapshot are
// the ones seen at cache fill; aggregation reads go to the bank directly.
type QuestionCache struct {
	client *redis.Client
	source app.QuestionSource
	ttl    time.Duration
	sf     singleflight.Group
}

func NewQuestionCache(client *redis.Client, source app.QuestionSource, ttl time.Duration) *QuestionCache {
	return &QuestionCache{
		client: client,
		source: source,
		ttl:    ttl,
	}
}

func (c *QuestionCache) QuestionsFor(ctx context.Context, quizName string) ([]domain.Question, error) {
	key := c.key(quizName)

	if questions, ok := c.lookup(ctx, key); ok {
		return questions, nil
	}

	result, err, _ := c.sf.Do(quizName, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if questions, ok := c.lookup(ctx, key); ok {
			return questions, nil
		}

		questions, err := c.source.QuestionsFor(ctx, quizName)
		if err != nil {
			return nil, err
		}
		if len(questions) == 0 {
			// Unknown quizzes are not cached; they may be published next.
			return questions, nil
		}

		if data, err := json.Marshal(questions); err == nil {
			_ = c.client.Set(ctx, key, data, c.ttlWithJitter()).Err()
		}
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

// Invalidate drops the cached snapshot for a quiz, e.g. after publishing.
func (c *QuestionCache) Invalidate(ctx context.Context, quizName string) {
	_ = c.client.Del(ctx, c.key(quizName)).Err()
}

func (c *QuestionCache) lookup(ctx context.Context, key string) ([]domain.Question, bool) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil || len(data) == 0 {
		return nil, false
	}
	var questions []domain.Question
	if err := json.Unmarshal(data, &questions); err != nil {
		return nil, false
	}
	return questions, true
}

func (c *QuestionCache) key(quizName string) string {
	return "quiz:" + quizName + ":questions"
}

func (c *QuestionCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations; top-level rand is
	// safe for concurrent use, fills for different quizzes overlap
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(rand.Int63n(jitterMax+1))
}
