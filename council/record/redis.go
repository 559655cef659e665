package record

import (
	"fmt"
	"time"

	"github.com/go-redis/redis/v7"
)

const redisDecisionKey = "council:decision"

// Redis records the decision in a redis hash.
type Redis struct {
	client *redis.Client
}

// OpenRedis connects to the redis server and verifies it answers.
func OpenRedis(addr, password string, db int) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if _, err := client.Ping().Result(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("record: redis server did not PONG back to our PING: %w", err)
	}
	return &Redis{client: client}, nil
}

// SaveDecision records d, replacing any earlier record.
func (r *Redis) SaveDecision(d Decision) error {
	err := r.client.HSet(redisDecisionKey,
		"value", d.Value,
		"ballot", d.Ballot,
		"decided_at", d.DecidedAt.Format(time.RFC3339Nano),
	).Err()
	if err != nil {
		return fmt.Errorf("record: saving decision: %w", err)
	}
	return nil
}

// LastDecision returns the recorded decision, if any.
func (r *Redis) LastDecision() (Decision, bool, error) {
	fields, err := r.client.HGetAll(redisDecisionKey).Result()
	if err != nil {
		return Decision{}, false, fmt.Errorf("record: reading decision: %w", err)
	}
	if len(fields) == 0 {
		return Decision{}, false, nil
	}
	d := Decision{Value: fields["value"], Ballot: fields["ballot"]}
	if t, err := time.Parse(time.RFC3339Nano, fields["decided_at"]); err == nil {
		d.DecidedAt = t
	}
	return d, true, nil
}

// Close releases the client connection.
func (r *Redis) Close() error {
	return r.client.Close()
}
