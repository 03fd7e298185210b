package intake

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	sessionKeyPrefix  = "intake:session:"
	DefaultSessionTTL = 24 * time.Hour
)

// RedisSessionStore keeps sessions in Redis as JSON with a sliding TTL.
type RedisSessionStore struct {
	rdb    *redis.Client
	ttl    time.Duration
	tracer trace.Tracer
}

func NewRedisSessionStore(rdb *redis.Client, ttl time.Duration) *RedisSessionStore {
	if rdb == nil {
		panic("intake: redis client required")
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &RedisSessionStore{
		rdb:    rdb,
		ttl:    ttl,
		tracer: otel.Tracer("voiceintake.internal.intake.redis"),
	}
}

func sessionKey(id string) string {
	return sessionKeyPrefix + id
}

func (r *RedisSessionStore) Save(ctx context.Context, s *Session) error {
	if s == nil || s.ID == "" {
		return fmt.Errorf("intake session: id required")
	}
	ctx, span := r.tracer.Start(ctx, "intake.session.save", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(attribute.String("intake.session_id", s.ID))

	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("intake session: marshal: %w", err)
	}
	if err := r.rdb.Set(ctx, sessionKey(s.ID), data, r.ttl).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("intake session: set: %w", err)
	}
	return nil
}

func (r *RedisSessionStore) Load(ctx context.Context, id string) (*Session, error) {
	ctx, span := r.tracer.Start(ctx, "intake.session.load", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(attribute.String("intake.session_id", id))

	data, err := r.rdb.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("intake session: get: %w", err)
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("intake session: unmarshal: %w", err)
	}
	return &s, nil
}
