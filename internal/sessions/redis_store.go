package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"warehouse/internal/tasks"
)

const sessionKeyPrefix = "session:"

// sessionDoc is the wire form of a session; the task travels as a
// kind-tagged envelope so the concrete type survives the round trip.
type sessionDoc struct {
	ID             string          `json:"id"`
	UserID         string          `json:"user_id"`
	DeviceID       string          `json:"device_id"`
	WarehouseID    string          `json:"warehouse_id"`
	StartedAt      time.Time       `json:"started_at"`
	LastActivityAt time.Time       `json:"last_activity_at"`
	Task           json.RawMessage `json:"task,omitempty"`
}

// RedisStore keeps sessions in Redis for multi-instance deployments. Keys
// expire at twice the idle timeout as a safety net; the sweeper still runs
// first so cancelled tasks release their reservations.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, idleTimeout time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: 2 * idleTimeout}
}

func (s *RedisStore) Get(ctx context.Context, id string) (*Session, error) {
	data, err := s.client.Get(ctx, sessionKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to read session: %w", err)
	}
	return decodeSession(data)
}

func (s *RedisStore) Put(ctx context.Context, session *Session) error {
	data, err := encodeSession(session)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, sessionKeyPrefix+session.ID, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, sessionKeyPrefix+id).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (s *RedisStore) Expired(ctx context.Context, cutoff time.Time) ([]*Session, error) {
	var out []*Session
	iter := s.client.Scan(ctx, 0, sessionKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		data, err := s.client.Get(ctx, iter.Val()).Bytes()
		if err != nil {
			continue // evicted between scan and get
		}
		session, err := decodeSession(data)
		if err != nil {
			continue
		}
		if session.LastActivityAt.Before(cutoff) {
			out = append(out, session)
		}
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan sessions: %w", err)
	}
	return out, nil
}

func encodeSession(session *Session) ([]byte, error) {
	doc := sessionDoc{
		ID:             session.ID,
		UserID:         session.UserID,
		DeviceID:       session.DeviceID,
		WarehouseID:    session.WarehouseID,
		StartedAt:      session.StartedAt,
		LastActivityAt: session.LastActivityAt,
	}
	if session.ActiveTask != nil {
		data, err := tasks.MarshalTask(session.ActiveTask)
		if err != nil {
			return nil, err
		}
		doc.Task = data
	}
	return json.Marshal(doc)
}

func decodeSession(data []byte) (*Session, error) {
	var doc sessionDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	session := &Session{
		ID:             doc.ID,
		UserID:         doc.UserID,
		DeviceID:       doc.DeviceID,
		WarehouseID:    doc.WarehouseID,
		StartedAt:      doc.StartedAt,
		LastActivityAt: doc.LastActivityAt,
	}
	if len(doc.Task) > 0 {
		task, err := tasks.UnmarshalTask(doc.Task)
		if err != nil {
			return nil, err
		}
		session.ActiveTask = task
	}
	return session, nil
}
