package readstore

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"tutorlink/internal/usecase/commands"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// CachedTeacherDirectory fronts the Postgres teacher lookup with a short-TTL
// Redis cache. Cache failures degrade to the inner lookup; a miss is never
// cached so deactivation takes effect within one TTL at worst.
type CachedTeacherDirectory struct {
	inner commands.TeacherDirectory
	rdb   *redis.Client
	ttl   time.Duration
}

func NewCachedTeacherDirectory(inner commands.TeacherDirectory, rdb *redis.Client, ttl time.Duration) *CachedTeacherDirectory {
	return &CachedTeacherDirectory{inner: inner, rdb: rdb, ttl: ttl}
}

func (d *CachedTeacherDirectory) FindActive(ctx context.Context, id uuid.UUID) (*commands.TeacherSnapshot, error) {
	if d.rdb == nil {
		return d.inner.FindActive(ctx, id)
	}

	key := cacheKey(id)
	if data, err := d.rdb.Get(ctx, key).Bytes(); err == nil {
		var snap commands.TeacherSnapshot
		if jsonErr := json.Unmarshal(data, &snap); jsonErr == nil {
			return &snap, nil
		}
		// Unreadable entry: drop it and fall through to the source of truth.
		_ = d.rdb.Del(ctx, key).Err()
	} else if err != redis.Nil {
		slog.Warn("teacher cache read failed", "teacher_id", id, "error", err)
	}

	snap, err := d.inner.FindActive(ctx, id)
	if err != nil {
		return nil, err
	}

	if data, jsonErr := json.Marshal(snap); jsonErr == nil {
		if setErr := d.rdb.Set(ctx, key, data, d.ttl).Err(); setErr != nil {
			slog.Warn("teacher cache write failed", "teacher_id", id, "error", setErr)
		}
	}
	return snap, nil
}

func cacheKey(id uuid.UUID) string {
	return "teacher:active:" + id.String()
}
