package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/toriisent/yeezyplayer-store/model"

	"github.com/go-redis/redis/v8"
)

// Lyric documents change only when an operator saves in the editor, so
// a generous TTL is fine; saves invalidate explicitly.
const lyricsTTL = 12 * time.Hour

// GetLyricsKey builds the cache key for a track's lyric document.
func GetLyricsKey(trackID string) string {
	return fmt.Sprintf("lyrics:%s", trackID)
}

// GetLyrics returns the cached document for a track. The bool reports
// a cache hit; a miss is not an error.
func GetLyrics(ctx context.Context, trackID string) (model.LyricDocument, bool, error) {
	if RedisClient == nil {
		return nil, false, fmt.Errorf("Redis client not initialized")
	}

	raw, err := RedisClient.Get(ctx, GetLyricsKey(trackID)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get cached lyrics: %w", err)
	}

	var doc model.LyricDocument
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		// A corrupt entry is treated as a miss; the loader will refill it.
		return nil, false, nil
	}
	return doc, true, nil
}

// SetLyrics caches a track's document.
func SetLyrics(ctx context.Context, trackID string, doc model.LyricDocument) error {
	if RedisClient == nil {
		return fmt.Errorf("Redis client not initialized")
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal lyrics for cache: %w", err)
	}

	if err := RedisClient.Set(ctx, GetLyricsKey(trackID), raw, lyricsTTL).Err(); err != nil {
		return fmt.Errorf("failed to cache lyrics: %w", err)
	}
	return nil
}

// InvalidateLyrics drops the cached document after a save.
func InvalidateLyrics(ctx context.Context, trackID string) error {
	if RedisClient == nil {
		return fmt.Errorf("Redis client not initialized")
	}

	if err := RedisClient.Del(ctx, GetLyricsKey(trackID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate cached lyrics: %w", err)
	}
	return nil
}
