package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"safemove/model"

	"github.com/redis/go-redis/v9"
)

// TripCache keeps the active session record per student and the last-known
// position, with TTLs matching the session's own expiry so stale trips age
// out on their own. It also backs the relay's session lookup.
type TripCache struct {
	client    *redis.Client
	cacheLock sync.RWMutex
}

var GlobalTripCache *TripCache

func NewTripCache(redisURL string) (*TripCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %v", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %v", err)
	}

	return &TripCache{client: client}, nil
}

func sessionKey(sessionID string) string { return fmt.Sprintf("trip:session:%s", sessionID) }
func studentKey(studentID string) string { return fmt.Sprintf("trip:student:%s", studentID) }
func locationKey(studentID string) string {
	return fmt.Sprintf("trip:location:%s", studentID)
}

// SetActiveSession caches a freshly minted session under both the session
// token and the student it belongs to
func (tc *TripCache) SetActiveSession(studentID string, session *model.TripSession) error {
	if session == nil {
		return fmt.Errorf("cannot cache nil session")
	}
	if err := session.Validate(); err != nil {
		return err
	}

	tc.cacheLock.Lock()
	defer tc.cacheLock.Unlock()

	ttl := time.Until(session.ExpiresAt())
	if ttl <= 0 {
		return fmt.Errorf("session has already expired")
	}

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %v", err)
	}

	ctx := context.Background()
	if err := tc.client.Set(ctx, sessionKey(session.Content), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache session: %v", err)
	}
	if err := tc.client.Set(ctx, studentKey(studentID), session.Content, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache student session mapping: %v", err)
	}
	return nil
}

// ActiveSession resolves a session token to its payload; a cache miss
// returns nil without error. Satisfies the relay's SessionSource.
func (tc *TripCache) ActiveSession(ctx context.Context, sessionID string) (*model.TripSession, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("sessionID cannot be empty")
	}

	tc.cacheLock.RLock()
	defer tc.cacheLock.RUnlock()

	data, err := tc.client.Get(ctx, sessionKey(sessionID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session from cache: %v", err)
	}

	var session model.TripSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached session: %v", err)
	}
	return &session, nil
}

// ActiveSessionID returns the session token a student is currently out on,
// or empty on a miss
func (tc *TripCache) ActiveSessionID(studentID string) (string, error) {
	if studentID == "" {
		return "", fmt.Errorf("studentID cannot be empty")
	}

	tc.cacheLock.RLock()
	defer tc.cacheLock.RUnlock()

	sessionID, err := tc.client.Get(context.Background(), studentKey(studentID)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get student session from cache: %v", err)
	}
	return sessionID, nil
}

// ExtendSession rewrites the cached record with the new duration and pushes
// both TTLs out to the new expiry
func (tc *TripCache) ExtendSession(studentID, sessionID string, extendMinutes int) error {
	tc.cacheLock.Lock()
	defer tc.cacheLock.Unlock()

	ctx := context.Background()
	data, err := tc.client.Get(ctx, sessionKey(sessionID)).Bytes()
	if err == redis.Nil {
		return nil // nothing cached, nothing to extend
	}
	if err != nil {
		return fmt.Errorf("failed to get session from cache: %v", err)
	}

	var session model.TripSession
	if err := json.Unmarshal(data, &session); err != nil {
		return fmt.Errorf("failed to unmarshal cached session: %v", err)
	}

	session.DurationHours += float64(extendMinutes) / 60
	ttl := time.Until(session.ExpiresAt())
	if ttl <= 0 {
		return nil
	}

	updated, err := json.Marshal(&session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %v", err)
	}
	if err := tc.client.Set(ctx, sessionKey(sessionID), updated, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache extended session: %v", err)
	}
	if studentID != "" {
		if err := tc.client.Set(ctx, studentKey(studentID), sessionID, ttl).Err(); err != nil {
			return fmt.Errorf("failed to refresh student session mapping: %v", err)
		}
	}
	return nil
}

// ClearActiveSession drops a student's trip state when the trip ends
func (tc *TripCache) ClearActiveSession(studentID string) error {
	tc.cacheLock.Lock()
	defer tc.cacheLock.Unlock()

	ctx := context.Background()
	sessionID, err := tc.client.Get(ctx, studentKey(studentID)).Result()
	if err != nil && err != redis.Nil {
		return fmt.Errorf("failed to look up student session: %v", err)
	}

	keys := []string{studentKey(studentID), locationKey(studentID)}
	if sessionID != "" {
		keys = append(keys, sessionKey(sessionID))
	}
	if err := tc.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to clear trip cache: %v", err)
	}
	return nil
}

type CachedLocation struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SetLastLocation mirrors the last-known position written to the database
func (tc *TripCache) SetLastLocation(studentID string, latitude, longitude float64) error {
	tc.cacheLock.Lock()
	defer tc.cacheLock.Unlock()

	data, err := json.Marshal(&CachedLocation{
		Latitude:  latitude,
		Longitude: longitude,
		UpdatedAt: time.Now(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal location: %v", err)
	}

	if err := tc.client.Set(context.Background(), locationKey(studentID), data, 24*time.Hour).Err(); err != nil {
		return fmt.Errorf("failed to cache location: %v", err)
	}
	return nil
}

// LastLocation returns the cached last-known position, nil on a miss
func (tc *TripCache) LastLocation(studentID string) (*CachedLocation, error) {
	tc.cacheLock.RLock()
	defer tc.cacheLock.RUnlock()

	data, err := tc.client.Get(context.Background(), locationKey(studentID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get location from cache: %v", err)
	}

	var location CachedLocation
	if err := json.Unmarshal(data, &location); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached location: %v", err)
	}
	return &location, nil
}

// Ping reports cache health for the health endpoint
func (tc *TripCache) Ping(ctx context.Context) error {
	return tc.client.Ping(ctx).Err()
}
