package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/alexanderramin/dayplan/internal/domain"
	"github.com/redis/go-redis/v9"
)

// Redis layout, per user:
//
//	dayplan:{user}:daily_plans                     ZSET docID -> YYYYMMDD
//	dayplan:{user}:daily_plans:{docID}             HASH payload, date, section, version, created_at, updated_at
//	dayplan:{user}:daily_plans:{docID}:completed   ZSET activityID -> completion unix ms
const redisKeyPrefix = "dayplan:"

// createPlanScript writes the plan hash and its index entry only when the
// hash does not exist yet. Returns 1 when created.
var createPlanScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
	return 0
end
redis.call('HSET', KEYS[1], 'payload', ARGV[1], 'date', ARGV[2], 'section', ARGV[3],
	'version', ARGV[4], 'created_at', ARGV[5], 'updated_at', ARGV[6])
redis.call('DEL', KEYS[2])
redis.call('ZADD', KEYS[3], ARGV[8], ARGV[7])
return 1
`)

// addCompletionScript adds an activity id to the completion set of an
// existing plan. Returns -1 when the plan is missing, else the ZADD count.
var addCompletionScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return -1
end
local added = redis.call('ZADD', KEYS[2], 'NX', ARGV[2], ARGV[1])
if added == 1 then
	redis.call('HSET', KEYS[1], 'updated_at', ARGV[2])
end
return added
`)

// RedisPlanStore implements PlanStore on Redis.
type RedisPlanStore struct {
	client *redis.Client
}

// NewRedisPlanStore creates a new RedisPlanStore.
func NewRedisPlanStore(client *redis.Client) *RedisPlanStore {
	return &RedisPlanStore{client: client}
}

// NewRedisClient connects to addr and verifies the connection.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	if addr == "" {
		return nil, fmt.Errorf("missing redis address")
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:        addr,
		Password:    password,
		DB:          db,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

func indexKey(userID string) string {
	return redisKeyPrefix + userID + ":daily_plans"
}

func docKey(userID, docID string) string {
	return indexKey(userID) + ":" + docID
}

func completedKey(userID, docID string) string {
	return docKey(userID, docID) + ":completed"
}

func (s *RedisPlanStore) Get(ctx context.Context, userID string, key domain.PlanKey) (*domain.StudyPlan, error) {
	docID := key.DocID()
	var hash *redis.MapStringStringCmd
	var completed *redis.StringSliceCmd
	_, err := s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		hash = pipe.HGetAll(ctx, docKey(userID, docID))
		completed = pipe.ZRange(ctx, completedKey(userID, docID), 0, -1)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reading plan %s: %w", docID, err)
	}
	return decodeRedisPlan(docID, hash.Val(), completed.Val())
}

func decodeRedisPlan(docID string, fields map[string]string, completed []string) (*domain.StudyPlan, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("plan %s: %w", docID, ErrNotFound)
	}
	if v, err := strconv.Atoi(fields["version"]); err != nil || v != domain.PlanVersion {
		return nil, fmt.Errorf("plan %s: %w", docID, ErrIncompatibleVersion)
	}

	p, err := DecodePlan([]byte(fields["payload"]))
	if err != nil {
		return nil, fmt.Errorf("plan %s: %w", docID, err)
	}
	if ms, err := strconv.ParseInt(fields["created_at"], 10, 64); err == nil {
		p.CreatedAt = time.UnixMilli(ms).UTC()
	}
	if ms, err := strconv.ParseInt(fields["updated_at"], 10, 64); err == nil {
		p.UpdatedAt = time.UnixMilli(ms).UTC()
	}
	p.CompletedActivityIDs = append([]string{}, completed...)
	return p, nil
}

// remotePayload serializes the plan without its completion set, which lives
// in its own sorted set.
func remotePayload(plan *domain.StudyPlan) ([]byte, error) {
	body := plan.Clone()
	body.CompletedActivityIDs = nil
	return EncodePlan(body)
}

func (s *RedisPlanStore) CreateIfAbsent(ctx context.Context, plan *domain.StudyPlan) (*domain.StudyPlan, bool, error) {
	payload, err := remotePayload(plan)
	if err != nil {
		return nil, false, err
	}
	docID := plan.Key().DocID()
	keys := []string{docKey(plan.UserID, docID), completedKey(plan.UserID, docID), indexKey(plan.UserID)}
	created, err := createPlanScript.Run(ctx, s.client, keys,
		string(payload),
		plan.Date,
		plan.Section,
		plan.Version,
		plan.CreatedAt.UnixMilli(),
		plan.UpdatedAt.UnixMilli(),
		docID,
		domain.DateScore(plan.Date),
	).Int()
	if err != nil {
		return nil, false, fmt.Errorf("creating plan %s: %w", docID, err)
	}
	if created == 1 {
		if len(plan.CompletedActivityIDs) > 0 {
			if err := s.addCompletions(ctx, plan.UserID, docID, plan.CompletedActivityIDs, plan.UpdatedAt); err != nil {
				return nil, false, err
			}
		}
		return plan.Clone(), true, nil
	}

	existing, err := s.Get(ctx, plan.UserID, plan.Key())
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (s *RedisPlanStore) addCompletions(ctx context.Context, userID, docID string, ids []string, at time.Time) error {
	members := make([]redis.Z, 0, len(ids))
	for _, id := range ids {
		members = append(members, redis.Z{Score: float64(at.UnixMilli()), Member: id})
	}
	if err := s.client.ZAddNX(ctx, completedKey(userID, docID), members...).Err(); err != nil {
		return fmt.Errorf("writing completions for %s: %w", docID, err)
	}
	return nil
}

func (s *RedisPlanStore) Put(ctx context.Context, plan *domain.StudyPlan) error {
	payload, err := remotePayload(plan)
	if err != nil {
		return err
	}
	docID := plan.Key().DocID()
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, docKey(plan.UserID, docID),
			"payload", string(payload),
			"date", plan.Date,
			"section", plan.Section,
			"version", plan.Version,
			"created_at", plan.CreatedAt.UnixMilli(),
			"updated_at", plan.UpdatedAt.UnixMilli(),
		)
		pipe.Del(ctx, completedKey(plan.UserID, docID))
		for _, id := range plan.CompletedActivityIDs {
			pipe.ZAddNX(ctx, completedKey(plan.UserID, docID), redis.Z{Score: float64(plan.UpdatedAt.UnixMilli()), Member: id})
		}
		pipe.ZAdd(ctx, indexKey(plan.UserID), redis.Z{Score: float64(domain.DateScore(plan.Date)), Member: docID})
		return nil
	})
	if err != nil {
		return fmt.Errorf("writing plan %s: %w", docID, err)
	}
	return nil
}

func (s *RedisPlanStore) AddCompletion(ctx context.Context, userID string, key domain.PlanKey, activityID string, at time.Time) error {
	docID := key.DocID()
	keys := []string{docKey(userID, docID), completedKey(userID, docID)}
	res, err := addCompletionScript.Run(ctx, s.client, keys, activityID, at.UnixMilli()).Int()
	if err != nil {
		return fmt.Errorf("adding completion to %s: %w", docID, err)
	}
	if res < 0 {
		return fmt.Errorf("plan %s: %w", docID, ErrNotFound)
	}
	return nil
}

func (s *RedisPlanStore) ListRange(ctx context.Context, userID, fromDate, toDate string) ([]*domain.StudyPlan, error) {
	docIDs, err := s.client.ZRevRangeByScore(ctx, indexKey(userID), &redis.ZRangeBy{
		Min: strconv.FormatInt(domain.DateScore(fromDate), 10),
		Max: strconv.FormatInt(domain.DateScore(toDate), 10),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("listing plans: %w", err)
	}
	if len(docIDs) == 0 {
		return []*domain.StudyPlan{}, nil
	}

	hashes := make([]*redis.MapStringStringCmd, len(docIDs))
	completions := make([]*redis.StringSliceCmd, len(docIDs))
	_, err = s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, docID := range docIDs {
			hashes[i] = pipe.HGetAll(ctx, docKey(userID, docID))
			completions[i] = pipe.ZRange(ctx, completedKey(userID, docID), 0, -1)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reading plans: %w", err)
	}

	plans := make([]*domain.StudyPlan, 0, len(docIDs))
	for i, docID := range docIDs {
		p, err := decodeRedisPlan(docID, hashes[i].Val(), completions[i].Val())
		if err != nil {
			if IsMiss(err) {
				continue
			}
			return nil, err
		}
		plans = append(plans, p)
	}
	sortPlans(plans)
	return plans, nil
}

func (s *RedisPlanStore) Delete(ctx context.Context, userID string, key domain.PlanKey) error {
	docID := key.DocID()
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, docKey(userID, docID), completedKey(userID, docID))
		pipe.ZRem(ctx, indexKey(userID), docID)
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("deleting plan %s: %w", docID, err)
	}
	return nil
}
