package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"flowguard/internal/metrics"
	"flowguard/internal/models"
)

// MaxHistoryDocs caps the history log. Trimming evicts oldest-first until
// only the most recent MaxHistoryDocs entries by timestamp survive.
const MaxHistoryDocs = 5000

const (
	latestKey  = "flow:latest"
	historyKey = "flow:history"
)

// commitLatest overwrites the latest record and applies the alert cooldown
// compare-and-set on lastAlert in a single step, so two overlapping commits
// cannot both win the alert. ARGV: status, now, cooldown, p, r, la, lo, day.
var commitLatest = redis.NewScript(`
local last = tonumber(redis.call('HGET', KEYS[1], 'lastAlert')) or 0
local fire = 0
if ARGV[1] == 'DANGER' and (tonumber(ARGV[2]) - last) > tonumber(ARGV[3]) then
  fire = 1
  last = tonumber(ARGV[2])
end
redis.call('HSET', KEYS[1],
  's', ARGV[1], 't', ARGV[2],
  'p', ARGV[4], 'r', ARGV[5], 'la', ARGV[6], 'lo', ARGV[7],
  'd', ARGV[8], 'lastAlert', last)
return fire
`)

// RedisStore persists the singleton latest record as a hash and the bounded
// history log as a sorted set scored by epoch-millis.
type RedisStore struct {
	client   *redis.Client
	cooldown int64 // millis between outbound alerts
	loc      *time.Location
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(addr, password string, db int, cooldown time.Duration, loc *time.Location) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		PoolSize:     100,
		MinIdleConns: 10,
		MaxRetries:   3,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStore{client: client, cooldown: cooldown.Milliseconds(), loc: loc}, nil
}

// Latest returns a snapshot of the current-state row. An empty hash means no
// reading was ever accepted, which is a normal state, not an error.
func (s *RedisStore) Latest(ctx context.Context) (models.LatestRecord, bool, error) {
	fields, err := s.client.HGetAll(ctx, latestKey).Result()
	if err != nil {
		track("latest", err)
		return models.LatestRecord{}, false, fmt.Errorf("failed to read latest record: %w", err)
	}
	track("latest", nil)
	if len(fields) == 0 {
		return models.LatestRecord{}, false, nil
	}

	rec := models.LatestRecord{
		HistoryEntry: models.HistoryEntry{
			CompactReading: models.CompactReading{
				P:  parseInt(fields["p"]),
				R:  parseInt(fields["r"]),
				La: parseFloat(fields["la"]),
				Lo: parseFloat(fields["lo"]),
			},
			S: models.NormalizeStatus(fields["s"]),
			T: parseInt(fields["t"]),
			D: fields["d"],
		},
		LastAlert: parseInt(fields["lastAlert"]),
	}
	return rec, true, nil
}

// CommitLatest runs the atomic overwrite-and-cooldown script and reports
// whether an outbound alert should fire for this reading.
func (s *RedisStore) CommitLatest(ctx context.Context, rec models.LatestRecord, now int64) (bool, error) {
	fire, err := commitLatest.Run(ctx, s.client, []string{latestKey},
		string(rec.S), now, s.cooldown,
		rec.P, rec.R,
		strconv.FormatFloat(rec.La, 'f', -1, 64),
		strconv.FormatFloat(rec.Lo, 'f', -1, 64),
		rec.D,
	).Int()
	track("commit_latest", err)
	if err != nil {
		return false, fmt.Errorf("failed to commit latest record: %w", err)
	}
	return fire == 1, nil
}

// AppendHistory writes one immutable entry, scored by its timestamp.
func (s *RedisStore) AppendHistory(ctx context.Context, entry models.HistoryEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal history entry: %w", err)
	}

	err = s.client.ZAdd(ctx, historyKey, redis.Z{
		Score:  float64(entry.T),
		Member: data,
	}).Err()
	track("append_history", err)
	if err != nil {
		return fmt.Errorf("failed to append history: %w", err)
	}
	return nil
}

// TrimHistory recomputes the exact overflow above the retention cap and
// deletes it oldest-first. Computing the overflow from the live count, not a
// fixed increment, lets a previously failed trim self-heal here.
func (s *RedisStore) TrimHistory(ctx context.Context) (int64, error) {
	count, err := s.client.ZCard(ctx, historyKey).Result()
	if err != nil {
		track("trim_history", err)
		return 0, fmt.Errorf("failed to count history: %w", err)
	}
	if count <= MaxHistoryDocs {
		track("trim_history", nil)
		return 0, nil
	}

	removed, err := s.client.ZRemRangeByRank(ctx, historyKey, 0, count-MaxHistoryDocs-1).Result()
	track("trim_history", err)
	if err != nil {
		return 0, fmt.Errorf("failed to trim history: %w", err)
	}
	return removed, nil
}

// History returns up to limit entries, optionally restricted to one calendar
// day (YYYY-MM-DD in the data timezone), ascending for exports and
// descending for interactive views.
func (s *RedisStore) History(ctx context.Context, day string, limit int64, asc bool) ([]models.HistoryEntry, error) {
	rangeBy := &redis.ZRangeBy{Min: "-inf", Max: "+inf", Count: limit}
	if day != "" {
		start, end, err := models.DayBounds(day, s.loc)
		if err != nil {
			return nil, fmt.Errorf("invalid day %q: %w", day, err)
		}
		rangeBy.Min = strconv.FormatInt(start, 10)
		rangeBy.Max = "(" + strconv.FormatInt(end, 10)
	}

	var raw []string
	var err error
	if asc {
		raw, err = s.client.ZRangeByScore(ctx, historyKey, rangeBy).Result()
	} else {
		raw, err = s.client.ZRevRangeByScore(ctx, historyKey, rangeBy).Result()
	}
	track("history", err)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}

	entries := make([]models.HistoryEntry, 0, len(raw))
	for _, member := range raw {
		var entry models.HistoryEntry
		if err := json.Unmarshal([]byte(member), &entry); err != nil {
			log.Printf("Skipping undecodable history entry: %v", err)
			continue
		}
		entry.S = models.NormalizeStatus(string(entry.S))
		entries = append(entries, entry)
	}
	return entries, nil
}

// Ping checks Redis availability.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Stats returns connection pool statistics for the health endpoint.
func (s *RedisStore) Stats() map[string]interface{} {
	stats := s.client.PoolStats()
	return map[string]interface{}{
		"hits":        stats.Hits,
		"misses":      stats.Misses,
		"timeouts":    stats.Timeouts,
		"total_conns": stats.TotalConns,
		"idle_conns":  stats.IdleConns,
		"stale_conns": stats.StaleConns,
	}
}

func track(op string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.RedisOperations.WithLabelValues(op, status).Inc()
}

func parseInt(s string) int64 {
	v, _ := strconv.ParseInt(s, 10, 64)
	return v
}

func parseFloat(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}
