package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	redisclient "github.com/wanderai/api-server/internal/redis"
)

const (
	ProbeStatusOK          = "ok"
	ProbeStatusUnavailable = "unavailable"
	ProbeStatusError       = "error"
	ProbeStatusUnknown     = "unknown"

	probeTimeout = 10 * time.Second
)

type HealthChecker interface {
	CheckHealth(ctx context.Context) (bool, error)
}

// ProbeResult is the latest view of the AI backend's health.
type ProbeResult struct {
	Status    string     `json:"status"`
	CheckedAt *time.Time `json:"checked_at,omitempty"`
	Error     string     `json:"error,omitempty"`
}

// HealthProbeJob polls the AI backend and keeps the last answer, in memory
// and in Redis so every replica reports the same thing.
type HealthProbeJob struct {
	checker  HealthChecker
	redis    *redis.Client
	interval time.Duration
	done     chan struct{}

	mu     sync.RWMutex
	latest ProbeResult
}

func NewHealthProbeJob(checker HealthChecker, redisClient *redis.Client, interval time.Duration) *HealthProbeJob {
	return &HealthProbeJob{
		checker:  checker,
		redis:    redisClient,
		interval: interval,
		done:     make(chan struct{}),
		latest:   ProbeResult{Status: ProbeStatusUnknown},
	}
}

func (j *HealthProbeJob) Start() {
	go j.run()
	log.Info().Dur("interval", j.interval).Msg("health probe job started")
}

func (j *HealthProbeJob) Stop() {
	close(j.done)
	log.Info().Msg("health probe job stopped")
}

func (j *HealthProbeJob) run() {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.probe()

	for {
		select {
		case <-j.done:
			return
		case <-ticker.C:
			j.probe()
		}
	}
}

func (j *HealthProbeJob) probe() {
	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()

	now := time.Now().UTC()
	result := ProbeResult{Status: ProbeStatusOK, CheckedAt: &now}

	healthy, err := j.checker.CheckHealth(ctx)
	switch {
	case err != nil:
		result.Status = ProbeStatusError
		result.Error = err.Error()
		log.Warn().Err(err).Msg("ai backend health probe failed")
	case !healthy:
		result.Status = ProbeStatusUnavailable
		log.Warn().Msg("ai backend reports unhealthy")
	}

	j.mu.Lock()
	prev := j.latest.Status
	j.latest = result
	j.mu.Unlock()

	if prev != result.Status {
		log.Info().Str("from", prev).Str("to", result.Status).Msg("ai backend health changed")
	}

	j.store(ctx, result)
}

func (j *HealthProbeJob) store(ctx context.Context, result ProbeResult) {
	if j.redis == nil {
		return
	}
	data, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := j.redis.Set(ctx, redisclient.HealthStatusKey, data, 3*j.interval).Err(); err != nil {
		log.Warn().Err(err).Msg("failed to store health probe result")
	}
}

// Latest prefers the shared result in Redis, which may be fresher than
// this replica's own probe.
func (j *HealthProbeJob) Latest(ctx context.Context) ProbeResult {
	if j.redis != nil {
		data, err := j.redis.Get(ctx, redisclient.HealthStatusKey).Bytes()
		if err == nil {
			var result ProbeResult
			if json.Unmarshal(data, &result) == nil {
				return result
			}
		} else if !errors.Is(err, redis.Nil) {
			log.Debug().Err(err).Msg("failed to read shared health probe result")
		}
	}

	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.latest
}
