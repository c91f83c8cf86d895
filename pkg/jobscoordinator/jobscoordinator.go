// Package jobscoordinator implements the jobs-coordinator daemon: the
// trust handshake, per-job startTime tracking, and timeout/abort
// decisions for worker channels (spec.md §4.5).
package jobscoordinator

import (
	"crypto/subtle"
	"sync"
	"time"

	"github.com/ArkinSolomon/xpkg-core/internal/telemetry"
	"github.com/ArkinSolomon/xpkg-core/pkg/jobsproto"
)

// Config holds the coordinator's trust parameters.
type Config struct {
	// TrustSecret is the pre-shared value the coordinator sends to every
	// connecting worker as trustKey (spec.md §4.5 step 1). Workers are
	// separately configured with sha256(TrustSecret) and verify the
	// received value against it, so the plaintext never needs to be
	// distributed to workers in advance.
	TrustSecret string
	// ServicePassword is the shared secret a worker must present back.
	ServicePassword string
	// JobTimeout bounds how long a job may run before the coordinator
	// aborts it.
	JobTimeout time.Duration
}

// trackedJob is the coordinator's bookkeeping for one authorized job.
type trackedJob struct {
	job       jobsproto.Job
	startTime time.Time
}

// Coordinator tracks authorized jobs and their deadlines. One Coordinator
// serves every worker connection.
type Coordinator struct {
	cfg  Config
	mu   sync.Mutex
	jobs map[string]*trackedJob
}

// New builds a Coordinator.
func New(cfg Config) *Coordinator {
	return &Coordinator{cfg: cfg, jobs: make(map[string]*trackedJob)}
}

// TrustKey returns the value to send at the start of a handshake
// (spec.md §4.5 step 1).
func (c *Coordinator) TrustKey() string {
	return c.cfg.TrustSecret
}

// VerifyServicePassword checks a presented service password in constant
// time (spec.md §4.5 step 3).
func (c *Coordinator) VerifyServicePassword(presented string) bool {
	return subtle.ConstantTimeCompare([]byte(presented), []byte(c.cfg.ServicePassword)) == 1
}

// RegisterJob records a job's start time. Re-registering the same job key
// is an idempotent no-op (spec.md §3 "Job" — "unique per data;
// reappearance is a no-op upsert").
func (c *Coordinator) RegisterJob(job jobsproto.Job) (string, error) {
	key, err := job.Key()
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.jobs[key]; !exists {
		c.jobs[key] = &trackedJob{job: job, startTime: time.Now()}
		telemetry.JobsActive.Inc()
	}
	return key, nil
}

// Deregister removes a job's bookkeeping once it reports done (normal or
// aborted) or disconnects.
func (c *Coordinator) Deregister(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.jobs[key]; exists {
		delete(c.jobs, key)
		telemetry.JobsActive.Dec()
	}
}

// Expired reports whether the job identified by key has exceeded
// JobTimeout, the basis for the coordinator's abort decision (spec.md
// "the coordinator tracks startTime per job and may decide timeouts by
// comparing against the current time").
func (c *Coordinator) Expired(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.jobs[key]
	if !ok {
		return false
	}
	return time.Since(t.startTime) > c.cfg.JobTimeout
}

// ActiveJobCount reports how many jobs are currently tracked, used by the
// health-check surface.
func (c *Coordinator) ActiveJobCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.jobs)
}
