package oracle

import (
	"context"
	"sync"
	"time"
)

// NameKind selects the flavor pool for generated names.
type NameKind string

const (
	KindMonster  NameKind = "monster"
	KindTraining NameKind = "training"
	KindMaster   NameKind = "master"
	KindAssassin NameKind = "assassin"
	KindBoss     NameKind = "boss"
)

// Verdict is the outcome of a completion-verification call. Rejection is a
// distinguished outcome, not an error: the task stays active and the caller
// may resubmit.
type Verdict struct {
	Approved   bool
	Feedback   string
	Multiplier float64 // clamped to [0.5, 1.5] by the adapter
}

// Oracle is the generative content boundary. Implementations must degrade
// to static fallbacks; engine operations never fail solely because the
// oracle is unreachable.
type Oracle interface {
	GenerateName(ctx context.Context, kind NameKind, hint string) string
	GenerateImage(ctx context.Context, prompt string, kind NameKind) []byte
	GenerateNarrative(ctx context.Context, chapter int, name string) string
	AssessDifficulty(ctx context.Context, title, genre string) string
	VerifyCompletion(ctx context.Context, title, difficulty, report string, strictness int) Verdict
}

// UsageRecorder receives per-call accounting so monthly AI usage can be
// tracked on the player.
type UsageRecorder interface {
	RecordUsage(ctx context.Context, playerID int64, calls int, costUSD float64) error
}

// Status tracks consecutive failures and gates availability with a cooldown
// re-probe. It is owned by the adapter, not shared module state, so tests
// can reset it.
type Status struct {
	mu          sync.Mutex
	failures    int
	maxFailures int
	cooldown    time.Duration
	disabledAt  time.Time
}

func NewStatus(maxFailures int, cooldown time.Duration) *Status {
	return &Status{maxFailures: maxFailures, cooldown: cooldown}
}

// Available reports whether a real call should be attempted.
func (s *Status) Available(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failures < s.maxFailures {
		return true
	}
	if now.Sub(s.disabledAt) >= s.cooldown {
		// Half-open: allow one probe.
		s.failures = s.maxFailures - 1
		return true
	}
	return false
}

func (s *Status) RecordSuccess() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = 0
}

func (s *Status) RecordFailure(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures++
	if s.failures >= s.maxFailures {
		s.disabledAt = now
	}
}

func (s *Status) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = 0
	s.disabledAt = time.Time{}
}
