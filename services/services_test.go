package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"phish-sim-backend/testutil"

	"gorm.io/gorm"
)

var testEpoch = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

// useSteppingClock makes every nowFunc call one second later than the last.
func useSteppingClock(t *testing.T) {
	t.Helper()
	var mu sync.Mutex
	tick := 0
	prev := nowFunc
	nowFunc = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		tick++
		return testEpoch.Add(time.Duration(tick) * time.Second)
	}
	t.Cleanup(func() { nowFunc = prev })
}

// useFrozenClock pins nowFunc to testEpoch so attempts share a timestamp.
func useFrozenClock(t *testing.T) {
	t.Helper()
	prev := nowFunc
	nowFunc = func() time.Time { return testEpoch }
	t.Cleanup(func() { nowFunc = prev })
}

type fakeCache struct {
	mu          sync.Mutex
	entries     map[string][]byte
	invalidated int
}

func newFakeCache() *fakeCache { return &fakeCache{entries: map[string][]byte{}} }

func (c *fakeCache) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	return v, ok
}

func (c *fakeCache) Set(_ context.Context, key string, value []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
}

func (c *fakeCache) invalidations() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.invalidated
}

func (c *fakeCache) Invalidate(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = map[string][]byte{}
	c.invalidated++
	return nil
}

type harness struct {
	db           *gorm.DB
	cache        *fakeCache
	attempts     *AttemptRecorder
	challenges   *ChallengeService
	badges       *BadgeService
	certificates *CertificateService
	progression  *ProgressionService
	users        *UserService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	useSteppingClock(t)

	db := testutil.DB(t)
	log := testutil.Logger(t)
	h := &harness{db: db, cache: newFakeCache()}
	h.attempts = NewAttemptRecorder(db)
	h.challenges = NewChallengeService(db, log)
	h.badges = NewBadgeService(db, h.attempts, log)
	h.certificates = NewCertificateService(db, h.attempts, log)
	h.progression = NewProgressionService(db, ProgressionDeps{
		Challenges:   h.challenges,
		Attempts:     h.attempts,
		Badges:       h.badges,
		Certificates: h.certificates,
		Leaderboard:  h.cache,
	}, true, log)
	h.users = NewUserService(db, h.attempts, h.badges, h.certificates, h.cache, log)
	return h
}

// at returns a timestamp before anything the stepping clock hands out.
func at(minutesBefore int) time.Time {
	return testEpoch.Add(-time.Duration(minutesBefore) * time.Minute)
}
