package bot

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/pkg/errors"
)

type fakeCounter struct {
	n       int
	err     error
	entered chan struct{}
	block   chan struct{}
}

func (c *fakeCounter) PlayerCount(ctx context.Context) (int, error) {
	if c.entered != nil {
		c.entered <- struct{}{}
	}
	if c.block != nil {
		<-c.block
	}
	return c.n, c.err
}

type fakeSetter struct {
	mu  sync.Mutex
	got []Presence
}

func (s *fakeSetter) SetPresence(ctx context.Context, p Presence) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, p)
	return nil
}

func (s *fakeSetter) presences() []Presence {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Presence(nil), s.got...)
}

func TestActivity(t *testing.T) {
	p := NewPresenceUpdater(nil, nil, "IW4x", "IW4x Server", time.Minute)

	assert.Equal(t, "IW4x with 8 players", p.Activity(8, nil))
	assert.Equal(t, "IW4x with 0 players", p.Activity(0, nil))
	assert.Equal(t, "IW4x Server", p.Activity(8, errors.New("boom")))
}

func TestRefreshPublishesCount(t *testing.T) {
	setter := &fakeSetter{}
	p := NewPresenceUpdater(&fakeCounter{n: 42}, setter, "IW4x", "IW4x Server", time.Minute)

	ok, err := p.Refresh(context.Background())
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []Presence{{Status: discord.IdleStatus, Activity: "IW4x with 42 players"}}, setter.presences())
}

func TestRefreshFallsBackOnError(t *testing.T) {
	setter := &fakeSetter{}
	p := NewPresenceUpdater(&fakeCounter{err: errors.New("timeout")}, setter, "IW4x", "IW4x Server", time.Minute)

	ok, err := p.Refresh(context.Background())
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []Presence{{Status: discord.IdleStatus, Activity: "IW4x Server"}}, setter.presences())
}

func TestRefreshSkipsWhileBusy(t *testing.T) {
	counter := &fakeCounter{n: 1, entered: make(chan struct{}), block: make(chan struct{})}
	setter := &fakeSetter{}
	p := NewPresenceUpdater(counter, setter, "IW4x", "IW4x Server", time.Minute)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = p.Refresh(context.Background())
	}()

	<-counter.entered

	ok, err := p.Refresh(context.Background())
	assert.NoError(t, err)
	assert.False(t, ok)

	close(counter.block)
	<-done
	assert.Equal(t, 1, len(setter.presences()))
}

func TestRefreshThrottles(t *testing.T) {
	setter := &fakeSetter{}
	p := NewPresenceUpdater(&fakeCounter{n: 1}, setter, "IW4x", "IW4x Server", time.Minute)

	var published int
	for i := 0; i < 10; i++ {
		ok, err := p.Refresh(context.Background())
		assert.NoError(t, err)
		if ok {
			published++
		}
	}
	assert.Equal(t, 5, published)
}

func TestStartTicks(t *testing.T) {
	setter := &fakeSetter{}
	p := NewPresenceUpdater(&fakeCounter{n: 3}, setter, "IW4x", "IW4x Server", 10*time.Millisecond)

	p.Start(context.Background())
	defer p.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for len(setter.presences()) < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	assert.True(t, len(setter.presences()) >= 2)

	p.Stop()
	p.Stop()
}
