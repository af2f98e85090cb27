package bot

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/diamondburned/arikawa/v3/discord"
	"golang.org/x/time/rate"
)

type PlayerCounter interface {
	PlayerCount(ctx context.Context) (int, error)
}

type PresenceSetter interface {
	SetPresence(ctx context.Context, p Presence) error
}

// PresenceUpdater periodically republishes the bot's status with the live
// player count.
type PresenceUpdater struct {
	counter  PlayerCounter
	setter   PresenceSetter
	game     string
	fallback string
	interval time.Duration

	// Discord drops presence updates sent too often; bursts from reconnects
	// are coalesced here.
	limiter *rate.Limiter
	// held for the whole of a refresh; a tick that finds it taken is skipped
	busy sync.Mutex

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

func NewPresenceUpdater(counter PlayerCounter, setter PresenceSetter, game, fallback string, interval time.Duration) *PresenceUpdater {
	return &PresenceUpdater{
		counter:  counter,
		setter:   setter,
		game:     game,
		fallback: fallback,
		interval: interval,
		limiter:  rate.NewLimiter(rate.Every(4*time.Second), 5),
	}
}

// Activity is the status text for a fetch result.
func (p *PresenceUpdater) Activity(count int, err error) string {
	if err != nil {
		return p.fallback
	}
	return fmt.Sprintf("%s with %d players", p.game, count)
}

// Refresh fetches the player count and publishes it. It reports false when
// nothing was published, either because another refresh was running or the
// update was throttled.
func (p *PresenceUpdater) Refresh(ctx context.Context) (bool, error) {
	if !p.busy.TryLock() {
		return false, nil
	}
	defer p.busy.Unlock()

	count, err := p.counter.PlayerCount(ctx)
	if err != nil {
		log.Println("[presence] player count:", err)
	}
	presence := Presence{
		Status:   discord.IdleStatus,
		Activity: p.Activity(count, err),
	}

	if !p.limiter.Allow() {
		log.Println("[presence] update throttled")
		return false, nil
	}
	if err := p.setter.SetPresence(ctx, presence); err != nil {
		return false, err
	}
	return true, nil
}

// Start refreshes once per interval until Stop or ctx is done. The first
// refresh happens after one interval; call Refresh for an immediate one.
func (p *PresenceUpdater) Start(ctx context.Context) {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return
	}
	p.running = true
	p.stopCh = make(chan struct{})
	stop := p.stopCh
	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		t := time.NewTicker(p.interval)
		defer t.Stop()

		for {
			select {
			case <-t.C:
				if _, err := p.Refresh(ctx); err != nil {
					log.Println("[presence] set:", err)
				}
			case <-stop:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (p *PresenceUpdater) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	close(p.stopCh)
	p.running = false
	p.mu.Unlock()

	p.wg.Wait()
}
