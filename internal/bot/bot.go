package bot

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/diamondburned/arikawa/v3/gateway"
	"github.com/diamondburned/arikawa/v3/state"
	"github.com/diamondburned/arikawa/v3/utils/handler"
	"github.com/pkg/errors"

	"github.com/iw4x/iw4x-discord-bot/internal/commands"
	"github.com/iw4x/iw4x-discord-bot/internal/config"
	"github.com/iw4x/iw4x-discord-bot/internal/masterapi"
	"github.com/iw4x/iw4x-discord-bot/internal/ratelimit"
)

// Sender posts embeds to a channel.
type Sender interface {
	SendEmbeds(channelID discord.ChannelID, embeds ...discord.Embed) (*discord.Message, error)
}

// Cache resolves channels and messages the gateway has already delivered.
type Cache interface {
	Channel(id discord.ChannelID) (*discord.Channel, error)
	Message(channelID discord.ChannelID, messageID discord.MessageID) (*discord.Message, error)
}

type Bot struct {
	cfg      config.Config
	state    *state.State
	send     Sender
	cache    Cache
	dispatch *Dispatcher
	limiter  *ratelimit.Limiter
	presence *PresenceUpdater

	now   func() time.Time
	spawn func(func())

	// ctx lives from Start until Stop; nil or done means not running.
	ctx    context.Context
	stopCh chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// New builds the bot and its gateway session. Nothing connects until Start.
func New(cfg config.Config, table *commands.Table) (*Bot, error) {
	limiter, err := ratelimit.New(cfg.RateLimiter())
	if err != nil {
		return nil, err
	}

	s := state.New(cfg.BotToken())
	s.AddIntents(gateway.IntentGuilds)
	s.AddIntents(gateway.IntentGuildMessages)
	s.AddIntents(gateway.IntentMessageContent)
	s.AddIntents(gateway.IntentGuildMembers)

	bot := &Bot{
		cfg:     cfg,
		state:   s,
		send:    s,
		cache:   s.Cabinet,
		limiter: limiter,
		now:     time.Now,
		spawn:   func(f func()) { go f() },
		dispatch: NewDispatcher(Settings{
			GuildID:          cfg.AllowedGuildID,
			ExcludedChannels: cfg.ExcludedChannels,
			StaffRoleID:      cfg.StaffRoleID,
		}, limiter, table),
		presence: NewPresenceUpdater(
			masterapi.NewClient(cfg.MasterAPI()),
			gatewayPresence{s},
			cfg.GameName,
			cfg.FallbackActivity,
			cfg.Interval(),
		),
	}

	// Deletes and edits need the message as it was before the state cache
	// applies the event.
	s.PreHandler = handler.New()
	s.PreHandler.AddSyncHandler(bot.onMessageDelete)
	s.PreHandler.AddSyncHandler(bot.onMessageUpdate)

	s.AddHandler(bot.onReady)
	s.AddHandler(bot.onMessageCreate)

	return bot, nil
}

func (bot *Bot) Start(ctx context.Context) error {
	if bot == nil {
		return errors.New("bot not initialized")
	}

	bot.mu.Lock()
	if bot.stopCh != nil {
		bot.mu.Unlock()
		return errors.New("already running")
	}
	bot.stopCh = make(chan struct{})
	stop := bot.stopCh
	bot.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	bot.mu.Lock()
	bot.ctx = ctx
	bot.mu.Unlock()

	if err := bot.state.Open(ctx); err != nil {
		cancel()
		bot.mu.Lock()
		bot.stopCh = nil
		bot.ctx = nil
		bot.mu.Unlock()
		return errors.Wrap(err, "open gateway")
	}

	bot.presence.Start(ctx)

	bot.wg.Add(1)
	go func() {
		defer bot.wg.Done()

		t := time.NewTicker(bot.cfg.Window())
		defer t.Stop()

		for {
			select {
			case <-t.C:
				if n := bot.limiter.Prune(bot.now()); n > 0 {
					log.Printf("[ratelimit] forgot %d idle users", n)
				}
			case <-stop:
				bot.presence.Stop()
				// under mu so onReady cannot add to wg after this point
				bot.mu.Lock()
				cancel()
				bot.mu.Unlock()
				if err := bot.state.Close(); err != nil {
					log.Println("close:", err)
				}
				return
			}
		}
	}()

	return nil
}

// Stop disconnects from the gateway. Calling it more than once is harmless.
func (bot *Bot) Stop() {
	bot.mu.Lock()
	ch := bot.stopCh
	bot.stopCh = nil
	bot.mu.Unlock()

	if ch != nil {
		close(ch)
		bot.wg.Wait()
	}
}

func (bot *Bot) onReady(e *gateway.ReadyEvent) {
	log.Println("Ready! Logged in as", e.User.Tag())

	bot.mu.Lock()
	defer bot.mu.Unlock()

	ctx := bot.ctx
	if ctx == nil || ctx.Err() != nil {
		return
	}
	bot.wg.Add(1)
	go func() {
		defer bot.wg.Done()
		if _, err := bot.presence.Refresh(ctx); err != nil {
			log.Println("[presence] set:", err)
		}
	}()
}

func (bot *Bot) onMessageCreate(e *gateway.MessageCreateEvent) {
	reply, ok := bot.dispatch.OnMessageCreate(createEvent(e, bot.now()))
	if !ok {
		return
	}
	if _, err := bot.send.SendEmbeds(reply.ChannelID, replyEmbed(reply, bot.now())); err != nil {
		log.Printf("[command] reply in %d: %v", reply.ChannelID, err)
	}
}

func (bot *Bot) onMessageDelete(e *gateway.MessageDeleteEvent) {
	m, err := bot.cache.Message(e.ChannelID, e.ID)
	if err != nil {
		return
	}
	ev := messageEvent(*m, nil, bot.now())
	ev.GuildID = e.GuildID

	if a, ok := bot.dispatch.OnMessageDelete(ev); ok {
		bot.spawn(func() { bot.emitAudit(a) })
	}
}

func (bot *Bot) onMessageUpdate(e *gateway.MessageUpdateEvent) {
	m, err := bot.cache.Message(e.ChannelID, e.ID)
	if err != nil {
		return
	}
	now := bot.now()
	old := messageEvent(*m, nil, now)
	cur := messageEvent(e.Message, e.Member, now)

	if a, ok := bot.dispatch.OnMessageUpdate(old, cur); ok {
		bot.spawn(func() { bot.emitAudit(a) })
	}
}

// emitAudit posts a to the log channel. It gives up silently when the
// channel is not cached.
func (bot *Bot) emitAudit(a Audit) {
	if _, err := bot.cache.Channel(bot.cfg.LogChannelID); err != nil {
		return
	}
	if _, err := bot.send.SendEmbeds(bot.cfg.LogChannelID, auditEmbed(a, bot.now())); err != nil {
		log.Printf("[audit] %s: %v", a.Kind, err)
	}
}

type gatewayPresence struct {
	s *state.State
}

func (g gatewayPresence) SetPresence(ctx context.Context, p Presence) error {
	return g.s.SendGateway(ctx, &gateway.UpdatePresenceCommand{
		Status: p.Status,
		Activities: []discord.Activity{{
			Name: p.Activity,
			Type: discord.GameActivity,
		}},
	})
}
