package bot

import (
	"sync"

	"github.com/diamondburned/arikawa/v3/discord"

	"github.com/iw4x/iw4x-discord-bot/internal/commands"
	"github.com/iw4x/iw4x-discord-bot/internal/ratelimit"
)

type Settings struct {
	GuildID          discord.GuildID
	ExcludedChannels []discord.ChannelID
	StaffRoleID      discord.RoleID
}

// Dispatcher turns inbound message events into the replies and audit records
// the bot should send. It performs no I/O.
type Dispatcher struct {
	settings Settings
	excluded map[discord.ChannelID]struct{}
	limiter  *ratelimit.Limiter
	table    *commands.Table

	// keeps try, match and record of one command atomic
	mu sync.Mutex
}

func NewDispatcher(s Settings, limiter *ratelimit.Limiter, table *commands.Table) *Dispatcher {
	excluded := make(map[discord.ChannelID]struct{}, len(s.ExcludedChannels))
	for _, ch := range s.ExcludedChannels {
		excluded[ch] = struct{}{}
	}
	return &Dispatcher{
		settings: s,
		excluded: excluded,
		limiter:  limiter,
		table:    table,
	}
}

func (d *Dispatcher) inGuild(id discord.GuildID) bool {
	return id.IsValid() && id == d.settings.GuildID
}

// IsStaff reports whether the author of ev holds the staff role.
func (d *Dispatcher) IsStaff(ev MessageEvent) bool {
	return ev.hasRole(d.settings.StaffRoleID)
}

// OnMessageCreate returns the reply for ev, if any. Filtered, rate limited
// and unknown commands all yield false without further notice.
func (d *Dispatcher) OnMessageCreate(ev MessageEvent) (Reply, bool) {
	if !d.inGuild(ev.GuildID) || ev.Author.Bot {
		return Reply{}, false
	}
	if _, ok := d.excluded[ev.ChannelID]; ok {
		return Reply{}, false
	}
	if !commands.IsCommand(ev.Content) {
		return Reply{}, false
	}

	staff := d.IsStaff(ev)

	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.limiter.TryConsume(ev.Author.ID, staff, ev.Time) {
		return Reply{}, false
	}
	def, ok := d.table.Match(ev.Content)
	if !ok {
		return Reply{}, false
	}
	if !staff {
		d.limiter.RecordConsumption(ev.Author.ID, ev.Time)
	}

	return Reply{
		ChannelID: ev.ChannelID,
		Title:     def.Title,
		Body:      def.Body,
	}, true
}

// OnMessageDelete returns the audit record for a deleted message. ev is the
// message as it was last seen.
func (d *Dispatcher) OnMessageDelete(ev MessageEvent) (Audit, bool) {
	if !d.inGuild(ev.GuildID) || ev.Author.Bot || ev.Content == "" {
		return Audit{}, false
	}
	return Audit{
		Kind:       AuditDeleted,
		AuthorID:   ev.Author.ID,
		AuthorName: ev.Author.Username,
		ChannelID:  ev.ChannelID,
		Before:     ev.Content,
	}, true
}

// OnMessageUpdate returns the audit record for an edit from old to cur. Edits
// that leave the text unchanged, or touch a message that had no text, are
// ignored.
func (d *Dispatcher) OnMessageUpdate(old, cur MessageEvent) (Audit, bool) {
	switch {
	case !d.inGuild(cur.GuildID), old.Author.Bot:
		return Audit{}, false
	case old.Content == "", cur.Content == "", old.Content == cur.Content:
		return Audit{}, false
	}
	return Audit{
		Kind:       AuditEdited,
		AuthorID:   old.Author.ID,
		AuthorName: old.Author.Username,
		ChannelID:  old.ChannelID,
		Before:     old.Content,
		After:      cur.Content,
	}, true
}
