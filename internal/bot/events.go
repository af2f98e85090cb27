package bot

import (
	"time"

	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/diamondburned/arikawa/v3/gateway"
)

type Author struct {
	ID       discord.UserID
	Username string
	Bot      bool
}

// MessageEvent is the part of a gateway message the dispatcher looks at.
// GuildID is zero outside of guilds.
type MessageEvent struct {
	GuildID   discord.GuildID
	ChannelID discord.ChannelID
	MessageID discord.MessageID
	Author    Author
	Content   string
	RoleIDs   []discord.RoleID
	Time      time.Time
}

func (ev MessageEvent) hasRole(id discord.RoleID) bool {
	for _, r := range ev.RoleIDs {
		if r == id {
			return true
		}
	}
	return false
}

func messageEvent(m discord.Message, member *discord.Member, now time.Time) MessageEvent {
	ev := MessageEvent{
		GuildID:   m.GuildID,
		ChannelID: m.ChannelID,
		MessageID: m.ID,
		Author: Author{
			ID:       m.Author.ID,
			Username: m.Author.Username,
			Bot:      m.Author.Bot,
		},
		Content: m.Content,
		Time:    now,
	}
	if member != nil {
		ev.RoleIDs = member.RoleIDs
	}
	return ev
}

func createEvent(e *gateway.MessageCreateEvent, now time.Time) MessageEvent {
	return messageEvent(e.Message, e.Member, now)
}

// Reply is a canned answer to be posted where the command was issued.
type Reply struct {
	ChannelID discord.ChannelID
	Title     string
	Body      string
}

type AuditKind int

const (
	AuditDeleted AuditKind = iota
	AuditEdited
)

func (k AuditKind) String() string {
	switch k {
	case AuditDeleted:
		return "Message Deleted"
	case AuditEdited:
		return "Message Edited"
	default:
		return "unknown"
	}
}

// Audit describes a deleted or edited message for the log channel. After is
// only set for edits.
type Audit struct {
	Kind       AuditKind
	AuthorID   discord.UserID
	AuthorName string
	ChannelID  discord.ChannelID
	Before     string
	After      string
}

// Presence is the status the bot shows next to its name.
type Presence struct {
	Status   discord.Status
	Activity string
}
