package bot

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/diamondburned/arikawa/v3/discord"
)

const (
	replyColor   discord.Color = 0x40aa50
	deletedColor discord.Color = 0xff7770
	editedColor  discord.Color = 0xdd70ff
)

// Discord rejects embed fields longer than this.
const maxFieldLen = 1024

// codeBlock fences s, cutting it so the field stays within maxFieldLen.
func codeBlock(s string) string {
	const fence = "```"
	if limit := maxFieldLen - 2*len(fence) - len("…"); len(s) > limit {
		s = s[:limit]
		for !utf8.ValidString(s) {
			s = s[:len(s)-1]
		}
		s += "…"
	}
	return fence + s + fence
}

func replyEmbed(r Reply, now time.Time) discord.Embed {
	return discord.Embed{
		Title:       r.Title,
		Description: r.Body,
		Color:       replyColor,
		Timestamp:   discord.NewTimestamp(now),
	}
}

func auditEmbed(a Audit, now time.Time) discord.Embed {
	e := discord.Embed{
		Title:       a.Kind.String(),
		Description: fmt.Sprintf("Author: %s (`%s`)", a.AuthorID.Mention(), a.AuthorName),
		Timestamp:   discord.NewTimestamp(now),
		Fields: []discord.EmbedField{
			{Name: "Channel", Value: a.ChannelID.Mention(), Inline: true},
		},
	}

	switch a.Kind {
	case AuditEdited:
		e.Color = editedColor
		e.Fields = append(e.Fields,
			discord.EmbedField{Name: "Before", Value: codeBlock(a.Before)},
			discord.EmbedField{Name: "After", Value: codeBlock(a.After)},
		)
	default:
		e.Color = deletedColor
		e.Fields = append(e.Fields, discord.EmbedField{Name: "Content", Value: codeBlock(a.Before)})
	}
	return e
}
