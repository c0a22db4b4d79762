package discord

import (
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/pscheid92/suggestbox/internal/domain"
)

var emojiByKind = map[domain.EmojiKind]string{
	domain.EmojiThumbsUp:   "\U0001F44D",
	domain.EmojiThumbsDown: "\U0001F44E",
	domain.EmojiShrug:      "\U0001F937",
}

func emojiKind(e *discordgo.Emoji) domain.EmojiKind {
	if e == nil || e.ID != "" {
		return domain.EmojiOther
	}
	for kind, name := range emojiByKind {
		if e.Name == name {
			return kind
		}
	}
	return domain.EmojiOther
}

func toReactions(reactions []*discordgo.MessageReactions) []domain.Reaction {
	out := make([]domain.Reaction, 0, len(reactions))
	for _, r := range reactions {
		if r == nil {
			continue
		}
		out = append(out, domain.Reaction{Kind: emojiKind(r.Emoji), Count: r.Count})
	}
	return out
}

func toEmbed(p domain.DisplayPayload) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       p.Title,
		Description: p.Description,
		Color:       p.Color,
	}

	if p.Author.Name != "" {
		embed.Author = &discordgo.MessageEmbedAuthor{Name: p.Author.Name, IconURL: p.Author.IconURL}
	}
	if p.Footer != "" {
		embed.Footer = &discordgo.MessageEmbedFooter{Text: p.Footer}
	}
	if !p.Timestamp.IsZero() {
		embed.Timestamp = p.Timestamp.UTC().Format(time.RFC3339)
	}
	for _, f := range p.Fields {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: f.Name, Value: f.Value, Inline: f.Inline})
	}
	return embed
}

func toUserInfo(u *discordgo.User) *domain.UserInfo {
	name := u.GlobalName
	if name == "" {
		name = u.Username
	}
	return &domain.UserInfo{ID: u.ID, Name: name, AvatarURL: u.AvatarURL("")}
}
