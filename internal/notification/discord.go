// Package notification delivers scan alerts to a Discord channel.
package notification

import (
	"fmt"
	"sort"
	"time"

	"blitzscan/pkg/errors"

	"github.com/bwmarrin/discordgo"
)

type Message struct {
	Title       string
	Description string
	Severity    string
	Fields      map[string]string
	Timestamp   time.Time
}

// embedSession is the part of *discordgo.Session the client uses.
type embedSession interface {
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
	Close() error
}

type NotificationClient struct {
	sg        embedSession
	channelID string
}

// NewNotificationClient opens a bot session. Both token and channel are
// required; ErrDiscordNotConfigured is returned otherwise.
func NewNotificationClient(token, channelID string) (*NotificationClient, error) {
	if token == "" || channelID == "" {
		return nil, errors.ErrDiscordNotConfigured
	}

	sg, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, err
	}

	if err := sg.Open(); err != nil {
		return nil, fmt.Errorf("open discord session: %w", err)
	}

	return &NotificationClient{sg: sg, channelID: channelID}, nil
}

func newClientWithSession(sg embedSession, channelID string) *NotificationClient {
	return &NotificationClient{sg: sg, channelID: channelID}
}

func getSeverityColor(severity string) int {
	switch severity {
	case "critical":
		return 0x8B0000
	case "high":
		return 0xFF0000
	case "medium":
		return 0xFF8C00
	case "low":
		return 0xFFD700
	case "info":
		return 0x00BFFF
	default:
		return 0x808080
	}
}

// BuildEmbed converts msg into a Discord embed with fields sorted by name.
func BuildEmbed(msg Message) *discordgo.MessageEmbed {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}

	embed := &discordgo.MessageEmbed{
		Title:       msg.Title,
		Description: msg.Description,
		Color:       getSeverityColor(msg.Severity),
		Timestamp:   msg.Timestamp.UTC().Format(time.RFC3339),
		Footer:      &discordgo.MessageEmbedFooter{Text: "BLITZ SCAN"},
	}

	if len(msg.Fields) > 0 {
		names := make([]string, 0, len(msg.Fields))
		for name := range msg.Fields {
			names = append(names, name)
		}
		sort.Strings(names)

		embed.Fields = make([]*discordgo.MessageEmbedField, 0, len(names))
		for _, name := range names {
			embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
				Name:   name,
				Value:  msg.Fields[name],
				Inline: true,
			})
		}
	}
	return embed
}

func (c *NotificationClient) Send(msg Message) error {
	if c == nil || c.sg == nil {
		return errors.ErrDiscordNotConfigured
	}
	_, err := c.sg.ChannelMessageSendEmbed(c.channelID, BuildEmbed(msg))
	return err
}

func (c *NotificationClient) Close() error {
	if c != nil && c.sg != nil {
		return c.sg.Close()
	}
	return nil
}
