package notification

import (
	"fmt"
	"testing"
	"time"

	"blitzscan/pkg/errors"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSession struct {
	channel string
	embeds  []*discordgo.MessageEmbed
	err     error
	closed  bool
}

func (f *fakeSession) ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.channel = channelID
	f.embeds = append(f.embeds, embed)
	return &discordgo.Message{}, f.err
}

func (f *fakeSession) Close() error {
	f.closed = true
	return nil
}

func TestNewNotificationClient_RequiresConfig(t *testing.T) {
	_, err := NewNotificationClient("", "123")
	assert.ErrorIs(t, err, errors.ErrDiscordNotConfigured)

	_, err = NewNotificationClient("token", "")
	assert.ErrorIs(t, err, errors.ErrDiscordNotConfigured)
}

func TestBuildEmbed(t *testing.T) {
	ts := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	embed := BuildEmbed(Message{
		Title:     "t",
		Severity:  "critical",
		Timestamp: ts,
		Fields:    map[string]string{"b": "2", "a": "1"},
	})

	assert.Equal(t, 0x8B0000, embed.Color)
	assert.Equal(t, "2025-01-02T03:04:05Z", embed.Timestamp)
	require.Len(t, embed.Fields, 2)
	assert.Equal(t, "a", embed.Fields[0].Name)
	assert.Equal(t, "b", embed.Fields[1].Name)

	assert.Equal(t, 0x808080, BuildEmbed(Message{Severity: "unknown"}).Color)
	assert.NotEmpty(t, BuildEmbed(Message{}).Timestamp)
}

func TestNotificationClient_Send(t *testing.T) {
	session := &fakeSession{}
	client := newClientWithSession(session, "chan-1")

	require.NoError(t, client.Send(Message{Title: "hello"}))
	assert.Equal(t, "chan-1", session.channel)
	require.Len(t, session.embeds, 1)
	assert.Equal(t, "hello", session.embeds[0].Title)

	session.err = fmt.Errorf("rate limited")
	assert.ErrorContains(t, client.Send(Message{}), "rate limited")

	require.NoError(t, client.Close())
	assert.True(t, session.closed)

	var nilClient *NotificationClient
	assert.ErrorIs(t, nilClient.Send(Message{}), errors.ErrDiscordNotConfigured)
	assert.NoError(t, nilClient.Close())
}
