package hooks

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"blitzscan/internal/models"
	"blitzscan/internal/notification"
)

// Sender delivers a notification message.
type Sender interface {
	Send(msg notification.Message) error
}

// NotifierHook posts one summary message per terminal scan.
type NotifierHook struct {
	sender Sender
}

func NewNotifierHook(sender Sender) *NotifierHook {
	return &NotifierHook{sender: sender}
}

func (n *NotifierHook) Name() string {
	return "notification"
}

func (n *NotifierHook) Execute(_ context.Context, scan *models.Scan) error {
	return n.sender.Send(BuildScanMessage(scan))
}

// BuildScanMessage summarizes a terminal scan for chat delivery.
func BuildScanMessage(scan *models.Scan) notification.Message {
	severity := "info"
	emoji := "✅"
	if scan.Status == models.StatusFailed {
		severity = "high"
		emoji = "❌"
	}

	msg := notification.Message{
		Title:       fmt.Sprintf("%s Escaneo %s %s", emoji, strings.ToUpper(string(scan.Kind)), scan.Status),
		Description: fmt.Sprintf("**Objetivo:** `%s`", scan.URL),
		Severity:    severity,
		Timestamp:   scan.CreatedAt,
		Fields: map[string]string{
			"ID":   scan.ID,
			"Tipo": string(scan.Kind),
		},
	}

	switch {
	case scan.Status == models.StatusFailed:
		msg.Fields["Error"] = truncate(scan.ErrorMessage, 200)
	case scan.Kind == models.KindFuzzing:
		msg.Fields["Rutas"] = strconv.Itoa(len(scan.Results))
	case scan.Kind == models.KindNmap && scan.Ports != nil:
		msg.Fields["Puertos abiertos"] = strconv.Itoa(len(scan.Ports.OpenPorts))
	case scan.Kind == models.KindWhois && scan.Whois != nil && scan.Whois.Registrar != "":
		msg.Fields["Registrador"] = scan.Whois.Registrar
	}
	if scan.ParseStatus != "" {
		msg.Fields["Parse"] = string(scan.ParseStatus)
	}
	return msg
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
