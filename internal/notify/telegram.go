// Package notify sends toolbox alerts to a Telegram chat.
package notify

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"toolcheck/pkg/types"
)

// TelegramNotifier posts run alerts to a single chat.
type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegramNotifier creates a notifier from a bot token and chat ID.
func NewTelegramNotifier(token string, chatID int64) (*TelegramNotifier, error) {
	if token == "" {
		return nil, fmt.Errorf("telegram token is empty")
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	return &TelegramNotifier{bot: bot, chatID: chatID}, nil
}

// SendReport posts a run summary. Alerts are included only when the report
// carries any; a fully complete toolbox sends a single confirmation line.
func (n *TelegramNotifier) SendReport(rep types.ToolboxReport) error {
	msg := tgbotapi.NewMessage(n.chatID, formatReport(rep))
	if _, err := n.bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	return nil
}

func formatReport(rep types.ToolboxReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Toolbox check: %s (%.1f%% complete)\n", rep.OverallStatus, rep.CompletenessPct)
	fmt.Fprintf(&b, "present %d / missing %d / uncertain %d / error %d of %d\n",
		rep.PresentCount, rep.MissingCount, rep.UncertainCount, rep.ErrorCount, rep.TotalCount)
	for _, a := range rep.Alerts {
		fmt.Fprintf(&b, "- [%s] %s\n", a.Severity, a.Message)
	}
	return strings.TrimRight(b.String(), "\n")
}
