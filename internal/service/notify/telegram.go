package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Kagemann/brondby-stock-tracker/internal/domain/models"
	"github.com/Kagemann/brondby-stock-tracker/internal/domain/repository"
	xhttp "github.com/Kagemann/brondby-stock-tracker/pkg/http"
	"github.com/Kagemann/brondby-stock-tracker/pkg/logger"
)

const telegramAPIBase = "https://api.telegram.org"

// TelegramNotifier delivers fired alerts to a Telegram chat via the Bot API.
// Delivery is best effort; a failed send is logged and never propagated back
// into the analysis pipeline.
type TelegramNotifier struct {
	client *xhttp.Client
	log    *logger.Logger
	token  string
	chatID string
}

type TelegramConfig struct {
	BotToken string
	ChatID   string
	Timeout  time.Duration
}

func NewTelegramNotifier(cfg TelegramConfig, log *logger.Logger) *TelegramNotifier {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &TelegramNotifier{
		client: xhttp.NewClient(xhttp.WithTimeout(timeout)),
		log:    log,
		token:  cfg.BotToken,
		chatID: cfg.ChatID,
	}
}

func (n *TelegramNotifier) Notify(ctx context.Context, alerts []models.AlertCondition) error {
	if len(alerts) == 0 {
		return nil
	}

	var sendErr error
	for _, a := range alerts {
		if err := n.send(ctx, formatAlert(a)); err != nil {
			n.log.Error("telegram send failed",
				logger.String("type", string(a.Type)),
				logger.Error(err))
			sendErr = err
		}
	}
	return sendErr
}

func (n *TelegramNotifier) send(ctx context.Context, text string) error {
	var resp struct {
		OK          bool   `json:"ok"`
		Description string `json:"description"`
	}
	err := n.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    fmt.Sprintf("%s/bot%s/sendMessage", telegramAPIBase, n.token),
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
		Body: map[string]interface{}{
			"chat_id":    n.chatID,
			"text":       text,
			"parse_mode": "HTML",
		},
	}, &resp)
	if err != nil {
		return err
	}
	if !resp.OK {
		return fmt.Errorf("telegram api: %s", resp.Description)
	}
	return nil
}

func (n *TelegramNotifier) Close() error { return nil }

func formatAlert(a models.AlertCondition) string {
	var b strings.Builder
	switch a.Severity {
	case "critical":
		b.WriteString("🚨 <b>")
	default:
		b.WriteString("⚠️ <b>")
	}
	b.WriteString(alertTitle(a.Type))
	b.WriteString("</b>\n")
	b.WriteString(a.Message)
	b.WriteString(fmt.Sprintf("\n\nValue: %.2f (threshold %.2f)", a.TriggeringValue, a.Threshold))
	b.WriteString("\n" + a.FiredAt.Format("2006-01-02 15:04 MST"))
	return b.String()
}

func alertTitle(t models.AlertType) string {
	switch t {
	case models.AlertPriceMovement:
		return "Price movement"
	case models.AlertVolumeSurge:
		return "Volume surge"
	case models.AlertSentimentExtreme:
		return "Extreme news sentiment"
	case models.AlertCorrelationPattern:
		return "Sentiment/price correlation"
	default:
		return string(t)
	}
}

var _ repository.Notifier = (*TelegramNotifier)(nil)

// MultiNotifier fans one alert batch out to several channels. Each channel
// gets the full batch even if an earlier one fails.
type MultiNotifier struct {
	notifiers []repository.Notifier
}

func NewMultiNotifier(notifiers ...repository.Notifier) *MultiNotifier {
	return &MultiNotifier{notifiers: notifiers}
}

func (m *MultiNotifier) Notify(ctx context.Context, alerts []models.AlertCondition) error {
	var firstErr error
	for _, n := range m.notifiers {
		if err := n.Notify(ctx, alerts); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (m *MultiNotifier) Close() error {
	var firstErr error
	for _, n := range m.notifiers {
		if err := n.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

var _ repository.Notifier = (*MultiNotifier)(nil)
