package telegram

import (
	"fmt"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/selivandex/market-pulse/internal/adapters/config"
	"github.com/selivandex/market-pulse/pkg/logger"
	"github.com/selivandex/market-pulse/pkg/models"
)

// Notifier pushes newly active high-confidence zone signals to a
// Telegram chat. A signal is announced once per continuous activation;
// it becomes announceable again after dropping off the active list.
type Notifier struct {
	api    *tgbotapi.BotAPI
	chatID int64
	cfg    *config.TelegramConfig

	mu        sync.Mutex
	announced map[string]bool
}

// NewNotifier creates new Telegram notifier
func NewNotifier(cfg *config.TelegramConfig) (*Notifier, error) {
	if cfg.BotToken == "" {
		return nil, fmt.Errorf("telegram bot token is required")
	}

	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot API: %w", err)
	}
	bot.Debug = false

	logger.Info("telegram notifier initialized",
		zap.String("bot_username", bot.Self.UserName),
	)

	return &Notifier{
		api:       bot,
		chatID:    cfg.ChatID,
		cfg:       cfg,
		announced: make(map[string]bool),
	}, nil
}

// NotifyActiveSignals sends alerts for active signals not yet announced.
// Only High confidence signals are pushed.
func (n *Notifier) NotifyActiveSignals(active map[models.SignalVariant][]models.ZoneSignal) {
	if !n.cfg.AlertOnSignals {
		return
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	current := make(map[string]bool)

	for variant, signals := range active {
		for _, signal := range signals {
			key := string(variant) + ":" + signal.Symbol
			current[key] = true

			if signal.Confidence != models.ConfidenceHigh || n.announced[key] {
				continue
			}

			if err := n.send(formatSignal(signal)); err != nil {
				logger.Warn("failed to send signal alert",
					zap.String("symbol", signal.Symbol),
					zap.Error(err),
				)
				continue
			}
			n.announced[key] = true
		}
	}

	// Signals that dropped off become announceable again
	for key := range n.announced {
		if !current[key] {
			delete(n.announced, key)
		}
	}
}

// NotifyPhaseChange announces a rotation phase transition
func (n *Notifier) NotifyPhaseChange(prev, next models.PhaseResult) error {
	if prev.Phase == next.Phase {
		return nil
	}

	text := fmt.Sprintf("🔄 *Market phase changed*\n%s → %s (%.0f%% confidence)\n\n%s",
		prev.Phase, next.Phase, next.Confidence,
		strings.Join(next.Signals, "\n"),
	)
	return n.send(text)
}

func (n *Notifier) send(text string) error {
	msg := tgbotapi.NewMessage(n.chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown

	if _, err := n.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	return nil
}

func formatSignal(s models.ZoneSignal) string {
	var emoji, title string
	switch s.Variant {
	case models.VariantEntry:
		emoji, title = "🟢", "Entry zone"
	case models.VariantExit:
		emoji, title = "🔴", "Exit zone"
	case models.VariantShortEntry:
		emoji, title = "🔻", "Short entry"
	default:
		emoji, title = "🔺", "Cover short"
	}

	return fmt.Sprintf("%s *%s: %s* (%s)\nZone: %s - %s\nProbability: %.0f%% | Strength: %.0f\n%s",
		emoji, title, s.Symbol, s.Name,
		s.Range.Low.StringFixed(4), s.Range.High.StringFixed(4),
		s.Probability, s.Strength,
		s.Recommendation,
	)
}
