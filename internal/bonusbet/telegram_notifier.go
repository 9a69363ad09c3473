package bonusbet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"
)

// Min interval between any two Telegram messages to avoid 429 Too Many Requests (~30/min limit).
const DefaultTelegramSendInterval = 2 * time.Second

var ErrNotifierStopped = errors.New("notifier stopped")

// messageSender is the subset of *tgbotapi.BotAPI the notifier needs.
type messageSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// queuedMessage represents a message queued for sending
type queuedMessage struct {
	chatID   int64
	text     string
	fallback string // posted to the fallback chat when the DM fails
	request  string
	queuedAt time.Time
}

type TelegramOptions struct {
	FallbackChatID int64
	SendInterval   time.Duration
	Bookmakers     *Bookmakers
	QueueSize      int
}

// TelegramNotifier delivers search results as direct messages. Sends go through a buffered
// queue drained by one goroutine so the bot stays under Telegram's rate limit.
type TelegramNotifier struct {
	sender     messageSender
	fallbackID int64
	interval   time.Duration
	books      *Bookmakers

	mu       sync.Mutex
	lastSend time.Time
	stopped  bool

	queue  chan queuedMessage
	stopCh chan struct{}
	done   chan struct{}
}

// NewTelegramNotifier connects to the bot API and starts the send loop.
func NewTelegramNotifier(token string, opts TelegramOptions) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	bot.Debug = false
	slog.Info("Telegram notifier initialized", "bot", bot.Self.UserName, "fallback_chat_id", opts.FallbackChatID)
	return newTelegramNotifier(bot, opts), nil
}

func newTelegramNotifier(sender messageSender, opts TelegramOptions) *TelegramNotifier {
	if opts.SendInterval <= 0 {
		opts.SendInterval = DefaultTelegramSendInterval
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 100
	}
	if opts.Bookmakers == nil {
		opts.Bookmakers = NewBookmakers(nil)
	}
	n := &TelegramNotifier{
		sender:     sender,
		fallbackID: opts.FallbackChatID,
		interval:   opts.SendInterval,
		books:      opts.Bookmakers,
		queue:      make(chan queuedMessage, opts.QueueSize),
		stopCh:     make(chan struct{}),
		done:       make(chan struct{}),
	}
	go n.run()
	return n
}

// Notify queues the message for n.Request.UserID without blocking.
func (t *TelegramNotifier) Notify(ctx context.Context, n Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := queuedMessage{
		chatID:   n.Request.UserID,
		request:  n.Request.ID,
		queuedAt: time.Now(),
	}
	if n.Expired {
		msg.text = FormatExpired(n.Request, t.books)
	} else if n.Recommendation != nil {
		msg.text = FormatRecommendation(n.Recommendation, t.books, n.Request.Attempts)
		msg.fallback = fmt.Sprintf("🎉 A bonus bet opportunity is ready for user %d. Enable direct messages from this bot for private results.\n\n%s",
			n.Request.UserID, msg.text)
	} else {
		return fmt.Errorf("notification for %s has neither result nor expiry", n.Request.ID)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return ErrNotifierStopped
	}
	select {
	case t.queue <- msg:
		return nil
	default:
		slog.Warn("Telegram message queue is full, dropping message", "request_id", n.Request.ID, "user_id", n.Request.UserID)
		return fmt.Errorf("telegram message queue is full")
	}
}

// QueueLen returns current number of messages in the send queue.
func (t *TelegramNotifier) QueueLen() int {
	return len(t.queue)
}

// Stop stops accepting messages and waits until queued ones are sent.
func (t *TelegramNotifier) Stop() {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		<-t.done
		return
	}
	t.stopped = true
	close(t.stopCh)
	t.mu.Unlock()
	<-t.done
}

func (t *TelegramNotifier) run() {
	defer close(t.done)
	for {
		select {
		case <-t.stopCh:
			for {
				select {
				case msg := <-t.queue:
					t.deliver(msg)
				default:
					return
				}
			}
		case msg := <-t.queue:
			t.deliver(msg)
		}
	}
}

func (t *TelegramNotifier) deliver(msg queuedMessage) {
	err := t.send(msg.chatID, msg.text)
	if err == nil {
		slog.Info("Telegram send: success", "request_id", msg.request, "chat_id", msg.chatID,
			"delay", time.Since(msg.queuedAt), "queue_length", len(t.queue))
		return
	}
	slog.Warn("Telegram send: direct message failed", "request_id", msg.request, "chat_id", msg.chatID, "error", err)

	if t.fallbackID == 0 || t.fallbackID == msg.chatID || msg.fallback == "" {
		return
	}
	if err := t.send(t.fallbackID, msg.fallback); err != nil {
		slog.Error("Telegram send: fallback failed", "request_id", msg.request, "chat_id", t.fallbackID, "error", err)
		return
	}
	slog.Info("Telegram send: posted to fallback chat", "request_id", msg.request, "chat_id", t.fallbackID)
}

// send waits out the rate limit and sends one Markdown message.
func (t *TelegramNotifier) send(chatID int64, text string) error {
	t.mu.Lock()
	wait := t.interval - time.Since(t.lastSend)
	t.mu.Unlock()
	if wait > 0 {
		time.Sleep(wait)
	}

	m := tgbotapi.NewMessage(chatID, text)
	m.ParseMode = tgbotapi.ModeMarkdown
	_, err := t.sender.Send(m)

	t.mu.Lock()
	t.lastSend = time.Now()
	t.mu.Unlock()
	return err
}

// FormatRecommendation renders a found opportunity as a Markdown message.
func FormatRecommendation(rec *Recommendation, books *Bookmakers, attempts int) string {
	var b strings.Builder
	s := rec.Summary

	emoji := "🏆"
	if rec.Mode == ModeQuick {
		emoji = "⚡"
	}
	fmt.Fprintf(&b, "🎉 *Your bonus bet opportunity is ready!*\n")
	fmt.Fprintf(&b, "%s %s\n\n", emoji, rec.Mode.Label())

	fmt.Fprintf(&b, "🏟️ *%s* - %s\n", escapeMarkdown(rec.SportTitle), escapeMarkdown(rec.MatchName()))
	if ts, err := time.Parse(time.RFC3339, rec.CommenceTime); err == nil {
		fmt.Fprintf(&b, "🕐 %s\n", ts.UTC().Format("2006-01-02 15:04 UTC"))
	}
	fmt.Fprintf(&b, "📊 *%s* → %s / %s\n", rec.MarketDisplay,
		escapeMarkdown(outcomeLabel(rec.BonusOutcome, rec.BonusPoint)),
		escapeMarkdown(outcomeLabel(rec.HedgeOutcome, rec.HedgePoint)))
	fmt.Fprintf(&b, "💰 *%s%%* (%s from %s bonus)\n\n",
		s.ReturnPct.StringFixed(1), formatMoney(s.GuaranteedReturn), formatMoney(decimal.NewFromFloat(rec.Stake)))

	fmt.Fprintf(&b, "🎲 *Bonus Bet* at %s\n", escapeMarkdown(books.Label(rec.BonusBookmaker)))
	fmt.Fprintf(&b, "🟢 %s @ %s\n", escapeMarkdown(outcomeLabel(rec.BonusOutcome, rec.BonusPoint)), decimal.NewFromFloat(rec.BonusOdds).String())
	fmt.Fprintf(&b, "Stake: %s (bonus)\n", formatMoney(decimal.NewFromFloat(rec.Stake)))
	fmt.Fprintf(&b, "Payout if wins: %s\n\n", formatMoney(s.BonusPayout))

	fmt.Fprintf(&b, "🛡️ *Hedge Bet* at %s\n", escapeMarkdown(books.Label(rec.HedgeBookmaker)))
	fmt.Fprintf(&b, "🔴 %s @ %s\n", escapeMarkdown(outcomeLabel(rec.HedgeOutcome, rec.HedgePoint)), decimal.NewFromFloat(rec.HedgeOdds).String())
	fmt.Fprintf(&b, "Stake: %s (cash)\n", formatMoney(s.HedgeStake))
	fmt.Fprintf(&b, "Payout if wins: %s\n\n", formatMoney(s.HedgePayout))

	fmt.Fprintf(&b, "✅ You'll receive at least %s, regardless of who wins.", formatMoney(s.GuaranteedReturn))
	if attempts > 0 {
		fmt.Fprintf(&b, "\n_Found after %d search(es)_", attempts)
	}
	return b.String()
}

// FormatExpired renders the message sent when a queued search gives up.
func FormatExpired(req SearchRequest, books *Bookmakers) string {
	return fmt.Sprintf("⏰ Your %s bonus bet search at %s has expired after %d searches. Please try again with different parameters.",
		formatMoney(decimal.NewFromFloat(req.Stake)), escapeMarkdown(books.Label(req.Bookmaker)), req.Attempts)
}

func outcomeLabel(name string, point *float64) string {
	if point == nil {
		return name
	}
	return fmt.Sprintf("%s %+g", name, *point)
}

// formatMoney renders d as dollars with thousands separators, dropping zero cents.
func formatMoney(d decimal.Decimal) string {
	s := d.StringFixed(2)
	s = strings.TrimSuffix(s, ".00")

	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	whole, frac, hasFrac := strings.Cut(s, ".")

	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	out := "$" + b.String()
	if hasFrac {
		out += "." + frac
	}
	if neg {
		out = "-" + out
	}
	return out
}

// escapeMarkdown escapes the characters legacy Telegram Markdown treats as markup.
func escapeMarkdown(text string) string {
	replacer := strings.NewReplacer(
		"_", "\\_",
		"*", "\\*",
		"`", "\\`",
		"[", "\\[",
	)
	return replacer.Replace(text)
}
