// Package dispatch parses inbound webhook event batches, deduplicates them,
// intercepts emergencies, and schedules background reply work on a bounded
// worker pool.
package dispatch

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/torigami/kokoro/internal/line"
)

// Fixed operator-facing strings. The escalation message is sent synchronously
// through the reply channel before any model call can happen.
const (
	EscalationMessage = "緊急の可能性があります。今すぐお住まいの地域の緊急連絡先に連絡するか、" +
		"専門の相談窓口へご連絡ください。必要であれば、日本の相談窓口をご案内します。"
	textOnlyFallback = "テキストで話しかけてください。"
)

// emergencyKeywords trigger the escalation short-circuit. Matched as
// substrings after stripping whitespace from the user text.
var emergencyKeywords = []string{"自殺", "死にたい", "殺す", "放火", "爆弾", "薬を飲む"}

// Replier sends a synchronous reply keyed by a one-time reply token.
type Replier interface {
	Reply(ctx context.Context, replyToken, text string) error
}

// Submitter accepts background jobs; it reports false when the job was
// dropped.
type Submitter interface {
	Submit(job Job) bool
}

// Dispatcher is the synchronous half of webhook handling: everything here
// must stay fast so the platform gets its acknowledgment promptly.
type Dispatcher struct {
	dedup   *dedupSet
	replier Replier
	jobs    Submitter
	logger  *slog.Logger
}

// NewDispatcher creates a dispatcher. dedupTTL bounds how long event
// identifiers are remembered.
func NewDispatcher(log *slog.Logger, replier Replier, jobs Submitter, dedupTTL time.Duration) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{
		dedup:   newDedupSet(dedupTTL),
		replier: replier,
		jobs:    jobs,
		logger:  log.With(slog.String("service", "dispatch")),
	}
}

// HandleEvents processes one webhook batch. Per-event outcomes never
// propagate: redelivered, unsupported, or unresolvable events are skipped and
// the caller always acknowledges the batch.
func (d *Dispatcher) HandleEvents(ctx context.Context, events []line.Event) {
	for _, ev := range events {
		d.handleEvent(ctx, ev)
	}
}

func (d *Dispatcher) handleEvent(ctx context.Context, ev line.Event) {
	if id := eventID(ev); d.dedup.Seen(id) {
		d.logger.Debug("duplicate event skipped", slog.String("event_id", id))
		return
	}

	if ev.Type != line.EventTypeMessage || ev.Message.Type != line.MessageTypeText {
		if ev.ReplyToken != "" {
			if err := d.replier.Reply(ctx, ev.ReplyToken, textOnlyFallback); err != nil {
				d.logger.Warn("text-only fallback reply failed", slog.Any("error", err))
			}
		}
		return
	}

	targetID := ev.Source.TargetID()
	if targetID == "" {
		d.logger.Warn("unresolvable event source", slog.String("source_type", ev.Source.Type))
		return
	}

	text := strings.TrimSpace(ev.Message.Text)
	if text == "" {
		return
	}

	if isEmergency(text) {
		d.logger.Info("emergency keyword matched", slog.String("target_id", targetID))
		if err := d.replier.Reply(ctx, ev.ReplyToken, EscalationMessage); err != nil {
			d.logger.Error("escalation reply failed", slog.Any("error", err))
		}
		return
	}

	job := Job{
		ID:         uuid.New(),
		TargetID:   targetID,
		Text:       text,
		ReplyToken: ev.ReplyToken,
	}
	if d.jobs.Submit(job) {
		d.logger.Debug("job scheduled",
			slog.String("job_id", job.ID.String()),
			slog.String("target_id", targetID),
		)
	}
}

// eventID picks the dedup key: reply token, else timestamp, else none.
func eventID(ev line.Event) string {
	if ev.ReplyToken != "" {
		return ev.ReplyToken
	}
	if ev.Timestamp != 0 {
		return strconv.FormatInt(ev.Timestamp, 10)
	}
	return ""
}

// isEmergency strips all whitespace from the text and checks the keyword list
// by substring, so spaced-out spellings still match.
func isEmergency(text string) bool {
	compact := strings.Map(func(r rune) rune {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '　' {
			return -1
		}
		return r
	}, text)
	for _, k := range emergencyKeywords {
		if strings.Contains(compact, k) {
			return true
		}
	}
	return false
}
