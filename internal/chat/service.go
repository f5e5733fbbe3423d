// Package chat runs the asynchronous reply pipeline for one inbound message:
// advance the counseling phase, build the prompt, generate, post-process,
// record both turns, and push the reply to the target.
package chat

import (
	"context"
	"log/slog"

	"github.com/torigami/kokoro/internal/conversation"
	"github.com/torigami/kokoro/internal/prompt"
	"github.com/torigami/kokoro/internal/search"
)

// ApologyMessage replaces the assistant turn when generation fails. It is
// still recorded in history so the conversation keeps continuity.
const ApologyMessage = "すみません、ただいま外部情報の取得に失敗しました。もう一度お願いできますか？"

// Generator produces text for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Sender pushes text to a durable target identifier.
type Sender interface {
	Push(ctx context.Context, targetID, text string) error
}

// Searcher supplies optional external references for the prompt.
type Searcher interface {
	Enabled() bool
	Search(ctx context.Context, query string, max int) []search.Result
}

// Service is the per-event reply pipeline.
type Service struct {
	store    *conversation.Store
	gen      Generator
	sender   Sender
	searcher Searcher
	logger   *slog.Logger
}

// NewService creates a chat service. searcher may be a disabled client.
func NewService(log *slog.Logger, store *conversation.Store, gen Generator, sender Sender, searcher Searcher) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		store:    store,
		gen:      gen,
		sender:   sender,
		searcher: searcher,
		logger:   log.With(slog.String("service", "chat")),
	}
}

// Process handles one inbound message end to end. All failures are recovered
// locally: generation failures degrade to ApologyMessage, delivery failures
// are logged and swallowed. The whole pipeline runs under the target's lock so
// rapid events for the same target serialize instead of losing turns.
func (s *Service) Process(ctx context.Context, targetID, text string) {
	log := s.logger.With(slog.String("target_id", targetID))

	s.store.Update(targetID, func(rec *conversation.Record) {
		phase := conversation.NextPhase(rec.Phase(), text, rec.HistoryLen())
		rec.SetPhase(phase)

		var refs []search.Result
		if s.searcher != nil && s.searcher.Enabled() {
			refs = s.searcher.Search(ctx, text, prompt.MaxReferenceItems)
		}

		input := prompt.Build(rec.History(), rec.Phase(), refs, text)

		reply, err := s.gen.Generate(ctx, input)
		if err != nil {
			log.Warn("generation failed", slog.Any("error", err))
			reply = ApologyMessage
		} else {
			reply = prompt.EnsureAnswerFirst(reply, text)
		}

		rec.Append(conversation.RoleUser, text)
		rec.Append(conversation.RoleAssistant, reply)

		if err := s.sender.Push(ctx, targetID, reply); err != nil {
			log.Error("push failed", slog.Any("error", err))
			return
		}
		log.Info("reply pushed", slog.String("phase", string(rec.Phase())))
	})
}
