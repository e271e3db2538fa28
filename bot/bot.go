package bot

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"

	"github.com/gotd/td/tg"
	"go.uber.org/zap"
	"golang.org/x/xerrors"

	"github.com/tdakkota/timeprobe/client"
)

// Asker is a session of embedded probe.
type Asker interface {
	Ask(ctx context.Context, text string) (client.Result, error)
}

type Bot struct {
	// mu serializes asks, session is single-owner.
	mu     sync.Mutex
	asker  Asker
	tg     *tg.Client
	logger *zap.Logger
}

func NewBot(asker Asker, raw *tg.Client, logger *zap.Logger) *Bot {
	return &Bot{
		asker:  asker,
		tg:     raw,
		logger: logger,
	}
}

func (b *Bot) ask(ctx context.Context, text string) (r client.Result, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	defer func() {
		b.logger.With(
			zap.String("text", text),
			zap.Stringer("result", r),
			zap.Error(err),
		).Debug("Asked probe")
	}()

	return b.asker.Ask(ctx, text)
}

func (b *Bot) sendAnswer(ctx tg.UpdateContext, u *tg.UpdateBotInlineQuery) error {
	r, err := b.ask(ctx, u.Query)
	if err != nil {
		return xerrors.Errorf("ask probe: %w", err)
	}

	title, answer := "Result:", r.Body()
	if r.IsFailed() {
		title, answer = "Can't answer", r.Failure()
	}

	message := &tg.InputBotInlineMessageText{
		NoWebpage: true,
		Message:   answer,
	}

	id := sha256.Sum256([]byte(u.Query))
	result := &tg.InputBotInlineResult{
		ID:          hex.EncodeToString(id[:]),
		Type:        "article",
		SendMessage: message,
	}
	result.SetTitle(title)
	result.SetDescription(answer)

	req := &tg.MessagesSetInlineBotResultsRequest{
		QueryID: u.QueryID,
		Results: []tg.InputBotInlineResultClass{
			result,
		},
	}

	_, err = b.tg.MessagesSetInlineBotResults(ctx, req)

	return err
}

func (b *Bot) Handler() func(ctx tg.UpdateContext, u *tg.UpdateBotInlineQuery) error {
	return func(ctx tg.UpdateContext, u *tg.UpdateBotInlineQuery) (err error) {
		b.logger.With(
			zap.Int("user_id", u.UserID),
			zap.String("query", u.Query),
		).Info("Inline query")

		if u.Query == "" {
			return nil
		}

		return b.sendAnswer(ctx, u)
	}
}
