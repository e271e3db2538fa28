package bot

import (
	"context"
	"testing"

	"github.com/gotd/td/bin"
	"github.com/gotd/td/tg"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/tdakkota/timeprobe/client"
)

type mockAsker struct {
	r   client.Result
	err error
}

func (m mockAsker) Ask(ctx context.Context, text string) (client.Result, error) {
	return m.r, m.err
}

type InvokerFunc func(ctx context.Context, input bin.Encoder, output bin.Decoder) error

func (i InvokerFunc) InvokeRaw(ctx context.Context, input bin.Encoder, output bin.Decoder) error {
	return i(ctx, input, output)
}

func testContext() tg.UpdateContext {
	return tg.UpdateContext{
		Context: context.Background(),
		Users:   map[int]*tg.User{},
		Chats:   map[int]*tg.Chat{},
	}
}

func expectAnswer(a *require.Assertions, queryID int64, title, answer string) InvokerFunc {
	return func(ctx context.Context, input bin.Encoder, output bin.Decoder) error {
		b := bin.Buffer{}
		if err := input.Encode(&b); err != nil {
			return err
		}
		req, ok := input.(*tg.MessagesSetInlineBotResultsRequest)
		a.Truef(ok, "unexpected type %T", input)
		a.Equal(queryID, req.QueryID)

		a.NotEmpty(req.Results)
		result, ok := req.Results[0].(*tg.InputBotInlineResult)
		a.Truef(ok, "unexpected type %T", req.Results[0])
		a.Equal(title, result.Title)
		a.Equal(answer, result.Description)

		msg, ok := result.SendMessage.(*tg.InputBotInlineMessageText)
		a.Truef(ok, "unexpected type %T", result.SendMessage)
		a.Equal(answer, msg.Message)
		return nil
	}
}

func TestBot(t *testing.T) {
	a := require.New(t)
	logger := zaptest.NewLogger(t)
	queryID := int64(10)
	query := "What time is it in London?"
	answer := `{"city":"London"}`

	raw := tg.NewClient(expectAnswer(a, queryID, "Result:", answer))
	bot := NewBot(mockAsker{r: client.Accepted("time", answer)}, raw, logger.Named("bot"))

	err := bot.Handler()(testContext(), &tg.UpdateBotInlineQuery{
		QueryID: queryID,
		Query:   query,
	})
	a.NoError(err)
}

func TestBotFailed(t *testing.T) {
	a := require.New(t)
	logger := zaptest.NewLogger(t)
	queryID := int64(11)

	raw := tg.NewClient(expectAnswer(a, queryID, "Can't answer", "no matching intent"))
	bot := NewBot(mockAsker{r: client.Failed("no matching intent")}, raw, logger.Named("bot"))

	err := bot.Handler()(testContext(), &tg.UpdateBotInlineQuery{
		QueryID: queryID,
		Query:   "weather",
	})
	a.NoError(err)
}

func TestBotEmptyQuery(t *testing.T) {
	raw := tg.NewClient(InvokerFunc(func(ctx context.Context, input bin.Encoder, output bin.Decoder) error {
		t.Fatalf("unexpected call %T", input)
		return nil
	}))
	bot := NewBot(mockAsker{}, raw, zaptest.NewLogger(t))

	require.NoError(t, bot.Handler()(testContext(), &tg.UpdateBotInlineQuery{QueryID: 1}))
}

func TestBotAskError(t *testing.T) {
	raw := tg.NewClient(InvokerFunc(func(ctx context.Context, input bin.Encoder, output bin.Decoder) error {
		t.Fatalf("unexpected call %T", input)
		return nil
	}))
	bot := NewBot(mockAsker{err: client.ErrWorkerNotRunning}, raw, zaptest.NewLogger(t))

	err := bot.Handler()(testContext(), &tg.UpdateBotInlineQuery{QueryID: 1, Query: "time"})
	require.ErrorIs(t, err, client.ErrWorkerNotRunning)
}
