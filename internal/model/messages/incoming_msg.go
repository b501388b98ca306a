package messages

import (
	"context"
	"strconv"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
)

type messageSender interface {
	SendMessage(text string, chatID int64) error
}

type MessageHandler interface {
	HandleMessage(ctx context.Context, text, username string) (string, error)
}

type Service struct {
	tgClient messageSender
	handler  MessageHandler
}

func NewService(tgClient messageSender, sessions sessionOpener) *Service {
	return &Service{
		tgClient: tgClient,
		handler:  newHandler(sessions),
	}
}

// Message is an incoming chat message. Replies go to ChatID; the ledger
// belongs to the sender. ChatID defaults to UserID for private chats.
type Message struct {
	Text     string
	ChatID   int64
	UserID   int64
	Username string
}

func (m Message) replyTo() int64 {
	if m.ChatID != 0 {
		return m.ChatID
	}
	return m.UserID
}

// Owner names the ledger the message belongs to: the sender's username, or
// the sender's numeric id for users without one.
func (m Message) Owner() string {
	if m.Username != "" {
		return m.Username
	}
	return "id" + strconv.FormatInt(m.UserID, 10)
}

func (s *Service) HandleIncomingMessage(ctx context.Context, msg Message) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "handleMessage")
	defer span.Finish()

	start := time.Now()
	err := s.handle(ctx, msg)
	elapsed := time.Since(start)

	cmd, _ := parseCommand(msg.Text)
	observeResponse(cmd, elapsed, err != nil)
	if err != nil {
		ext.Error.Set(span, true)
	}
	return err
}

func (s *Service) handle(ctx context.Context, msg Message) error {
	resp, err := s.handler.HandleMessage(ctx, msg.Text, msg.Owner())
	if err != nil {
		_ = s.tgClient.SendMessage("Sorry, something wrong happened...\n"+resp, msg.replyTo())
		return err
	}
	return s.tgClient.SendMessage(resp, msg.replyTo())
}
