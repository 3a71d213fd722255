package adapter

import "context"

// InlineButton is a chat-UI button: URL opens a link, Data sends callback data.
type InlineButton struct {
	Text string
	Data string
	URL  string
}

// TelegramBot is the outbound port for the operator front-end.
type TelegramBot interface {
	SendMessage(ctx context.Context, tgID int64, text string) error
	SendButtons(ctx context.Context, tgID int64, text string, rows [][]InlineButton) error
	StartPolling(ctx context.Context) error
}
