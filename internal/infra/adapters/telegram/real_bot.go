package telegram

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"afk-code-redeemer/internal/application"
	"afk-code-redeemer/internal/config"
	"afk-code-redeemer/internal/domain/ports/adapter"
	red "afk-code-redeemer/internal/infra/redis"

	"github.com/rs/zerolog"
)

var _ adapter.TelegramBot = (*RealTelegramBotAdapter)(nil)

// RealTelegramBotAdapter uses tgbotapi to poll updates and delegates to BotFacade.
type RealTelegramBotAdapter struct {
	bot         *tgbotapi.BotAPI
	cfg         *config.BotConfig
	facade      *application.BotFacade
	rateLimiter *red.RateLimiter
	log         *zerolog.Logger

	adminIDsMap   map[int64]struct{}
	updateWorkers int
	cancelPolling context.CancelFunc
}

func NewRealTelegramBotAdapter(cfg *config.BotConfig, facade *application.BotFacade, rateLimiter *red.RateLimiter, log *zerolog.Logger) (*RealTelegramBotAdapter, error) {
	if cfg == nil {
		return nil, errors.New("bot config is nil")
	}
	if facade == nil {
		return nil, errors.New("bot facade is nil")
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 5
	}

	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, err
	}

	adminMap := map[int64]struct{}{}
	for _, id := range cfg.AdminIDs {
		adminMap[id] = struct{}{}
	}

	return &RealTelegramBotAdapter{
		bot:           bot,
		cfg:           cfg,
		facade:        facade,
		rateLimiter:   rateLimiter,
		log:           log,
		adminIDsMap:   adminMap,
		updateWorkers: workers,
	}, nil
}

func (r *RealTelegramBotAdapter) StartPolling(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := r.bot.GetUpdatesChan(u)

	ctx, cancel := context.WithCancel(ctx)
	r.cancelPolling = cancel

	var wg sync.WaitGroup
	updateChan := make(chan tgbotapi.Update, 100)

	for i := 0; i < r.updateWorkers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case up := <-updateChan:
					if err := r.handleUpdate(ctx, up); err != nil {
						r.log.Error().Err(err).Int("worker", id).Msg("update handling failed")
					}
				}
			}
		}(i)
	}

	for {
		select {
		case <-ctx.Done():
			close(updateChan)
			wg.Wait()
			return ctx.Err()
		case up := <-updates:
			updateChan <- up
		}
	}
}

func (r *RealTelegramBotAdapter) StopPolling() {
	if r.cancelPolling != nil {
		r.cancelPolling()
	}
}

type cbHandler func(ctx context.Context, chatID int64, data string) error

// Exact-match callbacks
func (r *RealTelegramBotAdapter) cbRoutes() map[string]cbHandler {
	return map[string]cbHandler{
		"cmd:menu": func(ctx context.Context, id int64, _ string) error {
			return r.sendMainMenu(ctx, id, "Choose an action:")
		},
		"setup:account": func(ctx context.Context, id int64, _ string) error {
			return r.replyVia(ctx, id, r.facade.HandleSetupAccount)
		},
		"setup:secret": func(ctx context.Context, id int64, _ string) error {
			return r.replyVia(ctx, id, r.facade.HandleUpdateSecret)
		},
		"cmd:parse": func(ctx context.Context, id int64, _ string) error {
			_ = r.SendMessage(ctx, id, "Fetching codes from the listing sites...")
			text, err := r.facade.HandleParse(ctx, id)
			if err != nil {
				text = "Failed to fetch codes. Try again in a minute."
			}
			return r.sendRedeemMenu(ctx, id, text)
		},
		"redeem:all": func(ctx context.Context, id int64, _ string) error {
			_ = r.SendMessage(ctx, id, "Starting the redemption run. This takes a while, submissions are paced.")
			text, err := r.facade.HandleRedeemAll(ctx, id)
			if err != nil {
				r.log.Error().Err(err).Int64("tg_id", id).Msg("redeem run failed")
				text = "The redemption run failed. Check status and try again."
			}
			return r.sendMainMenu(ctx, id, text)
		},
		"parse:menu": func(ctx context.Context, id int64, _ string) error {
			return r.sendParseMenu(ctx, id)
		},
		"cmd:account": func(ctx context.Context, id int64, _ string) error {
			return r.replyVia(ctx, id, r.facade.HandleAccountInfo)
		},
		"cmd:status": func(ctx context.Context, id int64, _ string) error {
			text, err := r.facade.HandleStatus(ctx, id)
			if err != nil {
				text = "Failed to get status."
			}
			return r.sendMainMenu(ctx, id, text)
		},
		"view:used": func(ctx context.Context, id int64, _ string) error {
			return r.replyVia(ctx, id, r.facade.HandleViewUsed)
		},
		"view:failed": func(ctx context.Context, id int64, _ string) error {
			return r.replyVia(ctx, id, r.facade.HandleViewFailed)
		},
		"clear:failed": func(ctx context.Context, id int64, _ string) error {
			return r.replyVia(ctx, id, r.facade.HandleClearFailed)
		},
		"clear:account": func(ctx context.Context, id int64, _ string) error {
			return r.replyVia(ctx, id, r.facade.HandleClearAccount)
		},
	}
}

// Prefix-match callbacks
func (r *RealTelegramBotAdapter) cbPrefixRoutes() []struct {
	Prefix string
	Fn     cbHandler
} {
	return []struct {
		Prefix string
		Fn     cbHandler
	}{
		{
			Prefix: "parse:src:",
			Fn: func(ctx context.Context, id int64, data string) error {
				source := strings.TrimPrefix(data, "parse:src:")
				_ = r.SendMessage(ctx, id, "Fetching codes from "+source+"...")
				text, err := r.facade.HandleParseSource(ctx, id, source)
				if err != nil {
					text = "Failed to fetch codes. Try again in a minute."
				}
				return r.sendRedeemMenu(ctx, id, text)
			},
		},
		{
			Prefix: "redeem:code:",
			Fn: func(ctx context.Context, id int64, data string) error {
				code := strings.TrimPrefix(data, "redeem:code:")
				text, err := r.facade.HandleRedeemCode(ctx, id, code)
				if err != nil {
					r.log.Error().Err(err).Int64("tg_id", id).Msg("manual redeem failed")
					text = "Failed to redeem the code."
				}
				return r.sendMainMenu(ctx, id, text)
			},
		},
	}
}

func (r *RealTelegramBotAdapter) replyVia(ctx context.Context, id int64, h func(context.Context, int64) (string, error)) error {
	text, err := h(ctx, id)
	if err != nil {
		r.log.Error().Err(err).Int64("tg_id", id).Msg("facade call failed")
		text = "Something went wrong. Try again."
	}
	return r.SendMessage(ctx, id, text)
}

func (r *RealTelegramBotAdapter) SendMessage(ctx context.Context, tgID int64, text string) error {
	msg := tgbotapi.NewMessage(tgID, text)
	_, err := r.bot.Send(msg)
	return err
}

// SendButtons sends a message with inline buttons.
// - If btn.URL is set, the button opens a link
// - Else if btn.Data is set, the button sends callback data
// - Else a safe fallback uses btn.Text as callback data
func (b *RealTelegramBotAdapter) SendButtons(
	ctx context.Context,
	telegramID int64,
	text string,
	rows [][]adapter.InlineButton,
) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	kbRows := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		r := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, btn := range row {
			label := strings.TrimSpace(btn.Text)
			if label == "" {
				label = "•"
			}
			var kb tgbotapi.InlineKeyboardButton
			switch {
			case btn.URL != "":
				kb = tgbotapi.NewInlineKeyboardButtonURL(label, btn.URL)
			case btn.Data != "":
				kb = tgbotapi.NewInlineKeyboardButtonData(label, btn.Data)
			default:
				kb = tgbotapi.NewInlineKeyboardButtonData(label, label)
			}
			r = append(r, kb)
		}
		kbRows = append(kbRows, r)
	}

	markup := tgbotapi.NewInlineKeyboardMarkup(kbRows...)
	msg := tgbotapi.NewMessage(telegramID, text)
	msg.ReplyMarkup = markup
	_, err := b.bot.Send(msg)
	return err
}

func (r *RealTelegramBotAdapter) handleUpdate(ctx context.Context, update tgbotapi.Update) error {
	if update.CallbackQuery != nil {
		return r.handleQuery(ctx, update.CallbackQuery)
	}

	if update.Message == nil {
		return nil
	}
	tgUser := update.Message.From
	if tgUser == nil {
		return nil
	}
	tgID := int64(tgUser.ID)

	cmd := strings.Fields(update.Message.Text)
	command := "message"
	if len(cmd) > 0 && strings.HasPrefix(cmd[0], "/") {
		command = cmd[0]
	}
	if r.rateLimiter != nil {
		allowed, err := r.rateLimiter.Allow(ctx, red.UserCommandKey(tgID, command), 20, time.Minute)
		if err != nil {
			r.log.Warn().Err(err).Msg("rate limit check failed")
		} else if !allowed {
			return r.SendMessage(ctx, tgID, "Rate limit exceeded. Please try again later.")
		}
	}

	switch command {
	case "/start":
		text, err := r.facade.HandleStart(ctx, tgID)
		if err != nil {
			return r.SendMessage(ctx, tgID, "Failed to start. Try again.")
		}
		if err := r.sendMainMenu(ctx, tgID, text); err != nil {
			return r.SendMessage(ctx, tgID, text)
		}
		return nil

	case "/menu":
		return r.sendMainMenu(ctx, tgID, "Choose an action:")

	case "/setup":
		return r.replyVia(ctx, tgID, r.facade.HandleSetupAccount)

	case "/secret":
		return r.replyVia(ctx, tgID, r.facade.HandleUpdateSecret)

	case "/parse":
		_ = r.SendMessage(ctx, tgID, "Fetching codes from the listing sites...")
		text, err := r.facade.HandleParse(ctx, tgID)
		if err != nil {
			text = "Failed to fetch codes. Try again in a minute."
		}
		return r.sendRedeemMenu(ctx, tgID, text)

	case "/redeem":
		if len(cmd) >= 2 {
			text, err := r.facade.HandleRedeemCode(ctx, tgID, cmd[1])
			if err != nil {
				r.log.Error().Err(err).Int64("tg_id", tgID).Msg("manual redeem failed")
				text = "Failed to redeem the code."
			}
			return r.SendMessage(ctx, tgID, text)
		}
		text, err := r.facade.HandleRedeemAll(ctx, tgID)
		if err != nil {
			r.log.Error().Err(err).Int64("tg_id", tgID).Msg("redeem run failed")
			text = "The redemption run failed. Check status and try again."
		}
		return r.sendMainMenu(ctx, tgID, text)

	case "/status":
		text, err := r.facade.HandleStatus(ctx, tgID)
		if err != nil {
			text = "Failed to get status."
		}
		return r.sendMainMenu(ctx, tgID, text)

	case "/account":
		return r.replyVia(ctx, tgID, r.facade.HandleAccountInfo)

	case "/used":
		return r.replyVia(ctx, tgID, r.facade.HandleViewUsed)

	case "/failed":
		return r.replyVia(ctx, tgID, r.facade.HandleViewFailed)

	case "/clearfailed":
		return r.replyVia(ctx, tgID, r.facade.HandleClearFailed)

	case "/help":
		reply := "Commands:\n/start - menu\n/setup - link game account\n/secret - send a fresh verification code\n/parse - fetch promo codes\n/redeem [CODE] - redeem all parsed codes, or one code\n/status - ledger summary\n/account - list game roles (uses up the code)\n/used /failed - list recorded codes\n/clearfailed - retry failed codes next run"
		return r.SendMessage(ctx, tgID, reply)

	default:
		// Conversation flow: UID and verification code arrive as plain text.
		if update.Message.Text != "" {
			reply, err := r.facade.HandleTextInput(ctx, tgID, update.Message.Text)
			if err != nil {
				r.log.Error().Err(err).Int64("tg_id", tgID).Msg("text input failed")
				return r.SendMessage(ctx, tgID, "Something went wrong. Try again.")
			}
			if strings.TrimSpace(reply) != "" {
				return r.SendMessage(ctx, tgID, reply)
			}
		}
		return nil
	}
}

func (r *RealTelegramBotAdapter) handleQuery(ctx context.Context, query *tgbotapi.CallbackQuery) error {
	if query == nil || query.From == nil {
		return errors.New("invalid callback query")
	}

	// Stop telegram spinner when we return
	defer func() { _, _ = r.bot.Request(tgbotapi.NewCallback(query.ID, "")) }()

	var chatID int64
	if query.Message != nil && query.Message.Chat != nil {
		chatID = query.Message.Chat.ID
	} else {
		chatID = int64(query.From.ID)
	}
	if chatID == 0 {
		return nil
	}

	data := strings.TrimSpace(query.Data)

	if r.rateLimiter != nil {
		if allowed, err := r.rateLimiter.Allow(ctx, red.UserCommandKey(chatID, "cb:"+data), 30, time.Minute); err == nil && !allowed {
			return r.SendMessage(ctx, chatID, "Rate limit exceeded. Please try again later.")
		}
	}

	if fn, ok := r.cbRoutes()[data]; ok {
		return fn(ctx, chatID, data)
	}
	for _, pr := range r.cbPrefixRoutes() {
		if strings.HasPrefix(data, pr.Prefix) {
			return pr.Fn(ctx, chatID, data)
		}
	}
	return errors.New("unknown callback data")
}

// sendMainMenu shows the main actions as inline buttons.
func (r *RealTelegramBotAdapter) sendMainMenu(ctx context.Context, telegramID int64, intro string) error {
	rows := [][]adapter.InlineButton{
		{{Text: "🔍 Parse Codes", Data: "cmd:parse"}, {Text: "🗂 One Source", Data: "parse:menu"}},
		{{Text: "🎁 Redeem All", Data: "redeem:all"}},
		{{Text: "🔑 Update Secret", Data: "setup:secret"}},
		{{Text: "📊 Status", Data: "cmd:status"}, {Text: "👤 Account Info", Data: "cmd:account"}},
		{{Text: "⚙️ Setup Account", Data: "setup:account"}},
	}
	if strings.TrimSpace(intro) == "" {
		intro = "Welcome! Choose an action:"
	}
	return r.SendButtons(ctx, telegramID, intro, rows)
}

// sendParseMenu offers one button per configured listing source.
func (r *RealTelegramBotAdapter) sendParseMenu(ctx context.Context, telegramID int64) error {
	rows := [][]adapter.InlineButton{
		{{Text: "All sources", Data: "cmd:parse"}},
	}
	for _, name := range r.facade.ParseSources() {
		rows = append(rows, []adapter.InlineButton{{Text: name, Data: "parse:src:" + name}})
	}
	rows = append(rows, []adapter.InlineButton{{Text: "◀️ Menu", Data: "cmd:menu"}})
	return r.SendButtons(ctx, telegramID, "Pick a source to parse:", rows)
}

// sendRedeemMenu follows a parse result with the actions that make sense next.
func (r *RealTelegramBotAdapter) sendRedeemMenu(ctx context.Context, telegramID int64, text string) error {
	rows := [][]adapter.InlineButton{
		{{Text: "🎁 Redeem All", Data: "redeem:all"}},
		{{Text: "🔑 Update Secret", Data: "setup:secret"}},
		{{Text: "◀️ Menu", Data: "cmd:menu"}},
	}
	return r.SendButtons(ctx, telegramID, text, rows)
}
