package bot

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/train-status-bot/internal/domain/access"
	"github.com/Spok95/train-status-bot/internal/trains"
)

// Bot — тонкий роутер команд: парсит апдейт, дёргает движок доступа
// и отвечает. Никакого собственного состояния у него нет.
type Bot struct {
	api        *tgbotapi.BotAPI
	log        *slog.Logger
	engine     *access.Engine
	dispatcher *access.Dispatcher
	trains     trains.Provider
}

func New(api *tgbotapi.BotAPI, log *slog.Logger,
	engine *access.Engine, dispatcher *access.Dispatcher,
	trainsProvider trains.Provider) *Bot {

	if trainsProvider == nil {
		trainsProvider = trains.Unconfigured{}
	}
	return &Bot{
		api: api, log: log,
		engine: engine, dispatcher: dispatcher,
		trains: trainsProvider,
	}
}

func (b *Bot) Run(ctx context.Context, timeoutSec int) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = timeoutSec
	updates := b.api.GetUpdatesChan(u)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case upd := <-updates:
			if upd.Message != nil && upd.Message.IsCommand() {
				b.handleCommand(ctx, upd.Message)
			}
		}
	}
}

func (b *Bot) send(msg tgbotapi.Chattable) {
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send failed", "err", err)
	}
}

func (b *Bot) reply(chatID int64, text string) {
	b.send(tgbotapi.NewMessage(chatID, text))
}

// profileOf собирает Profile из данных отправителя.
func profileOf(from *tgbotapi.User) access.Profile {
	return access.Profile{
		Name:   strings.TrimSpace(from.FirstName + " " + from.LastName),
		Handle: from.UserName,
	}
}

// parseTargetID валидирует аргумент админ-команды: id платформы числовой.
func parseTargetID(arg string) (string, bool) {
	arg = strings.TrimSpace(arg)
	if _, err := strconv.ParseInt(arg, 10, 64); err != nil {
		return "", false
	}
	return arg, true
}

func callerID(from *tgbotapi.User) string {
	return strconv.FormatInt(from.ID, 10)
}
