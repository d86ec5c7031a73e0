// Package telegram — шлюз исходящих сообщений поверх Bot API.
package telegram

import (
	"context"
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type Gateway struct {
	api *tgbotapi.BotAPI
}

func NewGateway(api *tgbotapi.BotAPI) *Gateway { return &Gateway{api: api} }

// Send доставляет текст в чат. Библиотечный Send не принимает context,
// поэтому ждём его в отдельной горутине и уважаем дедлайн сами.
func (g *Gateway) Send(ctx context.Context, id string, text string) error {
	chatID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return fmt.Errorf("bad chat id %q: %w", id, err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := g.api.Send(tgbotapi.NewMessage(chatID, text))
		done <- err
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return err
	}
}
