package access

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Spok95/train-status-bot/internal/infra/metrics"
)

// Gateway — транспорт исходящих сообщений (Telegram). Каждый Send обязан
// уважать дедлайн контекста: одно зависшее соединение не должно
// останавливать диспетчер.
type Gateway interface {
	Send(ctx context.Context, id string, text string) error
}

// Dispatcher рассылает уведомления best-effort. Ошибки доставки
// изолируются по адресату: логируются и считаются, но не всплывают —
// мутация состояния к этому моменту уже закоммичена.
type Dispatcher struct {
	gw          Gateway
	log         *slog.Logger
	adminIDs    []string
	sendTimeout time.Duration
	workers     int
}

func NewDispatcher(gw Gateway, log *slog.Logger, adminIDs []string, sendTimeout time.Duration, workers int) *Dispatcher {
	if sendTimeout <= 0 {
		sendTimeout = 5 * time.Second
	}
	if workers <= 0 {
		workers = 4
	}
	return &Dispatcher{gw: gw, log: log, adminIDs: adminIDs, sendTimeout: sendTimeout, workers: workers}
}

// NotifyOne шлёт одно сообщение; ошибка доставки только логируется.
func (d *Dispatcher) NotifyOne(ctx context.Context, id string, text string) {
	d.deliver(ctx, id, text)
}

// NotifyMany — fan-out по набору адресатов через ограниченный пул воркеров.
// Возвращает число успешных доставок.
func (d *Dispatcher) NotifyMany(ctx context.Context, ids []string, text string) int {
	var delivered atomic.Int64

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(d.workers)
	for _, id := range ids {
		g.Go(func() error {
			if d.deliver(ctx, id, text) {
				delivered.Add(1)
			}
			return nil // ошибки доставки не прерывают рассылку
		})
	}
	_ = g.Wait()

	return int(delivered.Load())
}

// NotifyAdmins шлёт всем администраторам.
func (d *Dispatcher) NotifyAdmins(ctx context.Context, text string) {
	d.NotifyMany(ctx, d.adminIDs, text)
}

func (d *Dispatcher) deliver(ctx context.Context, id string, text string) bool {
	sendCtx, cancel := context.WithTimeout(ctx, d.sendTimeout)
	defer cancel()

	if err := d.gw.Send(sendCtx, id, text); err != nil {
		metrics.NotifyFailed.Inc()
		d.log.Warn("notify failed", "recipient", id, "err", err)
		return false
	}
	metrics.NotifyDelivered.Inc()
	return true
}
