package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Registrations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bot_registrations_total",
		Help: "Заявки на доступ (первый контакт).",
	})
	Approvals = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bot_approvals_total",
		Help: "Одобренные заявки.",
	})
	Bans = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bot_bans_total",
		Help: "Баны.",
	})
	Resets = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bot_resets_total",
		Help: "Сбросы записей (/reset).",
	})
	NotifyDelivered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bot_notify_delivered_total",
		Help: "Успешно доставленные уведомления.",
	})
	NotifyFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bot_notify_failed_total",
		Help: "Уведомления, которые не удалось доставить.",
	})
)
