package access

import "context"

// Store — durable-хранилище записей доступа. Каждая мутация обязана
// синхронно сохраниться на диск до возврата; при ошибке записи
// in-memory состояние откатывается, и наружу уходит ошибка персистентности.
type Store interface {
	// Get возвращает запись или ErrNotFound (неизвестный id = NEW).
	Get(ctx context.Context, id string) (*Identity, error)

	// UpsertPending кладёт запись в pending, только если id ещё нигде нет.
	// Повторный вызов для уже существующей записи — no-op (вернёт её состояние).
	UpsertPending(ctx context.Context, id string, p Profile) (State, error)

	// Move атомарно переносит запись из from в to.
	// ErrStateMismatch, если запись сейчас не в from.
	Move(ctx context.Context, id string, from, to State) error

	// Upsert кладёт запись сразу в указанное состояние, затирая прежнее.
	// Нужен для превентивного бана неизвестного id.
	Upsert(ctx context.Context, id string, p Profile, st State) error

	// RemoveAll убирает запись из всех коллекций; отсутствие — не ошибка.
	RemoveAll(ctx context.Context, id string) error

	// Snapshot — записи в заданном состоянии в порядке добавления.
	Snapshot(ctx context.Context, st State) ([]Identity, error)

	// AddRecipient регистрирует id в broadcast-наборе (все, кто писал /start).
	AddRecipient(ctx context.Context, id string) error

	// Recipients — весь broadcast-набор в порядке добавления.
	Recipients(ctx context.Context) ([]string, error)
}
