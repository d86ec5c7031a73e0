package access

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Spok95/train-status-bot/internal/infra/metrics"
)

// Notifier — то, чем движок шлёт уведомления. Доставка best-effort:
// состояние уже закоммичено, ошибки доставки войдут только в лог.
type Notifier interface {
	NotifyOne(ctx context.Context, id string, text string)
	NotifyAdmins(ctx context.Context, text string)
}

// Engine — конечный автомат доступа поверх Store.
// Все мутации сериализованы одним мьютексом: последовательность
// «прочитал-решил-записал-сохранил» выполняется атомарно.
type Engine struct {
	mu       sync.Mutex
	store    Store
	admins   map[string]struct{}
	notifier Notifier
	log      *slog.Logger
}

func NewEngine(store Store, adminIDs []string, notifier Notifier, log *slog.Logger) *Engine {
	admins := make(map[string]struct{}, len(adminIDs))
	for _, id := range adminIDs {
		admins[id] = struct{}{}
	}
	return &Engine{store: store, admins: admins, notifier: notifier, log: log}
}

func (e *Engine) IsAdmin(id string) bool {
	_, ok := e.admins[id]
	return ok
}

// Register обрабатывает первый контакт (/start).
// Админ проходит всегда и не попадает ни в одну коллекцию.
func (e *Engine) Register(ctx context.Context, id string, p Profile) (Decision, error) {
	if !validID(id) {
		return "", ErrMalformedInput
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	// broadcast-набор пополняется любым, кто написал /start, кроме забаненных
	if e.IsAdmin(id) {
		if err := e.store.AddRecipient(ctx, id); err != nil {
			return "", &StorageError{Err: err}
		}
		return DecisionWelcome, nil
	}

	cur, err := e.store.Get(ctx, id)
	if err != nil && err != ErrNotFound {
		return "", &StorageError{Err: err}
	}
	if cur != nil {
		switch cur.State {
		case StateBanned:
			return DecisionBanned, nil
		case StateApproved:
			if err := e.store.AddRecipient(ctx, id); err != nil {
				return "", &StorageError{Err: err}
			}
			return DecisionWelcome, nil
		case StatePending:
			// уже в очереди — админов повторно не дёргаем
			return DecisionAwaitingApproval, nil
		}
	}

	if err := e.store.AddRecipient(ctx, id); err != nil {
		return "", &StorageError{Err: err}
	}
	if _, err := e.store.UpsertPending(ctx, id, p); err != nil {
		return "", &StorageError{Err: err}
	}
	metrics.Registrations.Inc()
	e.log.Info("access requested", "id", id, "name", p.Name)

	name := p.Name
	if name == "" {
		name = "(no name)"
	}
	handle := p.Handle
	if handle == "" {
		handle = "-"
	}
	e.notifier.NotifyAdmins(ctx, fmt.Sprintf(
		"🆕 Access request\nID: %s\nName: %s\nHandle: %s\n\nApprove: /approve %s",
		id, name, handle, id))

	return DecisionAwaitingApproval, nil
}

// Approve переводит pending → approved. Только для админа.
func (e *Engine) Approve(ctx context.Context, actorID, targetID string) error {
	if !e.IsAdmin(actorID) {
		return ErrUnauthorized
	}
	if !validID(targetID) {
		return ErrMalformedInput
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.store.Move(ctx, targetID, StatePending, StateApproved); err != nil {
		switch err {
		case ErrNotFound, ErrStateMismatch:
			return ErrNotFound
		default:
			return &StorageError{Err: err}
		}
	}
	metrics.Approvals.Inc()
	e.log.Info("approved", "id", targetID, "by", actorID)

	e.notifier.NotifyOne(ctx, targetID, "✅ You are approved. Send /start to begin.")
	return nil
}

// Ban переводит запись в banned из любого состояния.
// Неизвестный id тоже можно забанить превентивно — создаётся
// запись banned с пустым профилем.
func (e *Engine) Ban(ctx context.Context, actorID, targetID string) error {
	if !e.IsAdmin(actorID) {
		return ErrUnauthorized
	}
	if !validID(targetID) {
		return ErrMalformedInput
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	cur, err := e.store.Get(ctx, targetID)
	if err != nil && err != ErrNotFound {
		return &StorageError{Err: err}
	}

	p := Profile{}
	if cur != nil {
		if cur.State == StateBanned {
			return nil // уже забанен
		}
		p = cur.Profile
	}
	if err := e.store.Upsert(ctx, targetID, p, StateBanned); err != nil {
		return &StorageError{Err: err}
	}
	metrics.Bans.Inc()
	e.log.Info("banned", "id", targetID, "by", actorID)
	return nil
}

// Reset убирает запись из всех коллекций — id снова считается NEW.
func (e *Engine) Reset(ctx context.Context, actorID, targetID string) error {
	if !e.IsAdmin(actorID) {
		return ErrUnauthorized
	}
	if !validID(targetID) {
		return ErrMalformedInput
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.store.RemoveAll(ctx, targetID); err != nil {
		return &StorageError{Err: err}
	}
	metrics.Resets.Inc()
	e.log.Info("reset", "id", targetID, "by", actorID)
	return nil
}

// CheckAccess — гейт для всех пользовательских команд.
func (e *Engine) CheckAccess(ctx context.Context, id string) (Decision, error) {
	if !validID(id) {
		return "", ErrMalformedInput
	}
	if e.IsAdmin(id) {
		return DecisionAllowed, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	cur, err := e.store.Get(ctx, id)
	if err == ErrNotFound {
		return DecisionAwaitingApproval, nil
	}
	if err != nil {
		return "", &StorageError{Err: err}
	}
	switch cur.State {
	case StateApproved:
		return DecisionAllowed, nil
	case StateBanned:
		return DecisionBanned, nil
	default:
		return DecisionAwaitingApproval, nil
	}
}

// List — записи в одном из состояний, в порядке добавления. Только для админа.
func (e *Engine) List(ctx context.Context, actorID string, st State) ([]Identity, error) {
	if !e.IsAdmin(actorID) {
		return nil, ErrUnauthorized
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	items, err := e.store.Snapshot(ctx, st)
	if err != nil {
		return nil, &StorageError{Err: err}
	}
	return items, nil
}

// Recipients — broadcast-набор для рассылки. Только для админа.
func (e *Engine) Recipients(ctx context.Context, actorID string) ([]string, error) {
	if !e.IsAdmin(actorID) {
		return nil, ErrUnauthorized
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	ids, err := e.store.Recipients(ctx)
	if err != nil {
		return nil, &StorageError{Err: err}
	}
	return ids, nil
}
