package access

import (
	"errors"
	"strings"
)

// State описывает lifecycle-состояние пользователя.
// NEW не хранится: любой неизвестный идентификатор считается NEW.
type State string

const (
	StateNew      State = "new"
	StatePending  State = "pending"
	StateApproved State = "approved"
	StateBanned   State = "banned"
)

// Profile — публичные поля пользователя, которые мы сохраняем при первом контакте.
type Profile struct {
	Name   string
	Handle string
}

type Identity struct {
	ID      string
	Profile Profile
	State   State
}

// Decision — результат проверки доступа / регистрации.
type Decision string

const (
	DecisionAllowed          Decision = "allowed"
	DecisionWelcome          Decision = "welcome"
	DecisionAwaitingApproval Decision = "awaiting_approval"
	DecisionBanned           Decision = "banned"
)

var (
	ErrUnauthorized   = errors.New("access: unauthorized")
	ErrNotFound       = errors.New("access: not found")
	ErrStateMismatch  = errors.New("access: state mismatch")
	ErrMalformedInput = errors.New("access: malformed identifier")
)

// StorageError оборачивает ошибку персистентности: мутация не применилась,
// in-memory вид откатан к последнему сохранённому.
type StorageError struct {
	Err error
}

func (e *StorageError) Error() string { return "access: storage failure: " + e.Err.Error() }
func (e *StorageError) Unwrap() error { return e.Err }

func validID(id string) bool {
	return strings.TrimSpace(id) != ""
}
