package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Spok95/train-status-bot/internal/domain/access"
)

func TestRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := New(dir)
	require.NoError(t, err)

	_, err = s.UpsertPending(ctx, "1001", access.Profile{Name: "Alice"})
	require.NoError(t, err)
	_, err = s.UpsertPending(ctx, "1002", access.Profile{Name: "Bob", Handle: "bob"})
	require.NoError(t, err)
	require.NoError(t, s.Move(ctx, "1002", access.StatePending, access.StateApproved))
	require.NoError(t, s.Upsert(ctx, "666", access.Profile{}, access.StateBanned))
	require.NoError(t, s.AddRecipient(ctx, "1001"))
	require.NoError(t, s.AddRecipient(ctx, "1002"))

	// перечитываем с диска — состояние идентично
	s2, err := New(dir)
	require.NoError(t, err)

	alice, err := s2.Get(ctx, "1001")
	require.NoError(t, err)
	assert.Equal(t, access.StatePending, alice.State)
	assert.Equal(t, "Alice", alice.Profile.Name)
	assert.Equal(t, "", alice.Profile.Handle)

	bob, err := s2.Get(ctx, "1002")
	require.NoError(t, err)
	assert.Equal(t, access.StateApproved, bob.State)
	assert.Equal(t, "bob", bob.Profile.Handle)

	banned, err := s2.Get(ctx, "666")
	require.NoError(t, err)
	assert.Equal(t, access.StateBanned, banned.State)

	rcpt, err := s2.Recipients(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"1001", "1002"}, rcpt)
}

func TestGetUnknownIsNotFound(t *testing.T) {
	ctx := context.Background()
	s, err := New(t.TempDir())
	require.NoError(t, err)

	_, err = s.Get(ctx, "404")
	assert.ErrorIs(t, err, access.ErrNotFound)
}

func TestUpsertPendingIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s, err := New(t.TempDir())
	require.NoError(t, err)

	st, err := s.UpsertPending(ctx, "1001", access.Profile{Name: "Alice"})
	require.NoError(t, err)
	assert.Equal(t, access.StatePending, st)

	require.NoError(t, s.Move(ctx, "1001", access.StatePending, access.StateApproved))

	// повторный upsert не затирает текущее состояние
	st, err = s.UpsertPending(ctx, "1001", access.Profile{Name: "Other"})
	require.NoError(t, err)
	assert.Equal(t, access.StateApproved, st)

	got, err := s.Get(ctx, "1001")
	require.NoError(t, err)
	assert.Equal(t, "Alice", got.Profile.Name)
}

func TestMoveStateMismatch(t *testing.T) {
	ctx := context.Background()
	s, err := New(t.TempDir())
	require.NoError(t, err)

	_, err = s.UpsertPending(ctx, "1001", access.Profile{})
	require.NoError(t, err)

	err = s.Move(ctx, "1001", access.StateApproved, access.StateBanned)
	assert.ErrorIs(t, err, access.ErrStateMismatch)

	err = s.Move(ctx, "404", access.StatePending, access.StateApproved)
	assert.ErrorIs(t, err, access.ErrNotFound)
}

func TestRemoveAll(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := New(dir)
	require.NoError(t, err)

	_, err = s.UpsertPending(ctx, "1001", access.Profile{})
	require.NoError(t, err)
	require.NoError(t, s.RemoveAll(ctx, "1001"))
	require.NoError(t, s.RemoveAll(ctx, "1001")) // повторно — no-op

	_, err = s.Get(ctx, "1001")
	assert.ErrorIs(t, err, access.ErrNotFound)

	// и на диске записи нет
	s2, err := New(dir)
	require.NoError(t, err)
	_, err = s2.Get(ctx, "1001")
	assert.ErrorIs(t, err, access.ErrNotFound)
}

func TestSnapshotInsertionOrder(t *testing.T) {
	ctx := context.Background()
	s, err := New(t.TempDir())
	require.NoError(t, err)

	for _, id := range []string{"30", "10", "20"} {
		_, err := s.UpsertPending(ctx, id, access.Profile{})
		require.NoError(t, err)
	}

	items, err := s.Snapshot(ctx, access.StatePending)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "30", items[0].ID)
	assert.Equal(t, "10", items[1].ID)
	assert.Equal(t, "20", items[2].ID)
}

func TestCorruptFileFailsLoad(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, pendingFile), []byte("{{{not yaml"), 0o644))

	_, err := New(dir)
	assert.Error(t, err)
}

// При недоступном диске мутация не применяется и in-memory вид не расходится
// с последним сохранённым.
func TestPersistFailureRollsBack(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := New(dir)
	require.NoError(t, err)

	_, err = s.UpsertPending(ctx, "1001", access.Profile{Name: "Alice"})
	require.NoError(t, err)

	// выбиваем директорию из-под хранилища
	require.NoError(t, os.RemoveAll(dir))

	_, err = s.UpsertPending(ctx, "1002", access.Profile{Name: "Bob"})
	assert.Error(t, err)
	_, err = s.Get(ctx, "1002")
	assert.ErrorIs(t, err, access.ErrNotFound)

	err = s.Move(ctx, "1001", access.StatePending, access.StateApproved)
	assert.Error(t, err)
	got, err := s.Get(ctx, "1001")
	require.NoError(t, err)
	assert.Equal(t, access.StatePending, got.State)

	err = s.RemoveAll(ctx, "1001")
	assert.Error(t, err)
	got, err = s.Get(ctx, "1001")
	require.NoError(t, err)
	assert.Equal(t, "Alice", got.Profile.Name)
}

// Если сбой между двумя rename оставил id в двух файлах, при загрузке
// побеждает более сильное состояние.
func TestLoadResolvesDualMembership(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	doc := []byte("\"1001\":\n  name: Alice\n  handle: null\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, pendingFile), doc, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, bannedFile), doc, 0o644))

	s, err := New(dir)
	require.NoError(t, err)

	got, err := s.Get(ctx, "1001")
	require.NoError(t, err)
	assert.Equal(t, access.StateBanned, got.State)
}
