// Package file — YAML-хранилище записей доступа: по одному документу
// на коллекцию (pending/approved/banned) плюс broadcast-набор.
// Каждая мутация синхронно сохраняется через write-temp-then-rename.
package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/Spok95/train-status-bot/internal/domain/access"
)

const (
	pendingFile    = "pending.yaml"
	approvedFile   = "approved.yaml"
	bannedFile     = "banned.yaml"
	recipientsFile = "recipients.yaml"
)

type profileDoc struct {
	Name   string  `yaml:"name"`
	Handle *string `yaml:"handle"`
}

type record struct {
	profile access.Profile
	state   access.State
	seq     int64 // порядок добавления, для Snapshot
}

type Store struct {
	mu   sync.Mutex
	dir  string
	byID map[string]*record
	rcpt []string
	seq  int64
}

// New загружает коллекции из dir; нечитаемый файл — фатально для старта.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("store dir: %w", err)
	}
	s := &Store{dir: dir, byID: make(map[string]*record)}

	// Порядок важен: banned > approved > pending. Если после сбоя между
	// двумя rename один id оказался в двух файлах, побеждает более
	// «сильное» состояние и дизъюнктность восстанавливается.
	for _, c := range []struct {
		file  string
		state access.State
	}{
		{pendingFile, access.StatePending},
		{approvedFile, access.StateApproved},
		{bannedFile, access.StateBanned},
	} {
		docs, err := loadCollection(filepath.Join(dir, c.file))
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", c.file, err)
		}
		// map в Go итерируется в случайном порядке; для стабильного seq
		// после рестарта сортируем ключи
		ids := make([]string, 0, len(docs))
		for id := range docs {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			d := docs[id]
			p := access.Profile{Name: d.Name}
			if d.Handle != nil {
				p.Handle = *d.Handle
			}
			s.seq++
			s.byID[id] = &record{profile: p, state: c.state, seq: s.seq}
		}
	}

	rcpt, err := loadRecipients(filepath.Join(dir, recipientsFile))
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", recipientsFile, err)
	}
	s.rcpt = rcpt

	return s, nil
}

func loadCollection(path string) (map[string]profileDoc, error) {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	docs := map[string]profileDoc{}
	if err := yaml.Unmarshal(raw, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func loadRecipients(path string) ([]string, error) {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var ids []string
	if err := yaml.Unmarshal(raw, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

func (s *Store) Get(_ context.Context, id string) (*access.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.byID[id]
	if !ok {
		return nil, access.ErrNotFound
	}
	return &access.Identity{ID: id, Profile: r.profile, State: r.state}, nil
}

func (s *Store) UpsertPending(_ context.Context, id string, p access.Profile) (access.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r, ok := s.byID[id]; ok {
		return r.state, nil
	}
	s.seq++
	s.byID[id] = &record{profile: p, state: access.StatePending, seq: s.seq}
	if err := s.persist(access.StatePending); err != nil {
		delete(s.byID, id)
		s.seq--
		return "", err
	}
	return access.StatePending, nil
}

func (s *Store) Move(_ context.Context, id string, from, to access.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.byID[id]
	if !ok {
		return access.ErrNotFound
	}
	if r.state != from {
		return access.ErrStateMismatch
	}

	r.state = to
	// сначала коллекция-источник (удаление), потом приёмник: сбой между
	// rename оставит запись максимум в одном файле
	if err := s.persist(from, to); err != nil {
		r.state = from
		return err
	}
	return nil
}

func (s *Store) Upsert(_ context.Context, id string, p access.Profile, st access.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, existed := s.byID[id]
	var prevCopy record
	if existed {
		prevCopy = *prev
	}

	s.seq++
	s.byID[id] = &record{profile: p, state: st, seq: s.seq}

	states := []access.State{st}
	if existed && prevCopy.state != st {
		states = []access.State{prevCopy.state, st}
	}
	if err := s.persist(states...); err != nil {
		if existed {
			restored := prevCopy
			s.byID[id] = &restored
		} else {
			delete(s.byID, id)
		}
		s.seq--
		return err
	}
	return nil
}

func (s *Store) RemoveAll(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, existed := s.byID[id]
	if !existed {
		return nil
	}
	prevCopy := *prev
	delete(s.byID, id)
	if err := s.persist(prevCopy.state); err != nil {
		restored := prevCopy
		s.byID[id] = &restored
		return err
	}
	return nil
}

func (s *Store) Snapshot(_ context.Context, st access.State) ([]access.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	type entry struct {
		id string
		r  *record
	}
	entries := []entry{}
	for id, r := range s.byID {
		if r.state == st {
			entries = append(entries, entry{id, r})
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].r.seq < entries[j].r.seq })

	out := make([]access.Identity, 0, len(entries))
	for _, e := range entries {
		out = append(out, access.Identity{ID: e.id, Profile: e.r.profile, State: e.r.state})
	}
	return out, nil
}

func (s *Store) AddRecipient(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.rcpt {
		if existing == id {
			return nil
		}
	}
	s.rcpt = append(s.rcpt, id)
	if err := s.persistRecipients(); err != nil {
		s.rcpt = s.rcpt[:len(s.rcpt)-1]
		return err
	}
	return nil
}

func (s *Store) Recipients(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, len(s.rcpt))
	copy(out, s.rcpt)
	return out, nil
}

// persist пишет файлы указанных коллекций в перечисленном порядке.
func (s *Store) persist(states ...access.State) error {
	for _, st := range states {
		docs := map[string]profileDoc{}
		for id, r := range s.byID {
			if r.state != st {
				continue
			}
			d := profileDoc{Name: r.profile.Name}
			if r.profile.Handle != "" {
				h := r.profile.Handle
				d.Handle = &h
			}
			docs[id] = d
		}
		if err := s.writeFile(fileFor(st), docs); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) persistRecipients() error {
	return s.writeFile(recipientsFile, s.rcpt)
}

func (s *Store) writeFile(name string, doc any) error {
	raw, err := yaml.Marshal(doc)
	if err != nil {
		return err
	}

	path := filepath.Join(s.dir, name)
	tmp, err := os.CreateTemp(s.dir, name+".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return nil
}

func fileFor(st access.State) string {
	switch st {
	case access.StatePending:
		return pendingFile
	case access.StateApproved:
		return approvedFile
	default:
		return bannedFile
	}
}
