package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/vietanh2810/squares-api/internal/domain"
	"github.com/vietanh2810/squares-api/internal/repository"
)

var errStoreDown = errors.New("store down")

type memStore struct {
	mu      sync.Mutex
	doc     []byte
	saves   int
	loadErr error
	saveErr error

	onChange func([]byte)
}

func (m *memStore) Load(context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return m.doc, nil
}

func (m *memStore) Save(_ context.Context, doc []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.saveErr != nil {
		return m.saveErr
	}
	m.doc = append([]byte(nil), doc...)
	m.saves++
	return nil
}

func (m *memStore) Subscribe(_ context.Context, onChange func([]byte)) (func(), error) {
	m.onChange = onChange
	return func() { m.onChange = nil }, nil
}

func (m *memStore) saved() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.doc
}

type memUsers struct {
	byEmail map[string]domain.User
	nextID  uint
}

func newMemUsers() *memUsers {
	return &memUsers{byEmail: map[string]domain.User{}}
}

func (m *memUsers) Create(_ context.Context, user domain.User) (domain.User, error) {
	if _, ok := m.byEmail[user.Email]; ok {
		return domain.User{}, repository.ErrUserEmailExists
	}
	m.nextID++
	user.ID = m.nextID
	m.byEmail[user.Email] = user
	return user, nil
}

func (m *memUsers) FindByEmail(_ context.Context, email string) (domain.User, error) {
	user, ok := m.byEmail[domain.NormalizeEmail(email)]
	if !ok {
		return domain.User{}, repository.ErrUserNotFound
	}
	return user, nil
}

func (m *memUsers) FindByID(_ context.Context, id uint) (domain.User, error) {
	for _, user := range m.byEmail {
		if user.ID == id {
			return user, nil
		}
	}
	return domain.User{}, repository.ErrUserNotFound
}

func (m *memUsers) RecordLogin(_ context.Context, id uint, at time.Time) error {
	for email, user := range m.byEmail {
		if user.ID == id {
			user.LastLoginAt = &at
			m.byEmail[email] = user
			return nil
		}
	}
	return repository.ErrUserNotFound
}
