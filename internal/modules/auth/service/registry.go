package service

import (
	"context"
	"errors"
	"sync"
)

var ErrEmptyToken = errors.New("empty token")

// Registry — выданные токены. Клиент (ip) держит один токен,
// новый токен того же клиента вытесняет старый.
type Registry interface {
	Issue(ctx context.Context, client, token string) error
	IsAuthorized(ctx context.Context, token string) (bool, error)
}

type MemoryRegistry struct {
	mu      sync.RWMutex
	clients map[string]string // client -> token
	tokens  map[string]string // token -> client
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		clients: make(map[string]string),
		tokens:  make(map[string]string),
	}
}

func (r *MemoryRegistry) Issue(_ context.Context, client, token string) error {
	if token == "" {
		return ErrEmptyToken
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.clients[client]; ok && old != token && r.tokens[old] == client {
		delete(r.tokens, old)
	}
	// токен мог принадлежать другому клиенту — теперь он у этого
	if prev, ok := r.tokens[token]; ok && prev != client {
		delete(r.clients, prev)
	}
	r.clients[client] = token
	r.tokens[token] = client
	return nil
}

func (r *MemoryRegistry) IsAuthorized(_ context.Context, token string) (bool, error) {
	if token == "" {
		return false, nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.tokens[token]
	return ok, nil
}
