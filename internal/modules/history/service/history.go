package service

import (
	"errors"
	"fmt"
	"sync"

	"digitbot/internal/models"
)

const (
	DefaultCapacity = 1000
	DefaultRecent   = 20
)

var ErrInvalidDigit = errors.New("digit out of range 0..9")

// History — ограниченная история последних цифр.
// Пишет один инжестор, читают все боты; читатель берёт копию и сразу отпускает лок.
type History struct {
	mu       sync.RWMutex
	digits   []models.Digit
	capacity int
	recent   int
}

func New(capacity, recent int) *History {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if recent <= 0 || recent > capacity {
		recent = min(DefaultRecent, capacity)
	}
	return &History{
		// +1 под append перед вытеснением, чтобы не перевыделять
		digits:   make([]models.Digit, 0, capacity+1),
		capacity: capacity,
		recent:   recent,
	}
}

// Append добавляет цифру в хвост и вытесняет голову сверх capacity — одним куском под локом.
func (h *History) Append(d models.Digit) error {
	if !d.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidDigit, d)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.digits) == h.capacity {
		// сдвигаем на месте, ёмкость не растёт
		copy(h.digits, h.digits[1:])
		h.digits[len(h.digits)-1] = d
		return nil
	}
	h.digits = append(h.digits, d)
	return nil
}

// Snapshot — копия всей истории на момент вызова.
func (h *History) Snapshot() []models.Digit {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]models.Digit, len(h.digits))
	copy(out, h.digits)
	return out
}

// Recent — последние N цифр, только для отображения.
func (h *History) Recent() []models.Digit {
	h.mu.RLock()
	defer h.mu.RUnlock()

	from := max(len(h.digits)-h.recent, 0)
	out := make([]models.Digit, len(h.digits)-from)
	copy(out, h.digits[from:])
	return out
}

func (h *History) Last() (models.Digit, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.digits) == 0 {
		return 0, false
	}
	return h.digits[len(h.digits)-1], true
}

func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.digits)
}

func (h *History) Capacity() int { return h.capacity }
