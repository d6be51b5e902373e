package service

import "time"

// Backoff — пауза перед переподключением. Initial == Max даёт фиксированную паузу,
// иначе удваивается до Max и сбрасывается после успешной подписки.
type Backoff struct {
	Initial time.Duration
	Max     time.Duration

	cur time.Duration
}

func (b *Backoff) Next() time.Duration {
	if b.cur == 0 {
		b.cur = b.Initial
		return b.cur
	}
	b.cur = min(b.cur*2, max(b.Max, b.Initial))
	return b.cur
}

func (b *Backoff) Reset() { b.cur = 0 }
