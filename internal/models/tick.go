package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Tick — одно обновление цены из фида.
type Tick struct {
	Symbol  string
	Quote   decimal.Decimal
	PipSize int // -1 если фид не прислал pip_size
	Epoch   time.Time
}

// LastDigit берёт последнюю цифру котировки.
// С pip_size котировка форматируется ровно с этим числом знаков (нули в хвосте считаются),
// без него — каноническая запись без хвостовых нулей.
func (t Tick) LastDigit() (Digit, error) {
	var s string
	if t.PipSize >= 0 {
		s = t.Quote.Abs().StringFixed(int32(t.PipSize))
	} else {
		s = t.Quote.Abs().String()
	}
	if s == "" {
		return 0, fmt.Errorf("empty quote")
	}
	c := s[len(s)-1]
	if c < '0' || c > '9' {
		return 0, fmt.Errorf("quote %q: last char is not a digit", s)
	}
	return Digit(c - '0'), nil
}
