package service

import (
	"math/rand"
	"testing"

	"digitbot/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func digits(ds ...int) []models.Digit {
	out := make([]models.Digit, len(ds))
	for i, d := range ds {
		out[i] = models.Digit(d)
	}
	return out
}

// repeat строит историю длины n из цифр, циклически перебирая allowed.
func repeat(n int, allowed ...int) []models.Digit {
	out := make([]models.Digit, n)
	for i := range out {
		out[i] = models.Digit(allowed[i%len(allowed)])
	}
	return out
}

func requireBuy(t *testing.T, sig *models.Signal, prediction models.Digit) models.Contract {
	t.Helper()
	require.NotNil(t, sig)
	c, ok := sig.Buy()
	require.True(t, ok, "expected buy signal, got %s", sig.Action)
	assert.Equal(t, models.ContractDigitDiffers, c.Type)
	assert.Equal(t, prediction, c.Prediction)
	return c
}

func TestTwinDigit(t *testing.T) {
	s := NewTwinDigit(DefaultParams())

	tests := []struct {
		name    string
		history []models.Digit
		want    *models.Digit
	}{
		{"too short", digits(7), nil},
		{"pair only", digits(7, 7), ptr(7)},
		{"tail twins", digits(1, 2, 3, 3), ptr(3)},
		{"not equal", digits(3, 3, 4), nil},
		{"zeros", digits(5, 0, 0), ptr(0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig := s.Analyze(tt.history)
			if tt.want == nil {
				assert.Nil(t, sig)
				return
			}
			requireBuy(t, sig, *tt.want)
			assert.Equal(t, models.StrategyTwinDigit, sig.Strategy)
		})
	}
}

func TestTwinDigit_TriggersIffLastTwoEqual(t *testing.T) {
	s := NewTwinDigit(DefaultParams())
	for a := 0; a < 10; a++ {
		for b := 0; b < 10; b++ {
			sig := s.Analyze(digits(9, a, b))
			assert.Equal(t, a == b, sig != nil, "a=%d b=%d", a, b)
		}
	}
}

func TestAABBCPattern(t *testing.T) {
	s := NewAABBCPattern(DefaultParams())

	sig := s.Analyze(digits(2, 2, 5, 5, 9))
	requireBuy(t, sig, 9)
	assert.Contains(t, sig.Reason, "AABBC")

	// C может совпасть с A
	requireBuy(t, s.Analyze(digits(8, 3, 3, 6, 6, 3)), 3)

	assert.Nil(t, s.Analyze(digits(1, 1, 1, 1, 9)), "A == B")
	assert.Nil(t, s.Analyze(digits(2, 2, 2, 5, 9)), "positions 2,3 differ")
	assert.Nil(t, s.Analyze(digits(2, 2, 5, 5, 5)), "B == C")
	assert.Nil(t, s.Analyze(digits(2, 3, 5, 5, 9)), "positions 0,1 differ")
	assert.Nil(t, s.Analyze(digits(2, 5, 5, 9)), "too short")
}

func TestHedgeOver5Under4(t *testing.T) {
	s := NewHedgeOver5Under4(DefaultParams())

	clean := digits(0, 1, 2, 3, 6, 7, 8, 9, 0, 1)
	sig := s.Analyze(clean)
	require.NotNil(t, sig)
	assert.Equal(t, models.ActionHedge, sig.Action)
	require.Len(t, sig.Contracts, 2)
	assert.Equal(t, models.ContractDigitOver, sig.Contracts[0].Type)
	assert.Equal(t, models.Digit(5), sig.Contracts[0].Prediction)
	assert.Equal(t, models.ContractDigitUnder, sig.Contracts[1].Type)
	assert.Equal(t, models.Digit(4), sig.Contracts[1].Prediction)
	_, isBuy := sig.Buy()
	assert.False(t, isBuy)

	// один сигнал на каждую подходящую оценку, состояния нет
	assert.NotNil(t, s.Analyze(clean))

	withFour := digits(0, 1, 2, 3, 4, 7, 8, 9, 0, 1)
	assert.Nil(t, s.Analyze(withFour))

	// 5 за пределами окна не мешает
	assert.NotNil(t, s.Analyze(append(digits(5), clean...)))
	assert.Nil(t, s.Analyze(clean[:9]))
}

func TestZeroFrequency_TriggersOnceUntilPredictionReappears(t *testing.T) {
	s := NewZeroFrequency(DefaultParams())

	history := repeat(50, 0, 1, 2, 4, 5, 6, 7, 8, 9)
	sig := s.Analyze(history)
	requireBuy(t, sig, 3)
	assert.Equal(t, "Digit 3 has 0% frequency in last 50 ticks", sig.Reason)

	// окно не изменилось — повторного сигнала нет
	assert.Nil(t, s.Analyze(history))

	// новый тик, но не тройка — всё ещё взведена
	history = append(history, 7)
	assert.Nil(t, s.Analyze(history))
	pred, armed := s.Armed()
	assert.True(t, armed)
	assert.Equal(t, models.Digit(3), pred)

	// выпала 3 — сброс, на этой оценке сигнала нет
	history = append(history, 3)
	assert.Nil(t, s.Analyze(history))
	_, armed = s.Armed()
	assert.False(t, armed)

	// после сброса снова срабатывает на новом пропуске
	next := repeat(50, 0, 1, 2, 3, 4, 5, 6, 7, 9)
	requireBuy(t, s.Analyze(next), 8)
}

func TestZeroFrequency_PicksLowestMissingDigit(t *testing.T) {
	s := NewZeroFrequency(DefaultParams())
	requireBuy(t, s.Analyze(repeat(60, 1, 3, 5, 7, 9)), 0)
}

func TestZeroFrequency_NoSignalWhenAllPresentOrShort(t *testing.T) {
	s := NewZeroFrequency(DefaultParams())
	assert.Nil(t, s.Analyze(repeat(49, 1)))
	assert.Nil(t, s.Analyze(repeat(50, 0, 1, 2, 3, 4, 5, 6, 7, 8, 9)))
	_, armed := s.Armed()
	assert.False(t, armed)
}

func TestRandomDiffers_AlwaysTriggersInRange(t *testing.T) {
	p := Params{Stake: 2.5, Duration: 3, Symbol: "R_25"}
	s := NewRandomDiffersWithSource(p, rand.NewSource(42))

	seen := map[models.Digit]bool{}
	for i := 0; i < 500; i++ {
		sig := s.Analyze(nil)
		require.NotNil(t, sig)
		c, ok := sig.Buy()
		require.True(t, ok)
		require.True(t, c.Prediction.Valid())
		assert.Equal(t, 2.5, c.Amount)
		assert.Equal(t, 3, c.Duration)
		assert.Equal(t, "R_25", c.Symbol)
		seen[c.Prediction] = true
	}
	assert.Len(t, seen, 10)
}

func TestFactory(t *testing.T) {
	f := NewFactoryWithParams(DefaultParams())

	for _, name := range []string{"Twin Digit", "twin_digit", "  TWIN DIGIT "} {
		s, err := f.New(name)
		require.NoError(t, err, name)
		assert.Equal(t, models.StrategyTwinDigit, s.Name())
	}

	_, err := f.New("Martingale")
	require.ErrorIs(t, err, ErrUnknownStrategy)

	// свежее состояние на каждый вызов
	a, err := f.New(string(models.StrategyZeroFrequency))
	require.NoError(t, err)
	require.NotNil(t, a.Analyze(repeat(50, 1)))
	b, err := f.New(string(models.StrategyZeroFrequency))
	require.NoError(t, err)
	_, armed := b.(*ZeroFrequency).Armed()
	assert.False(t, armed)

	cat := f.Catalog()
	require.Len(t, cat, 5)
	for _, d := range cat {
		got, ok := f.Resolve(d.Slug)
		assert.True(t, ok)
		assert.Equal(t, d.Name, got)
		assert.Equal(t, "R_10", d.Market)
	}
}

func ptr(d models.Digit) *models.Digit { return &d }
