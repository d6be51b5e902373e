package service

import (
	"errors"
	"fmt"
	"strings"

	"digitbot/internal/models"
	"digitbot/internal/modules/config"
)

var ErrUnknownStrategy = errors.New("unknown strategy")

// Descriptor — карточка стратегии для дашборда.
type Descriptor struct {
	Name     models.StrategyName `json:"name"`
	Slug     string              `json:"slug"`
	Strategy string              `json:"strategy"`
	Market   string              `json:"market"`
	Icon     string              `json:"icon"`
}

type entry struct {
	name  models.StrategyName
	slug  string
	about string
	icon  string
	build func(Params) Strategy
}

// Набор стратегий закрыт: новые добавляются только сюда.
var registry = []entry{
	{models.StrategyZeroFrequency, "zero_frequency", "Detects a digit missing from the last 50 ticks", "📈",
		func(p Params) Strategy { return NewZeroFrequency(p) }},
	{models.StrategyTwinDigit, "twin_digit", "Buy DIFFERS after two equal digits in a row", "🔁",
		func(p Params) Strategy { return NewTwinDigit(p) }},
	{models.StrategyAABBC, "aabbc", "AABBC pattern, buy DIFFERS on the last digit", "🔢",
		func(p Params) Strategy { return NewAABBCPattern(p) }},
	{models.StrategyHedgeOver5, "hedge_over5_under4", "Hedge when neither 4 nor 5 appeared in the last 10 ticks", "⚖️",
		func(p Params) Strategy { return NewHedgeOver5Under4(p) }},
	{models.StrategyRandomDiffers, "random_differs", "Random prediction (testing)", "🎲",
		func(p Params) Strategy { return NewRandomDiffers(p) }},
}

// Factory выдаёт свежие экземпляры стратегий с общими параметрами.
type Factory struct {
	params Params
}

func NewFactory(cfg *config.Config) *Factory {
	return &Factory{params: Params{
		Stake:    cfg.Bots.Stake,
		Duration: cfg.Bots.Duration,
		Symbol:   cfg.Bots.Symbol,
	}}
}

func NewFactoryWithParams(p Params) *Factory { return &Factory{params: p} }

// New ищет стратегию по отображаемому имени или slug (без учёта регистра).
// Каждый вызов — новый экземпляр с чистым состоянием.
func (f *Factory) New(name string) (Strategy, error) {
	e, ok := lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
	return e.build(f.params), nil
}

// Resolve нормализует имя к каноническому.
func (f *Factory) Resolve(name string) (models.StrategyName, bool) {
	e, ok := lookup(name)
	return e.name, ok
}

func (f *Factory) Catalog() []Descriptor {
	out := make([]Descriptor, 0, len(registry))
	for _, e := range registry {
		out = append(out, Descriptor{
			Name:     e.name,
			Slug:     e.slug,
			Strategy: e.about,
			Market:   f.params.Symbol,
			Icon:     e.icon,
		})
	}
	return out
}

func lookup(name string) (entry, bool) {
	n := strings.TrimSpace(name)
	for _, e := range registry {
		if strings.EqualFold(n, string(e.name)) || strings.EqualFold(n, e.slug) {
			return e, true
		}
	}
	return entry{}, false
}
