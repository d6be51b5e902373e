package service

import (
	"fmt"
	"math/rand"
	"time"

	"digitbot/internal/models"
)

// RandomDiffers — тестовая стратегия: DIFFERS на случайную цифру на каждой оценке.
type RandomDiffers struct {
	p    Params
	rand *rand.Rand
}

func NewRandomDiffers(p Params) *RandomDiffers {
	return NewRandomDiffersWithSource(p, rand.NewSource(time.Now().UnixNano()))
}

func NewRandomDiffersWithSource(p Params, src rand.Source) *RandomDiffers {
	return &RandomDiffers{p: p, rand: rand.New(src)}
}

func (r *RandomDiffers) Name() models.StrategyName { return models.StrategyRandomDiffers }

func (r *RandomDiffers) Analyze(_ []models.Digit) *models.Signal {
	pred := models.Digit(r.rand.Intn(10))
	return models.NewBuy(
		r.p.contract(models.ContractDigitDiffers, pred),
		r.Name(),
		fmt.Sprintf("Random prediction: %d", pred),
	)
}
