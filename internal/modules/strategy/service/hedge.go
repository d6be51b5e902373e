package service

import (
	"fmt"

	"digitbot/internal/models"
)

const HedgeWindow = 10

// HedgeOver5Under4 — в окне нет ни 4, ни 5 -> пара OVER 5 + UNDER 4.
type HedgeOver5Under4 struct {
	p      Params
	window int
}

func NewHedgeOver5Under4(p Params) *HedgeOver5Under4 {
	return &HedgeOver5Under4{p: p, window: HedgeWindow}
}

func (h *HedgeOver5Under4) Name() models.StrategyName { return models.StrategyHedgeOver5 }

func (h *HedgeOver5Under4) Analyze(history []models.Digit) *models.Signal {
	sample, ok := window(history, h.window)
	if !ok {
		return nil
	}
	for _, d := range sample {
		if d == 4 || d == 5 {
			return nil
		}
	}
	return models.NewHedge(
		[]models.Contract{
			h.p.contract(models.ContractDigitOver, 5),
			h.p.contract(models.ContractDigitUnder, 4),
		},
		h.Name(),
		fmt.Sprintf("No 4 or 5 in last %d ticks", h.window),
	)
}
