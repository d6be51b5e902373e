package service

import (
	"fmt"

	"digitbot/internal/models"
)

// TwinDigit — две одинаковые цифры подряд -> DIFFERS на эту цифру.
type TwinDigit struct {
	p Params
}

func NewTwinDigit(p Params) *TwinDigit { return &TwinDigit{p: p} }

func (t *TwinDigit) Name() models.StrategyName { return models.StrategyTwinDigit }

func (t *TwinDigit) Analyze(history []models.Digit) *models.Signal {
	w, ok := window(history, 2)
	if !ok || w[0] != w[1] {
		return nil
	}
	return models.NewBuy(
		t.p.contract(models.ContractDigitDiffers, w[1]),
		t.Name(),
		fmt.Sprintf("Twin digit detected: %d%d", w[0], w[1]),
	)
}
