package service

import (
	"fmt"

	"digitbot/internal/models"
)

// AABBCPattern — хвост вида A,A,B,B,C при A!=B и B!=C -> DIFFERS на C.
// C может совпадать с A.
type AABBCPattern struct {
	p Params
}

func NewAABBCPattern(p Params) *AABBCPattern { return &AABBCPattern{p: p} }

func (a *AABBCPattern) Name() models.StrategyName { return models.StrategyAABBC }

func (a *AABBCPattern) Analyze(history []models.Digit) *models.Signal {
	s, ok := window(history, 5)
	if !ok {
		return nil
	}
	if s[0] != s[1] || s[2] != s[3] || s[0] == s[2] || s[3] == s[4] {
		return nil
	}
	return models.NewBuy(
		a.p.contract(models.ContractDigitDiffers, s[4]),
		a.Name(),
		fmt.Sprintf("AABBC pattern: %v", s),
	)
}
