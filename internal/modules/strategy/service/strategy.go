package service

import "digitbot/internal/models"

// Strategy анализирует историю цифр и отдаёт не больше одного сигнала.
// history — копия, стратегия её не меняет. Экземпляр принадлежит одному боту,
// вызывается только из его цикла, поэтому своё состояние держит без локов.
type Strategy interface {
	Name() models.StrategyName
	// nil — сигнала нет (в том числе когда истории меньше окна)
	Analyze(history []models.Digit) *models.Signal
}

// Params — общие параметры контрактов, которые открывают стратегии.
type Params struct {
	Stake    float64
	Duration int // тиков
	Symbol   string
}

func DefaultParams() Params {
	return Params{Stake: 1.0, Duration: 5, Symbol: "R_10"}
}

func (p Params) contract(t models.ContractType, prediction models.Digit) models.Contract {
	return models.Contract{
		Type:       t,
		Prediction: prediction,
		Amount:     p.Stake,
		Duration:   p.Duration,
		Symbol:     p.Symbol,
	}
}

func window(history []models.Digit, n int) ([]models.Digit, bool) {
	if len(history) < n {
		return nil, false
	}
	return history[len(history)-n:], true
}
