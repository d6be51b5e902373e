package service

import (
	"fmt"

	"digitbot/internal/models"
)

const ZeroFrequencyWindow = 50

// ZeroFrequency ставит DIFFERS на цифру, которой не было в последних 50 тиках.
// После срабатывания молчит, пока предсказанная цифра не выпадет последней.
type ZeroFrequency struct {
	p      Params
	window int

	armed      bool
	prediction models.Digit
}

func NewZeroFrequency(p Params) *ZeroFrequency {
	return &ZeroFrequency{p: p, window: ZeroFrequencyWindow}
}

func (z *ZeroFrequency) Name() models.StrategyName { return models.StrategyZeroFrequency }

func (z *ZeroFrequency) Analyze(history []models.Digit) *models.Signal {
	sample, ok := window(history, z.window)
	if !ok {
		return nil
	}

	if z.armed {
		if history[len(history)-1] == z.prediction {
			z.armed = false
		}
		return nil
	}

	var freq [10]int
	for _, d := range sample {
		freq[d]++
	}
	for d := range freq {
		if freq[d] != 0 {
			continue
		}
		z.armed = true
		z.prediction = models.Digit(d)
		return models.NewBuy(
			z.p.contract(models.ContractDigitDiffers, z.prediction),
			z.Name(),
			fmt.Sprintf("Digit %d has 0%% frequency in last %d ticks", d, z.window),
		)
	}
	return nil
}

// Armed — для статуса и тестов.
func (z *ZeroFrequency) Armed() (models.Digit, bool) { return z.prediction, z.armed }
