package models

import (
	"encoding/json"
	"time"
)

type StrategyName string

const (
	StrategyZeroFrequency StrategyName = "Digit Statistic 0%"
	StrategyTwinDigit     StrategyName = "Twin Digit"
	StrategyAABBC         StrategyName = "AABBC Pattern"
	StrategyHedgeOver5    StrategyName = "Hedging Over 5 & Under 4"
	StrategyRandomDiffers StrategyName = "Random Differs"
)

// Action отличает одиночную покупку от хеджа из нескольких контрактов.
type Action string

const (
	ActionBuy   Action = "buy"
	ActionHedge Action = "hedging"
)

type ContractType string

const (
	ContractDigitDiffers ContractType = "digit_differs"
	ContractDigitOver    ContractType = "digit_over"
	ContractDigitUnder   ContractType = "digit_under"
)

type Contract struct {
	Type       ContractType `json:"type"`
	Prediction Digit        `json:"prediction"`
	Amount     float64      `json:"amount"`
	Duration   int          `json:"duration"` // в тиках
	Symbol     string       `json:"symbol"`
}

// Signal — результат стратегии. Buy содержит ровно один контракт, Hedge — упорядоченный список.
type Signal struct {
	ID        string
	Action    Action
	Contracts []Contract
	Reason    string
	Strategy  StrategyName
	CreatedAt time.Time
}

func NewBuy(c Contract, strategy StrategyName, reason string) *Signal {
	return &Signal{
		Action:    ActionBuy,
		Contracts: []Contract{c},
		Reason:    reason,
		Strategy:  strategy,
	}
}

func NewHedge(cs []Contract, strategy StrategyName, reason string) *Signal {
	return &Signal{
		Action:    ActionHedge,
		Contracts: cs,
		Reason:    reason,
		Strategy:  strategy,
	}
}

// Buy возвращает контракт одиночной покупки.
func (s Signal) Buy() (Contract, bool) {
	if s.Action != ActionBuy || len(s.Contracts) != 1 {
		return Contract{}, false
	}
	return s.Contracts[0], true
}

// MarshalJSON отдаёт сигнал в форме, которую ждёт исполнитель:
// плоский buy или hedging со списком contracts.
func (s Signal) MarshalJSON() ([]byte, error) {
	if c, ok := s.Buy(); ok {
		return json.Marshal(struct {
			ID           string       `json:"id,omitempty"`
			Action       Action       `json:"action"`
			ContractType ContractType `json:"contract_type"`
			Prediction   Digit        `json:"prediction"`
			Amount       float64      `json:"amount"`
			Duration     int          `json:"duration"`
			Symbol       string       `json:"symbol"`
			Reason       string       `json:"reason"`
			Strategy     StrategyName `json:"strategy"`
			CreatedAt    time.Time    `json:"created_at"`
		}{s.ID, s.Action, c.Type, c.Prediction, c.Amount, c.Duration, c.Symbol, s.Reason, s.Strategy, s.CreatedAt})
	}
	return json.Marshal(struct {
		ID        string       `json:"id,omitempty"`
		Action    Action       `json:"action"`
		Contracts []Contract   `json:"contracts"`
		Reason    string       `json:"reason"`
		Strategy  StrategyName `json:"strategy"`
		CreatedAt time.Time    `json:"created_at"`
	}{s.ID, s.Action, s.Contracts, s.Reason, s.Strategy, s.CreatedAt})
}
