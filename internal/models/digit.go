package models

// Digit — последняя десятичная цифра котировки, 0..9.
type Digit uint8

func (d Digit) Valid() bool { return d <= 9 }
