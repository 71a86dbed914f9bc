package models

import "github.com/shopspring/decimal"

var centsFactor = decimal.NewFromInt(100)

// AmountToMinorUnits конвертирует сумму в основных единицах в копейки/центы.
// Через decimal, чтобы не ловить ошибки округления float64.
func AmountToMinorUnits(amount float64) int64 {
	return decimal.NewFromFloat(amount).Mul(centsFactor).Round(0).IntPart()
}

// AmountFromMinorUnits конвертирует минимальные единицы в основные
func AmountFromMinorUnits(amount int64) float64 {
	f, _ := decimal.NewFromInt(amount).Div(centsFactor).Float64()
	return f
}

// FormatMinorUnits форматирует сумму в строку с двумя знаками после запятой
func FormatMinorUnits(amount int64) string {
	return decimal.NewFromInt(amount).Div(centsFactor).StringFixed(2)
}
