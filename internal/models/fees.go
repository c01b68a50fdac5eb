package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// FeeConfig stores the fee percentage charged on a transaction type.
type FeeConfig struct {
	Type       TransactionType `gorm:"type:varchar(16);primaryKey" json:"type"`
	Percentage decimal.Decimal `gorm:"type:numeric(6,3);not null;default:0" json:"percentage"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// CurrencyScales lists the minor unit of each supported currency.
var CurrencyScales = map[string]int32{
	"LYD": 3,
	"USD": 2,
	"EUR": 2,
}

// CurrencyScale returns the number of decimal places of currency, 2 when unknown.
func CurrencyScale(currency string) int32 {
	if s, ok := CurrencyScales[currency]; ok {
		return s
	}
	return 2
}
