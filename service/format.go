package service

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var brPrinter = message.NewPrinter(language.BrazilianPortuguese)

// FormatBRL 按 pt-BR 习惯格式化金额，例如 R$ 1.750,00
func FormatBRL(d decimal.Decimal) string {
	return brPrinter.Sprintf("%v %.2f", currency.Symbol(currency.BRL), d.Round(2).InexactFloat64())
}

// FormatPercent 百分比，两位小数
func FormatPercent(d decimal.Decimal) string {
	return brPrinter.Sprintf("%.2f%%", d.Round(2).InexactFloat64())
}
