package analytics

import (
	"time"

	"spendwise/internal/core"
)

var now = time.Date(2025, 3, 18, 12, 0, 0, 0, time.UTC)

func mustDate(s string) core.Date {
	d, err := core.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func expense(category string, cents int64, date string) core.Transaction {
	return core.Transaction{
		Title:         category,
		Amount:        core.Cents(cents),
		Type:          core.Expense,
		Category:      category,
		PaymentMethod: core.Cash,
		Date:          mustDate(date),
	}
}

func income(cents int64, date string) core.Transaction {
	return core.Transaction{
		Title:    "Salary",
		Amount:   core.Cents(cents),
		Type:     core.Income,
		Category: "Maaş",
		Date:     mustDate(date),
	}
}

func onCard(tx core.Transaction, card string) core.Transaction {
	tx.PaymentMethod = core.CreditCard
	tx.CardName = card
	return tx
}
