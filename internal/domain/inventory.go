package domain

import "github.com/shopspring/decimal"

// Product is a row of the inventory ledger. StockAvailable never drops
// below zero; the ledger enforces this on every commit.
type Product struct {
	ProductID      string
	ProductName    string
	Price          decimal.Decimal
	StockAvailable int
}
