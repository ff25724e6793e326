package sales

import "github.com/shopspring/decimal"

// Totals summarises a set of sales
type Totals struct {
	Count     int
	ItemsSold int
	Revenue   decimal.Decimal
	Cost      decimal.Decimal
	Profit    decimal.Decimal
}

// Summarize adds up revenue, cost, profit and units over sales
func Summarize(sales []Sale) Totals {
	t := Totals{
		Revenue: decimal.Zero,
		Cost:    decimal.Zero,
		Profit:  decimal.Zero,
	}
	for i := range sales {
		t.Count++
		t.ItemsSold += sales[i].Quantity
		t.Revenue = t.Revenue.Add(sales[i].TotalRevenue)
		t.Cost = t.Cost.Add(sales[i].TotalCost)
		t.Profit = t.Profit.Add(sales[i].Profit)
	}
	return t
}
