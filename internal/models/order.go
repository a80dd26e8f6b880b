package models

type OrderType string

const (
	OrderMarket     OrderType = "MARKET"
	OrderStopMarket OrderType = "STOP_MARKET"
	OrderTakeProfit OrderType = "TAKE_PROFIT_MARKET"
)

// Order — подтверждённый биржей ордер. Ядро его никуда не сохраняет,
// живёт только в рамках исполнения сигнала.
type Order struct {
	OrderID    int64
	Symbol     string
	Side       Side
	Type       OrderType
	Quantity   float64
	StopPrice  float64 // только для STOP_MARKET / TAKE_PROFIT_MARKET
	ReduceOnly bool
	Status     string
}
