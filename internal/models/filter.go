package models

// SymbolFilter — правила LOT_SIZE по символу: решётка допустимых количеств.
// Справочные данные, меняются редко — можно кэшировать.
type SymbolFilter struct {
	Symbol   string
	StepSize float64
	MinQty   float64
}
