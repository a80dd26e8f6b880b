// Package sizing приводит желаемый объём позиции к решётке количеств,
// которую принимает биржа (LOT_SIZE: stepSize + minQty).
package sizing

import (
	"fmt"
	"math"

	"signal_bot/internal/models"
)

// BelowMinimumError — количество после квантования меньше биржевого минимума.
// Ордер с таким количеством отправлять нельзя.
type BelowMinimumError struct {
	Symbol string
	Qty    float64
	MinQty float64
}

func (e BelowMinimumError) Error() string {
	return fmt.Sprintf("quantity %v is below the minimum order size %v for %s", e.Qty, e.MinQty, e.Symbol)
}

// Precision — число знаков после запятой, заданное stepSize:
// 0 при step >= 1, иначе p такое, что 10^-p == step.
func Precision(stepSize float64) int {
	if stepSize >= 1 {
		return 0
	}
	return int(math.Round(math.Log10(1 / stepSize)))
}

// Quantize прижимает количество вниз к ближайшему узлу решётки stepSize
// (floor, никогда вверх — иначе выделим маржи больше, чем просили) и
// перекругляет до precision, чтобы убрать дрейф плавающей точки.
// Идемпотентна: повторное квантование не меняет результат.
func Quantize(qty float64, f models.SymbolFilter) float64 {
	if f.StepSize <= 0 {
		return qty
	}

	p := Precision(f.StepSize)
	if p == 0 {
		return math.Floor(qty)
	}

	steps := math.Floor(qty/f.StepSize + 1e-9)
	q := steps * f.StepSize

	pow := math.Pow(10, float64(p))
	return math.Round(q*pow) / pow
}

// Normalize превращает нотионал (инвестиция × плечо) и цену в биржевое
// количество. Чистая функция, детерминирована на своих входах.
func Normalize(notional, price float64, f models.SymbolFilter) (float64, error) {
	if price <= 0 {
		return 0, fmt.Errorf("sizing %s: price <= 0", f.Symbol)
	}
	if notional <= 0 {
		return 0, fmt.Errorf("sizing %s: notional <= 0", f.Symbol)
	}
	if f.StepSize <= 0 {
		return 0, fmt.Errorf("sizing %s: stepSize <= 0", f.Symbol)
	}

	qty := Quantize(notional/price, f)
	if qty < f.MinQty {
		return 0, BelowMinimumError{Symbol: f.Symbol, Qty: qty, MinQty: f.MinQty}
	}
	return qty, nil
}
