package models

import (
	"fmt"
	"time"
)

type Position string

const (
	PositionLong  Position = "LONG"
	PositionShort Position = "SHORT"
)

// Side как на бирже: "BUY"/"SELL".
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Signal — разобранный торговый сигнал. После Enqueue не мутируется.
type Signal struct {
	ID       string   `json:"id"`
	Position Position `json:"position"`
	Symbol   string   `json:"symbol"` // биржевой формат, без "/": "BTCUSDT"

	// Диапазон входа, EntryMin <= EntryMax.
	EntryMin float64 `json:"entry_min"`
	EntryMax float64 `json:"entry_max"`

	Leverage int       `json:"leverage"` // >= 1
	Targets  []float64 `json:"targets"`  // исполняется только первый
	StopLoss float64   `json:"stop_loss"` // 0 — стоп не ставим

	ReceivedAt time.Time `json:"received_at"`
	Raw        string    `json:"raw,omitempty"`
}

// EntrySide — сторона входа на бирже.
func (s Signal) EntrySide() Side {
	if s.Position == PositionShort {
		return SideSell
	}
	return SideBuy
}

// ClosingSide — сторона защитных ордеров, всегда инверсия входа.
func (s Signal) ClosingSide() Side {
	if s.EntrySide() == SideBuy {
		return SideSell
	}
	return SideBuy
}

// FirstTarget возвращает первый тейк, 0 если целей нет.
func (s Signal) FirstTarget() float64 {
	if len(s.Targets) == 0 {
		return 0
	}
	return s.Targets[0]
}

// InRange — попадает ли цена в диапазон входа (границы включительно).
func (s Signal) InRange(price float64) bool {
	return price >= s.EntryMin && price <= s.EntryMax
}

// Validate проверяет минимум, без которого сигнал исполнять нельзя.
func (s Signal) Validate() error {
	switch s.Position {
	case PositionLong, PositionShort:
	default:
		return fmt.Errorf("signal: bad position %q", s.Position)
	}
	if s.Symbol == "" {
		return fmt.Errorf("signal: empty symbol")
	}
	if s.EntryMin <= 0 || s.EntryMax <= 0 {
		return fmt.Errorf("signal %s: empty entry range", s.Symbol)
	}
	if s.EntryMin > s.EntryMax {
		return fmt.Errorf("signal %s: entry range inverted: %.8f > %.8f", s.Symbol, s.EntryMin, s.EntryMax)
	}
	if len(s.Targets) == 0 {
		return fmt.Errorf("signal %s: no targets", s.Symbol)
	}
	return nil
}
