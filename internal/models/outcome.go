package models

import "time"

// State — этап конвейера исполнения сигнала.
type State string

const (
	StateQueued     State = "QUEUED"
	StateWaiting    State = "WAITING_FOR_PRICE"
	StateSizing     State = "SIZING"
	StateEntering   State = "ENTERING"
	StateProtecting State = "PROTECTING"
	StateDone       State = "DONE"
	StateFailed     State = "FAILED"
	StateTimedOut   State = "TIMED_OUT"
)

func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed || s == StateTimedOut
}

// Outcome — терминальный результат по сигналу, уходит в журнал.
type Outcome struct {
	Signal     Signal    `json:"signal"`
	State      State     `json:"state"`
	Quantity   float64   `json:"quantity,omitempty"`
	EntryPrice float64   `json:"entry_price,omitempty"`
	Err        string    `json:"error,omitempty"`
	FinishedAt time.Time `json:"finished_at"`
}
