package executor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"signal_bot/internal/models"
	"signal_bot/internal/sizing"
	"signal_bot/pkg/logger"
	"signal_bot/pkg/tracing"
)

// ErrPriceWaitTimeout — цена не вошла в диапазон за потолок ожидания.
// Ордера не было; это не авария, но исход должен отличаться от FAILED.
var ErrPriceWaitTimeout = errors.New("price wait timed out")

// process — один сигнал от начала до терминального исхода.
// Symbol lock уже взят вызывающим и снимается им же.
func (d *Dispatcher) process(ctx context.Context, sig models.Signal) {
	span, ctx := tracing.StartSpan(ctx, "execute_signal")
	span.SetTag("symbol", sig.Symbol)
	span.SetTag("position", string(sig.Position))

	out := d.execute(ctx, sig)

	span.SetTag("outcome", string(out.State))
	span.Finish()

	if d.journal != nil {
		if err := d.journal.OutcomeRecorded(ctx, out); err != nil {
			logger.Error("[%s] journal outcome: %v", sig.Symbol, err)
		}
	}
}

func (d *Dispatcher) execute(ctx context.Context, sig models.Signal) models.Outcome {
	d.transition(sig, models.StateWaiting)
	price, err := d.waitForEntry(ctx, sig)
	if err != nil {
		if errors.Is(err, ErrPriceWaitTimeout) {
			d.n.Sendf("⏳ [%s] Цена не вошла в %v-%v за %s, сигнал снят",
				sig.Symbol, sig.EntryMin, sig.EntryMax, d.params.WaitCeiling)
			return d.terminal(sig, models.StateTimedOut, 0, 0, err)
		}
		return d.terminal(sig, models.StateFailed, 0, 0, err)
	}

	d.transition(sig, models.StateSizing)
	if err := d.gw.SetLeverage(ctx, sig.Symbol, sig.Leverage); err != nil {
		d.n.Sendf("❗️ [%s] Не удалось выставить плечо x%d: %v", sig.Symbol, sig.Leverage, err)
		return d.terminal(sig, models.StateFailed, 0, price, err)
	}

	filter, err := d.gw.SymbolFilter(ctx, sig.Symbol)
	if err != nil {
		d.n.Sendf("❗️ [%s] Параметры инструмента недоступны: %v", sig.Symbol, err)
		return d.terminal(sig, models.StateFailed, 0, price, err)
	}

	notional := d.params.Investment * float64(sig.Leverage)
	qty, err := sizing.Normalize(notional, price, filter)
	if err != nil {
		d.n.Sendf("❗️ [%s] Ошибка расчёта количества: %v", sig.Symbol, err)
		return d.terminal(sig, models.StateFailed, 0, price, err)
	}

	d.transition(sig, models.StateEntering)
	order, err := d.gw.PlaceMarket(ctx, sig.Symbol, sig.EntrySide(), qty)
	if err != nil {
		// входа нет — защищать нечего
		d.n.Sendf("❗️ [%s] Вход не размещён: %v", sig.Symbol, err)
		return d.terminal(sig, models.StateFailed, qty, price, err)
	}
	logger.Info("[%s] entry filled: orderId=%d qty=%v @ ~%v", sig.Symbol, order.OrderID, qty, price)

	d.transition(sig, models.StateProtecting)
	// инверсия стороны считается один раз и используется для обоих ордеров
	closing := sig.ClosingSide()
	res := d.gw.PlaceProtective(ctx, sig.Symbol, closing, qty, sig.StopLoss, sig.FirstTarget())

	// позиция уже существует: частичный провал защиты не откатывает вход,
	// но оператор должен это видеть
	var protectiveErr error
	if res.StopErr != nil {
		protectiveErr = res.StopErr
		d.n.Sendf("⚠️ [%s] Позиция открыта, но стоп-лосс НЕ выставлен: %v", sig.Symbol, res.StopErr)
	}
	if res.TakeProfitErr != nil {
		protectiveErr = res.TakeProfitErr
		d.n.Sendf("⚠️ [%s] Позиция открыта, но тейк-профит НЕ выставлен: %v", sig.Symbol, res.TakeProfitErr)
	}

	d.n.Sendf("✅ [%s] OPEN %s qty=%v @ ~%v | SL=%v TP=%v x%d (orderId=%d)",
		sig.Symbol, sig.EntrySide(), qty, price, sig.StopLoss, sig.FirstTarget(), sig.Leverage, order.OrderID)

	out := d.terminal(sig, models.StateDone, qty, price, protectiveErr)
	return out
}

// waitForEntry опрашивает кэш цен до попадания в диапазон (границы
// включительно). Единственная точка отмены конвейера — потолок
// ожидания, дальше сигнал идёт до конца.
func (d *Dispatcher) waitForEntry(ctx context.Context, sig models.Signal) (float64, error) {
	deadline := time.NewTimer(d.params.WaitCeiling)
	defer deadline.Stop()
	ticker := time.NewTicker(d.params.PollInterval)
	defer ticker.Stop()

	for {
		if q, ok := d.prices.Get(sig.Symbol); ok && sig.InRange(q.Price) {
			logger.Info("[%s] price %v in range %v-%v", sig.Symbol, q.Price, sig.EntryMin, sig.EntryMax)
			return q.Price, nil
		}

		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-deadline.C:
			return 0, fmt.Errorf("%s waited %s: %w", sig.Symbol, d.params.WaitCeiling, ErrPriceWaitTimeout)
		case <-ticker.C:
		}
	}
}

func (d *Dispatcher) transition(sig models.Signal, state models.State) {
	logger.Info("[STATE] %s %s -> %s", sig.Symbol, sig.ID, state)
}

func (d *Dispatcher) terminal(sig models.Signal, state models.State, qty, price float64, err error) models.Outcome {
	d.transition(sig, state)

	out := models.Outcome{
		Signal:     sig,
		State:      state,
		Quantity:   qty,
		EntryPrice: price,
		FinishedAt: time.Now(),
	}
	if err != nil {
		out.Err = err.Error()
		if state == models.StateFailed {
			logger.Error("[%s] pipeline failed: %v", sig.Symbol, err)
		}
	}
	return out
}
