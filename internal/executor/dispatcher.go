package executor

import (
	"context"
	"fmt"
	"time"

	"signal_bot/internal/models"
	binance "signal_bot/internal/modules/binance_client/service"
	"signal_bot/internal/pricecache"
	"signal_bot/pkg/logger"
)

// Gateway — операции биржи, которые нужны конвейеру.
type Gateway interface {
	SymbolFilter(ctx context.Context, symbol string) (models.SymbolFilter, error)
	SetLeverage(ctx context.Context, symbol string, leverage int) error
	PlaceMarket(ctx context.Context, symbol string, side models.Side, qty float64) (models.Order, error)
	PlaceProtective(ctx context.Context, symbol string, closingSide models.Side, qty, stopPx, takePx float64) binance.ProtectiveOrders
}

// PriceSource — неблокирующее чтение последней цены.
type PriceSource interface {
	Get(symbol string) (pricecache.Quote, bool)
}

// Notifier — куда уходят события исполнения (Telegram-чат журнала).
type Notifier interface {
	Send(msg string)
	Sendf(format string, args ...any)
}

// Journal — персистентный журнал сигналов и исходов. Ошибки журнала
// логируются и не влияют на исполнение.
type Journal interface {
	SignalAccepted(ctx context.Context, sig models.Signal) error
	OutcomeRecorded(ctx context.Context, out models.Outcome) error
}

// Params — параметры исполнения. Нули заменяются дефолтами в New.
type Params struct {
	Investment   float64       // ставка на сигнал в USDT, до плеча
	Workers      int           // размер пула воркеров
	QueueSize    int           // буфер очереди сигналов
	PollInterval time.Duration // период опроса кэша цен
	WaitCeiling  time.Duration // потолок ожидания входа в диапазон
	DeferDelay   time.Duration // пауза перед возвратом отложенного сигнала
}

func (p *Params) fillDefaults() {
	if p.Investment <= 0 {
		p.Investment = 30
	}
	if p.Workers <= 0 {
		p.Workers = 4
	}
	if p.QueueSize <= 0 {
		p.QueueSize = 64
	}
	if p.PollInterval <= 0 {
		p.PollInterval = 15 * time.Second
	}
	if p.WaitCeiling <= 0 {
		p.WaitCeiling = 30 * time.Minute
	}
	if p.DeferDelay <= 0 {
		p.DeferDelay = 5 * time.Second
	}
}

// Dispatcher принимает сигналы и гонит каждый через конвейер
// ожидание → расчёт → вход → защита, гарантируя не больше одного
// исполнения на символ одновременно.
type Dispatcher struct {
	params Params

	queue chan models.Signal
	locks *symbolLocks

	gw      Gateway
	prices  PriceSource
	n       Notifier
	journal Journal
}

func New(params Params, gw Gateway, prices PriceSource, n Notifier, journal Journal) *Dispatcher {
	params.fillDefaults()
	return &Dispatcher{
		params:  params,
		queue:   make(chan models.Signal, params.QueueSize),
		locks:   newSymbolLocks(),
		gw:      gw,
		prices:  prices,
		n:       n,
		journal: journal,
	}
}

// Enqueue валидирует и ставит сигнал в очередь. Кривой сигнал — ошибка
// до очереди; переполненная очередь — отложенный повтор, молча не теряем.
func (d *Dispatcher) Enqueue(ctx context.Context, sig models.Signal) error {
	if err := sig.Validate(); err != nil {
		return err
	}

	if d.journal != nil {
		if err := d.journal.SignalAccepted(ctx, sig); err != nil {
			logger.Error("[%s] journal accept: %v", sig.Symbol, err)
		}
	}

	select {
	case d.queue <- sig:
		logger.Info("[SIGNAL] %s %s %.8f-%.8f x%d queued",
			sig.Symbol, sig.Position, sig.EntryMin, sig.EntryMax, sig.Leverage)
		d.n.Sendf("📥 [%s] Сигнал принят: %s %v-%v x%d", sig.Symbol, sig.Position, sig.EntryMin, sig.EntryMax, sig.Leverage)
		return nil
	default:
		d.requeue(sig, "queue full")
		return nil
	}
}

// requeue возвращает сигнал в очередь после паузы.
func (d *Dispatcher) requeue(sig models.Signal, reason string) {
	logger.Info("[SIGNAL] %s deferred (%s), retry in %s", sig.Symbol, reason, d.params.DeferDelay)
	time.AfterFunc(d.params.DeferDelay, func() {
		select {
		case d.queue <- sig:
		default:
			// очередь всё ещё забита — откладываем ещё раз
			d.requeue(sig, reason)
		}
	})
}

// Run блокирующе запускает пул воркеров; выходит по отмене контекста.
func (d *Dispatcher) Run(ctx context.Context) {
	for i := 0; i < d.params.Workers; i++ {
		go d.worker(ctx, i)
	}
	<-ctx.Done()
}

func (d *Dispatcher) worker(ctx context.Context, id int) {
	for {
		select {
		case <-ctx.Done():
			return
		case sig := <-d.queue:
			if !d.locks.TryAcquire(sig.Symbol) {
				// по символу уже идёт исполнение — откладываем, не теряем
				d.requeue(sig, "symbol busy")
				continue
			}
			func() {
				defer d.locks.Release(sig.Symbol)
				d.process(ctx, sig)
			}()
		}
	}
}

// QueueDepth — текущая глубина очереди (для health-отчёта).
func (d *Dispatcher) QueueDepth() int { return len(d.queue) }

// HeldSymbols — символы с сигналом в работе.
func (d *Dispatcher) HeldSymbols() []string { return d.locks.Snapshot() }

func (d *Dispatcher) Status() string {
	return fmt.Sprintf("queue=%d inflight=%v", d.QueueDepth(), d.HeldSymbols())
}
