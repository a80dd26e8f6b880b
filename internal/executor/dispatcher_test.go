package executor

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"signal_bot/internal/models"
	binance "signal_bot/internal/modules/binance_client/service"
	"signal_bot/internal/pricecache"
	"signal_bot/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

type marketCall struct {
	Symbol string
	Side   models.Side
	Qty    float64
}

type protectiveCall struct {
	Symbol string
	Side   models.Side
	Qty    float64
	StopPx float64
	TakePx float64
}

type fakeGateway struct {
	mu          sync.Mutex
	leverage    map[string]int
	markets     []marketCall
	protectives []protectiveCall

	filter    models.SymbolFilter
	filterErr error
	marketErr error
	stopErr   error
	tpErr     error

	// задержка внутри PlaceMarket, чтобы ловить параллельные исполнения
	delay    time.Duration
	inFlight map[string]int
	overlap  atomic.Bool
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		leverage: make(map[string]int),
		inFlight: make(map[string]int),
		filter:   models.SymbolFilter{Symbol: "BTCUSDT", StepSize: 0.001, MinQty: 0.001},
	}
}

func (g *fakeGateway) SymbolFilter(_ context.Context, symbol string) (models.SymbolFilter, error) {
	if g.filterErr != nil {
		return models.SymbolFilter{}, g.filterErr
	}
	f := g.filter
	f.Symbol = symbol
	return f, nil
}

func (g *fakeGateway) SetLeverage(_ context.Context, symbol string, leverage int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.leverage[symbol] = leverage
	return nil
}

func (g *fakeGateway) PlaceMarket(_ context.Context, symbol string, side models.Side, qty float64) (models.Order, error) {
	g.mu.Lock()
	g.inFlight[symbol]++
	if g.inFlight[symbol] > 1 {
		g.overlap.Store(true)
	}
	g.mu.Unlock()

	if g.delay > 0 {
		time.Sleep(g.delay)
	}

	g.mu.Lock()
	g.inFlight[symbol]--
	g.markets = append(g.markets, marketCall{Symbol: symbol, Side: side, Qty: qty})
	g.mu.Unlock()

	if g.marketErr != nil {
		return models.Order{}, g.marketErr
	}
	return models.Order{Symbol: symbol, OrderID: int64(len(g.markets))}, nil
}

func (g *fakeGateway) PlaceProtective(_ context.Context, symbol string, closingSide models.Side, qty, stopPx, takePx float64) binance.ProtectiveOrders {
	g.mu.Lock()
	g.protectives = append(g.protectives, protectiveCall{
		Symbol: symbol, Side: closingSide, Qty: qty, StopPx: stopPx, TakePx: takePx,
	})
	g.mu.Unlock()
	return binance.ProtectiveOrders{StopErr: g.stopErr, TakeProfitErr: g.tpErr}
}

func (g *fakeGateway) marketCalls() []marketCall {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]marketCall(nil), g.markets...)
}

func (g *fakeGateway) protectiveCalls() []protectiveCall {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]protectiveCall(nil), g.protectives...)
}

type fakePrices struct {
	mu     sync.Mutex
	quotes map[string]float64
}

func newFakePrices() *fakePrices { return &fakePrices{quotes: make(map[string]float64)} }

func (p *fakePrices) set(symbol string, price float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.quotes[symbol] = price
}

func (p *fakePrices) Get(symbol string) (pricecache.Quote, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	v, ok := p.quotes[symbol]
	return pricecache.Quote{Price: v, ObservedAt: time.Now()}, ok
}

type fakeNotifier struct {
	mu   sync.Mutex
	msgs []string
}

func (n *fakeNotifier) Send(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.msgs = append(n.msgs, msg)
}

func (n *fakeNotifier) Sendf(format string, args ...any) { n.Send(format) }

type fakeJournal struct {
	mu       sync.Mutex
	accepted []models.Signal
	outcomes chan models.Outcome
}

func newFakeJournal() *fakeJournal {
	return &fakeJournal{outcomes: make(chan models.Outcome, 16)}
}

func (j *fakeJournal) SignalAccepted(_ context.Context, sig models.Signal) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.accepted = append(j.accepted, sig)
	return nil
}

func (j *fakeJournal) OutcomeRecorded(_ context.Context, out models.Outcome) error {
	j.outcomes <- out
	return nil
}

func (j *fakeJournal) wait(t *testing.T, timeout time.Duration) models.Outcome {
	t.Helper()
	select {
	case out := <-j.outcomes:
		return out
	case <-time.After(timeout):
		t.Fatal("no outcome recorded")
		return models.Outcome{}
	}
}

func testParams() Params {
	return Params{
		Investment:   30,
		Workers:      2,
		QueueSize:    8,
		PollInterval: 2 * time.Millisecond,
		WaitCeiling:  100 * time.Millisecond,
		DeferDelay:   2 * time.Millisecond,
	}
}

func testSignal(id string) models.Signal {
	return models.Signal{
		ID:         id,
		Position:   models.PositionLong,
		Symbol:     "BTCUSDT",
		EntryMin:   100,
		EntryMax:   105,
		Leverage:   10,
		Targets:    []float64{110, 120},
		StopLoss:   95,
		ReceivedAt: time.Now(),
	}
}

func TestDispatcher_LongSignalFullPipeline(t *testing.T) {
	gw := newFakeGateway()
	prices := newFakePrices()
	prices.set("BTCUSDT", 102)
	j := newFakeJournal()

	d := New(testParams(), gw, prices, &fakeNotifier{}, j)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	if err := d.Enqueue(ctx, testSignal("sig-1")); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	out := j.wait(t, time.Second)
	if out.State != models.StateDone {
		t.Fatalf("state = %s, want %s (err=%q)", out.State, models.StateDone, out.Err)
	}
	if out.EntryPrice != 102 {
		t.Errorf("entry price = %v, want 102", out.EntryPrice)
	}

	mkts := gw.marketCalls()
	if len(mkts) != 1 {
		t.Fatalf("market calls = %d, want 1", len(mkts))
	}
	if mkts[0].Side != models.SideBuy {
		t.Errorf("entry side = %s, want BUY", mkts[0].Side)
	}
	// 30 * 10 / 102 = 2.9411..., шаг 0.001 -> пол до 2.941
	if mkts[0].Qty != 2.941 {
		t.Errorf("qty = %v, want 2.941", mkts[0].Qty)
	}

	prots := gw.protectiveCalls()
	if len(prots) != 1 {
		t.Fatalf("protective calls = %d, want 1", len(prots))
	}
	p := prots[0]
	if p.Side != models.SideSell {
		t.Errorf("closing side = %s, want SELL", p.Side)
	}
	if p.StopPx != 95 || p.TakePx != 110 {
		t.Errorf("stop/take = %v/%v, want 95/110", p.StopPx, p.TakePx)
	}
	if p.Qty != mkts[0].Qty {
		t.Errorf("protective qty %v != entry qty %v", p.Qty, mkts[0].Qty)
	}

	gw.mu.Lock()
	lev := gw.leverage["BTCUSDT"]
	gw.mu.Unlock()
	if lev != 10 {
		t.Errorf("leverage = %d, want 10", lev)
	}

	// лок снят, символ снова свободен
	waitFor(t, time.Second, func() bool { return len(d.HeldSymbols()) == 0 })
}

func TestDispatcher_BoundaryPriceIsInclusive(t *testing.T) {
	gw := newFakeGateway()
	prices := newFakePrices()
	prices.set("BTCUSDT", 99.999) // вне диапазона
	j := newFakeJournal()

	d := New(testParams(), gw, prices, &fakeNotifier{}, j)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	if err := d.Enqueue(ctx, testSignal("sig-2")); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	// даём конвейеру поопрашивать мимо диапазона, потом двигаем цену
	// ровно на нижнюю границу
	time.Sleep(10 * time.Millisecond)
	if got := len(gw.marketCalls()); got != 0 {
		t.Fatalf("order placed at out-of-range price, calls=%d", got)
	}
	prices.set("BTCUSDT", 100.0)

	out := j.wait(t, time.Second)
	if out.State != models.StateDone {
		t.Fatalf("state = %s, want %s", out.State, models.StateDone)
	}
	if out.EntryPrice != 100.0 {
		t.Errorf("entry price = %v, want 100.0", out.EntryPrice)
	}

	// верхняя граница тоже включительна
	prices.set("BTCUSDT", 105.0)
	if err := d.Enqueue(ctx, testSignal("sig-2b")); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	out = j.wait(t, time.Second)
	if out.State != models.StateDone || out.EntryPrice != 105.0 {
		t.Fatalf("upper bound: state=%s price=%v, want DONE at 105.0", out.State, out.EntryPrice)
	}
}

func TestDispatcher_WaitCeilingTimesOut(t *testing.T) {
	gw := newFakeGateway()
	prices := newFakePrices()
	prices.set("BTCUSDT", 200) // никогда не войдёт в 100-105
	j := newFakeJournal()

	params := testParams()
	params.WaitCeiling = 20 * time.Millisecond

	d := New(params, gw, prices, &fakeNotifier{}, j)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	if err := d.Enqueue(ctx, testSignal("sig-3")); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	out := j.wait(t, time.Second)
	if out.State != models.StateTimedOut {
		t.Fatalf("state = %s, want %s", out.State, models.StateTimedOut)
	}
	if len(gw.marketCalls()) != 0 || len(gw.protectiveCalls()) != 0 {
		t.Error("orders placed for timed-out signal")
	}
	waitFor(t, time.Second, func() bool { return len(d.HeldSymbols()) == 0 })
}

func TestDispatcher_SameSymbolNeverOverlaps(t *testing.T) {
	gw := newFakeGateway()
	gw.delay = 10 * time.Millisecond
	prices := newFakePrices()
	prices.set("BTCUSDT", 102)
	j := newFakeJournal()

	d := New(testParams(), gw, prices, &fakeNotifier{}, j)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	for i := 0; i < 3; i++ {
		sig := testSignal("sig-dup")
		if err := d.Enqueue(ctx, sig); err != nil {
			t.Fatalf("Enqueue: %v", err)
		}
	}

	for i := 0; i < 3; i++ {
		out := j.wait(t, 2*time.Second)
		if out.State != models.StateDone {
			t.Fatalf("outcome %d: state = %s, want %s", i, out.State, models.StateDone)
		}
	}
	if gw.overlap.Load() {
		t.Error("two executions ran concurrently for the same symbol")
	}
	if got := len(gw.marketCalls()); got != 3 {
		t.Errorf("market calls = %d, want 3", got)
	}
}

func TestDispatcher_EntryFailureSkipsProtectives(t *testing.T) {
	gw := newFakeGateway()
	gw.marketErr = errors.New("insufficient margin")
	prices := newFakePrices()
	prices.set("BTCUSDT", 102)
	j := newFakeJournal()

	d := New(testParams(), gw, prices, &fakeNotifier{}, j)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	if err := d.Enqueue(ctx, testSignal("sig-4")); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	out := j.wait(t, time.Second)
	if out.State != models.StateFailed {
		t.Fatalf("state = %s, want %s", out.State, models.StateFailed)
	}
	if len(gw.protectiveCalls()) != 0 {
		t.Error("protective orders placed after failed entry")
	}
}

func TestDispatcher_ProtectiveFailureStillDone(t *testing.T) {
	gw := newFakeGateway()
	gw.stopErr = errors.New("stop rejected")
	prices := newFakePrices()
	prices.set("BTCUSDT", 102)
	j := newFakeJournal()
	n := &fakeNotifier{}

	d := New(testParams(), gw, prices, n, j)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	if err := d.Enqueue(ctx, testSignal("sig-5")); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	// позиция открыта, частичная защита — не откат, но ошибка в исходе
	out := j.wait(t, time.Second)
	if out.State != models.StateDone {
		t.Fatalf("state = %s, want %s", out.State, models.StateDone)
	}
	if out.Err == "" {
		t.Error("outcome error is empty, want stop rejection recorded")
	}
}

func TestDispatcher_BelowMinimumFails(t *testing.T) {
	gw := newFakeGateway()
	gw.filter = models.SymbolFilter{StepSize: 0.001, MinQty: 1000}
	prices := newFakePrices()
	prices.set("BTCUSDT", 102)
	j := newFakeJournal()

	d := New(testParams(), gw, prices, &fakeNotifier{}, j)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	if err := d.Enqueue(ctx, testSignal("sig-6")); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	out := j.wait(t, time.Second)
	if out.State != models.StateFailed {
		t.Fatalf("state = %s, want %s", out.State, models.StateFailed)
	}
	if len(gw.marketCalls()) != 0 {
		t.Error("market order placed for below-minimum quantity")
	}
}

func TestEnqueue_RejectsInvalidSignal(t *testing.T) {
	d := New(testParams(), newFakeGateway(), newFakePrices(), &fakeNotifier{}, nil)

	sig := testSignal("bad")
	sig.EntryMin, sig.EntryMax = 105, 100 // перепутанный диапазон
	if err := d.Enqueue(context.Background(), sig); err == nil {
		t.Error("Enqueue accepted signal with inverted range")
	}
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}
