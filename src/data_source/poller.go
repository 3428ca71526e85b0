package data_source

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"quote-observer/src/helpers"
	"quote-observer/src/interfaces"
	"quote-observer/src/logger"
	"quote-observer/src/metrics"
	"quote-observer/src/models"
	"quote-observer/src/normalize"
	"quote-observer/src/utils"

	"golang.org/x/sync/errgroup"
)

// errCycleEnded marks a fetch that returned after its cycle was released.
var errCycleEnded = errors.New("poll cycle ended before the fetch returned")

// -----------------------------------------------------------------------------
// Poller fetches every configured symbol once per tick, records the quotes and
// appends a snapshot whenever a symbol's update time moved. At most one cycle
// runs at a time; a tick that finds a cycle in flight is skipped.
// -----------------------------------------------------------------------------

type Poller struct {
	Store       interfaces.IQuoteStore
	Provider    interfaces.IQuoteProvider
	Broadcaster interfaces.IQuoteBroadcaster
	Scheduler   *utils.MarketScheduler
	Metrics     *metrics.Metrics
	Logger      *logger.Logger
	Now         func() time.Time

	Symbols      []string
	Interval     time.Duration
	CycleTimeout time.Duration
	Concurrency  int

	inFlight atomic.Bool
	wg       sync.WaitGroup

	// symbolLocks serializes the upsert, dedup check and insert of one symbol.
	symbolLocks sync.Map

	lastMu  sync.RWMutex
	last    models.MCycleResult
	hasLast bool
}

// -----------------------------------------------------------------------------

func NewPoller(cfg *models.MConfig, store interfaces.IQuoteStore, provider interfaces.IQuoteProvider, m *metrics.Metrics) *Poller {
	symbols := make([]string, 0, len(cfg.DataSource.Symbols))
	for _, s := range cfg.DataSource.Symbols {
		symbols = append(symbols, normalize.Symbol(s.Symbol))
	}

	return &Poller{
		Store:        store,
		Provider:     provider,
		Scheduler:    utils.NewMarketScheduler(cfg.DataSource.Symbols, logger.NewLogger("MarketScheduler")),
		Metrics:      m,
		Logger:       logger.NewLogger("Poller"),
		Now:          time.Now,
		Symbols:      symbols,
		Interval:     time.Duration(cfg.DataSource.PollIntervalMs) * time.Millisecond,
		CycleTimeout: time.Duration(cfg.DataSource.CycleTimeoutSeconds) * time.Second,
		Concurrency:  cfg.Network.ConcurrentRequests,
	}
}

// -----------------------------------------------------------------------------

// Run starts a cycle immediately and then on every tick until ctx is done.
// Cycles run in their own goroutine so a slow one makes later ticks skip
// instead of queueing. Run returns once the last cycle has finished.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()

	p.Logger.Info("Polling %d symbols every %v via %s", len(p.Symbols), p.Interval, p.Provider.Name())
	p.startCycle(ctx)

	for {
		select {
		case <-ctx.Done():
			p.wg.Wait()
			p.Logger.Info("Poller stopped")
			return
		case <-ticker.C:
			p.startCycle(ctx)
		}
	}
}

func (p *Poller) startCycle(ctx context.Context) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.RunCycle(ctx)
	}()
}

// -----------------------------------------------------------------------------

// InFlight reports whether a cycle currently holds the guard.
func (p *Poller) InFlight() bool {
	return p.inFlight.Load()
}

// LastCycle returns the summary of the most recent finished cycle.
func (p *Poller) LastCycle() (models.MCycleResult, bool) {
	p.lastMu.RLock()
	defer p.lastMu.RUnlock()
	return p.last, p.hasLast
}

// -----------------------------------------------------------------------------

// RunCycle performs one fan-out over all symbols whose market is open. It
// returns false without doing anything when another cycle is in flight. Each
// symbol succeeds or fails on its own; the cycle ends when every fetch has
// settled or CycleTimeout has passed, whichever comes first.
func (p *Poller) RunCycle(ctx context.Context) (models.MCycleResult, bool) {
	if !p.inFlight.CompareAndSwap(false, true) {
		p.Logger.Warning("Previous poll cycle still running, skipping tick")
		p.Metrics.RecordCycle(metrics.CycleSkipped, 0)
		return models.MCycleResult{}, false
	}
	defer p.inFlight.Store(false)

	started := p.Now()
	result := models.MCycleResult{Started: started.UnixMilli()}

	symbols := make([]string, 0, len(p.Symbols))
	for _, sym := range p.Symbols {
		if p.Scheduler != nil && !p.Scheduler.IsOpen(sym, started) {
			result.Skipped++
			continue
		}
		symbols = append(symbols, sym)
	}
	result.Requested = len(symbols)

	cycleCtx, cancel := context.WithTimeout(ctx, p.timeout())
	defer cancel()

	var (
		mu       sync.Mutex
		recorded []models.MQuote
		inserted int
		failed   int
	)

	var g errgroup.Group
	if p.Concurrency > 0 {
		g.SetLimit(p.Concurrency)
	}

	// Fetches may outlive a timed-out cycle; Run waits for them on shutdown.
	done := make(chan struct{})
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer close(done)
		for _, sym := range symbols {
			if cycleCtx.Err() != nil {
				mu.Lock()
				failed++
				mu.Unlock()
				continue
			}
			g.Go(func() error {
				q, snapshotted, err := p.pollSymbol(cycleCtx, sym)

				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					failed++
					if errors.Is(err, errCycleEnded) {
						p.Logger.Warning("Dropping late quote for %s", sym)
						return nil
					}
					p.Metrics.RecordUpstreamFailure(sym)
					if errors.Is(err, helpers.ErrNoData) {
						p.Logger.Warning("No usable data for %s", sym)
					} else {
						p.Logger.Error("Polling %s failed: %v", sym, err)
					}
					return nil
				}
				recorded = append(recorded, q)
				if snapshotted {
					inserted++
				}
				return nil
			})
		}
		g.Wait()
	}()

	select {
	case <-done:
	case <-cycleCtx.Done():
		result.TimedOut = errors.Is(cycleCtx.Err(), context.DeadlineExceeded)
		if result.TimedOut {
			p.Logger.Error("Poll cycle exceeded %v, releasing guard with fetches outstanding", p.timeout())
		}
	}

	mu.Lock()
	quotes := make([]models.MQuote, len(recorded))
	copy(quotes, recorded)
	result.Recorded = len(recorded)
	result.Snapshots = inserted
	result.Failed = failed
	mu.Unlock()

	finished := p.Now()
	result.Finished = finished.UnixMilli()

	outcome := metrics.CycleCompleted
	if result.TimedOut {
		outcome = metrics.CycleTimedOut
		result.Failed = result.Requested - result.Recorded
	}
	p.Metrics.RecordCycle(outcome, finished.Sub(started))

	if len(quotes) > 0 && p.Broadcaster != nil {
		p.Broadcaster.Broadcast(quotes)
	}

	p.lastMu.Lock()
	p.last = result
	p.hasLast = true
	p.lastMu.Unlock()

	p.Logger.Debug("Cycle: %d/%d recorded, %d snapshots, %d failed, %d closed",
		result.Recorded, result.Requested, result.Snapshots, result.Failed, result.Skipped)
	return result, true
}

// -----------------------------------------------------------------------------

// pollSymbol fetches one quote, upserts it and appends a snapshot when its
// update time differs from the newest recorded one. A quote that arrives after
// ctx is done is dropped so a released cycle never writes.
func (p *Poller) pollSymbol(ctx context.Context, symbol string) (models.MQuote, bool, error) {
	raw, err := p.Provider.FetchQuote(ctx, symbol)
	if ctx.Err() != nil {
		return models.MQuote{}, false, errCycleEnded
	}
	if err != nil {
		return models.MQuote{}, false, helpers.NewUpstreamError(symbol, err)
	}

	q, ok := normalize.Quote(raw)
	if !ok {
		return models.MQuote{}, false, helpers.NewUpstreamError(symbol, helpers.NewValidationError("quote without symbol"))
	}

	lock := p.lockFor(q.Symbol)
	lock.Lock()
	defer lock.Unlock()

	if _, err := p.Store.UpsertQuote(ctx, q); err != nil {
		return models.MQuote{}, false, err
	}
	p.Metrics.RecordUpsert()

	latest, has, err := p.Store.LatestTimestamp(ctx, q.Symbol)
	if err != nil {
		return q, false, fmt.Errorf("latest timestamp for %s: %w", q.Symbol, err)
	}
	if has && latest == q.UpdateTime {
		return q, false, nil
	}

	inserted, err := p.Store.InsertSnapshot(ctx, models.SnapshotFromQuote(q, p.Now().UnixMilli()))
	if err != nil {
		return q, false, err
	}
	if inserted {
		p.Metrics.RecordSnapshot()
	}
	return q, inserted, nil
}

// -----------------------------------------------------------------------------

func (p *Poller) lockFor(symbol string) *sync.Mutex {
	lock, _ := p.symbolLocks.LoadOrStore(symbol, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

// -----------------------------------------------------------------------------

func (p *Poller) timeout() time.Duration {
	if p.CycleTimeout > 0 {
		return p.CycleTimeout
	}
	return 30 * time.Second
}
