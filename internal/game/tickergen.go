package game

import (
	"sync"
	"time"
)

// TickerGen hands out real tickers and remembers them so they can be stopped
// when the session actor exits.
type TickerGen struct {
	mu      sync.Mutex
	tickers []*time.Ticker
}

func NewTickerGen() *TickerGen {
	return &TickerGen{}
}

func (g *TickerGen) Create(duration time.Duration) <-chan time.Time {
	t := time.NewTicker(duration)
	g.mu.Lock()
	g.tickers = append(g.tickers, t)
	g.mu.Unlock()
	return t.C
}

func (g *TickerGen) Stop() {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, t := range g.tickers {
		t.Stop()
	}
	g.tickers = nil
}
