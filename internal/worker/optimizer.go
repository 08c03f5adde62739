// Package worker runs the background optimization loop that applies each
// shop's enabled rules on a schedule, independent of any API request.
package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ignite/adpilot/internal/auth"
	"github.com/ignite/adpilot/internal/pkg/distlock"
	"github.com/ignite/adpilot/internal/pkg/logger"
	"github.com/ignite/adpilot/internal/service/insights"
	"github.com/ignite/adpilot/internal/service/optimization"
)

// CredentialSource resolves the shops to optimize and their tokens.
type CredentialSource interface {
	ListConnectedShops(ctx context.Context) ([]string, error)
	GetMetaToken(ctx context.Context, shop string) (string, error)
	GetShopifyToken(ctx context.Context, shop string) (string, error)
}

// Runner executes one optimization pass for a shop.
type Runner interface {
	Run(ctx context.Context, creds insights.Credentials) (*optimization.RunResult, error)
}

// LockFactory builds a per-shop lock so that only one instance optimizes a
// shop at a time when multiple workers run.
type LockFactory func(shop string) distlock.DistLock

// Optimizer periodically runs the rule engine for every connected shop.
type Optimizer struct {
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup

	engine   Runner
	creds    CredentialSource
	locks    LockFactory
	interval time.Duration

	// runTimeout bounds a single shop's pass.
	runTimeout time.Duration
}

// NewOptimizer creates the background optimizer. A nil locks factory
// disables cross-instance locking, for single-instance deployments.
func NewOptimizer(engine Runner, creds CredentialSource, locks LockFactory, interval time.Duration) *Optimizer {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Optimizer{
		engine:     engine,
		creds:      creds,
		locks:      locks,
		interval:   interval,
		stopCh:     make(chan struct{}),
		runTimeout: 5 * time.Minute,
	}
}

// Start begins the optimization loop.
func (o *Optimizer) Start() {
	o.mu.Lock()
	if o.running {
		o.mu.Unlock()
		return
	}
	o.running = true
	o.mu.Unlock()

	logger.Info("optimizer: starting", "interval", o.interval.String())

	o.wg.Add(1)
	go o.loop()
}

// Stop stops the loop and waits for an in-flight pass to finish.
func (o *Optimizer) Stop() {
	o.mu.Lock()
	if !o.running {
		o.mu.Unlock()
		return
	}
	o.running = false
	o.mu.Unlock()

	close(o.stopCh)
	o.wg.Wait()
	logger.Info("optimizer: stopped")
}

func (o *Optimizer) loop() {
	defer o.wg.Done()

	ticker := time.NewTicker(o.interval)
	defer ticker.Stop()

	for {
		select {
		case <-o.stopCh:
			return
		case <-ticker.C:
			o.runOnce(context.Background())
		}
	}
}

// runOnce optimizes every connected shop. A shop's failure never stops the
// sweep.
func (o *Optimizer) runOnce(ctx context.Context) {
	shops, err := o.creds.ListConnectedShops(ctx)
	if err != nil {
		logger.Error("optimizer: list shops failed", "error", err.Error())
		return
	}

	for _, shop := range shops {
		select {
		case <-o.stopCh:
			return
		default:
		}
		o.optimizeShop(ctx, shop)
	}
}

func (o *Optimizer) optimizeShop(ctx context.Context, shop string) {
	if o.locks != nil {
		lock := o.locks(shop)
		ok, err := lock.Acquire(ctx)
		if err != nil {
			logger.Error("optimizer: lock acquire failed", "shop", shop, "error", err.Error())
			return
		}
		if !ok {
			logger.Debug("optimizer: shop locked by another instance", "shop", shop)
			return
		}
		defer func() {
			if err := lock.Release(ctx); err != nil {
				logger.Error("optimizer: lock release failed", "shop", shop, "error", err.Error())
			}
		}()
	}

	metaToken, err := o.creds.GetMetaToken(ctx, shop)
	if err != nil {
		if !errors.Is(err, auth.ErrNotConnected) {
			logger.Error("optimizer: meta token lookup failed", "shop", shop, "error", err.Error())
		}
		return
	}
	shopifyToken, err := o.creds.GetShopifyToken(ctx, shop)
	if err != nil && !errors.Is(err, auth.ErrNotConnected) {
		logger.Error("optimizer: shopify token lookup failed", "shop", shop, "error", err.Error())
		return
	}

	runCtx, cancel := context.WithTimeout(ctx, o.runTimeout)
	defer cancel()

	result, err := o.engine.Run(runCtx, insights.Credentials{
		Shop:         shop,
		MetaToken:    metaToken,
		ShopifyToken: shopifyToken,
	})
	if err != nil {
		logger.Error("optimizer: run failed", "shop", shop, "error", err.Error())
		return
	}

	logger.Info("optimizer: pass complete",
		"shop", shop,
		"processed", result.Processed,
		"optimized", result.Optimized,
		"errors", result.Errors)
}
