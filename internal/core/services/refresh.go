package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/streamlink/internal/core/domain"
	"github.com/custodia-labs/streamlink/internal/core/ports/driven"
	"github.com/custodia-labs/streamlink/internal/logger"
	"github.com/custodia-labs/streamlink/internal/metrics"
)

// Refresher defaults
const (
	DefaultRefreshLockTTL      = 30 * time.Second
	DefaultRefreshLockWait     = 15 * time.Second
	DefaultRefreshPollInterval = 100 * time.Millisecond
	DefaultRefreshConcurrency  = 4
	DefaultRefreshSweepBatch   = 100
	refreshLockPrefix          = "refresh:"
	reasonNoRefreshToken       = "no refresh token on file"
	reasonRefreshTokenRejected = "refresh token rejected"
)

// RefresherConfig holds dependencies and tuning for the Refresher.
type RefresherConfig struct {
	Vault    *TokenVault
	Registry driven.PlatformRegistry

	// Lock serializes refreshes across instances. Optional; without it
	// refreshes are only serialized within this process.
	Lock driven.DistributedLock

	Logger *slog.Logger

	// Buffer is how long before expiry a token is refreshed. Default: 5m.
	Buffer time.Duration

	// LockTTL bounds how long a crashed holder can block an account. Default: 30s.
	// A live holder extends it every LockTTL/3 for as long as its refresh runs.
	LockTTL time.Duration

	// LockWait is how long a caller waits for a busy account before
	// giving up with domain.ErrRefreshInProgress. Default: 15s.
	LockWait time.Duration

	// Concurrency bounds parallel refreshes during a sweep. Default: 4.
	Concurrency int

	// BatchSize bounds how many accounts one sweep examines. Default: 100.
	BatchSize int
}

// Refresher keeps access tokens fresh.
// Every refresh of an account, whoever triggers it, goes through the same
// per-account lock so a rotating refresh token is never presented twice.
type Refresher struct {
	vault       *TokenVault
	registry    driven.PlatformRegistry
	dlock       driven.DistributedLock
	local       *keyedMutex
	logger      *slog.Logger
	buffer      time.Duration
	lockTTL     time.Duration
	lockWait    time.Duration
	pollEvery   time.Duration
	concurrency int
	batchSize   int
	now         func() time.Time
}

// SweepResult summarizes one sweep.
// Skipped counts accounts another caller refreshed before the sweep got to them.
type SweepResult struct {
	Checked   int
	Refreshed int
	Skipped   int
	Failed    int
}

type refreshOutcome int

const (
	outcomeFailed refreshOutcome = iota
	outcomeRefreshed
	outcomeSkipped
)

// NewRefresher creates a Refresher.
func NewRefresher(cfg RefresherConfig) *Refresher {
	r := &Refresher{
		vault:       cfg.Vault,
		registry:    cfg.Registry,
		dlock:       cfg.Lock,
		local:       newKeyedMutex(),
		logger:      cfg.Logger,
		buffer:      cfg.Buffer,
		lockTTL:     cfg.LockTTL,
		lockWait:    cfg.LockWait,
		pollEvery:   DefaultRefreshPollInterval,
		concurrency: cfg.Concurrency,
		batchSize:   cfg.BatchSize,
		now:         time.Now,
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	if r.buffer <= 0 {
		r.buffer = domain.DefaultRefreshBuffer
	}
	if r.lockTTL <= 0 {
		r.lockTTL = DefaultRefreshLockTTL
	}
	if r.lockWait <= 0 {
		r.lockWait = DefaultRefreshLockWait
	}
	if r.concurrency <= 0 {
		r.concurrency = DefaultRefreshConcurrency
	}
	if r.batchSize <= 0 {
		r.batchSize = DefaultRefreshSweepBatch
	}
	return r
}

// Buffer returns the refresh buffer in use.
func (r *Refresher) Buffer() time.Duration {
	return r.buffer
}

// NeedsRefresh reports whether the account's access token is within the buffer of expiry.
func (r *Refresher) NeedsRefresh(account *domain.PlatformAccount) bool {
	return account.NeedsRefresh(r.now(), r.buffer)
}

// RefreshIfNeeded refreshes the account if its token is due and returns the current account.
func (r *Refresher) RefreshIfNeeded(ctx context.Context, account *domain.PlatformAccount) (*domain.PlatformAccount, error) {
	updated, _, err := r.refresh(ctx, account, false, metrics.TriggerOnDemand)
	return updated, err
}

// ForceRefresh refreshes the account regardless of expiry.
// If another caller refreshed it while this one waited for the lock, that result is returned instead.
func (r *Refresher) ForceRefresh(ctx context.Context, account *domain.PlatformAccount) (*domain.PlatformAccount, error) {
	updated, _, err := r.refresh(ctx, account, true, metrics.TriggerForced)
	return updated, err
}

// WithAccountLock runs fn while holding the refresh lock of (userID, platform).
// Writers that replace an account's tokens outside a refresh, such as a re-link,
// go through here so a concurrent refresh cannot overwrite their tokens.
func (r *Refresher) WithAccountLock(ctx context.Context, userID string, platform domain.Platform, fn func(ctx context.Context) error) error {
	lockCtx, unlock, err := r.lock(ctx, domain.AccountKey(userID, platform))
	if err != nil {
		return err
	}
	defer unlock()

	if err := fn(lockCtx); err != nil {
		return r.leaseErr(ctx, lockCtx, err)
	}
	return nil
}

// WithFreshToken runs fn with a live access token for the user's account on platform.
// Feature code needing platform access must go through here rather than reading tokens itself.
func (r *Refresher) WithFreshToken(ctx context.Context, userID string, platform domain.Platform, fn func(ctx context.Context, accessToken string) error) error {
	account, err := r.vault.Get(ctx, userID, platform)
	if err != nil {
		return err
	}

	account, err = r.RefreshIfNeeded(ctx, account)
	if err != nil {
		return err
	}

	tokens, err := r.vault.DecryptTokens(account)
	if err != nil {
		return err
	}
	return fn(ctx, tokens.AccessToken)
}

// Sweep refreshes every active account expiring within the buffer.
// Individual failures are counted, not returned.
func (r *Refresher) Sweep(ctx context.Context) (SweepResult, error) {
	var result SweepResult

	accounts, err := r.vault.ListExpiring(ctx, r.now().Add(r.buffer), r.batchSize)
	if err != nil {
		return result, fmt.Errorf("list expiring accounts: %w", err)
	}
	result.Checked = len(accounts)

	outcomes := make([]refreshOutcome, len(accounts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for i, account := range accounts {
		g.Go(func() error {
			_, refreshed, err := r.refresh(gctx, account, false, metrics.TriggerSweep)
			switch {
			case err != nil:
				r.logger.Warn("sweep refresh failed",
					"account_id", account.ID,
					"platform", account.Platform,
					"error", err,
				)
				outcomes[i] = outcomeFailed
			case refreshed:
				outcomes[i] = outcomeRefreshed
			default:
				outcomes[i] = outcomeSkipped
			}
			return nil
		})
	}
	_ = g.Wait()

	for _, outcome := range outcomes {
		switch outcome {
		case outcomeRefreshed:
			result.Refreshed++
		case outcomeSkipped:
			result.Skipped++
		default:
			result.Failed++
		}
	}
	return result, ctx.Err()
}

// refresh reports whether this call refreshed the token itself.
func (r *Refresher) refresh(ctx context.Context, account *domain.PlatformAccount, force bool, trigger string) (*domain.PlatformAccount, bool, error) {
	if account.RequiresReauthorization() {
		return nil, false, domain.ErrReauthorizationRequired
	}
	if !force && !r.NeedsRefresh(account) {
		return account, false, nil
	}

	lockCtx, unlock, err := r.lock(ctx, account.Key())
	if err != nil {
		return nil, false, err
	}
	defer unlock()

	current, err := r.vault.Get(lockCtx, account.UserID, account.Platform)
	if err != nil {
		return nil, false, r.leaseErr(ctx, lockCtx, err)
	}
	if current.RequiresReauthorization() {
		return nil, false, domain.ErrReauthorizationRequired
	}

	if force {
		if !bytes.Equal(current.AccessTokenCiphertext, account.AccessTokenCiphertext) {
			metrics.TokenRefreshes.WithLabelValues(string(current.Platform), trigger, metrics.OutcomeSkipped).Inc()
			return current, false, nil
		}
	} else if !r.NeedsRefresh(current) {
		metrics.TokenRefreshes.WithLabelValues(string(current.Platform), trigger, metrics.OutcomeSkipped).Inc()
		return current, false, nil
	}

	updated, err := r.doRefresh(lockCtx, current, trigger)
	if err != nil {
		return nil, false, r.leaseErr(ctx, lockCtx, err)
	}
	return updated, true, nil
}

// leaseErr reports a failure caused by losing the distributed lock as
// domain.ErrRefreshInProgress: another instance may now own the account.
func (r *Refresher) leaseErr(ctx, lockCtx context.Context, err error) error {
	if ctx.Err() == nil && leaseLost(lockCtx) {
		return fmt.Errorf("%w: %w", domain.ErrRefreshInProgress, context.Cause(lockCtx))
	}
	return err
}

// doRefresh calls the platform. The caller holds the account lock.
func (r *Refresher) doRefresh(ctx context.Context, account *domain.PlatformAccount, trigger string) (*domain.PlatformAccount, error) {
	log := logger.FromContext(ctx, r.logger).With("account_id", account.ID, "platform", account.Platform)
	platform := string(account.Platform)

	adapter, err := r.registry.Adapter(account.Platform)
	if err != nil {
		return nil, err
	}

	tokens, err := r.vault.DecryptTokens(account)
	if err != nil {
		return nil, err
	}

	// A rotated refresh token must be stored even if the caller goes away.
	persistCtx := context.WithoutCancel(ctx)

	if !tokens.HasRefreshToken() {
		if err := r.vault.MarkReauthorizationRequired(persistCtx, account, reasonNoRefreshToken); err != nil {
			return nil, err
		}
		metrics.TokenRefreshes.WithLabelValues(platform, trigger, metrics.OutcomeReauth).Inc()
		log.Warn("account has no refresh token, reauthorization required")
		return nil, fmt.Errorf("%w: %w", domain.ErrRefreshFailed, domain.ErrReauthorizationRequired)
	}

	start := time.Now()
	result, err := adapter.RefreshToken(ctx, tokens.RefreshToken)
	metrics.TokenRefreshDuration.WithLabelValues(platform).Observe(time.Since(start).Seconds())

	if err != nil {
		if isPermanentRefreshFailure(ctx, err) {
			reason := reasonRefreshTokenRejected
			var perr *domain.PlatformError
			if errors.As(err, &perr) && perr.Code != "" {
				reason = perr.Code
			}
			if markErr := r.vault.MarkReauthorizationRequired(persistCtx, account, reason); markErr != nil {
				log.Error("failed to mark account for reauthorization", "error", markErr)
			}
			metrics.TokenRefreshes.WithLabelValues(platform, trigger, metrics.OutcomeReauth).Inc()
			log.Warn("refresh rejected, reauthorization required", "reason", reason, "error", err)
			return nil, fmt.Errorf("%w: %w: %w", domain.ErrRefreshFailed, domain.ErrReauthorizationRequired, err)
		}

		metrics.TokenRefreshes.WithLabelValues(platform, trigger, metrics.OutcomeFailed).Inc()
		log.Warn("refresh failed transiently", "error", err)
		return nil, fmt.Errorf("%w: %w", domain.ErrPlatformAPI, err)
	}

	updated, err := r.vault.UpdateTokens(persistCtx, account, result)
	if err != nil {
		metrics.TokenRefreshes.WithLabelValues(platform, trigger, metrics.OutcomeError).Inc()
		return nil, err
	}

	metrics.TokenRefreshes.WithLabelValues(platform, trigger, metrics.OutcomeSuccess).Inc()
	log.Info("access token refreshed",
		"trigger", trigger,
		"rotated", result.RefreshToken != "",
		"expires_at", updated.ExpiresAt,
	)
	return updated, nil
}

// isPermanentRefreshFailure reports whether the platform rejected the refresh token itself.
// Cancellation and transport trouble never cost the user their link.
func isPermanentRefreshFailure(ctx context.Context, err error) bool {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		return false
	}
	var perr *domain.PlatformError
	if !errors.As(err, &perr) {
		return false
	}
	return !perr.Temporary()
}

// lock takes the in-process lock for key and, when configured, the distributed one.
// It gives up with domain.ErrRefreshInProgress after the lock-wait budget.
// Work done under the lock must use the returned context: it is cancelled if
// the distributed lock is lost.
func (r *Refresher) lock(ctx context.Context, key string) (context.Context, func(), error) {
	waitCtx, cancel := context.WithTimeout(ctx, r.lockWait)
	defer cancel()

	busy := func() error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return domain.ErrRefreshInProgress
	}

	unlockLocal, err := r.local.Lock(waitCtx, key)
	if err != nil {
		return nil, nil, busy()
	}

	if r.dlock == nil {
		return ctx, unlockLocal, nil
	}

	name := refreshLockPrefix + key
	for {
		acquired, err := r.dlock.Acquire(waitCtx, name, r.lockTTL)
		if err != nil {
			unlockLocal()
			if waitCtx.Err() != nil {
				return nil, nil, busy()
			}
			return nil, nil, fmt.Errorf("acquire refresh lock: %w", err)
		}
		if acquired {
			leaseCtx, stopLease := holdLease(ctx, r.dlock, name, r.lockTTL, r.logger)
			return leaseCtx, func() {
				stopLease()
				if err := r.dlock.Release(context.WithoutCancel(ctx), name); err != nil {
					r.logger.Warn("failed to release refresh lock", "lock", name, "error", err)
				}
				unlockLocal()
			}, nil
		}

		timer := time.NewTimer(r.pollEvery)
		select {
		case <-waitCtx.Done():
			timer.Stop()
			unlockLocal()
			return nil, nil, busy()
		case <-timer.C:
		}
	}
}
