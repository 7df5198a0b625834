// Package vesting runs the contract entry points: init, claim and release,
// plus read-only views over the ledger.
package vesting

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"vesting-project/events"
	"vesting-project/host"
	"vesting-project/ledger"
	"vesting-project/logger"
	"vesting-project/models"
	"vesting-project/registry"
	"vesting-project/repository"
	"vesting-project/token"
)

// Options configures the administrative behaviour of a Contract
type Options struct {
	// Admin is the designated administrator allowed to call init.
	// Empty means whoever calls init first becomes owner.
	Admin string
	// RequireRelease makes claim fail until release has been called.
	RequireRelease bool
}

// Contract executes entry points against the host store. Invocations run
// one at a time; each one commits all of its writes or none.
type Contract struct {
	repo   repository.StateRepositoryInterface
	tokens token.Service
	sink   events.Sink
	clock  host.Clock
	opts   Options
	mux    sync.RWMutex
}

func NewContract(repo repository.StateRepositoryInterface, tokens token.Service, sink events.Sink, clock host.Clock, opts Options) *Contract {
	return &Contract{
		repo:   repo,
		tokens: tokens,
		sink:   sink,
		clock:  clock,
		opts:   opts,
	}
}

// Init creates the schedule and registers the contract name
func (c *Contract) Init(ctx context.Context, caller string, req models.InitRequest) (*models.ScheduleConfig, *registry.Registration, error) {
	if !host.IsIdentity(caller) {
		return nil, nil, ledger.NewError(ledger.CodeUser, fmt.Sprintf("invalid caller identity %q", caller), nil)
	}

	c.mux.Lock()
	defer c.mux.Unlock()

	if err := ledger.CheckAdmin(c.opts.Admin, caller); err != nil {
		return nil, nil, err
	}

	params, err := ledger.ValidateInit(req)
	if err != nil {
		return nil, nil, err
	}

	s := c.repo.Begin()
	cfg, err := ledger.Initialize(s, c.opts.Admin, caller, params)
	if err != nil {
		s.Discard()
		return nil, nil, err
	}
	reg, err := registry.Register(s, cfg.ContractName)
	if err != nil {
		s.Discard()
		return nil, nil, ledger.NewError(ledger.CodeFatal, "failed to register contract", err)
	}
	if err := s.Commit(); err != nil {
		return nil, nil, ledger.NewError(ledger.CodeFatal, "failed to commit init", err)
	}

	if sum := params.AllocationSum(); sum.Cmp(cfg.TotalAllocation) != 0 {
		logger.Logger.Warn("Allocations do not add up to vesting amount",
			zap.String("vesting_amount", cfg.TotalAllocation.String()),
			zap.String("allocations_sum", sum.String()))
	}
	logger.Logger.Info("Vesting schedule initialized",
		zap.String("contract_name", cfg.ContractName),
		zap.String("owner", cfg.Owner),
		zap.Uint64("release_date", cfg.ReleaseDate),
		zap.Uint64("end_date", cfg.EndDate),
		zap.Uint64("recipients", cfg.RecipientCount))

	c.emit(ctx, models.Event{
		Type:                models.EventVestingInitialized,
		ContractPackageHash: reg.PackageHash,
		RoundName:           cfg.TokenService,
		DepositAmount:       cfg.TotalAllocation.String(),
	})

	return cfg, reg, nil
}

// Claim pays the caller the vested-but-unclaimed balance of the recipient at
// index. tokenService may be empty, in which case the scheduled one is used.
func (c *Contract) Claim(ctx context.Context, caller, tokenService string, index uint64) (*models.ClaimReceipt, error) {
	c.mux.Lock()
	defer c.mux.Unlock()

	now := c.clock.Now()
	s := c.repo.Begin()
	defer s.Discard()

	cfg, err := ledger.Schedule(s)
	if err != nil {
		return nil, err
	}
	rec, err := ledger.Recipient(s, index)
	if err != nil {
		return nil, err
	}

	claim, err := c.evaluate(cfg, rec, caller, tokenService, now)
	if err != nil {
		logger.Logger.Info("Claim rejected",
			zap.Uint64("index", index),
			zap.String("caller", caller),
			zap.Uint64("block_time", now),
			zap.Error(err))
		return nil, err
	}

	if err := c.tokens.Transfer(ctx, cfg.TokenService, rec.Recipient, claim.amount); err != nil {
		logger.Logger.Error("Token transfer failed",
			zap.Uint64("index", index),
			zap.String("recipient", rec.Recipient),
			zap.Error(err))
		return nil, ledger.NewError(ledger.CodeFatal, "token transfer failed", err)
	}

	if err := ledger.RecordClaim(s, index, claim.vested); err != nil {
		return nil, err
	}
	if err := s.Commit(); err != nil {
		logger.Logger.Error("Claim commit failed after transfer",
			zap.Uint64("index", index),
			zap.String("recipient", rec.Recipient),
			zap.String("amount", claim.amount.String()),
			zap.Error(err))
		return nil, ledger.NewError(ledger.CodeFatal, "failed to commit claim", err)
	}

	logger.Logger.Info("Claim paid",
		zap.Uint64("index", index),
		zap.String("recipient", rec.Recipient),
		zap.String("amount", claim.amount.String()),
		zap.String("claimed", claim.vested.String()))

	c.emit(ctx, models.Event{
		Type:                models.EventClaim,
		ContractPackageHash: registry.PackageHash(cfg.ContractName),
		RoundName:           cfg.TokenService,
		Recipient:           rec.Recipient,
		DepositAmount:       claim.amount.String(),
		BlockTime:           now,
	})

	return &models.ClaimReceipt{
		Index:     index,
		Recipient: rec.Recipient,
		Paid:      claim.amount,
		Claimed:   claim.vested,
		BlockTime: now,
	}, nil
}

type pendingClaim struct {
	vested *big.Int
	amount *big.Int
}

// evaluate runs the claim checks in order: identity, token reference,
// release gate, cliff, then the vested amount.
func (c *Contract) evaluate(cfg *models.ScheduleConfig, rec *models.RecipientRecord, caller, tokenService string, now uint64) (*pendingClaim, error) {
	if caller != rec.Recipient {
		return nil, ledger.NewError(ledger.CodeUser,
			fmt.Sprintf("caller %s is not the recipient at index %d", caller, rec.Index), nil)
	}
	if tokenService != "" && tokenService != cfg.TokenService {
		return nil, ledger.NewError(ledger.CodeUser,
			fmt.Sprintf("token service %s does not match the schedule", tokenService), nil)
	}
	if c.opts.RequireRelease && !cfg.Released {
		return nil, ledger.NewError(ledger.CodeNotReleased, "vesting has not been released", nil)
	}
	if now < cfg.ReleaseDate {
		return nil, ledger.NewError(ledger.CodeVestingNotStarted,
			fmt.Sprintf("vesting starts at %d, now is %d", cfg.ReleaseDate, now), nil)
	}

	vested := VestedAmount(rec.Allocation, cfg.ReleaseDate, cfg.Duration, cfg.PeriodLength, now)
	amount := new(big.Int).Sub(vested, rec.Claimed)
	if amount.Sign() <= 0 {
		return nil, ledger.NewError(ledger.CodeInsufficientBalance, "nothing to claim", nil)
	}
	return &pendingClaim{vested: vested, amount: amount}, nil
}

// Release flips the release gate
func (c *Contract) Release(ctx context.Context, caller string) error {
	c.mux.Lock()
	defer c.mux.Unlock()

	s := c.repo.Begin()
	if err := ledger.Release(s, caller); err != nil {
		s.Discard()
		return err
	}
	var name string
	if err := s.ReadNamed(ledger.KeyContractName, &name); err != nil {
		s.Discard()
		return ledger.NewError(ledger.CodeFatal, "missing contract name", err)
	}
	if err := s.Commit(); err != nil {
		return ledger.NewError(ledger.CodeFatal, "failed to commit release", err)
	}

	logger.Logger.Info("Vesting released", zap.String("owner", caller))
	c.emit(ctx, models.Event{
		Type:                models.EventReleased,
		ContractPackageHash: registry.PackageHash(name),
	})
	return nil
}

// Schedule returns the schedule parameters
func (c *Contract) Schedule() (*models.ScheduleConfig, error) {
	c.mux.RLock()
	defer c.mux.RUnlock()
	return ledger.Schedule(c.repo)
}

// Recipient returns the record at index
func (c *Contract) Recipient(index uint64) (*models.RecipientRecord, error) {
	c.mux.RLock()
	defer c.mux.RUnlock()
	return ledger.Recipient(c.repo, index)
}

// RecipientCount returns how many recipients init registered
func (c *Contract) RecipientCount() (uint64, error) {
	c.mux.RLock()
	defer c.mux.RUnlock()
	return ledger.RecipientCount(c.repo)
}

// Recipients returns every recipient record in index order
func (c *Contract) Recipients() ([]*models.RecipientRecord, error) {
	c.mux.RLock()
	defer c.mux.RUnlock()
	return ledger.Recipients(c.repo)
}

// Claimable previews the claim of the recipient at index without changing state
func (c *Contract) Claimable(index uint64) (*models.ClaimPreview, error) {
	return c.ClaimableAt(index, c.clock.Now())
}

// ClaimableAt is Claimable evaluated at the given block time
func (c *Contract) ClaimableAt(index, now uint64) (*models.ClaimPreview, error) {
	c.mux.RLock()
	defer c.mux.RUnlock()

	cfg, err := ledger.Schedule(c.repo)
	if err != nil {
		return nil, err
	}
	rec, err := ledger.Recipient(c.repo, index)
	if err != nil {
		return nil, err
	}

	vested := VestedAmount(rec.Allocation, cfg.ReleaseDate, cfg.Duration, cfg.PeriodLength, now)
	claimable := new(big.Int).Sub(vested, rec.Claimed)
	if claimable.Sign() < 0 {
		claimable.SetInt64(0)
	}
	return &models.ClaimPreview{
		Index:     index,
		Recipient: rec.Recipient,
		Phase:     PhaseAt(cfg, rec, now),
		Vested:    vested,
		Claimed:   rec.Claimed,
		Claimable: claimable,
		BlockTime: now,
	}, nil
}

// Registration returns the registered name binding and entry points
func (c *Contract) Registration() (*registry.Registration, error) {
	c.mux.RLock()
	defer c.mux.RUnlock()

	var name string
	if err := c.repo.ReadNamed(ledger.KeyContractName, &name); err != nil {
		return nil, ledger.NewError(ledger.CodeFatal, "contract not initialized", err)
	}
	reg, err := registry.Lookup(c.repo, name)
	if err != nil {
		return nil, ledger.NewError(ledger.CodeFatal, "missing registration", err)
	}
	return reg, nil
}

// emit hands the event to the sink; sink failures are logged and dropped
func (c *Contract) emit(ctx context.Context, evt models.Event) {
	evt.ID = uuid.NewString()
	if evt.BlockTime == 0 {
		evt.BlockTime = c.clock.Now()
	}
	if err := c.sink.Emit(ctx, evt); err != nil {
		logger.Logger.Warn("Failed to emit event",
			zap.String("event_type", evt.Type),
			zap.String("id", evt.ID),
			zap.Error(err))
	}
}
