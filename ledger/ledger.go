// Package ledger keeps the durable vesting state: schedule parameters, the
// per-recipient allocation and claimed tables, and the release flag.
//
// Every function takes the store it works against so that the caller decides
// the invocation boundary; writes go through a repository.StateWriter and are
// committed, or dropped, by the caller.
package ledger

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"sort"
	"strconv"

	"vesting-project/host"
	"vesting-project/models"
	"vesting-project/repository"
)

// named keys
const (
	KeyContractName   = "contract_name"
	KeyVestingAmount  = "vesting_amount"
	KeyTokenService   = "cep18_contract_hash"
	KeyStartDate      = "start_date"
	KeyDuration       = "duration"
	KeyPeriod         = "period"
	KeyOwner          = "owner"
	KeyCliffTimestamp = "cliff_timestamp"
	KeyReleaseDate    = "release_date"
	KeyEndDate        = "end_date"
	KeyRecipientCount = "recipient_count"
	KeyReleased       = "released"
)

// dictionaries
const (
	RecipientsDict  = "recipients_dict"
	AllocationsDict = "allocations_dict"
	ClaimedDict     = "claimed_dict"
)

// MaxAmount is the largest amount the token standard can carry (2^256-1)
var MaxAmount = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// ParseAmount parses a decimal token amount in [0, MaxAmount]
func ParseAmount(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", s)
	}
	if v.Sign() < 0 || v.Cmp(MaxAmount) > 0 {
		return nil, fmt.Errorf("amount %s out of range", s)
	}
	return v, nil
}

// Params is a validated init request
type Params struct {
	ContractName    string
	TokenService    string
	TotalAllocation *big.Int
	StartDate       uint64
	CliffOffset     uint64
	Duration        uint64
	PeriodLength    uint64
	Recipients      []string
	Allocations     []*big.Int
}

// AllocationSum is the sum of the per-recipient allocations
func (p *Params) AllocationSum() *big.Int {
	sum := new(big.Int)
	for _, a := range p.Allocations {
		sum.Add(sum, a)
	}
	return sum
}

// ValidateInit checks the init arguments and converts them to Params.
// It performs no storage access.
func ValidateInit(req models.InitRequest) (*Params, error) {
	if len(req.Recipients) == 0 {
		return nil, NewError(CodeFatal, "no recipients provided", nil)
	}
	if len(req.Recipients) != len(req.Allocations) {
		return nil, NewError(CodeFatal,
			fmt.Sprintf("recipients and allocations length mismatch: %d != %d", len(req.Recipients), len(req.Allocations)), nil)
	}
	if req.ContractName == "" {
		return nil, NewError(CodeInvalidSchedule, "contract name is required", nil)
	}
	if !host.IsContractKey(req.TokenService) {
		return nil, NewError(CodeInvalidSchedule, fmt.Sprintf("invalid token service reference %q", req.TokenService), nil)
	}
	if req.Duration == 0 || req.Period == 0 {
		return nil, NewError(CodeInvalidSchedule, "duration and period must be positive", nil)
	}
	if req.Period > req.Duration {
		return nil, NewError(CodeInvalidSchedule,
			fmt.Sprintf("period %d exceeds duration %d", req.Period, req.Duration), nil)
	}
	if req.CliffTimestamp > math.MaxUint64-req.StartDate ||
		req.Duration > math.MaxUint64-req.StartDate-req.CliffTimestamp {
		return nil, NewError(CodeInvalidSchedule, "schedule end overflows", nil)
	}

	total, err := ParseAmount(req.VestingAmount)
	if err != nil {
		return nil, NewError(CodeInvalidSchedule, "invalid vesting amount", err)
	}

	p := &Params{
		ContractName:    req.ContractName,
		TokenService:    req.TokenService,
		TotalAllocation: total,
		StartDate:       req.StartDate,
		CliffOffset:     req.CliffTimestamp,
		Duration:        req.Duration,
		PeriodLength:    req.Period,
		Recipients:      make([]string, len(req.Recipients)),
		Allocations:     make([]*big.Int, len(req.Allocations)),
	}
	for i, r := range req.Recipients {
		if !host.IsIdentity(r) {
			return nil, NewError(CodeInvalidSchedule, fmt.Sprintf("invalid recipient %q at index %d", r, i), nil)
		}
		a, err := ParseAmount(req.Allocations[i])
		if err != nil {
			return nil, NewError(CodeInvalidSchedule, fmt.Sprintf("invalid allocation at index %d", i), err)
		}
		p.Recipients[i] = r
		p.Allocations[i] = a
	}
	return p, nil
}

// IsInitialized reports whether init has already written the schedule
func IsInitialized(r repository.StateReader) (bool, error) {
	ok, err := r.HasNamed(KeyOwner)
	if err != nil {
		return false, NewError(CodeFatal, "failed to read owner", err)
	}
	return ok, nil
}

// CheckAdmin fails unless caller is the designated administrator
func CheckAdmin(admin, caller string) error {
	if admin != "" && caller != admin {
		return NewError(CodeAdmin, fmt.Sprintf("caller %s is not the administrator", caller), nil)
	}
	return nil
}

// Initialize writes the schedule and the recipient tables. admin is the
// designated administrator; when empty the first caller becomes owner.
// All checks run before the first write.
func Initialize(w repository.StateWriter, admin, caller string, p *Params) (*models.ScheduleConfig, error) {
	if err := CheckAdmin(admin, caller); err != nil {
		return nil, err
	}
	initialized, err := IsInitialized(w)
	if err != nil {
		return nil, err
	}
	if initialized {
		return nil, NewError(CodeAlreadyInitialized, "schedule already initialized", nil)
	}

	releaseDate := p.StartDate + p.CliffOffset
	cfg := &models.ScheduleConfig{
		ContractName:    p.ContractName,
		TokenService:    p.TokenService,
		Owner:           caller,
		TotalAllocation: new(big.Int).Set(p.TotalAllocation),
		StartDate:       p.StartDate,
		CliffOffset:     p.CliffOffset,
		ReleaseDate:     releaseDate,
		Duration:        p.Duration,
		PeriodLength:    p.PeriodLength,
		EndDate:         releaseDate + p.Duration,
		RecipientCount:  uint64(len(p.Recipients)),
		Released:        false,
	}

	named := []struct {
		key   string
		value interface{}
	}{
		{KeyContractName, cfg.ContractName},
		{KeyTokenService, cfg.TokenService},
		{KeyStartDate, cfg.StartDate},
		{KeyDuration, cfg.Duration},
		{KeyPeriod, cfg.PeriodLength},
		{KeyOwner, cfg.Owner},
		{KeyVestingAmount, cfg.TotalAllocation.String()},
		{KeyCliffTimestamp, cfg.CliffOffset},
		{KeyReleaseDate, cfg.ReleaseDate},
		{KeyEndDate, cfg.EndDate},
		{KeyRecipientCount, cfg.RecipientCount},
		{KeyReleased, cfg.Released},
	}
	for _, n := range named {
		if err := w.PutNamed(n.key, n.value); err != nil {
			return nil, NewError(CodeFatal, "failed to write "+n.key, err)
		}
	}

	for _, d := range []string{RecipientsDict, AllocationsDict, ClaimedDict} {
		if err := w.NewDictionary(d); err != nil {
			return nil, NewError(CodeFatal, "failed to create "+d, err)
		}
	}

	for i, recipient := range p.Recipients {
		key := strconv.Itoa(i)
		if err := w.DictionaryPut(RecipientsDict, key, recipient); err != nil {
			return nil, NewError(CodeFatal, "failed to write recipient "+key, err)
		}
		if err := w.DictionaryPut(AllocationsDict, key, p.Allocations[i].String()); err != nil {
			return nil, NewError(CodeFatal, "failed to write allocation "+key, err)
		}
		if err := w.DictionaryPut(ClaimedDict, key, "0"); err != nil {
			return nil, NewError(CodeFatal, "failed to write claimed "+key, err)
		}
	}

	return cfg, nil
}

// Release flips the release gate. Only the owner may call it, and only once.
func Release(w repository.StateWriter, caller string) error {
	var owner string
	if err := readNamed(w, KeyOwner, &owner); err != nil {
		return err
	}
	if caller != owner {
		return NewError(CodeAdmin, fmt.Sprintf("caller %s is not the owner", caller), nil)
	}

	var released bool
	if err := readNamed(w, KeyReleased, &released); err != nil {
		return err
	}
	if released {
		return NewError(CodeAdmin, "already released", nil)
	}

	if err := w.PutNamed(KeyReleased, true); err != nil {
		return NewError(CodeFatal, "failed to write "+KeyReleased, err)
	}
	return nil
}

// RecordClaim overwrites the claimed total of a recipient. The caller
// guarantees claimed[index] <= newClaimed <= allocation[index].
func RecordClaim(w repository.StateWriter, index uint64, newClaimed *big.Int) error {
	key := strconv.FormatUint(index, 10)
	if err := w.DictionaryPut(ClaimedDict, key, newClaimed.String()); err != nil {
		return NewError(CodeFatal, "failed to write claimed "+key, err)
	}
	return nil
}

// Schedule reads the schedule parameters
func Schedule(r repository.StateReader) (*models.ScheduleConfig, error) {
	cfg := &models.ScheduleConfig{}
	var total string

	reads := []struct {
		key string
		out interface{}
	}{
		{KeyContractName, &cfg.ContractName},
		{KeyTokenService, &cfg.TokenService},
		{KeyOwner, &cfg.Owner},
		{KeyVestingAmount, &total},
		{KeyStartDate, &cfg.StartDate},
		{KeyCliffTimestamp, &cfg.CliffOffset},
		{KeyReleaseDate, &cfg.ReleaseDate},
		{KeyDuration, &cfg.Duration},
		{KeyPeriod, &cfg.PeriodLength},
		{KeyEndDate, &cfg.EndDate},
		{KeyRecipientCount, &cfg.RecipientCount},
		{KeyReleased, &cfg.Released},
	}
	for _, rd := range reads {
		if err := readNamed(r, rd.key, rd.out); err != nil {
			return nil, err
		}
	}

	v, err := ParseAmount(total)
	if err != nil {
		return nil, NewError(CodeFatal, "corrupt "+KeyVestingAmount, err)
	}
	cfg.TotalAllocation = v
	return cfg, nil
}

// Recipient resolves the record at index
func Recipient(r repository.StateReader, index uint64) (*models.RecipientRecord, error) {
	key := strconv.FormatUint(index, 10)

	var recipient, allocation, claimed string
	if err := dictionaryGet(r, RecipientsDict, key, &recipient); err != nil {
		return nil, err
	}
	if err := dictionaryGet(r, AllocationsDict, key, &allocation); err != nil {
		return nil, err
	}
	if err := dictionaryGet(r, ClaimedDict, key, &claimed); err != nil {
		return nil, err
	}

	a, err := ParseAmount(allocation)
	if err != nil {
		return nil, NewError(CodeFatal, "corrupt allocation "+key, err)
	}
	c, err := ParseAmount(claimed)
	if err != nil {
		return nil, NewError(CodeFatal, "corrupt claimed "+key, err)
	}

	return &models.RecipientRecord{
		Index:      index,
		Recipient:  recipient,
		Allocation: a,
		Claimed:    c,
	}, nil
}

// RecipientCount reads the number of recipients written by init
func RecipientCount(r repository.StateReader) (uint64, error) {
	var n uint64
	if err := readNamed(r, KeyRecipientCount, &n); err != nil {
		return 0, err
	}
	return n, nil
}

// Recipients lists every recipient record in index order
func Recipients(r repository.StateRepositoryInterface) ([]*models.RecipientRecord, error) {
	keys, err := r.DictionaryKeys(RecipientsDict)
	if err != nil {
		return nil, NewError(CodeFatal, "failed to list "+RecipientsDict, err)
	}

	indexes := make([]uint64, 0, len(keys))
	for _, k := range keys {
		i, err := strconv.ParseUint(k, 10, 64)
		if err != nil {
			return nil, NewError(CodeFatal, fmt.Sprintf("corrupt key %q in %s", k, RecipientsDict), err)
		}
		indexes = append(indexes, i)
	}
	sort.Slice(indexes, func(a, b int) bool { return indexes[a] < indexes[b] })

	out := make([]*models.RecipientRecord, 0, len(indexes))
	for _, i := range indexes {
		rec, err := Recipient(r, i)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func readNamed(r repository.StateReader, key string, out interface{}) error {
	if err := r.ReadNamed(key, out); err != nil {
		if errors.Is(err, repository.ErrKeyNotFound) {
			return NewError(CodeFatal, "missing named key "+key, err)
		}
		return NewError(CodeFatal, "failed to read "+key, err)
	}
	return nil
}

func dictionaryGet(r repository.StateReader, dict, key string, out interface{}) error {
	found, err := r.DictionaryGet(dict, key, out)
	if err != nil {
		return NewError(CodeFatal, fmt.Sprintf("failed to read %s[%s]", dict, key), err)
	}
	if !found {
		return NewError(CodeFatal, fmt.Sprintf("no entry %s in %s", key, dict), nil)
	}
	return nil
}
