package ledger_test

import (
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"vesting-project/db"
	"vesting-project/ledger"
	"vesting-project/models"
	"vesting-project/repository"
)

var (
	admin     = "account-hash-" + strings.Repeat("0a", 32)
	alice     = "account-hash-" + strings.Repeat("1b", 32)
	bob       = "account-hash-" + strings.Repeat("2c", 32)
	tokenHash = "hash-" + strings.Repeat("3d", 32)
	intruder  = "account-hash-" + strings.Repeat("4e", 32)
)

func newRepo(t *testing.T) *repository.StateRepository {
	t.Helper()
	ldb, err := db.NewMemLevelDB()
	require.NoError(t, err)
	t.Cleanup(func() { ldb.Close() })
	return repository.NewStateRepository(ldb)
}

func initRequest() models.InitRequest {
	return models.InitRequest{
		ContractName:   "seed_round",
		VestingAmount:  "1500",
		TokenService:   tokenHash,
		StartDate:      1000,
		Duration:       100,
		Period:         10,
		Recipients:     []string{alice, bob},
		Allocations:    []string{"1000", "500"},
		CliffTimestamp: 50,
	}
}

func initialize(t *testing.T, repo *repository.StateRepository) *models.ScheduleConfig {
	t.Helper()
	p, err := ledger.ValidateInit(initRequest())
	require.NoError(t, err)
	s := repo.Begin()
	cfg, err := ledger.Initialize(s, admin, admin, p)
	require.NoError(t, err)
	require.NoError(t, s.Commit())
	return cfg
}

func requireCode(t *testing.T, err error, code ledger.Code) {
	t.Helper()
	require.Error(t, err)
	var le *ledger.Error
	require.True(t, errors.As(err, &le), "not a ledger error: %v", err)
	require.Equal(t, code, le.Code, err.Error())
}

func TestInitialize_WritesScheduleAndTables(t *testing.T) {
	repo := newRepo(t)
	initialize(t, repo)

	cfg, err := ledger.Schedule(repo)
	require.NoError(t, err)
	require.Equal(t, admin, cfg.Owner)
	require.Equal(t, uint64(1050), cfg.ReleaseDate)
	require.Equal(t, uint64(1150), cfg.EndDate)
	require.Equal(t, uint64(2), cfg.RecipientCount)
	require.Equal(t, "1500", cfg.TotalAllocation.String())
	require.False(t, cfg.Released)

	rec, err := ledger.Recipient(repo, 1)
	require.NoError(t, err)
	require.Equal(t, bob, rec.Recipient)
	require.Equal(t, "500", rec.Allocation.String())
	require.Equal(t, 0, rec.Claimed.Sign())
}

func TestInitialize_RejectsSecondCall(t *testing.T) {
	repo := newRepo(t)
	initialize(t, repo)

	req := initRequest()
	req.Allocations = []string{"1", "1"}
	p, err := ledger.ValidateInit(req)
	require.NoError(t, err)

	s := repo.Begin()
	_, err = ledger.Initialize(s, admin, admin, p)
	requireCode(t, err, ledger.CodeAlreadyInitialized)
	s.Discard()

	rec, err := ledger.Recipient(repo, 0)
	require.NoError(t, err)
	require.Equal(t, "1000", rec.Allocation.String())
}

func TestInitialize_NonAdminWritesNothing(t *testing.T) {
	repo := newRepo(t)
	p, err := ledger.ValidateInit(initRequest())
	require.NoError(t, err)

	s := repo.Begin()
	_, err = ledger.Initialize(s, admin, intruder, p)
	requireCode(t, err, ledger.CodeAdmin)
	require.NoError(t, s.Commit())

	ok, err := ledger.IsInitialized(repo)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestInitialize_NoDesignatedAdminFirstCallerOwns(t *testing.T) {
	repo := newRepo(t)
	p, err := ledger.ValidateInit(initRequest())
	require.NoError(t, err)

	s := repo.Begin()
	cfg, err := ledger.Initialize(s, "", bob, p)
	require.NoError(t, err)
	require.Equal(t, bob, cfg.Owner)
}

func TestValidateInit(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*models.InitRequest)
		code   ledger.Code
	}{
		{"length mismatch", func(r *models.InitRequest) { r.Allocations = r.Allocations[:1] }, ledger.CodeFatal},
		{"no recipients", func(r *models.InitRequest) { r.Recipients, r.Allocations = nil, nil }, ledger.CodeFatal},
		{"zero period", func(r *models.InitRequest) { r.Period = 0 }, ledger.CodeInvalidSchedule},
		{"zero duration", func(r *models.InitRequest) { r.Duration = 0 }, ledger.CodeInvalidSchedule},
		{"period longer than duration", func(r *models.InitRequest) { r.Period = 101 }, ledger.CodeInvalidSchedule},
		{"end overflows", func(r *models.InitRequest) { r.StartDate = ^uint64(0) - 10 }, ledger.CodeInvalidSchedule},
		{"negative allocation", func(r *models.InitRequest) { r.Allocations[1] = "-5" }, ledger.CodeInvalidSchedule},
		{"malformed allocation", func(r *models.InitRequest) { r.Allocations[0] = "1e3" }, ledger.CodeInvalidSchedule},
		{"bad recipient", func(r *models.InitRequest) { r.Recipients[0] = "alice" }, ledger.CodeInvalidSchedule},
		{"bad token reference", func(r *models.InitRequest) { r.TokenService = alice }, ledger.CodeInvalidSchedule},
		{"missing name", func(r *models.InitRequest) { r.ContractName = "" }, ledger.CodeInvalidSchedule},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := initRequest()
			req.Recipients = append([]string(nil), req.Recipients...)
			req.Allocations = append([]string(nil), req.Allocations...)
			tt.mutate(&req)
			_, err := ledger.ValidateInit(req)
			requireCode(t, err, tt.code)
		})
	}
}

func TestValidateInit_TotalAllocationNotEnforced(t *testing.T) {
	req := initRequest()
	req.VestingAmount = "1"
	p, err := ledger.ValidateInit(req)
	require.NoError(t, err)
	require.Equal(t, "1500", p.AllocationSum().String())
}

func TestParseAmount_U256Bounds(t *testing.T) {
	v, err := ledger.ParseAmount(ledger.MaxAmount.String())
	require.NoError(t, err)
	require.Equal(t, 0, v.Cmp(ledger.MaxAmount))

	over := new(big.Int).Add(ledger.MaxAmount, big.NewInt(1))
	_, err = ledger.ParseAmount(over.String())
	require.Error(t, err)
}

func TestRelease(t *testing.T) {
	repo := newRepo(t)
	initialize(t, repo)

	s := repo.Begin()
	requireCode(t, ledger.Release(s, intruder), ledger.CodeAdmin)
	require.NoError(t, ledger.Release(s, admin))
	require.NoError(t, s.Commit())

	cfg, err := ledger.Schedule(repo)
	require.NoError(t, err)
	require.True(t, cfg.Released)

	s = repo.Begin()
	err = ledger.Release(s, admin)
	requireCode(t, err, ledger.CodeAdmin)
	require.True(t, errors.Is(err, ledger.ErrAdmin))
}

func TestRelease_BeforeInitIsFatal(t *testing.T) {
	repo := newRepo(t)
	err := ledger.Release(repo.Begin(), admin)
	requireCode(t, err, ledger.CodeFatal)
}

func TestRecordClaim_AndMissingIndex(t *testing.T) {
	repo := newRepo(t)
	initialize(t, repo)

	s := repo.Begin()
	require.NoError(t, ledger.RecordClaim(s, 0, big.NewInt(300)))
	require.NoError(t, s.Commit())

	rec, err := ledger.Recipient(repo, 0)
	require.NoError(t, err)
	require.Equal(t, "300", rec.Claimed.String())

	_, err = ledger.Recipient(repo, 2)
	requireCode(t, err, ledger.CodeFatal)
	require.True(t, errors.Is(err, ledger.ErrFatal))
}

func TestRecipients_ListsInIndexOrder(t *testing.T) {
	repo := newRepo(t)

	_, err := ledger.Recipients(repo)
	requireCode(t, err, ledger.CodeFatal)

	req := initRequest()
	req.Recipients, req.Allocations = nil, nil
	for i := 0; i < 12; i++ {
		req.Recipients = append(req.Recipients, fmt.Sprintf("account-hash-%064x", i))
		req.Allocations = append(req.Allocations, strconv.Itoa(100+i))
	}
	p, err := ledger.ValidateInit(req)
	require.NoError(t, err)
	s := repo.Begin()
	_, err = ledger.Initialize(s, admin, admin, p)
	require.NoError(t, err)
	require.NoError(t, s.Commit())

	n, err := ledger.RecipientCount(repo)
	require.NoError(t, err)
	require.Equal(t, uint64(12), n)

	list, err := ledger.Recipients(repo)
	require.NoError(t, err)
	require.Len(t, list, 12)
	for i, rec := range list {
		require.Equal(t, uint64(i), rec.Index)
		require.Equal(t, req.Recipients[i], rec.Recipient)
		require.Equal(t, strconv.Itoa(100+i), rec.Allocation.String())
	}
}
