package registry_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"vesting-project/db"
	"vesting-project/host"
	"vesting-project/registry"
	"vesting-project/repository"
)

func TestHashesAreStableAndDistinct(t *testing.T) {
	a := registry.ContractHash("seed_round")
	require.Equal(t, a, registry.ContractHash("seed_round"))
	require.True(t, host.IsContractKey(a), a)
	require.NotEqual(t, a, registry.ContractHash("team"))
	require.NotEqual(t, a, registry.PackageHash("seed_round"))
	require.True(t, host.IsContractKey(registry.PackageHash("seed_round")))
}

func TestRegisterAndLookup(t *testing.T) {
	ldb, err := db.NewMemLevelDB()
	require.NoError(t, err)
	defer ldb.Close()
	repo := repository.NewStateRepository(ldb)

	_, err = registry.Lookup(repo, "seed_round")
	require.True(t, errors.Is(err, repository.ErrKeyNotFound))

	s := repo.Begin()
	reg, err := registry.Register(s, "seed_round")
	require.NoError(t, err)
	require.NoError(t, s.Commit())

	got, err := registry.Lookup(repo, "seed_round")
	require.NoError(t, err)
	require.Equal(t, reg.ContractHash, got.ContractHash)
	require.Equal(t, reg.PackageHash, got.PackageHash)
	require.Len(t, got.EntryPoints, 3)
	require.Equal(t, registry.EntryPointClaim, got.EntryPoints[1].Name)
	require.Equal(t, "index", got.EntryPoints[1].Parameters[1].Name)
}
