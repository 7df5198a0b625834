package repository_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"vesting-project/db"
	"vesting-project/repository"
)

func newRepo(t *testing.T) *repository.StateRepository {
	t.Helper()
	ldb, err := db.NewMemLevelDB()
	require.NoError(t, err)
	t.Cleanup(func() { ldb.Close() })
	return repository.NewStateRepository(ldb)
}

func TestSession_CommitMakesWritesVisible(t *testing.T) {
	repo := newRepo(t)

	s := repo.Begin()
	require.NoError(t, s.PutNamed("duration", uint64(100)))
	require.NoError(t, s.NewDictionary("claimed_dict"))
	require.NoError(t, s.DictionaryPut("claimed_dict", "0", "0"))

	// staged writes are readable inside the session only
	var d uint64
	require.NoError(t, s.ReadNamed("duration", &d))
	require.Equal(t, uint64(100), d)
	ok, err := repo.HasNamed("duration")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, s.Commit())

	require.NoError(t, repo.ReadNamed("duration", &d))
	require.Equal(t, uint64(100), d)

	var claimed string
	found, err := repo.DictionaryGet("claimed_dict", "0", &claimed)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "0", claimed)
}

func TestSession_DiscardLeavesStoreUntouched(t *testing.T) {
	repo := newRepo(t)

	s := repo.Begin()
	require.NoError(t, s.PutNamed("owner", "someone"))
	s.Discard()

	var owner string
	err := repo.ReadNamed("owner", &owner)
	require.True(t, errors.Is(err, repository.ErrKeyNotFound))
	require.Error(t, s.Commit())
}

func TestDictionary_MissingDictionaryAndItem(t *testing.T) {
	repo := newRepo(t)

	var v string
	_, err := repo.DictionaryGet("recipients_dict", "0", &v)
	require.True(t, errors.Is(err, repository.ErrDictionaryNotFound))

	s := repo.Begin()
	err = s.DictionaryPut("recipients_dict", "0", "x")
	require.True(t, errors.Is(err, repository.ErrDictionaryNotFound))

	require.NoError(t, s.NewDictionary("recipients_dict"))
	require.NoError(t, s.Commit())

	found, err := repo.DictionaryGet("recipients_dict", "7", &v)
	require.NoError(t, err)
	require.False(t, found)
}

func TestNewDictionary_KeepsExistingItems(t *testing.T) {
	repo := newRepo(t)

	s := repo.Begin()
	require.NoError(t, s.NewDictionary("balances"))
	require.NoError(t, s.DictionaryPut("balances", "a", "5"))
	require.NoError(t, s.Commit())

	s = repo.Begin()
	require.NoError(t, s.NewDictionary("balances"))
	require.NoError(t, s.Commit())

	var v string
	found, err := repo.DictionaryGet("balances", "a", &v)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "5", v)
}

func TestDictionaryKeys_ListsCommittedItemsOfOneDictionary(t *testing.T) {
	repo := newRepo(t)

	_, err := repo.DictionaryKeys("recipients_dict")
	require.True(t, repository.IsDictionaryNotFound(err))

	s := repo.Begin()
	require.NoError(t, s.NewDictionary("recipients_dict"))
	require.NoError(t, s.NewDictionary("recipients_dict_old"))
	for _, k := range []string{"0", "1", "10", "2"} {
		require.NoError(t, s.DictionaryPut("recipients_dict", k, "r"+k))
	}
	require.NoError(t, s.DictionaryPut("recipients_dict_old", "9", "x"))
	require.NoError(t, s.Commit())

	// uncommitted items are not listed
	pending := repo.Begin()
	require.NoError(t, pending.DictionaryPut("recipients_dict", "3", "r3"))

	keys, err := repo.DictionaryKeys("recipients_dict")
	require.NoError(t, err)
	require.Equal(t, []string{"0", "1", "10", "2"}, keys)
	pending.Discard()
}
