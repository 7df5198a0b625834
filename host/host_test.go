package host_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"vesting-project/host"
)

func TestIdentityFormats(t *testing.T) {
	hex := strings.Repeat("ab", 32)

	require.True(t, host.IsAccountKey("account-hash-"+hex))
	require.False(t, host.IsAccountKey("hash-"+hex))
	require.True(t, host.IsContractKey("hash-"+hex))
	require.True(t, host.IsIdentity("hash-"+hex))

	require.False(t, host.IsIdentity(""))
	require.False(t, host.IsIdentity("account-hash-"+strings.ToUpper(hex)))
	require.False(t, host.IsIdentity("account-hash-"+hex[:62]))
}

func TestManualClock(t *testing.T) {
	c := host.NewManualClock(1000)
	require.Equal(t, uint64(1000), c.Now())
	c.Advance(35)
	require.Equal(t, uint64(1035), c.Now())
	c.Set(5)
	require.Equal(t, uint64(5), c.Now())
}
