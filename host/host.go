// Package host provides the identity and time oracle the contract runs against.
package host

import (
	"regexp"
	"sync/atomic"
	"time"
)

const (
	accountKeyRegex  = `^account-hash-[0-9a-f]{64}$`
	contractKeyRegex = `^hash-[0-9a-f]{64}$`
)

var (
	accountKeyPattern  = regexp.MustCompile(accountKeyRegex)
	contractKeyPattern = regexp.MustCompile(contractKeyRegex)
)

// IsAccountKey reports whether id is a formatted account hash key
func IsAccountKey(id string) bool {
	return accountKeyPattern.MatchString(id)
}

// IsContractKey reports whether id is a formatted contract hash key
func IsContractKey(id string) bool {
	return contractKeyPattern.MatchString(id)
}

// IsIdentity accepts either an account or a contract key
func IsIdentity(id string) bool {
	return IsAccountKey(id) || IsContractKey(id)
}

// Clock supplies block time in milliseconds
type Clock interface {
	Now() uint64
}

// SystemClock reads the wall clock
type SystemClock struct{}

func (SystemClock) Now() uint64 {
	return uint64(time.Now().UnixMilli())
}

// ManualClock is a settable clock for tests and replays
type ManualClock struct {
	now atomic.Uint64
}

func NewManualClock(now uint64) *ManualClock {
	c := &ManualClock{}
	c.now.Store(now)
	return c
}

func (c *ManualClock) Now() uint64 {
	return c.now.Load()
}

func (c *ManualClock) Set(now uint64) {
	c.now.Store(now)
}

func (c *ManualClock) Advance(d uint64) {
	c.now.Add(d)
}
