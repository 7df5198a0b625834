// Package token moves fungible tokens on behalf of the vesting contract.
package token

import (
	"context"
	"math/big"
)

// Service is the fungible-token transfer boundary. Transfer either moves the
// full amount or returns an error; a returned error aborts the invocation.
type Service interface {
	Transfer(ctx context.Context, tokenService, recipient string, amount *big.Int) error
}
