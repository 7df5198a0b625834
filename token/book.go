package token

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"vesting-project/repository"
)

const (
	balancesDictPrefix   = "cep18_balances_"
	distributedKeyPrefix = "cep18_distributed_"
)

// Book is a local token balance book kept in the host store. It credits the
// recipient and tracks the total distributed per token service reference.
type Book struct {
	repo repository.StateRepositoryInterface
	mux  sync.Mutex
}

// NewBook creates and returns a new Book instance
func NewBook(repo repository.StateRepositoryInterface) *Book {
	return &Book{repo: repo}
}

func (b *Book) Transfer(ctx context.Context, tokenService, recipient string, amount *big.Int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if amount.Sign() <= 0 {
		return fmt.Errorf("transfer amount must be positive, got %s", amount)
	}

	b.mux.Lock()
	defer b.mux.Unlock()

	s := b.repo.Begin()
	dict := balancesDictPrefix + tokenService
	if err := s.NewDictionary(dict); err != nil {
		s.Discard()
		return err
	}

	balance, err := readAmount(s, dict, recipient)
	if err != nil {
		s.Discard()
		return err
	}
	balance.Add(balance, amount)
	if err := s.DictionaryPut(dict, recipient, balance.String()); err != nil {
		s.Discard()
		return err
	}

	distributed, err := b.distributed(s, tokenService)
	if err != nil {
		s.Discard()
		return err
	}
	distributed.Add(distributed, amount)
	if err := s.PutNamed(distributedKeyPrefix+tokenService, distributed.String()); err != nil {
		s.Discard()
		return err
	}

	return s.Commit()
}

// Balance returns the amount credited to account under tokenService
func (b *Book) Balance(tokenService, account string) (*big.Int, error) {
	bal, err := readAmount(b.repo, balancesDictPrefix+tokenService, account)
	if err != nil {
		return nil, err
	}
	return bal, nil
}

// Distributed returns the total transferred under tokenService
func (b *Book) Distributed(tokenService string) (*big.Int, error) {
	return b.distributed(b.repo, tokenService)
}

func (b *Book) distributed(r repository.StateReader, tokenService string) (*big.Int, error) {
	key := distributedKeyPrefix + tokenService
	ok, err := r.HasNamed(key)
	if err != nil || !ok {
		return new(big.Int), err
	}
	var s string
	if err := r.ReadNamed(key, &s); err != nil {
		return nil, err
	}
	return parse(s)
}

// readAmount treats a missing dictionary or entry as a zero balance
func readAmount(r repository.StateReader, dict, account string) (*big.Int, error) {
	var s string
	found, err := r.DictionaryGet(dict, account, &s)
	if err != nil {
		if repository.IsDictionaryNotFound(err) {
			return new(big.Int), nil
		}
		return nil, err
	}
	if !found {
		return new(big.Int), nil
	}
	return parse(s)
}

func parse(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("corrupt balance %q", s)
	}
	return v, nil
}
