// Package registry declares the contract's entry points and binds a
// human-readable contract name to a stable address.
package registry

import (
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"

	"vesting-project/repository"
)

const (
	EntryPointInit    = "init"
	EntryPointClaim   = "claim"
	EntryPointRelease = "release"

	entryPointsKey = "entry_points"
)

var (
	contractNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("vesting/contract"))
	packageNamespace  = uuid.NewSHA1(uuid.NameSpaceOID, []byte("vesting/package"))
)

// Parameter is a named, typed entry point argument
type Parameter struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// EntryPoint describes one callable of the contract
type EntryPoint struct {
	Name       string      `json:"name"`
	Parameters []Parameter `json:"parameters"`
}

// Registration is what gets stored for a contract name
type Registration struct {
	Name         string       `json:"name"`
	ContractHash string       `json:"contract_hash"`
	PackageHash  string       `json:"package_hash"`
	EntryPoints  []EntryPoint `json:"entry_points"`
}

// EntryPoints returns the callable surface of the vesting contract
func EntryPoints() []EntryPoint {
	return []EntryPoint{
		{
			Name: EntryPointInit,
			Parameters: []Parameter{
				{"contract_name", "String"},
				{"vesting_amount", "U256"},
				{"cep18_contract_hash", "Key"},
				{"start_date", "U64"},
				{"duration", "U64"},
				{"period", "U64"},
				{"recipients", "List<Key>"},
				{"allocations", "List<U256>"},
				{"cliff_timestamp", "U64"},
			},
		},
		{
			Name: EntryPointClaim,
			Parameters: []Parameter{
				{"cep18_contract_hash", "Key"},
				{"index", "U64"},
			},
		},
		{
			Name:       EntryPointRelease,
			Parameters: []Parameter{},
		},
	}
}

// derive expands a name into a 32-byte hash-formatted key
func derive(ns uuid.UUID, name string) string {
	first := uuid.NewSHA1(ns, []byte(name))
	second := uuid.NewSHA1(first, []byte(name))
	return "hash-" + hex.EncodeToString(first[:]) + hex.EncodeToString(second[:])
}

// ContractHash is the stable address of the contract registered as name
func ContractHash(name string) string {
	return derive(contractNamespace, name)
}

// PackageHash is the stable package address of the contract registered as name
func PackageHash(name string) string {
	return derive(packageNamespace, name)
}

func contractHashKey(name string) string { return "vesting_contract_hash_" + name }

func packageHashKey(name string) string { return "vesting_package_hash_" + name }

// Register stores the name to address bindings and the entry point table
func Register(w repository.StateWriter, name string) (*Registration, error) {
	if name == "" {
		return nil, fmt.Errorf("contract name is required")
	}
	reg := &Registration{
		Name:         name,
		ContractHash: ContractHash(name),
		PackageHash:  PackageHash(name),
		EntryPoints:  EntryPoints(),
	}
	if err := w.PutNamed(contractHashKey(name), reg.ContractHash); err != nil {
		return nil, err
	}
	if err := w.PutNamed(packageHashKey(name), reg.PackageHash); err != nil {
		return nil, err
	}
	if err := w.PutNamed(entryPointsKey, reg.EntryPoints); err != nil {
		return nil, err
	}
	return reg, nil
}

// Lookup reads back the registration for name
func Lookup(r repository.StateReader, name string) (*Registration, error) {
	reg := &Registration{Name: name}
	if err := r.ReadNamed(contractHashKey(name), &reg.ContractHash); err != nil {
		return nil, err
	}
	if err := r.ReadNamed(packageHashKey(name), &reg.PackageHash); err != nil {
		return nil, err
	}
	if err := r.ReadNamed(entryPointsKey, &reg.EntryPoints); err != nil {
		return nil, err
	}
	return reg, nil
}
