package models

import (
	"encoding/json"
	"math/big"
)

// Phase is the derived state of a recipient's schedule at a given instant
type Phase string

const (
	PhasePreCliff    Phase = "PreCliff"
	PhaseVesting     Phase = "Vesting"
	PhaseFullyVested Phase = "FullyVested"
)

// ScheduleConfig holds the schedule parameters written once by init
type ScheduleConfig struct {
	ContractName    string   `json:"contract_name"`
	TokenService    string   `json:"cep18_contract_hash"`
	Owner           string   `json:"owner"`
	TotalAllocation *big.Int `json:"-"`
	StartDate       uint64   `json:"start_date"`
	CliffOffset     uint64   `json:"cliff_timestamp"`
	ReleaseDate     uint64   `json:"release_date"`
	Duration        uint64   `json:"duration"`
	PeriodLength    uint64   `json:"period"`
	EndDate         uint64   `json:"end_date"`
	RecipientCount  uint64   `json:"recipient_count"`
	Released        bool     `json:"released"`
}

func (c ScheduleConfig) MarshalJSON() ([]byte, error) {
	type plain ScheduleConfig
	return json.Marshal(struct {
		plain
		TotalAllocation string `json:"vesting_amount"`
	}{plain(c), amountString(c.TotalAllocation)})
}

// RecipientRecord is one row of the allocation table
type RecipientRecord struct {
	Index      uint64
	Recipient  string
	Allocation *big.Int
	Claimed    *big.Int
}

func (r RecipientRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Index      uint64 `json:"index"`
		Recipient  string `json:"recipient"`
		Allocation string `json:"allocation"`
		Claimed    string `json:"claimed"`
	}{r.Index, r.Recipient, amountString(r.Allocation), amountString(r.Claimed)})
}

// ClaimReceipt describes a completed claim
type ClaimReceipt struct {
	Index     uint64
	Recipient string
	Paid      *big.Int
	Claimed   *big.Int
	BlockTime uint64
}

func (r ClaimReceipt) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Index     uint64 `json:"index"`
		Recipient string `json:"recipient"`
		Paid      string `json:"claim_amount"`
		Claimed   string `json:"claimed"`
		BlockTime uint64 `json:"block_time"`
	}{r.Index, r.Recipient, amountString(r.Paid), amountString(r.Claimed), r.BlockTime})
}

// ClaimPreview is the read-only view of what a recipient could claim right now
type ClaimPreview struct {
	Index     uint64
	Recipient string
	Phase     Phase
	Vested    *big.Int
	Claimed   *big.Int
	Claimable *big.Int
	BlockTime uint64
}

func (p ClaimPreview) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Index     uint64 `json:"index"`
		Recipient string `json:"recipient"`
		Phase     Phase  `json:"phase"`
		Vested    string `json:"vested"`
		Claimed   string `json:"claimed"`
		Claimable string `json:"claimable"`
		BlockTime uint64 `json:"block_time"`
	}{p.Index, p.Recipient, p.Phase, amountString(p.Vested), amountString(p.Claimed), amountString(p.Claimable), p.BlockTime})
}

func amountString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}
