package models

const (
	EventClaim              = "claim"
	EventVestingInitialized = "vesting_initialized"
	EventReleased           = "released"
)

// Event is an append-only record handed to the event sink
type Event struct {
	ID                  string `json:"id"`
	Type                string `json:"event_type"`
	ContractPackageHash string `json:"contract_package_hash"`
	RoundName           string `json:"round_name,omitempty"`
	Recipient           string `json:"recipient,omitempty"`
	DepositAmount       string `json:"deposit_amount,omitempty"`
	BlockTime           uint64 `json:"block_time"`
}
