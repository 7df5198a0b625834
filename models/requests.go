package models

// InitRequest carries the arguments of the init entry point
type InitRequest struct {
	ContractName   string   `json:"contract_name"`
	VestingAmount  string   `json:"vesting_amount"`
	TokenService   string   `json:"cep18_contract_hash"`
	StartDate      uint64   `json:"start_date"`
	Duration       uint64   `json:"duration"`
	Period         uint64   `json:"period"`
	Recipients     []string `json:"recipients"`
	Allocations    []string `json:"allocations"`
	CliffTimestamp uint64   `json:"cliff_timestamp"`
}

// ClaimRequest carries the arguments of the claim entry point
type ClaimRequest struct {
	TokenService string  `json:"cep18_contract_hash"`
	Index        *uint64 `json:"index"`
}
