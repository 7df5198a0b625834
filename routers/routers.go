package routers

import (
	"vesting-project/handlers"

	"github.com/gorilla/mux"
)

// RegisterRoutes sets up all the HTTP routes for the vesting contract
func RegisterRoutes(r *mux.Router, h *handlers.Handler) {

	// Creates the schedule; only once, only by the administrator
	r.HandleFunc("/vesting/init", h.Init).Methods("POST")

	// Pays the caller what has vested since their last claim
	r.HandleFunc("/vesting/claim", h.Claim).Methods("POST")

	// Flips the release gate
	r.HandleFunc("/vesting/release", h.Release).Methods("POST")

	r.HandleFunc("/vesting/schedule", h.GetSchedule).Methods("GET")
	r.HandleFunc("/vesting/recipients", h.ListRecipients).Methods("GET")
	r.HandleFunc("/vesting/recipients/{index:[0-9]+}", h.GetRecipient).Methods("GET")

	// Read-only preview, never changes state
	r.HandleFunc("/vesting/recipients/{index:[0-9]+}/claimable", h.GetClaimable).Methods("GET")

	r.HandleFunc("/contract", h.GetContract).Methods("GET")
	r.HandleFunc("/tokens/{ref}/balances/{account}", h.GetBalance).Methods("GET")
	r.HandleFunc("/events", h.ListEvents).Methods("GET")
}
