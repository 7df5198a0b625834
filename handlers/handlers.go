package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"vesting-project/events"
	"vesting-project/ledger"
	"vesting-project/logger"
	"vesting-project/models"
	"vesting-project/repository"
	"vesting-project/token"
	"vesting-project/vesting"
)

// CallerHeader carries the identity of the account invoking an entry point
const CallerHeader = "X-Caller-Identity"

const defaultEventLimit = 100

// Handler contains the HTTP handlers for the vesting API endpoints
type Handler struct {
	Contract *vesting.Contract
	// Book is set when tokens are kept locally
	Book *token.Book
	// Events is set when the event sink can replay stored events
	Events events.Lister
}

// NewHandler creates and returns a new Handler instance
func NewHandler(c *vesting.Contract, book *token.Book, lister events.Lister) *Handler {
	return &Handler{Contract: c, Book: book, Events: lister}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeContractError maps a contract failure to its HTTP status and
// reports the numeric code alongside the message. fatalStatus is used for
// fatal errors that carry no underlying cause.
func writeContractError(w http.ResponseWriter, err error, fatalStatus int) {
	var le *ledger.Error
	if !errors.As(err, &le) {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, statusFor(le, fatalStatus), map[string]interface{}{
		"error": le.Error(),
		"code":  int(le.Code),
	})
}

func statusFor(le *ledger.Error, fatalStatus int) int {
	switch le.Code {
	case ledger.CodeFatal:
		if le.Err == nil || errors.Is(le.Err, repository.ErrKeyNotFound) {
			return fatalStatus
		}
		return http.StatusInternalServerError
	case ledger.CodeUser, ledger.CodeAdmin:
		return http.StatusForbidden
	case ledger.CodeInvalidSchedule:
		return http.StatusBadRequest
	default:
		return http.StatusConflict
	}
}

func caller(r *http.Request) string {
	return r.Header.Get(CallerHeader)
}

func indexVar(r *http.Request) (uint64, error) {
	return strconv.ParseUint(mux.Vars(r)["index"], 10, 64)
}

// Init handles POST requests that create the vesting schedule
func (h *Handler) Init(w http.ResponseWriter, r *http.Request) {
	var req models.InitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Logger.Error("Failed to decode init request", zap.Error(err))
		writeError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	cfg, reg, err := h.Contract.Init(r.Context(), caller(r), req)
	if err != nil {
		logger.Logger.Error("Failed to initialize vesting", zap.Error(err))
		writeContractError(w, err, http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message":      "Vesting initialized successfully",
		"schedule":     cfg,
		"registration": reg,
	})
}

// Claim handles POST requests paying out a recipient's vested balance
func (h *Handler) Claim(w http.ResponseWriter, r *http.Request) {
	var req models.ClaimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Logger.Error("Failed to decode claim request", zap.Error(err))
		writeError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if req.Index == nil {
		writeError(w, http.StatusBadRequest, "index is required")
		return
	}

	receipt, err := h.Contract.Claim(r.Context(), caller(r), req.TokenService, *req.Index)
	if err != nil {
		writeContractError(w, err, http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Claim paid",
		"receipt": receipt,
	})
}

// Release handles POST requests flipping the release gate
func (h *Handler) Release(w http.ResponseWriter, r *http.Request) {
	if err := h.Contract.Release(r.Context(), caller(r)); err != nil {
		logger.Logger.Error("Failed to release vesting", zap.Error(err))
		writeContractError(w, err, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Vesting released"})
}

// GetSchedule returns the schedule parameters and the release flag
func (h *Handler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.Contract.Schedule()
	if err != nil {
		writeContractError(w, err, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

// ListRecipients returns the recipient count and every record in index order
func (h *Handler) ListRecipients(w http.ResponseWriter, r *http.Request) {
	count, err := h.Contract.RecipientCount()
	if err != nil {
		writeContractError(w, err, http.StatusNotFound)
		return
	}
	list, err := h.Contract.Recipients()
	if err != nil {
		logger.Logger.Error("Failed to list recipients", zap.Error(err))
		writeContractError(w, err, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"recipient_count": count,
		"recipients":      list,
	})
}

// GetRecipient returns the allocation and claimed total at one index
func (h *Handler) GetRecipient(w http.ResponseWriter, r *http.Request) {
	index, err := indexVar(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid index")
		return
	}
	rec, err := h.Contract.Recipient(index)
	if err != nil {
		writeContractError(w, err, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// GetClaimable previews a claim. The optional "at" query parameter
// evaluates it at another block time in milliseconds.
func (h *Handler) GetClaimable(w http.ResponseWriter, r *http.Request) {
	index, err := indexVar(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid index")
		return
	}

	var preview *models.ClaimPreview
	if at := r.URL.Query().Get("at"); at != "" {
		now, perr := strconv.ParseUint(at, 10, 64)
		if perr != nil {
			writeError(w, http.StatusBadRequest, "invalid at")
			return
		}
		preview, err = h.Contract.ClaimableAt(index, now)
	} else {
		preview, err = h.Contract.Claimable(index)
	}
	if err != nil {
		writeContractError(w, err, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, preview)
}

// GetContract returns the registered contract address and entry points
func (h *Handler) GetContract(w http.ResponseWriter, r *http.Request) {
	reg, err := h.Contract.Registration()
	if err != nil {
		writeContractError(w, err, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, reg)
}

// GetBalance reads an account balance from the local token book
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	if h.Book == nil {
		writeError(w, http.StatusNotFound, "local token book is disabled")
		return
	}
	vars := mux.Vars(r)
	balance, err := h.Book.Balance(vars["ref"], vars["account"])
	if err != nil {
		logger.Logger.Error("Failed to read balance", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"cep18_contract_hash": vars["ref"],
		"account":             vars["account"],
		"balance":             balance.String(),
	})
}

// ListEvents returns stored contract events, newest first
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	if h.Events == nil {
		writeError(w, http.StatusNotFound, "event store is disabled")
		return
	}
	limit := defaultEventLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	list, err := h.Events.List(r.Context(), limit)
	if err != nil {
		logger.Logger.Error("Failed to list events", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if list == nil {
		list = []models.Event{}
	}
	writeJSON(w, http.StatusOK, list)
}
