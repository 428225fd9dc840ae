package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"fintrack-server/src/budgeting"
	db "fintrack-server/src/db/sql"
	"fintrack-server/src/finance"
	"fintrack-server/src/middleware"
	"fintrack-server/src/payoff"
	"fintrack-server/src/projection"
)

// writeJSON encodes before writing the header so an encoding failure still
// reaches the client as a 500.
func writeJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		log.Printf("ERROR: Failed to encode %T response: %v", v, err)
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

var errNotFinite = errors.New("result is not a finite number")

// writeResult sends calculator output, rejecting NaN and infinite values that
// the inputs can legitimately produce.
func writeResult(w http.ResponseWriter, result map[string]float64) {
	for name, v := range result {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			writeError(w, fmt.Errorf("%w: %s", errNotFinite, name), "invalid result")
			return
		}
	}
	writeJSON(w, http.StatusOK, result)
}

func currentUserID(r *http.Request) int64 {
	id, _ := middleware.UserID(r.Context())
	return id
}

func idParam(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}

// errorStatus picks the response code and client message for err. Calculation
// failures are the caller's input problem, so they surface as 422 with the
// error text.
func errorStatus(err error, fallback string) (int, string) {
	switch {
	case errors.Is(err, db.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, db.ErrConflict):
		return http.StatusConflict, "already exists"
	case errors.Is(err, finance.ErrIRRNoConvergence),
		errors.Is(err, finance.ErrLengthMismatch),
		errors.Is(err, payoff.ErrNegativeAmortization),
		errors.Is(err, payoff.ErrHorizonExceeded),
		errors.Is(err, payoff.ErrNoDebts),
		errors.Is(err, projection.ErrGoalUnreachable),
		errors.Is(err, errNotFinite):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, payoff.ErrUnknownStrategy),
		errors.Is(err, projection.ErrInvalidPlan),
		errors.Is(err, budgeting.ErrInvalidBudget),
		errors.Is(err, errInvalidDebt):
		return http.StatusBadRequest, err.Error()
	}
	return http.StatusInternalServerError, fallback
}

func writeError(w http.ResponseWriter, err error, fallback string) {
	status, msg := errorStatus(err, fallback)
	http.Error(w, msg, status)
}
