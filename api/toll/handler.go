// Package toll exposes the quoting service over HTTP.
package toll

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/kilianp07/tolltag/core/model"
	"github.com/kilianp07/tolltag/core/request"
	coretoll "github.com/kilianp07/tolltag/core/toll"
)

// Path is where NewHandler is mounted.
const Path = "/api/toll"

// MaxBodyBytes bounds the size of a quote request body.
const MaxBodyBytes = 64 << 10

// Quoter prices vehicles on behalf of the handler.
type Quoter interface {
	Quote(ctx context.Context, source string, v any) (coretoll.Quote, error)
	Reject(ctx context.Context, source string, err error) (coretoll.Quote, error)
}

// Response is the body of a successful quote.
type Response struct {
	ID      string      `json:"id"`
	Vehicle string      `json:"vehicle"`
	Rule    string      `json:"rule"`
	Amount  model.Money `json:"amount"`
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// NewHandler returns an HTTP handler pricing one vehicle per POST /api/toll.
func NewHandler(q Quoter) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
		if err != nil {
			status := http.StatusBadRequest
			if errors.As(err, new(*http.MaxBytesError)) {
				status = http.StatusRequestEntityTooLarge
			}
			writeError(w, status, fmt.Errorf("read body: %w", err))
			return
		}
		v, err := decodeVehicle(body)
		var quote coretoll.Quote
		if err != nil {
			quote, err = q.Reject(r.Context(), "http", err)
		} else {
			quote, err = q.Quote(r.Context(), "http", v)
		}
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		writeJSON(w, http.StatusOK, Response{
			ID:      quote.ID,
			Vehicle: quote.Kind.String(),
			Rule:    string(quote.Rule),
			Amount:  quote.Amount,
		})
	})
}

func decodeVehicle(body []byte) (model.Vehicle, error) {
	reqs, err := request.Parse(body, "json")
	if err != nil {
		return nil, err
	}
	if len(reqs) != 1 {
		return nil, fmt.Errorf("%w: expected exactly one vehicle, got %d", coretoll.ErrUnrecognizedVehicleType, len(reqs))
	}
	return request.Decode(reqs[0])
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, coretoll.ErrNullVehicle):
		return http.StatusBadRequest
	case errors.Is(err, coretoll.ErrUnrecognizedVehicleType):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadRequest
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	resp := errorResponse{Error: err.Error()}
	if k := coretoll.ErrorKind(err); k != "internal" {
		resp.Kind = k
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
