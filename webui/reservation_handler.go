package webui

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"ruserwation/refcheck"
	"ruserwation/reservation"
)

// maxReservationBody caps the JSON body of a booking request.
const maxReservationBody = 64 << 10

// Client-facing messages for reservation failures.
const (
	msgInvalidBody    = "The reservation request could not be read."
	msgNotFound       = "No reservation exists with that booking reference."
	msgNotOwner       = "The reservation could not be updated with the details provided."
	msgInternalError  = "The reservation could not be saved. Please try again later."
	msgTokenIssueFail = "A reservation token could not be issued."
)

// ReservationSubmitter is satisfied by *reservation.Reconciler.
type ReservationSubmitter interface {
	Submit(ctx context.Context, req reservation.Request) (*reservation.Reservation, error)
}

// TokenIssuer is satisfied by *refcheck.Issuer.
type TokenIssuer interface {
	Issue() (string, error)
}

// StatusResponse is the JSON envelope for API replies.
type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	BookRef string `json:"book_ref,omitempty"`
}

// RefCheckResponse carries a freshly issued token.
type RefCheckResponse struct {
	RefCheck string `json:"ref_check"`
}

// WriteJSON writes v with the given status and disables caching.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, StatusResponse{Status: "error", Message: message})
}

// ReservationHandler serves the public booking API.
type ReservationHandler struct {
	submitter ReservationSubmitter
	tokens    TokenIssuer
	logger    *zap.Logger
}

// NewReservationHandler creates the handler.
func NewReservationHandler(submitter ReservationSubmitter, tokens TokenIssuer, logger *zap.Logger) *ReservationHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReservationHandler{submitter: submitter, tokens: tokens, logger: logger}
}

// Reserve handles POST /reservations/reserve.
func (h *ReservationHandler) Reserve(w http.ResponseWriter, r *http.Request) {
	var req reservation.Request
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxReservationBody)).Decode(&req); err != nil {
		h.logger.Debug("malformed reservation body", zap.Error(err))
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	res, err := h.submitter.Submit(r.Context(), req)
	if err != nil {
		status, message := reservationErrorResponse(err)
		if status >= http.StatusInternalServerError {
			h.logger.Error("reservation failed",
				zap.String("request_id", RequestIDFromContext(r.Context())),
				zap.Error(err))
		}
		writeError(w, status, message)
		return
	}

	WriteJSON(w, http.StatusOK, StatusResponse{Status: "ok", BookRef: res.BookRef})
}

// RefCheck handles GET /reservations/ref-check.
func (h *ReservationHandler) RefCheck(w http.ResponseWriter, r *http.Request) {
	token, err := h.tokens.Issue()
	if err != nil {
		h.logger.Error("failed to issue ref_check", zap.Error(err))
		writeError(w, http.StatusInternalServerError, msgTokenIssueFail)
		return
	}
	WriteJSON(w, http.StatusOK, RefCheckResponse{RefCheck: token})
}

// reservationErrorResponse maps a Submit error to a status code and the
// message the client sees.
func reservationErrorResponse(err error) (int, string) {
	var ve *reservation.ValidationError
	switch {
	case refcheck.IsTokenError(err):
		return http.StatusBadRequest, refcheck.ClientMessage
	case errors.As(err, &ve):
		return http.StatusBadRequest, ve.Message
	case errors.Is(err, reservation.ErrReservationNotFound):
		return http.StatusNotFound, msgNotFound
	case errors.Is(err, reservation.ErrOwnershipMismatch):
		return http.StatusForbidden, msgNotOwner
	default:
		return http.StatusInternalServerError, msgInternalError
	}
}
