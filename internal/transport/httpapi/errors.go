package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/fulfillment/internal/domain"
)

// Коды ошибок в теле ответа.
const (
	codeValidation        = "validation_error"
	codeNotFound          = "not_found"
	codeInsufficientStock = "insufficient_stock"
	codeInvalidTransition = "invalid_transition"
	codeConflict          = "conflict"
	codeInternal          = "internal_error"
	codeRouteNotFound     = "route_not_found"
	codeMethodNotAllowed  = "method_not_allowed"
)

// apiError — ошибка, которую видит клиент API.
type apiError struct {
	Code    string
	Message string
	Status  int
	Details map[string]any
}

type errorBody struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	RequestID string         `json:"requestId,omitempty"`
}

func newAPIError(code, message string, status int) apiError {
	return apiError{Code: code, Message: sanitize(message), Status: status}
}

func (e apiError) withDetails(details map[string]any) apiError {
	e.Details = details
	return e
}

func writeAPIError(ctx context.Context, w http.ResponseWriter, e apiError) {
	status := e.Status
	if status == 0 {
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, errorBody{
		Code:      e.Code,
		Message:   e.Message,
		Details:   e.Details,
		RequestID: middleware.GetReqID(ctx),
	})
}

// writeServiceError переводит доменную ошибку в HTTP-ответ.
// Всё, что не распознано, отдаётся как 500 без подробностей.
func writeServiceError(ctx context.Context, w http.ResponseWriter, logger *log.Entry, err error) {
	writeAPIError(ctx, w, classify(ctx, logger, err))
}

func classify(ctx context.Context, logger *log.Entry, err error) apiError {
	var stockErr *domain.InsufficientStockError
	var transitionErr *domain.InvalidTransitionError

	switch {
	case errors.As(err, &stockErr):
		return newAPIError(codeInsufficientStock, err.Error(), http.StatusConflict).withDetails(map[string]any{
			"productId":   stockErr.ProductID,
			"productName": stockErr.ProductName,
			"requested":   stockErr.Requested,
			"available":   stockErr.Available,
		})
	case errors.As(err, &transitionErr):
		return newAPIError(codeInvalidTransition, err.Error(), http.StatusConflict).withDetails(map[string]any{
			"from": string(transitionErr.From),
			"to":   string(transitionErr.To),
		})
	case domain.IsValidation(err):
		return newAPIError(codeValidation, err.Error(), http.StatusBadRequest)
	case domain.IsNotFound(err):
		return newAPIError(codeNotFound, err.Error(), http.StatusNotFound)
	case domain.IsVersionConflict(err), errors.Is(err, domain.ErrOrderNumberConflict):
		return newAPIError(codeConflict, err.Error(), http.StatusConflict)
	default:
		logger.WithError(err).WithField("request_id", middleware.GetReqID(ctx)).Error("request failed")
		return newAPIError(codeInternal, "internal server error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

const maxMessageBytes = 512

// sanitize убирает переводы строк и обрезает сообщение по границе руны.
func sanitize(value string) string {
	value = strings.ReplaceAll(value, "\n", " ")
	value = strings.ReplaceAll(value, "\r", " ")
	value = strings.TrimSpace(value)
	if len(value) > maxMessageBytes {
		cut := maxMessageBytes
		for cut > 0 && !utf8.RuneStart(value[cut]) {
			cut--
		}
		value = value[:cut]
	}
	return value
}
