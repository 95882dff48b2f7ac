package http

import (
	"errors"
	"net/http"

	"activity/internal/adapters"
	"activity/internal/core"
	applog "activity/internal/log"
)

// OrderCreatedResponse is returned by POST /api/orders.
type OrderCreatedResponse struct {
	Reference string `json:"reference"`
	Year      int    `json:"year"`
	Month     int    `json:"month"`
}

func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req OrderRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	order, err := req.Order(s.now())
	if err != nil {
		UnprocessableEntityError(err.Error()).Write(w)
		return
	}

	ref, err := s.store.RecordOrder(ctx, order)
	switch {
	case err == nil:
	case errors.Is(err, adapters.ErrReadOnly):
		NotImplementedError("this backend does not accept orders").Write(w)
		return
	case isValidationError(err):
		UnprocessableEntityError(err.Error()).Write(w)
		return
	default:
		applog.NewStructuredLogger(applog.FromContext(ctx)).LogError(ctx, "Failed to record order", err,
			applog.ComponentOrder, applog.OpRecord,
			applog.NewFields().WithOrder(order.CategoryKey, order.Amount.Cents, string(order.Status)))
		InternalServerError("failed to record order").Write(w)
		return
	}

	NewJSONResponse().
		Status(http.StatusCreated).
		Body(OrderCreatedResponse{Reference: ref, Year: order.Date.Year(), Month: order.Date.Month()}).
		Write(w)
}

func isValidationError(err error) bool {
	for _, target := range []error{
		core.ErrInvalidDay, core.ErrInvalidMonth, core.ErrInvalidAmount,
		core.ErrEmptyCategory, core.ErrInvalidStatus, core.ErrReferenceTooLong,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
