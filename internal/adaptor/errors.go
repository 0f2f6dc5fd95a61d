package adaptor

import (
	"errors"
	"net/http"

	"rental-booking/internal/usecase"
	"rental-booking/pkg/utils"

	"go.uber.org/zap"
)

// handleServiceError maps a service error onto the HTTP envelope.
func handleServiceError(w http.ResponseWriter, log *zap.Logger, err error, operation string) {
	kind := usecase.KindOf(err)
	fields := []zap.Field{
		zap.Error(err),
		zap.String("operation", operation),
		zap.String("kind", kind.String()),
	}

	switch kind {
	case usecase.KindConflict:
		log.Warn(operation+" failed - dates unavailable", fields...)
		utils.ResponseConflict(w, err.Error(), nil)

	case usecase.KindInvalidRange:
		log.Warn(operation+" failed - invalid range", fields...)
		utils.ResponseBadRequest(w, err.Error(), nil)

	case usecase.KindInvalidTransition:
		log.Warn(operation+" failed - invalid state", fields...)
		utils.ResponseConflict(w, err.Error(), nil)

	case usecase.KindDeadlineExpired:
		log.Warn(operation+" failed - deadline expired", fields...)
		utils.ResponseGone(w, err.Error())

	case usecase.KindPaymentMismatch:
		log.Error(operation+" failed - payment mismatch", fields...)
		utils.ResponsePaymentRequired(w, "Payment could not be applied to this booking")

	case usecase.KindInsufficientPoints:
		var pointsErr *usecase.InsufficientPointsError
		errors.As(err, &pointsErr)
		log.Warn(operation+" failed - insufficient points", fields...)
		utils.ResponseUnprocessable(w, err.Error(), map[string]int64{
			"requested": pointsErr.Requested,
			"available": pointsErr.Available,
			"minimum":   pointsErr.Minimum,
		})

	case usecase.KindNotFound:
		log.Warn(operation+" failed - not found", fields...)
		utils.ResponseNotFound(w, err.Error())

	case usecase.KindValidation:
		var validationErr *usecase.ValidationError
		errors.As(err, &validationErr)
		log.Warn(operation+" validation failed", fields...)
		var details any
		if len(validationErr.Fields) > 0 {
			details = validationErr.Fields
		}
		utils.ResponseBadRequest(w, validationErr.Message, details)

	case usecase.KindForbidden:
		log.Warn(operation+" failed - forbidden", fields...)
		utils.ResponseForbidden(w, err.Error())

	default:
		log.Error("Failed to "+operation, fields...)
		utils.ResponseInternalError(w, "Internal server error")
	}
}
