package api

import (
	"errors"

	"FinCast/internal/domain/models"
	xhttp "FinCast/pkg/http"
)

// toAppError maps domain errors onto API errors. Unknown errors become 500.
func toAppError(err error) *xhttp.AppError {
	var (
		appErr *xhttp.AppError
		data   *models.InsufficientDataError
		seqs   *models.InsufficientSequencesError
	)
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.As(err, &data):
		return xhttp.NewAppError("ERR_INSUFFICIENT_DATA", "data", data.Error(), 400).
			WithParams(map[string]interface{}{"rows": data.Rows, "required": data.Required, "window": data.Window}).
			WithError(err)
	case errors.As(err, &seqs):
		return xhttp.NewAppError("ERR_INSUFFICIENT_SEQUENCES", "data", seqs.Error(), 400).
			WithParams(map[string]interface{}{
				"train": seqs.Train, "test": seqs.Test,
				"min_train": seqs.MinTrain, "min_test": seqs.MinTest,
			}).
			WithError(err)
	case errors.Is(err, models.ErrColumnNotFound):
		return xhttp.NewAppError("ERR_COLUMN_NOT_FOUND", "column", err.Error(), 400).WithError(err)
	case errors.Is(err, models.ErrUnknownModel):
		return xhttp.NewAppError("ERR_UNKNOWN_MODEL", "kind", err.Error(), 400).WithError(err)
	case errors.Is(err, models.ErrInvalidInput):
		return xhttp.BadRequestError(err.Error()).WithError(err)
	case errors.Is(err, models.ErrNoDataAvailable):
		return xhttp.NewAppError("ERR_NO_DATA", "", err.Error(), 404).WithError(err)
	default:
		return xhttp.InternalError("Something went wrong").WithError(err)
	}
}
