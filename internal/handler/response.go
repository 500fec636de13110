package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"pet-adoption-portal/internal/model"
	"pet-adoption-portal/pkg/apierror"
)

func writeSuccess(w http.ResponseWriter, status int, data any, meta *model.Meta) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Success: true,
		Data:    data,
		Meta:    meta,
	})
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	body := &model.APIError{
		Code:    "INTERNAL_ERROR",
		Message: "Unexpected server error",
	}

	var apiErr *apierror.APIError
	switch {
	case errors.As(err, &apiErr):
		status = statusForUpstream(apiErr)
		body.Code = apiErr.Code
		body.Message = apiErr.Message
	case errors.Is(err, model.ErrInvalidInput):
		status = http.StatusBadRequest
		body.Code = "BAD_REQUEST"
		body.Message = "Invalid input"
		body.Details = err.Error()
	default:
		slog.Error("unhandled error in writeError", "error", err.Error())
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Success: false,
		Error:   body,
	})
}

// statusForUpstream maps a remote API failure onto this server's answer.
// Server-side upstream failures become 502; client errors pass through.
func statusForUpstream(err *apierror.APIError) int {
	switch err.Code {
	case apierror.CodeMissingCredential, apierror.CodeSessionExpired:
		return http.StatusUnauthorized
	case apierror.CodeUnreachable:
		return http.StatusBadGateway
	}
	if err.HTTPStatus >= 400 && err.HTTPStatus < 500 {
		return err.HTTPStatus
	}
	return http.StatusBadGateway
}
