package handler

import (
	"encoding/json"
	"net/http"

	"bjjvisits-backend/pkg/errors"
	"bjjvisits-backend/pkg/logger"
)

// writeJSONResponse writes a JSON body with the given status code
func writeJSONResponse(w http.ResponseWriter, status int, body interface{}, log *logger.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.WithError(err).Error("Failed to encode response")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// writeErrorResponse writes an error response to the client. Validation
// errors keep their field details so the client can highlight what is
// missing; everything else is reduced to its type and message.
func writeErrorResponse(w http.ResponseWriter, err error, log *logger.Logger) {
	appErr, ok := err.(*errors.AppError)
	if !ok {
		appErr = errors.NewInternalError("An unexpected error occurred", err)
	}

	if appErr.Type == errors.ErrorTypeInternal {
		log.WithError(appErr).Error("Request error")
	} else {
		log.WithError(appErr).Debug("Request rejected")
	}

	response := map[string]interface{}{
		"success": false,
		"error": map[string]interface{}{
			"type":    string(appErr.Type),
			"message": appErr.Message,
		},
	}
	if appErr.Details != nil {
		response["error"].(map[string]interface{})["details"] = appErr.Details
	}

	writeJSONResponse(w, appErr.StatusCode, response, log)
}

// decodeJSONBody decodes a request body, rejecting unknown fields
func decodeJSONBody(r *http.Request, dst interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return errors.NewValidationError("invalid request body", map[string]interface{}{
			"decode": err.Error(),
		})
	}
	return nil
}
