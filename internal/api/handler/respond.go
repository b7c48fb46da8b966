package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"draftpress/internal/api/middleware"
	"draftpress/internal/common"

	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

// decodeJSON reads a single JSON value from the request body into dst. An empty body leaves
// dst zeroed so that field validation can report what is missing.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	err := dec.Decode(dst)
	if err == nil {
		if dec.Decode(&struct{}{}) != io.EOF {
			return common.NewValidationError("Invalid request payload")
		}
		return nil
	}
	if errors.Is(err, io.EOF) {
		return nil
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return common.NewValidationError(typeErr.Field+" has the wrong type, expected "+typeErr.Type.String(), typeErr.Field)
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return common.NewValidationError("Request body too large")
	}
	return common.NewValidationError("Invalid request payload")
}

// respondError writes the public form of err. Server-side failures are logged with their detail.
func respondError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	code := common.HTTPStatusFromError(err)
	if code >= http.StatusInternalServerError {
		userID, _ := middleware.GetUserIDFromContext(r.Context())
		logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("user_id", userID),
			zap.Error(err))
	}
	common.RespondWithError(w, code, common.PublicMessage(err))
}

func currentUserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, common.MsgNotLoggedIn)
	}
	return userID, ok
}
