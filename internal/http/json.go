package httpx

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	apperrors "github.com/target/momoino-ui/internal/errors"
)

// WriteJSON writes a JSON response with the given status code and data.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(code)
	if _, err := buf.WriteTo(w); err != nil {
		// Response writer errors (e.g., client disconnect) can't be recovered from here.
		return
	}
}

// ErrorParams groups parameters for WriteError.
type ErrorParams struct {
	Code    int
	ErrCode string
	Err     error
}

// WriteError writes a JSON error response using ErrorParams.
func WriteError(w http.ResponseWriter, p ErrorParams) {
	WriteJSON(w, p.Code, map[string]string{"error": p.ErrCode, "message": p.Err.Error()})
}

// WriteAppError maps err onto a status and writes it. Backend messages are passed through;
// other failures are reported with fallback so internals do not leak.
func WriteAppError(w http.ResponseWriter, err error, fallback string) {
	status, code := http.StatusBadGateway, string(apperrors.ErrCodeUnavailable)
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		code = string(appErr.Code)
		status = statusForCode(appErr.Code)
	}
	WriteError(w, ErrorParams{
		Code:    status,
		ErrCode: code,
		Err:     errors.New(apperrors.UserMessage(err, fallback)),
	})
}

func statusForCode(code apperrors.ErrorCode) int {
	switch code {
	case apperrors.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case apperrors.ErrCodeForbidden:
		return http.StatusForbidden
	case apperrors.ErrCodeNotFound:
		return http.StatusNotFound
	case apperrors.ErrCodeConflict:
		return http.StatusConflict
	case apperrors.ErrCodeValidation:
		return http.StatusBadRequest
	case apperrors.ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case apperrors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}
