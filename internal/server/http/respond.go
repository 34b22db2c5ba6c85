package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/and161185/foodpocket/internal/errs"
	"go.uber.org/zap"
)

const (
	msgBadRequest   = "Invalid request; read document for correct parameters"
	msgUnauthorized = "Unauthorized, please login"
	msgLastPocket   = "Failed, cannot remove the last pocket"
	msgForbidden    = "Failed, operation not allowed"
	msgUsernameDup  = "Username has been already registered by others"
	msgEmailDup     = "Email has been already registered by others"
	msgTooMany      = "Too many requests, try again later"
	msgInternal     = "internal error"

	resultOK          = "successful"
	resultLoginFailed = "login failed"
)

// envelope is the body of every JSON response.
type envelope struct {
	Result  string `json:"result"`
	Data    any    `json:"data"`
	Message string `json:"message,omitempty"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.log.Warn("write response", zap.Error(err))
	}
}

// ok writes a successful envelope; nil data renders as "".
func (s *Server) ok(w http.ResponseWriter, data any) {
	if data == nil {
		data = ""
	}
	s.writeJSON(w, http.StatusOK, envelope{Result: resultOK, Data: data})
}

func badRequest(w http.ResponseWriter) {
	http.Error(w, msgBadRequest, http.StatusBadRequest)
}

// fail maps a service error to a response. entity names the object of a 404.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error, entity string) {
	var ve *errs.ValidationError
	switch {
	case errors.As(err, &ve):
		http.Error(w, "Invalid request; "+ve.Msg, http.StatusBadRequest)
	case errors.Is(err, errs.ErrInvalidInput):
		badRequest(w)
	case errors.Is(err, errs.ErrUnauthorized):
		http.Error(w, msgUnauthorized, http.StatusUnauthorized)
	case errors.Is(err, errs.ErrLastPocket):
		http.Error(w, msgLastPocket, http.StatusForbidden)
	case errors.Is(err, errs.ErrForbidden):
		http.Error(w, msgForbidden, http.StatusForbidden)
	case errors.Is(err, errs.ErrNotFound):
		http.Error(w, "Failed, "+entity+" not found", http.StatusNotFound)
	case errors.Is(err, errs.ErrUsernameTaken):
		s.writeJSON(w, http.StatusConflict, envelope{Result: "409", Data: "", Message: msgUsernameDup})
	case errors.Is(err, errs.ErrEmailTaken):
		s.writeJSON(w, http.StatusConflict, envelope{Result: "409", Data: "", Message: msgEmailDup})
	case errors.Is(err, errs.ErrRateLimited):
		http.Error(w, msgTooMany, http.StatusTooManyRequests)
	default:
		s.log.Error("request failed",
			zap.String("path", routePath(r)),
			zap.Error(err),
		)
		http.Error(w, msgInternal, http.StatusInternalServerError)
	}
}
