package api

import (
	"errors"
	"net/http"

	"go.vocdoni.io/ballot/httprouter"
	"go.vocdoni.io/ballot/log"
	"go.vocdoni.io/ballot/types"
)

// Error is the body of every failed request.
type Error struct {
	Kind    string `json:"error"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

var (
	errMalformedBody     = errors.New("malformed request body")
	errUnknownCollection = errors.New("unknown collection")
)

// statusByKind maps the error kinds to the HTTP status they are served with.
var statusByKind = map[string]int{
	types.KindValidationError:       http.StatusBadRequest,
	types.KindInvalidIdentityFormat: http.StatusBadRequest,
	types.KindEmptyPayload:          http.StatusBadRequest,
	types.KindIdentityUnresolved:    http.StatusUnprocessableEntity,
	types.KindNotConnected:          http.StatusUnauthorized,
	types.KindInsufficientFunds:     http.StatusPaymentRequired,
	types.KindUserRejected:          http.StatusForbidden,
	types.KindContractRejected:      http.StatusConflict,
	types.KindWalletUnavailable:     http.StatusPreconditionFailed,
	types.KindContractNotFound:      http.StatusBadGateway,
	types.KindGasEstimationFailed:   http.StatusBadGateway,
	types.KindUploadFailed:          http.StatusBadGateway,
	types.KindTransientNetworkError: http.StatusServiceUnavailable,
	types.KindConfirmationTimeout:   http.StatusGatewayTimeout,
}

// StatusFor returns the HTTP status of err.
func StatusFor(err error) int {
	if errors.Is(err, errMalformedBody) || errors.Is(err, errUnknownCollection) {
		return http.StatusBadRequest
	}
	if status, ok := statusByKind[types.Kind(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

func sendError(ctx *httprouter.HTTPContext, err error) {
	body := Error{Kind: types.Kind(err), Message: err.Error()}
	if errors.Is(err, errMalformedBody) || errors.Is(err, errUnknownCollection) {
		body.Kind = types.KindValidationError
	}
	var verr *types.ValidationError
	if errors.As(err, &verr) {
		body.Field = verr.Field
	}
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		log.Warnw("request failed", "path", ctx.Request.URL.Path, "kind", body.Kind, "error", err)
	}
	if serr := ctx.SendJSON(body, status); serr != nil {
		log.Debugw("cannot send error response", "error", serr)
	}
}
