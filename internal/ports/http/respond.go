package http

import (
	"context"
	"encoding/json"
	"errors"
	"flash-alliance/internal/app"
	"flash-alliance/internal/apperr"
	"flash-alliance/internal/model"
	"flash-alliance/internal/ports/http/middleware/auth"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const maxBodySize = 1 << 20

type errorResponse struct {
	Kind    string   `json:"kind"`
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}

func (ser server) badRequest(w http.ResponseWriter, err error) {
	details := make([]string, 0)
	for _, e := range multierr.Errors(err) {
		details = append(details, e.Error())
	}
	ser.logger.Warn("bad request: " + err.Error())
	ser.writeJSON(w, http.StatusBadRequest, errorResponse{Kind: string(apperr.KindValidation), Message: "invalid request", Details: details})
}

func (ser server) serverError(w http.ResponseWriter, message string) {
	ser.logger.Error(message)
	ser.writeJSON(w, http.StatusInternalServerError, errorResponse{Kind: string(apperr.KindUnknown), Message: message})
}

// statusOf maps the error taxonomy onto HTTP status codes.
func statusOf(err error) int {
	if app.IsNotFound(err) {
		return http.StatusNotFound
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindAuthorization:
		return http.StatusForbidden
	case apperr.KindState, apperr.KindQuorum:
		return http.StatusConflict
	case apperr.KindTemporal:
		return http.StatusTooEarly
	case apperr.KindTransfer:
		return http.StatusUnprocessableEntity
	case apperr.KindPaused:
		return http.StatusLocked
	}
	return http.StatusInternalServerError
}

// ledgerError reports a failed ledger operation.
func (ser server) ledgerError(w http.ResponseWriter, operation string, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		ser.serverError(w, operation+" failed: "+err.Error())
		return
	}

	ser.logger.Info(operation+" rejected", zap.String("kind", string(apperr.KindOf(err))), zap.String("error", err.Error()))
	ser.writeJSON(w, status, errorResponse{Kind: string(apperr.KindOf(err)), Message: err.Error()})
}

func (ser server) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	response, err := json.Marshal(body)
	if err != nil {
		ser.logger.Error("marshalling the response failed: " + err.Error())
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(response); err != nil {
		ser.logger.Error("failed to write the response: " + err.Error())
	}
}

func (ser server) ok(w http.ResponseWriter, body interface{}) {
	ser.writeJSON(w, http.StatusOK, body)
}

func (ser server) done(w http.ResponseWriter) {
	ser.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// readBody decodes a JSON request body into dest. An empty body leaves dest
// untouched.
func readBody(w http.ResponseWriter, r *http.Request, dest interface{}) error {
	if r.Body == nil {
		return nil
	}
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil && !errors.Is(err, io.EOF) {
		return errors.New("failed to decode the request body: " + err.Error())
	}
	return nil
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func callerOf(r *http.Request) model.Address {
	caller, _ := auth.CallerFrom(r.Context())
	return caller
}

func parseAddress(errs *error, name string, raw string) model.Address {
	address, err := model.ParseAddress(normalize(raw))
	if err != nil {
		*errs = multierr.Append(*errs, errors.New(name+": "+err.Error()))
	}
	return address
}

func parseAmount(errs *error, name string, raw string) model.Amount {
	amount, err := model.ParseAmount(strings.TrimSpace(raw))
	if err != nil {
		*errs = multierr.Append(*errs, errors.New(name+": "+err.Error()))
	}
	return amount
}

func parseUint(errs *error, name string, raw string) uint64 {
	value, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		*errs = multierr.Append(*errs, errors.New(name+" is not a valid number"))
	}
	return value
}

func parseSeconds(errs *error, name string, seconds int64) time.Duration {
	duration, err := model.Seconds(seconds)
	if err != nil {
		*errs = multierr.Append(*errs, errors.New(name+": "+err.Error()))
	}
	return duration
}
