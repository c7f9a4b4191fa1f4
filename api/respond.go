package api

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/rushteam/gameark/core"
	"github.com/rushteam/gameark/logging"
)

// errorResponse 是错误响应体。
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func respondJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	data, err := json.Marshal(body)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("marshal response failed")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Ctx(r.Context()).Debug().Err(err).Msg("write response failed")
	}
}

// respondError 按 DomainError 的 Code 选择状态码；5xx 记 error 日志。
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusOf(err)
	msg := err.Error()
	if status >= 500 {
		logging.Ctx(r.Context()).Error().Err(err).Str("code", code).Str("path", r.URL.Path).Msg("request failed")
		if status == http.StatusInternalServerError {
			msg = "internal error"
		}
	}
	respondJSON(w, r, status, errorResponse{Error: msg, Code: code})
}

func statusOf(err error) (int, string) {
	var verr validator.ValidationErrors
	if errors.As(err, &verr) {
		return http.StatusBadRequest, core.ErrorCodeInvalidInput
	}
	de := core.GetDomainError(err)
	if de == nil {
		return http.StatusInternalServerError, core.ErrorCodeInternalError
	}
	switch de.Code {
	case core.ErrorCodeNotFound:
		return http.StatusNotFound, de.Code
	case core.ErrorCodeInvalidInput:
		return http.StatusBadRequest, de.Code
	case core.ErrorCodeUnavailable:
		return http.StatusServiceUnavailable, de.Code
	case core.ErrorCodeNotSupported:
		return http.StatusNotImplemented, de.Code
	default:
		return http.StatusInternalServerError, de.Code
	}
}

func invalidInput(msg string, err error) error {
	return core.WrapDomainError(core.ModuleRecommend, core.ErrorCodeInvalidInput, msg, err)
}
