package target

import (
	"errors"
	"io"
	"net/http"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

const maxBodyBytes = 1 << 20

// Response is the JSON body returned by the connect handler.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ConnectHandler serves POST /connect-api.
func ConnectHandler(r *Registrar, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			WriteJSON(w, http.StatusMethodNotAllowed, Response{Message: "Method not allowed"})
			return
		}

		var body Request
		dec := jsonAPI.NewDecoder(http.MaxBytesReader(w, req.Body, maxBodyBytes))
		// 空 body 按 {} 处理
		if err := dec.Decode(&body); err != nil && !errors.Is(err, io.EOF) {
			logger.Info("connect-api: undecodable body", zap.Error(err))
			WriteJSON(w, http.StatusBadRequest, Response{Message: "Invalid JSON body"})
			return
		}

		t, err := r.Register(req.Context(), body)
		var missing *MissingFieldError
		switch {
		case errors.As(err, &missing):
			WriteJSON(w, http.StatusBadRequest, Response{Message: "API URL is required"})
			return
		case err != nil:
			logger.Error("connect-api: registration failed", zap.Error(err))
			WriteJSON(w, http.StatusInternalServerError, Response{Message: "Internal server error"})
			return
		}

		logger.Info("Received API URL", zap.String("apiUrl", t.URL), zap.String("id", t.ID))
		WriteJSON(w, http.StatusOK, Response{Success: true, Message: "API connected"})
	})
}

// ListHandler serves GET /targets with the registered targets as a JSON array.
func ListHandler(r *Registrar) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		WriteJSON(w, http.StatusOK, r.Targets())
	})
}

// WriteJSON writes v with the given status code.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = jsonAPI.NewEncoder(w).Encode(v)
}
