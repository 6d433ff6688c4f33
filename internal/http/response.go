package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/sportshop/ecommerce/internal/otel"
)

type errorBody struct {
	Message string `json:"message"`
}

type envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *errorBody  `json:"error,omitempty"`
}

func WriteSuccessResponse(
	c context.Context,
	w http.ResponseWriter,
	statusCode int,
	data interface{},
) {
	writeJson(c, w, statusCode, envelope{Success: true, Data: data})
}

func WriteErrorResponse(
	c context.Context,
	w http.ResponseWriter,
	statusCode int,
	message string,
) {
	writeJson(c, w, statusCode, envelope{Success: false, Error: &errorBody{Message: message}})
}

func writeJson(c context.Context, w http.ResponseWriter, statusCode int, body envelope) {
	c, span := Tracer.Start(c, "WriteJsonResponse")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str("tag", "WriteJsonResponse").Logger()

	w.Header().Add(HeaderContentType, HeaderValueJson)
	w.WriteHeader(statusCode)

	err := json.NewEncoder(w).Encode(body)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return
	}
}
