package service

import (
	"fmt"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/kjstillabower/forecast-gateway/internal/models"
	"github.com/kjstillabower/forecast-gateway/internal/validation"
)

// Messages placed in failure bodies.
const (
	MessageFetchFailed  = "Failed to fetch weather data"
	MessageParseFailed  = "Failed to parse API response"
	MessageMissingShape = "Invalid API response: missing hourly data"
)

// fallbackBody is used if a failure body itself cannot be encoded.
const fallbackBody = `{"message":"Internal error encoding response"}`

type rejectionBody struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
}

type failureBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

type statusBody struct {
	Message string `json:"message"`
	Details string `json:"details"`
}

type shapeBody struct {
	Message     string          `json:"message"`
	APIResponse json.RawMessage `json:"apiResponse"`
}

// StatusMessage is the message for a non-200 upstream status.
func StatusMessage(code int) string {
	return fmt.Sprintf("Error fetching data from Open-Meteo. Status code: %d", code)
}

// Response renders the outbound response for a classified failure.
func (e *Error) Response() models.OutboundResponse {
	var v any
	switch e.Kind {
	case KindClientRequest:
		v = rejectionBody{StatusCode: e.StatusCode, Message: validation.RejectionMessage(e.Path, e.Method)}
	case KindUpstreamTransport, KindUpstreamTimeout:
		v = failureBody{Message: MessageFetchFailed, Error: errorDetail(e.Err)}
	case KindUpstreamStatus:
		v = statusBody{Message: StatusMessage(e.StatusCode), Details: string(e.UpstreamBody)}
	case KindResponseDecode:
		v = failureBody{Message: MessageParseFailed, Error: errorDetail(e.Err)}
	case KindResponseShape:
		v = shapeBody{Message: MessageMissingShape, APIResponse: json.RawMessage(e.UpstreamBody)}
	default:
		v = failureBody{Message: "Internal error", Error: errorDetail(e.Err)}
	}
	return jsonResponse(e.StatusCode, v)
}

func errorDetail(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func jsonResponse(status int, v any) models.OutboundResponse {
	body, err := json.MarshalNoEscape(v)
	if err != nil {
		return rawResponse(http.StatusInternalServerError, []byte(fallbackBody))
	}
	return rawResponse(status, body)
}

func rawResponse(status int, body []byte) models.OutboundResponse {
	return models.OutboundResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(body),
	}
}
