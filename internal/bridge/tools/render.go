package tools

import (
	"strings"

	"github.com/vietddude/crmbridge/internal/infra/remote/remoteerr"
)

// ErrorBody is the error object inside the failure envelope.
type ErrorBody struct {
	Message    string `json:"message"`
	Type       string `json:"type"`
	StatusCode int    `json:"statusCode"`
	Suggestion string `json:"suggestion,omitempty"`
}

// ErrorEnvelope is the failure shape rendered to the calling agent.
type ErrorEnvelope struct {
	Success       bool      `json:"success"`
	Error         ErrorBody `json:"error"`
	CorrelationID string    `json:"correlationId"`
	RequestID     string    `json:"requestId,omitempty"`
	Text          string    `json:"text"`
}

// SuccessEnvelope is the success shape rendered to the calling agent.
type SuccessEnvelope struct {
	Success   bool   `json:"success"`
	Data      any    `json:"data"`
	RequestID string `json:"requestId,omitempty"`
}

// RenderError builds the failure envelope for one RemoteError, including the
// human-readable reference line and next-steps block.
func RenderError(re *remoteerr.RemoteError, requestID string) ErrorEnvelope {
	var b strings.Builder
	b.WriteString(re.Message)
	if re.CorrelationID != "" {
		b.WriteString("\n\nReference ID: ")
		b.WriteString(re.CorrelationID)
	}
	if re.Suggestion != "" {
		b.WriteString("\n\nNext steps:\n- ")
		b.WriteString(re.Suggestion)
	}

	return ErrorEnvelope{
		Success: false,
		Error: ErrorBody{
			Message:    re.Message,
			Type:       string(re.Classification),
			StatusCode: re.Status,
			Suggestion: re.Suggestion,
		},
		CorrelationID: re.CorrelationID,
		RequestID:     requestID,
		Text:          b.String(),
	}
}

// RenderSuccess builds the success envelope.
func RenderSuccess(data any, requestID string) SuccessEnvelope {
	return SuccessEnvelope{
		Success:   true,
		Data:      data,
		RequestID: requestID,
	}
}
