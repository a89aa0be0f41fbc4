package handlers

import (
	"github.com/SAP-F-2025/diploma-service/internal/services"
	"github.com/SAP-F-2025/diploma-service/internal/validator"
)

// ErrorResponse is the envelope for all error payloads.
type ErrorResponse struct {
	Message string                     `json:"message"`
	Details string                     `json:"details,omitempty"`
	Errors  validator.ValidationErrors `json:"errors,omitempty"`
	Rows    []services.RowError        `json:"rows,omitempty"`
}

// SuccessResponse wraps a payload with an optional message.
type SuccessResponse struct {
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}
