/*
Copyright 2025 Tradepost Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package apierror carries typed service errors across the API boundary.
// The service layer returns an APIError with one of the codes below; the
// HTTP layer maps the code to a status with MapErrorToHTTPStatus.
package apierror

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"
)

type ErrorCode string

const (
	// ErrNotFound: the listing, offer, order or payment does not exist.
	ErrNotFound ErrorCode = "NOT_FOUND"
	// ErrConflict: a guarded status transition found the row in another
	// state, e.g. accepting an offer that was already rejected.
	ErrConflict ErrorCode = "CONFLICT"
	// ErrBadRequest: the request is semantically wrong, e.g. a
	// non-positive offer amount.
	ErrBadRequest ErrorCode = "BAD_REQUEST"
	// ErrInvalidInput: the request body failed validation.
	ErrInvalidInput   ErrorCode = "INVALID_INPUT"
	ErrInternalServer ErrorCode = "INTERNAL_SERVER_ERROR"
)

type APIError struct {
	Code    ErrorCode   `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func (e APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewAPIError(code ErrorCode, message string, details interface{}) APIError {
	logrus.Error(details)
	return APIError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

var statusByCode = map[ErrorCode]int{
	ErrNotFound:       http.StatusNotFound,
	ErrConflict:       http.StatusConflict,
	ErrBadRequest:     http.StatusBadRequest,
	ErrInvalidInput:   http.StatusBadRequest,
	ErrInternalServer: http.StatusInternalServerError,
}

// MapErrorToHTTPStatus resolves an error to its HTTP status. Wrapped
// APIErrors are unwrapped; anything else is a 500.
func MapErrorToHTTPStatus(err error) int {
	var apiErr APIError
	if errors.As(err, &apiErr) {
		if status, ok := statusByCode[apiErr.Code]; ok {
			return status
		}
	}
	return http.StatusInternalServerError
}
