package models

import (
	"errors"
	"fmt"
)

// Reservation error codes. Contention outcomes (alreadyHeld,
// insufficientAvailability) are expected and user-visible, not system faults.
const (
	CodeNotFound                 = "notFound"
	CodeAlreadyHeld              = "alreadyHeld"
	CodeInsufficientAvailability = "insufficientAvailability"
	CodeInvalidInput             = "invalidInput"
	CodeStoreUnavailable         = "storeUnavailable"
)

type ReservationError struct {
	Code    string
	Message string
}

func (e *ReservationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewNotFoundError(msg string) error {
	return &ReservationError{Code: CodeNotFound, Message: msg}
}

func NewAlreadyHeldError(msg string) error {
	return &ReservationError{Code: CodeAlreadyHeld, Message: msg}
}

func NewInsufficientAvailabilityError(msg string) error {
	return &ReservationError{Code: CodeInsufficientAvailability, Message: msg}
}

func NewInvalidInputError(msg string) error {
	return &ReservationError{Code: CodeInvalidInput, Message: msg}
}

func NewStoreUnavailableError(msg string) error {
	return &ReservationError{Code: CodeStoreUnavailable, Message: msg}
}

// ErrorCode extracts the reservation error code, or "" for plain errors.
func ErrorCode(err error) string {
	var re *ReservationError
	if errors.As(err, &re) {
		return re.Code
	}
	return ""
}

func IsNotFound(err error) bool     { return ErrorCode(err) == CodeNotFound }
func IsAlreadyHeld(err error) bool  { return ErrorCode(err) == CodeAlreadyHeld }
func IsInvalidInput(err error) bool { return ErrorCode(err) == CodeInvalidInput }
func IsInsufficientAvailability(err error) bool {
	return ErrorCode(err) == CodeInsufficientAvailability
}
func IsStoreUnavailable(err error) bool { return ErrorCode(err) == CodeStoreUnavailable }
