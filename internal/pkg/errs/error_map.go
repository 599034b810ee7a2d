/*
Package errs provides custom error types and application-level error code constants.

This file defines the map from error codes to the CustomError template, used to
standardize HTTP responses, command replies, and internal error handling.
*/
package errs

import "net/http"

// errorMap stores the CustomError template corresponding to every application error code.
var errorMap = map[int]CustomError{
	// 1xxx: Client Protocol and Request Errors
	ErrRateLimitExceeded: {Code: ErrRateLimitExceeded, Message: "Too many requests. Please try again later.", Status: http.StatusTooManyRequests},
	ErrFieldCount:        {Code: ErrFieldCount, Message: "Message must have exactly 3 fields, got %d."},
	ErrBadStatus:         {Code: ErrBadStatus, Message: "World status %q is not in the range 0-6."},

	// 2xxx: Identity and Registration Errors
	ErrUnknownUser: {Code: ErrUnknownUser, Message: "User %s is not registered."},
	ErrBadFormat:   {Code: ErrBadFormat, Message: "Username needs to start with U-."},

	// 3xxx: Transport Errors
	ErrTransport:     {Code: ErrTransport, Message: "Client transport failed."},
	ErrSessionClosed: {Code: ErrSessionClosed, Message: "Client session is closed."},

	// 4xxx: Persistence and Platform Errors
	ErrPersistence: {Code: ErrPersistence, Message: "Registered users could not be stored."},
	ErrPermission:  {Code: ErrPermission, Message: "Missing permission to manage webhooks."},

	// 5xxx: Internal System Errors
	ErrUnknown: {Code: ErrUnknown, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
}
