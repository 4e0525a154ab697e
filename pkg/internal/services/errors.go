package services

import "errors"

// Failure taxonomy shared by the HTTP handlers and the realtime gateway.
var (
	ErrAuthFailure = errors.New("invalid or expired credential")
	ErrNotAMember  = errors.New("not a member of this channel")
	ErrNotFound    = errors.New("record not found")
)
