package service

import "errors"

// Domain errors mapped to response codes by handlers.
var (
	ErrAlreadySubmitted = errors.New("skill has already been submitted")
	ErrFinalizeNotReady = errors.New("no skills submitted yet")
	ErrFinalizeFailed   = errors.New("finalize failed, attempt returned to ready")
	ErrAttemptScored    = errors.New("attempt has already been scored")
	ErrUnknownSkill     = errors.New("unknown skill")
	ErrTestNotAvailable = errors.New("test not available")
	ErrNotSessionOwner  = errors.New("session does not belong to this candidate")
)
