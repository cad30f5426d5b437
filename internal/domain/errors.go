package domain

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrValidation          = errors.New("validation failed")
	ErrInvalidTransition   = errors.New("invalid state transition")
	ErrDuplicateDecision   = errors.New("decision already exists for this journal contact")
	ErrDuplicateMembership = errors.New("contact already in this journal")
	ErrDuplicateDonation   = errors.New("donation with this external id already exists")
)
