// file: services/errors.go
package services

import "errors"

var (
	ErrChallengeNotFound    = errors.New("challenge not found")
	ErrChallengeHidden      = errors.New("challenge is hidden")
	ErrAlreadySolved        = errors.New("challenge already solved by submitter")
	ErrUnknownChallengeType = errors.New("unknown challenge type")
	ErrInvalidChallenge     = errors.New("invalid challenge")
	ErrAlreadyInTeam        = errors.New("user already in a team")
	ErrInvitationCode       = errors.New("invalid invitation code")
)
