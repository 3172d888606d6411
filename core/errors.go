package core

import "errors"

var (
	ErrNoValidNonce       = errors.New("no valid nonce for address")
	ErrInvalidSignature   = errors.New("invalid signature")
	ErrMalformedSignature = errors.New("malformed signature")
	ErrTokenRevoked       = errors.New("token has been revoked")
	ErrTokenExpired       = errors.New("token has expired")
	ErrInvalidToken       = errors.New("invalid token")
	ErrRateLimited        = errors.New("too many attempts")
)
