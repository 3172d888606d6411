package ports

import "github.com/chirpnet/chirp-auth/core"

// Verifier checks a wallet signature over a challenge string. Pure and
// deterministic; no I/O.
type Verifier interface {
	// Verify returns nil when the signature over the challenge was produced
	// by the key behind address. Unparseable input yields
	// core.ErrMalformedSignature, a failed check core.ErrInvalidSignature.
	Verify(challenge string, sig core.Signature, address string) error
}
