package ports

import "github.com/chirpnet/chirp-auth/core"

// Tokenizer converts between sessions and signed tokens.
type Tokenizer interface {
	// Issue mints a signed access token bound to the session.
	Issue(session *core.Session) (string, error)

	// Parse validates a token and returns the session it carries.
	Parse(token string) (*core.Session, error)
}
