package core

import "encoding/json"

// Signature carries a wallet signature in either of the two wire encodings
// clients send: a single combined hex string, or an [r, s] pair of hex
// strings. The pair form carries no recovery id. Normalization into curve
// verification input happens once, in the verifier; nothing past the
// boundary branches on the shape.
type Signature struct {
	Combined string
	R        string
	S        string
	Pair     bool
}

// UnmarshalJSON accepts `"0x..."` or `["0x..r", "0x..s"]`.
func (s *Signature) UnmarshalJSON(data []byte) error {
	var combined string
	if err := json.Unmarshal(data, &combined); err == nil {
		*s = Signature{Combined: combined}
		return nil
	}

	var pair []string
	if err := json.Unmarshal(data, &pair); err == nil && len(pair) == 2 {
		*s = Signature{R: pair[0], S: pair[1], Pair: true}
		return nil
	}

	return ErrMalformedSignature
}

// MarshalJSON emits the encoding the signature arrived in.
func (s Signature) MarshalJSON() ([]byte, error) {
	if s.Pair {
		return json.Marshal([2]string{s.R, s.S})
	}
	return json.Marshal(s.Combined)
}
