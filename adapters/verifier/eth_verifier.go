package verifier

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/chirpnet/chirp-auth/core"
	"github.com/chirpnet/chirp-auth/ports"
)

// EthVerifier verifies EIP-191 personal-sign signatures against a claimed
// Ethereum address.
type EthVerifier struct{}

// New creates a stateless Ethereum signature verifier.
func New() ports.Verifier {
	return EthVerifier{}
}

// Verify checks the signature over the challenge. The challenge is hashed
// with the personal-sign prefix before recovery; raw bytes are never
// verified directly.
func (EthVerifier) Verify(challenge string, sig core.Signature, address string) error {
	digest := personalSignDigest(challenge)
	expected := common.HexToAddress(address)

	if sig.Pair {
		return verifyPair(digest, sig, expected)
	}
	return verifyCombined(digest, sig, expected)
}

// verifyCombined handles the single 65-byte r||s||v hex encoding.
func verifyCombined(digest []byte, sig core.Signature, expected common.Address) error {
	raw, err := hexutil.Decode(sig.Combined)
	if err != nil {
		return fmt.Errorf("decode signature: %w", core.ErrMalformedSignature)
	}
	if len(raw) != crypto.SignatureLength {
		return fmt.Errorf("signature must be %d bytes: %w", crypto.SignatureLength, core.ErrMalformedSignature)
	}

	// Wallets emit V as 27/28; go-ethereum recovery wants 0/1.
	v := raw[crypto.RecoveryIDOffset]
	if v >= 27 {
		v -= 27
	}
	if v > 1 {
		return fmt.Errorf("recovery id out of range: %w", core.ErrMalformedSignature)
	}
	raw[crypto.RecoveryIDOffset] = v

	return recoverAndCompare(digest, raw, expected)
}

// verifyPair handles the (r, s) tuple encoding. The tuple carries no
// recovery id, so both candidates are tried.
func verifyPair(digest []byte, sig core.Signature, expected common.Address) error {
	r, err := decodeWord(sig.R)
	if err != nil {
		return err
	}
	s, err := decodeWord(sig.S)
	if err != nil {
		return err
	}

	raw := make([]byte, crypto.SignatureLength)
	copy(raw[32-len(r):32], r)
	copy(raw[64-len(s):64], s)

	for v := byte(0); v <= 1; v++ {
		raw[crypto.RecoveryIDOffset] = v
		if err := recoverAndCompare(digest, raw, expected); err == nil {
			return nil
		}
	}
	return core.ErrInvalidSignature
}

func recoverAndCompare(digest, sig []byte, expected common.Address) error {
	pub, err := crypto.SigToPub(digest, sig)
	if err != nil {
		return fmt.Errorf("recover public key: %w", core.ErrInvalidSignature)
	}
	if crypto.PubkeyToAddress(*pub) != expected {
		return core.ErrInvalidSignature
	}
	return nil
}

// decodeWord decodes a hex scalar of at most 32 bytes, with or without the
// 0x prefix.
func decodeWord(s string) ([]byte, error) {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	if len(s)%2 != 0 {
		s = "0" + s
	}
	raw, err := hexutil.Decode("0x" + s)
	if err != nil || len(raw) == 0 || len(raw) > 32 {
		return nil, fmt.Errorf("decode signature scalar: %w", core.ErrMalformedSignature)
	}
	return raw, nil
}

// personalSignDigest hashes the challenge with the EIP-191 prefix.
func personalSignDigest(challenge string) []byte {
	msg := fmt.Sprintf("\x19Ethereum Signed Message:\n%d%s", len(challenge), challenge)
	return crypto.Keccak256([]byte(msg))
}
