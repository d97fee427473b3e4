package binary

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ProtonMail/go-crypto/openpgp" //nolint:staticcheck // Using ProtonMail's maintained fork
)

// ErrChecksumMismatch is returned when an artifact digest differs from the
// expected value.
var ErrChecksumMismatch = errors.New("checksum mismatch")

// Verifier checks artifact integrity.
type Verifier struct{}

// NewVerifier creates a new verifier.
func NewVerifier() *Verifier {
	return &Verifier{}
}

// VerifySHA256 compares the SHA256 digest of path with the expected hex
// digest (case-insensitive).
func (v *Verifier) VerifySHA256(path, expected string) (*VerificationResult, error) {
	actual, err := calculateSHA256(path)
	if err != nil {
		return &VerificationResult{
			Method: VerificationSHA256,
			Error:  fmt.Errorf("calculate checksum: %w", err),
		}, err
	}

	if !strings.EqualFold(actual, strings.TrimSpace(expected)) {
		err := fmt.Errorf("%w:\nactual:   %s\nexpected: %s", ErrChecksumMismatch, actual, expected)
		return &VerificationResult{Method: VerificationSHA256, Error: err}, err
	}

	return &VerificationResult{Method: VerificationSHA256, Success: true}, nil
}

// VerifySignature checks the detached signature at signaturePath against
// path using the armored public keys in keyring. Both armored and binary
// signatures are accepted.
func (v *Verifier) VerifySignature(path, signaturePath, keyring string) (*VerificationResult, error) {
	keys, err := loadKeyring(keyring)
	if err != nil {
		return &VerificationResult{
			Method: VerificationOpenPGP,
			Error:  fmt.Errorf("load keyring: %w", err),
		}, err
	}

	artifact, err := os.Open(path)
	if err != nil {
		return &VerificationResult{
			Method: VerificationOpenPGP,
			Error:  fmt.Errorf("open artifact: %w", err),
		}, err
	}
	defer artifact.Close()

	sig, err := os.Open(signaturePath)
	if err != nil {
		return &VerificationResult{
			Method: VerificationOpenPGP,
			Error:  fmt.Errorf("open signature: %w", err),
		}, err
	}
	defer sig.Close()

	_, err = openpgp.CheckArmoredDetachedSignature(keys, artifact, sig, nil)
	if err != nil {
		if _, serr := artifact.Seek(0, io.SeekStart); serr != nil {
			return &VerificationResult{Method: VerificationOpenPGP, Error: serr}, serr
		}
		if _, serr := sig.Seek(0, io.SeekStart); serr != nil {
			return &VerificationResult{Method: VerificationOpenPGP, Error: serr}, serr
		}
		_, err = openpgp.CheckDetachedSignature(keys, artifact, sig, nil)
	}
	if err != nil {
		err = fmt.Errorf("verify signature: %w", err)
		return &VerificationResult{Method: VerificationOpenPGP, Error: err}, err
	}

	return &VerificationResult{Method: VerificationOpenPGP, Success: true}, nil
}

func loadKeyring(keyring string) (openpgp.EntityList, error) {
	if strings.TrimSpace(keyring) == "" {
		return nil, fmt.Errorf("keyring is empty")
	}
	keys, err := openpgp.ReadArmoredKeyRing(strings.NewReader(keyring))
	if err != nil {
		keys, err = openpgp.ReadKeyRing(bytes.NewReader([]byte(keyring)))
		if err != nil {
			return nil, fmt.Errorf("read keyring: %w", err)
		}
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("keyring is empty")
	}
	return keys, nil
}

func calculateSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
