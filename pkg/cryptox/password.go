package cryptox

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"golang.org/x/crypto/argon2"
)

// ErrPasswordMismatch is returned by VerifyPassword for a well-formed hash
// that does not match.
var ErrPasswordMismatch = errors.New("password does not match")

var errBadHash = errors.New("invalid hash format")

// argonParams are the Argon2id cost settings encoded into every hash.
type argonParams struct {
	Memory      uint32 // KiB
	Iterations  uint32
	Parallelism uint8
}

// defaultParams follow the OWASP minimum for Argon2id.
var defaultParams = argonParams{Memory: 19 * 1024, Iterations: 2, Parallelism: 1}

const (
	saltSize = 16
	keySize  = 32
)

func (p argonParams) derive(password string, salt []byte, size uint32) []byte {
	return argon2.IDKey([]byte(password+GetPepper()), salt, p.Iterations, p.Memory, p.Parallelism, size)
}

// HashPassword returns a PHC encoded Argon2id hash of the peppered password:
//
//	$argon2id$v=19$m=19456,t=2,p=1$<salt>$<hash>
func HashPassword(password string) (string, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	p := defaultParams
	enc := base64.RawStdEncoding
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, p.Memory, p.Iterations, p.Parallelism,
		enc.EncodeToString(salt),
		enc.EncodeToString(p.derive(password, salt, keySize)),
	), nil
}

// VerifyPassword checks password against a hash made by HashPassword. It
// returns ErrPasswordMismatch for a wrong password and a different error for
// a hash it cannot parse.
func VerifyPassword(password, encodedHash string) error {
	fields := strings.Split(encodedHash, "$")
	if len(fields) != 6 || fields[0] != "" {
		return fmt.Errorf("%w: expected 6 fields", errBadHash)
	}
	if fields[1] != "argon2id" {
		return fmt.Errorf("%w: not argon2id", errBadHash)
	}
	if fields[2] != fmt.Sprintf("v=%d", argon2.Version) {
		return fmt.Errorf("%w: unsupported version %q", errBadHash, fields[2])
	}

	var p argonParams
	if _, err := fmt.Sscanf(fields[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Iterations, &p.Parallelism); err != nil {
		return fmt.Errorf("%w: parameters: %v", errBadHash, err)
	}
	if p.Iterations == 0 || p.Parallelism == 0 {
		return fmt.Errorf("%w: zero cost parameter", errBadHash)
	}
	salt, err := base64.RawStdEncoding.DecodeString(fields[4])
	if err != nil {
		return fmt.Errorf("%w: salt: %v", errBadHash, err)
	}
	want, err := base64.RawStdEncoding.DecodeString(fields[5])
	if err != nil || len(want) == 0 {
		return fmt.Errorf("%w: hash", errBadHash)
	}

	got := p.derive(password, salt, uint32(len(want))) // #nosec G115 -- len of a decoded hash
	if subtle.ConstantTimeCompare(got, want) != 1 {
		return ErrPasswordMismatch
	}
	return nil
}

const passwordAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GeneratePassword returns a random 12 character alphanumeric password, used
// when an administrator account is created without one.
func GeneratePassword() (string, error) {
	out := make([]byte, 12)
	limit := big.NewInt(int64(len(passwordAlphabet)))
	for i := range out {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("failed to generate random password: %w", err)
		}
		out[i] = passwordAlphabet[n.Int64()]
	}
	return string(out), nil
}
