package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

var errBadHash = errors.New("invalid argon2id hash")

type argon2Params struct {
	memory      uint32
	iterations  uint32
	parallelism uint8
	saltLen     uint32
	keyLen      uint32
}

var defaultArgon2idParams = argon2Params{
	memory:      64 * 1024,
	iterations:  3,
	parallelism: 2,
	saltLen:     16,
	keyLen:      32,
}

// argon2Hash is a decoded "$argon2id$v=19$m=..,t=..,p=..$salt$key" string.
type argon2Hash struct {
	params argon2Params
	salt   []byte
	key    []byte
}

func HashPassword(plaintext string) (string, error) {
	return hashPasswordWithParams(plaintext, defaultArgon2idParams)
}

func VerifyPassword(hash, plaintext string) (bool, error) {
	h, err := decodeArgon2idHash(hash)
	if err != nil {
		return false, err
	}
	p := h.params
	other := argon2.IDKey([]byte(plaintext), h.salt, p.iterations, p.memory, p.parallelism, p.keyLen)
	return subtle.ConstantTimeCompare(h.key, other) == 1, nil
}

// PasswordFingerprint is a short digest of a stored hash. Tokens embed it so
// they stop verifying once the password changes.
func PasswordFingerprint(hash string) string {
	sum := sha256.Sum256([]byte(hash))
	return hex.EncodeToString(sum[:8])
}

const passwordAlphabet = "abcdefghijkmnopqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// GeneratePassword returns a random password that satisfies CheckPasswordRules.
func GeneratePassword(length int) (string, error) {
	if length < 8 {
		length = 8
	}
	for {
		var b strings.Builder
		for i := 0; i < length; i++ {
			n, err := rand.Int(rand.Reader, big.NewInt(int64(len(passwordAlphabet))))
			if err != nil {
				return "", fmt.Errorf("generate password: %w", err)
			}
			b.WriteByte(passwordAlphabet[n.Int64()])
		}
		pw := b.String()
		if CheckPasswordRules(pw) == nil {
			return pw, nil
		}
	}
}

func hashPasswordWithParams(plaintext string, p argon2Params) (string, error) {
	salt := make([]byte, p.saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("read salt: %w", err)
	}

	key := argon2.IDKey([]byte(plaintext), salt, p.iterations, p.memory, p.parallelism, p.keyLen)
	return argon2Hash{params: p, salt: salt, key: key}.String(), nil
}

func (h argon2Hash) String() string {
	b64 := base64.RawStdEncoding
	return fmt.Sprintf("$argon2id$v=19$m=%d,t=%d,p=%d$%s$%s",
		h.params.memory,
		h.params.iterations,
		h.params.parallelism,
		b64.EncodeToString(h.salt),
		b64.EncodeToString(h.key),
	)
}

func decodeArgon2idHash(hash string) (argon2Hash, error) {
	parts := strings.Split(hash, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return argon2Hash{}, errBadHash
	}
	if parts[2] != "v=19" {
		return argon2Hash{}, fmt.Errorf("%w: unsupported version %s", errBadHash, parts[2])
	}

	var h argon2Hash
	for _, kv := range strings.Split(parts[3], ",") {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			return argon2Hash{}, fmt.Errorf("%w: params", errBadHash)
		}
		bits := 32
		if k == "p" {
			bits = 8
		}
		n, err := strconv.ParseUint(v, 10, bits)
		if err != nil {
			return argon2Hash{}, fmt.Errorf("%w: param %s", errBadHash, k)
		}
		switch k {
		case "m":
			h.params.memory = uint32(n)
		case "t":
			h.params.iterations = uint32(n)
		case "p":
			h.params.parallelism = uint8(n)
		default:
			return argon2Hash{}, fmt.Errorf("%w: unknown param %s", errBadHash, k)
		}
	}

	var err error
	if h.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil || len(h.salt) == 0 {
		return argon2Hash{}, fmt.Errorf("%w: salt", errBadHash)
	}
	if h.key, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil || len(h.key) == 0 {
		return argon2Hash{}, fmt.Errorf("%w: key", errBadHash)
	}
	h.params.saltLen = uint32(len(h.salt))
	h.params.keyLen = uint32(len(h.key))
	return h, nil
}
