package services

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"math/big"
	"time"

	"golang.org/x/crypto/sha3"
)

// GenerateID builds a record identifier: prefix, millisecond timestamp and a
// 3-digit random suffix. Uniqueness is best-effort, not cryptographic; the
// store's primary keys are the backstop.
func GenerateID(prefix string) string {
	n, err := rand.Int(rand.Reader, big.NewInt(1000))
	suffix := int64(0)
	if err == nil {
		suffix = n.Int64()
	}
	return fmt.Sprintf("%s%d%03d", prefix, time.Now().UnixMilli(), suffix)
}

// GenerateSecretKey returns a fresh 256-bit voter key as 0x-prefixed
// lowercase hex. The key is the voter's pseudonymous ledger identity.
func GenerateSecretKey(r io.Reader) (string, error) {
	buf := make([]byte, 32)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", fmt.Errorf("failed to generate secret key: %w", err)
	}
	return "0x" + hex.EncodeToString(buf), nil
}

// TransactionHash derives a vote receipt hash from the voter's secret key,
// the election id, the cast timestamp and a random nonce. The digest is a
// 256-bit SHA3 sum rendered as 0x-prefixed lowercase hex; given only the
// hash, none of the inputs are recoverable.
func TransactionHash(r io.Reader, secretKey, electionID string, castAt time.Time) (string, error) {
	nonce := make([]byte, 16)
	if _, err := io.ReadFull(r, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	h := sha3.New256()
	h.Write([]byte(secretKey))
	h.Write([]byte(electionID))
	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], uint64(castAt.UnixNano()))
	h.Write(ts[:])
	h.Write(nonce)

	return "0x" + hex.EncodeToString(h.Sum(nil)), nil
}

// EncodePartyID produces the opaque party reference stored on the ledger
func EncodePartyID(partyID string) string {
	return base64.StdEncoding.EncodeToString([]byte(partyID))
}

// DecodePartyID reverses EncodePartyID. Only used by tests and tallying;
// vote records exposed to conductors never include the decoded value.
func DecodePartyID(encoded string) (string, error) {
	b, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CalculateAge computes whole years between a YYYY-MM-DD date of birth and
// now, accounting for whether the birthday has passed this year
func CalculateAge(dob string, now time.Time) (int, error) {
	birth, err := time.Parse("2006-01-02", dob)
	if err != nil {
		return 0, fmt.Errorf("invalid date of birth: %w", err)
	}
	age := now.Year() - birth.Year()
	if now.Month() < birth.Month() ||
		(now.Month() == birth.Month() && now.Day() < birth.Day()) {
		age--
	}
	return age, nil
}
