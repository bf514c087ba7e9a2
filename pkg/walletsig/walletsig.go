// Package walletsig verifies personal_sign (EIP-191) wallet signatures and
// derives ledger transaction hashes.
package walletsig

import (
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

var (
	ErrInvalidAddress   = errors.New("invalid wallet address")
	ErrInvalidSignature = errors.New("invalid signature")
	ErrSignerMismatch   = errors.New("signature does not match wallet address")
)

// NormalizeAddress returns the EIP-55 checksummed form of a hex address.
func NormalizeAddress(address string) (string, error) {
	if !common.IsHexAddress(address) {
		return "", ErrInvalidAddress
	}
	return common.HexToAddress(address).Hex(), nil
}

// LoginMessage is the text a wallet signs to log in.
func LoginMessage(address, nonce string, issuedAt time.Time) string {
	return fmt.Sprintf("Sign in to MedLedger\n\nWallet: %s\nNonce: %s\nIssued At: %s",
		address, nonce, issuedAt.UTC().Format(time.RFC3339))
}

// Verify checks that signatureHex is a personal_sign signature of message
// made by the key behind address.
func Verify(address, message, signatureHex string) error {
	expected, err := NormalizeAddress(address)
	if err != nil {
		return err
	}

	sig, err := hexutil.Decode(signatureHex)
	if err != nil || len(sig) != crypto.SignatureLength {
		return ErrInvalidSignature
	}

	// Wallets emit v as 27/28; SigToPub wants 0/1.
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}
	if sig[crypto.RecoveryIDOffset] > 1 {
		return ErrInvalidSignature
	}

	pub, err := crypto.SigToPub(accounts.TextHash([]byte(message)), sig)
	if err != nil {
		return ErrInvalidSignature
	}

	if crypto.PubkeyToAddress(*pub).Hex() != expected {
		return ErrSignerMismatch
	}
	return nil
}

// NewNonce returns a random hex nonce.
func NewNonce() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hexutil.Encode(buf)[2:], nil
}

// TxHash derives a unique 0x-prefixed Keccak-256 hash for a ledger
// transaction from its parties, amount and currency plus a timestamp and
// random salt.
func TxHash(senderID, receiverID int64, amount, currency string, at time.Time) (string, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}

	payload := strings.Join([]string{
		fmt.Sprint(senderID),
		fmt.Sprint(receiverID),
		amount,
		currency,
		fmt.Sprint(at.UnixNano()),
	}, "|")

	return crypto.Keccak256Hash([]byte(payload), salt).Hex(), nil
}
