// pkg/keystore/pem.go

package keystore

import (
	"bytes"
	"crypto"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"errors"
	"fmt"
	"os"

	"github.com/youmark/pkcs8"
)

const (
	pemPrivateKey          = "PRIVATE KEY"
	pemRSAPrivateKey       = "RSA PRIVATE KEY"
	pemEncryptedPrivateKey = "ENCRYPTED PRIVATE KEY"
	pemPublicKey           = "PUBLIC KEY"
	pemRSAPublicKey        = "RSA PUBLIC KEY"
)

var errPassphraseRequired = errors.New("key is encrypted and no passphrase was supplied")

// encryptionOpts protects private keys written with a passphrase.
var encryptionOpts = &pkcs8.Opts{
	Cipher: pkcs8.AES256CBC,
	KDFOpts: pkcs8.PBKDF2Opts{
		SaltSize:       16,
		IterationCount: 600000,
		HMACHash:       crypto.SHA256,
	},
}

// decodeSinglePEM requires exactly one PEM block and nothing but whitespace
// around it.
func decodeSinglePEM(data []byte) (*pem.Block, error) {
	block, rest := pem.Decode(data)
	if block == nil {
		return nil, errors.New("no PEM block found")
	}
	if len(bytes.TrimSpace(rest)) != 0 {
		return nil, errors.New("unexpected data after PEM block")
	}
	return block, nil
}

// parsePrivateKeyPEM accepts PKCS#8, PKCS#1 and passphrase-encrypted PKCS#8.
func parsePrivateKeyPEM(data, passphrase []byte) (*rsa.PrivateKey, error) {
	block, err := decodeSinglePEM(data)
	if err != nil {
		return nil, err
	}

	switch block.Type {
	case pemPrivateKey:
		k, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("parse PKCS#8: %w", err)
		}
		rk, ok := k.(*rsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("unsupported key type %T, want RSA", k)
		}
		return rk, validatePrivate(rk)
	case pemRSAPrivateKey:
		if _, encrypted := block.Headers["DEK-Info"]; encrypted {
			return nil, errors.New("legacy PEM encryption is not supported; re-encode as encrypted PKCS#8")
		}
		rk, err := x509.ParsePKCS1PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("parse PKCS#1: %w", err)
		}
		return rk, validatePrivate(rk)
	case pemEncryptedPrivateKey:
		if len(passphrase) == 0 {
			return nil, errPassphraseRequired
		}
		rk, err := pkcs8.ParsePKCS8PrivateKeyRSA(block.Bytes, passphrase)
		if err != nil {
			return nil, fmt.Errorf("decrypt PKCS#8: %w", err)
		}
		return rk, validatePrivate(rk)
	default:
		return nil, fmt.Errorf("unsupported PEM block %q", block.Type)
	}
}

func validatePrivate(k *rsa.PrivateKey) error {
	if err := k.Validate(); err != nil {
		return fmt.Errorf("invalid RSA key: %w", err)
	}
	return nil
}

// marshalPrivateKeyPEM writes PKCS#8, encrypted when passphrase is non-empty.
func marshalPrivateKeyPEM(k *rsa.PrivateKey, passphrase []byte) ([]byte, error) {
	if len(passphrase) == 0 {
		der, err := x509.MarshalPKCS8PrivateKey(k)
		if err != nil {
			return nil, err
		}
		return pem.EncodeToMemory(&pem.Block{Type: pemPrivateKey, Bytes: der}), nil
	}
	der, err := pkcs8.MarshalPrivateKey(k, passphrase, encryptionOpts)
	if err != nil {
		return nil, err
	}
	return pem.EncodeToMemory(&pem.Block{Type: pemEncryptedPrivateKey, Bytes: der}), nil
}

func marshalPublicKeyPEM(pub *rsa.PublicKey) ([]byte, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return nil, err
	}
	return pem.EncodeToMemory(&pem.Block{Type: pemPublicKey, Bytes: der}), nil
}

// ParsePublicKeyPEM accepts PKIX "PUBLIC KEY" and PKCS#1 "RSA PUBLIC KEY".
func ParsePublicKeyPEM(data []byte) (*rsa.PublicKey, error) {
	block, err := decodeSinglePEM(data)
	if err != nil {
		return nil, err
	}
	switch block.Type {
	case pemPublicKey:
		k, err := x509.ParsePKIXPublicKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("parse PKIX: %w", err)
		}
		rk, ok := k.(*rsa.PublicKey)
		if !ok {
			return nil, fmt.Errorf("unsupported key type %T, want RSA", k)
		}
		return rk, nil
	case pemRSAPublicKey:
		return x509.ParsePKCS1PublicKey(block.Bytes)
	default:
		return nil, fmt.Errorf("unsupported PEM block %q", block.Type)
	}
}

// LoadPublicKey reads a PEM public key from path.
func LoadPublicKey(path string) (*rsa.PublicKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	pub, err := ParsePublicKeyPEM(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return pub, nil
}

// PublicKeyFingerprint is the hex SHA-256 of the PKIX DER encoding.
func PublicKeyFingerprint(pub *rsa.PublicKey) (string, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(der)
	return hex.EncodeToString(sum[:]), nil
}
