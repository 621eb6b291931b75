// pkg/keystore/keystore.go

// Package keystore owns the RSA signing key used for attestations: loading it,
// creating it once, and signing with it.
package keystore

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/CodeMonkeyCybersecurity/wipe/pkg/fileops"
	"github.com/CodeMonkeyCybersecurity/wipe/pkg/shared"
	"github.com/CodeMonkeyCybersecurity/wipe/pkg/wipe_err"
	"go.uber.org/zap"
)

const minKeyBits = 2048

// Options locates and parameterises the key pair.
type Options struct {
	KeyPath    string
	PubPath    string
	Bits       int
	Passphrase []byte
	Logger     *zap.Logger
	// Random overrides crypto/rand for key generation.
	Random io.Reader
}

// OptionsForDir returns Options for keys/private.pem and keys/public.pem under dir.
func OptionsForDir(dir string) Options {
	return Options{
		KeyPath: filepath.Join(dir, shared.PrivateKeyFile),
		PubPath: filepath.Join(dir, shared.PublicKeyFile),
		Bits:    shared.DefaultKeyBits,
	}
}

// Key is a loaded signing key pair.
type Key struct {
	Private     *rsa.PrivateKey
	Public      *rsa.PublicKey
	KeyPath     string
	PubPath     string
	Fingerprint string
	// Created is true when this call generated the key.
	Created bool
}

func (o *Options) normalise() error {
	if o.KeyPath == "" {
		return wipe_err.NewValidationError("key path is required")
	}
	if o.PubPath == "" {
		o.PubPath = filepath.Join(filepath.Dir(o.KeyPath), shared.PublicKeyFile)
	}
	if o.Bits == 0 {
		o.Bits = shared.DefaultKeyBits
	}
	if o.Bits < minKeyBits {
		return wipe_err.NewValidationError(fmt.Sprintf("key size %d is below the %d-bit minimum", o.Bits, minKeyBits))
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.Random == nil {
		o.Random = rand.Reader
	}
	return nil
}

// LoadOrCreate returns the key at opts.KeyPath, generating and persisting a
// new pair only when no private key file exists. An existing file that
// cannot be parsed is a KeyLoadError and is never replaced. The
// check-then-create runs under an exclusive lock on <KeyPath>.lock.
func LoadOrCreate(ctx context.Context, opts Options) (*Key, error) {
	if err := opts.normalise(); err != nil {
		return nil, err
	}
	log := opts.Logger.Named("keystore").With(zap.String("key_path", opts.KeyPath))
	fs := fileops.NewFileSystemOperations(opts.Logger)

	dir := filepath.Dir(opts.KeyPath)
	if err := fs.CreateDirectory(ctx, dir, shared.FilePermOwnerRWX); err != nil {
		return nil, wipe_err.KeyLoad(opts.KeyPath, err)
	}

	lock, err := fileops.AcquireLockFile(ctx, opts.KeyPath+".lock")
	if err != nil {
		return nil, wipe_err.KeyLoad(opts.KeyPath, err)
	}
	defer func() {
		if err := lock.Release(); err != nil {
			log.Warn("Releasing key lock failed", zap.Error(err))
		}
	}()

	data, err := fs.ReadFile(ctx, opts.KeyPath)
	switch {
	case err == nil:
		return loadExisting(ctx, fs, log, opts, data)
	case errors.Is(err, os.ErrNotExist):
		return create(ctx, fs, log, opts)
	default:
		return nil, wipe_err.KeyLoad(opts.KeyPath, err)
	}
}

func loadExisting(ctx context.Context, fs *fileops.FileSystemOperations, log *zap.Logger, opts Options, data []byte) (*Key, error) {
	priv, err := parsePrivateKeyPEM(data, opts.Passphrase)
	if err != nil {
		log.Error("Existing private key is unusable; leaving it untouched", zap.Error(err))
		return nil, wipe_err.KeyLoad(opts.KeyPath, err)
	}
	key, err := newKey(priv, opts, false)
	if err != nil {
		return nil, err
	}

	pubData, err := fs.ReadFile(ctx, opts.PubPath)
	switch {
	case err == nil:
		pub, perr := ParsePublicKeyPEM(pubData)
		if perr != nil {
			return nil, wipe_err.KeyLoad(opts.PubPath, perr)
		}
		if !pub.Equal(priv.Public()) {
			return nil, wipe_err.KeyLoad(opts.PubPath, fmt.Errorf("public key does not match %s", opts.KeyPath))
		}
	case errors.Is(err, os.ErrNotExist):
		log.Info("Public key missing; re-deriving from private key", zap.String("pub_path", opts.PubPath))
		if err := writePublic(ctx, fs, opts.PubPath, key.Public); err != nil {
			return nil, wipe_err.KeyLoad(opts.PubPath, err)
		}
	default:
		return nil, wipe_err.KeyLoad(opts.PubPath, err)
	}

	log.Debug("Signing key loaded", zap.String("fingerprint", key.Fingerprint))
	return key, nil
}

func create(ctx context.Context, fs *fileops.FileSystemOperations, log *zap.Logger, opts Options) (*Key, error) {
	log.Info("Generating signing key", zap.Int("bits", opts.Bits))

	priv, err := rsa.GenerateKey(opts.Random, opts.Bits)
	if err != nil {
		return nil, wipe_err.KeyLoad(opts.KeyPath, fmt.Errorf("generate RSA key: %w", err))
	}
	privPEM, err := marshalPrivateKeyPEM(priv, opts.Passphrase)
	if err != nil {
		return nil, wipe_err.KeyLoad(opts.KeyPath, fmt.Errorf("encode private key: %w", err))
	}
	key, err := newKey(priv, opts, true)
	if err != nil {
		return nil, err
	}

	// Public first: a crash in between leaves no private key, so the next
	// run regenerates both instead of trusting a half-written pair.
	if err := writePublic(ctx, fs, opts.PubPath, key.Public); err != nil {
		return nil, wipe_err.KeyLoad(opts.PubPath, err)
	}
	if err := fs.WriteFile(ctx, opts.KeyPath, privPEM, shared.FilePermOwnerReadWrite); err != nil {
		return nil, wipe_err.KeyLoad(opts.KeyPath, err)
	}

	log.Info("Signing key created",
		zap.String("pub_path", opts.PubPath),
		zap.String("fingerprint", key.Fingerprint),
		zap.Bool("encrypted", len(opts.Passphrase) > 0))
	return key, nil
}

func writePublic(ctx context.Context, fs *fileops.FileSystemOperations, path string, pub *rsa.PublicKey) error {
	pubPEM, err := marshalPublicKeyPEM(pub)
	if err != nil {
		return err
	}
	return fs.WriteFile(ctx, path, pubPEM, shared.FilePermStandard)
}

func newKey(priv *rsa.PrivateKey, opts Options, created bool) (*Key, error) {
	fp, err := PublicKeyFingerprint(&priv.PublicKey)
	if err != nil {
		return nil, wipe_err.KeyLoad(opts.KeyPath, err)
	}
	return &Key{
		Private:     priv,
		Public:      &priv.PublicKey,
		KeyPath:     opts.KeyPath,
		PubPath:     opts.PubPath,
		Fingerprint: fp,
		Created:     created,
	}, nil
}

// Sign produces an RSASSA-PKCS1-v1_5 signature over SHA-256(data).
func Sign(key *Key, data []byte) ([]byte, error) {
	if key == nil || key.Private == nil {
		return nil, wipe_err.SigningUnavailable("no signing key")
	}
	digest := sha256.Sum256(data)
	sig, err := rsa.SignPKCS1v15(rand.Reader, key.Private, crypto.SHA256, digest[:])
	if err != nil {
		return nil, wipe_err.SigningUnavailable(err.Error())
	}
	return sig, nil
}

// Verify checks sig against data under pub.
func Verify(pub *rsa.PublicKey, data, sig []byte) error {
	if pub == nil {
		return wipe_err.NewIntegrityError("no public key to verify with", nil)
	}
	digest := sha256.Sum256(data)
	if err := rsa.VerifyPKCS1v15(pub, crypto.SHA256, digest[:], sig); err != nil {
		return wipe_err.NewIntegrityError("signature does not match the report", err,
			"The report or signature was altered, or was signed by a different key")
	}
	return nil
}
