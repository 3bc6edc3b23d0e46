// Package identity supplies the SSH host key the server presents to clients.
//
// A configured key path must exist: an external bootstrap step generates it
// once and mounts it. Without a configured path an ed25519 key is generated
// in memory, so the fingerprint changes on every restart. That fallback is a
// development convenience only.
package identity

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"golang.org/x/crypto/ssh"

	"github.com/gupta-akshay/portfolio-v2-sub000/internal/config"
	"github.com/gupta-akshay/portfolio-v2-sub000/internal/log"
)

// Identity is the server's host key.
type Identity struct {
	Signer    ssh.Signer
	Path      string // empty when Ephemeral
	Ephemeral bool
}

// Fingerprint returns the SHA256 fingerprint clients will see.
func (id *Identity) Fingerprint() string {
	return ssh.FingerprintSHA256(id.Signer.PublicKey())
}

// LoadOrCreate returns the host key at path, or a freshly generated one when
// path is empty. A configured path that is missing, unreadable or not a
// private key yields a *config.ConfigurationError; no substitute key is made.
func LoadOrCreate(path string, logger *log.Logger) (*Identity, error) {
	if logger == nil {
		logger = log.Nop()
	}

	if path == "" {
		signer, err := Generate()
		if err != nil {
			return nil, &config.ConfigurationError{Key: config.EnvHostKeyPath, Err: err}
		}
		id := &Identity{Signer: signer, Ephemeral: true}
		logger.Append(log.LogEvent{
			Event:       log.EventIdentityEphemeral,
			Fingerprint: id.Fingerprint(),
			Message:     "no host key path configured; using an ephemeral key for this process only",
		})
		return id, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			err = fmt.Errorf("host key %s does not exist: %w", path, err)
		}
		return nil, &config.ConfigurationError{Key: config.EnvHostKeyPath, Err: err}
	}
	signer, err := ssh.ParsePrivateKey(data)
	if err != nil {
		return nil, &config.ConfigurationError{Key: config.EnvHostKeyPath, Err: fmt.Errorf("parsing host key %s: %w", path, err)}
	}

	id := &Identity{Signer: signer, Path: path}
	logger.Append(log.LogEvent{
		Event:       log.EventIdentityLoaded,
		Path:        path,
		Fingerprint: id.Fingerprint(),
	})
	return id, nil
}

// Generate creates a new in-memory ed25519 host key.
func Generate() (ssh.Signer, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generating host key: %w", err)
	}
	signer, err := ssh.NewSignerFromKey(priv)
	if err != nil {
		return nil, fmt.Errorf("creating signer: %w", err)
	}
	return signer, nil
}

// WriteKey generates an ed25519 key and stores it at path in OpenSSH format
// with mode 0600. It refuses to overwrite an existing file unless force is
// set. This is the helper a bootstrap step runs once; the server never calls
// it.
func WriteKey(path string, force bool) (*Identity, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generating host key: %w", err)
	}
	block, err := ssh.MarshalPrivateKey(priv, "resume-ssh host key")
	if err != nil {
		return nil, fmt.Errorf("encoding host key: %w", err)
	}

	flags := os.O_WRONLY | os.O_CREATE | os.O_EXCL
	if force {
		flags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	}
	f, err := os.OpenFile(path, flags, 0600)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", path, err)
	}
	if err := pem.Encode(f, block); err != nil {
		f.Close()
		return nil, fmt.Errorf("writing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("closing %s: %w", path, err)
	}

	signer, err := ssh.NewSignerFromKey(priv)
	if err != nil {
		return nil, fmt.Errorf("creating signer: %w", err)
	}
	return &Identity{Signer: signer, Path: path}, nil
}
