package gitsource

import (
	"fmt"
	"os"

	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"

	"bastion-hq/bastion/pkg/config"
)

// AuthProvider supplies credentials for Git transport.
type AuthProvider interface {
	// Auth returns the transport authentication method, or nil for anonymous access.
	Auth() (transport.AuthMethod, error)

	// Type names the method for logging.
	Type() string
}

// TokenAuth authenticates HTTPS remotes with a personal access token.
type TokenAuth struct {
	token string
}

// NewTokenAuth creates a token provider.
func NewTokenAuth(token string) *TokenAuth {
	return &TokenAuth{token: token}
}

// Auth returns HTTP basic auth carrying the token as the password. Hosts
// ignore the username for token auth.
func (a *TokenAuth) Auth() (transport.AuthMethod, error) {
	if a.token == "" {
		return nil, fmt.Errorf("token cannot be empty")
	}
	return &http.BasicAuth{Username: "git", Password: a.token}, nil
}

// Type returns "token".
func (a *TokenAuth) Type() string { return "token" }

// SSHAuth authenticates SSH remotes with a private key file.
type SSHAuth struct {
	keyPath    string
	passphrase string
}

// NewSSHAuth creates an SSH key provider. passphrase may be empty.
func NewSSHAuth(keyPath, passphrase string) *SSHAuth {
	return &SSHAuth{keyPath: keyPath, passphrase: passphrase}
}

// Auth loads the key. The key file must not be readable by group or others.
func (a *SSHAuth) Auth() (transport.AuthMethod, error) {
	if a.keyPath == "" {
		return nil, fmt.Errorf("ssh key path cannot be empty")
	}

	info, err := os.Stat(a.keyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to access SSH key file: %w", err)
	}
	if mode := info.Mode().Perm(); mode&0o077 != 0 {
		return nil, fmt.Errorf("SSH key file permissions too open (%o), should be 0600", mode)
	}

	auth, err := ssh.NewPublicKeysFromFile("git", a.keyPath, a.passphrase)
	if err != nil {
		return nil, fmt.Errorf("failed to load SSH key: %w", err)
	}
	return auth, nil
}

// Type returns "ssh".
func (a *SSHAuth) Type() string { return "ssh" }

// NoAuth is used for public repositories and local paths.
type NoAuth struct{}

// Auth returns nil.
func (NoAuth) Auth() (transport.AuthMethod, error) { return nil, nil }

// Type returns "none".
func (NoAuth) Type() string { return "none" }

// NewAuthProvider picks a provider from configuration.
func NewAuthProvider(cfg *config.GitAuthConfig) (AuthProvider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("auth config cannot be nil")
	}

	switch cfg.Type {
	case "token":
		if cfg.Token == "" {
			return nil, fmt.Errorf("token auth requires non-empty token")
		}
		return NewTokenAuth(cfg.Token), nil
	case "ssh":
		if cfg.SSHKeyPath == "" {
			return nil, fmt.Errorf("ssh auth requires ssh_key_path")
		}
		return NewSSHAuth(cfg.SSHKeyPath, cfg.SSHKeyPassphrase), nil
	case "none", "":
		return NoAuth{}, nil
	default:
		return nil, fmt.Errorf("unknown auth type: %s", cfg.Type)
	}
}
