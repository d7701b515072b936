package sshutils

import (
	"fmt"
	"os"

	"github.com/mitchellh/go-homedir"
	"golang.org/x/crypto/ssh"
)

// Credentials describes one connection target and how to authenticate
// to it. Exactly one of Password, PrivateKeyPath, or PrivateKey must
// be set.
type Credentials struct {
	Host           string
	Port           int
	User           string
	Password       string
	PrivateKeyPath string
	PrivateKey     []byte
	Passphrase     string
}

// Validate checks connection prerequisites before any dial attempt.
func (c *Credentials) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("host cannot be empty")
	}
	if c.User == "" {
		return fmt.Errorf("user cannot be empty")
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port number: %d", c.Port)
	}
	if c.Password == "" && c.PrivateKeyPath == "" && len(c.PrivateKey) == 0 {
		return fmt.Errorf("no authentication method provided")
	}
	return nil
}

// NormalizedPort returns the port with the SSH default applied.
func (c *Credentials) NormalizedPort() int {
	if c.Port == 0 {
		return DefaultPort
	}
	return c.Port
}

// Addr returns the host:port dial address.
func (c *Credentials) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.NormalizedPort())
}

// Target returns the identity string used in log and error messages.
// It never contains a secret.
func (c *Credentials) Target() string {
	return fmt.Sprintf("%s@%s:%d", c.User, c.Host, c.NormalizedPort())
}

// ClientConfig builds the ssh client configuration for these
// credentials.
func (c *Credentials) ClientConfig() (*ssh.ClientConfig, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	var methods []ssh.AuthMethod
	switch {
	case len(c.PrivateKey) > 0:
		signer, err := parsePrivateKey(c.PrivateKey, c.Passphrase)
		if err != nil {
			return nil, err
		}
		methods = append(methods, ssh.PublicKeys(signer))
	case c.PrivateKeyPath != "":
		keyPath, err := homedir.Expand(c.PrivateKeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to expand key path: %w", err)
		}
		material, err := os.ReadFile(keyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read private key: %w", err)
		}
		signer, err := parsePrivateKey(material, c.Passphrase)
		if err != nil {
			return nil, err
		}
		methods = append(methods, ssh.PublicKeys(signer))
	default:
		methods = append(methods, ssh.Password(c.Password))
	}

	return &ssh.ClientConfig{
		User:            c.User,
		Auth:            methods,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         SSHDialTimeout,
	}, nil
}

func parsePrivateKey(material []byte, passphrase string) (ssh.Signer, error) {
	if passphrase != "" {
		signer, err := ssh.ParsePrivateKeyWithPassphrase(material, []byte(passphrase))
		if err != nil {
			return nil, fmt.Errorf("failed to parse private key with passphrase: %w", err)
		}
		return signer, nil
	}
	signer, err := ssh.ParsePrivateKey(material)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}
	return signer, nil
}
