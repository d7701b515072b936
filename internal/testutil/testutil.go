// Package testutil holds helpers shared by package tests.
package testutil

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"os"

	"golang.org/x/crypto/ssh"
)

// GenerateSSHKeyPair returns PEM-encoded private key material and the
// matching authorized-keys line for a throwaway ed25519 key.
func GenerateSSHKeyPair() (privateKeyPEM []byte, authorizedKey []byte, err error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, nil, err
	}

	block, err := ssh.MarshalPrivateKey(priv, "")
	if err != nil {
		return nil, nil, err
	}
	privateKeyPEM = pem.EncodeToMemory(block)

	sshPub, err := ssh.NewPublicKey(pub)
	if err != nil {
		return nil, nil, err
	}
	authorizedKey = ssh.MarshalAuthorizedKey(sshPub)
	return privateKeyPEM, authorizedKey, nil
}

// CreateSSHPrivateKeyOnDisk writes a throwaway private key to a temp
// file and returns its path with a cleanup func.
func CreateSSHPrivateKeyOnDisk() (string, func(), error) {
	material, _, err := GenerateSSHKeyPair()
	if err != nil {
		return "", nil, err
	}
	return WriteBytesToTempFile(material)
}

// WriteBytesToTempFile writes content to a temp file and returns its
// path with a cleanup func.
func WriteBytesToTempFile(content []byte) (string, func(), error) {
	tempFile, err := os.CreateTemp("", "remotekit-test-*")
	if err != nil {
		return "", nil, err
	}

	if _, err := tempFile.Write(content); err != nil {
		tempFile.Close()
		os.Remove(tempFile.Name())
		return "", nil, err
	}
	tempFile.Close()

	cleanup := func() {
		os.Remove(tempFile.Name())
	}
	return tempFile.Name(), cleanup, nil
}
