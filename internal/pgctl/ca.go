package pgctl

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"time"

	"golang.org/x/crypto/ssh"
)

// CA signs short-lived SSH user certificates so database servers only need
// to trust the CA public key.
type CA struct {
	signer ssh.Signer
}

// NewCA parses a PEM-encoded CA private key.
func NewCA(pemBytes []byte) (*CA, error) {
	signer, err := ssh.ParsePrivateKey(pemBytes)
	if err != nil {
		return nil, fmt.Errorf("ssh ca: parse private key: %w", err)
	}
	return &CA{signer: signer}, nil
}

// Sign creates an ephemeral Ed25519 key, certifies it for principal and
// returns a signer presenting the certificate.
func (ca *CA) Sign(principal string, ttl time.Duration) (ssh.Signer, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("ssh ca: generate ephemeral key: %w", err)
	}
	sshPub, err := ssh.NewPublicKey(pub)
	if err != nil {
		return nil, fmt.Errorf("ssh ca: convert public key: %w", err)
	}

	now := time.Now()
	cert := &ssh.Certificate{
		CertType:        ssh.UserCert,
		Key:             sshPub,
		KeyId:           "haas-" + principal,
		ValidPrincipals: []string{principal},
		// Allow for clock skew between us and the database servers.
		ValidAfter:  uint64(now.Add(-30 * time.Second).Unix()),
		ValidBefore: uint64(now.Add(ttl).Unix()),
		Permissions: ssh.Permissions{Extensions: map[string]string{}},
	}
	if err := cert.SignCert(rand.Reader, ca.signer); err != nil {
		return nil, fmt.Errorf("ssh ca: sign certificate: %w", err)
	}

	ephemeral, err := ssh.NewSignerFromKey(priv)
	if err != nil {
		return nil, fmt.Errorf("ssh ca: create ephemeral signer: %w", err)
	}
	certSigner, err := ssh.NewCertSigner(cert, ephemeral)
	if err != nil {
		return nil, fmt.Errorf("ssh ca: create cert signer: %w", err)
	}
	return certSigner, nil
}
