package mail

import (
	"bytes"
	"crypto"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"

	"github.com/Goofygiraffe06/prepwise/internal/logging"
	"github.com/emersion/go-msgauth/dkim"
)

var ErrInvalidDKIMKey = errors.New("invalid DKIM private key")

// DKIMSigner adds a DKIM-Signature header to outgoing messages.
type DKIMSigner struct {
	domain   string
	selector string
	key      crypto.Signer
}

// NewDKIMSigner accepts an RSA or Ed25519 key in PKCS#8 or PKCS#1 PEM form.
func NewDKIMSigner(domain, selector string, keyPEM []byte) (*DKIMSigner, error) {
	key, err := parsePrivateKey(keyPEM)
	if err != nil {
		return nil, err
	}
	return &DKIMSigner{domain: domain, selector: selector, key: key}, nil
}

// LoadDKIMSigner reads the key from disk.
func LoadDKIMSigner(domain, selector, keyFile string) (*DKIMSigner, error) {
	data, err := os.ReadFile(keyFile)
	if err != nil {
		return nil, fmt.Errorf("read DKIM key: %w", err)
	}
	return NewDKIMSigner(domain, selector, data)
}

// Sign returns the message with a DKIM-Signature header prepended.
func (d *DKIMSigner) Sign(message []byte) ([]byte, error) {
	opts := &dkim.SignOptions{
		Domain:                 d.domain,
		Selector:               d.selector,
		Signer:                 d.key,
		HeaderCanonicalization: dkim.CanonicalizationRelaxed,
		BodyCanonicalization:   dkim.CanonicalizationRelaxed,
	}

	var out bytes.Buffer
	if err := dkim.Sign(&out, bytes.NewReader(message), opts); err != nil {
		logging.WarnLog("DKIM signing failed for domain=%s: %v", d.domain, err)
		return nil, err
	}
	return out.Bytes(), nil
}

func parsePrivateKey(keyPEM []byte) (crypto.Signer, error) {
	block, _ := pem.Decode(keyPEM)
	if block == nil {
		return nil, ErrInvalidDKIMKey
	}

	switch block.Type {
	case "RSA PRIVATE KEY":
		key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidDKIMKey, err)
		}
		return key, nil
	case "PRIVATE KEY":
		key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidDKIMKey, err)
		}
		signer, ok := key.(crypto.Signer)
		if !ok {
			return nil, ErrInvalidDKIMKey
		}
		return signer, nil
	default:
		return nil, fmt.Errorf("%w: unexpected PEM block %q", ErrInvalidDKIMKey, block.Type)
	}
}
