package apt

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/clearsign"
)

// Verifier checks the PGP signatures of release files. A Repository without
// a Verifier performs no signature checks at all; that degradation is
// deliberate and up to the caller.
type Verifier interface {
	// InlineVerify checks an inline-signed (clearsigned) document and, when
	// the signature is good, returns the signed plaintext.
	InlineVerify(data []byte) (valid bool, plain []byte, err error)

	// DetachedVerify checks a detached signature over data. The signature
	// may be ASCII-armored or binary.
	DetachedVerify(data, signature []byte) (bool, error)
}

// KeyringVerifier verifies signatures against an OpenPGP keyring.
type KeyringVerifier struct {
	keyring openpgp.EntityList
}

// NewKeyringVerifier wraps an already loaded keyring.
func NewKeyringVerifier(keyring openpgp.EntityList) *KeyringVerifier {
	return &KeyringVerifier{keyring: keyring}
}

// ReadKeyring loads a keyring from r, accepting both ASCII-armored and
// binary key material.
func ReadKeyring(r io.Reader) (*KeyringVerifier, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("apt: reading keyring: %w", err)
	}

	keyring, err := openpgp.ReadArmoredKeyRing(bytes.NewReader(data))
	if err != nil {
		keyring, err = openpgp.ReadKeyRing(bytes.NewReader(data))
	}
	if err != nil {
		return nil, fmt.Errorf("apt: parsing keyring: %w", err)
	}
	return NewKeyringVerifier(keyring), nil
}

// OpenKeyring loads a keyring file from disk.
func OpenKeyring(path string) (*KeyringVerifier, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("apt: opening keyring: %w", err)
	}
	defer f.Close()
	return ReadKeyring(f)
}

// InlineVerify decodes the clearsign block in data and checks its signature.
// The returned plaintext preserves the signed message as written.
func (v *KeyringVerifier) InlineVerify(data []byte) (bool, []byte, error) {
	block, _ := clearsign.Decode(data)
	if block == nil {
		return false, nil, fmt.Errorf("apt: no clearsigned block found")
	}
	_, err := openpgp.CheckDetachedSignature(
		v.keyring, bytes.NewReader(block.Bytes), block.ArmoredSignature.Body, nil)
	if err != nil {
		return false, nil, nil
	}
	return true, block.Plaintext, nil
}

// DetachedVerify checks signature over data against the keyring.
func (v *KeyringVerifier) DetachedVerify(data, signature []byte) (bool, error) {
	var err error
	if bytes.HasPrefix(bytes.TrimSpace(signature), []byte("-----BEGIN PGP")) {
		_, err = openpgp.CheckArmoredDetachedSignature(
			v.keyring, bytes.NewReader(data), bytes.NewReader(signature), nil)
	} else {
		_, err = openpgp.CheckDetachedSignature(
			v.keyring, bytes.NewReader(data), bytes.NewReader(signature), nil)
	}
	return err == nil, nil
}
