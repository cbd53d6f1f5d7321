package paypro

import (
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"log/slog"

	"github.com/gcash/bchd/bchec"
)

// Signer produces the integrity headers every JPPv2 response carries:
// a SHA-256 digest of the body and a DER ECDSA signature over that
// digest, made with the gateway's secp256k1 identity key.
type Signer struct {
	key      *bchec.PrivateKey
	identity string
}

// NewSigner loads the identity key from hex. An empty keyHex generates
// an ephemeral key: responses stay verifiable within the process
// lifetime but clients cannot pin the identity across restarts.
func NewSigner(keyHex, identityURL string) (*Signer, error) {
	if keyHex == "" {
		key, err := bchec.NewPrivateKey(bchec.S256())
		if err != nil {
			return nil, fmt.Errorf("generate identity key: %w", err)
		}
		slog.Warn("no identity key configured, using an ephemeral key")
		return &Signer{key: key, identity: identityURL}, nil
	}

	raw, err := hex.DecodeString(keyHex)
	if err != nil {
		return nil, fmt.Errorf("decode identity key: %w", err)
	}
	key, _ := bchec.PrivKeyFromBytes(bchec.S256(), raw)
	return &Signer{key: key, identity: identityURL}, nil
}

// PublicKey is the key clients verify response signatures against.
func (s *Signer) PublicKey() *bchec.PublicKey {
	return s.key.PubKey()
}

// Headers signs the serialized response body.
func (s *Signer) Headers(body []byte) (map[string]string, error) {
	digest := sha256.Sum256(body)

	der, err := ecdsa.SignASN1(rand.Reader, s.key.ToECDSA(), digest[:])
	if err != nil {
		return nil, fmt.Errorf("sign response digest: %w", err)
	}

	return map[string]string{
		"Digest":                      "SHA-256=" + base64.StdEncoding.EncodeToString(digest[:]),
		"X-Signature-Type":            "ECC",
		"X-Identity":                  s.identity,
		"X-Signature":                 base64.StdEncoding.EncodeToString(der),
		"Access-Control-Allow-Origin": "*",
	}, nil
}
