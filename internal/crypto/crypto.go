// Package crypto implements the login key exchange described in spec.md
// §4.2 and §6: a server-generated RSA-1024 keypair, PKCS#1 v1.5 decryption of
// the client's shared secret and verify token, and the AES-128-CFB8 stream
// cipher pair installed on the connection afterward.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"errors"
)

// VerifyTokenLength is the fixed size of the verify token exchanged during
// login (spec.md §6: "Verify token is 4 bytes").
const VerifyTokenLength = 4

// ErrVerifyTokenMismatch is returned when the client's re-encrypted verify
// token doesn't match the one the server sent.
var ErrVerifyTokenMismatch = errors.New("crypto: verify token mismatch")

// KeyPair holds the server's long-lived RSA keypair, generated once per
// process start (spec.md §4.2: "generated once per process start").
type KeyPair struct {
	private *rsa.PrivateKey
	derPub  []byte
}

// NewKeyPair generates a fresh RSA-1024 keypair and caches its DER-encoded
// public key for repeated use in Encryption Request packets.
func NewKeyPair() (*KeyPair, error) {
	priv, err := rsa.GenerateKey(rand.Reader, 1024)
	if err != nil {
		return nil, err
	}
	der, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	if err != nil {
		return nil, err
	}
	return &KeyPair{private: priv, derPub: der}, nil
}

// PublicKeyDER returns the server's public key in the DER form sent over the
// wire in the Encryption Request packet.
func (k *KeyPair) PublicKeyDER() []byte { return k.derPub }

// NewVerifyToken produces a fresh random verify token for one login attempt.
func NewVerifyToken() ([]byte, error) {
	token := make([]byte, VerifyTokenLength)
	if _, err := rand.Read(token); err != nil {
		return nil, err
	}
	return token, nil
}

// Decrypt performs RSA PKCS#1 v1.5 decryption of a client-supplied,
// RSA-encrypted blob (either the shared secret or the verify token).
func (k *KeyPair) Decrypt(ciphertext []byte) ([]byte, error) {
	return rsa.DecryptPKCS1v15(rand.Reader, k.private, ciphertext)
}

// CompleteHandshake decrypts the client's Encryption Response fields and
// verifies that the returned verify token matches what the server sent. On
// success it returns the shared secret, ready to seed AES-128-CFB8 ciphers
// for both directions (spec.md §6: "same key used as IV").
func (k *KeyPair) CompleteHandshake(encryptedSecret, encryptedToken, expectedToken []byte) (sharedSecret []byte, err error) {
	token, err := k.Decrypt(encryptedToken)
	if err != nil {
		return nil, err
	}
	if !bytesEqual(token, expectedToken) {
		return nil, ErrVerifyTokenMismatch
	}
	return k.Decrypt(encryptedSecret)
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Ciphers holds the pair of AES-128-CFB8 keystreams installed on a
// connection once the shared secret is known: one for decrypting inbound
// bytes, one for encrypting outbound bytes.
type Ciphers struct {
	Decrypt cipher.Stream
	Encrypt cipher.Stream
}

// NewCiphers builds the encrypt/decrypt stream pair from the shared secret,
// using the secret itself as the IV as spec.md §6 requires.
func NewCiphers(sharedSecret []byte) (*Ciphers, error) {
	block, err := aes.NewCipher(sharedSecret)
	if err != nil {
		return nil, err
	}
	return &Ciphers{
		Decrypt: newCFB8Decrypter(block, sharedSecret),
		Encrypt: newCFB8Encrypter(block, sharedSecret),
	}, nil
}
