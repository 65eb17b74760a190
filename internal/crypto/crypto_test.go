package crypto

import (
	"bytes"
	"crypto/aes"
	"testing"
)

func TestCFB8RoundTrip(t *testing.T) {
	secret := bytes.Repeat([]byte{0x42}, 16)
	kp, err := NewKeyPair()
	if err != nil {
		t.Fatal(err)
	}
	_ = kp

	block, err := aes.NewCipher(secret)
	if err != nil {
		t.Fatal(err)
	}
	enc := newCFB8Encrypter(block, secret)
	dec := newCFB8Decrypter(block, secret)

	plaintext := []byte("the quick brown fox jumps over the lazy dog, 1234567890")
	cipherText := make([]byte, len(plaintext))
	enc.XORKeyStream(cipherText, plaintext)

	recovered := make([]byte, len(plaintext))
	dec.XORKeyStream(recovered, cipherText)

	if !bytes.Equal(plaintext, recovered) {
		t.Fatalf("round trip mismatch: got %q want %q", recovered, plaintext)
	}
	if bytes.Equal(plaintext, cipherText) {
		t.Fatal("ciphertext should not equal plaintext")
	}
}

func TestCFB8StreamsByteAtATime(t *testing.T) {
	secret := bytes.Repeat([]byte{0x07}, 16)
	block, err := aes.NewCipher(secret)
	if err != nil {
		t.Fatal(err)
	}
	enc := newCFB8Encrypter(block, secret)
	dec := newCFB8Decrypter(block, secret)

	plaintext := []byte("streaming one byte at a time must match bulk encryption")
	bulk := make([]byte, len(plaintext))
	newCFB8Encrypter(block, secret).XORKeyStream(bulk, plaintext)

	streamed := make([]byte, len(plaintext))
	for i, b := range plaintext {
		enc.XORKeyStream(streamed[i:i+1], []byte{b})
	}
	if !bytes.Equal(bulk, streamed) {
		t.Fatalf("byte-at-a-time encryption diverged from bulk encryption")
	}

	recovered := make([]byte, len(plaintext))
	for i := range streamed {
		dec.XORKeyStream(recovered[i:i+1], streamed[i:i+1])
	}
	if !bytes.Equal(plaintext, recovered) {
		t.Fatalf("byte-at-a-time decryption failed: got %q want %q", recovered, plaintext)
	}
}
