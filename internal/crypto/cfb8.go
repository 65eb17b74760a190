package crypto

import "crypto/cipher"

// cfb8 implements CFB-8 feedback mode: unlike the standard library's
// crypto/cipher CFB (segment size == block size), every encrypted/decrypted
// byte is fed back into the shift register one byte at a time. This is the
// variant the Minecraft protocol specifies (spec.md §4.1, §6) and it has no
// equivalent among the ciphers built into Go's standard library or any
// library present in the example pack, so it is implemented directly on top
// of cipher.Block (see DESIGN.md for the standard-library justification).
type cfb8 struct {
	block   cipher.Block
	shift   []byte
	tmp     []byte
	decrypt bool
}

func newCFB8(block cipher.Block, iv []byte, decrypt bool) *cfb8 {
	shift := make([]byte, len(iv))
	copy(shift, iv)
	return &cfb8{
		block:   block,
		shift:   shift,
		tmp:     make([]byte, block.BlockSize()),
		decrypt: decrypt,
	}
}

func newCFB8Encrypter(block cipher.Block, iv []byte) cipher.Stream {
	return newCFB8(block, iv, false)
}

func newCFB8Decrypter(block cipher.Block, iv []byte) cipher.Stream {
	return newCFB8(block, iv, true)
}

// XORKeyStream processes src into dst one byte at a time, as required by
// CFB-8. src and dst may overlap exactly.
//
// In both directions the byte fed back into the shift register is the
// ciphertext byte: when encrypting that's the output, when decrypting
// that's the input.
func (c *cfb8) XORKeyStream(dst, src []byte) {
	bs := c.block.BlockSize()
	for i := range src {
		c.block.Encrypt(c.tmp, c.shift)

		var cipherByte, plainByte byte
		if c.decrypt {
			cipherByte = src[i]
			plainByte = cipherByte ^ c.tmp[0]
			dst[i] = plainByte
		} else {
			plainByte = src[i]
			cipherByte = plainByte ^ c.tmp[0]
			dst[i] = cipherByte
		}

		copy(c.shift, c.shift[1:])
		c.shift[bs-1] = cipherByte
	}
}
