package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
)

// TokenCipher encrypts aggregator access tokens before they are persisted.
// AES-256-CBC with a fresh random IV per call; the IV is hex-encoded and
// prepended to the hex ciphertext as "iv:ciphertext" so decryption needs no
// out-of-band state.
type TokenCipher struct {
	block cipher.Block
}

// NewTokenCipher fails unless the key is exactly 32 bytes. Callers treat
// that as fatal at startup; the process must not run with a weak key.
func NewTokenCipher(key string) (*TokenCipher, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("token cipher key must be exactly 32 bytes, got %d", len(key))
	}
	block, err := aes.NewCipher([]byte(key))
	if err != nil {
		return nil, err
	}
	return &TokenCipher{block: block}, nil
}

func (c *TokenCipher) Encrypt(plaintext string) (string, error) {
	iv := make([]byte, aes.BlockSize)
	if _, err := rand.Read(iv); err != nil {
		return "", err
	}

	padded := pkcs7Pad([]byte(plaintext), aes.BlockSize)
	encrypted := make([]byte, len(padded))
	cipher.NewCBCEncrypter(c.block, iv).CryptBlocks(encrypted, padded)

	return hex.EncodeToString(iv) + ":" + hex.EncodeToString(encrypted), nil
}

func (c *TokenCipher) Decrypt(envelope string) (string, error) {
	parts := strings.Split(envelope, ":")
	if len(parts) != 2 {
		return "", fmt.Errorf("invalid encrypted token format")
	}

	iv, err := hex.DecodeString(parts[0])
	if err != nil {
		return "", fmt.Errorf("invalid encrypted token format: %w", err)
	}
	encrypted, err := hex.DecodeString(parts[1])
	if err != nil {
		return "", fmt.Errorf("invalid encrypted token format: %w", err)
	}
	if len(iv) != aes.BlockSize || len(encrypted) == 0 || len(encrypted)%aes.BlockSize != 0 {
		return "", fmt.Errorf("invalid encrypted token format")
	}

	decrypted := make([]byte, len(encrypted))
	cipher.NewCBCDecrypter(c.block, iv).CryptBlocks(decrypted, encrypted)

	unpadded, err := pkcs7Unpad(decrypted, aes.BlockSize)
	if err != nil {
		return "", err
	}
	return string(unpadded), nil
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	padding := blockSize - len(data)%blockSize
	padded := make([]byte, len(data)+padding)
	copy(padded, data)
	for i := len(data); i < len(padded); i++ {
		padded[i] = byte(padding)
	}
	return padded
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, fmt.Errorf("invalid padding")
	}
	padding := int(data[len(data)-1])
	if padding == 0 || padding > blockSize {
		return nil, fmt.Errorf("invalid padding")
	}
	for _, b := range data[len(data)-padding:] {
		if int(b) != padding {
			return nil, fmt.Errorf("invalid padding")
		}
	}
	return data[:len(data)-padding], nil
}
