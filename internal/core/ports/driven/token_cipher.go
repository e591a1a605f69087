package driven

// TokenCipher encrypts token material at rest.
// Every call to EncryptString must use a fresh nonce. aad binds the blob to
// its owner: decrypting with a different aad fails.
type TokenCipher interface {
	EncryptString(s string, aad []byte) ([]byte, error)
	DecryptString(blob, aad []byte) (string, error)
}
