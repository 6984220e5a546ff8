package vault

// Persisted field names. These form the stable on-disk contract shared with
// the browser extension and must not be renamed.
const (
	KeyPasswordSalt     = "PW_SALT"
	KeyKDFIterations    = "KDF_ITERS"
	KeyKEKVerifier      = "KEK_VERIFIER_B64"
	KeyCredCiphertext   = "CRED_CIPHERTEXT_B64"
	KeyCredNonce        = "CRED_NONCE_B64"
	KeyCredPlaintextLen = "CRED_PLAINTEXT_LEN"

	// KeyRegion selects the acquisitions API endpoint. Not security
	// sensitive; stored and cleared independently of the records above.
	KeyRegion = "REGION"
)

// PasswordRecord is the persisted password-setup state: salt and iteration
// count for the KDF, plus the verifier used to test password correctness.
// All three fields are written together at setup time; a record with any of
// them missing is treated as incomplete and unusable.
type PasswordRecord struct {
	Salt       []byte
	Iterations int
	Verifier   []byte
}

// CredentialRecord is the persisted encrypted API credential. Ciphertext and
// nonce are written together; PlaintextLen is kept unencrypted so the UI can
// render a mask of the real key length without decrypting.
type CredentialRecord struct {
	Ciphertext   []byte
	Nonce        []byte
	PlaintextLen int
}
