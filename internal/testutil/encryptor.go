package testutil

import (
	"folio/internal/encryption"
	"folio/internal/folio"
)

// NewTestEncryptor creates a deterministic encryptor that needs no keys.
func NewTestEncryptor() folio.Encryptor {
	return encryption.NewTestEncryptor()
}
