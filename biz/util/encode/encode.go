package encode

import (
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/scrypt"
)

const (
	scryptN      = 16384
	scryptR      = 16
	scryptP      = 1
	scryptKeyLen = 64
)

// EncodePassword derives the hex scrypt key of password with salt.
func EncodePassword(salt, password string) string {
	key, err := scrypt.Key([]byte(password), []byte(salt), scryptN, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		// parameters are constant and valid
		panic(err)
	}
	return hex.EncodeToString(key)
}

// HashPassword returns "salt:key", the form stored on credential accounts.
func HashPassword(salt, password string) string {
	return salt + ":" + EncodePassword(salt, password)
}

func VerifyPassword(hashed, password string) bool {
	salt, key, ok := strings.Cut(hashed, ":")
	if !ok || salt == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(EncodePassword(salt, password)), []byte(key)) == 1
}
