package utils

import (
	"crypto/rand"
	"encoding/base32"
	"strconv"
	"time"
)

const referenceSuffixLen = 6

// GenerateReference builds a transaction reference of the form
// <prefix><unix millis><6 random base32 chars>.
func GenerateReference(prefix string, now time.Time) string {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		panic("failed to read random bytes: " + err.Error())
	}
	suffix := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(b)[:referenceSuffixLen]
	return prefix + strconv.FormatInt(now.UnixMilli(), 10) + suffix
}
