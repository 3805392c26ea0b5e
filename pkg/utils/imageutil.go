package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"mime"
	"strings"

	"github.com/google/uuid"
)

// NormalizeContentType lower-cases a content type and drops parameters.
func NormalizeContentType(contentType string) string {
	ct := strings.TrimSpace(strings.ToLower(contentType))
	if mediaType, _, err := mime.ParseMediaType(ct); err == nil {
		return mediaType
	}
	return ct
}

// IsAllowedType reports whether contentType is on the allow-list.
func IsAllowedType(contentType string, allowed []string) bool {
	ct := NormalizeContentType(contentType)
	if ct == "" {
		return false
	}
	for _, a := range allowed {
		if ct == NormalizeContentType(a) {
			return true
		}
	}
	return false
}

// GenerateStorageKey returns "<uuid>.<ext>" where ext is the subtype of the
// content type, e.g. "image/png" -> "….png".
func GenerateStorageKey(contentType string) string {
	ct := NormalizeContentType(contentType)
	ext := ct
	if i := strings.IndexByte(ct, '/'); i >= 0 {
		ext = ct[i+1:]
	}
	if ext == "" {
		ext = "bin"
	}
	return fmt.Sprintf("%s.%s", uuid.New().String(), ext)
}

// ContentKey identifies file content independently of its display name.
func ContentKey(data []byte) string {
	sum := sha256.Sum256(data)
	return fmt.Sprintf("%s:%d", hex.EncodeToString(sum[:]), len(data))
}
