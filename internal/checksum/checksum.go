// Package checksum computes content digests used as HTTP entity tags.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Note returns the entity tag of one note version. The id is part of the
// digest so two notes with the same text never share a tag. Zero bytes
// separate the fields so ("ab", "c") and ("a", "bc") stay apart.
func Note(id, title, content string) string {
	buf := make([]byte, 0, len(id)+len(title)+len(content)+2)
	buf = append(buf, id...)
	buf = append(buf, 0)
	buf = append(buf, title...)
	buf = append(buf, 0)
	buf = append(buf, content...)
	return Sum(buf)
}
