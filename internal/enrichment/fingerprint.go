package enrichment

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Fingerprint returns the SHA-256 hex digest (64 characters) of v serialized
// as JSON with object keys in lexicographic order, so two payloads that only
// differ in key order share a fingerprint. The JSON is compact ({"a":1}),
// so digests differ from ones taken over spaced or 1.0-style renderings.
func Fingerprint(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		// NaN and other non-JSON values; fmt also prints map keys sorted.
		buf.Reset()
		fmt.Fprintf(&buf, "%#v", v)
	}

	sum := sha256.Sum256(bytes.TrimSuffix(buf.Bytes(), []byte("\n")))
	return hex.EncodeToString(sum[:])
}
