package canonhash

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Sum computes the tamper-evidence hash over the canonical JSON encoding of
// v. encoding/json emits map keys in sorted order and struct fields in
// declaration order, so equal values hash equal regardless of how they were
// assembled. Returns the prefixed digest and the canonical bytes.
func Sum(v any) (string, []byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", nil, err
	}
	sum := sha256.Sum256(b)
	return "sha256:" + hex.EncodeToString(sum[:]), b, nil
}
