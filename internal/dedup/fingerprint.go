// Package dedup computes the cross-source content fingerprint used to
// detect the same real-world posting appearing under multiple sources.
package dedup

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
)

// Fingerprint hashes lowercased, whitespace-normalized title, company and
// location. Deliberately coarse: it ignores the description, trading
// false-positive matches for recall of true cross-source duplicates.
func Fingerprint(title, company, location string) string {
	key := canon(title) + "|" + canon(company) + "|" + canon(location)
	sum := md5.Sum([]byte(key))
	return hex.EncodeToString(sum[:])
}

func canon(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
