package utils

import (
	"crypto/md5"
	"fmt"
	"sort"
	"strings"
)

func HashString(input string) string {
	hash := md5.Sum([]byte(input))
	return fmt.Sprintf("%x", hash)
}

// Fingerprint hashes a key/value set independent of map iteration order.
func Fingerprint(pairs map[string]int) string {
	keys := make([]string, 0, len(pairs))
	for k := range pairs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s=%d;", k, pairs[k])
	}
	return HashString(b.String())
}
