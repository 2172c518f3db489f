package utils

import "hash/fnv"

// HashStringToUint64 returns the FNV-1a hash of s.
func HashStringToUint64(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}

// Bucket maps s deterministically onto [0, n). Used to pick stable canned
// values per input, e.g. in the mock AI client.
func Bucket(s string, n int) int {
	if n <= 0 {
		return 0
	}
	return int(HashStringToUint64(s) % uint64(n))
}
