package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"maps"
	"slices"
	"strconv"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func LockKey(resource string) string {
	return fmt.Sprintf("lock:%s", resource)
}

// GenerateCacheKey builds a deterministic key under namespace from a set of
// parameters. Parameter order does not matter.
//
//	GenerateCacheKey("products:list:v3", map[string]string{"page": "2", "q": "lamp"})
//	// "products:list:v3:<16 hex chars>"
func GenerateCacheKey(namespace string, params map[string]string) string {
	h := sha256.New()
	for _, k := range slices.Sorted(maps.Keys(params)) {
		h.Write([]byte(k))
		h.Write([]byte{0})
		h.Write([]byte(params[k]))
		h.Write([]byte{0})
	}

	return namespace + ":" + hex.EncodeToString(h.Sum(nil))[:16]
}

func parseInt64(data []byte) (int64, error) {
	return strconv.ParseInt(string(data), 10, 64)
}

func formatInt64(value int64) []byte {
	return []byte(strconv.FormatInt(value, 10))
}
