package badger

// Key prefixes for the embedding cache.
const (
	embeddingCachePrefix = "embcache"
)

var (
	namesKey   = makeEmbeddingCacheKey("names")
	vectorsKey = makeEmbeddingCacheKey("vectors")
	digestKey  = makeEmbeddingCacheKey("digest")
)

// makeEmbeddingCacheKey generates a key under the embedding cache prefix.
// Format: prefix:field
func makeEmbeddingCacheKey(field string) []byte {
	prefix := embeddingCachePrefix + ":"
	buf := make([]byte, len(prefix)+len(field))
	offset := copy(buf, prefix)
	copy(buf[offset:], field)
	return buf
}
