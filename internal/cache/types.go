package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Common errors for cache operations
var (
	// ErrItemTooLarge is returned when an item exceeds the cache capacity
	ErrItemTooLarge = errors.New("item too large for cache")

	// ErrClosed is returned when the cache has been closed
	ErrClosed = errors.New("cache closed")
)

// DefaultCompressionLevel is the zstd level audio is stored with.
const DefaultCompressionLevel = 3

// Stats holds cache performance metrics
type Stats struct {
	Capacity  int64 // Maximum capacity in bytes
	Size      int64 // Current size on disk in bytes
	ItemCount int64

	Hits      int64
	Misses    int64
	Evictions int64
	HitRate   float64

	LastAccess time.Time
	LastEvict  time.Time
}

// Key derives the cache key for text spoken in lang at speed.
func Key(text, lang string, speed float64) string {
	data := fmt.Sprintf("%s|%s|%.2f", strings.TrimSpace(text), strings.ToLower(lang), speed)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:16])
}
