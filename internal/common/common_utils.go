package common

import (
	"encoding/json"
	"fmt"
	"time"
)

func GetResponseTime(init time.Time) string {
	timeDiff := time.Since(init).Milliseconds()
	return fmt.Sprintf("%dms", timeDiff)
}

// DecodeCached converts a cached value back to T. In-memory caches hand back
// the stored value itself; Redis hands back its JSON decoding.
func DecodeCached[T any](val interface{}) (T, bool) {
	var out T
	if typed, ok := val.(T); ok {
		return typed, true
	}

	raw, err := json.Marshal(val)
	if err != nil {
		return out, false
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, false
	}
	return out, true
}
