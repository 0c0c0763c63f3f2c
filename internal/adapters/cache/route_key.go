package cache

import (
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// RouteKey fingerprints an encoded solver request. encoding/json writes map
// keys in sorted order, so equal requests always produce equal keys.
func RouteKey(payload []byte) string {
	return "route:" + strconv.FormatUint(xxhash.Sum64(payload), 16)
}
