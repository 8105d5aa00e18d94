package hash

import (
	"io"
	"strconv"

	"github.com/cespare/xxhash/v2"

	"github.com/hupe1980/gridgo/internal/pool"
)

var digests = pool.New(xxhash.New, (*xxhash.Digest).Reset)

// SumWriter returns the xxhash digest of everything write emits. Digests
// are pooled, so no intermediate buffer is allocated.
func SumWriter(write func(w io.Writer) error) (uint64, error) {
	d := digests.Get()
	defer digests.Put(d)

	if err := write(d); err != nil {
		return 0, err
	}
	return d.Sum64(), nil
}

// Hex formats a digest as a fixed-width lowercase hex string.
func Hex(d uint64) string {
	s := strconv.FormatUint(d, 16)
	if len(s) < 16 {
		s = "0000000000000000"[len(s):] + s
	}
	return s
}
