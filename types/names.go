package types

import (
	"fmt"
	"sync/atomic"
	"time"
)

var nameSeq uint64

// UniqueName returns an asset filename that never collides within a process
// run: timestamp plus a monotonically increasing counter. Jobs share the
// asset directory, so names carry all the isolation there is.
func UniqueName(kind AssetKind, ext string) string {
	n := atomic.AddUint64(&nameSeq, 1)
	return fmt.Sprintf("%s_%s_%06d%s", kind, time.Now().UTC().Format("20060102_150405"), n, ext)
}
