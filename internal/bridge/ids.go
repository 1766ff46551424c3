package bridge

import (
	"strconv"
	"sync/atomic"
	"time"
)

// idGenerator issues "{source}_{millis}" correlation ids. The millisecond
// stamp is bumped past the last issued value, so ids within one process are
// unique and increasing even under bursts.
type idGenerator struct {
	last atomic.Int64
}

func (g *idGenerator) next(source Source, now time.Time) string {
	ms := now.UnixMilli()
	for {
		last := g.last.Load()
		stamp := ms
		if stamp <= last {
			stamp = last + 1
		}
		if g.last.CompareAndSwap(last, stamp) {
			return string(source) + "_" + strconv.FormatInt(stamp, 10)
		}
	}
}
