package badgerdb

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/smakiapp/smaki-server/internal/domain"
)

// Key layout:
//
//	flavor:<id, 20 digits>            -> JSON domain.Flavor
//	flavor:idx:<index>:<value>        -> id
//	selection:<YYYY-MM-DD>            -> JSON domain.DailySelection
//	seq:flavor                        -> badger sequence for flavor ids
//
// Ids are zero-padded and dates are ISO so byte order matches id and
// calendar order.
const (
	flavorPrefix    = "flavor:"
	selectionPrefix = "selection:"
	indexInfix      = "idx:"
	flavorSeqKey    = "seq:flavor"
)

// keyPool provides reusable byte slices for building keys on the hot path.
var keyPool = sync.Pool{
	New: func() any {
		return make([]byte, 0, 128)
	},
}

// buildKey concatenates prefix and suffix into a pooled buffer.
// Callers must call releaseKey when done with it.
func buildKey(prefix, suffix string) []byte {
	buf, _ := keyPool.Get().([]byte)
	buf = buf[:0]
	buf = append(buf, prefix...)
	buf = append(buf, suffix...)
	return buf
}

// buildIndexKey returns prefix + "idx:" + name + ":" + value in a pooled buffer.
// Callers must call releaseKey when done with it.
func buildIndexKey(prefix, name, value string) []byte {
	buf, _ := keyPool.Get().([]byte)
	buf = buf[:0]
	buf = append(buf, prefix...)
	buf = append(buf, indexInfix...)
	buf = append(buf, name...)
	buf = append(buf, ':')
	buf = append(buf, value...)
	return buf
}

func releaseKey(key []byte) {
	if cap(key) <= 512 {
		keyPool.Put(key[:0])
	}
}

func formatID(id int64) string {
	return fmt.Sprintf("%020d", id)
}

func parseID(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}

func selectionKey(date domain.Date) []byte {
	return []byte(selectionPrefix + date.String())
}
