package flow

import (
	"strconv"
	"sync/atomic"

	"github.com/rs/xid"
)

// IDGenerator can generate IDs.
type IDGenerator interface {
	// Generate an ID
	Generate() string
}

// A sequentialIDGenerator generates deterministic IDs. It is the default for
// a Context so that two identical runs produce identical traces.
type sequentialIDGenerator struct {
	nextID uint64
}

func (g *sequentialIDGenerator) Generate() string {
	idNumber := atomic.AddUint64(&g.nextID, 1)
	return strconv.FormatUint(idNumber, 10)
}

// A xidGenerator generates globally unique IDs. The IDs are not
// deterministic across runs.
type xidGenerator struct{}

func (g xidGenerator) Generate() string {
	return xid.New().String()
}
