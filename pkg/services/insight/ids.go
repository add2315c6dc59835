package insight

import (
	"fmt"

	"github.com/de-tools/approval-atlas/pkg/models/domain"
	"github.com/google/uuid"
)

// IDGenerator issues insight identifiers.
type IDGenerator interface {
	NewID(rank int, record domain.AnomalyRecord) string
}

// RandomIDs issues a fresh random UUID per insight.
type RandomIDs struct{}

func (RandomIDs) NewID(int, domain.AnomalyRecord) string {
	return uuid.NewString()
}

// SeededIDs derives name-based UUIDs so that identical runs get identical ids.
type SeededIDs struct {
	namespace uuid.UUID
}

func NewSeededIDs(seed string) SeededIDs {
	return SeededIDs{namespace: uuid.NewSHA1(uuid.NameSpaceOID, []byte(seed))}
}

func (s SeededIDs) NewID(rank int, record domain.AnomalyRecord) string {
	return uuid.NewSHA1(s.namespace, []byte(fmt.Sprintf("%d|%s", rank, record.SegmentKey))).String()
}
