// Package ids generates identifiers for stored entities.
//
// Tasks carry sequential, zero-padded decimal IDs that are unique across the
// whole task collection regardless of tenant. Every other entity gets an
// opaque base-36 ID with no ordering guarantee.
package ids

import (
	"fmt"
	"math/big"
	"strconv"

	"github.com/google/uuid"
)

// TaskIDWidth is the minimum number of digits of a task ID. Larger numbers
// render with more digits.
const TaskIDWidth = 4

// MaxTaskNumber returns the highest numeric task ID in ids, or 0 when none
// parse as an integer. An ID must be a whole decimal number to count; one
// with a numeric prefix such as "12abc" is ignored rather than read as 12.
func MaxTaskNumber(ids []string) int {
	maxID := 0
	for _, id := range ids {
		n, err := strconv.Atoi(id)
		if err != nil {
			continue
		}
		if n > maxID {
			maxID = n
		}
	}
	return maxID
}

// NextTaskID returns the ID following the current maximum in ids, shifted by
// offset. A batch numbers its members with offsets 0..n-1 against the same
// pre-batch ids so the batch is contiguous and collision free.
func NextTaskID(ids []string, offset int) string {
	return FormatTaskID(MaxTaskNumber(ids) + 1 + offset)
}

// FormatTaskID renders n zero-padded to TaskIDWidth.
func FormatTaskID(n int) string {
	return fmt.Sprintf("%0*d", TaskIDWidth, n)
}

// NewOpaqueID returns a random base-36 identifier derived from a UUIDv7.
func NewOpaqueID() string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return new(big.Int).SetBytes(id[:]).Text(36)
}
