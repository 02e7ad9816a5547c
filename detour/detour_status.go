package detour

import (
	"errors"
	"fmt"
)

type DtStatus uint32

const (
	// High level status.
	DT_FAILURE     DtStatus = 1 << 31 // Operation failed.
	DT_SUCCESS     DtStatus = 1 << 30 // Operation succeed.
	DT_IN_PROGRESS DtStatus = 1 << 29 // Operation still in progress.

	// Detail information for status.
	DT_STATUS_DETAIL_MASK DtStatus = 0x0ffffff
	DT_WRONG_MAGIC        DtStatus = 1 << 0  // Input data is not recognized.
	DT_WRONG_VERSION      DtStatus = 1 << 1  // Input data is in wrong version.
	DT_OUT_OF_MEMORY      DtStatus = 1 << 2  // Operation ran out of memory.
	DT_INVALID_PARAM      DtStatus = 1 << 3  // An input parameter was invalid.
	DT_BUFFER_TOO_SMALL   DtStatus = 1 << 4  // Result buffer for the query was too small to store all results.
	DT_OUT_OF_NODES       DtStatus = 1 << 5  // Query ran out of nodes during search.
	DT_PARTIAL_RESULT     DtStatus = 1 << 6  // Query did not reach the end location, returning best guess.
	DT_ALREADY_OCCUPIED   DtStatus = 1 << 7  // A tile has already been assigned to the given x,y coordinate
	DT_BUDGET_EXHAUSTED   DtStatus = 1 << 8  // Search stopped at the iteration budget.
	DT_INVALID_REF        DtStatus = 1 << 9  // A node reference does not resolve to a live node.
	DT_NO_ANCHOR          DtStatus = 1 << 10 // An off-mesh endpoint has no walkable polygon nearby.
	DT_UNREACHABLE        DtStatus = 1 << 11 // Start or end rejected by the filter, or no connecting path.
	DT_EMPTY_AREA         DtStatus = 1 << 12 // No walkable area passes the filter.
)

// Returns true of status is success.
func (status DtStatus) DtStatusSucceed() bool {
	return (status & DT_SUCCESS) != 0
}

// Returns true of status is failure.
func (status DtStatus) DtStatusFailed() bool {
	return (status & DT_FAILURE) != 0
}

// Returns true of status is in progress.
func (status DtStatus) DtStatusInProgress() bool {
	return (status & DT_IN_PROGRESS) != 0
}

// Returns true if specific detail is set.
func (status DtStatus) DtStatusDetail(detail DtStatus) bool {
	return (status & detail) != 0
}

var ErrFailure = errors.New("operation failed")
var ErrWrongMagic = fmt.Errorf("%w: input data is not recognized", ErrFailure)
var ErrWrongVersion = fmt.Errorf("%w: input data is in wrong version", ErrFailure)
var ErrOutOfMemory = fmt.Errorf("%w: operation ran out of memory", ErrFailure)
var ErrInvalidParam = fmt.Errorf("%w: an input parameter was invalid", ErrFailure)
var ErrAlreadyOccupied = fmt.Errorf("%w: tile location already occupied", ErrFailure)
var ErrInvalidRef = fmt.Errorf("%w: node reference is stale or malformed", ErrFailure)
var ErrNoAnchor = fmt.Errorf("%w: no walkable polygon near off-mesh endpoint", ErrFailure)
var ErrUnreachable = fmt.Errorf("%w: goal is unreachable", ErrFailure)
var ErrEmptyArea = fmt.Errorf("%w: no walkable area passes the filter", ErrFailure)

// Err maps a failed status to the matching sentinel error. Successful statuses,
// partial results included, return nil.
func (status DtStatus) Err() error {
	if !status.DtStatusFailed() {
		return nil
	}
	switch {
	case status.DtStatusDetail(DT_INVALID_REF):
		return ErrInvalidRef
	case status.DtStatusDetail(DT_NO_ANCHOR):
		return ErrNoAnchor
	case status.DtStatusDetail(DT_UNREACHABLE):
		return ErrUnreachable
	case status.DtStatusDetail(DT_EMPTY_AREA):
		return ErrEmptyArea
	case status.DtStatusDetail(DT_WRONG_MAGIC):
		return ErrWrongMagic
	case status.DtStatusDetail(DT_WRONG_VERSION):
		return ErrWrongVersion
	case status.DtStatusDetail(DT_OUT_OF_MEMORY):
		return ErrOutOfMemory
	case status.DtStatusDetail(DT_ALREADY_OCCUPIED):
		return ErrAlreadyOccupied
	case status.DtStatusDetail(DT_INVALID_PARAM):
		return ErrInvalidParam
	}
	return ErrFailure
}
