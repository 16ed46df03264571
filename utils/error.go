package utils

import "errors"

var ErrorRecordNotFound = errors.New("record not found")

// ErrStoreUnavailable is returned when the local store cannot persist a
// mutation. Callers must fail the enclosing create: proceeding without a
// durable queue entry would silently drop the user's work.
var ErrStoreUnavailable = errors.New("local store unavailable")

// ErrParentRequired is returned when a line-item or action mutation is
// enqueued without the owning document's id.
var ErrParentRequired = errors.New("parent entity id is required")

func ErrorPanic(err error) {
	if err != nil {
		panic(err)
	}
}
