package repositories

import "errors"

// ErrNotFound is wrapped into every not-found error returned by the
// repositories so callers can test with errors.Is instead of matching
// message text.
var ErrNotFound = errors.New("record not found")

// ErrConflict reports that a conditional write matched no row because a
// concurrent request changed it between read and write.
var ErrConflict = errors.New("conflicting concurrent update")
