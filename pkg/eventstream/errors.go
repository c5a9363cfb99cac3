package eventstream

import "errors"

// ErrNilCallEvent indicates a nil call event payload was provided to a publisher.
var ErrNilCallEvent = errors.New("nil call event")
