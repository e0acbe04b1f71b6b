package capture

import (
	"errors"
	"fmt"
)

var (
	// ErrNoFrame means the desktop presented no new frame within the
	// acquisition timeout. The session stays usable; retry later.
	ErrNoFrame = errors.New("no new desktop frame")

	ErrNotInitialized = errors.New("capture engine not initialized")
	ErrUnsupported    = errors.New("desktop duplication is not supported on this platform")
	ErrInvalidWindow  = errors.New("invalid window")
)

// Kind classifies capture failures.
type Kind int

const (
	// KindSetup covers device, adapter, output and duplication creation.
	// The engine is unusable; build a new one to retry.
	KindSetup Kind = iota + 1
	// KindFrame covers frame acquisition, including timeouts.
	KindFrame
	// KindGeometry covers unresolvable or empty window rectangles.
	// No GPU resource is touched.
	KindGeometry
	// KindResource covers staging texture creation and mapping.
	KindResource
)

func (k Kind) String() string {
	switch k {
	case KindSetup:
		return "setup"
	case KindFrame:
		return "frame"
	case KindGeometry:
		return "geometry"
	case KindResource:
		return "resource"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Error is returned by Engine operations.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("capture: %s (%s): %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of err, or 0 if err is not an *Error.
func KindOf(err error) Kind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return 0
}
