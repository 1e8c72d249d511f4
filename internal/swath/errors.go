package swath

import "errors"

var (
	// ErrUnsupportedFormat is returned for files whose extension maps to no
	// known container format. The file is skipped and counted as failed.
	ErrUnsupportedFormat = errors.New("unsupported source format")

	// ErrNoValidTimingData is returned by the data-rate analysis when not a
	// single usable timestamp exists. Other analyses still proceed.
	ErrNoValidTimingData = errors.New("no valid timing data")

	// ErrMissingReferenceFields marks legacy records that carry no
	// installation offsets. Re-referencing degrades to a zero translation.
	ErrMissingReferenceFields = errors.New("missing installation offsets")
)
