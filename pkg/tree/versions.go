package tree

// Versions is a snapshot of the engine's change counters. Each counter only
// grows.
type Versions struct {
	// Version moves on virtually every mutation.
	Version uint64 `json:"version"`
	// Expand moves on expansion changes and search transitions.
	Expand uint64 `json:"expand"`
	// Selection moves on non-silent checkbox changes.
	Selection uint64 `json:"selection"`
	// SearchEpoch moves on search query transitions only.
	SearchEpoch uint64 `json:"search_epoch"`
	// Assign moves on every assignment write, silent ones included. Values
	// derived only from checkbox state can be keyed on it.
	Assign uint64 `json:"assign"`
}

// stamp identifies the counter values a cached value was computed against.
type stamp [2]uint64

// versioned holds a derived value together with the stamp it is valid for.
// A value whose stamp no longer matches is dropped and rebuilt by the caller.
type versioned[T any] struct {
	value T
	at    stamp
	ok    bool
}

func (v *versioned[T]) load(at stamp) (T, bool) {
	if v.ok && v.at == at {
		return v.value, true
	}
	var zero T
	return zero, false
}

func (v *versioned[T]) store(at stamp, value T) {
	v.value = value
	v.at = at
	v.ok = true
}

func (v *versioned[T]) reset() {
	var zero T
	v.value = zero
	v.ok = false
}
