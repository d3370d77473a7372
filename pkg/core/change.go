// pkg/core/change.go
package core

import "fmt"

// ChangeKind identifies what happened to an entity.
type ChangeKind int

const (
	ChangeUpdated ChangeKind = iota + 1
	ChangeExpired
	ChangeUnobserved
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeUpdated:
		return "updated"
	case ChangeExpired:
		return "expired"
	case ChangeUnobserved:
		return "unobserved"
	default:
		return fmt.Sprintf("ChangeKind(%d)", int(k))
	}
}

// MarshalText encodes the kind by name for the JSON wire format.
func (k ChangeKind) MarshalText() ([]byte, error) {
	switch k {
	case ChangeUpdated, ChangeExpired, ChangeUnobserved:
		return []byte(k.String()), nil
	default:
		return nil, fmt.Errorf("unknown change kind %d", int(k))
	}
}

// UnmarshalText decodes a kind name.
func (k *ChangeKind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "updated":
		*k = ChangeUpdated
	case "expired":
		*k = ChangeExpired
	case "unobserved":
		*k = ChangeUnobserved
	default:
		return fmt.Errorf("unknown change kind %q", string(b))
	}
	return nil
}

// ChangeEvent is one element of the world service watch stream.
type ChangeEvent struct {
	Kind   ChangeKind `json:"t"`
	Entity Entity     `json:"entity"`
}

// PushResult is the world service's answer to a push of entity changes.
type PushResult struct {
	Accepted bool   `json:"accepted"`
	Debug    string `json:"debug,omitempty"`
}
