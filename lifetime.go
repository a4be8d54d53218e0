package keydi

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Lifetime specifies how the values produced by a registration are cached.
type Lifetime int

const (
	// Singleton values are created once and cached for the lifetime of the
	// Provider. A Singleton must not depend on a Scoped service, directly or
	// through any chain of Transient or Parameterized services.
	Singleton Lifetime = iota

	// Scoped values are created once per scope. Every top-level
	// Provider.Resolve call is its own scope; a Scope created with
	// Provider.CreateScope shares one cache across all of its resolutions.
	Scoped

	// Transient values are created every time they are resolved.
	Transient

	// Parameterized registrations resolve to a *Handle whose Create method
	// builds a new, independent instance from caller-supplied props.
	Parameterized
)

// String returns the string representation of the Lifetime.
func (l Lifetime) String() string {
	switch l {
	case Singleton:
		return "Singleton"
	case Scoped:
		return "Scoped"
	case Transient:
		return "Transient"
	case Parameterized:
		return "Parameterized"
	default:
		return fmt.Sprintf("Unknown(%d)", int(l))
	}
}

// IsValid checks if the lifetime is one of the defined values.
func (l Lifetime) IsValid() bool {
	return l >= Singleton && l <= Parameterized
}

// MarshalText implements encoding.TextMarshaler.
func (l Lifetime) MarshalText() ([]byte, error) {
	if !l.IsValid() {
		return nil, &LifetimeError{Value: int(l)}
	}
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Lifetime) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "singleton", "shared":
		*l = Singleton
	case "scoped", "per-scope":
		*l = Scoped
	case "transient", "per-request":
		*l = Transient
	case "parameterized":
		*l = Parameterized
	default:
		return &LifetimeError{Value: string(text)}
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (l Lifetime) MarshalJSON() ([]byte, error) {
	text, err := l.MarshalText()
	if err != nil {
		return nil, err
	}
	return json.Marshal(string(text))
}

// UnmarshalJSON implements json.Unmarshaler.
func (l *Lifetime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	return l.UnmarshalText([]byte(s))
}
