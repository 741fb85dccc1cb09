// Package enums holds the closed string vocabularies shared by the API, the
// services and the database layer.
package enums

import (
	"fmt"
	"slices"
	"strings"
)

// set is an ordered list of the accepted values of one vocabulary.
type set[T ~string] []T

func (s set[T]) has(v T) bool {
	return slices.Contains(s, v)
}

func (s set[T]) parse(kind, value string) (T, error) {
	if v := T(value); s.has(v) {
		return v, nil
	}
	var zero T
	return zero, fmt.Errorf("invalid %s %q", kind, value)
}

func (s set[T]) strings() []string {
	out := make([]string, len(s))
	for i, v := range s {
		out[i] = string(v)
	}
	return out
}

func (s set[T]) String() string {
	return strings.Join(s.strings(), ", ")
}
