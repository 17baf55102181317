// Package features turns patient records into fixed-length numeric vectors.
package features

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Feature is one named column of a vector.
type Feature[T any] struct {
	Name  string
	Value func(T) float64
}

// Schema is an ordered feature list. Training and inference must use the
// same schema, which Fingerprint lets model stores check.
type Schema[T any] struct {
	features []Feature[T]
}

func NewSchema[T any](features ...Feature[T]) Schema[T] {
	return Schema[T]{features: features}
}

func (s Schema[T]) Len() int {
	return len(s.features)
}

func (s Schema[T]) Names() []string {
	names := make([]string, len(s.features))
	for i, f := range s.features {
		names[i] = f.Name
	}
	return names
}

func (s Schema[T]) Encode(record T) []float64 {
	out := make([]float64, len(s.features))
	for i, f := range s.features {
		out[i] = f.Value(record)
	}
	return out
}

// Fingerprint identifies the column order.
func (s Schema[T]) Fingerprint() string {
	sum := sha256.Sum256([]byte(strings.Join(s.Names(), "\x00")))
	return hex.EncodeToString(sum[:8])
}

func flag(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// oneHot builds one 0/1 column per catalog entry.
func oneHot[T any, V ~string](prefix string, catalog []V, has func(T, V) bool) []Feature[T] {
	out := make([]Feature[T], 0, len(catalog))
	for _, v := range catalog {
		out = append(out, Feature[T]{
			Name:  prefix + ":" + string(v),
			Value: func(r T) float64 { return flag(has(r, v)) },
		})
	}
	return out
}
