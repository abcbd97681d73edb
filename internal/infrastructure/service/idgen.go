// Package service contains small adapters that bridge infrastructure
// primitives to the interfaces the application layer consumes.
package service

import "github.com/google/uuid"

// UUIDGenerator issues UUIDv4 identifiers. It satisfies both the
// command and saga ID generator interfaces.
type UUIDGenerator struct{}

// NewUUIDGenerator creates a new UUIDGenerator.
func NewUUIDGenerator() *UUIDGenerator {
	return &UUIDGenerator{}
}

// GenerateID generates a new unique ID.
func (g *UUIDGenerator) GenerateID() string {
	return uuid.New().String()
}
