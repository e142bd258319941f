// Package storage provides document store gateway implementations.
//
// Implementations:
//   - mongo: MongoDB collections (default)
//   - redis: one Redis list of JSON documents per collection
//   - memory: In-memory for testing
package storage
