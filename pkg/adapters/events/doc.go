// Package events provides event bus implementations for introduction events.
//
// Implementations:
//   - redis: Redis Streams with consumer groups
//   - memory: In-memory fan-out
package events
