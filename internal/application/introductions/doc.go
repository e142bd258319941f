// Package introductions implements the application logic between the HTTP
// handlers and the store gateway.
//
// The manager:
//   - Inserts introductions into the configured collection
//   - Lists the collection as generic documents
//   - Records store metrics and tracing spans for every call
//   - Publishes introduction.created events after successful writes
package introductions
