// Package domain holds the introduction record, the generic document shape
// returned by listings, introduction events and the store error taxonomy.
package domain
