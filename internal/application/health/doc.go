// Package health monitors document store connectivity.
//
// The monitor pings the store on a fixed interval, keeps the last status for
// the HTTP health endpoint, exports it as a metric and notifies listeners
// (the gRPC health service) when the status flips.
package health
