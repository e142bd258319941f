// Package websocket streams introduction.created events to WebSocket clients.
package websocket
