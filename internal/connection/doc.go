// Package connection implements a WebSocket client for the live tape.
//
// Client owns a single connection: it decodes tape frames into events and
// watches the connection with pings. Run wraps a Client in a reconnect loop
// with exponential backoff for long-lived followers.
package connection
