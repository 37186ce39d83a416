// Package transport defines the outbound message boundary. Game code talks
// to a Sender; adapters (the local playground, a chat gateway) implement it.
package transport
