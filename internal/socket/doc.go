// Package socket receives gesture predictions from a Socket.IO server.
//
// Only the subset of Engine.IO v4 / Socket.IO v5 needed to listen for
// events on the default namespace over a websocket is implemented: the
// open handshake, namespace connect, heartbeats and EVENT packets.
package socket
