package socket

import (
	"log"

	gosocketio "github.com/erock530/gosf-socketio"
)

// NewSocketServer initializes the Socket.IO server pushing live queue,
// match and bracket updates. Clients subscribe to rooms named
// "queue:<id>", "match:<id>" or "tournament:<id>".
func NewSocketServer() *gosocketio.Server {
	server := gosocketio.NewServer(nil)

	// Handle connection events
	server.On(gosocketio.OnConnection, func(c *gosocketio.Channel) {
		log.Println("✅ Socket connected:", c.Id())
	})

	// Handle subscribe events
	server.On("subscribe", func(c *gosocketio.Channel, data map[string]string) {
		room := data["room"]
		if room == "" {
			log.Println("❌ Invalid room in subscribe request")
			return
		}
		log.Printf("👥 Client %s subscribed to %s\n", c.Id(), room)
		c.Join(room)
	})

	// Handle unsubscribe events
	server.On("unsubscribe", func(c *gosocketio.Channel, data map[string]string) {
		room := data["room"]
		if room == "" {
			return
		}
		c.Leave(room)
	})

	// Handle disconnection
	server.On(gosocketio.OnDisconnection, func(c *gosocketio.Channel) {
		log.Println("❌ Socket disconnected:", c.Id())
	})

	return server
}
