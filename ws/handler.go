package ws

import (
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/akinalp/wschat/models"
)

// upgrader, HTTP bağlantısını WebSocket bağlantısına yükseltir.
//
// CheckOrigin her origin'e izin verir: GUI client'lar tarayıcı değil
// masaüstü uygulamalarıdır ve Origin header'ı göndermeyebilir.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Handler, tek accept noktasını işleyen HTTP handler'ı.
type Handler struct {
	hub *Hub
}

// NewHandler, yeni bir WebSocket handler oluşturur.
func NewHandler(hub *Hub) *Handler {
	return &Handler{hub: hub}
}

// HandleConnection, HTTP bağlantısını WebSocket'e yükseltir ve client'ı
// Hub'a kaydeder.
//
// Bu endpoint'e gelen her isteğin bir upgrade isteği olması beklenir;
// değilse client-error ile reddedilir (kaynak server 400 dönerdi).
// Authentication BURADA yapılmaz — oturum, bağlantı üzerinden gelen
// login/register paketleriyle kurulur.
func (h *Handler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	if !websocket.IsWebSocketUpgrade(r) {
		http.Error(w, "websocket upgrade required", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ws] upgrade failed: %v", err)
		return
	}

	// Oda ataması burada, registration'dan ÖNCE yapılır: pump'lar
	// register rendezvous'sundan hemen sonra başlar ve ilk paket Hub'ın
	// Run goroutine'i addClient'ı işlemeden dispatch edilebilir.
	client := &Client{
		hub:  h.hub,
		conn: conn,
		id:   uuid.NewString()[:8],
		room: models.DefaultRoom,
		send: make(chan []byte, sendBufferSize),
	}

	h.hub.register <- client

	// WritePump ayrı goroutine'de; ReadPump bu goroutine'de bloklar —
	// handler dönerse bağlantı ölür.
	go client.WritePump()
	client.ReadPump()
}
