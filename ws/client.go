package ws

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// WebSocket bağlantı sabitleri
const (
	// writeWait: Bir mesajı yazmak için maksimum bekleme süresi.
	// Aşılırsa yazma hata verir ve SADECE o bağlantı teardown olur.
	writeWait = 10 * time.Second

	// maxMessageSize: Client'ın gönderebileceği maksimum paket boyutu (byte).
	// Kaynak server da 4KB buffer kullanıyordu.
	maxMessageSize = 4096

	// sendBufferSize: Her client'ın send channel'ının buffer boyutu.
	// Buffer dolarsa client yavaş demektir — bağlantı düşürülür.
	sendBufferSize = 256
)

// Client, tek bir WebSocket bağlantısını temsil eder.
//
// Her bağlantı için iki goroutine çalışır:
// - ReadPump: gelen paketleri okur → Dispatcher'a iletir
// - WritePump: send channel'dan gelen paketleri socket'e yazar
// gorilla/websocket aynı anda tek okuma + tek yazma destekler; iki ayrı
// goroutine okuma ve yazmanın birbirini bloklamamasını sağlar.
//
// Okuma tarafında BİLEREK deadline yok: yavaş/boşta bir peer kendi
// ReadPump'ını süresiz bloklar — kaynak sistemin davranışı budur ve
// korunur. Bağlantı ancak kapanma/hata/kick/ban/delete ile ölür.
type Client struct {
	hub  *Hub
	conn *websocket.Conn

	// id: log korelasyonu için kısa bağlantı kimliği.
	id string

	// send: client'a gidecek marshal edilmiş paketlerin buffer'ı.
	send chan []byte

	writeMu sync.Mutex // conn yazmalarını korur (gorilla: tek eşzamanlı yazma)
	sendMu  sync.Mutex // send channel'ın close guard'ı
	closed  bool       // sendMu korur

	closeOnce sync.Once

	username string // hub.sessMu korur; "" = oturum yok
	room     string // hub.mu korur
}

// ID, bağlantının log kimliğini döner.
func (c *Client) ID() string { return c.id }

// User, bağlantının oturum kullanıcı adını döner ("" = login olmamış).
func (c *Client) User() string { return c.hub.SessionUser(c) }

// Room, bağlantının mevcut oda atamasını döner.
func (c *Client) Room() string { return c.hub.RoomOf(c) }

// ReadPump, bağlantıdan paket okur ve Dispatcher'a iletir.
// Bağlantı kapanana kadar döngüde kalır; çıkarken teardown'ı tetikler.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.unregister <- c
		c.close()
	}()

	c.conn.SetReadLimit(maxMessageSize)

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			// Bağlantı kapandı veya hata — yalnızca bu bağlantı için fatal.
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[ws] unexpected close on connection %s: %v", c.id, err)
			}
			return
		}

		var p Packet
		if err := json.Unmarshal(raw, &p); err != nil {
			// Protokol hatası: sessizce düş, bağlantı açık kalır.
			log.Printf("[ws] dropping malformed packet from %s: %v", c.id, err)
			continue
		}

		switch kind := KindOf(p.Type); kind {
		case KindPing:
			// Heartbeat — dispatch'e gitmeden yerinde yanıtlanır.
			c.Send(SystemPacket("pong"))

		case KindUnknown:
			// Permissive default: tanınmayan tip yanıtsız yok sayılır.
			log.Printf("[ws] ignoring unknown packet type %q from %s", p.Type, c.id)

		default:
			if c.hub.dispatcher != nil {
				c.hub.dispatcher.Dispatch(c, kind, p)
			}
		}
	}
}

// WritePump, send channel'dan gelen paketleri socket'e yazar.
// Channel kapanınca (teardown) close frame gönderir ve conn'u kapatır —
// bu da bloklanmış ReadPump'ı serbest bırakır.
func (c *Client) WritePump() {
	defer c.close()

	for {
		message, ok := <-c.send
		if !ok {
			c.writeMessage(websocket.CloseMessage, nil)
			return
		}

		if err := c.writeMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
}

// Send, paketi client'ın send buffer'ına bırakır.
// Buffer dolu veya bağlantı kapalıysa false döner ve bağlantı düşürülür.
func (c *Client) Send(p Packet) bool {
	data, err := json.Marshal(p)
	if err != nil {
		log.Printf("[ws] failed to marshal packet for connection %s: %v", c.id, err)
		return false
	}

	if c.trySend(data) {
		return true
	}

	log.Printf("[ws] send buffer full for connection %s, dropping connection", c.id)
	go func() { c.hub.unregister <- c }()
	return false
}

// trySend, marshal edilmiş paketi buffer'a bırakmayı dener.
// closed guard'ı, kapanmış channel'a gönderim panic'ini engeller —
// broadcast'ler kilit dışında enqueue ettiği için close ile yarışabilir.
func (c *Client) trySend(data []byte) bool {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if c.closed {
		return false
	}

	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// closeSend, send channel'ı tam olarak bir kez kapatır.
func (c *Client) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// sendNow, paketi send buffer'ını atlayarak socket'e senkron yazar.
// Kick/ban/delete notice'leri için kullanılır: bağlantı hemen ardından
// kapatılacağı için buffer'daki paketin flush garantisi yoktur.
func (c *Client) sendNow(p Packet) {
	if c.conn == nil {
		return
	}

	data, err := json.Marshal(p)
	if err != nil {
		return
	}
	_ = c.writeMessage(websocket.TextMessage, data)
}

// close, alttaki socket'i tam olarak bir kez kapatır ve bekleyen
// okuma/yazmaları serbest bırakır.
func (c *Client) close() {
	c.closeOnce.Do(func() {
		if c.conn != nil {
			_ = c.conn.Close()
		}
	})
}

// writeMessage, socket'e mutex ve deadline ile korunarak yazar.
func (c *Client) writeMessage(messageType int, data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(messageType, data)
}
