package ws

import (
	"encoding/json"
	"log"
	"sort"
	"sync"

	"github.com/akinalp/wschat/models"
)

// Dispatcher, decode edilmiş bir paketi yorumlayan state machine'in
// interface'i. Implementasyon service katmanındadır (services.Dispatcher);
// ws paketi sadece bu küçük interface'i bilir — böylece ws → services
// import döngüsü oluşmaz (Dependency Inversion).
type Dispatcher interface {
	Dispatch(c *Client, kind Kind, p Packet)
}

// Relay, service katmanının paket yayını ve oturum sorguları için
// kullandığı interface. Service'ler Hub'ın concrete struct'ına değil buna
// bağımlıdır — testlerde fake Relay kullanılabilir.
type Relay interface {
	BroadcastAll(p Packet)
	BroadcastRoom(room string, p Packet)
	BroadcastAdmins(p Packet)
	// SendToUser, pakete bağlı kullanıcının TÜM bağlantılarına gönderir
	// (duplicate login quirk'i — aynı isim iki bağlantıya bağlanabilir).
	// Kullanıcı online değilse false döner.
	SendToUser(username string, p Packet) bool
	// DisconnectUser, kullanıcının bağlantılarına notice'i senkron yazar ve
	// hepsini kapatır; kapatılan bağlantı sayısını döner.
	DisconnectUser(username string, notice Packet) int
	// UserRoom, kullanıcının bağlı olduğu odayı döner; offline ise ok=false.
	UserRoom(username string) (string, bool)
	SessionUsernames() []string
	RoomUsernames(room string) []string
}

// Hub, tüm bağlantıları yöneten merkezi yapıdır. Dört sorumluluğu tek
// çatıda toplar: bağlantı registry'si (clients + oda ataması), session
// directory (sessions), admin set ve broadcast engine.
//
// Kilit disiplini — tablo başına bir kilit, asla tek global kilit:
//   - mu:     registry + oda atamaları (clients map'i ve Client.room)
//   - sessMu: session tablosu (sessions map'i ve Client.username)
//
// Kilitler asla iç içe alınmaz: her metod önce bir tablodan snapshot alır,
// kilidi bırakır, sonra gerekiyorsa diğerine geçer. Network yazmaları hiçbir
// zaman kilit altında yapılmaz — broadcast'ler hedef listesini kopyalar,
// kilidi bırakır ve buffer'lı send channel'lara kilit dışında enqueue eder.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]bool

	sessMu   sync.RWMutex
	sessions map[string]map[*Client]bool // username → bağlantı seti

	// admins: startup'ta verilen immutable moderasyon allowlist'i.
	// Mutable state değil, konfigürasyon — kilide ihtiyaç duymaz.
	admins map[string]bool

	register   chan *Client
	unregister chan *Client

	dispatcher Dispatcher

	// onDisconnect, oturumu olan bir bağlantı kapandığında çağrılır
	// (username, son oda). main.go'da ayrılış duyurusu + admin listesi
	// push'u için bağlanır. removeClient içinde `go` ile çağrılır —
	// callback broadcast yapar ve Hub kilitleriyle çakışmamalıdır.
	onDisconnect func(username, room string)
}

// NewHub, yeni bir Hub oluşturur. admins listesi kopyalanır ve sonrasında
// asla değişmez.
func NewHub(admins []string) *Hub {
	adminSet := make(map[string]bool, len(admins))
	for _, a := range admins {
		if a != "" {
			adminSet[a] = true
		}
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		sessions:   make(map[string]map[*Client]bool),
		admins:     adminSet,
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// SetDispatcher, paket yorumlayıcıyı bağlar. main.go wire-up'ında, Run
// başlatılmadan önce çağrılır.
func (h *Hub) SetDispatcher(d Dispatcher) {
	h.dispatcher = d
}

// OnDisconnect, oturumlu bir bağlantının teardown callback'ini bağlar.
func (h *Hub) OnDisconnect(fn func(username, room string)) {
	h.onDisconnect = fn
}

// Run, Hub'ın ana event loop'udur. main.go'da `go hub.Run()` ile başlatılır:
// register/unregister channel'larını dinler ve registry'yi günceller.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.addClient(client)

		case client := <-h.unregister:
			h.removeClient(client)
		}
	}
}

// addClient, bağlantıyı registry'ye ekler.
// Invariant: registry'deki her bağlantının tam bir oda ataması vardır.
// Oda construction sırasında atanır; registration'dan önce işlenmiş bir
// join burada ezilmez, sadece boş kalmışsa default oda yazılır.
func (h *Hub) addClient(c *Client) {
	h.mu.Lock()
	h.clients[c] = true
	if c.room == "" {
		c.room = models.DefaultRoom
	}
	total := len(h.clients)
	h.mu.Unlock()

	log.Printf("[ws] connection %s registered (total: %d)", c.id, total)
}

// removeClient, bağlantının teardown'ıdır ve idempotent'tir: hangi yol
// tetiklerse tetiklesin (client kapattı, hata, kick, ban, delete) registry
// ve session temizliği tam olarak bir kez çalışır.
func (h *Hub) removeClient(c *Client) {
	h.mu.Lock()
	if !h.clients[c] {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	room := c.room
	total := len(h.clients)
	h.mu.Unlock()

	h.sessMu.Lock()
	username := c.username
	if username != "" {
		if set, ok := h.sessions[username]; ok {
			delete(set, c)
			if len(set) == 0 {
				delete(h.sessions, username)
			}
		}
	}
	h.sessMu.Unlock()

	// Send channel kapanınca WritePump sonlanır ve conn'u kapatır;
	// bu da bloklanmış ReadPump'ı serbest bırakır.
	c.closeSend()

	if username != "" {
		log.Printf("[ws] connection %s (user=%s) unregistered (total: %d)", c.id, username, total)
	} else {
		log.Printf("[ws] connection %s unregistered (total: %d)", c.id, total)
	}

	if username != "" && h.onDisconnect != nil {
		go h.onDisconnect(username, room)
	}
}

// ─── Session Directory ───

// BindSession, bağlantıyı doğrulanmış kullanıcı adına bağlar.
// Aynı bağlantı yeniden login olursa eski binding düşürülür. Aynı kullanıcı
// adının başka bir bağlantısı varsa evict EDİLMEZ — duplicate login kaynak
// davranıştır ve korunur.
func (h *Hub) BindSession(c *Client, username string) {
	h.sessMu.Lock()
	defer h.sessMu.Unlock()

	if c.username != "" {
		if set, ok := h.sessions[c.username]; ok {
			delete(set, c)
			if len(set) == 0 {
				delete(h.sessions, c.username)
			}
		}
	}

	c.username = username
	if h.sessions[username] == nil {
		h.sessions[username] = make(map[*Client]bool)
	}
	h.sessions[username][c] = true
}

// SessionUser, bağlantının oturum kullanıcı adını döner; oturum yoksa "".
func (h *Hub) SessionUser(c *Client) string {
	h.sessMu.RLock()
	defer h.sessMu.RUnlock()
	return c.username
}

// SessionUsernames, tüm canlı oturumların kullanıcı adlarını sıralı döner.
func (h *Hub) SessionUsernames() []string {
	h.sessMu.RLock()
	names := make([]string, 0, len(h.sessions))
	for username := range h.sessions {
		names = append(names, username)
	}
	h.sessMu.RUnlock()

	sort.Strings(names)
	return names
}

// IsAdmin, kullanıcı adının moderasyon allowlist'inde olup olmadığını söyler.
func (h *Hub) IsAdmin(username string) bool {
	return h.admins[username]
}

// ─── Room Assignment ───

// RoomOf, bağlantının mevcut oda atamasını döner.
func (h *Hub) RoomOf(c *Client) string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return c.room
}

// MoveToRoom, bağlantının oda atamasını değiştirir ve eski odayı döner.
func (h *Hub) MoveToRoom(c *Client, room string) (old string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	old = c.room
	c.room = room
	return old
}

// RoomUsernames, verilen odadaki oturumlu kullanıcı adlarını sıralı döner.
// Oturumu olmayan (henüz login olmamış) bağlantılar listelenmez.
func (h *Hub) RoomUsernames(room string) []string {
	h.mu.RLock()
	members := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		if c.room == room {
			members = append(members, c)
		}
	}
	h.mu.RUnlock()

	h.sessMu.RLock()
	var names []string
	for _, c := range members {
		if c.username != "" {
			names = append(names, c.username)
		}
	}
	h.sessMu.RUnlock()

	sort.Strings(names)
	return names
}

// UserRoom, kullanıcının bağlı olduğu odayı döner; offline ise ok=false.
// Duplicate login durumunda bağlantılardan birinin odası döner.
func (h *Hub) UserRoom(username string) (string, bool) {
	h.sessMu.RLock()
	var target *Client
	for c := range h.sessions[username] {
		target = c
		break
	}
	h.sessMu.RUnlock()

	if target == nil {
		return "", false
	}

	h.mu.RLock()
	room := target.room
	h.mu.RUnlock()
	return room, true
}

// ─── Broadcast Engine ───
//
// Dört teslimat modu da best-effort'tur ve hedef başına bağımsız başarısız
// olur: bir alıcıya enqueue edilemeyen paket diğerlerinin teslimatını asla
// durdurmaz. Başarısızlık log'a düşer (gözlemlenebilir) ama çağırana
// yansıtılmaz.

// BroadcastAll, paketi registry'deki tüm bağlantılara gönderir.
func (h *Hub) BroadcastAll(p Packet) {
	data, err := json.Marshal(p)
	if err != nil {
		log.Printf("[ws] failed to marshal broadcast packet: %v", err)
		return
	}

	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	h.deliver(targets, data, "all")
}

// BroadcastRoom, paketi oda atamasının point-in-time snapshot'ına gönderir.
// Broadcast sırasında oda değiştiren bir bağlantı paketi alabilir de
// almayabilir de — sıkı sıralama garantisi verilmez.
func (h *Hub) BroadcastRoom(room string, p Packet) {
	data, err := json.Marshal(p)
	if err != nil {
		log.Printf("[ws] failed to marshal room packet: %v", err)
		return
	}

	h.mu.RLock()
	var targets []*Client
	for c := range h.clients {
		if c.room == room {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	h.deliver(targets, data, "room:"+room)
}

// BroadcastAdmins, paketi allowlist'teki kullanıcıların tüm oturumlarına
// gönderir.
func (h *Hub) BroadcastAdmins(p Packet) {
	data, err := json.Marshal(p)
	if err != nil {
		log.Printf("[ws] failed to marshal admin packet: %v", err)
		return
	}

	h.sessMu.RLock()
	var targets []*Client
	for username, set := range h.sessions {
		if !h.admins[username] {
			continue
		}
		for c := range set {
			targets = append(targets, c)
		}
	}
	h.sessMu.RUnlock()

	h.deliver(targets, data, "admins")
}

// SendToUser, paketi kullanıcının tüm bağlantılarına gönderir.
// Kullanıcı online değilse false döner.
func (h *Hub) SendToUser(username string, p Packet) bool {
	data, err := json.Marshal(p)
	if err != nil {
		log.Printf("[ws] failed to marshal user packet: %v", err)
		return false
	}

	h.sessMu.RLock()
	var targets []*Client
	for c := range h.sessions[username] {
		targets = append(targets, c)
	}
	h.sessMu.RUnlock()

	if len(targets) == 0 {
		return false
	}

	h.deliver(targets, data, "user:"+username)
	return true
}

// deliver, marshal edilmiş paketi hedeflere kilit tutmadan enqueue eder.
// Başarısız hedef (buffer dolu veya kapalı) disconnect'e planlanır —
// kalan hedeflerin teslimatı devam eder.
func (h *Hub) deliver(targets []*Client, data []byte, scope string) {
	for _, c := range targets {
		if c.trySend(data) {
			continue
		}
		log.Printf("[ws] dropped packet to connection %s (scope=%s)", c.id, scope)
		go func(c *Client) { h.unregister <- c }(c)
	}
}

// ─── Moderation Support ───

// DisconnectUser, kurbanın tüm bağlantılarına notice'i senkron yazar,
// socket'leri kapatır ve teardown'larını planlar. Kaç bağlantının
// kapatıldığını döner; offline kurban için 0.
//
// Notice'in enqueue yerine senkron yazılmasının sebebi yarış durumudur:
// send channel'a bırakılan bir paket, conn kapanmadan önce WritePump
// tarafından flush edilemeyebilirdi.
func (h *Hub) DisconnectUser(username string, notice Packet) int {
	h.sessMu.RLock()
	var targets []*Client
	for c := range h.sessions[username] {
		targets = append(targets, c)
	}
	h.sessMu.RUnlock()

	for _, c := range targets {
		c.sendNow(notice)
		c.close()
		go func(c *Client) { h.unregister <- c }(c)
	}

	return len(targets)
}

// Shutdown, tüm bağlantıları kapatır (graceful shutdown).
func (h *Hub) Shutdown() {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.clients = make(map[*Client]bool)
	h.mu.Unlock()

	h.sessMu.Lock()
	h.sessions = make(map[string]map[*Client]bool)
	h.sessMu.Unlock()

	for _, c := range clients {
		c.closeSend()
	}

	log.Println("[ws] hub shut down, all connections closed")
}
