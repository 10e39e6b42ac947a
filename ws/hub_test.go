package ws

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/akinalp/wschat/models"
)

// newTestClient, socket'siz bir Client oluşturur. Hub'ın registry/session/
// broadcast davranışları conn'a dokunmadan test edilebilir — paketler send
// channel'dan okunur.
func newTestClient(h *Hub, id string) *Client {
	return &Client{
		hub:  h,
		id:   id,
		send: make(chan []byte, sendBufferSize),
	}
}

func recvPacket(t *testing.T, c *Client) Packet {
	t.Helper()
	select {
	case data, ok := <-c.send:
		if !ok {
			t.Fatal("Send channel closed while waiting for packet")
		}
		var p Packet
		if err := json.Unmarshal(data, &p); err != nil {
			t.Fatalf("Failed to unmarshal packet: %v", err)
		}
		return p
	case <-time.After(time.Second):
		t.Fatal("Timed out waiting for packet")
	}
	return Packet{}
}

func expectNoPacket(t *testing.T, c *Client) {
	t.Helper()
	select {
	case data := <-c.send:
		t.Fatalf("Expected no packet, got %s", data)
	default:
	}
}

func TestAddClientAssignsDefaultRoom(t *testing.T) {
	h := NewHub(nil)
	c := newTestClient(h, "c1")

	h.addClient(c)

	if room := h.RoomOf(c); room != models.DefaultRoom {
		t.Errorf("Expected new connection in %q, got %q", models.DefaultRoom, room)
	}
}

func TestAddClientKeepsExistingRoom(t *testing.T) {
	h := NewHub(nil)
	c := newTestClient(h, "c1")
	c.room = "golang"

	// Registration'dan önce işlenmiş bir join'in oda ataması korunmalı.
	h.addClient(c)

	if room := h.RoomOf(c); room != "golang" {
		t.Errorf("Expected pre-assigned room to survive registration, got %q", room)
	}
}

func TestBindSessionDuplicateLogin(t *testing.T) {
	h := NewHub(nil)
	c1 := newTestClient(h, "c1")
	c2 := newTestClient(h, "c2")
	h.addClient(c1)
	h.addClient(c2)

	// Aynı kullanıcı adı iki bağlantıdan login olabilir — ikisi de yaşar.
	h.BindSession(c1, "alice")
	h.BindSession(c2, "alice")

	names := h.SessionUsernames()
	if len(names) != 1 || names[0] != "alice" {
		t.Errorf("Expected session list [alice], got %v", names)
	}

	if !h.SendToUser("alice", SystemPacket("hi")) {
		t.Fatal("Expected SendToUser to find alice")
	}
	if p := recvPacket(t, c1); p.Text != "hi" {
		t.Errorf("Expected first connection to receive packet, got %+v", p)
	}
	if p := recvPacket(t, c2); p.Text != "hi" {
		t.Errorf("Expected second connection to receive packet, got %+v", p)
	}
}

func TestBindSessionRebind(t *testing.T) {
	h := NewHub(nil)
	c := newTestClient(h, "c1")
	h.addClient(c)

	h.BindSession(c, "alice")
	h.BindSession(c, "bob")

	names := h.SessionUsernames()
	if len(names) != 1 || names[0] != "bob" {
		t.Errorf("Expected old binding to be dropped, got %v", names)
	}
	if h.SendToUser("alice", SystemPacket("hi")) {
		t.Error("Expected alice to be offline after rebind")
	}
}

func TestBroadcastRoomScoping(t *testing.T) {
	h := NewHub(nil)
	c1 := newTestClient(h, "c1")
	c2 := newTestClient(h, "c2")
	h.addClient(c1)
	h.addClient(c2)

	if old := h.MoveToRoom(c2, "golang"); old != models.DefaultRoom {
		t.Errorf("Expected old room %q, got %q", models.DefaultRoom, old)
	}

	h.BroadcastRoom("golang", SystemPacket("only golang"))

	expectNoPacket(t, c1)
	if p := recvPacket(t, c2); p.Text != "only golang" {
		t.Errorf("Unexpected packet: %+v", p)
	}
}

func TestBroadcastAdminsOnlyReachesAdminSessions(t *testing.T) {
	h := NewHub([]string{"admin"})
	adminConn := newTestClient(h, "c1")
	userConn := newTestClient(h, "c2")
	anonConn := newTestClient(h, "c3")
	h.addClient(adminConn)
	h.addClient(userConn)
	h.addClient(anonConn)
	h.BindSession(adminConn, "admin")
	h.BindSession(userConn, "alice")

	h.BroadcastAdmins(Packet{Type: TypeCensorWarning, From: "alice", Text: "damn"})

	if p := recvPacket(t, adminConn); p.Type != TypeCensorWarning || p.Text != "damn" {
		t.Errorf("Unexpected admin packet: %+v", p)
	}
	expectNoPacket(t, userConn)
	expectNoPacket(t, anonConn)
}

func TestBroadcastAllIgnoresRooms(t *testing.T) {
	h := NewHub(nil)
	c1 := newTestClient(h, "c1")
	c2 := newTestClient(h, "c2")
	h.addClient(c1)
	h.addClient(c2)
	h.MoveToRoom(c2, "golang")

	h.BroadcastAll(SystemPacket("Server is shutting down."))

	for _, c := range []*Client{c1, c2} {
		if p := recvPacket(t, c); p.Text != "Server is shutting down." {
			t.Errorf("Unexpected packet: %+v", p)
		}
	}
}

func TestSendToUserOffline(t *testing.T) {
	h := NewHub(nil)

	if h.SendToUser("ghost", SystemPacket("hi")) {
		t.Error("Expected SendToUser to report offline user")
	}
}

func TestRoomUsernamesSortedAndAuthenticatedOnly(t *testing.T) {
	h := NewHub(nil)
	c1 := newTestClient(h, "c1")
	c2 := newTestClient(h, "c2")
	c3 := newTestClient(h, "c3")
	h.addClient(c1)
	h.addClient(c2)
	h.addClient(c3) // login olmamış — listede görünmez
	h.BindSession(c1, "zoe")
	h.BindSession(c2, "alice")

	names := h.RoomUsernames(models.DefaultRoom)
	if len(names) != 2 || names[0] != "alice" || names[1] != "zoe" {
		t.Errorf("Expected [alice zoe], got %v", names)
	}
}

func TestUserRoom(t *testing.T) {
	h := NewHub(nil)
	c := newTestClient(h, "c1")
	h.addClient(c)
	h.BindSession(c, "alice")
	h.MoveToRoom(c, "golang")

	room, online := h.UserRoom("alice")
	if !online || room != "golang" {
		t.Errorf("Expected alice online in golang, got %q online=%v", room, online)
	}

	if _, online := h.UserRoom("ghost"); online {
		t.Error("Expected ghost to be offline")
	}
}

func TestRemoveClientIsIdempotent(t *testing.T) {
	h := NewHub(nil)

	disconnected := make(chan string, 2)
	h.OnDisconnect(func(username, room string) {
		disconnected <- username + "@" + room
	})

	c := newTestClient(h, "c1")
	h.addClient(c)
	h.BindSession(c, "alice")
	h.MoveToRoom(c, "golang")

	h.removeClient(c)
	h.removeClient(c) // ikinci çağrı no-op olmalı

	select {
	case got := <-disconnected:
		if got != "alice@golang" {
			t.Errorf("Expected disconnect callback alice@golang, got %s", got)
		}
	case <-time.After(time.Second):
		t.Fatal("Timed out waiting for disconnect callback")
	}

	select {
	case got := <-disconnected:
		t.Errorf("Expected a single disconnect callback, got another: %s", got)
	case <-time.After(50 * time.Millisecond):
	}

	if names := h.SessionUsernames(); len(names) != 0 {
		t.Errorf("Expected empty session list, got %v", names)
	}

	// Kapanmış bağlantıya enqueue panic'lememeli, sadece false dönmeli.
	if c.trySend([]byte("{}")) {
		t.Error("Expected trySend to fail on a closed connection")
	}
}

func TestDisconnectUserClosesAllConnections(t *testing.T) {
	h := NewHub(nil)
	go h.Run()

	c1 := newTestClient(h, "c1")
	c2 := newTestClient(h, "c2")
	h.addClient(c1)
	h.addClient(c2)
	h.BindSession(c1, "alice")
	h.BindSession(c2, "alice")

	n := h.DisconnectUser("alice", SystemPacket("You were kicked."))
	if n != 2 {
		t.Errorf("Expected 2 closed connections, got %d", n)
	}

	// Teardown unregister channel üzerinden asenkron işlenir.
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if len(h.SessionUsernames()) == 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Errorf("Expected alice sessions to be torn down, still have %v", h.SessionUsernames())
}

func TestShutdownClosesSendChannels(t *testing.T) {
	h := NewHub(nil)
	c := newTestClient(h, "c1")
	h.addClient(c)

	h.Shutdown()

	select {
	case _, ok := <-c.send:
		if ok {
			t.Error("Expected send channel to be closed with no pending data")
		}
	case <-time.After(time.Second):
		t.Fatal("Expected send channel to be closed")
	}
}
