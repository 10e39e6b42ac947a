// Package ws, WebSocket bağlantı yönetimi ve paket dağıtımını sağlar.
//
// Mimari:
// - Packet: wire formatı — GUI client'larla paylaşılan JSON sözleşmesi
// - Client: tek bir bağlantı; read/write pump goroutine çifti
// - Hub: bağlantı kayıtları + oturumlar + oda atamaları + broadcast engine
// - Handler: HTTP → WebSocket upgrade endpoint'i
//
// Paket akışı:
// 1. Client bir Packet gönderir → ReadPump decode eder
// 2. ReadPump, paketi Dispatcher'a (service katmanı) iletir
// 3. Dispatcher directory'leri günceller, Hub üzerinden yanıt(lar) yayınlar
// 4. Her hedef client'ın WritePump'ı paketi kendi socket'ine yazar
package ws

// Packet, wire üzerindeki tek mesaj formatıdır.
//
// Alan isimleri GUI client'larla sözleşmedir: `type`, `from`, `to`, `text` —
// hepsi string ve hiçbiri atlanmaz (omitempty YOK; "alan yok" semantiği
// boş string ile taşınır).
type Packet struct {
	Type string `json:"type"`
	From string `json:"from"`
	To   string `json:"to"`
	Text string `json:"text"`
}

// Server → Client paket tipleri. GUI tam olarak bu dokuz tipi tüketir.
const (
	TypeRegisterOK    = "register_ok"
	TypeLoginOK       = "login_ok"
	TypeSystem        = "system"
	TypeRooms         = "rooms"
	TypeWho           = "who"
	TypeMessage       = "message"
	TypePrivate       = "private"
	TypeAdminList     = "admin_list"
	TypeCensorWarning = "censor_warning"
)

// Kind, gelen paket tiplerinin kapalı enum'udur.
//
// Wire'da tip bir string'dir ama dispatch string üzerinden yapılmaz:
// decode sınırında KindOf ile bu enum'a çevrilir, state machine enum
// üzerinde switch'ler. Tanınmayan tipler KindUnknown'a düşer ve sessizce
// yok sayılır — reddetme değil, permissive default.
type Kind int

const (
	KindUnknown Kind = iota
	KindRegister
	KindLogin
	KindCreateRoom
	KindJoinRoom
	KindLeaveRoom
	KindListRooms
	KindWho
	KindChatMessage
	KindPrivate
	KindKick
	KindBan
	KindAdminBan
	KindAdminDelete
	KindAdminList
	KindPing
)

// KindOf, wire tip string'ini Kind'a çevirir.
// "message" ve "chat_message" aynı handler'a gider (eski ve yeni client'lar).
func KindOf(t string) Kind {
	switch t {
	case "register":
		return KindRegister
	case "login":
		return KindLogin
	case "create":
		return KindCreateRoom
	case "join":
		return KindJoinRoom
	case "leave":
		return KindLeaveRoom
	case "list_rooms":
		return KindListRooms
	case "who":
		return KindWho
	case "message", "chat_message":
		return KindChatMessage
	case "private":
		return KindPrivate
	case "kick":
		return KindKick
	case "ban":
		return KindBan
	case "admin_ban":
		return KindAdminBan
	case "admin_delete":
		return KindAdminDelete
	case "admin_list":
		return KindAdminList
	case "ping":
		return KindPing
	default:
		return KindUnknown
	}
}

// String, log çıktıları için.
func (k Kind) String() string {
	switch k {
	case KindRegister:
		return "register"
	case KindLogin:
		return "login"
	case KindCreateRoom:
		return "create"
	case KindJoinRoom:
		return "join"
	case KindLeaveRoom:
		return "leave"
	case KindListRooms:
		return "list_rooms"
	case KindWho:
		return "who"
	case KindChatMessage:
		return "chat_message"
	case KindPrivate:
		return "private"
	case KindKick:
		return "kick"
	case KindBan:
		return "ban"
	case KindAdminBan:
		return "admin_ban"
	case KindAdminDelete:
		return "admin_delete"
	case KindAdminList:
		return "admin_list"
	case KindPing:
		return "ping"
	default:
		return "unknown"
	}
}

// SystemPacket, sık kullanılan system yanıtı için kısayol.
func SystemPacket(text string) Packet {
	return Packet{Type: TypeSystem, From: "Server", Text: text}
}
