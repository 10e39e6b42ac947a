package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/akinalp/wschat/models"
	"github.com/akinalp/wschat/pkg"
	"github.com/akinalp/wschat/pkg/censor"
	"github.com/akinalp/wschat/ws"
)

// Dispatcher, paket başına çalışan state machine'dir — ws.Dispatcher
// implementasyonu. Her bağlantının ReadPump'ı decode ettiği paketi buraya
// iletir; Dispatch directory'leri service'ler üzerinden günceller ve Hub
// ile sıfır veya daha fazla yanıt paketi yayınlar.
//
// Dispatch adımları bağlantılar arasında serbestçe interleave olur:
// routing mantığı registry/session tabloları dışında per-connection state
// tutmaz, bu yüzden Dispatcher'ın kendisi kilide ihtiyaç duymaz.
type Dispatcher struct {
	auth   AuthService
	rooms  RoomService
	mod    ModerationService
	filter *censor.Filter
	hub    *ws.Hub
}

// NewDispatcher, constructor.
func NewDispatcher(
	auth AuthService,
	rooms RoomService,
	mod ModerationService,
	filter *censor.Filter,
	hub *ws.Hub,
) *Dispatcher {
	return &Dispatcher{
		auth:   auth,
		rooms:  rooms,
		mod:    mod,
		filter: filter,
		hub:    hub,
	}
}

// Dispatch, tek bir gelen paketi yorumlar. Kapalı enum üzerinde switch —
// KindPing ve KindUnknown buraya hiç ulaşmaz (ws.Client yerinde halleder),
// yine de default dalı permissive kalır: tanınmayan her şey sessizce yok
// sayılır.
func (d *Dispatcher) Dispatch(c *ws.Client, kind ws.Kind, p ws.Packet) {
	ctx := context.Background()

	switch kind {
	case ws.KindRegister:
		d.handleRegister(ctx, c, p)
	case ws.KindLogin:
		d.handleLogin(ctx, c, p)
	case ws.KindCreateRoom:
		d.handleCreateRoom(ctx, c, p)
	case ws.KindJoinRoom:
		d.handleJoinRoom(ctx, c, p)
	case ws.KindLeaveRoom:
		d.moveToRoom(c, models.DefaultRoom)
	case ws.KindListRooms:
		d.handleListRooms(ctx, c)
	case ws.KindWho:
		d.handleWho(c)
	case ws.KindChatMessage:
		d.handleChatMessage(c, p)
	case ws.KindPrivate:
		d.handlePrivate(c, p)
	case ws.KindKick, ws.KindBan, ws.KindAdminBan, ws.KindAdminDelete, ws.KindAdminList:
		d.handleModeration(ctx, c, kind, p)
	default:
	}
}

// ─── Auth ───

func (d *Dispatcher) handleRegister(ctx context.Context, c *ws.Client, p ws.Packet) {
	user, err := d.auth.Register(ctx, p.From, p.Text)
	if err != nil {
		c.Send(ws.SystemPacket(registerErrorText(err, c)))
		return
	}

	d.bindSession(c, user.Username, ws.TypeRegisterOK)
}

func (d *Dispatcher) handleLogin(ctx context.Context, c *ws.Client, p ws.Packet) {
	user, err := d.auth.Login(ctx, p.From, p.Text)
	if err != nil {
		c.Send(ws.SystemPacket(loginErrorText(err, c)))
		return
	}

	d.bindSession(c, user.Username, ws.TypeLoginOK)
}

// bindSession, başarılı register/login ortak yolu: oturumu bağla,
// onay paketini gönder, odaya katılımı duyur. Oda ataması connect'te
// zaten "General"dir; login mevcut atamayı korur.
func (d *Dispatcher) bindSession(c *ws.Client, username, okType string) {
	d.hub.BindSession(c, username)
	c.Send(ws.Packet{Type: okType, From: username})
	d.hub.BroadcastRoom(c.Room(), ws.SystemPacket(username+" joined the room."))
	log.Printf("[dispatch] session bound: user=%s connection=%s", username, c.ID())
}

func registerErrorText(err error, c *ws.Client) string {
	switch {
	case errors.Is(err, pkg.ErrForbidden):
		return "This account has been deleted."
	case errors.Is(err, pkg.ErrAlreadyExists):
		return "Username already taken."
	case errors.Is(err, pkg.ErrBadRequest):
		return "Invalid username or password."
	default:
		log.Printf("[dispatch] register failed on connection %s: %v", c.ID(), err)
		return "Internal server error."
	}
}

func loginErrorText(err error, c *ws.Client) string {
	var banned *BannedError
	switch {
	case errors.As(err, &banned):
		return "You are banned until " + banned.Until.UTC().Format("2006-01-02 15:04 UTC") + "."
	case errors.Is(err, pkg.ErrForbidden):
		return "This account has been deleted."
	case errors.Is(err, pkg.ErrUnauthorized), errors.Is(err, pkg.ErrBadRequest):
		return "Invalid login or password."
	default:
		log.Printf("[dispatch] login failed on connection %s: %v", c.ID(), err)
		return "Internal server error."
	}
}

// ─── Rooms ───

func (d *Dispatcher) handleCreateRoom(ctx context.Context, c *ws.Client, p ws.Packet) {
	name := strings.TrimSpace(p.Text)

	err := d.rooms.Create(ctx, name)
	switch {
	case err == nil:
		c.Send(ws.SystemPacket("Room created: " + name))
	case errors.Is(err, pkg.ErrAlreadyExists):
		c.Send(ws.SystemPacket("Room already exists: " + name))
	case errors.Is(err, pkg.ErrBadRequest):
		c.Send(ws.SystemPacket("Room name required."))
	default:
		log.Printf("[dispatch] create room %q failed: %v", name, err)
		c.Send(ws.SystemPacket("Internal server error."))
	}
}

func (d *Dispatcher) handleJoinRoom(ctx context.Context, c *ws.Client, p ws.Packet) {
	name := strings.TrimSpace(p.Text)
	if name == "" {
		c.Send(ws.SystemPacket("Room name required."))
		return
	}

	exists, err := d.rooms.Exists(ctx, name)
	if err != nil {
		log.Printf("[dispatch] room lookup %q failed: %v", name, err)
		c.Send(ws.SystemPacket("Internal server error."))
		return
	}
	if !exists {
		c.Send(ws.SystemPacket("Room not found: " + name))
		return
	}

	d.moveToRoom(c, name)
}

// moveToRoom, bağlantıyı hedef odaya taşır ve iki odaya da duyurur.
// `leave` de buradan geçer: hedefi her zaman "General"dir.
// Oturumu olmayan bağlantılar taşınır ama duyuru yapılmaz (duyuracak
// isim yoktur).
func (d *Dispatcher) moveToRoom(c *ws.Client, name string) {
	old := d.hub.MoveToRoom(c, name)

	if username := c.User(); username != "" {
		if old != name {
			d.hub.BroadcastRoom(old, ws.SystemPacket(username+" left the room."))
		}
		d.hub.BroadcastRoom(name, ws.SystemPacket(username+" joined the room."))
	}

	c.Send(ws.SystemPacket("Joined room: " + name))
}

func (d *Dispatcher) handleListRooms(ctx context.Context, c *ws.Client) {
	names, err := d.rooms.List(ctx)
	if err != nil {
		log.Printf("[dispatch] list rooms failed: %v", err)
		c.Send(ws.SystemPacket("Internal server error."))
		return
	}

	c.Send(ws.Packet{Type: ws.TypeRooms, From: "Server", Text: strings.Join(names, ",")})
}

func (d *Dispatcher) handleWho(c *ws.Client) {
	names := d.hub.RoomUsernames(c.Room())
	c.Send(ws.Packet{Type: ws.TypeWho, From: "Server", Text: strings.Join(names, ",")})
}

// ─── Messaging ───

func (d *Dispatcher) handleChatMessage(c *ws.Client, p ws.Packet) {
	username := c.User()
	if username == "" {
		c.Send(ws.SystemPacket("You must log in first."))
		return
	}

	filtered, altered := d.filter.Apply(p.Text)
	if altered {
		// Admin'ler orijinal, maskelenmemiş metni görür.
		d.hub.BroadcastAdmins(ws.Packet{
			Type: ws.TypeCensorWarning,
			From: username,
			Text: p.Text,
		})
	}

	// Gönderene ayrıca echo yok — kendi kopyası oda broadcast'iyle gelir.
	d.hub.BroadcastRoom(c.Room(), ws.Packet{
		Type: ws.TypeMessage,
		From: username,
		Text: filtered,
	})
}

func (d *Dispatcher) handlePrivate(c *ws.Client, p ws.Packet) {
	username := c.User()
	if username == "" {
		c.Send(ws.SystemPacket("You must log in first."))
		return
	}

	target := strings.TrimSpace(p.To)
	if target == "" {
		c.Send(ws.SystemPacket("Recipient required."))
		return
	}

	delivered := d.hub.SendToUser(target, ws.Packet{
		Type: ws.TypePrivate,
		From: username,
		To:   target,
		Text: p.Text,
	})
	if !delivered {
		c.Send(ws.SystemPacket("User not online: " + target))
	}
}

// ─── Moderation ───

func (d *Dispatcher) handleModeration(ctx context.Context, c *ws.Client, kind ws.Kind, p ws.Packet) {
	actor := c.User()
	if !d.mod.IsAdmin(actor) {
		c.Send(ws.SystemPacket("Access denied."))
		return
	}

	if kind == ws.KindAdminList {
		c.Send(ws.Packet{Type: ws.TypeAdminList, From: "Server", Text: d.mod.AdminListText()})
		return
	}

	victim, rest := moderationArgs(p)
	if victim == "" {
		c.Send(ws.SystemPacket("User required."))
		return
	}

	switch kind {
	case ws.KindKick:
		if err := d.mod.Kick(ctx, actor, victim); err != nil {
			if errors.Is(err, pkg.ErrNotFound) {
				c.Send(ws.SystemPacket("User not online: " + victim))
				return
			}
			log.Printf("[dispatch] kick %s failed: %v", victim, err)
			c.Send(ws.SystemPacket("Internal server error."))
			return
		}
		c.Send(ws.SystemPacket("Kicked " + victim + "."))

	case ws.KindBan, ws.KindAdminBan:
		minutes, ok := parseBanMinutes(rest)
		if !ok {
			c.Send(ws.SystemPacket("Invalid ban duration."))
			return
		}
		if err := d.mod.Ban(ctx, actor, victim, minutes); err != nil {
			log.Printf("[dispatch] ban %s failed: %v", victim, err)
			c.Send(ws.SystemPacket("Internal server error."))
			return
		}
		c.Send(ws.SystemPacket(fmt.Sprintf("Banned %s for %d minutes.", victim, minutes)))

	case ws.KindAdminDelete:
		if err := d.mod.Delete(ctx, actor, victim); err != nil {
			log.Printf("[dispatch] delete %s failed: %v", victim, err)
			c.Send(ws.SystemPacket("Internal server error."))
			return
		}
		c.Send(ws.SystemPacket("Deleted " + victim + "."))
	}
}

// moderationArgs, iki komut biçimini normalize eder:
//   - Yapısal (admin window): kurban `to`'da, argüman `text`'te.
//   - Self-serve (chat komutu): `to` boş, `text` = "<kurban> [dakika]".
func moderationArgs(p ws.Packet) (victim, rest string) {
	if to := strings.TrimSpace(p.To); to != "" {
		return to, strings.TrimSpace(p.Text)
	}

	fields := strings.Fields(p.Text)
	if len(fields) == 0 {
		return "", ""
	}
	return fields[0], strings.Join(fields[1:], " ")
}

// parseBanMinutes, ban süresini doğrular. Eksik veya pozitif-olmayan
// süre validation hatasıdır — state mutate edilmez.
func parseBanMinutes(s string) (int, bool) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return 0, false
	}
	minutes, err := strconv.Atoi(fields[0])
	if err != nil || minutes <= 0 {
		return 0, false
	}
	return minutes, true
}
