package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/akinalp/wschat/pkg"
	"github.com/akinalp/wschat/repository"
	"github.com/akinalp/wschat/ws"
)

// fakeRelay, ws.Relay'in test double'ı. Yapılan yayınları ve kapatılan
// bağlantıları kaydeder; "online" tablosu username → oda.
type fakeRelay struct {
	online map[string]string

	roomCasts   []ws.Packet
	adminCasts  []ws.Packet
	notices     []ws.Packet
	disconnects []string
}

func newFakeRelay() *fakeRelay {
	return &fakeRelay{online: make(map[string]string)}
}

func (f *fakeRelay) BroadcastAll(p ws.Packet) {}

func (f *fakeRelay) BroadcastRoom(room string, p ws.Packet) {
	f.roomCasts = append(f.roomCasts, p)
}

func (f *fakeRelay) BroadcastAdmins(p ws.Packet) {
	f.adminCasts = append(f.adminCasts, p)
}

func (f *fakeRelay) SendToUser(username string, p ws.Packet) bool {
	_, ok := f.online[username]
	return ok
}

func (f *fakeRelay) DisconnectUser(username string, notice ws.Packet) int {
	if _, ok := f.online[username]; !ok {
		return 0
	}
	delete(f.online, username)
	f.disconnects = append(f.disconnects, username)
	f.notices = append(f.notices, notice)
	return 1
}

func (f *fakeRelay) UserRoom(username string) (string, bool) {
	room, ok := f.online[username]
	return room, ok
}

func (f *fakeRelay) SessionUsernames() []string {
	var names []string
	for username := range f.online {
		names = append(names, username)
	}
	return names
}

func (f *fakeRelay) RoomUsernames(room string) []string { return nil }

func newTestModeration(t *testing.T) (ModerationService, *fakeRelay, repository.UserRepository, repository.BanRepository) {
	t.Helper()
	db := newTestDB(t)
	users := repository.NewSQLiteUserRepo(db.Conn)
	bans := repository.NewSQLiteBanRepo(db.Conn)
	relay := newFakeRelay()
	mod := NewModerationService(db, users, bans, relay, []string{"admin"})
	return mod, relay, users, bans
}

func TestIsAdmin(t *testing.T) {
	mod, _, _, _ := newTestModeration(t)

	if !mod.IsAdmin("admin") {
		t.Error("Expected admin to be recognized")
	}
	if mod.IsAdmin("alice") {
		t.Error("Expected alice to not be an admin")
	}
	if mod.IsAdmin("") {
		t.Error("Expected empty username to never be an admin")
	}
}

func TestKickOnlineUser(t *testing.T) {
	mod, relay, _, _ := newTestModeration(t)
	relay.online["alice"] = "golang"

	if err := mod.Kick(context.Background(), "admin", "alice"); err != nil {
		t.Fatalf("Kick failed: %v", err)
	}

	if len(relay.disconnects) != 1 || relay.disconnects[0] != "alice" {
		t.Errorf("Expected alice to be disconnected, got %v", relay.disconnects)
	}
	if len(relay.notices) != 1 || relay.notices[0].Text != "You were kicked." {
		t.Errorf("Unexpected kick notice: %+v", relay.notices)
	}
	if len(relay.roomCasts) != 1 || !strings.Contains(relay.roomCasts[0].Text, "alice was kicked by admin") {
		t.Errorf("Unexpected room announcement: %+v", relay.roomCasts)
	}
	if len(relay.adminCasts) == 0 {
		t.Error("Expected admin list push after kick")
	}
}

func TestKickOfflineUser(t *testing.T) {
	mod, _, _, _ := newTestModeration(t)

	err := mod.Kick(context.Background(), "admin", "ghost")
	if !errors.Is(err, pkg.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for offline victim, got %v", err)
	}
}

func TestBanRecordsExpiry(t *testing.T) {
	mod, relay, _, bans := newTestModeration(t)
	relay.online["alice"] = "General"

	before := time.Now().UTC()
	if err := mod.Ban(context.Background(), "admin", "alice", 30); err != nil {
		t.Fatalf("Ban failed: %v", err)
	}

	ban, err := bans.GetByUsername(context.Background(), "alice")
	if err != nil {
		t.Fatalf("Expected ban row, got %v", err)
	}
	if ban.BannedBy != "admin" {
		t.Errorf("Expected banned_by admin, got %q", ban.BannedBy)
	}

	wantMin := before.Add(29 * time.Minute)
	wantMax := before.Add(31 * time.Minute)
	if ban.ExpiresAt.Before(wantMin) || ban.ExpiresAt.After(wantMax) {
		t.Errorf("Expected expiry around +30m, got %v", ban.ExpiresAt)
	}

	if len(relay.notices) != 1 || relay.notices[0].Text != "You are banned for 30 minutes." {
		t.Errorf("Unexpected ban notice: %+v", relay.notices)
	}
	if len(relay.disconnects) != 1 || relay.disconnects[0] != "alice" {
		t.Errorf("Expected alice to be disconnected, got %v", relay.disconnects)
	}
}

func TestBanOfflineUser(t *testing.T) {
	mod, relay, _, bans := newTestModeration(t)

	if err := mod.Ban(context.Background(), "admin", "alice", 5); err != nil {
		t.Fatalf("Ban failed: %v", err)
	}

	if _, err := bans.GetByUsername(context.Background(), "alice"); err != nil {
		t.Errorf("Expected ban row for offline victim, got %v", err)
	}
	if len(relay.disconnects) != 0 {
		t.Errorf("Expected no disconnects for offline victim, got %v", relay.disconnects)
	}
}

func TestDeleteClearsCredentialsAndBan(t *testing.T) {
	mod, relay, users, bans := newTestModeration(t)
	ctx := context.Background()

	auth := NewAuthService(users, bans)
	if _, err := auth.Register(ctx, "alice", "secret123"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := mod.Ban(ctx, "admin", "alice", 60); err != nil {
		t.Fatalf("Ban failed: %v", err)
	}
	relay.online["alice"] = "General"

	if err := mod.Delete(ctx, "admin", "alice"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	user, err := users.GetByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("GetByUsername failed: %v", err)
	}
	if !user.IsDeleted {
		t.Error("Expected user to be marked deleted")
	}
	if user.PasswordHash != "" {
		t.Error("Expected password hash to be wiped")
	}

	// Stale ban kaydı aynı transaction'da düşer.
	if _, err := bans.GetByUsername(ctx, "alice"); !errors.Is(err, pkg.ErrNotFound) {
		t.Errorf("Expected ban row to be removed, got %v", err)
	}

	if len(relay.notices) == 0 || relay.notices[len(relay.notices)-1].Text != "Your account has been deleted." {
		t.Errorf("Unexpected delete notice: %+v", relay.notices)
	}
}

func TestDeleteNeverRegisteredUser(t *testing.T) {
	mod, _, users, _ := newTestModeration(t)
	ctx := context.Background()

	// Hiç kayıt olmamış bir isim de kalıcı olarak yasaklanabilir.
	if err := mod.Delete(ctx, "admin", "ghost"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	user, err := users.GetByUsername(ctx, "ghost")
	if err != nil {
		t.Fatalf("GetByUsername failed: %v", err)
	}
	if !user.IsDeleted {
		t.Error("Expected ghost to be marked deleted")
	}
}

func TestAdminListText(t *testing.T) {
	mod, relay, _, _ := newTestModeration(t)
	relay.online["alice"] = "General"

	text := mod.AdminListText()
	if text != "alice" {
		t.Errorf("Expected session list %q, got %q", "alice", text)
	}

	mod.PushAdminList()
	if len(relay.adminCasts) != 1 {
		t.Fatalf("Expected one admin broadcast, got %d", len(relay.adminCasts))
	}
	p := relay.adminCasts[0]
	if p.Type != ws.TypeAdminList || p.From != "Server" || p.Text != "alice" {
		t.Errorf("Unexpected admin list packet: %+v", p)
	}
}
