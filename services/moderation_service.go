package services

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/akinalp/wschat/database"
	"github.com/akinalp/wschat/models"
	"github.com/akinalp/wschat/pkg"
	"github.com/akinalp/wschat/repository"
	"github.com/akinalp/wschat/ws"
)

// ModerationService interface'i — admin allowlist yetkilendirmesi ve
// kick/ban/delete yan etkileri.
//
// Yetki bir rol alanı değil, startup'ta verilen sabit bir üyelik setidir.
// Çağıran (dispatcher) önce IsAdmin ile yetkiyi kontrol eder; aksiyon
// metodları yetkili bir aktör adına çağrıldığını varsayar.
type ModerationService interface {
	IsAdmin(username string) bool

	// Kick, kurbanın bağlantılarını kapatır ve odasına duyurur.
	// Kurban online değilse pkg.ErrNotFound.
	Kick(ctx context.Context, admin, victim string) error

	// Ban, kick + bans tablosuna expiry = now + minutes kaydı.
	// Offline kurban da banlanabilir (kayıt yazılır, bağlantı kapatılacak
	// bir şey yoktur).
	Ban(ctx context.Context, admin, victim string, minutes int) error

	// Delete, kick + credential silme + kalıcı yasak. Credential'ın
	// boşaltılması, deleted bayrağı ve varsa ban kaydının düşürülmesi tek
	// transaction'dır.
	Delete(ctx context.Context, admin, victim string) error

	// AdminListText, tüm canlı oturumların comma-joined listesini döner.
	AdminListText() string

	// PushAdminList, güncel oturum listesini tüm admin oturumlarına iter.
	// Her kick/ban/delete sonrası ve oturumlu bağlantı kopuşlarında çağrılır.
	PushAdminList()
}

type moderationService struct {
	db    *database.DB
	users repository.UserRepository
	bans  repository.BanRepository
	relay ws.Relay

	admins map[string]bool

	now func() time.Time
}

// NewModerationService, constructor. admins listesi kopyalanır ve çalışma
// boyunca değişmez.
func NewModerationService(
	db *database.DB,
	users repository.UserRepository,
	bans repository.BanRepository,
	relay ws.Relay,
	admins []string,
) ModerationService {
	adminSet := make(map[string]bool, len(admins))
	for _, a := range admins {
		if a != "" {
			adminSet[a] = true
		}
	}
	return &moderationService{
		db:     db,
		users:  users,
		bans:   bans,
		relay:  relay,
		admins: adminSet,
		now:    time.Now,
	}
}

func (s *moderationService) IsAdmin(username string) bool {
	return username != "" && s.admins[username]
}

func (s *moderationService) Kick(ctx context.Context, admin, victim string) error {
	room, online := s.relay.UserRoom(victim)
	if !online {
		return fmt.Errorf("%w: user not online", pkg.ErrNotFound)
	}

	n := s.relay.DisconnectUser(victim, ws.SystemPacket("You were kicked."))
	log.Printf("[moderation] %s kicked %s (%d connection(s) closed)", admin, victim, n)

	s.relay.BroadcastRoom(room, ws.SystemPacket(victim+" was kicked by "+admin+"."))
	s.PushAdminList()
	return nil
}

func (s *moderationService) Ban(ctx context.Context, admin, victim string, minutes int) error {
	ban := &models.Ban{
		Username:  victim,
		ExpiresAt: s.now().UTC().Add(time.Duration(minutes) * time.Minute),
		BannedBy:  admin,
	}
	if err := s.bans.Upsert(ctx, ban); err != nil {
		return err
	}

	notice := ws.SystemPacket(fmt.Sprintf("You are banned for %d minutes.", minutes))
	if room, online := s.relay.UserRoom(victim); online {
		n := s.relay.DisconnectUser(victim, notice)
		log.Printf("[moderation] %s banned %s for %dm (%d connection(s) closed)", admin, victim, minutes, n)
		s.relay.BroadcastRoom(room, ws.SystemPacket(victim+" was banned by "+admin+"."))
	} else {
		log.Printf("[moderation] %s banned %s for %dm (offline)", admin, victim, minutes)
	}

	s.PushAdminList()
	return nil
}

func (s *moderationService) Delete(ctx context.Context, admin, victim string) error {
	err := database.WithTx(ctx, s.db.Conn, func(tx *sql.Tx) error {
		if err := repository.NewSQLiteUserRepo(tx).MarkDeleted(ctx, victim); err != nil {
			return err
		}
		// Deleted bayrağı tek başına yeterli — bayat ban kaydı bırakma.
		return repository.NewSQLiteBanRepo(tx).Delete(ctx, victim)
	})
	if err != nil {
		return err
	}

	notice := ws.SystemPacket("Your account has been deleted.")
	if room, online := s.relay.UserRoom(victim); online {
		n := s.relay.DisconnectUser(victim, notice)
		log.Printf("[moderation] %s deleted %s (%d connection(s) closed)", admin, victim, n)
		s.relay.BroadcastRoom(room, ws.SystemPacket(victim+" was deleted by "+admin+"."))
	} else {
		log.Printf("[moderation] %s deleted %s (offline)", admin, victim)
	}

	s.PushAdminList()
	return nil
}

func (s *moderationService) AdminListText() string {
	return strings.Join(s.relay.SessionUsernames(), ",")
}

func (s *moderationService) PushAdminList() {
	s.relay.BroadcastAdmins(ws.Packet{
		Type: ws.TypeAdminList,
		From: "Server",
		Text: s.AdminListText(),
	})
}
