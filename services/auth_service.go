// Package services, business logic katmanını barındırır.
//
// Service Layer Pattern: Dispatcher (wire) ile Repository (storage)
// arasında oturan katmandır. Tüm iş kuralları burada yaşar — şifre
// hash'leme, ban/deleted kontrolleri, moderasyon yan etkileri.
//
// Service ASLA http.Request/WebSocket bilmez — sadece domain modelleri ve
// ws.Relay gibi küçük interface'ler alır/verir.
// Service ASLA doğrudan SQL çalıştırmaz — Repository interface'i kullanır.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/akinalp/wschat/models"
	"github.com/akinalp/wschat/pkg"
	"github.com/akinalp/wschat/repository"
)

// AuthService interface'i — register/login iş kuralları.
type AuthService interface {
	// Register, yeni credential kaydı oluşturur.
	// Silinmiş isim → pkg.ErrForbidden; alınmış isim → pkg.ErrAlreadyExists;
	// geçersiz girdi → pkg.ErrBadRequest.
	Register(ctx context.Context, username, password string) (*models.User, error)

	// Login, credential doğrular.
	// Silinmiş → pkg.ErrForbidden; banlı → *BannedError; bilinmeyen isim
	// veya yanlış şifre → pkg.ErrUnauthorized (ikisi ayırt edilmez —
	// kayıtlı isimleri sızdırmamak için aynı mesaj).
	// Süresi dolmuş ban kaydı bu çağrı sırasında lazily silinir.
	Login(ctx context.Context, username, password string) (*models.User, error)
}

// BannedError, süresi dolmamış bir ban'a çarpan login'i temsil eder.
// Dispatcher expiry'yi wire mesajına yazmak için errors.As ile yakalar.
type BannedError struct {
	Until time.Time
}

func (e *BannedError) Error() string {
	return fmt.Sprintf("banned until %s", e.Until.UTC().Format(time.RFC3339))
}

type authService struct {
	users repository.UserRepository
	bans  repository.BanRepository

	// now: test'lerde sabitlenebilir saat.
	now func() time.Time
}

// NewAuthService, constructor.
func NewAuthService(users repository.UserRepository, bans repository.BanRepository) AuthService {
	return &authService{
		users: users,
		bans:  bans,
		now:   time.Now,
	}
}

func (s *authService) Register(ctx context.Context, username, password string) (*models.User, error) {
	username, err := models.ValidateCredentials(username, password)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	// Deleted set kontrolü: silinmiş bir isim asla geri dönemez.
	// Create'in unique hatasına bırakılamaz — mesajı farklı.
	existing, err := s.users.GetByUsername(ctx, username)
	if err != nil && !errors.Is(err, pkg.ErrNotFound) {
		return nil, err
	}
	if existing != nil && existing.IsDeleted {
		return nil, fmt.Errorf("%w: account deleted", pkg.ErrForbidden)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     username,
		PasswordHash: string(hash),
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err // ErrAlreadyExists olabilir
	}

	return user, nil
}

func (s *authService) Login(ctx context.Context, username, password string) (*models.User, error) {
	username, err := models.ValidateCredentials(username, password)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return nil, fmt.Errorf("%w: invalid login or password", pkg.ErrUnauthorized)
		}
		return nil, err
	}

	if user.IsDeleted {
		return nil, fmt.Errorf("%w: account deleted", pkg.ErrForbidden)
	}

	// Ban kontrolü — expiry geçtiyse kayıt burada lazily temizlenir.
	ban, err := s.bans.GetByUsername(ctx, username)
	if err != nil && !errors.Is(err, pkg.ErrNotFound) {
		return nil, err
	}
	if ban != nil {
		if !ban.Expired(s.now()) {
			return nil, &BannedError{Until: ban.ExpiresAt}
		}
		if err := s.bans.Delete(ctx, username); err != nil {
			return nil, err
		}
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, fmt.Errorf("%w: invalid login or password", pkg.ErrUnauthorized)
	}

	return user, nil
}
