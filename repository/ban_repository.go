package repository

import (
	"context"

	"github.com/akinalp/wschat/models"
)

// BanRepository, ban tablosu erişimi (username → expiry).
type BanRepository interface {
	// Upsert, ban kaydı ekler veya mevcut kaydın üzerine yazar.
	// Aynı kurbana eşzamanlı iki ban'da son yazan kazanır — kabul edilen
	// davranış, admin aksiyonları nadir ve etkisi idempotent.
	Upsert(ctx context.Context, ban *models.Ban) error

	// GetByUsername, ban kaydını döner; yoksa pkg.ErrNotFound.
	// Expiry kontrolü çağıranın işidir (bkz. AuthService.Login).
	GetByUsername(ctx context.Context, username string) (*models.Ban, error)

	// Delete, ban kaydını siler. Kayıt yoksa sessizce başarılıdır.
	Delete(ctx context.Context, username string) error
}
