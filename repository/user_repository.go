// Package repository, veri erişim katmanını barındırır.
//
// Her entity için bir interface (UserRepository, BanRepository,
// RoomRepository) ve onun SQLite implementasyonu (sqlite_*.go) vardır.
// Service katmanı interface'lere bağımlıdır — implementasyon değişse bile
// service kodu etkilenmez, testlerde in-memory SQLite ile gerçek repo
// kullanılabilir.
package repository

import (
	"context"

	"github.com/akinalp/wschat/models"
)

// UserRepository, credential store + deleted set erişimi.
//
// Credential store ve deleted set tek tabloda yaşar: is_deleted=0 satırlar
// aktif hesaplardır, is_deleted=1 satırlar kalıcı olarak kilitlidir.
type UserRepository interface {
	// Create, yeni bir credential kaydı ekler.
	// Aynı isim varsa (silinmiş olsa bile) pkg.ErrAlreadyExists döner.
	Create(ctx context.Context, user *models.User) error

	// GetByUsername, kullanıcıyı döner; yoksa pkg.ErrNotFound.
	GetByUsername(ctx context.Context, username string) (*models.User, error)

	// MarkDeleted, kullanıcıyı kalıcı olarak yasaklar: hash boşaltılır,
	// is_deleted kaldırılır. Satır yoksa yasaklı bir placeholder oluşturulur
	// (hiç kayıt olmamış bir isim de delete edilebilir).
	MarkDeleted(ctx context.Context, username string) error
}
