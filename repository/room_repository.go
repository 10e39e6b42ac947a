package repository

import "context"

// RoomRepository, oda isimleri tablosu erişimi.
// Odalar oluşturulur ama asla silinmez; "General" migration ile seed edilir.
type RoomRepository interface {
	// Create, yeni oda ekler; isim zaten varsa pkg.ErrAlreadyExists döner.
	Create(ctx context.Context, name string) error

	// Exists, oda var mı kontrolü.
	Exists(ctx context.Context, name string) (bool, error)

	// List, tüm oda isimlerini oluşturulma sırasıyla döner.
	List(ctx context.Context) ([]string, error)
}
