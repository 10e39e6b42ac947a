package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/akinalp/wschat/pkg"
	"github.com/akinalp/wschat/repository"
)

// RoomService interface'i — oda directory iş kuralları.
// Odalar oluşturulur ama asla silinmez; "General" migration ile gelir.
type RoomService interface {
	// Create, oda ekler. Boş isim → pkg.ErrBadRequest.
	// Mevcut isim → pkg.ErrAlreadyExists (idempotent: state değişmez,
	// çağıran "already exists" yanıtını üretir).
	Create(ctx context.Context, name string) error

	// Exists, oda var mı kontrolü.
	Exists(ctx context.Context, name string) (bool, error)

	// List, oda isimlerini oluşturulma sırasıyla döner.
	List(ctx context.Context) ([]string, error)
}

type roomService struct {
	rooms repository.RoomRepository
}

// NewRoomService, constructor.
func NewRoomService(rooms repository.RoomRepository) RoomService {
	return &roomService{rooms: rooms}
}

func (s *roomService) Create(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: room name required", pkg.ErrBadRequest)
	}
	return s.rooms.Create(ctx, name)
}

func (s *roomService) Exists(ctx context.Context, name string) (bool, error) {
	return s.rooms.Exists(ctx, name)
}

func (s *roomService) List(ctx context.Context) ([]string, error) {
	return s.rooms.List(ctx)
}
