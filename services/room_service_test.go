package services

import (
	"context"
	"errors"
	"testing"

	"github.com/akinalp/wschat/pkg"
	"github.com/akinalp/wschat/repository"
)

func newTestRooms(t *testing.T) RoomService {
	t.Helper()
	db := newTestDB(t)
	return NewRoomService(repository.NewSQLiteRoomRepo(db.Conn))
}

func TestDefaultRoomIsSeeded(t *testing.T) {
	rooms := newTestRooms(t)
	ctx := context.Background()

	exists, err := rooms.Exists(ctx, "General")
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if !exists {
		t.Error("Expected General room to exist on a fresh database")
	}
}

func TestCreateRoom(t *testing.T) {
	rooms := newTestRooms(t)
	ctx := context.Background()

	if err := rooms.Create(ctx, "golang"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := rooms.Create(ctx, "golang"); !errors.Is(err, pkg.ErrAlreadyExists) {
		t.Errorf("Expected ErrAlreadyExists for duplicate room, got %v", err)
	}

	if err := rooms.Create(ctx, "   "); !errors.Is(err, pkg.ErrBadRequest) {
		t.Errorf("Expected ErrBadRequest for blank name, got %v", err)
	}
}

func TestListRoomsInsertionOrder(t *testing.T) {
	rooms := newTestRooms(t)
	ctx := context.Background()

	for _, name := range []string{"zebra", "alpha"} {
		if err := rooms.Create(ctx, name); err != nil {
			t.Fatalf("Create %s failed: %v", name, err)
		}
	}

	names, err := rooms.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}

	want := []string{"General", "zebra", "alpha"}
	if len(names) != len(want) {
		t.Fatalf("Expected %d rooms, got %v", len(want), names)
	}
	for i, name := range want {
		if names[i] != name {
			t.Errorf("Expected room %d to be %q, got %q", i, name, names[i])
		}
	}
}
