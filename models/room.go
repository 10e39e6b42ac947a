package models

import "time"

// DefaultRoom, her bağlantının connect anında atandığı oda.
// Migration ile seed edilir, asla silinemez.
const DefaultRoom = "General"

// Room, isimlendirilmiş bir yayın kapsamını temsil eder.
// İsim unique ve case-sensitive'dir; üyelik odada değil, bağlantı
// kayıtlarında tutulur (her bağlantının tam bir oda ataması vardır).
type Room struct {
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
