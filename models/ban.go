// Package models — Ban (yasaklama) domain modeli.
//
// Ban sistemi nasıl çalışır?
// 1. Admin bir kullanıcıyı N dakikalığına banlar → bans tablosuna kayıt
// 2. Banlanan kullanıcı anında disconnect edilir
// 3. Banlı kullanıcı login denemesi yaparsa → expiry geçmemişse reddedilir
// 4. Expiry geçmişse kayıt login denemesi sırasında lazily silinir
//
// Aynı kullanıcıya üst üste ban atılırsa son yazan kazanır (upsert) —
// admin aksiyonları nadir ve etkisi idempotent olduğu için transaction
// koordinasyonu gerekmez.
package models

import "time"

// Ban, yasaklanmış bir kullanıcıyı temsil eder.
type Ban struct {
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expires_at"` // UTC
	BannedBy  string    `json:"banned_by"`
	CreatedAt time.Time `json:"created_at"`
}

// Expired, ban süresinin verilen ana göre dolup dolmadığını söyler.
func (b *Ban) Expired(now time.Time) bool {
	return !now.Before(b.ExpiresAt)
}
