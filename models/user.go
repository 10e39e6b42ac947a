// Package models, uygulamanın domain modellerini (veri yapıları) tanımlar.
//
// Model nedir?
// Veritabanındaki bir tablonun Go karşılığıdır. Relay'de kalıcı görünen tek
// state kullanıcı kimlik bilgileri, ban kayıtları ve oda isimleridir — ve
// bunlar bile in-memory SQLite'ta yaşar: süreç ölünce her şey sıfırlanır.
package models

import (
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// User, kayıtlı bir kullanıcıyı temsil eder.
//
// IsDeleted hem "credential silindi" hem "bu isim sonsuza dek yasaklı"
// anlamına gelir: admin delete satırı silmez, hash'i boşaltıp bayrağı kaldırır.
// Böylece aynı isimle yeniden register/login kalıcı olarak reddedilir.
type User struct {
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"` // wire'a asla çıkmaz
	IsDeleted    bool      `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// ValidateCredentials, register/login paketlerinden gelen kullanıcı adı ve
// şifreyi kontrol eder. Kurallar kasıtlı olarak gevşek — orijinal protokol
// "alice"/"pw1" gibi kısa değerleri kabul eder; sadece boş ve
// whitespace'li kullanıcı adlarını reddediyoruz.
func ValidateCredentials(username, password string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return "", fmt.Errorf("username is required")
	}
	if utf8.RuneCountInString(username) > 32 {
		return "", fmt.Errorf("username must be at most 32 characters")
	}
	for _, ch := range username {
		if unicode.IsSpace(ch) {
			return "", fmt.Errorf("username cannot contain spaces")
		}
	}
	if password == "" {
		return "", fmt.Errorf("password is required")
	}
	return username, nil
}
