// Package censor, chat mesajlarındaki yasaklı kelimeleri maskeleyen
// deterministik ve saf (pure) filtreyi sağlar.
//
// Filtre sadece oda mesajlarına (chat_message) uygulanır — system ve
// private paket metinlerine asla dokunulmaz; bu karar dispatcher'dadır,
// filtre kendisi hangi metni aldığını bilmez.
//
// Eşleşme kuralı: tam kelime (word boundary), büyük/küçük harf duyarsız.
// Her eşleşme sabit Mask token'ı ile değiştirilir. Mask'ın kendisi hiçbir
// yasaklı kelimeyi içermediği için filtre idempotent'tir:
// Apply(Apply(x)) == Apply(x).
package censor

import (
	"regexp"
	"strings"
)

// Mask, yasaklı her kelimenin yerine yazılan sabit token.
const Mask = "***"

// defaultWords, gömülü denylist. Config üzerinden CENSOR_WORDS ile
// çalıştırma anında genişletilebilir (bkz. config paketi).
var defaultWords = []string{
	"damn",
	"hell",
	"crap",
	"stupid",
	"idiot",
	"moron",
	"jerk",
	"loser",
}

// Filter, derlenmiş denylist'i taşır. Oluşturulduktan sonra immutable'dır —
// birden fazla goroutine güvenle paylaşabilir (regexp.Regexp thread-safe).
type Filter struct {
	re    *regexp.Regexp
	words []string
}

// New, gömülü denylist'i (varsa) ek kelimelerle birleştirip filtreyi derler.
// Boş ve tekrar eden kelimeler atlanır; eşleşme case-insensitive olduğu için
// kelimeler lowercase normalize edilir.
func New(extra ...string) *Filter {
	seen := make(map[string]bool)
	var words []string
	for _, w := range append(append([]string{}, defaultWords...), extra...) {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" || seen[w] {
			continue
		}
		seen[w] = true
		words = append(words, w)
	}

	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(w)
	}

	// (?i) → case-insensitive, \b → kelime sınırı.
	// "hell" eşleşir ama "hello" eşleşmez.
	re := regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`)

	return &Filter{re: re, words: words}
}

// Apply, metindeki yasaklı kelimeleri maskeler.
// İkinci dönüş değeri, en az bir değişiklik yapılıp yapılmadığını bildirir —
// admin'lere censor_warning gönderme yan etkisini bu değer tetikler.
func (f *Filter) Apply(text string) (string, bool) {
	if !f.re.MatchString(text) {
		return text, false
	}
	return f.re.ReplaceAllString(text, Mask), true
}

// Words, derlenmiş denylist'in kopyasını döner (test ve log için).
func (f *Filter) Words() []string {
	out := make([]string, len(f.words))
	copy(out, f.words)
	return out
}
