package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// CookieSigner はセッションIDにHMAC-SHA256署名を付与・検証する。
// Cookie値は "<sessionID>.<署名>" の形式。
type CookieSigner struct {
	secret []byte
}

// NewCookieSigner はCookieSignerを生成する。
func NewCookieSigner(secret string) *CookieSigner {
	return &CookieSigner{secret: []byte(secret)}
}

// Sign はセッションIDに署名を付与したCookie値を返す。
func (s *CookieSigner) Sign(sessionID string) string {
	return sessionID + "." + s.mac(sessionID)
}

// Verify はCookie値の署名を検証し、セッションIDを返す。改ざんされている場合はfalseを返す。
func (s *CookieSigner) Verify(value string) (string, bool) {
	i := strings.LastIndexByte(value, '.')
	if i <= 0 || i == len(value)-1 {
		return "", false
	}
	sessionID, sig := value[:i], value[i+1:]
	if !hmac.Equal([]byte(sig), []byte(s.mac(sessionID))) {
		return "", false
	}
	return sessionID, true
}

func (s *CookieSigner) mac(sessionID string) string {
	h := hmac.New(sha256.New, s.secret)
	h.Write([]byte(sessionID))
	return hex.EncodeToString(h.Sum(nil))
}
