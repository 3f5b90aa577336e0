package util

import (
	"fmt"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/gofiber/fiber/v2"
	"github.com/nilotpaul/go-fitsync/setting"
	"github.com/nilotpaul/go-fitsync/types"
)

func GenerateSessionToken(userID string, secret string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"exp":     setting.SessionExpiry.Unix(),
	})

	ts, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", err
	}

	return ts, nil
}

func SetSessionToken(c *fiber.Ctx, token string, domain string) {
	c.Cookie(&fiber.Cookie{
		Name:     setting.SessionKey,
		Value:    token,
		Expires:  setting.SessionExpiry,
		HTTPOnly: true,
		Path:     "/",
		Secure:   false,
		Domain:   domain,
	})
}

func GetSessionToken(c *fiber.Ctx) string {
	return c.Cookies(setting.SessionKey, "")
}

func VerifyAndDecodeSessionToken(tokenStr string, secret string) (*types.JWTSession, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("invalid signing method: %v", t.Method.Alg())
		}
		return []byte(secret), nil
	})

	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid jwt claim")
	}
	userID, ok := claims["user_id"].(string)
	if !ok {
		return nil, fmt.Errorf("invalid userID")
	}
	expiry, ok := claims["exp"].(float64)
	if !ok {
		return nil, fmt.Errorf("invalid expires_at")
	}

	session := types.JWTSession{
		UserID:    userID,
		ExpiresAt: time.Unix(int64(expiry), 0),
	}

	return &session, nil
}

// ResetSession expires the session cookie. Provider tokens live server-side
// only, so there is nothing else to clear on the client.
func ResetSession(c *fiber.Ctx, domain string) {
	c.Cookie(&fiber.Cookie{
		Name:     setting.SessionKey,
		Path:     "/",
		HTTPOnly: true,
		Expires:  time.Now().AddDate(-100, 0, 0),
		Domain:   domain,
	})
}
