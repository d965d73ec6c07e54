package helper

import (
	"errors"
	"strings"
	"time"

	"github.com/blae-code/nomad-nexus-beta-sub003/internal/dto"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

type Auth struct {
	Secret string
}

func SetupAuth(s string) Auth {
	return Auth{
		Secret: s,
	}
}

func (a Auth) GenerateToken(memberID uint, handle, kind string) (string, error) {
	if memberID == 0 {
		return "", errors.New("required inputs are missing to generate token")
	}
	if kind == "" {
		kind = dto.ActorKindMember
	}

	now := time.Now().Unix()
	exp := time.Now().Add(24 * time.Hour).Unix()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"member_id": memberID,
		"handle":    handle,
		"kind":      kind,
		"iat":       now,
		"exp":       exp,
	})

	tokenStr, err := token.SignedString([]byte(a.Secret))
	if err != nil {
		return "", errors.New("unable to sign the token")
	}

	return tokenStr, nil
}

func (a Auth) VerifyToken(tokenString string) (dto.AuthClaims, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return dto.AuthClaims{}, errors.New("missing token")
	}

	// support both:
	// - "Bearer <token>"
	// - "<token>"
	if strings.HasPrefix(strings.ToLower(tokenString), "bearer ") {
		parts := strings.SplitN(tokenString, " ", 2)
		if len(parts) != 2 || strings.TrimSpace(parts[1]) == "" {
			return dto.AuthClaims{}, errors.New("invalid token format")
		}
		tokenString = strings.TrimSpace(parts[1])
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(a.Secret), nil
	})
	if err != nil {
		return dto.AuthClaims{}, errors.New("token parse error")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return dto.AuthClaims{}, errors.New("invalid token claims")
	}

	expAny, ok := claims["exp"]
	if !ok {
		return dto.AuthClaims{}, errors.New("missing expiry")
	}
	expFloat, ok := expAny.(float64)
	if !ok {
		return dto.AuthClaims{}, errors.New("invalid expiry type")
	}
	if float64(time.Now().Unix()) > expFloat {
		return dto.AuthClaims{}, errors.New("token expired")
	}

	memberAny, ok := claims["member_id"].(float64)
	if !ok || memberAny <= 0 {
		return dto.AuthClaims{}, errors.New("missing member id")
	}

	handle, _ := claims["handle"].(string)
	kind, _ := claims["kind"].(string)
	if kind == "" {
		kind = dto.ActorKindMember
	}
	iat, _ := claims["iat"].(float64)

	return dto.AuthClaims{
		MemberID: uint(memberAny),
		Handle:   handle,
		Kind:     kind,
		Iat:      iat,
		Expiry:   expFloat,
	}, nil
}

func (a Auth) GetCurrentActor(ctx *fiber.Ctx) (dto.AuthClaims, error) {
	u := ctx.Locals("actor")
	claims, ok := u.(dto.AuthClaims)
	if !ok {
		return dto.AuthClaims{}, errors.New("missing auth actor in context")
	}
	return claims, nil
}
