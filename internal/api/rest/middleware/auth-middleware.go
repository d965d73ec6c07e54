package middleware

import (
	"strings"

	"github.com/blae-code/nomad-nexus-beta-sub003/internal/helper"
	"github.com/blae-code/nomad-nexus-beta-sub003/internal/services"
	"github.com/gofiber/fiber/v2"
)

func AuthMiddleware(auth helper.Auth) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		// 1) try cookie first
		tokenStr := strings.TrimSpace(ctx.Cookies("access_token"))

		// 2) fallback to Authorization header
		if tokenStr == "" {
			tokenStr = strings.TrimSpace(ctx.Get("Authorization"))
		}

		actor, err := auth.VerifyToken(tokenStr)
		if err != nil {
			return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": err.Error(),
			})
		}

		ctx.Locals("memberID", actor.MemberID)
		ctx.Locals("actor", actor)
		return ctx.Next()
	}
}

// OverrideOnly gates entrypoints reserved for platform override holders,
// like the manual sweep trigger.
func OverrideOnly(netSvc services.NetService, auth helper.Auth) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		claims, err := auth.GetCurrentActor(ctx)
		if err != nil {
			return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "unauthorized",
			})
		}

		override, err := netSvc.HasOverride(claims)
		if err != nil {
			return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": err.Error(),
			})
		}

		if !override {
			return ctx.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error":         "platform override required",
				"blockedReason": services.BlockedInsufficientPermissions,
			})
		}

		return ctx.Next()
	}
}
