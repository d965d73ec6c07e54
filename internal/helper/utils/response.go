package utils

import "github.com/gofiber/fiber/v2"

func ResponseError(ctx *fiber.Ctx, status int, msg string) error {
	return ctx.Status(status).JSON(fiber.Map{
		"error": msg,
	})
}

// ResponseBlocked carries the machine-readable reason alongside the message
// so operator tooling can explain "why".
func ResponseBlocked(ctx *fiber.Ctx, status int, msg, blockedReason string) error {
	if blockedReason == "" {
		return ResponseError(ctx, status, msg)
	}
	return ctx.Status(status).JSON(fiber.Map{
		"error":         msg,
		"blockedReason": blockedReason,
	})
}

// create a generic response function for success
func ResponseSuccess(ctx *fiber.Ctx, status int, data interface{}) error {
	return ctx.Status(status).JSON(fiber.Map{"data": data})
}
