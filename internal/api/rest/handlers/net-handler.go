package handlers

import (
	"errors"
	"strconv"
	"time"

	"github.com/blae-code/nomad-nexus-beta-sub003/internal/api/rest/middleware"
	"github.com/blae-code/nomad-nexus-beta-sub003/internal/dto"
	"github.com/blae-code/nomad-nexus-beta-sub003/internal/helper"
	"github.com/blae-code/nomad-nexus-beta-sub003/internal/helper/utils"
	"github.com/blae-code/nomad-nexus-beta-sub003/internal/services"
	"github.com/gofiber/fiber/v2"
)

type NetHandler struct {
	svc   services.NetService
	sweep services.SweepService
	auth  helper.Auth
}

func NewNetHandler(svc services.NetService, sweep services.SweepService, auth helper.Auth) *NetHandler {
	return &NetHandler{svc: svc, sweep: sweep, auth: auth}
}

func (h *NetHandler) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	nets := api.Group("/nets")
	nets.Use(middleware.AuthMiddleware(h.auth))

	nets.Get("/", h.ListNets)
	nets.Get("/planned", h.ListPlannedOperationNets)
	nets.Post("/", h.CreateNet)

	nets.Post("/sweep", middleware.OverrideOnly(h.svc, h.auth), h.RunSweep)

	nets.Get("/:netID", h.GetNet)
	nets.Get("/:netID/logs", h.ListNetLogs)
	nets.Put("/:netID", h.UpdateNet)
	nets.Post("/:netID/close", h.CloseNet)
	nets.Post("/:netID/transfer-owner", h.TransferOwner)
}

func (h *NetHandler) ListNets(ctx *fiber.Ctx) error {
	claims, err := h.auth.GetCurrentActor(ctx)
	if err != nil {
		return utils.ResponseError(ctx, fiber.StatusUnauthorized, err.Error())
	}

	operationID := queryUint(ctx, "eventId", "event_id", "operationId")

	resp, err := h.svc.ListNets(claims, operationID)
	if err != nil {
		return respondServiceError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, resp)
}

func (h *NetHandler) ListPlannedOperationNets(ctx *fiber.Ctx) error {
	claims, err := h.auth.GetCurrentActor(ctx)
	if err != nil {
		return utils.ResponseError(ctx, fiber.StatusUnauthorized, err.Error())
	}

	operationID := queryUint(ctx, "eventId", "event_id", "operationId")
	if operationID == nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "eventId is required")
	}

	resp, err := h.svc.ListPlannedOperationNets(claims, *operationID)
	if err != nil {
		return respondServiceError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, resp)
}

func (h *NetHandler) GetNet(ctx *fiber.Ctx) error {
	claims, err := h.auth.GetCurrentActor(ctx)
	if err != nil {
		return utils.ResponseError(ctx, fiber.StatusUnauthorized, err.Error())
	}

	netID, err := paramUint(ctx, "netID")
	if err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "invalid net id")
	}

	resp, err := h.svc.GetNet(claims, netID)
	if err != nil {
		return respondServiceError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, resp)
}

func (h *NetHandler) ListNetLogs(ctx *fiber.Ctx) error {
	claims, err := h.auth.GetCurrentActor(ctx)
	if err != nil {
		return utils.ResponseError(ctx, fiber.StatusUnauthorized, err.Error())
	}

	netID, err := paramUint(ctx, "netID")
	if err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "invalid net id")
	}

	entries, err := h.svc.ListNetLogs(claims, netID)
	if err != nil {
		return respondServiceError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, fiber.Map{"logs": entries})
}

func (h *NetHandler) CreateNet(ctx *fiber.Ctx) error {
	claims, err := h.auth.GetCurrentActor(ctx)
	if err != nil {
		return utils.ResponseError(ctx, fiber.StatusUnauthorized, err.Error())
	}

	var requestBody dto.CreateNetRequest
	if err := ctx.BodyParser(&requestBody); err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "Please provide valid inputs")
	}

	resp, err := h.svc.CreateNet(claims, requestBody.Normalize())
	if err != nil {
		return respondServiceError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusCreated, resp)
}

func (h *NetHandler) UpdateNet(ctx *fiber.Ctx) error {
	claims, err := h.auth.GetCurrentActor(ctx)
	if err != nil {
		return utils.ResponseError(ctx, fiber.StatusUnauthorized, err.Error())
	}

	netID, err := paramUint(ctx, "netID")
	if err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "invalid net id")
	}

	var requestBody dto.UpdateNetRequest
	if err := ctx.BodyParser(&requestBody); err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "Please provide valid inputs")
	}

	resp, err := h.svc.UpdateNet(claims, netID, requestBody.Normalize())
	if err != nil {
		return respondServiceError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, resp)
}

func (h *NetHandler) CloseNet(ctx *fiber.Ctx) error {
	claims, err := h.auth.GetCurrentActor(ctx)
	if err != nil {
		return utils.ResponseError(ctx, fiber.StatusUnauthorized, err.Error())
	}

	netID, err := paramUint(ctx, "netID")
	if err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "invalid net id")
	}

	// reason is optional; an empty body is fine
	var requestBody dto.CloseNetRequest
	_ = ctx.BodyParser(&requestBody)

	resp, err := h.svc.CloseNet(claims, netID, requestBody.Reason)
	if err != nil {
		return respondServiceError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, resp)
}

func (h *NetHandler) TransferOwner(ctx *fiber.Ctx) error {
	claims, err := h.auth.GetCurrentActor(ctx)
	if err != nil {
		return utils.ResponseError(ctx, fiber.StatusUnauthorized, err.Error())
	}

	netID, err := paramUint(ctx, "netID")
	if err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "invalid net id")
	}

	var requestBody dto.TransferOwnerRequest
	if err := ctx.BodyParser(&requestBody); err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "Please provide valid inputs")
	}

	newOwner := requestBody.Normalize()
	if newOwner == nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "ownerId is required")
	}

	resp, err := h.svc.TransferOwner(claims, netID, *newOwner)
	if err != nil {
		return respondServiceError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, resp)
}

func (h *NetHandler) RunSweep(ctx *fiber.Ctx) error {
	var requestBody dto.SweepRequest
	_ = ctx.BodyParser(&requestBody)

	now := time.Now().UTC()
	if requestBody.Now != "" {
		parsed, err := time.Parse(time.RFC3339, requestBody.Now)
		if err != nil {
			return utils.ResponseError(ctx, fiber.StatusBadRequest, "now must be RFC3339")
		}
		now = parsed.UTC()
	}

	summary, err := h.sweep.Run(now)
	if err != nil {
		return respondServiceError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, summary)
}

func respondServiceError(ctx *fiber.Ctx, err error) error {
	var svcErr *services.ServiceError
	if errors.As(err, &svcErr) {
		return utils.ResponseBlocked(ctx, svcErr.Status, svcErr.Message, svcErr.BlockedReason)
	}
	return utils.ResponseError(ctx, fiber.StatusInternalServerError, "internal error")
}

func paramUint(ctx *fiber.Ctx, name string) (uint, error) {
	v, err := strconv.ParseUint(ctx.Params(name), 10, 64)
	if err != nil || v == 0 {
		return 0, errors.New("invalid id")
	}
	return uint(v), nil
}

func queryUint(ctx *fiber.Ctx, names ...string) *uint {
	for _, name := range names {
		raw := ctx.Query(name)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || v == 0 {
			continue
		}
		id := uint(v)
		return &id
	}
	return nil
}
