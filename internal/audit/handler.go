package audit

import (
	"errors"
	"strconv"

	"restoran-web/internal/auth"
	"restoran-web/internal/models"

	"github.com/gofiber/fiber/v2"
)

type AuditLogResponse struct {
	ID          uint               `json:"id"`
	CreatedAt   string             `json:"created_at"`
	UserID      uint               `json:"user_id"`
	UserName    string             `json:"user_name"`
	EntityType  string             `json:"entity_type"`
	EntityID    uint               `json:"entity_id"`
	Action      models.AuditAction `json:"action"`
	Description string             `json:"description"`
	BeforeData  any                `json:"before_data"`
	AfterData   any                `json:"after_data"`
	Undone      bool               `json:"undone"`
	IsUndone    bool               `json:"is_undone"`
	UndoneBy    *uint              `json:"undone_by"`
	UndoneAt    *string            `json:"undone_at"`
}

const timeLayout = "2006-01-02 15:04:05"

func toResponse(l models.AuditLog) AuditLogResponse {
	var undoneAt *string
	if l.UndoneAt != nil {
		s := l.UndoneAt.Format(timeLayout)
		undoneAt = &s
	}
	return AuditLogResponse{
		ID:          l.ID,
		CreatedAt:   l.CreatedAt.Format(timeLayout),
		UserID:      l.UserID,
		UserName:    l.UserName,
		EntityType:  l.EntityType,
		EntityID:    l.EntityID,
		Action:      l.Action,
		Description: l.Description,
		BeforeData:  l.BeforeData,
		AfterData:   l.AfterData,
		Undone:      l.Undone,
		IsUndone:    l.IsUndone,
		UndoneBy:    l.UndoneBy,
		UndoneAt:    undoneAt,
	}
}

func queryUint(c *fiber.Ctx, key string) uint {
	n, err := strconv.ParseUint(c.Query(key), 10, 64)
	if err != nil {
		return 0
	}
	return uint(n)
}

// GET /admin/api/audit-logs?entity_type=vouchers&entity_id=1&user_id=2
func ListHandler(rec *Recorder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		logs, total, err := rec.List(c.UserContext(), ListFilter{
			EntityType: c.Query("entity_type"),
			EntityID:   queryUint(c, "entity_id"),
			UserID:     queryUint(c, "user_id"),
			Limit:      c.QueryInt("limit", 100),
			Offset:     c.QueryInt("offset", 0),
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list audit logs")
		}

		resp := make([]AuditLogResponse, 0, len(logs))
		for _, l := range logs {
			resp = append(resp, toResponse(l))
		}
		return c.JSON(fiber.Map{"results": resp, "count": total})
	}
}

// POST /admin/api/audit-logs/:id/undo
func UndoHandler(rec *Recorder, resolve Resolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		logID, err := c.ParamsInt("id")
		if err != nil || logID <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid log id")
		}
		p := auth.CurrentPrincipal(c)
		if p == nil {
			return fiber.NewError(fiber.StatusForbidden, "Authentication required")
		}

		entry, err := rec.Undo(c.UserContext(), uint(logID), p.UserID, p.Name, resolve)
		switch {
		case errors.Is(err, ErrLogNotFound):
			return fiber.NewError(fiber.StatusNotFound, "Log not found")
		case errors.Is(err, ErrAlreadyUndone), errors.Is(err, ErrNotUndoable):
			return fiber.NewError(fiber.StatusConflict, err.Error())
		case err != nil:
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		return c.JSON(fiber.Map{"message": "Change undone", "log": toResponse(*entry)})
	}
}
