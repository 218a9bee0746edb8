package admin

import (
	"errors"
	"fmt"
	"strings"

	"restoran-web/internal/audit"
	"restoran-web/internal/auth"
	"restoran-web/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Console serves CRUD, export and undo over an explicit resource table.
type Console struct {
	db        *gorm.DB
	audit     *audit.Recorder
	resources map[string]Resource
	order     []string
}

func NewConsole(db *gorm.DB, rec *audit.Recorder, resources []Resource) *Console {
	c := &Console{db: db, audit: rec, resources: make(map[string]Resource, len(resources))}
	for _, r := range resources {
		c.resources[r.Slug()] = r
		c.order = append(c.order, r.Slug())
	}
	return c
}

// Reverter lets the audit log undo changes to console resources.
func (con *Console) Reverter(entityType string) (audit.Reverter, bool) {
	r, ok := con.resources[entityType]
	return r, ok
}

func (con *Console) resource(c *fiber.Ctx) (Resource, error) {
	r, ok := con.resources[c.Params("resource")]
	if !ok {
		return nil, fiber.NewError(fiber.StatusNotFound, "Unknown resource")
	}
	return r, nil
}

func recordID(c *fiber.Ctx) (uint, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "Invalid id")
	}
	return uint(id), nil
}

func listQuery(c *fiber.Ctx) ListQuery {
	q := ListQuery{
		Filters: map[string]string{},
		Search:  c.Query("q"),
		Limit:   c.QueryInt("limit", 50),
		Offset:  c.QueryInt("offset", 0),
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	c.Context().QueryArgs().VisitAll(func(k, v []byte) {
		q.Filters[string(k)] = string(v)
	})
	return q
}

func mapError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, "Record not found")
	case errors.Is(err, ErrInvalidBody), errors.Is(err, models.ErrValidation):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, gorm.ErrDuplicatedKey), errors.Is(err, gorm.ErrForeignKeyViolated):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	}
	// drivers without error translation still report constraint failures
	if msg := err.Error(); strings.Contains(msg, "UNIQUE constraint") || strings.Contains(msg, "FOREIGN KEY constraint") {
		return fiber.NewError(fiber.StatusConflict, msg)
	}
	return err
}

// GET /admin/api/resources
func (con *Console) IndexHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"resources": con.order})
	}
}

// GET /admin/api/:resource
func (con *Console) ListHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		r, err := con.resource(c)
		if err != nil {
			return err
		}
		q := listQuery(c)
		rows, total, err := r.List(con.db.WithContext(c.UserContext()), q)
		if err != nil {
			return mapError(err)
		}
		return c.JSON(fiber.Map{"results": rows, "count": total, "limit": q.Limit, "offset": q.Offset})
	}
}

// GET /admin/api/:resource/:id
func (con *Console) GetHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		r, err := con.resource(c)
		if err != nil {
			return err
		}
		id, err := recordID(c)
		if err != nil {
			return err
		}
		obj, err := r.Get(con.db.WithContext(c.UserContext()), id)
		if err != nil {
			return mapError(err)
		}
		return c.JSON(obj)
	}
}

// write runs fn and its audit entry in one transaction.
func (con *Console) write(c *fiber.Ctx, fn func(tx *gorm.DB, p *auth.Principal) (audit.LogOptions, error)) error {
	p := auth.CurrentPrincipal(c)
	if p == nil {
		return fiber.NewError(fiber.StatusForbidden, "Authentication required")
	}
	return con.db.WithContext(c.UserContext()).Transaction(func(tx *gorm.DB) error {
		opts, err := fn(tx, p)
		if err != nil {
			return err
		}
		opts.UserID = p.UserID
		opts.UserName = p.Name
		_, err = con.audit.Write(tx, opts)
		return err
	})
}

// POST /admin/api/:resource
func (con *Console) CreateHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		r, err := con.resource(c)
		if err != nil {
			return err
		}
		var created any
		err = con.write(c, func(tx *gorm.DB, _ *auth.Principal) (audit.LogOptions, error) {
			obj, id, err := r.Create(tx, c.Body())
			if err != nil {
				return audit.LogOptions{}, err
			}
			created = obj
			return audit.LogOptions{
				EntityType:  r.Slug(),
				EntityID:    id,
				Action:      models.AuditActionCreate,
				Description: fmt.Sprintf("Created %s #%d", r.Slug(), id),
				After:       obj,
			}, nil
		})
		if err != nil {
			return mapError(err)
		}
		return c.Status(fiber.StatusCreated).JSON(created)
	}
}

// PUT /admin/api/:resource/:id
func (con *Console) UpdateHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		r, err := con.resource(c)
		if err != nil {
			return err
		}
		id, err := recordID(c)
		if err != nil {
			return err
		}
		var updated any
		err = con.write(c, func(tx *gorm.DB, _ *auth.Principal) (audit.LogOptions, error) {
			before, after, err := r.Update(tx, id, c.Body())
			if err != nil {
				return audit.LogOptions{}, err
			}
			updated = after
			return audit.LogOptions{
				EntityType:  r.Slug(),
				EntityID:    id,
				Action:      models.AuditActionUpdate,
				Description: fmt.Sprintf("Updated %s #%d", r.Slug(), id),
				Before:      before,
				After:       after,
			}, nil
		})
		if err != nil {
			return mapError(err)
		}
		return c.JSON(updated)
	}
}

// DELETE /admin/api/:resource/:id
func (con *Console) DeleteHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		r, err := con.resource(c)
		if err != nil {
			return err
		}
		id, err := recordID(c)
		if err != nil {
			return err
		}
		err = con.write(c, func(tx *gorm.DB, _ *auth.Principal) (audit.LogOptions, error) {
			before, err := r.Remove(tx, id)
			if err != nil {
				return audit.LogOptions{}, err
			}
			return audit.LogOptions{
				EntityType:  r.Slug(),
				EntityID:    id,
				Action:      models.AuditActionDelete,
				Description: fmt.Sprintf("Deleted %s #%d", r.Slug(), id),
				Before:      before,
			}, nil
		})
		if err != nil {
			return mapError(err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// GET /admin/api/:resource/export.xlsx
func (con *Console) ExportHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		r, err := con.resource(c)
		if err != nil {
			return err
		}
		f, err := r.Export(con.db.WithContext(c.UserContext()), listQuery(c))
		if err != nil {
			return mapError(err)
		}
		defer f.Close()

		buf, err := f.WriteToBuffer()
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not build spreadsheet")
		}
		c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s.xlsx"`, r.Slug()))
		return c.Send(buf.Bytes())
	}
}
