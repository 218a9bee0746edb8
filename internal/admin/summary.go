package admin

import (
	"fmt"
	"sort"
	"time"

	"restoran-web/internal/models"
	"restoran-web/internal/pricing"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type SummaryPoint struct {
	Label string `json:"label"` // bucket start date
	Cash  string `json:"cash"`
	QR    string `json:"qr"`
	Card  string `json:"card"`
	Total string `json:"total"`
}

type SummaryTotals struct {
	Cash   string `json:"cash"`
	QR     string `json:"qr"`
	Card   string `json:"card"`
	Total  string `json:"total"`
	Orders int    `json:"orders"`
}

type SummaryResponse struct {
	Period         string                       `json:"period"` // daily | weekly | monthly
	From           string                       `json:"from"`
	To             string                       `json:"to"`
	Points         []SummaryPoint               `json:"points"`
	GrandTotals    SummaryTotals                `json:"grand_totals"`
	OrdersByStatus map[models.OrderStatus]int64 `json:"orders_by_status"`
	LowStockCount  int64                        `json:"low_stock_count"`
}

type bucketAgg struct {
	start time.Time
	cash  decimal.Decimal
	qr    decimal.Decimal
	card  decimal.Decimal
}

func (b *bucketAgg) total() decimal.Decimal {
	return b.cash.Add(b.qr).Add(b.card)
}

// summaryWindow returns the first bucket start and the exclusive end of the
// window ending with the bucket that contains now.
func summaryWindow(period string, count int, now time.Time) (time.Time, time.Time) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	switch period {
	case "weekly":
		end := bucketStart(period, today).AddDate(0, 0, 7)
		return end.AddDate(0, 0, -7*count), end
	case "monthly":
		end := bucketStart(period, today).AddDate(0, 1, 0)
		return end.AddDate(0, -count, 0), end
	}
	end := today.AddDate(0, 0, 1)
	return end.AddDate(0, 0, -count), end
}

// bucketStart truncates t to its day, ISO week (Monday) or month.
func bucketStart(period string, t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	switch period {
	case "weekly":
		offset := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset)
	case "monthly":
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	}
	return day
}

func nextBucket(period string, t time.Time) time.Time {
	switch period {
	case "weekly":
		return t.AddDate(0, 0, 7)
	case "monthly":
		return t.AddDate(0, 1, 0)
	}
	return t.AddDate(0, 0, 1)
}

// Summary aggregates revenue of paid and completed orders created within
// the window, bucketed in Go so it runs the same on every driver.
func Summary(db *gorm.DB, period string, count int, now time.Time) (*SummaryResponse, error) {
	switch period {
	case "daily", "weekly", "monthly":
	default:
		return nil, fmt.Errorf("%w: unknown period %q", ErrInvalidBody, period)
	}
	if count <= 0 {
		return nil, fmt.Errorf("%w: count must be positive", ErrInvalidBody)
	}
	start, end := summaryWindow(period, count, now)

	type row struct {
		CreatedAt time.Time
		Total     decimal.Decimal
		Method    *models.PaymentMethod
	}
	var rows []row
	err := db.Table("orders").
		Select("orders.created_at, orders.total, payments.method").
		Joins("LEFT JOIN payments ON payments.order_id = orders.id").
		Where("orders.status IN ?", []models.OrderStatus{models.OrderStatusPaid, models.OrderStatusCompleted}).
		Where("orders.created_at >= ? AND orders.created_at < ?", start, end).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("summary revenue: %w", err)
	}

	buckets := make(map[time.Time]*bucketAgg, count)
	for t := start; t.Before(end); t = nextBucket(period, t) {
		buckets[t] = &bucketAgg{start: t}
	}
	for _, r := range rows {
		agg, ok := buckets[bucketStart(period, r.CreatedAt.In(now.Location()))]
		if !ok {
			continue
		}
		method := models.PaymentCash
		if r.Method != nil {
			method = *r.Method
		}
		switch method {
		case models.PaymentQR:
			agg.qr = agg.qr.Add(r.Total)
		case models.PaymentCard:
			agg.card = agg.card.Add(r.Total)
		default:
			agg.cash = agg.cash.Add(r.Total)
		}
	}

	ordered := make([]*bucketAgg, 0, len(buckets))
	for _, b := range buckets {
		ordered = append(ordered, b)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].start.Before(ordered[j].start) })

	resp := &SummaryResponse{
		Period: period,
		From:   start.Format("2006-01-02"),
		To:     end.AddDate(0, 0, -1).Format("2006-01-02"),
		Points: make([]SummaryPoint, 0, len(ordered)),
	}
	var cash, qr, card decimal.Decimal
	for _, b := range ordered {
		resp.Points = append(resp.Points, SummaryPoint{
			Label: b.start.Format("2006-01-02"),
			Cash:  pricing.Money(b.cash),
			QR:    pricing.Money(b.qr),
			Card:  pricing.Money(b.card),
			Total: pricing.Money(b.total()),
		})
		cash, qr, card = cash.Add(b.cash), qr.Add(b.qr), card.Add(b.card)
	}
	resp.GrandTotals = SummaryTotals{
		Cash:   pricing.Money(cash),
		QR:     pricing.Money(qr),
		Card:   pricing.Money(card),
		Total:  pricing.Money(cash.Add(qr).Add(card)),
		Orders: len(rows),
	}

	var statusRows []struct {
		Status models.OrderStatus
		N      int64
	}
	if err := db.Model(&models.Order{}).
		Select("status, COUNT(*) AS n").
		Where("created_at >= ? AND created_at < ?", start, end).
		Group("status").
		Scan(&statusRows).Error; err != nil {
		return nil, fmt.Errorf("summary statuses: %w", err)
	}
	resp.OrdersByStatus = make(map[models.OrderStatus]int64, len(statusRows))
	for _, r := range statusRows {
		resp.OrdersByStatus[r.Status] = r.N
	}

	if err := db.Model(&models.Ingredient{}).
		Where("active = ? AND stock_quantity <= low_stock_threshold", true).
		Count(&resp.LowStockCount).Error; err != nil {
		return nil, fmt.Errorf("summary low stock: %w", err)
	}
	return resp, nil
}

// GET /admin/api/summary?period=daily&count=7
func SummaryHandler(db *gorm.DB, now func() time.Time) fiber.Handler {
	return func(c *fiber.Ctx) error {
		period := c.Query("period", "daily")
		count := c.QueryInt("count", 0)
		if count == 0 {
			switch period {
			case "weekly":
				count = 8
			case "monthly":
				count = 12
			default:
				count = 7
			}
		}
		if count > 366 {
			count = 366
		}

		resp, err := Summary(db.WithContext(c.UserContext()), period, count, now())
		if err != nil {
			return mapError(err)
		}
		return c.JSON(resp)
	}
}
