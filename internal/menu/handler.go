package menu

import (
	"restoran-web/internal/models"
	"restoran-web/internal/pricing"

	"github.com/gofiber/fiber/v2"
)

type ItemResponse struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Price       string `json:"price"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
	Featured    bool   `json:"featured"`
}

type CategoryResponse struct {
	ID    uint           `json:"id"`
	Name  string         `json:"name"`
	Items []ItemResponse `json:"items"`
}

type SetItemResponse struct {
	MenuItemID uint   `json:"menu_item_id"`
	Name       string `json:"name"`
	Quantity   int    `json:"quantity"`
}

type SetResponse struct {
	ID    uint              `json:"id"`
	Name  string            `json:"name"`
	Price string            `json:"price"`
	Items []SetItemResponse `json:"items"`
}

func toItems(list []models.MenuItem) []ItemResponse {
	out := make([]ItemResponse, 0, len(list))
	for _, it := range list {
		out = append(out, ItemResponse{
			ID:          it.ID,
			Name:        it.Name,
			Price:       pricing.Money(it.Price),
			Description: it.Description,
			ImageURL:    it.ImageURL,
			Featured:    it.Featured,
		})
	}
	return out
}

// GET /api/menu
func Handler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		cat, err := svc.Catalog(c.UserContext())
		if err != nil {
			return err
		}

		cats := make([]CategoryResponse, 0, len(cat.Categories))
		for _, mc := range cat.Categories {
			cats = append(cats, CategoryResponse{ID: mc.ID, Name: mc.Name, Items: toItems(cat.ItemsByCat[mc.ID])})
		}

		sets := make([]SetResponse, 0, len(cat.Sets))
		for _, fs := range cat.Sets {
			sr := SetResponse{ID: fs.ID, Name: fs.Name, Price: pricing.Money(fs.Price), Items: []SetItemResponse{}}
			for _, si := range fs.Items {
				name := ""
				if si.MenuItem != nil {
					name = si.MenuItem.Name
				}
				sr.Items = append(sr.Items, SetItemResponse{MenuItemID: si.MenuItemID, Name: name, Quantity: si.Quantity})
			}
			sets = append(sets, sr)
		}

		return c.JSON(fiber.Map{
			"categories":    cats,
			"uncategorized": toItems(cat.Uncategorized),
			"sets":          sets,
		})
	}
}
