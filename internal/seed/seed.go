// Package seed loads demo fixtures and the default admin account.
package seed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"restoran-web/internal/config"
	"restoran-web/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Result lists what a seeding run changed, one line per step.
type Result struct {
	Created []string
	Skipped []string
}

func (r *Result) created(format string, args ...any) {
	r.Created = append(r.Created, fmt.Sprintf(format, args...))
}

func (r *Result) skipped(format string, args ...any) {
	r.Skipped = append(r.Skipped, fmt.Sprintf(format, args...))
}

// Run creates demo data for every table that is still empty. Running it
// again changes nothing.
func Run(ctx context.Context, db *gorm.DB, now time.Time) (*Result, error) {
	res := &Result{}
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := seedDemoUsers(tx, res); err != nil {
			return err
		}
		cats, err := seedCategories(tx, res)
		if err != nil {
			return err
		}
		ings, err := seedIngredients(tx, res)
		if err != nil {
			return err
		}
		if err := seedMenu(tx, res, cats, ings); err != nil {
			return err
		}
		if err := seedSets(tx, res); err != nil {
			return err
		}
		return seedVouchers(tx, res, now)
	})
	if err != nil {
		return nil, fmt.Errorf("seed: %w", err)
	}
	return res, nil
}

func seedDemoUsers(tx *gorm.DB, res *Result) error {
	for _, role := range models.Roles {
		username := "demo_" + string(role)
		var user models.User
		err := tx.Where(models.User{Username: username}).
			Attrs(models.User{
				Email:     username + "@example.com",
				FirstName: strings.ToUpper(string(role[:1])) + string(role[1:]),
				LastName:  "Demo",
			}).
			FirstOrCreate(&user).Error
		if err != nil {
			return fmt.Errorf("demo user %s: %w", username, err)
		}

		var n int64
		if err := tx.Model(&models.Profile{}).Where("user_id = ?", user.ID).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			continue
		}
		if err := tx.Create(&models.Profile{UserID: user.ID, Role: role}).Error; err != nil {
			return fmt.Errorf("demo profile %s: %w", username, err)
		}
		res.created("profile for %s (%s)", username, role)
	}
	return nil
}

// firstNamed loads the row with the given name into dest, falling back
// to the first row of the table.
func firstNamed(tx *gorm.DB, name string, dest any) error {
	q := tx.Where("LOWER(name) = LOWER(?)", name).Order("id").Limit(1).Find(dest)
	if q.Error != nil {
		return q.Error
	}
	if q.RowsAffected == 0 {
		return tx.Order("id").Limit(1).Find(dest).Error
	}
	return nil
}

type categories struct{ popular, food, drinks *models.MenuCategory }

func seedCategories(tx *gorm.DB, res *Result) (*categories, error) {
	var n int64
	if err := tx.Model(&models.MenuCategory{}).Count(&n).Error; err != nil {
		return nil, err
	}
	if n == 0 {
		c := &categories{
			popular: &models.MenuCategory{Name: "Popular"},
			food:    &models.MenuCategory{Name: "Food"},
			drinks:  &models.MenuCategory{Name: "Drinks"},
		}
		if err := tx.Create([]*models.MenuCategory{c.popular, c.food, c.drinks}).Error; err != nil {
			return nil, fmt.Errorf("categories: %w", err)
		}
		res.created("default categories")
		return c, nil
	}

	res.skipped("categories already present")
	c := &categories{popular: &models.MenuCategory{}, food: &models.MenuCategory{}, drinks: &models.MenuCategory{}}
	for name, dest := range map[string]*models.MenuCategory{"Popular": c.popular, "Food": c.food, "Drinks": c.drinks} {
		if err := firstNamed(tx, name, dest); err != nil {
			return nil, err
		}
	}
	return c, nil
}

type ingredients struct{ rice, chicken, tea *models.Ingredient }

func newIngredient(name, unit string, stock, threshold float64) *models.Ingredient {
	ing := models.NewIngredient()
	ing.Name = name
	ing.Unit = unit
	ing.StockQuantity = stock
	ing.LowStockThreshold = threshold
	return ing
}

func seedIngredients(tx *gorm.DB, res *Result) (*ingredients, error) {
	var n int64
	if err := tx.Model(&models.Ingredient{}).Count(&n).Error; err != nil {
		return nil, err
	}
	if n == 0 {
		i := &ingredients{
			rice:    newIngredient("Rice", "kg", 10, 2),
			chicken: newIngredient("Chicken", "kg", 5, 1),
			tea:     newIngredient("Tea", "L", 8, 2),
		}
		if err := tx.Create([]*models.Ingredient{i.rice, i.chicken, i.tea}).Error; err != nil {
			return nil, fmt.Errorf("ingredients: %w", err)
		}
		res.created("sample ingredients")
		return i, nil
	}

	res.skipped("ingredients already present")
	i := &ingredients{rice: &models.Ingredient{}, chicken: &models.Ingredient{}, tea: &models.Ingredient{}}
	for name, dest := range map[string]*models.Ingredient{"Rice": i.rice, "Chicken": i.chicken, "Tea": i.tea} {
		if err := firstNamed(tx, name, dest); err != nil {
			return nil, err
		}
	}
	return i, nil
}

func seedMenu(tx *gorm.DB, res *Result, cats *categories, ings *ingredients) error {
	var n int64
	if err := tx.Model(&models.MenuItem{}).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		res.skipped("menu items already present")
		return nil
	}

	krapao := models.NewMenuItem()
	krapao.Name = "Basil Chicken Rice"
	krapao.CategoryID = &cats.food.ID
	krapao.Price = decimal.RequireFromString("65.00")
	krapao.Description = "Spicy basil chicken with rice"
	krapao.Featured = true

	milkTea := models.NewMenuItem()
	milkTea.Name = "Milk Tea"
	milkTea.CategoryID = &cats.drinks.ID
	milkTea.Price = decimal.RequireFromString("35.00")
	milkTea.Description = "Sweet milk tea"
	milkTea.Featured = true

	if err := tx.Create([]*models.MenuItem{krapao, milkTea}).Error; err != nil {
		return fmt.Errorf("menu items: %w", err)
	}

	usages := []*models.IngredientUsage{
		{MenuItemID: krapao.ID, IngredientID: ings.rice.ID, QuantityPerUnit: 0.2},
		{MenuItemID: krapao.ID, IngredientID: ings.chicken.ID, QuantityPerUnit: 0.25},
		{MenuItemID: milkTea.ID, IngredientID: ings.tea.ID, QuantityPerUnit: 0.3},
	}
	if err := tx.Create(usages).Error; err != nil {
		return fmt.Errorf("ingredient usages: %w", err)
	}
	res.created("sample menu items with ingredient usage")
	return nil
}

func seedSets(tx *gorm.DB, res *Result) error {
	var n int64
	if err := tx.Model(&models.FoodSet{}).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		res.skipped("food sets already present")
		return nil
	}

	lunch := models.NewFoodSet()
	lunch.Name = "Lunch Set"
	lunch.Price = decimal.RequireFromString("89.00")
	if err := tx.Create(lunch).Error; err != nil {
		return fmt.Errorf("food set: %w", err)
	}

	var first models.MenuItem
	if err := tx.Order("id").Limit(1).Find(&first).Error; err != nil {
		return err
	}
	if first.ID != 0 {
		item := models.NewSetItem()
		item.FoodSetID = lunch.ID
		item.MenuItemID = first.ID
		if err := tx.Create(item).Error; err != nil {
			return fmt.Errorf("set item: %w", err)
		}
	}
	res.created("a sample food set")
	return nil
}

func seedVouchers(tx *gorm.DB, res *Result, now time.Time) error {
	var n int64
	if err := tx.Model(&models.Voucher{}).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		res.skipped("vouchers already present")
		return nil
	}

	v := models.NewVoucher()
	v.Code = "WELCOME10"
	v.DiscountType = models.DiscountPercent
	v.Amount = decimal.NewFromInt(10)
	v.MinSpend = decimal.RequireFromString("100.00")
	v.MaxDiscount = decimal.RequireFromString("50.00")
	v.StartAt = &now
	if err := tx.Create(v).Error; err != nil {
		return fmt.Errorf("voucher: %w", err)
	}
	res.created("sample voucher WELCOME10")
	return nil
}

// EnsureAdmin creates or repairs the configured admin account: superuser
// flag set, password reset to the configured one, profile role admin.
func EnsureAdmin(ctx context.Context, db *gorm.DB, cfg *config.Config) (*models.User, error) {
	var user models.User
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("LOWER(username) = LOWER(?)", cfg.AdminUsername).Limit(1).Find(&user).Error
		if err != nil {
			return err
		}
		if user.ID == 0 {
			user = models.User{
				Username:  cfg.AdminUsername,
				Email:     cfg.AdminEmail,
				FirstName: "Admin",
				LastName:  "User",
			}
		}
		user.IsSuperuser = true
		user.Password = cfg.AdminPassword
		if err := tx.Save(&user).Error; err != nil {
			return err
		}

		return tx.Where(models.Profile{UserID: user.ID}).
			Assign(models.Profile{Role: models.RoleAdmin}).
			FirstOrCreate(&models.Profile{}).Error
	})
	if err != nil {
		return nil, fmt.Errorf("ensure admin: %w", err)
	}
	return &user, nil
}
