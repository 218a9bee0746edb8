package models

// All lists every persisted model in dependency order for migrations.
func All() []any {
	return []any{
		&User{},
		&Profile{},
		&Address{},
		&Ingredient{},
		&MenuCategory{},
		&MenuItem{},
		&IngredientUsage{},
		&FoodSet{},
		&SetItem{},
		&Voucher{},
		&Order{},
		&OrderItem{},
		&Payment{},
		&RiderAssignment{},
		&InventoryTransaction{},
		&AuditLog{},
	}
}
