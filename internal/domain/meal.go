package domain

import (
	"time"

	"gorm.io/datatypes"
)

// Meal is the durable record for a single generated meal. The ID is a
// deterministic hash of (name, fingerprint, slot index), so retried
// generation converges on the same row.
type Meal struct {
	ID          string `gorm:"primaryKey" json:"id"`
	PlanID      string `gorm:"column:plan_id;not null;index" json:"plan_id"`
	Fingerprint string `gorm:"column:fingerprint;not null;index:idx_meal_slot;uniqueIndex:idx_meal_name_fp" json:"fingerprint"`
	MealType    string `gorm:"column:meal_type;not null;index:idx_meal_slot" json:"meal_type"`
	SlotIndex   int    `gorm:"column:slot_index;not null;index:idx_meal_slot" json:"slot_index"`

	Name         string         `gorm:"column:name;not null;uniqueIndex:idx_meal_name_fp" json:"name"`
	Description  string         `gorm:"column:description" json:"description"`
	Calories     float64        `gorm:"column:calories" json:"calories"`
	ProteinG     float64        `gorm:"column:protein_g" json:"protein"`
	CarbsG       float64        `gorm:"column:carbs_g" json:"carbs"`
	FatG         float64        `gorm:"column:fat_g" json:"fat"`
	SugarG       float64        `gorm:"column:sugar_g" json:"sugar"`
	FiberG       float64        `gorm:"column:fiber_g" json:"fiber"`
	Ingredients  datatypes.JSON `gorm:"column:ingredients;type:jsonb" json:"ingredients"`
	Instructions string         `gorm:"column:instructions" json:"instructions"`
	ImageURL     string         `gorm:"column:image_url" json:"image_url"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Meal) TableName() string { return "meal" }

// Ingredient is the JSON shape stored in Meal.Ingredients.
type Ingredient struct {
	Name     string  `json:"name"`
	Quantity string  `json:"quantity"`
	Grams    float64 `json:"grams"`
}
