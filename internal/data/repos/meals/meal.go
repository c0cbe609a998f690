package meals

import (
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/grovli/grovli-backend/internal/domain"
	"github.com/grovli/grovli-backend/internal/pkg/dbctx"
	"github.com/grovli/grovli-backend/internal/pkg/logger"
)

type MealRepo interface {
	Upsert(dbc dbctx.Context, row *types.Meal) error

	GetByID(dbc dbctx.Context, id string) (*types.Meal, error)
	GetBySlot(dbc dbctx.Context, fingerprint, mealType string, slot int) (*types.Meal, error)
	GetByNameFingerprint(dbc dbctx.Context, name, fingerprint string) (*types.Meal, error)
	GetByPlanID(dbc dbctx.Context, planID string) ([]*types.Meal, error)
	GetByFingerprint(dbc dbctx.Context, fingerprint string) ([]*types.Meal, error)

	CountByPlanID(dbc dbctx.Context, planID string) (int64, error)
	CountPendingImages(dbc dbctx.Context, planID string) (int64, error)

	UpdateFields(dbc dbctx.Context, id string, updates map[string]interface{}) error
}

type mealRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMealRepo(db *gorm.DB, baseLog *logger.Logger) MealRepo {
	return &mealRepo{db: db, log: baseLog.With("repo", "MealRepo")}
}

func (r *mealRepo) Upsert(dbc dbctx.Context, row *types.Meal) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if row == nil {
		return nil
	}
	return t.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"plan_id", "description", "calories", "protein_g", "carbs_g",
				"fat_g", "sugar_g", "fiber_g", "ingredients", "instructions",
				"image_url", "updated_at",
			}),
		}).
		Create(row).Error
}

func (r *mealRepo) GetByID(dbc dbctx.Context, id string) (*types.Meal, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if strings.TrimSpace(id) == "" {
		return nil, nil
	}
	var out []*types.Meal
	if err := t.WithContext(dbc.Ctx).Where("id = ?", id).Limit(1).Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *mealRepo) GetBySlot(dbc dbctx.Context, fingerprint, mealType string, slot int) (*types.Meal, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if fingerprint == "" || mealType == "" {
		return nil, nil
	}
	var out []*types.Meal
	if err := t.WithContext(dbc.Ctx).
		Where("fingerprint = ? AND meal_type = ? AND slot_index = ?", fingerprint, mealType, slot).
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *mealRepo) GetByNameFingerprint(dbc dbctx.Context, name, fingerprint string) (*types.Meal, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if strings.TrimSpace(name) == "" || fingerprint == "" {
		return nil, nil
	}
	var out []*types.Meal
	if err := t.WithContext(dbc.Ctx).
		Where("name = ? AND fingerprint = ?", name, fingerprint).
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *mealRepo) GetByPlanID(dbc dbctx.Context, planID string) ([]*types.Meal, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.Meal
	if strings.TrimSpace(planID) == "" {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("plan_id = ?", planID).
		Order("slot_index ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *mealRepo) GetByFingerprint(dbc dbctx.Context, fingerprint string) ([]*types.Meal, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.Meal
	if strings.TrimSpace(fingerprint) == "" {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("fingerprint = ?", fingerprint).
		Order("slot_index ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *mealRepo) CountByPlanID(dbc dbctx.Context, planID string) (int64, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if strings.TrimSpace(planID) == "" {
		return 0, nil
	}
	var n int64
	if err := t.WithContext(dbc.Ctx).
		Model(&types.Meal{}).
		Where("plan_id = ?", planID).
		Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (r *mealRepo) CountPendingImages(dbc dbctx.Context, planID string) (int64, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if strings.TrimSpace(planID) == "" {
		return 0, nil
	}
	var n int64
	if err := t.WithContext(dbc.Ctx).
		Model(&types.Meal{}).
		Where("plan_id = ? AND (image_url IS NULL OR image_url = '')", planID).
		Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (r *mealRepo) UpdateFields(dbc dbctx.Context, id string, updates map[string]interface{}) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if strings.TrimSpace(id) == "" {
		return nil
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now().UTC()
	}
	return t.WithContext(dbc.Ctx).
		Model(&types.Meal{}).
		Where("id = ?", id).
		Updates(updates).Error
}
