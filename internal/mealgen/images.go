package mealgen

import (
	"bytes"
	"context"
	"fmt"

	"github.com/grovli/grovli-backend/internal/cache"
	"github.com/grovli/grovli-backend/internal/clients/gcp"
	"github.com/grovli/grovli-backend/internal/clients/openai"
	mealsrepo "github.com/grovli/grovli-backend/internal/data/repos/meals"
	types "github.com/grovli/grovli-backend/internal/domain"
	"github.com/grovli/grovli-backend/internal/pkg/dbctx"
	"github.com/grovli/grovli-backend/internal/pkg/logger"
)

// FallbackImageURL is served whenever image generation or upload fails.
// A plan is never blocked on imagery.
const FallbackImageURL = "/fallback-meal-image.jpg"

// ImageSummary totals one image pass over a plan.
type ImageSummary struct {
	Uploaded int `json:"uploaded"`
	Existing int `json:"existing"`
	Fallback int `json:"fallback"`
}

// AssetService attaches an image URL to every meal of a plan. EnsureImage
// never returns an error for generation failures: the contract is that a
// meal always ends up with some usable URL.
type AssetService interface {
	EnsureImage(ctx context.Context, meal *types.Meal) (string, error)
	EnsureImagesForPlan(ctx context.Context, planID string) (ImageSummary, error)
}

type assetService struct {
	log    *logger.Logger
	ai     openai.Client
	bucket gcp.BucketService
	cache  cache.MealCache
	meals  mealsrepo.MealRepo
}

func NewAssetService(ai openai.Client, bucket gcp.BucketService, mc cache.MealCache, meals mealsrepo.MealRepo, log *logger.Logger) (AssetService, error) {
	if ai == nil || bucket == nil || mc == nil || meals == nil {
		return nil, fmt.Errorf("asset service missing deps")
	}
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &assetService{
		log:    log.With("service", "MealAssetService"),
		ai:     ai,
		bucket: bucket,
		cache:  mc,
		meals:  meals,
	}, nil
}

func (s *assetService) EnsureImage(ctx context.Context, meal *types.Meal) (string, error) {
	if meal == nil {
		return FallbackImageURL, fmt.Errorf("meal required")
	}
	if meal.ImageURL != "" {
		return meal.ImageURL, nil
	}

	// The caller's struct may be stale; the durable row decides whether an
	// image already exists.
	cur, err := s.meals.GetByID(dbctx.Context{Ctx: ctx}, meal.ID)
	if err != nil {
		return "", err
	}
	if cur != nil && cur.ImageURL != "" {
		meal.ImageURL = cur.ImageURL
		return cur.ImageURL, nil
	}

	url := s.generateAndUpload(ctx, meal)
	if err := s.meals.UpdateFields(dbctx.Context{Ctx: ctx}, meal.ID, map[string]interface{}{"image_url": url}); err != nil {
		return url, err
	}
	meal.ImageURL = url
	if err := s.cache.InvalidateMeal(ctx, meal); err != nil {
		s.log.Warn("Cache invalidation after image write failed", "meal_id", meal.ID, "error", err)
	}
	return url, nil
}

func (s *assetService) EnsureImagesForPlan(ctx context.Context, planID string) (ImageSummary, error) {
	var sum ImageSummary
	rows, err := s.meals.GetByPlanID(dbctx.Context{Ctx: ctx}, planID)
	if err != nil {
		return sum, err
	}
	for _, m := range rows {
		if ctx.Err() != nil {
			return sum, ctx.Err()
		}
		if m.ImageURL != "" {
			sum.Existing++
			continue
		}
		url, err := s.EnsureImage(ctx, m)
		if err != nil {
			return sum, err
		}
		if url == FallbackImageURL {
			sum.Fallback++
		} else {
			sum.Uploaded++
		}
	}
	return sum, nil
}

// generateAndUpload resolves to the public URL of a freshly uploaded image,
// or the fallback URL on any failure.
func (s *assetService) generateAndUpload(ctx context.Context, meal *types.Meal) string {
	img, err := s.ai.GenerateImage(ctx, buildImagePrompt(meal.Name))
	if err != nil {
		s.log.Warn("image fallback", "meal_id", meal.ID, "stage", "generate", "error", err)
		return FallbackImageURL
	}

	key := fmt.Sprintf("meal_images/%s.png", meal.ID)
	if err := s.bucket.UploadFile(ctx, key, bytes.NewReader(img.Bytes)); err != nil {
		s.log.Warn("image fallback", "meal_id", meal.ID, "stage", "upload", "error", err)
		return FallbackImageURL
	}
	return s.bucket.GetPublicURL(key)
}
