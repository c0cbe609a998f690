package chat

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/grovli/grovli-backend/internal/domain"
	"github.com/grovli/grovli-backend/internal/pkg/dbctx"
	"github.com/grovli/grovli-backend/internal/pkg/logger"
)

type SessionRepo interface {
	Create(dbc dbctx.Context, row *types.ChatSession) error
	GetByID(dbc dbctx.Context, id string) (*types.ChatSession, error)
	UpdateFields(dbc dbctx.Context, id string, updates map[string]interface{}) error

	// AppendNotification appends the ready message, flags the plan in
	// notified_for and flips plan_ready/plan_processing in one UPDATE, so a
	// crash can not leave the message without the flag.
	AppendNotification(dbc dbctx.Context, id, planID string, msg types.ChatMessage) error
}

type sessionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSessionRepo(db *gorm.DB, baseLog *logger.Logger) SessionRepo {
	return &sessionRepo{db: db, log: baseLog.With("repo", "ChatSessionRepo")}
}

func (r *sessionRepo) Create(dbc dbctx.Context, row *types.ChatSession) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if row == nil {
		return nil
	}
	return t.WithContext(dbc.Ctx).Create(row).Error
}

func (r *sessionRepo) GetByID(dbc dbctx.Context, id string) (*types.ChatSession, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if strings.TrimSpace(id) == "" {
		return nil, nil
	}
	var out []*types.ChatSession
	if err := t.WithContext(dbc.Ctx).Where("id = ?", id).Limit(1).Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *sessionRepo) UpdateFields(dbc dbctx.Context, id string, updates map[string]interface{}) error {
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
		Model(&types.ChatSession{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *sessionRepo) AppendNotification(dbc dbctx.Context, id, planID string, msg types.ChatMessage) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if strings.TrimSpace(id) == "" || strings.TrimSpace(planID) == "" {
		return fmt.Errorf("session id and plan id required")
	}

	row, err := r.GetByID(dbc, id)
	if err != nil {
		return err
	}
	if row == nil {
		return gorm.ErrRecordNotFound
	}

	var messages []types.ChatMessage
	if len(row.Messages) > 0 {
		if err := json.Unmarshal(row.Messages, &messages); err != nil {
			r.log.Warn("Dropping unreadable message log", "session_id", id, "error", err)
			messages = nil
		}
	}
	messages = append(messages, msg)
	rawMessages, err := json.Marshal(messages)
	if err != nil {
		return err
	}

	notified := row.NotifiedFor
	if notified == nil {
		notified = datatypes.JSONMap{}
	}
	notified[planID] = true

	return t.WithContext(dbc.Ctx).
		Model(&types.ChatSession{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"messages":        datatypes.JSON(rawMessages),
			"notified_for":    notified,
			"plan_id":         planID,
			"plan_ready":      true,
			"plan_processing": false,
			"updated_at":      time.Now().UTC(),
		}).Error
}
