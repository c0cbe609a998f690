package domain

import (
	"time"

	"gorm.io/datatypes"
)

// ChatSession is the conversational record a plan notification lands in.
// NotifiedFor maps plan_id -> true once the ready message for that plan has
// been appended; it is the durable layer of the notification dedup.
type ChatSession struct {
	ID     string `gorm:"primaryKey" json:"session_id"`
	UserID string `gorm:"column:user_id;index" json:"user_id"`

	PlanID         string `gorm:"column:plan_id;index" json:"plan_id"`
	PlanReady      bool   `gorm:"column:plan_ready;not null;default:false" json:"plan_ready"`
	PlanProcessing bool   `gorm:"column:plan_processing;not null;default:false" json:"plan_processing"`
	ExpectedMeals  int    `gorm:"column:expected_meals;not null;default:0" json:"expected_meals"`

	Messages    datatypes.JSON    `gorm:"column:messages;type:jsonb" json:"messages"`
	NotifiedFor datatypes.JSONMap `gorm:"column:notified_for;type:jsonb" json:"notified_for"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (ChatSession) TableName() string { return "chat_session" }

// Notified reports whether the ready message for planID has already been
// appended to this session. JSONB round-trips may widen the stored value,
// so anything non-false counts as notified.
func (s *ChatSession) Notified(planID string) bool {
	if s == nil || s.NotifiedFor == nil {
		return false
	}
	v, ok := s.NotifiedFor[planID]
	if !ok {
		return false
	}
	b, isBool := v.(bool)
	return !isBool || b
}

// ChatMessage is the JSON shape stored in ChatSession.Messages.
type ChatMessage struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}
