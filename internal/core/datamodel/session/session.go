package session

import "time"

type Session struct {
	ID        string    `gorm:"primaryKey;size:36"`
	Data      []byte    `gorm:"column:datos;not null"`
	Permanent bool      `gorm:"column:permanente;not null;default:false"`
	ExpiresAt time.Time `gorm:"column:expira_en;not null;index"`
	CreatedAt time.Time `gorm:"column:creado_en;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:actualizado_en;autoUpdateTime"`
}

func (Session) TableName() string { return "sesiones" }
