package access

import "time"

const (
	TypeLogin   = "login"
	TypeLogout  = "logout"
	TypeEntrada = "entrada"
	TypeSalida  = "salida"
)

const VisitorStatusActive = "activo"

const (
	LevelLow    = "bajo"
	LevelMedium = "medio"
	LevelHigh   = "alto"
)

// Entry is one append-only row of the access log.
type Entry struct {
	ID         int64     `gorm:"primaryKey" db:"id"`
	UserID     *int64    `gorm:"column:usuario_id" db:"usuario_id"`
	VisitorID  *int64    `gorm:"column:visitante_id" db:"visitante_id"`
	Type       string    `gorm:"column:tipo;not null" db:"tipo"`
	Authorized bool      `gorm:"column:autorizado;not null" db:"autorizado"`
	Timestamp  time.Time `gorm:"column:fecha_hora;not null" db:"fecha_hora"`
}

func (Entry) TableName() string { return "accesos" }

type Visitor struct {
	ID       int64  `gorm:"primaryKey" db:"id"`
	Name     string `gorm:"column:nombre;not null" db:"nombre"`
	Document string `gorm:"column:documento" db:"documento"`
	Status   string `gorm:"column:estado;not null;default:activo" db:"estado"`
}

func (Visitor) TableName() string { return "visitantes" }

type Alert struct {
	ID          int64     `gorm:"primaryKey" db:"id"`
	Level       string    `gorm:"column:nivel;not null" db:"nivel"`
	Description string    `gorm:"column:descripcion" db:"descripcion"`
	Date        time.Time `gorm:"column:fecha;not null" db:"fecha"`
}

func (Alert) TableName() string { return "alertas" }
