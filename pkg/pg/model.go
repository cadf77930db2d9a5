package pg

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Model is the base for every persisted aggregate. IDs are generated
// application-side so the same entities work against sqlite in tests.
// DeletedAt is a plain timestamp on purpose: soft-delete filtering is an
// explicit predicate (see Active), never an implicit callback.
type Model struct {
	ID        uuid.UUID  `json:"id"         gorm:"primaryKey;type:uuid;column:id"`
	CreatedAt time.Time  `json:"created_at" gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `json:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt *time.Time `json:"deleted_at,omitempty" gorm:"column:deleted_at;index"`
}

func (m *Model) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
