package models

import "time"

// UsageRecord - счетчики потребления лимитов плана одним пользователем.
// Запись создается лениво при первой мутации; чтение отсутствующей записи
// возвращает нулевые счетчики без записи в БД.
type UsageRecord struct {
	BaseModel
	UserID                string    `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	StudiesCreated        int       `gorm:"default:0" json:"studies_created"`
	ParticipantsRecruited int       `gorm:"default:0" json:"participants_recruited"`
	RecordingMinutesUsed  int       `gorm:"default:0" json:"recording_minutes_used"`
	DataExports           int       `gorm:"default:0" json:"data_exports"`
	LastResetDate         time.Time `gorm:"default:now()" json:"last_reset_date"`
}

func (UsageRecord) TableName() string {
	return "usage_records"
}
