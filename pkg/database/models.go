package database

import (
	"time"

	"gorm.io/gorm"
)

// Session represents one acquisition run against a radio
type Session struct {
	ID             uint      `gorm:"primarykey" json:"id"`
	Port           string    `gorm:"size:64" json:"port"`
	BlocksRead     int       `gorm:"not null" json:"blocks_read"`
	BlocksFailed   int       `gorm:"default:0" json:"blocks_failed"`
	BytesCaptured  int64     `gorm:"not null" json:"bytes_captured"`
	BytesDiscarded int64     `gorm:"default:0" json:"bytes_discarded"`
	HighWater      uint32    `json:"high_water"`
	ChannelCount   int       `json:"channel_count"`
	ZoneCount      int       `json:"zone_count"`
	ImagePath      string    `gorm:"size:255" json:"image_path"`
	StartTime      time.Time `gorm:"index;not null" json:"start_time"`
	EndTime        time.Time `json:"end_time"`
	CreatedAt      time.Time `json:"created_at"`
}

// TableName specifies the table name for Session
func (Session) TableName() string {
	return "sessions"
}

// BeforeCreate hook to ensure timestamps are set
func (s *Session) BeforeCreate(tx *gorm.DB) error {
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}
	if s.StartTime.IsZero() {
		s.StartTime = time.Now()
	}
	return nil
}

// ChannelRecord is one decoded channel as seen in one session. The raw
// parameter blob is stored hex-encoded so captures can be diffed
// byte-for-byte later.
type ChannelRecord struct {
	ID        uint    `gorm:"primarykey" json:"id"`
	SessionID uint    `gorm:"index;not null" json:"session_id"`
	SlotIndex int     `gorm:"not null" json:"slot_index"`
	Offset    uint32  `gorm:"index;not null" json:"offset"`
	SigOffset uint32  `json:"sig_offset"`
	Name      string  `gorm:"index;size:32" json:"name"`
	RXMHz     float64 `json:"rx_mhz"`
	TXMHz     float64 `json:"tx_mhz"`
	PowerHigh bool    `json:"power_high"`
	Timeslot  int     `json:"timeslot"`
	ColorCode int     `json:"color_code"`
	Monitor   bool    `json:"monitor"`
	Digital   bool    `json:"digital"`
	ParamsHex string  `gorm:"size:32" json:"params_hex"`
}

// TableName specifies the table name for ChannelRecord
func (ChannelRecord) TableName() string {
	return "channel_records"
}

// ZoneRecord is one discovered zone label in one session
type ZoneRecord struct {
	ID        uint   `gorm:"primarykey" json:"id"`
	SessionID uint   `gorm:"index;not null" json:"session_id"`
	Offset    uint32 `json:"offset"`
	Name      string `gorm:"index;size:32" json:"name"`
}

// TableName specifies the table name for ZoneRecord
func (ZoneRecord) TableName() string {
	return "zone_records"
}
