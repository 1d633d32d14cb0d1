package database

import (
	"encoding/hex"

	"gorm.io/gorm"

	"github.com/emuehlstein/dmrconfig-dm32/pkg/codeplug"
)

// SessionRepository handles session database operations
type SessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create adds a new session record
func (r *SessionRepository) Create(s *Session) error {
	return r.db.Create(s).Error
}

// Update persists changes to an existing session
func (r *SessionRepository) Update(s *Session) error {
	return r.db.Save(s).Error
}

// GetRecent retrieves the most recent N sessions
func (r *SessionRepository) GetRecent(limit int) ([]Session, error) {
	var sessions []Session
	err := r.db.Order("start_time DESC").Limit(limit).Find(&sessions).Error
	return sessions, err
}

// ChannelRepository handles decoded channel database operations
type ChannelRepository struct {
	db *gorm.DB
}

// NewChannelRepository creates a new channel repository
func NewChannelRepository(db *gorm.DB) *ChannelRepository {
	return &ChannelRepository{db: db}
}

// RecordChannels stores every decoded channel of a session
func (r *ChannelRepository) RecordChannels(sessionID uint, chans []codeplug.Channel) error {
	if len(chans) == 0 {
		return nil
	}
	records := make([]ChannelRecord, 0, len(chans))
	for _, ch := range chans {
		records = append(records, ChannelRecord{
			SessionID: sessionID,
			SlotIndex: ch.Index,
			Offset:    ch.Offset,
			SigOffset: ch.SigOffset,
			Name:      ch.Name,
			RXMHz:     ch.RXMHz,
			TXMHz:     ch.TXMHz,
			PowerHigh: ch.PowerHigh,
			Timeslot:  ch.Timeslot,
			ColorCode: ch.ColorCode,
			Monitor:   ch.Monitor,
			Digital:   ch.Digital,
			ParamsHex: hex.EncodeToString(ch.RawParams[:]),
		})
	}
	return r.db.Create(&records).Error
}

// RecordZones stores every discovered zone of a session
func (r *ChannelRepository) RecordZones(sessionID uint, zones []codeplug.Zone) error {
	if len(zones) == 0 {
		return nil
	}
	records := make([]ZoneRecord, 0, len(zones))
	for _, z := range zones {
		records = append(records, ZoneRecord{
			SessionID: sessionID,
			Offset:    z.Offset,
			Name:      z.Name,
		})
	}
	return r.db.Create(&records).Error
}

// GetBySession retrieves the channels decoded in one session
func (r *ChannelRepository) GetBySession(sessionID uint) ([]ChannelRecord, error) {
	var records []ChannelRecord
	err := r.db.Where("session_id = ?", sessionID).
		Order("slot_index ASC").
		Find(&records).Error
	return records, err
}

// GetByName retrieves every sighting of a channel name across sessions,
// newest session first. The raw parameter blobs of these rows are what
// gets diffed when chasing an unknown field.
func (r *ChannelRepository) GetByName(name string) ([]ChannelRecord, error) {
	var records []ChannelRecord
	err := r.db.Where("name = ?", name).
		Order("session_id DESC").
		Find(&records).Error
	return records, err
}
