package database

import (
	"path/filepath"
	"testing"

	"github.com/emuehlstein/dmrconfig-dm32/pkg/codeplug"
	"github.com/emuehlstein/dmrconfig-dm32/pkg/logger"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	log := logger.New(logger.Config{Level: "error"})
	cfg := Config{Path: filepath.Join(t.TempDir(), "captures.db")}
	db, err := NewDB(cfg, log)
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestNewDB(t *testing.T) {
	db := testDB(t)
	if db.db == nil {
		t.Error("Expected non-nil database connection")
	}
}

func TestSessionRepository_CreateAndUpdate(t *testing.T) {
	db := testDB(t)
	repo := NewSessionRepository(db.GetDB())

	s := &Session{Port: "/dev/ttyUSB0"}
	if err := repo.Create(s); err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}
	if s.ID == 0 {
		t.Fatal("session ID not assigned")
	}
	if s.StartTime.IsZero() || s.CreatedAt.IsZero() {
		t.Error("BeforeCreate should backfill timestamps")
	}

	s.BlocksRead = 6
	s.BytesCaptured = 0x9000
	s.ChannelCount = 12
	if err := repo.Update(s); err != nil {
		t.Fatalf("Failed to update session: %v", err)
	}

	recent, err := repo.GetRecent(10)
	if err != nil {
		t.Fatalf("GetRecent failed: %v", err)
	}
	if len(recent) != 1 || recent[0].BlocksRead != 6 {
		t.Errorf("unexpected sessions: %+v", recent)
	}
}

func TestChannelRepository_RecordAndQuery(t *testing.T) {
	db := testDB(t)
	sessions := NewSessionRepository(db.GetDB())
	channels := NewChannelRepository(db.GetDB())

	s := &Session{Port: "/dev/ttyUSB0"}
	if err := sessions.Create(s); err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}

	chans := []codeplug.Channel{
		{
			Index: 1, Offset: 0x00601C, SigOffset: 0x006028,
			Name: "Calling 1", RXMHz: 443.58750, TXMHz: 448.58750,
			PowerHigh: true, Timeslot: 1, ColorCode: 1, Digital: true,
			RawParams: [16]byte{0x14, 0x00, 0x00, 0x00, 0x30, 0x01},
		},
		{
			Index: 3, Offset: 0x00607C,
			Name: "Local 2", RXMHz: 145.31250, TXMHz: 145.31250,
			Timeslot: 2, ColorCode: 3,
		},
	}
	if err := channels.RecordChannels(s.ID, chans); err != nil {
		t.Fatalf("RecordChannels failed: %v", err)
	}

	got, err := channels.GetBySession(s.ID)
	if err != nil {
		t.Fatalf("GetBySession failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d records, want 2", len(got))
	}
	if got[0].Name != "Calling 1" || got[1].Name != "Local 2" {
		t.Errorf("slot order wrong: %q, %q", got[0].Name, got[1].Name)
	}
	if got[0].ParamsHex != "14000000300100000000000000000000" {
		t.Errorf("ParamsHex = %q", got[0].ParamsHex)
	}

	byName, err := channels.GetByName("Calling 1")
	if err != nil {
		t.Fatalf("GetByName failed: %v", err)
	}
	if len(byName) != 1 || byName[0].RXMHz != 443.58750 {
		t.Errorf("unexpected records: %+v", byName)
	}
}

func TestChannelRepository_RecordZones(t *testing.T) {
	db := testDB(t)
	sessions := NewSessionRepository(db.GetDB())
	channels := NewChannelRepository(db.GetDB())

	s := &Session{}
	if err := sessions.Create(s); err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}

	zones := []codeplug.Zone{
		{Offset: 0x0100, Name: "Richmond"},
		{Offset: 0x0120, Name: "Goochland"},
	}
	if err := channels.RecordZones(s.ID, zones); err != nil {
		t.Fatalf("RecordZones failed: %v", err)
	}

	// Empty input is a no-op, not an error.
	if err := channels.RecordZones(s.ID, nil); err != nil {
		t.Errorf("RecordZones(nil) = %v", err)
	}
}
