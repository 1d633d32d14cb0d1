package radio

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/emuehlstein/dmrconfig-dm32/pkg/blockmap"
	"github.com/emuehlstein/dmrconfig-dm32/pkg/codeplug"
	"github.com/emuehlstein/dmrconfig-dm32/pkg/config"
	"github.com/emuehlstein/dmrconfig-dm32/pkg/database"
	"github.com/emuehlstein/dmrconfig-dm32/pkg/export"
	"github.com/emuehlstein/dmrconfig-dm32/pkg/logger"
	"github.com/emuehlstein/dmrconfig-dm32/pkg/memory"
	"github.com/emuehlstein/dmrconfig-dm32/pkg/metrics"
	"github.com/emuehlstein/dmrconfig-dm32/pkg/protocol"
	"github.com/emuehlstein/dmrconfig-dm32/pkg/transfer"
	"github.com/emuehlstein/dmrconfig-dm32/pkg/transport"
)

func init() {
	Register("dm32", func(cfg *config.Config, port transport.Port, log *logger.Logger) (Device, error) {
		return NewDM32(cfg, port, log)
	})
}

// DM32 drives the Baofeng DM-32 over its CPS serial protocol. Strictly
// read-only: the driver knows the 0x52 read opcode and nothing that
// mutates device state.
type DM32 struct {
	cfg    *config.Config
	log    *logger.Logger
	port   transport.Port
	img    *memory.Image
	client *transfer.Client
	dec    *codeplug.Decoder
	blocks *blockmap.Map
	stats  *metrics.Collector

	chans []codeplug.Channel
	zones []codeplug.Zone

	// sleep is swapped out in tests to keep the handshake fast.
	sleep func(time.Duration)
}

// NewDM32 creates a DM-32 driver over an open port.
func NewDM32(cfg *config.Config, port transport.Port, log *logger.Logger) (*DM32, error) {
	blocks, err := blockmap.Load(cfg.Codeplug.BlockMap, uint32(cfg.Transfer.MemoryBound))
	if err != nil {
		return nil, fmt.Errorf("failed to load block map: %w", err)
	}

	img := memory.NewImage(uint32(cfg.Transfer.MemoryBound))
	stats := metrics.NewCollector()

	client := transfer.NewClient(port, img, transfer.Config{
		ByteTimeout:    time.Duration(cfg.Serial.ByteTimeoutMs) * time.Millisecond,
		HeaderTimeout:  time.Duration(cfg.Serial.HeaderTimeoutMs) * time.Millisecond,
		TrailerTimeout: time.Duration(cfg.Serial.TrailerTimeoutMs) * time.Millisecond,
		PayloadTimeout: time.Duration(cfg.Serial.PayloadTimeoutMs) * time.Millisecond,
		Backoff:        time.Duration(cfg.Transfer.BackoffMs) * time.Millisecond,
		ResyncBudget:   cfg.Transfer.ResyncBudget,
		ChunkSize:      cfg.Transfer.ChunkSize,
	}, log)
	client.SetCollector(stats)

	dec := codeplug.NewDecoder(log)
	dec.Base = uint32(cfg.Codeplug.ChannelBase)
	dec.Stride = uint32(cfg.Codeplug.ChannelStride)
	dec.Window = cfg.Codeplug.ChannelWindow
	dec.Locator = codeplug.Locator{
		PadMax:  cfg.Codeplug.LabelPadMax,
		ScanMax: cfg.Codeplug.SigScanMax,
	}
	dec.SetCollector(stats)

	return &DM32{
		cfg:    cfg,
		log:    log.WithComponent("dm32"),
		port:   port,
		img:    img,
		client: client,
		dec:    dec,
		blocks: blocks,
		stats:  stats,
		sleep:  time.Sleep,
	}, nil
}

// Name returns the model name
func (d *DM32) Name() string {
	return "Baofeng DM-32 (experimental)"
}

// Image returns the captured memory image
func (d *DM32) Image() *memory.Image {
	return d.img
}

// Channels returns the channels decoded by the last Download or
// LoadImage.
func (d *DM32) Channels() []codeplug.Channel {
	return d.chans
}

// Zones returns the zones discovered by the last Download or LoadImage.
func (d *DM32) Zones() []codeplug.Zone {
	return d.zones
}

// Stats returns the session counters.
func (d *DM32) Stats() metrics.Stats {
	return d.stats.GetStats()
}

// drain consumes and discards whatever the radio sends over the next
// msec. Handshake responses carry no required semantics; reading them
// keeps the line clean for the block exchange.
func (d *DM32) drain(msec int) {
	buf := make([]byte, 512)
	iters := msec / 50
	if iters < 1 {
		iters = 1
	}
	if err := d.port.SetReadTimeout(50 * time.Millisecond); err != nil {
		return
	}
	total := 0
	for i := 0; i < iters; i++ {
		n, err := d.port.Read(buf)
		if err != nil {
			break
		}
		total += n
	}
	if total > 0 {
		d.log.Debug("Drained handshake bytes", logger.Int("count", total))
	}
}

func (d *DM32) sendASCII(s string) error {
	d.log.Debug("Sending handshake command", logger.String("cmd", s))
	if _, err := d.port.Write([]byte(s)); err != nil {
		return fmt.Errorf("failed to send %q: %w", s, err)
	}
	return nil
}

// handshake replays the CPS session preamble: line pulse, ASCII
// commands, version/info probes, resource fetch, then program mode.
func (d *DM32) handshake() error {
	if err := d.port.PulseLines(); err != nil {
		d.log.Warn("Line pulse failed", logger.Error(err))
	}
	d.sleep(150 * time.Millisecond)

	for _, cmd := range protocol.HandshakeCommands {
		if err := d.sendASCII(cmd); err != nil {
			return err
		}
		d.drain(150)
	}

	// Version/info probes in CPS order. 0x0C was never observed on the
	// wire, so it is skipped here too.
	if _, err := d.port.Write(protocol.VersionProbe(0x40, 0x0D)); err != nil {
		return fmt.Errorf("failed to send version probe: %w", err)
	}
	d.drain(100)
	for i := 1; i <= 16; i++ {
		if i == 12 {
			continue
		}
		if _, err := d.port.Write(protocol.VersionProbe(0x00, byte(i))); err != nil {
			return fmt.Errorf("failed to send info probe %d: %w", i, err)
		}
		d.drain(90)
	}

	if _, err := d.port.Write(protocol.ResourceFetch()); err != nil {
		return fmt.Errorf("failed to send resource fetch: %w", err)
	}
	d.drain(200)

	if _, err := d.port.Write(protocol.ProgramPreamble); err != nil {
		return fmt.Errorf("failed to send program preamble: %w", err)
	}
	d.sleep(30 * time.Millisecond)
	if _, err := d.port.Write(protocol.ProgramStep1); err != nil {
		return fmt.Errorf("failed to send program step: %w", err)
	}
	d.drain(80)
	if _, err := d.port.Write(protocol.ProgramStep2); err != nil {
		return fmt.Errorf("failed to send program step: %w", err)
	}
	d.drain(120)

	return nil
}

// Download runs the full capture: handshake, probe read, then every
// mapped block. Individual block failures are logged and skipped; the
// session keeps whatever it got.
func (d *DM32) Download(ctx context.Context) error {
	start := time.Now()

	if err := d.handshake(); err != nil {
		return err
	}

	// Small probe read the CPS always issues first. Its failure is not
	// fatal; some firmware revisions answer only after it.
	if err := d.client.ReadBlockRetry(0x008027, 4, d.cfg.Transfer.Retries); err != nil {
		d.log.Warn("Probe read failed", logger.Error(err))
	}
	d.drain(50)

	var bar *progressbar.ProgressBar
	if d.cfg.Transfer.Progress {
		bar = progressbar.NewOptions(d.blocks.TotalBytes(),
			progressbar.OptionSetWidth(40),
			progressbar.OptionSetDescription("Reading"),
			progressbar.OptionShowBytes(true),
		)
		d.client.SetProgressFunc(func(n int) { _ = bar.Add(n) })
		defer d.client.SetProgressFunc(nil)
	}

	for i, blk := range d.blocks.Blocks {
		if err := ctx.Err(); err != nil {
			return err
		}
		d.log.Debug("Reading block",
			logger.Int("index", i+1),
			logger.Int("total", len(d.blocks.Blocks)),
			logger.Hex("addr", blk.Address),
			logger.Int("len", int(blk.Length)))
		if err := d.client.ReadBlockRetry(blk.Address, blk.Length, d.cfg.Transfer.Retries); err != nil {
			d.log.Error("Failed to read block",
				logger.Hex("addr", blk.Address),
				logger.Int("len", int(blk.Length)),
				logger.Error(err))
		}
	}
	if bar != nil {
		_ = bar.Finish()
	}

	d.decode()

	stats := d.stats.GetStats()
	d.log.Info("Download complete",
		logger.Uint32("blocks_read", uint32(stats.BlocksRead)),
		logger.Uint32("blocks_failed", uint32(stats.BlocksFailed)),
		logger.Uint32("bytes", uint32(stats.BytesCaptured)),
		logger.Hex("high_water", d.img.HighWater()),
		logger.Int("channels", len(d.chans)),
		logger.Int("zones", len(d.zones)),
		logger.Duration("elapsed", time.Since(start)))

	if d.cfg.Database.Enabled {
		if err := d.archiveSession(start); err != nil {
			d.log.Warn("Failed to archive session", logger.Error(err))
		}
	}

	return nil
}

// Upload is deliberately unimplemented. The write opcode has never been
// captured and a bad guess bricks radios.
func (d *DM32) Upload(ctx context.Context) error {
	return ErrNotSupported
}

// LoadImage decodes a previously saved capture instead of downloading.
func (d *DM32) LoadImage(data []byte) error {
	img, err := memory.FromBytes(data, uint32(d.cfg.Transfer.MemoryBound))
	if err != nil {
		return err
	}
	d.img = img
	d.decode()
	return nil
}

func (d *DM32) decode() {
	d.chans = d.dec.Channels(d.img)
	d.zones = d.dec.Zones(d.img, d.blocks.Blocks)
}

// archiveSession records the capture in the acquisition archive.
func (d *DM32) archiveSession(start time.Time) error {
	db, err := database.NewDB(database.Config{Path: d.cfg.Database.Path}, d.log)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	stats := d.stats.GetStats()
	session := &database.Session{
		Port:           d.cfg.Serial.Port,
		BlocksRead:     int(stats.BlocksRead),
		BlocksFailed:   int(stats.BlocksFailed),
		BytesCaptured:  int64(stats.BytesCaptured),
		BytesDiscarded: int64(stats.BytesDiscarded),
		HighWater:      d.img.HighWater(),
		ChannelCount:   len(d.chans),
		ZoneCount:      len(d.zones),
		StartTime:      start,
		EndTime:        time.Now(),
	}

	sessions := database.NewSessionRepository(db.GetDB())
	if err := sessions.Create(session); err != nil {
		return err
	}
	channels := database.NewChannelRepository(db.GetDB())
	if err := channels.RecordChannels(session.ID, d.chans); err != nil {
		return err
	}
	return channels.RecordZones(session.ID, d.zones)
}

// PrintVersion writes the model banner
func (d *DM32) PrintVersion(w io.Writer) {
	fmt.Fprintf(w, "%s\n", d.Name())
}

// PrintConfig renders the region survey, channel tables, and zone table.
func (d *DM32) PrintConfig(w io.Writer, verbose bool) {
	if !verbose {
		return
	}

	fmt.Fprintf(w, "Radio: %s\n", d.Name())
	export.WriteRegionMap(w, export.Survey(d.img, d.blocks.Blocks))
	if len(d.chans) > 0 {
		export.WriteDigitalTable(w, d.chans)
		export.WriteAnalogTable(w)
	}
	export.WriteZoneTable(w, d.zones, verbose)
}

// SaveImage writes the captured bytes up to the high-water mark. An
// empty capture still writes one byte so the file exists.
func (d *DM32) SaveImage(w io.Writer) error {
	data := d.img.Known()
	if len(data) == 0 {
		data = []byte{0x00}
	}
	_, err := w.Write(data)
	return err
}

// WriteCSVFiles emits the reverse-engineering CSV set into dir.
func (d *DM32) WriteCSVFiles(dir string) error {
	write := func(name string, fn func(io.Writer)) error {
		f, err := os.Create(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", name, err)
		}
		fn(f)
		if err := f.Close(); err != nil {
			return fmt.Errorf("failed to close %s: %w", name, err)
		}
		d.log.Info("Wrote CSV", logger.String("file", filepath.Join(dir, name)))
		return nil
	}

	if err := write("dm32_slots_debug.csv", func(w io.Writer) {
		export.WriteSlotsDebugCSV(w, d.img)
	}); err != nil {
		return err
	}
	if err := write("dm32_channels_fields.csv", func(w io.Writer) {
		export.WriteChannelFieldsCSV(w, d.chans)
	}); err != nil {
		return err
	}
	if err := write("dm32_zones.csv", func(w io.Writer) {
		export.WriteZonesCSV(w, d.zones)
	}); err != nil {
		return err
	}
	return write("dm32_channels.csv", func(w io.Writer) {
		export.WriteChannelsCSV(w, d.chans)
	})
}

// ValidateCSV cross-checks a CPS export against the decoded state.
func (d *DM32) ValidateCSV(r io.Reader) (export.ValidationResult, error) {
	return export.ValidateCSV(r, d.chans, d.zones)
}
