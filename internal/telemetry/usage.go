package telemetry

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/nerrad567/econet-core/internal/econet"
	"github.com/nerrad567/econet-core/internal/equipment"
)

// defaultUsageInterval applies when UsagePollerConfig.Interval is zero.
const defaultUsageInterval = time.Hour

// UsageSource fetches usage reports. *econet.Client satisfies it.
type UsageSource interface {
	EnergyUsage(ctx context.Context, wh equipment.WaterHeater, req econet.UsageRequest) (econet.EnergyReport, error)
	WaterUsage(ctx context.Context, wh equipment.WaterHeater) (float64, error)
}

// EquipmentLister returns the entities to poll. *registry.Registry
// satisfies it.
type EquipmentLister interface {
	All() []*equipment.Equipment
}

// UsageWriter receives usage totals. *influxdb.Client satisfies it.
type UsageWriter interface {
	WriteEnergyUsage(deviceName, serialNumber, unit string, total float64)
	WriteWaterUsage(deviceName, serialNumber string, total float64)
}

// Logger is the logging surface used by UsagePoller.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// UsagePollerConfig holds configuration for the usage poller.
type UsagePollerConfig struct {
	Source    UsageSource
	Equipment EquipmentLister
	Writer    UsageWriter

	// Interval between polls. Default: 1 hour.
	Interval time.Duration

	Logger Logger
}

// UsagePoller writes today's energy and water usage for every water
// heater at a fixed interval.
type UsagePoller struct {
	source    UsageSource
	equipment EquipmentLister
	writer    UsageWriter
	interval  time.Duration

	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once

	logger   Logger
	loggerMu sync.RWMutex
}

// NewUsagePoller creates a poller. Call Start to begin polling.
func NewUsagePoller(cfg UsagePollerConfig) *UsagePoller {
	interval := cfg.Interval
	if interval <= 0 {
		interval = defaultUsageInterval
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noopLogger{}
	}
	return &UsagePoller{
		source:    cfg.Source,
		equipment: cfg.Equipment,
		writer:    cfg.Writer,
		interval:  interval,
		done:      make(chan struct{}),
		logger:    logger,
	}
}

// SetLogger sets the logger for this poller.
func (p *UsagePoller) SetLogger(logger Logger) {
	p.loggerMu.Lock()
	p.logger = logger
	p.loggerMu.Unlock()
}

// Start polls once immediately and then every interval until ctx is
// cancelled or Stop is called.
func (p *UsagePoller) Start(ctx context.Context) {
	p.wg.Add(1)
	go p.pollLoop(ctx)
}

// Stop waits for an in-flight poll to finish. Safe to call multiple times.
func (p *UsagePoller) Stop() {
	p.stopOnce.Do(func() {
		close(p.done)
		p.wg.Wait()
	})
}

func (p *UsagePoller) pollLoop(ctx context.Context) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.PollNow(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.done:
			return
		case <-ticker.C:
			p.PollNow(ctx)
		}
	}
}

// PollNow fetches and writes usage for every water heater. Units that
// do not report usage are skipped; other failures are logged and the
// poll moves on to the next unit.
func (p *UsagePoller) PollNow(ctx context.Context) {
	for _, eq := range p.equipment.All() {
		if ctx.Err() != nil {
			return
		}
		wh, ok := eq.WaterHeater()
		if !ok {
			continue
		}
		p.pollEnergy(ctx, wh)
		p.pollWater(ctx, wh)
	}
}

func (p *UsagePoller) pollEnergy(ctx context.Context, wh equipment.WaterHeater) {
	report, err := p.source.EnergyUsage(ctx, wh, econet.UsageRequest{Format: econet.UsageDaily})
	if err != nil {
		p.logFailure("energy", wh, err)
		return
	}
	p.writer.WriteEnergyUsage(wh.DeviceName(), wh.SerialNumber(), report.EnergyType, report.Total())
}

func (p *UsagePoller) pollWater(ctx context.Context, wh equipment.WaterHeater) {
	total, err := p.source.WaterUsage(ctx, wh)
	if err != nil {
		p.logFailure("water", wh, err)
		return
	}
	p.writer.WriteWaterUsage(wh.DeviceName(), wh.SerialNumber(), total)
}

func (p *UsagePoller) logFailure(report string, wh equipment.WaterHeater, err error) {
	p.loggerMu.RLock()
	logger := p.logger
	p.loggerMu.RUnlock()

	if errors.Is(err, econet.ErrUsageUnavailable) {
		logger.Debug("usage report not available",
			"report", report,
			"device_name", wh.DeviceName(),
			"serial_number", wh.SerialNumber(),
		)
		return
	}
	logger.Warn("failed to fetch usage report",
		"report", report,
		"device_name", wh.DeviceName(),
		"serial_number", wh.SerialNumber(),
		"error", err,
	)
}
