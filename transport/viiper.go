package transport

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/Alia5/keybridge/apiclient"
	"github.com/Alia5/keybridge/apitypes"
	"github.com/Alia5/keybridge/hid"
	"github.com/Alia5/keybridge/internal/server/api/auth"
)

// ErrDisconnected is returned while the VIIPER stream is down. Reconnecting
// happens in the background; once it succeeds the latest report is sent
// again, so the device catches up with the full key state.
var ErrDisconnected = errors.New("viiper stream disconnected")

// VIIPERConfig locates the virtual keyboard on a VIIPER server.
type VIIPERConfig struct {
	Addr     string `help:"VIIPER API address" default:"localhost:3242" env:"KEYBRIDGE_VIIPER_ADDR"`
	Password string `help:"VIIPER API password" env:"KEYBRIDGE_VIIPER_PASSWORD"`
	BusID    uint32 `help:"Bus to use; 0 picks the first bus or creates one" default:"0" env:"KEYBRIDGE_VIIPER_BUS"`
	DeviceID string `help:"Existing keyboard device id; empty adds a keyboard to the bus" env:"KEYBRIDGE_VIIPER_DEVICE"`

	RetryInterval time.Duration `help:"Minimum time between reconnect attempts" default:"2s" env:"KEYBRIDGE_VIIPER_RETRY"`
	DialTimeout   time.Duration `help:"Dial timeout" default:"3s" env:"KEYBRIDGE_VIIPER_DIAL_TIMEOUT"`
}

type viiperBusList struct {
	Buses []uint32 `json:"buses"`
}

type viiperBusCreate struct {
	BusID uint32 `json:"busId"`
}

type viiperDevice struct {
	BusID uint32 `json:"busId"`
	DevID string `json:"devId"`
	Type  string `json:"type"`
}

type viiperDeviceList struct {
	Devices []viiperDevice `json:"devices"`
}

type viiperDeviceCreate struct {
	Type string `json:"type"`
}

// VIIPERSink streams reports to a VIIPER keyboard device and publishes the
// LED state the remote host sets on it. WriteReport never waits on the
// network beyond a single stream write.
type VIIPERSink struct {
	cfg    VIIPERConfig
	api    *apiclient.Transport
	leds   *LEDHub
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu           sync.Mutex
	stream       *apiclient.Stream
	busID        uint32
	devID        string
	last         hid.Report
	lastTry      time.Time
	reconnecting bool
	closed       bool
}

// DialVIIPER provisions the keyboard device and opens its stream. ctx only
// bounds the initial connection.
func DialVIIPER(ctx context.Context, cfg VIIPERConfig, leds *LEDHub, logger *slog.Logger) (*VIIPERSink, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 3 * time.Second
	}
	tcfg := apiclient.Config{
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
		Password:     cfg.Password,
		Protocol:     auth.VIIPER,
	}
	v := &VIIPERSink{
		cfg:    cfg,
		api:    apiclient.NewTransportWithConfig(cfg.Addr, &tcfg),
		leds:   leds,
		logger: logger.With("viiper", cfg.Addr),
		devID:  cfg.DeviceID,
	}
	v.ctx, v.cancel = context.WithCancel(context.Background())

	s, busID, devID, err := v.connect(ctx, 0, cfg.DeviceID)
	if err != nil {
		v.cancel()
		return nil, err
	}
	v.mu.Lock()
	v.lastTry = time.Now()
	v.installLocked(s, busID, devID)
	v.mu.Unlock()
	return v, nil
}

// Device returns the bus and device id in use.
func (v *VIIPERSink) Device() (uint32, string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.busID, v.devID
}

func viiperCall[T any](ctx context.Context, t *apiclient.Transport, path string, payload any, params map[string]string) (*T, error) {
	raw, err := t.DoCtx(ctx, path, payload, params)
	if err != nil {
		return nil, err
	}
	var problem apitypes.ApiError
	if err := json.Unmarshal([]byte(raw), &problem); err == nil && (problem.Status != 0 || problem.Title != "") {
		return nil, &problem
	}
	var out T
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return &out, nil
}

// provision finds or creates the bus and keyboard device. knownBus and
// knownDev are what the previous connection used.
func (v *VIIPERSink) provision(ctx context.Context, knownBus uint32, knownDev string) (uint32, string, error) {
	busID := v.cfg.BusID
	if busID == 0 {
		busID = knownBus
	}
	if busID == 0 {
		list, err := viiperCall[viiperBusList](ctx, v.api, "bus/list", nil, nil)
		if err != nil {
			return 0, "", fmt.Errorf("list buses: %w", err)
		}
		if len(list.Buses) > 0 {
			busID = list.Buses[0]
		} else {
			created, err := viiperCall[viiperBusCreate](ctx, v.api, "bus/create", nil, nil)
			if err != nil {
				return 0, "", fmt.Errorf("create bus: %w", err)
			}
			busID = created.BusID
			v.logger.Info("created viiper bus", "bus", busID)
		}
	}
	params := map[string]string{"id": strconv.FormatUint(uint64(busID), 10)}

	if knownDev != "" {
		devs, err := viiperCall[viiperDeviceList](ctx, v.api, "bus/{id}/list", nil, params)
		if err != nil {
			return 0, "", fmt.Errorf("list devices: %w", err)
		}
		for _, d := range devs.Devices {
			if d.DevID == knownDev {
				return busID, d.DevID, nil
			}
		}
		if v.cfg.DeviceID != "" {
			return 0, "", fmt.Errorf("device %s not found on bus %d", v.cfg.DeviceID, busID)
		}
		v.logger.Info("keyboard device gone, adding a new one", "bus", busID, "device", knownDev)
	}

	dev, err := viiperCall[viiperDevice](ctx, v.api, "bus/{id}/add", viiperDeviceCreate{Type: "keyboard"}, params)
	if err != nil {
		return 0, "", fmt.Errorf("add keyboard: %w", err)
	}
	v.logger.Info("added viiper keyboard", "bus", busID, "device", dev.DevID)
	return busID, dev.DevID, nil
}

// connect provisions the device and opens its stream without touching the
// sink state.
func (v *VIIPERSink) connect(ctx context.Context, knownBus uint32, knownDev string) (*apiclient.Stream, uint32, string, error) {
	busID, devID, err := v.provision(ctx, knownBus, knownDev)
	if err != nil {
		return nil, 0, "", err
	}
	s, err := v.api.OpenStream(ctx, fmt.Sprintf("bus/%d/%s", busID, devID))
	if err != nil {
		return nil, 0, "", fmt.Errorf("open stream: %w", err)
	}
	return s, busID, devID, nil
}

func (v *VIIPERSink) installLocked(s *apiclient.Stream, busID uint32, devID string) {
	v.stream, v.busID, v.devID = s, busID, devID
	v.logger.Info("viiper stream connected", "bus", busID, "device", devID)
	go v.readLEDs(s)
}

// reconnectLocked starts the background reconnect unless one is running.
func (v *VIIPERSink) reconnectLocked() {
	if v.reconnecting || v.closed {
		return
	}
	v.reconnecting = true
	go v.reconnect()
}

// reconnect retries at most once per RetryInterval until a stream is open or
// the sink is closed, then resends the latest report.
func (v *VIIPERSink) reconnect() {
	for {
		v.mu.Lock()
		wait := v.cfg.RetryInterval - time.Since(v.lastTry)
		busID, devID := v.busID, v.devID
		v.mu.Unlock()

		if wait > 0 {
			select {
			case <-time.After(wait):
			case <-v.ctx.Done():
				return
			}
		}

		v.mu.Lock()
		v.lastTry = time.Now()
		v.mu.Unlock()

		ctx, cancel := context.WithTimeout(v.ctx, v.cfg.DialTimeout+10*time.Second)
		s, busID, devID, err := v.connect(ctx, busID, devID)
		cancel()
		if err != nil {
			if v.ctx.Err() != nil {
				return
			}
			v.logger.Warn("viiper reconnect failed", "error", err)
			continue
		}

		v.mu.Lock()
		v.reconnecting = false
		if v.closed {
			v.mu.Unlock()
			_ = s.Close()
			return
		}
		v.installLocked(s, busID, devID)
		if err := s.WriteBinary(v.last); err != nil {
			v.logger.Warn("failed to resend report after reconnect", "error", err)
		}
		v.mu.Unlock()
		return
	}
}

func (v *VIIPERSink) readLEDs(s *apiclient.Stream) {
	msgs, errs := apiclient.StartReading(v.ctx, s, 4, func(r *bufio.Reader) (hid.LEDState, error) {
		var st hid.LEDState
		b, err := r.ReadByte()
		if err != nil {
			return st, err
		}
		err = st.UnmarshalBinary([]byte{b})
		return st, err
	})
	for st := range msgs {
		v.logger.Debug("leds", "state", st.String())
		if v.leds != nil {
			v.leds.Set(st)
		}
	}
	if err := <-errs; err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
		v.logger.Warn("viiper stream read ended", "error", err)
	}
	v.drop(s)
}

// drop forgets s if it is still the current stream.
func (v *VIIPERSink) drop(s *apiclient.Stream) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.stream == s {
		v.stream = nil
		v.logger.Warn("viiper stream disconnected")
		v.reconnectLocked()
	}
	_ = s.Close()
}

// WriteReport sends r. While the stream is down it returns ErrDisconnected
// at once and keeps r for the reconnect to send.
func (v *VIIPERSink) WriteReport(r hid.Report) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return apiclient.ErrStreamClosed
	}
	v.last = r.Clone()
	if v.stream == nil {
		v.reconnectLocked()
		return ErrDisconnected
	}
	if err := v.stream.WriteBinary(r); err != nil {
		_ = v.stream.Close()
		v.stream = nil
		v.reconnectLocked()
		return fmt.Errorf("%w: write report: %w", ErrDisconnected, err)
	}
	return nil
}

// Close releases every key on the device and closes the stream. The
// device is left for VIIPER to remove.
func (v *VIIPERSink) Close() error {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return nil
	}
	v.closed = true
	s := v.stream
	v.stream = nil
	v.mu.Unlock()

	var err error
	if s != nil {
		_ = s.WriteBinary(hid.Report{})
		err = s.Close()
	}
	v.cancel()
	return err
}
