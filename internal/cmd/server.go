package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Alia5/keybridge/hid"
	"github.com/Alia5/keybridge/internal/configpaths"
	"github.com/Alia5/keybridge/internal/log"
	"github.com/Alia5/keybridge/internal/server/api"
	"github.com/Alia5/keybridge/internal/server/api/handler"
	"github.com/Alia5/keybridge/internal/util"
	"github.com/Alia5/keybridge/keyboard"
	"github.com/Alia5/keybridge/layout"
	"github.com/Alia5/keybridge/macro"
	"github.com/Alia5/keybridge/transport"
)

// Version is reported by the ping route. It is set at build time.
var Version = "dev"

// KeyboardConfig holds the translation settings.
type KeyboardConfig struct {
	Layout              string        `help:"Active layout at startup" default:"en_US" env:"KEYBRIDGE_LAYOUT"`
	LayoutDir           string        `help:"Directory of custom layout files (json, yaml, toml)" type:"path" env:"KEYBRIDGE_LAYOUT_DIR"`
	StickyModifiers     bool          `help:"Latch modifiers clicked on the on-screen keyboard" default:"true" negatable:"" env:"KEYBRIDGE_STICKY_MODIFIERS"`
	MaxSimultaneousKeys int           `help:"Maximum non-modifier keys per report" default:"6" env:"KEYBRIDGE_MAX_KEYS"`
	MetaReleaseDelay    time.Duration `help:"Delay before keys pressed under Meta are force-released" default:"10ms" env:"KEYBRIDGE_META_RELEASE_DELAY"`
	ISOBackquoteFix     bool          `help:"Swap Backquote and IntlBackslash when the character shows the browser mixed them up" default:"true" negatable:"" env:"KEYBRIDGE_ISO_BACKQUOTE_FIX"`
	StepDelay           time.Duration `help:"Hold time of macro steps with delay 0" default:"50ms" env:"KEYBRIDGE_STEP_DELAY"`
	StepGap             time.Duration `help:"Pause between macro steps" default:"10ms" env:"KEYBRIDGE_STEP_GAP"`
}

func (k KeyboardConfig) engine() keyboard.Config {
	return keyboard.Config{
		StickyModifiers:     k.StickyModifiers,
		MaxSimultaneousKeys: k.MaxSimultaneousKeys,
		MetaReleaseDelay:    k.MetaReleaseDelay,
		ISOBackquoteFix:     k.ISOBackquoteFix,
		StepDelay:           k.StepDelay,
		StepGap:             k.StepGap,
	}
}

// MacroConfig holds the macro store location and limits.
type MacroConfig struct {
	File             string        `help:"Macro file (.json, .yaml or .toml); defaults to macros.json in the config dir" type:"path" env:"KEYBRIDGE_MACRO_FILE"`
	Watch            bool          `help:"Reload the macro file when it changes on disk" default:"true" negatable:"" env:"KEYBRIDGE_MACRO_WATCH"`
	MaxKeysPerStep   int           `help:"Maximum keys per macro step" default:"10" env:"KEYBRIDGE_MACRO_MAX_KEYS"`
	MaxStepsPerMacro int           `help:"Maximum steps per macro" default:"10" env:"KEYBRIDGE_MACRO_MAX_STEPS"`
	MaxTotalMacros   int           `help:"Maximum stored macros" default:"25" env:"KEYBRIDGE_MACRO_MAX_TOTAL"`
	MaxNameLength    int           `help:"Maximum macro name length" default:"50" env:"KEYBRIDGE_MACRO_MAX_NAME"`
	MaxStepDelay     time.Duration `help:"Maximum macro step delay" default:"10s" env:"KEYBRIDGE_MACRO_MAX_DELAY"`
}

func (m MacroConfig) limits() macro.Limits {
	return macro.Limits{
		MaxKeysPerStep:   m.MaxKeysPerStep,
		MaxStepsPerMacro: m.MaxStepsPerMacro,
		MaxTotalMacros:   m.MaxTotalMacros,
		MaxNameLength:    m.MaxNameLength,
		MaxStepDelay:     m.MaxStepDelay,
	}
}

// GadgetConfig locates a Linux USB gadget HID function.
type GadgetConfig struct {
	Path string `help:"HID gadget device" default:"/dev/hidg0" env:"KEYBRIDGE_GADGET_PATH"`
}

type Server struct {
	ApiServerConfig api.ServerConfig       `embed:"" prefix:"api."`
	Keyboard        KeyboardConfig         `embed:"" prefix:"keyboard."`
	Macro           MacroConfig            `embed:"" prefix:"macro."`
	Output          string                 `help:"Where reports go" enum:"log,viiper,gadget" default:"log" env:"KEYBRIDGE_OUTPUT"`
	VIIPER          transport.VIIPERConfig `embed:"" prefix:"viiper."`
	Gadget          GadgetConfig           `embed:"" prefix:"gadget."`
}

// Run is called by Kong when the server command is executed.
func (s *Server) Run(logger *slog.Logger, rawLogger log.RawLogger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return s.StartServer(ctx, logger, rawLogger)
}

// StartServer runs until ctx is done.
func (s *Server) StartServer(ctx context.Context, logger *slog.Logger, rawLogger log.RawLogger) error {
	if s.ApiServerConfig.Addr == "" {
		return errors.New("API server address must be set (default :3243)")
	}
	if s.ApiServerConfig.Password == "" {
		pwd, err := loadOrCreatePassword(logger)
		if err != nil {
			return err
		}
		s.ApiServerConfig.Password = pwd
	}

	registry, err := s.layouts(logger)
	if err != nil {
		return err
	}

	store, err := s.macros(ctx, logger)
	if err != nil {
		return err
	}

	leds := transport.NewLEDHub()
	unsubLEDs := leds.Subscribe(func(st hid.LEDState) { logger.Info("host LEDs changed", "leds", st.String()) })
	defer unsubLEDs()

	sink, err := s.openSink(ctx, leds, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := sink.Close(); err != nil {
			logger.Warn("failed to close output", "error", err)
		}
	}()

	session := keyboard.NewSession(s.Keyboard.engine(), registry, transport.WithRaw(sink, rawLogger), logger)
	defer func() { _ = session.Close() }()

	apiSrv, err := api.New(s.ApiServerConfig, logger)
	if err != nil {
		return err
	}
	RegisterRoutes(apiSrv.Router(), registry, store, session, leds)
	logger.Debug("API routes registered", "routes", apiSrv.Router().Patterns())

	if err := apiSrv.Start(); err != nil {
		logger.Error("failed to start API server", "error", err)
		if util.IsRunFromGUI() {
			fmt.Println("Press any key to exit...")
			b := make([]byte, 1)
			_, _ = os.Stdin.Read(b)
		}
		return err
	}
	defer apiSrv.Close()

	if util.IsRunFromGUI() {
		go func() {
			time.Sleep(250 * time.Millisecond)
			util.HideConsoleWindow()
		}()
	}

	<-ctx.Done()
	logger.Info("shutting down")
	return nil
}

// RegisterRoutes adds every keybridge route to r.
func RegisterRoutes(r *api.Router, registry *layout.Registry, store *macro.Store, session *keyboard.Session, leds *transport.LEDHub) {
	r.Register("ping", handler.Ping(Version))
	r.Register("layout/list", handler.LayoutList(registry))
	r.Register("layout/set", handler.LayoutSet(registry))
	r.Register("macro/list", handler.MacroList(store))
	r.Register("macro/save", handler.MacroSave(store))
	r.Register("macro/cancel", handler.MacroCancel(session))
	r.Register("macro/{id}/remove", handler.MacroRemove(store))
	r.Register("macro/{id}/play", handler.MacroPlay(store, session))
	r.Register("keyboard/reset", handler.KeyboardReset(session))
	r.Register("keyboard/type", handler.KeyboardType(session))
	r.Register("keyboard/state", handler.KeyboardState(session, registry, leds))
	r.RegisterStream("keyboard", handler.KeyboardStream(session, leds))
}

func (s *Server) layouts(logger *slog.Logger) (*layout.Registry, error) {
	registry := layout.NewRegistry(logger)
	if s.Keyboard.LayoutDir != "" {
		names, err := registry.LoadDir(s.Keyboard.LayoutDir)
		if err != nil {
			return nil, fmt.Errorf("load layouts: %w", err)
		}
		logger.Info("custom layouts loaded", "dir", s.Keyboard.LayoutDir, "layouts", names)
	}
	if _, err := registry.SetActive(s.Keyboard.Layout); err != nil {
		logger.Warn("configured layout unavailable", "layout", s.Keyboard.Layout, "error", err)
	}
	return registry, nil
}

func (s *Server) macros(ctx context.Context, logger *slog.Logger) (*macro.Store, error) {
	path := s.Macro.File
	if path == "" {
		p, err := configpaths.DefaultNamedConfigPath("macros", "json")
		if err != nil {
			return nil, err
		}
		path = p
	}
	if err := configpaths.EnsureDir(path); err != nil {
		return nil, err
	}
	store, err := macro.Open(path, s.Macro.limits(), logger)
	if err != nil {
		return nil, err
	}
	logger.Info("macros loaded", "file", path, "count", len(store.List()))
	if s.Macro.Watch {
		store.OnChange(macroChangeLogger(logger))
		if err := store.Watch(ctx); err != nil {
			logger.Warn("macro file watch disabled", "error", err)
		}
	}
	return store, nil
}

// macroChangeLogger logs the macro set after every change, whether it came
// from an API save or an edit of the file.
func macroChangeLogger(logger *slog.Logger) func([]macro.Macro) {
	return func(ms []macro.Macro) { logger.Info("macro set changed", "count", len(ms)) }
}

func (s *Server) openSink(ctx context.Context, leds *transport.LEDHub, logger *slog.Logger) (transport.Sink, error) {
	switch s.Output {
	case "viiper":
		v, err := transport.DialVIIPER(ctx, s.VIIPER, leds, logger)
		if err != nil {
			return nil, fmt.Errorf("connect to VIIPER: %w", err)
		}
		bus, dev := v.Device()
		logger.Info("sending reports to VIIPER", "addr", s.VIIPER.Addr, "bus", bus, "device", dev)
		return v, nil
	case "gadget":
		g, err := transport.OpenGadget(s.Gadget.Path, leds, logger)
		if err != nil {
			return nil, err
		}
		logger.Info("sending reports to USB gadget", "path", s.Gadget.Path)
		return g, nil
	case "log", "":
		return transport.NewLogSink(logger, slog.LevelInfo), nil
	default:
		return nil, fmt.Errorf("unknown output %q", s.Output)
	}
}
