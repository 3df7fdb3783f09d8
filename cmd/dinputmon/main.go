// dinputmon - companion monitor for the dinput8 wrapper.
// Shows live device state, toggles suppression at runtime, and serves the
// HTTP/WebSocket API for external viewers.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dinputproxy/internal/api"
	"dinputproxy/internal/autostart"
	"dinputproxy/internal/config"
	"dinputproxy/internal/dinput"
	"dinputproxy/internal/hidscan"
	"dinputproxy/internal/hotkey"
	"dinputproxy/internal/proxy"
	"dinputproxy/internal/sim"
	"dinputproxy/internal/tray"
)

var (
	version    = "0.3.0"
	listDevs   = flag.Bool("list", false, "List attached game controllers")
	serveMode  = flag.Bool("serve", false, "Run the monitor service (the default when no other mode is given)")
	simulate   = flag.Bool("sim", false, "Feed simulated controller state instead of hardware")
	configPath = flag.String("config", "", "Path to configuration file")
	noTray     = flag.Bool("no-tray", false, "Run without the system tray icon")
	showVer    = flag.Bool("version", false, "Show version")
)

func main() {
	flag.Parse()

	if *showVer {
		fmt.Printf("dinputmon version %s\n", version)
		return
	}

	if *listDevs {
		listControllers()
		return
	}

	// Initialize config
	var cfgMgr *config.Manager
	if *configPath != "" {
		cfgMgr = config.NewManagerAt(*configPath)
	} else {
		cfgMgr = config.NewManager()
	}
	if err := cfgMgr.Load(); err != nil {
		log.Printf("Warning: failed to load config: %v", err)
		alert("dinputmon", fmt.Sprintf("Configuration ignored: %v", err))
	}

	runService(cfgMgr)
}

func listControllers() {
	devices, err := hidscan.List()
	if err != nil {
		log.Fatalf("Failed to enumerate controllers: %v", err)
	}

	fmt.Println("Attached Game Controllers:")
	fmt.Println("--------------------------")
	if len(devices) == 0 {
		fmt.Println("(none)")
		return
	}
	for _, dev := range devices {
		fmt.Printf("%04x:%04x  %s\n", dev.VendorID, dev.ProductID, dev.Product)
		if dev.SixDOFClass {
			fmt.Println("  Motion sensors: yes (rotational axes affected by suppression)")
		}
	}
}

// pickSource selects the live state source. Hardware when available, the
// simulator as fallback so the feed keeps working off-target.
func pickSource(cfgMgr *config.Manager, logger *log.Logger) api.Source {
	cfg := cfgMgr.Get()
	axes := proxy.Axes{RotX: cfg.Suppress.RotX, RotY: cfg.Suppress.RotY}

	if !*simulate {
		src, err := newSystemSource(axes, logger)
		if err == nil {
			return src
		}
		log.Printf("Hardware source unavailable (%v), using simulator", err)
	}

	inner := sim.NewDevice(sim.SixDOFInstance("Simulated 6DOF Pad"))
	wrapped := proxy.NewDeviceProxy(inner, dinput.IIDIDirectInputDevice8A, axes, logger)
	return &simSource{dev: wrapped}
}

// simSource samples the synthetic device through the same wrapper a game
// would get, so the feed shows exactly what suppression does.
type simSource struct {
	dev proxy.Device
}

func (s *simSource) Sample() (dinput.JoyState, error) {
	buf := make([]byte, dinput.JoyStateSize)
	if err := s.dev.GetDeviceState(buf); err != nil {
		return dinput.JoyState{}, err
	}
	state, _ := dinput.DecodeJoyState(buf)
	return state, nil
}

func (s *simSource) Name() string { return "simulated" }

func runService(cfgMgr *config.Manager) {
	log.Printf("dinputmon %s starting...", version)
	cfg := cfgMgr.Get()

	source := pickSource(cfgMgr, nil)
	server := api.NewServer(cfgMgr, source, hidscan.List, version)

	go func() {
		if err := server.Start(cfg.Monitor.APIPort); err != nil {
			log.Printf("API server error: %v", err)
		}
	}()

	// Suppression toggle, shared by hotkey and tray
	trayUI := tray.New("DInput rotation suppression monitor")
	var checkID int
	toggle := func() {
		enabled := !proxy.SuppressionEnabled()
		proxy.SetSuppression(enabled)
		server.BroadcastSuppression(enabled)
		trayUI.SetItemChecked(checkID, enabled)
		log.Printf("Suppression: %v", enabled)
	}

	hkMgr := hotkey.NewManager()
	if _, err := hkMgr.Register(cfg.Monitor.ToggleHotkey, toggle); err != nil {
		log.Printf("Warning: bad toggle hotkey %q: %v", cfg.Monitor.ToggleHotkey, err)
	}
	if err := hkMgr.Start(); err != nil {
		log.Printf("Warning: Hotkey Engine failed to start: %v", err)
	}

	// Auto-start sync
	if cfg.Monitor.AutoStart && !autostart.IsEnabled() {
		if err := autostart.Enable(); err != nil {
			log.Printf("Warning: failed to enable auto-start: %v", err)
		}
	} else if !cfg.Monitor.AutoStart && autostart.IsEnabled() {
		if err := autostart.Disable(); err != nil {
			log.Printf("Warning: failed to disable auto-start: %v", err)
		}
	}

	if *noTray {
		waitForSignal()
		server.Stop()
		return
	}

	checkID = trayUI.AddCheckItem("Suppress rotation axes", toggle)
	trayUI.AddSeparator()
	trayUI.AddMenuItem(fmt.Sprintf("Status: http://localhost:%d/api/status", cfg.Monitor.APIPort), nil)
	trayUI.AddSeparator()
	trayUI.AddMenuItem("Quit", func() {
		trayUI.Stop()
	})

	// Reflect the initial state once the menu exists
	go func() {
		time.Sleep(time.Second)
		trayUI.SetItemChecked(checkID, proxy.SuppressionEnabled())
	}()

	trayUI.Run()
	server.Stop()
	log.Println("dinputmon stopped.")
}

func waitForSignal() {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
	<-ch
}
