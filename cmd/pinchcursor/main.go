package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"sync"
	"syscall"
	"time"

	"github.com/ayusman/pinchcursor/internal/app"
	"github.com/ayusman/pinchcursor/internal/config"
	"github.com/ayusman/pinchcursor/internal/gesture"
	"github.com/ayusman/pinchcursor/internal/pointer"
	"github.com/ayusman/pinchcursor/internal/pointer/native"
	"github.com/ayusman/pinchcursor/internal/preview"
	"github.com/ayusman/pinchcursor/internal/server"
	"github.com/ayusman/pinchcursor/internal/store"
	"github.com/ayusman/pinchcursor/internal/tray"
)

func main() {
	configPath := flag.String("config", "", "path to a JSON config file")
	listen := flag.String("listen", "", "HTTP listen address (overrides config)")
	cameraID := flag.Int("camera", -1, "camera device id (overrides config)")
	nativePointer := flag.Bool("native", false, "drive the OS pointer as well as the overlay")
	noTray := flag.Bool("no-tray", false, "run without the system tray")
	verbose := flag.Bool("verbose", false, "log every pointer move")
	flag.Parse()

	fmt.Println("pinchcursor - Pinch Gesture Pointer")

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = loaded
	}
	if *listen != "" {
		cfg.Listen = *listen
	}
	if *cameraID >= 0 {
		cfg.Camera.DeviceID = *cameraID
	}
	if *nativePointer {
		cfg.Native = true
	}
	if *noTray {
		cfg.Tray = false
	}
	if *verbose {
		cfg.VerboseLog = true
	}

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	st, err := store.New(cfg.Database())
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer st.Close()

	// The hub sends the overlay's current cursor to clients as they connect.
	var overlay *pointer.Overlay
	hub := server.NewPointerHub(func() pointer.Event { return overlay.Snapshot() })
	overlay = pointer.NewOverlay(hub, cfg.FlashDuration())

	logger := pointer.NewLogger(nil)
	logger.Verbose = cfg.VerboseLog

	sinks := []gesture.Sink{overlay, logger}
	if cfg.Native {
		cfg.Viewport = native.ScreenViewport()
		sinks = append(sinks, native.New())
		log.Printf("Driving native pointer on a %.0fx%.0f screen", cfg.Viewport.Width, cfg.Viewport.Height)
	}

	buf := preview.NewBuffer()
	a := app.New(app.Config{
		Store:          st,
		CameraConfig:   cfg.Camera,
		DetectorConfig: cfg.Detector,
		Viewport:       cfg.Viewport,
		Threshold:      cfg.Threshold,
		Sinks:          sinks,
		Preview:        buf,
	})
	if err := a.LoadSettings(); err != nil {
		log.Printf("Ignoring saved settings: %v", err)
	}
	if cfg.Native {
		// Native positions are screen pixels whatever the saved viewport was.
		if err := a.SetViewport(cfg.Viewport); err != nil {
			log.Printf("Failed to set screen viewport: %v", err)
		}
	}

	if err := a.Start(); err != nil {
		log.Printf("Camera unavailable, serving without detection: %v", err)
	}
	defer a.Stop()

	webDir := cfg.WebDir
	if webDir == "" {
		webDir = findWebDir()
	}
	if webDir != "" {
		fmt.Printf("Serving static files from: %s\n", webDir)
	}

	srv := server.New(server.Config{
		StaticDir: webDir,
		Store:     st,
		App:       a,
		Hub:       hub,
		Preview:   buf,
	})
	httpServer := &http.Server{
		Addr:              cfg.Listen,
		Handler:           srv,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		fmt.Printf("Starting server on %s\n", cfg.Listen)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	var shutdownOnce sync.Once
	shutdown := func() {
		shutdownOnce.Do(func() {
			log.Println("Shutting down")
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := httpServer.Shutdown(ctx); err != nil {
				log.Printf("Server shutdown error: %v", err)
			}
		})
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	if cfg.Tray {
		t := tray.New()
		t.SetEnabled(a.IsEnabled())
		t.OnToggle(a.SetEnabled)
		// Keep the menu in step with toggles made over HTTP.
		a.OnEnabledChange(t.SetEnabled)
		t.OnQuit(shutdown)
		t.OnOpenOverlay(func() {
			if err := openBrowser(overlayURL(cfg.Listen)); err != nil {
				log.Printf("Failed to open browser: %v", err)
			}
		})
		a.AddSink(t)

		go func() {
			<-sigCh
			t.Quit()
		}()
		t.Run()
	} else {
		<-sigCh
	}

	shutdown()
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and ~/.pinchcursor/web.
// Returns the first existing directory or empty string if none found,
// in which case the built-in overlay page is served.
func findWebDir() string {
	relativePaths := []string{"web", "../web", "../../web"}
	for _, p := range relativePaths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			absPath, err := filepath.Abs(p)
			if err == nil {
				return absPath
			}
			return p
		}
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	homeWebDir := filepath.Join(homeDir, ".pinchcursor", "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}

	return ""
}

// overlayURL turns a listen address into a URL a local browser can open.
func overlayURL(listen string) string {
	host, port, err := net.SplitHostPort(listen)
	if err != nil {
		return "http://" + listen + "/"
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, port) + "/"
}

func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}
