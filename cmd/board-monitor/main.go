// Command board-monitor runs the bench board firmware core: it samples the
// joystick and microphone, debounces the push buttons, drives the heartbeat
// LED and buzzer alarm, and serializes all task output onto one console.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmarques/board-monitor/internal/alarm"
	"github.com/dmarques/board-monitor/internal/console"
	"github.com/dmarques/board-monitor/internal/event"
	"github.com/dmarques/board-monitor/internal/hal"
	"github.com/dmarques/board-monitor/internal/sampling"
	"github.com/dmarques/board-monitor/internal/status"
	"github.com/dmarques/board-monitor/internal/tasks"
	"github.com/dmarques/board-monitor/internal/telemetry"
	"github.com/dmarques/board-monitor/internal/web"
)

type runConfig struct {
	sample       time.Duration
	buttonPoll   time.Duration
	debounce     time.Duration
	threshold    float64
	broker       string
	heartbeat    time.Duration
	httpAddr     string
	chip         string
	iio          string
	skipSelfTest bool
	printState   bool
}

func main() {
	var cfg runConfig
	flag.DurationVar(&cfg.sample, "sample", tasks.SamplePeriod, "analog sampling period")
	flag.DurationVar(&cfg.buttonPoll, "button-poll", tasks.ButtonPollPeriod, "button polling period")
	flag.DurationVar(&cfg.debounce, "debounce", event.DebounceWindow, "button debounce quiet window")
	flag.Float64Var(&cfg.threshold, "threshold", alarm.ThresholdVolts, "per-axis alarm threshold in volts")
	flag.StringVar(&cfg.broker, "broker", "tcp://192.168.1.200:1883", "MQTT broker address (empty to disable telemetry)")
	flag.DurationVar(&cfg.heartbeat, "heartbeat", tasks.SystemHeartbeatDefault, "MQTT heartbeat interval (0 to disable)")
	flag.StringVar(&cfg.httpAddr, "http", ":80", "HTTP status address (empty to disable)")
	flag.StringVar(&cfg.chip, "chip", "gpiochip0", "GPIO chip device name")
	flag.StringVar(&cfg.iio, "iio", "iio:device0", "IIO ADC device name")
	flag.BoolVar(&cfg.skipSelfTest, "skip-self-test", false, "skip the startup self-test")
	flag.BoolVar(&cfg.printState, "print-state", false, "print current readings and exit")
	flag.Parse()

	if err := run(cfg); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(cfg runConfig) error {
	halCfg := hal.DefaultRealConfig()
	halCfg.ChipName = cfg.chip
	halCfg.IIODevice = cfg.iio

	board, err := hal.NewRealBoard(halCfg)
	if err != nil {
		return fmt.Errorf("init board: %w", err)
	}
	defer board.Close()

	if cfg.printState {
		return printState(board)
	}

	// Shared primitives come up before any task is created.
	guard := console.New(os.Stdout)
	samples := sampling.NewChannel(sampling.DefaultCapacity)
	presses := event.NewSignal()

	tracker := status.NewTracker(time.Now(), status.Config{
		SampleMs:   cfg.sample.Milliseconds(),
		ButtonMs:   cfg.buttonPoll.Milliseconds(),
		DebounceMs: cfg.debounce.Milliseconds(),
		Threshold:  cfg.threshold,
		Broker:     cfg.broker,
		HTTPAddr:   cfg.httpAddr,
	})
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

	var publisher telemetry.Publisher
	if cfg.broker != "" {
		p, err := telemetry.NewRealPublisher(cfg.broker)
		if err != nil {
			log.Printf("telemetry disabled: %v", err)
		} else {
			publisher = p
			defer p.Close()
			tracker.SetMQTTConnected(p.IsConnected())
		}
	}

	// Publish startup event with full status snapshot.
	if publisher != nil {
		snap := tracker.Snapshot()
		err := publisher.PublishSystem(telemetry.SystemEvent{
			Timestamp:  snap.Now,
			Event:      "STARTUP",
			Retained:   true,
			RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
		})
		if err != nil {
			log.Printf("failed to publish startup event: %v", err)
		} else {
			log.Printf("published startup event")
		}
	}

	if cfg.httpAddr != "" {
		srv := web.New(cfg.httpAddr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", cfg.httpAddr)
	}

	log.Printf("started: sample=%v button-poll=%v debounce=%v threshold=%.2fV broker=%s",
		cfg.sample, cfg.buttonPoll, cfg.debounce, cfg.threshold, cfg.broker)

	deps := tasks.Deps{
		Board:     board,
		Console:   guard,
		Samples:   samples,
		Presses:   presses,
		Status:    tracker,
		Telemetry: publisher,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bodies := taskBodies(deps, cfg)

	var wg sync.WaitGroup
	for _, d := range tasks.DefaultPlacement() {
		if d.Name == tasks.TaskSelfTest && cfg.skipSelfTest {
			continue
		}
		body, ok := bodies[d.Name]
		if !ok {
			return fmt.Errorf("no body for task %q", d.Name)
		}
		tasks.Spawn(ctx, &wg, d, guard, body)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	s := <-sigCh
	log.Printf("received %v, shutting down", s)

	if publisher != nil {
		signalName := "UNKNOWN"
		if s == syscall.SIGINT {
			signalName = "SIGINT"
		} else if s == syscall.SIGTERM {
			signalName = "SIGTERM"
		}
		snap := tracker.Snapshot()
		err := publisher.PublishSystem(telemetry.SystemEvent{
			Timestamp:  snap.Now,
			Event:      "SHUTDOWN",
			Reason:     signalName,
			Retained:   true,
			RawPayload: status.FormatStatusEvent(snap, "SHUTDOWN", signalName),
		})
		if err != nil {
			log.Printf("failed to publish shutdown event: %v", err)
		} else {
			log.Printf("published shutdown event")
		}
	}

	cancel()
	wg.Wait()
	return nil
}

// taskBodies maps each placement-table task to its body.
func taskBodies(deps tasks.Deps, cfg runConfig) map[string]func(context.Context) {
	selfTest := tasks.NewSelfTest(deps, tasks.SelfTestConfig{})
	heartbeat := tasks.NewHeartbeat(deps.Board, tasks.HeartbeatHalfPeriod)
	sampler := tasks.NewSampler(deps, cfg.sample)
	buttons := tasks.NewButtonPoller(deps, cfg.buttonPoll, cfg.debounce)
	monitor := tasks.NewMonitor(deps, tasks.MonitorConfig{
		Threshold:         cfg.threshold,
		HeartbeatInterval: cfg.heartbeat,
	})

	return map[string]func(context.Context){
		tasks.TaskSelfTest:   selfTest.Run,
		tasks.TaskHeartbeat:  heartbeat.Run,
		tasks.TaskSampler:    sampler.Run,
		tasks.TaskButtonPoll: buttons.Run,
		tasks.TaskMonitor:    monitor.Run,
	}
}

// printState reads each input once and prints it, for bench checks.
func printState(board hal.Board) error {
	y, err := board.ReadAxis(hal.ChannelY)
	if err != nil {
		return fmt.Errorf("read Y: %w", err)
	}
	x, err := board.ReadAxis(hal.ChannelX)
	if err != nil {
		return fmt.Errorf("read X: %w", err)
	}
	mic, err := board.ReadAxis(hal.ChannelMic)
	if err != nil {
		return fmt.Errorf("read mic: %w", err)
	}
	btnRaw, err := board.ReadPin(hal.PinButtonA)
	if err != nil {
		return fmt.Errorf("read button A: %w", err)
	}

	fmt.Printf("X: %.2fV, Y: %.2fV, Mic: %.2fV, Button A: %s\n",
		hal.Volts(x), hal.Volts(y), hal.Volts(mic), pressedString(!btnRaw))
	return nil
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}

func pressedString(pressed bool) string {
	if pressed {
		return "pressed"
	}
	return "released"
}
