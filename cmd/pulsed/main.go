// Command pulsed streams samples from a wearable (serial or mock),
// runs the biometric pipeline, and publishes results over NATS.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/itohio/gopulse/pkg/biometrics"
	"github.com/itohio/gopulse/pkg/config"
	"github.com/itohio/gopulse/pkg/device"
	"github.com/itohio/gopulse/pkg/session"
)

// resultMsg is the JSON shape published on the results subject.
type resultMsg struct {
	Timestamp int64   `json:"ts"`
	HeartRate float64 `json:"hr_bpm,omitempty"`
	HRQuality float64 `json:"hr_quality,omitempty"`
	HRSource  string  `json:"hr_source"`
	SpO2      float64 `json:"spo2,omitempty"`
	Perfusion float64 `json:"perfusion_index"`
	Strength  string  `json:"signal_strength"`
	Worn      bool    `json:"worn"`
	Activity  string  `json:"activity"`
	Motion    float64 `json:"motion_level"`
}

func main() {
	var (
		configFlag = flag.String("config", "config.yaml", "Configuration file path")
		portFlag   = flag.String("p", "", "Serial port override (e.g., /dev/ttyACM0)")
		mockFlag   = flag.Bool("mock", false, "Use the mock wearable instead of a serial port")
		natsFlag   = flag.String("nats", "", "NATS URL override")
		recordFlag = flag.String("record", "", "Record raw samples to a session file")
		portsFlag  = flag.Bool("ports", false, "List available serial ports and exit")
		debugFlag  = flag.Bool("debug", false, "Enable debug logging")
	)
	flag.Parse()

	log := newLogger(*debugFlag)
	defer log.Sync()

	if *portsFlag {
		ports, err := device.Ports()
		if err != nil {
			log.Fatal("failed to list serial ports", zap.Error(err))
		}
		for _, p := range ports {
			fmt.Println(p)
		}
		return
	}

	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatal("failed to load configuration", zap.Error(err))
	}
	if *portFlag != "" {
		cfg.Device.Port = *portFlag
	}
	if *natsFlag != "" {
		cfg.Stream.URL = *natsFlag
	}

	nc, err := nats.Connect(cfg.Stream.URL,
		nats.Name("pulsed"),
		nats.Timeout(3*time.Second),
		nats.ReconnectWait(500*time.Millisecond),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		log.Fatal("failed to connect to NATS", zap.String("url", cfg.Stream.URL), zap.Error(err))
	}
	defer nc.Drain()

	var dev device.Device
	if *mockFlag {
		dev = device.NewMock(&cfg.Mock)
	} else {
		dev = device.NewSerial(cfg.Device.Port, cfg.Device.BaudRate, 0, log)
	}

	var recorder *session.Recorder
	if *recordFlag != "" {
		recorder, err = session.NewRecorder(*recordFlag)
		if err != nil {
			log.Fatal("failed to open session recorder", zap.Error(err))
		}
		defer func() {
			if err := recorder.Close(); err != nil {
				log.Error("failed to close session recorder", zap.Error(err))
			}
		}()
	}

	processor := biometrics.NewProcessor(cfg.Biometric)
	processor.OnResult(func(res biometrics.Result) {
		if res.Partial {
			return
		}
		publish(nc, cfg.Stream.ResultsSubject, res, log)
	})

	if err := dev.Connect(); err != nil {
		log.Fatal("failed to connect to device", zap.Error(err))
	}
	defer dev.Close()

	log.Info("pulsed running",
		zap.Bool("mock", *mockFlag),
		zap.Float64("sample_rate", cfg.Biometric.SampleRate),
		zap.String("results_subject", cfg.Stream.ResultsSubject))

	done := make(chan struct{})
	go func() {
		defer close(done)
		for s := range dev.Samples() {
			if recorder != nil {
				if err := recorder.Write(s); err != nil {
					log.Error("failed to record sample", zap.Error(err))
				}
			}
			processor.Process(s)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Info("shutting down", zap.Float64("avg_motion_g", processor.AverageMotion()))
	dev.Close()
	<-done
}

func publish(nc *nats.Conn, subject string, res biometrics.Result, log *zap.Logger) {
	msg := resultMsg{
		Timestamp: res.Timestamp.UnixMilli(),
		HRSource:  res.HeartRate.Source.String(),
		Perfusion: res.PerfusionIndex,
		Strength:  res.SignalStrength.String(),
		Worn:      res.Worn,
		Activity:  res.Activity.String(),
		Motion:    res.MotionLevel,
	}
	if res.HeartRate.Available() {
		msg.HeartRate = res.HeartRate.BPM
		msg.HRQuality = res.HeartRate.Quality
	}
	if res.SpO2.Valid {
		msg.SpO2 = res.SpO2.Percent
	}

	data, err := json.Marshal(msg)
	if err != nil {
		log.Error("failed to marshal result", zap.Error(err))
		return
	}
	if err := nc.Publish(subject, data); err != nil {
		log.Error("failed to publish result", zap.Error(err))
	}
}

// newLogger builds a production JSON logger, console style in debug.
func newLogger(debug bool) *zap.Logger {
	var cfg zap.Config
	if debug {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		cfg.OutputPaths = []string{"stdout"}
		cfg.ErrorOutputPaths = []string{"stderr"}
	}
	log, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	return log.With(zap.String("service_name", "pulsed"))
}
