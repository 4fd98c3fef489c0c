package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	openvt "github.com/openvt/openvt"
	"github.com/openvt/openvt/pkg/config"
	"github.com/openvt/openvt/pkg/pipeline"
	"github.com/openvt/openvt/pkg/translate"

	log "github.com/sirupsen/logrus"

	// CAN bus drivers register themselves on import
	_ "github.com/openvt/openvt/pkg/can/socketcan"
	_ "github.com/openvt/openvt/pkg/can/socketcanv2"
	_ "github.com/openvt/openvt/pkg/can/virtual"
)

var DEFAULT_CONFIG_PATH = "openvt.ini"
var DEFAULT_FLUSH_MS = 50
var DEFAULT_SINK_SIZE = 8192

func main() {
	// Command line arguments
	configPath := flag.String("c", DEFAULT_CONFIG_PATH, "signal definition file path")
	format := flag.String("f", "json", "output format : json or proto")
	flushMs := flag.Int("flush", DEFAULT_FLUSH_MS, "output flush interval in milliseconds")
	verbose := flag.Bool("v", false, "enable debug logging")
	flag.Parse()

	if *verbose {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(log.InfoLevel)
	}

	defs, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("[MAIN] failed to load definitions from %v : %v", *configPath, err)
	}
	if len(defs.Buses) == 0 {
		log.Fatalf("[MAIN] no buses defined in %v", *configPath)
	}

	var outputFormat pipeline.Format
	switch *format {
	case "json":
		outputFormat = pipeline.FormatJSON
	case "proto":
		outputFormat = pipeline.FormatProto
	default:
		log.Fatalf("[MAIN] unknown output format %q", *format)
	}

	sink := pipeline.NewBufferedSink(os.Stdout, uint16(DEFAULT_SINK_SIZE))
	out := pipeline.NewPipeline(outputFormat, sink)

	// One translator and one bus manager per configured bus. The manager
	// serializes driver callbacks so each translator sees frames from a
	// single execution context.
	buses := make([]openvt.Bus, 0, len(defs.Buses))
	for _, busConfig := range defs.Buses {
		bus, err := openvt.NewBus(busConfig.Interface, busConfig.Channel, 0)
		if err != nil {
			log.Fatalf("[MAIN] bus %v : %v", busConfig.Name, err)
		}
		translator := translate.NewTranslator(busConfig.Bus, defs.Signals, defs.Messages, out)
		manager := openvt.NewBusManager(bus)
		err = manager.SubscribeAll(translator)
		if err != nil {
			log.Fatalf("[MAIN] bus %v : %v", busConfig.Name, err)
		}
		err = bus.Subscribe(manager)
		if err != nil {
			log.Fatalf("[MAIN] bus %v : %v", busConfig.Name, err)
		}
		err = bus.Connect()
		if err != nil {
			log.Fatalf("[MAIN] bus %v : failed to connect to %v via %v : %v",
				busConfig.Name, busConfig.Channel, busConfig.Interface, err)
		}
		log.Infof("[MAIN] bus %v connected on %v (%v)",
			busConfig.Name, busConfig.Channel, busConfig.Interface)
		buses = append(buses, bus)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	ticker := time.NewTicker(time.Duration(*flushMs) * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := sink.Flush(); err != nil {
				log.Errorf("[MAIN] flush failed : %v", err)
			}
		case <-stop:
			log.Info("[MAIN] shutting down")
			for _, bus := range buses {
				if err := bus.Disconnect(); err != nil {
					log.Warnf("[MAIN] disconnect : %v", err)
				}
			}
			_ = sink.Flush()
			return
		}
	}
}
