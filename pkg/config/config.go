// Package config loads the static bus, message and signal definition tables
// from an ini file. Definitions are external configuration : the decode
// pipeline never mutates them.
//
// Section naming :
//
//	[bus.1]                           ; bus address 1
//	interface = socketcan
//	channel   = can0
//
//	[msg.1.0x620]                     ; message 0x620 on bus 1
//	max_frequency_hz   = 10
//	force_send_changed = true
//
//	[sig.1.0x110.vehicle_speed]       ; signal in message 0x110 on bus 1
//	bit_position = 8
//	bit_size     = 16
//	factor       = 0.01
//	handler      = passthrough
//	states       = off=0, left=1     ; for the state handler, ordered
package config

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/openvt/openvt/pkg/signals"
	log "github.com/sirupsen/logrus"
	"gopkg.in/ini.v1"
)

var matchBusRegExp = regexp.MustCompile(`^bus\.(\d+)$`)
var matchMsgRegExp = regexp.MustCompile(`^msg\.(\d+)\.(0[xX][0-9A-Fa-f]+|\d+)$`)
var matchSigRegExp = regexp.MustCompile(`^sig\.(\d+)\.(0[xX][0-9A-Fa-f]+|\d+)\.([A-Za-z0-9_]+)$`)

// BusConfig couples a bus identity with the driver used to open it.
type BusConfig struct {
	signals.Bus
	Interface string
	Channel   string
}

// Definitions holds everything loaded from one definition file.
type Definitions struct {
	Buses    []BusConfig
	Messages []signals.Message
	Signals  []*signals.Signal
}

// Load reads and parses a definition file from a path.
func Load(path string) (*Definitions, error) {
	return Parse(path)
}

// Parse accepts anything gopkg.in/ini.v1 can load : a path, []byte or an
// io.ReadCloser.
func Parse(source any) (*Definitions, error) {

	file, err := ini.Load(source)
	if err != nil {
		return nil, err
	}

	defs := &Definitions{}

	for _, section := range file.Sections() {
		sectionName := section.Name()

		if match := matchBusRegExp.FindStringSubmatch(sectionName); match != nil {
			address, err := strconv.ParseUint(match[1], 10, 8)
			if err != nil {
				return nil, fmt.Errorf("section [%v] : invalid bus address : %w", sectionName, err)
			}
			defs.Buses = append(defs.Buses, BusConfig{
				Bus: signals.Bus{
					Address: uint8(address),
					Name:    section.Key("name").MustString(fmt.Sprintf("bus%v", address)),
				},
				Interface: section.Key("interface").MustString("socketcan"),
				Channel:   section.Key("channel").MustString("can0"),
			})
			continue
		}

		if match := matchMsgRegExp.FindStringSubmatch(sectionName); match != nil {
			address, id, err := parseBusAndID(match[1], match[2])
			if err != nil {
				return nil, fmt.Errorf("section [%v] : %w", sectionName, err)
			}
			defs.Messages = append(defs.Messages, signals.Message{
				BusAddress:       address,
				ID:               id,
				Name:             section.Key("name").String(),
				MaxFrequency:     section.Key("max_frequency_hz").MustFloat64(0),
				ForceSendChanged: section.Key("force_send_changed").MustBool(false),
			})
			continue
		}

		if match := matchSigRegExp.FindStringSubmatch(sectionName); match != nil {
			address, id, err := parseBusAndID(match[1], match[2])
			if err != nil {
				return nil, fmt.Errorf("section [%v] : %w", sectionName, err)
			}
			signal, err := parseSignal(section, address, id, match[3])
			if err != nil {
				return nil, fmt.Errorf("section [%v] : %w", sectionName, err)
			}
			defs.Signals = append(defs.Signals, signal)
			continue
		}

		if sectionName != ini.DefaultSection {
			log.Warnf("[CONFIG] ignoring unrecognized section [%v]", sectionName)
		}
	}

	return defs, nil
}

func parseBusAndID(busPart string, idPart string) (uint8, uint32, error) {
	address, err := strconv.ParseUint(busPart, 10, 8)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid bus address : %w", err)
	}
	id, err := strconv.ParseUint(idPart, 0, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid message id : %w", err)
	}
	return uint8(address), uint32(id), nil
}

func parseSignal(section *ini.Section, address uint8, id uint32, name string) (*signals.Signal, error) {
	bitPosition, err := section.Key("bit_position").Uint()
	if err != nil {
		return nil, fmt.Errorf("invalid bit_position : %w", err)
	}
	bitSize, err := section.Key("bit_size").Uint()
	if err != nil {
		return nil, fmt.Errorf("invalid bit_size : %w", err)
	}
	if bitSize < 1 || bitSize > 64 {
		return nil, fmt.Errorf("bit_size %v outside of [1,64]", bitSize)
	}
	if bitPosition+bitSize > 64 {
		return nil, fmt.Errorf("field [%v,%v) does not fit a 64 bit payload",
			bitPosition, bitPosition+bitSize)
	}

	states, err := parseStates(section.Key("states").String())
	if err != nil {
		return nil, err
	}

	return &signals.Signal{
		GenericName:      name,
		BusAddress:       address,
		MessageID:        id,
		BitPosition:      uint8(bitPosition),
		BitSize:          uint8(bitSize),
		Factor:           section.Key("factor").MustFloat64(1),
		Offset:           section.Key("offset").MustFloat64(0),
		Min:              section.Key("min").MustFloat64(0),
		Max:              section.Key("max").MustFloat64(0),
		States:           states,
		Handler:          section.Key("handler").MustString(""),
		MaxFrequency:     section.Key("max_frequency_hz").MustFloat64(0),
		ForceSendChanged: section.Key("force_send_changed").MustBool(false),
		SendSame:         section.Key("send_same").MustBool(false),
	}, nil
}

// parseStates parses the ordered "name=value, name=value" state list.
func parseStates(raw string) ([]signals.SignalState, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var states []signals.SignalState
	for _, pair := range strings.Split(raw, ",") {
		name, value, found := strings.Cut(strings.TrimSpace(pair), "=")
		if !found {
			return nil, fmt.Errorf("invalid state %q, expected name=value", pair)
		}
		numeric, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid state value %q : %w", value, err)
		}
		states = append(states, signals.SignalState{
			Name:  strings.TrimSpace(name),
			Value: numeric,
		})
	}
	return states, nil
}
