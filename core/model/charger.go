package model

import (
	"fmt"
	"strings"
)

// ChargerType identifies the kind of charging bay a truck requires.
type ChargerType int

const (
	ChargerNCS ChargerType = iota
	ChargerHPC
	ChargerMCS
)

// ChargerTypes lists all charger types in processing order.
var ChargerTypes = []ChargerType{ChargerNCS, ChargerHPC, ChargerMCS}

// String returns a human-readable representation of the charger type.
func (c ChargerType) String() string {
	switch c {
	case ChargerNCS:
		return "NCS"
	case ChargerHPC:
		return "HPC"
	case ChargerMCS:
		return "MCS"
	default:
		return "unknown"
	}
}

// RatedPowerKW is the nominal bay power before scenario scaling.
func (c ChargerType) RatedPowerKW() float64 {
	switch c {
	case ChargerNCS:
		return 100
	case ChargerHPC:
		return 350
	case ChargerMCS:
		return 1000
	default:
		return 0
	}
}

// ParseChargerType converts a table value such as "HPC" to a ChargerType.
func ParseChargerType(s string) (ChargerType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "NCS":
		return ChargerNCS, nil
	case "HPC":
		return ChargerHPC, nil
	case "MCS":
		return ChargerMCS, nil
	default:
		return 0, fmt.Errorf("unknown charger type %q", s)
	}
}

// PauseType categorises the stay of a truck at the hub.
type PauseType int

const (
	PauseUnknown PauseType = iota
	// PauseFast is a short driver break (Schnelllader).
	PauseFast
	// PauseNight is an overnight rest (Nachtlader).
	PauseNight
)

func (p PauseType) String() string {
	switch p {
	case PauseFast:
		return "Schnelllader"
	case PauseNight:
		return "Nachtlader"
	default:
		return "unknown"
	}
}

// ParsePauseType maps the table value to a PauseType. Unrecognised values map
// to PauseUnknown so that the caller decides whether this is fatal.
func ParsePauseType(s string) PauseType {
	switch strings.TrimSpace(s) {
	case "Schnelllader":
		return PauseFast
	case "Nachtlader":
		return PauseNight
	default:
		return PauseUnknown
	}
}
