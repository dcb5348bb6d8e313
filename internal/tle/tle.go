// Package tle seeds bodies from two-line element sets using the SGP4
// propagator in github.com/joshuaferrara/go-satellite.
package tle

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/debrisim/internal/dynamo"
)

var (
	ErrFormat    = errors.New("tle: malformed element set")
	ErrPropagate = errors.New("tle: propagation failed")
)

// Element is one named two-line element set.
type Element struct {
	Name  string
	Line1 string
	Line2 string
}

// Validate checks the line layout before the lines reach go-satellite, which
// terminates the process on parse errors.
func (e Element) Validate() error {
	l1 := strings.TrimSpace(e.Line1)
	l2 := strings.TrimSpace(e.Line2)

	if len(l1) != 69 {
		return fmt.Errorf("%s: line1 length %d, expected 69: %w", e.Name, len(l1), ErrFormat)
	}
	if len(l2) != 69 {
		return fmt.Errorf("%s: line2 length %d, expected 69: %w", e.Name, len(l2), ErrFormat)
	}
	if l1[0] != '1' {
		return fmt.Errorf("%s: line1 must start with '1', got '%c': %w", e.Name, l1[0], ErrFormat)
	}
	if l2[0] != '2' {
		return fmt.Errorf("%s: line2 must start with '2', got '%c': %w", e.Name, l2[0], ErrFormat)
	}
	for i, line := range [...]string{l1, l2} {
		if want := checksum(line); line[68] != want {
			return fmt.Errorf("%s: line%d checksum %c, expected %c: %w", e.Name, i+1, line[68], want, ErrFormat)
		}
	}
	return checkFields(e.Name, l1, l2)
}

// checksum is the modulo-10 sum of the digits in the first 68 columns, with
// each minus sign counting as one.
func checksum(line string) byte {
	sum := 0
	for _, c := range line[:68] {
		switch {
		case c >= '0' && c <= '9':
			sum += int(c - '0')
		case c == '-':
			sum++
		}
	}
	return byte('0' + sum%10)
}

// checkFields parses the numeric columns exactly as the propagator slices
// them.
func checkFields(name, l1, l2 string) error {
	squeeze := func(s string) string { return strings.Replace(s, " ", "", 2) }

	ints := []struct {
		field, val string
	}{
		{"satellite number", strings.TrimSpace(l1[2:7])},
		{"epoch year", l1[18:20]},
	}
	for _, f := range ints {
		if _, err := strconv.ParseInt(f.val, 10, 64); err != nil {
			return fmt.Errorf("%s: %s %q: %w", name, f.field, f.val, ErrFormat)
		}
	}

	floats := []struct {
		field, val string
	}{
		{"epoch day", l1[20:32]},
		{"mean motion derivative", squeeze(l1[33:43])},
		{"mean motion second derivative", squeeze(l1[44:45] + "." + l1[45:50] + "e" + l1[50:52])},
		{"bstar", squeeze(l1[53:54] + "." + l1[54:59] + "e" + l1[59:61])},
		{"inclination", squeeze(l2[8:16])},
		{"right ascension", squeeze(l2[17:25])},
		{"eccentricity", "." + l2[26:33]},
		{"argument of perigee", squeeze(l2[34:42])},
		{"mean anomaly", squeeze(l2[43:51])},
		{"mean motion", squeeze(l2[52:63])},
	}
	for _, f := range floats {
		if _, err := strconv.ParseFloat(f.val, 64); err != nil {
			return fmt.Errorf("%s: %s %q: %w", name, f.field, f.val, ErrFormat)
		}
	}
	return nil
}

// State propagates the element set to epoch and returns position and
// velocity in metres and m/s (TEME frame, treated as inertial).
func (e Element) State(epoch time.Time) (pos, vel dynamo.Vec, err error) {
	if err := e.Validate(); err != nil {
		return pos, vel, err
	}

	sat := satellite.TLEToSat(strings.TrimSpace(e.Line1), strings.TrimSpace(e.Line2), satellite.GravityWGS84)
	if sat.Error != 0 {
		return pos, vel, fmt.Errorf("%s: sgp4 init code=%d %s: %w", e.Name, sat.Error, sat.ErrorStr, ErrPropagate)
	}

	u := epoch.UTC()
	p, v := satellite.Propagate(sat, u.Year(), int(u.Month()), u.Day(), u.Hour(), u.Minute(), u.Second())

	pos = dynamo.Vec{X: p.X, Y: p.Y, Z: p.Z}
	vel = dynamo.Vec{X: v.X, Y: v.Y, Z: v.Z}
	for _, c := range [...]float64{pos.X, pos.Y, pos.Z, vel.X, vel.Y, vel.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return dynamo.Vec{}, dynamo.Vec{}, fmt.Errorf("%s: non-finite output at %s: %w", e.Name, u.Format(time.RFC3339), ErrPropagate)
		}
	}

	return r3.Scale(1000, pos), r3.Scale(1000, vel), nil
}

// Body builds an active body of the given mass at epoch.
func (e Element) Body(mass float64, epoch time.Time) (*dynamo.Body, error) {
	pos, vel, err := e.State(epoch)
	if err != nil {
		return nil, err
	}
	return dynamo.NewBody(e.Name, pos, vel, mass)
}
