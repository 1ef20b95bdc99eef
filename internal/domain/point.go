package domain

import (
	"database/sql/driver"
	"fmt"
	"strconv"
	"strings"
)

// Point is a geographic coordinate stored in the PostgreSQL point text form
// "(x,y)". X carries the longitude and Y the latitude.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NewPoint builds a Point from latitude and longitude.
func NewPoint(lat, lng float64) Point { return Point{X: lng, Y: lat} }

// Lat returns the latitude.
func (p Point) Lat() float64 { return p.Y }

// Lng returns the longitude.
func (p Point) Lng() float64 { return p.X }

// Value implements driver.Valuer.
func (p Point) Value() (driver.Value, error) {
	return fmt.Sprintf("(%s,%s)",
		strconv.FormatFloat(p.X, 'f', -1, 64),
		strconv.FormatFloat(p.Y, 'f', -1, 64)), nil
}

// Scan implements sql.Scanner for "(x,y)" text (PostgreSQL point output).
func (p *Point) Scan(src any) error {
	var s string
	switch v := src.(type) {
	case nil:
		*p = Point{}
		return nil
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return fmt.Errorf("domain: cannot scan %T into Point", src)
	}
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "(")
	s = strings.TrimSuffix(s, ")")
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return fmt.Errorf("domain: malformed point %q", s)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return fmt.Errorf("domain: malformed point x: %w", err)
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return fmt.Errorf("domain: malformed point y: %w", err)
	}
	p.X, p.Y = x, y
	return nil
}
