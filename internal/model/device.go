package model

// Default resolution used when a device is not known to the directory.
const (
	DefaultWidth  = 1920
	DefaultHeight = 1080

	// MaxDimension bounds either side of a panel in pixels.
	MaxDimension = 16384
)

// Resolution is the physical pixel size of an LED panel.
type Resolution struct {
	Width  int `db:"width"  json:"width"`
	Height int `db:"height" json:"height"`
}

// Valid reports whether both dimensions are in 1..MaxDimension.
func (r Resolution) Valid() bool {
	return r.Width > 0 && r.Height > 0 && r.Width <= MaxDimension && r.Height <= MaxDimension
}

// Aspect returns width/height.
func (r Resolution) Aspect() float64 {
	return float64(r.Width) / float64(r.Height)
}

// DefaultResolution is the 1920x1080 fallback.
func DefaultResolution() Resolution {
	return Resolution{Width: DefaultWidth, Height: DefaultHeight}
}

// Device represents a signage panel as supplied by the device directory.
type Device struct {
	DeviceID   string     `db:"device_id" json:"device_id"`
	Name       string     `db:"name"      json:"name"`
	Resolution Resolution `db:"-"         json:"resolution"`
}
