package workplace

import "time"

const (
	MinRadiusMetres     = 10
	MaxRadiusMetres     = 5000
	DefaultRadiusMetres = 100
)

type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Workplace is the single site employees check in at. QRToken is what the
// printed QR code encodes.
type Workplace struct {
	ID                   string    `json:"id"`
	Name                 string    `json:"name"`
	Location             Location  `json:"location"`
	GeofenceRadiusMetres int       `json:"geofenceRadiusMetres"`
	QRToken              string    `json:"qrCodeToken,omitempty"`
	CreatedAt            time.Time `json:"createdAt"`
	UpdatedAt            time.Time `json:"updatedAt"`
}

// Public strips the QR token for employee-facing responses.
func (w Workplace) Public() Workplace {
	w.QRToken = ""
	return w
}
