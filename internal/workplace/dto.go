package workplace

type UpdateRequest struct {
	Name                 *string   `json:"name"`
	Location             *Location `json:"location"`
	GeofenceRadiusMetres *int      `json:"geofenceRadiusMetres"`
}

type WorkplaceResponse struct {
	Workplace Workplace `json:"workplace"`
}

type RotateResponse struct {
	QRToken string `json:"qrCodeToken"`
	Message string `json:"message"`
}
