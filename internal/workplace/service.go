package workplace

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"geoattend-backend/internal/platform/apierr"
	"geoattend-backend/internal/platform/clock"
	"geoattend-backend/internal/platform/ids"
)

type Service struct {
	store  WorkplaceStore
	clock  clock.Clock
	id     ids.IDGen
	logger *zap.Logger
}

func NewService(store WorkplaceStore, logger *zap.Logger) *Service {
	return &Service{store: store, clock: clock.System(), id: ids.ULID(), logger: logger}
}

func (s *Service) WithClock(c clock.Clock) *Service {
	s.clock = c
	return s
}

func (s *Service) WithIDGen(g ids.IDGen) *Service {
	s.id = g
	return s
}

func notConfigured() *apierr.Error {
	return apierr.NotFound("Workplace not configured")
}

// LookupByQRToken gates every check-in and check-out.
func (s *Service) LookupByQRToken(ctx context.Context, token string) (*Workplace, error) {
	if strings.TrimSpace(token) == "" {
		return nil, apierr.InvalidQRToken()
	}
	w, err := s.store.GetByQRToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("lookup workplace by token: %w", err)
	}
	if w == nil {
		return nil, apierr.InvalidQRToken()
	}
	return w, nil
}

func (s *Service) Get(ctx context.Context) (*Workplace, error) {
	w, err := s.store.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("get workplace: %w", err)
	}
	if w == nil {
		return nil, notConfigured()
	}
	return w, nil
}

func validateUpdate(req UpdateRequest) error {
	if req.Name != nil {
		n := utf8.RuneCountInString(strings.TrimSpace(*req.Name))
		if n < 1 || n > 100 {
			return apierr.Invalid("name must be 1-100 characters")
		}
	}
	if req.Location != nil {
		if err := ValidateLocation(*req.Location); err != nil {
			return err
		}
	}
	if req.GeofenceRadiusMetres != nil {
		r := *req.GeofenceRadiusMetres
		if r < MinRadiusMetres || r > MaxRadiusMetres {
			return apierr.Invalid(fmt.Sprintf("geofenceRadiusMetres must be between %d and %d", MinRadiusMetres, MaxRadiusMetres))
		}
	}
	return nil
}

func ValidateLocation(l Location) error {
	if l.Lat < -90 || l.Lat > 90 || l.Lng < -180 || l.Lng > 180 {
		return apierr.Invalid("location is out of range")
	}
	return nil
}

// Update patches the workplace, creating it on first use. Creation needs a
// name and a location.
func (s *Service) Update(ctx context.Context, req UpdateRequest) (*Workplace, error) {
	if err := validateUpdate(req); err != nil {
		return nil, err
	}

	w, err := s.store.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("get workplace: %w", err)
	}
	now := s.clock.Now()

	if w == nil {
		if req.Name == nil || req.Location == nil {
			return nil, apierr.Invalid("name and location are required to configure the workplace")
		}
		id, err := s.id.New()
		if err != nil {
			return nil, err
		}
		token, err := s.id.New()
		if err != nil {
			return nil, err
		}
		w = &Workplace{
			ID:                   id,
			GeofenceRadiusMetres: DefaultRadiusMetres,
			QRToken:              token,
			CreatedAt:            now,
		}
		applyUpdate(w, req)
		w.UpdatedAt = now
		if err := s.store.Insert(ctx, w); err != nil {
			return nil, fmt.Errorf("insert workplace: %w", err)
		}
		s.logger.Info("workplace configured", zap.String("workplace_id", w.ID))
		return w, nil
	}

	applyUpdate(w, req)
	w.UpdatedAt = now
	if err := s.store.Update(ctx, w); err != nil {
		return nil, fmt.Errorf("update workplace: %w", err)
	}
	s.logger.Info("workplace updated", zap.String("workplace_id", w.ID))
	return w, nil
}

func applyUpdate(w *Workplace, req UpdateRequest) {
	if req.Name != nil {
		w.Name = strings.TrimSpace(*req.Name)
	}
	if req.Location != nil {
		w.Location = *req.Location
	}
	if req.GeofenceRadiusMetres != nil {
		w.GeofenceRadiusMetres = *req.GeofenceRadiusMetres
	}
}

// RotateToken invalidates the printed QR code by issuing a new token.
func (s *Service) RotateToken(ctx context.Context) (string, error) {
	w, err := s.Get(ctx)
	if err != nil {
		return "", err
	}
	token, err := s.id.New()
	if err != nil {
		return "", err
	}
	n, err := s.store.UpdateQRToken(ctx, w.ID, token, s.clock.Now())
	if err != nil {
		return "", fmt.Errorf("rotate qr token: %w", err)
	}
	if n == 0 {
		return "", notConfigured()
	}
	s.logger.Info("qr token rotated", zap.String("workplace_id", w.ID))
	return token, nil
}
