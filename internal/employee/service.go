package employee

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"geoattend-backend/internal/platform/apierr"
	"geoattend-backend/internal/platform/clock"
	"geoattend-backend/internal/platform/db"
	"geoattend-backend/internal/platform/ids"
)

const minPasswordLen = 8

type Service struct {
	store      EmployeeStore
	clock      clock.Clock
	id         ids.IDGen
	logger     *zap.Logger
	bcryptCost int
}

func NewService(store EmployeeStore, logger *zap.Logger) *Service {
	return &Service{
		store:      store,
		clock:      clock.System(),
		id:         ids.ULID(),
		logger:     logger,
		bcryptCost: bcrypt.DefaultCost,
	}
}

func (s *Service) WithClock(c clock.Clock) *Service {
	s.clock = c
	return s
}

func (s *Service) WithIDGen(g ids.IDGen) *Service {
	s.id = g
	return s
}

// WithBcryptCost lowers the hashing cost in tests.
func (s *Service) WithBcryptCost(cost int) *Service {
	s.bcryptCost = cost
	return s
}

func notFound() *apierr.Error { return apierr.NotFound("Employee not found") }

func validateName(name string) error {
	n := utf8.RuneCountInString(name)
	if n < 2 || n > 100 {
		return apierr.Invalid("name must be 2-100 characters")
	}
	return nil
}

func (s *Service) List(ctx context.Context, f Filter) ([]Employee, error) {
	if f.Status != nil && !f.Status.Valid() {
		return nil, apierr.Invalid("status must be active or inactive")
	}
	if f.Role != nil && !f.Role.Valid() {
		return nil, apierr.Invalid("role must be employee or admin")
	}
	out, err := s.store.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	if out == nil {
		out = []Employee{}
	}
	return out, nil
}

// ListActive returns active staff (role employee). It is the default set
// for paysheets and the daily overview.
func (s *Service) ListActive(ctx context.Context) ([]Employee, error) {
	active, role := StatusActive, RoleEmployee
	return s.List(ctx, Filter{Role: &role, Status: &active})
}

// GetMany returns the employees among employeeIDs that exist, ordered by name.
func (s *Service) GetMany(ctx context.Context, employeeIDs []string) ([]Employee, error) {
	out, err := s.store.GetByIDs(ctx, employeeIDs)
	if err != nil {
		return nil, fmt.Errorf("get employees: %w", err)
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Employee, error) {
	e, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get employee: %w", err)
	}
	if e == nil {
		return nil, notFound()
	}
	return e, nil
}

func (s *Service) Create(ctx context.Context, req CreateRequest) (*Employee, error) {
	name := strings.TrimSpace(req.Name)
	if err := validateName(name); err != nil {
		return nil, err
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := mail.ParseAddress(email); err != nil || !strings.Contains(email, "@") {
		return nil, apierr.Invalid("email is invalid")
	}
	if utf8.RuneCountInString(req.Password) < minPasswordLen {
		return nil, apierr.Invalid(fmt.Sprintf("password must be at least %d characters", minPasswordLen))
	}
	if !req.Role.Valid() {
		return nil, apierr.Invalid("role must be employee or admin")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	id, err := s.id.New()
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()

	e := &Employee{
		ID:           id,
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         req.Role,
		Status:       StatusActive,
		WorkplaceID:  req.WorkplaceID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.Insert(ctx, e); err != nil {
		if db.IsDuplicateKey(err) {
			return nil, apierr.Conflict("Email already in use")
		}
		return nil, fmt.Errorf("insert employee: %w", err)
	}

	s.logger.Info("employee created", zap.String("employee_id", e.ID), zap.String("role", string(e.Role)))
	return e, nil
}

func (s *Service) Update(ctx context.Context, id string, req UpdateRequest) (*Employee, error) {
	if req.Name != nil {
		trimmed := strings.TrimSpace(*req.Name)
		if err := validateName(trimmed); err != nil {
			return nil, err
		}
		req.Name = &trimmed
	}
	if req.Role != nil && !req.Role.Valid() {
		return nil, apierr.Invalid("role must be employee or admin")
	}
	if req.Status != nil && !req.Status.Valid() {
		return nil, apierr.Invalid("status must be active or inactive")
	}

	e, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		e.Name = *req.Name
	}
	if req.Role != nil {
		e.Role = *req.Role
	}
	if req.Status != nil {
		e.Status = *req.Status
	}
	if req.WorkplaceID != nil {
		e.WorkplaceID = req.WorkplaceID
	}
	e.UpdatedAt = s.clock.Now()

	if err := s.store.Update(ctx, e); err != nil {
		return nil, fmt.Errorf("update employee: %w", err)
	}
	s.logger.Info("employee updated", zap.String("employee_id", e.ID), zap.String("status", string(e.Status)))
	return e, nil
}
