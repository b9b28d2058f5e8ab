// Package compute implements the per-user compute-credit ledger.
package compute

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tensorcode/backend/internal/serviceerr"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	// ErrValidation marks rejected input.
	ErrValidation = fmt.Errorf("compute: %w", serviceerr.ErrValidation)
	// ErrInvalidEmail indicates a malformed email address.
	ErrInvalidEmail = fmt.Errorf("%w: please provide a valid email address", ErrValidation)
	// ErrInvalidComputeCount indicates a missing or negative balance.
	ErrInvalidComputeCount = fmt.Errorf("%w: compute_count must be a non-negative number", ErrValidation)
	// ErrInvalidCustomerType indicates an unknown tier.
	ErrInvalidCustomerType = fmt.Errorf("%w: customer_type must be either \"free\" or \"paid\"", ErrValidation)
	// ErrFreeLimit indicates a free balance above FreeComputeQuota.
	ErrFreeLimit = fmt.Errorf("%w: free customers cannot have more than %d compute count", ErrValidation, FreeComputeQuota)
	// ErrPaidLimit indicates a paid balance above PaidComputeCap.
	ErrPaidLimit = fmt.Errorf("%w: paid customers cannot have more than %d compute count", ErrValidation, PaidComputeCap)
	// ErrUserNotFound indicates no ledger row exists for the email.
	ErrUserNotFound = fmt.Errorf("compute: no user found with this email address: %w", serviceerr.ErrNotFound)
	// ErrLimitExceeded indicates the balance is exhausted.
	ErrLimitExceeded = fmt.Errorf("compute: you don't have enough compute credits: %w", serviceerr.ErrQuotaExceeded)

	errMissingDatabase = errors.New("database handle is required")
)

const (
	opServiceNew  = "compute.service.new"
	opGetOrCreate = "compute.get_or_create"
	opCheckExpiry = "compute.check_expiry"
	opConsume     = "compute.consume"
	opSetState    = "compute.set_state"
	opDelete      = "compute.delete"
)

// ServiceConfig describes the dependencies of the compute-credit service.
type ServiceConfig struct {
	Database *gorm.DB
	Clock    func() time.Time
	Logger   *zap.Logger
}

// Service manages user quotas. It holds no per-user state between calls.
type Service struct {
	db     *gorm.DB
	clock  func() time.Time
	logger *zap.Logger
}

// NewService validates cfg and constructs a Service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, serviceerr.New(opServiceNew, "missing_database", errMissingDatabase)
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Service{
		db:     cfg.Database,
		clock:  clock,
		logger: serviceerr.Logger(cfg.Logger),
	}, nil
}

// StateChange is an administrative overwrite of a user's balance and tier.
type StateChange struct {
	Email        string
	ComputeCount *int
	CustomerType CustomerType
}

// GetOrCreate returns the user for email, inserting a free user with the default quota when absent.
func (s *Service) GetOrCreate(ctx context.Context, email string) (User, error) {
	email = normalizeEmail(email)
	if !ValidEmail(email) {
		return User{}, ErrInvalidEmail
	}

	user, err := s.find(ctx, email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return User{}, s.fail(opGetOrCreate, "select_failed", err, email)
	}

	user = User{
		Email:        email,
		CustomerType: CustomerFree,
		ComputeCount: FreeComputeQuota,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return User{}, s.fail(opGetOrCreate, "insert_failed", err, email)
	}
	return s.reload(ctx, opGetOrCreate, email)
}

// CheckExpiry downgrades a paid user whose enrollment is older than EnrollmentWindow.
// Re-checking an already downgraded user is a no-op.
func (s *Service) CheckExpiry(ctx context.Context, user User) (User, error) {
	if user.CustomerType != CustomerPaid || !EnrollmentExpired(user.EnrollmentDate, s.clock()) {
		return user, nil
	}

	err := s.db.WithContext(ctx).
		Model(&User{}).
		Where("user_email = ?", user.Email).
		Updates(map[string]any{
			"customer_type":   CustomerFree,
			"compute_count":   FreeComputeQuota,
			"enrollment_date": nil,
		}).Error
	if err != nil {
		return User{}, s.fail(opCheckExpiry, "downgrade_failed", err, user.Email)
	}

	s.logger.Info("paid enrollment expired",
		zap.String("email", user.Email),
		zap.Timep("enrollment_date", user.EnrollmentDate))

	user.CustomerType = CustomerFree
	user.ComputeCount = FreeComputeQuota
	user.EnrollmentDate = nil
	return user, nil
}

// Get returns the current ledger state for email after applying the expiry check.
func (s *Service) Get(ctx context.Context, email string) (User, error) {
	user, err := s.GetOrCreate(ctx, email)
	if err != nil {
		return User{}, err
	}
	return s.CheckExpiry(ctx, user)
}

// Consume spends one credit. The read and the write are separate statements.
func (s *Service) Consume(ctx context.Context, email string) (User, error) {
	user, err := s.Get(ctx, email)
	if err != nil {
		return User{}, err
	}
	if user.ComputeCount <= 0 {
		return user, ErrLimitExceeded
	}

	remaining := user.ComputeCount - 1
	err = s.db.WithContext(ctx).
		Model(&User{}).
		Where("user_email = ?", user.Email).
		Update("compute_count", remaining).Error
	if err != nil {
		return User{}, s.fail(opConsume, "update_failed", err, user.Email)
	}
	user.ComputeCount = remaining
	return user, nil
}

// SetState overwrites the balance and optionally the tier of an existing user.
// Moving free to paid stamps a new enrollment date, paid to free clears it.
func (s *Service) SetState(ctx context.Context, change StateChange) (User, error) {
	email := normalizeEmail(change.Email)
	if !ValidEmail(email) {
		return User{}, ErrInvalidEmail
	}
	if change.ComputeCount == nil || *change.ComputeCount < 0 {
		return User{}, ErrInvalidComputeCount
	}
	if change.CustomerType != "" && !ValidCustomerType(change.CustomerType) {
		return User{}, ErrInvalidCustomerType
	}

	user, err := s.find(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		return User{}, err
	}
	if err != nil {
		return User{}, s.fail(opSetState, "select_failed", err, email)
	}

	nextType := change.CustomerType
	if nextType == "" {
		nextType = user.CustomerType
	}
	count := *change.ComputeCount
	if nextType == CustomerFree && count > FreeComputeQuota {
		return User{}, ErrFreeLimit
	}
	if nextType == CustomerPaid && count > PaidComputeCap {
		return User{}, ErrPaidLimit
	}

	enrollment := user.EnrollmentDate
	switch {
	case user.CustomerType == CustomerFree && nextType == CustomerPaid:
		now := s.clock().UTC()
		enrollment = &now
	case user.CustomerType == CustomerPaid && nextType == CustomerFree:
		enrollment = nil
	}

	err = s.db.WithContext(ctx).
		Model(&User{}).
		Where("user_email = ?", email).
		Updates(map[string]any{
			"compute_count":   count,
			"customer_type":   nextType,
			"enrollment_date": enrollment,
		}).Error
	if err != nil {
		return User{}, s.fail(opSetState, "update_failed", err, email)
	}

	user.ComputeCount = count
	user.CustomerType = nextType
	user.EnrollmentDate = enrollment
	return user, nil
}

// Delete removes the ledger row for email.
func (s *Service) Delete(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if !ValidEmail(email) {
		return ErrInvalidEmail
	}
	if _, err := s.find(ctx, email); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return err
		}
		return s.fail(opDelete, "select_failed", err, email)
	}
	if err := s.db.WithContext(ctx).Where("user_email = ?", email).Delete(&User{}).Error; err != nil {
		return s.fail(opDelete, "delete_failed", err, email)
	}
	return nil
}

func (s *Service) find(ctx context.Context, email string) (User, error) {
	var user User
	err := s.db.WithContext(ctx).Where("user_email = ?", email).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return User{}, ErrUserNotFound
	}
	if err != nil {
		return User{}, err
	}
	return user, nil
}

func (s *Service) reload(ctx context.Context, operation, email string) (User, error) {
	user, err := s.find(ctx, email)
	if err != nil {
		return User{}, s.fail(operation, "reload_failed", err, email)
	}
	return user, nil
}

func (s *Service) fail(operation, reason string, err error, email string) error {
	serviceerr.Log(s.logger, "compute service error", operation, reason, err, zap.String("email", email))
	return serviceerr.New(operation, reason, err)
}
