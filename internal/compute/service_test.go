package compute

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func newTestService(testContext *testing.T) (*Service, *gorm.DB, *fakeClock) {
	testContext.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(testContext.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		testContext.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&User{}); err != nil {
		testContext.Fatalf("failed to migrate users: %v", err)
	}
	clock := &fakeClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	service, err := NewService(ServiceConfig{Database: db, Clock: clock.Now})
	if err != nil {
		testContext.Fatalf("failed to create service: %v", err)
	}
	return service, db, clock
}

func intPtr(value int) *int {
	return &value
}

func TestNewServiceRequiresDatabase(testContext *testing.T) {
	if _, err := NewService(ServiceConfig{}); err == nil {
		testContext.Fatalf("expected error without database")
	}
}

func TestValidEmail(testContext *testing.T) {
	cases := map[string]bool{
		"user@example.com":   true,
		"a.b@c.d":            true,
		"missing-at.example": false,
		"user@nodot":         false,
		"user name@x.io":     false,
		"":                   false,
	}
	for input, expected := range cases {
		if got := ValidEmail(input); got != expected {
			testContext.Fatalf("ValidEmail(%q) = %v, want %v", input, got, expected)
		}
	}
}

func TestEnrollmentExpired(testContext *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	exactly := now.Add(-EnrollmentWindow)
	older := exactly.Add(-time.Second)
	if EnrollmentExpired(nil, now) {
		testContext.Fatalf("nil enrollment must not expire")
	}
	if EnrollmentExpired(&exactly, now) {
		testContext.Fatalf("enrollment at the window boundary must not expire")
	}
	if !EnrollmentExpired(&older, now) {
		testContext.Fatalf("enrollment older than the window must expire")
	}
}

func TestGetOrCreateIsIdempotent(testContext *testing.T) {
	service, db, _ := newTestService(testContext)
	ctx := context.Background()

	first, err := service.GetOrCreate(ctx, "learner@example.com")
	if err != nil {
		testContext.Fatalf("first getOrCreate failed: %v", err)
	}
	if first.CustomerType != CustomerFree || first.ComputeCount != FreeComputeQuota || first.EnrollmentDate != nil {
		testContext.Fatalf("unexpected new user state: %+v", first)
	}

	second, err := service.GetOrCreate(ctx, "learner@example.com")
	if err != nil {
		testContext.Fatalf("second getOrCreate failed: %v", err)
	}
	if second.ID != first.ID || second.ComputeCount != first.ComputeCount || second.CustomerType != first.CustomerType {
		testContext.Fatalf("expected identical rows, got %+v and %+v", first, second)
	}

	var count int64
	if err := db.Model(&User{}).Count(&count).Error; err != nil {
		testContext.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		testContext.Fatalf("expected a single user row, got %d", count)
	}
}

func TestGetOrCreateRejectsInvalidEmail(testContext *testing.T) {
	service, _, _ := newTestService(testContext)
	if _, err := service.GetOrCreate(context.Background(), "not-an-email"); !errors.Is(err, ErrInvalidEmail) {
		testContext.Fatalf("expected invalid email error, got %v", err)
	}
	if !errors.Is(ErrInvalidEmail, ErrValidation) {
		testContext.Fatalf("invalid email must be a validation error")
	}
}

func TestConsumeDecrementsAndStopsAtZero(testContext *testing.T) {
	service, _, _ := newTestService(testContext)
	ctx := context.Background()
	email := "spender@example.com"

	user, err := service.Consume(ctx, email)
	if err != nil {
		testContext.Fatalf("consume failed: %v", err)
	}
	if user.ComputeCount != FreeComputeQuota-1 {
		testContext.Fatalf("expected %d credits, got %d", FreeComputeQuota-1, user.ComputeCount)
	}

	if _, err := service.SetState(ctx, StateChange{Email: email, ComputeCount: intPtr(0)}); err != nil {
		testContext.Fatalf("setState failed: %v", err)
	}
	if _, err := service.Consume(ctx, email); !errors.Is(err, ErrLimitExceeded) {
		testContext.Fatalf("expected limit exceeded, got %v", err)
	}
	after, err := service.Get(ctx, email)
	if err != nil {
		testContext.Fatalf("get failed: %v", err)
	}
	if after.ComputeCount != 0 {
		testContext.Fatalf("expected balance to stay at zero, got %d", after.ComputeCount)
	}
}

func TestExpiredPaidUserIsDowngradedOnce(testContext *testing.T) {
	service, db, clock := newTestService(testContext)
	ctx := context.Background()
	email := "subscriber@example.com"

	if _, err := service.GetOrCreate(ctx, email); err != nil {
		testContext.Fatalf("getOrCreate failed: %v", err)
	}
	paid, err := service.SetState(ctx, StateChange{Email: email, ComputeCount: intPtr(5000), CustomerType: CustomerPaid})
	if err != nil {
		testContext.Fatalf("upgrade failed: %v", err)
	}
	if paid.EnrollmentDate == nil || !paid.EnrollmentDate.Equal(clock.now) {
		testContext.Fatalf("expected enrollment date %v, got %v", clock.now, paid.EnrollmentDate)
	}

	clock.now = clock.now.Add(EnrollmentWindow + time.Hour)

	downgraded, err := service.Get(ctx, email)
	if err != nil {
		testContext.Fatalf("get failed: %v", err)
	}
	if downgraded.CustomerType != CustomerFree || downgraded.ComputeCount != FreeComputeQuota || downgraded.EnrollmentDate != nil {
		testContext.Fatalf("expected free/100/nil after expiry, got %+v", downgraded)
	}

	var stored User
	if err := db.Where("user_email = ?", email).Take(&stored).Error; err != nil {
		testContext.Fatalf("reload failed: %v", err)
	}
	if stored.CustomerType != CustomerFree || stored.EnrollmentDate != nil {
		testContext.Fatalf("expected downgrade to be persisted, got %+v", stored)
	}

	consumed, err := service.Consume(ctx, email)
	if err != nil {
		testContext.Fatalf("consume after downgrade failed: %v", err)
	}
	if consumed.ComputeCount != FreeComputeQuota-1 {
		testContext.Fatalf("expected re-check to be a no-op, got %d credits", consumed.ComputeCount)
	}
}

func TestSetStateValidation(testContext *testing.T) {
	service, _, _ := newTestService(testContext)
	ctx := context.Background()
	email := "admin-target@example.com"
	if _, err := service.GetOrCreate(ctx, email); err != nil {
		testContext.Fatalf("getOrCreate failed: %v", err)
	}

	cases := []struct {
		name     string
		change   StateChange
		expected error
	}{
		{name: "bad email", change: StateChange{Email: "nope", ComputeCount: intPtr(1)}, expected: ErrInvalidEmail},
		{name: "missing count", change: StateChange{Email: email}, expected: ErrInvalidComputeCount},
		{name: "negative count", change: StateChange{Email: email, ComputeCount: intPtr(-1)}, expected: ErrInvalidComputeCount},
		{name: "unknown type", change: StateChange{Email: email, ComputeCount: intPtr(1), CustomerType: "gold"}, expected: ErrInvalidCustomerType},
		{name: "free over cap", change: StateChange{Email: email, ComputeCount: intPtr(101), CustomerType: CustomerFree}, expected: ErrFreeLimit},
		{name: "free over cap implicit", change: StateChange{Email: email, ComputeCount: intPtr(101)}, expected: ErrFreeLimit},
		{name: "paid over cap", change: StateChange{Email: email, ComputeCount: intPtr(10001), CustomerType: CustomerPaid}, expected: ErrPaidLimit},
		{name: "unknown user", change: StateChange{Email: "ghost@example.com", ComputeCount: intPtr(1)}, expected: ErrUserNotFound},
	}
	for _, testCase := range cases {
		testContext.Run(testCase.name, func(testContext *testing.T) {
			if _, err := service.SetState(ctx, testCase.change); !errors.Is(err, testCase.expected) {
				testContext.Fatalf("expected %v, got %v", testCase.expected, err)
			}
		})
	}
}

func TestSetStateTransitions(testContext *testing.T) {
	service, _, clock := newTestService(testContext)
	ctx := context.Background()
	email := "tiered@example.com"
	if _, err := service.GetOrCreate(ctx, email); err != nil {
		testContext.Fatalf("getOrCreate failed: %v", err)
	}

	paid, err := service.SetState(ctx, StateChange{Email: email, ComputeCount: intPtr(10000), CustomerType: CustomerPaid})
	if err != nil {
		testContext.Fatalf("upgrade failed: %v", err)
	}
	if paid.EnrollmentDate == nil {
		testContext.Fatalf("expected enrollment date after upgrade")
	}
	enrolledAt := *paid.EnrollmentDate

	clock.now = clock.now.Add(24 * time.Hour)
	samePaid, err := service.SetState(ctx, StateChange{Email: email, ComputeCount: intPtr(42), CustomerType: CustomerPaid})
	if err != nil {
		testContext.Fatalf("paid update failed: %v", err)
	}
	if samePaid.EnrollmentDate == nil || !samePaid.EnrollmentDate.Equal(enrolledAt) {
		testContext.Fatalf("expected enrollment date to stay %v, got %v", enrolledAt, samePaid.EnrollmentDate)
	}

	free, err := service.SetState(ctx, StateChange{Email: email, ComputeCount: intPtr(50), CustomerType: CustomerFree})
	if err != nil {
		testContext.Fatalf("downgrade failed: %v", err)
	}
	if free.EnrollmentDate != nil || free.ComputeCount != 50 {
		testContext.Fatalf("expected cleared enrollment and 50 credits, got %+v", free)
	}
}

func TestDelete(testContext *testing.T) {
	service, _, _ := newTestService(testContext)
	ctx := context.Background()
	email := "leaving@example.com"
	if _, err := service.GetOrCreate(ctx, email); err != nil {
		testContext.Fatalf("getOrCreate failed: %v", err)
	}
	if err := service.Delete(ctx, email); err != nil {
		testContext.Fatalf("delete failed: %v", err)
	}
	if err := service.Delete(ctx, email); !errors.Is(err, ErrUserNotFound) {
		testContext.Fatalf("expected not found on second delete, got %v", err)
	}
}
