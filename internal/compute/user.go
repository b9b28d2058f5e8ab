package compute

import (
	"regexp"
	"strings"
	"time"
)

// CustomerType distinguishes quota tiers.
type CustomerType string

const (
	CustomerFree CustomerType = "free"
	CustomerPaid CustomerType = "paid"
)

const (
	// FreeComputeQuota is the balance granted to new and downgraded users.
	FreeComputeQuota = 100
	// PaidComputeCap bounds administrative balances for paid users.
	PaidComputeCap = 10000
	// EnrollmentWindow is how long a paid enrollment lasts.
	EnrollmentWindow = 30 * 24 * time.Hour
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// User is a compute-credit ledger row keyed by email.
type User struct {
	ID             uint         `gorm:"column:id;primaryKey;autoIncrement"`
	Email          string       `gorm:"column:user_email;size:320;not null;uniqueIndex"`
	CustomerType   CustomerType `gorm:"column:customer_type;size:16;not null;default:free"`
	ComputeCount   int          `gorm:"column:compute_count;not null;default:100"`
	EnrollmentDate *time.Time   `gorm:"column:enrollment_date"`
	CreatedAt      time.Time    `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time    `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName binds User to the users table.
func (User) TableName() string {
	return "users"
}

// ValidEmail reports whether email has a local part, a domain and a dot in the domain.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// ValidCustomerType reports whether value names a known tier.
func ValidCustomerType(value CustomerType) bool {
	return value == CustomerFree || value == CustomerPaid
}

// EnrollmentExpired reports whether more than EnrollmentWindow has passed since enrolledAt.
func EnrollmentExpired(enrolledAt *time.Time, now time.Time) bool {
	if enrolledAt == nil {
		return false
	}
	return now.Sub(*enrolledAt) > EnrollmentWindow
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(email)
}
