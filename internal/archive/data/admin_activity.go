package data

import (
	"context"
	"fmt"
	"time"

	"github.com/lk2023060901/file-archive-backend/internal/archive/biz"
	"github.com/lk2023060901/file-archive-backend/internal/pkg/database"
)

// UserPO is the slice of the user table the lifecycle engine reads.
// The auth layer owns this table; the scanner only consumes identities
// and last-login timestamps, never mutates them.
type UserPO struct {
	ID          string     `gorm:"type:uuid;primarykey"`
	Username    string     `gorm:"column:username;size:100;not null;uniqueIndex"`
	IsAdmin     bool       `gorm:"column:is_admin;not null;default:false"`
	LastLoginAt *time.Time `gorm:"column:last_login_at"`
}

func (UserPO) TableName() string {
	return "users"
}

// AdminActivityRepo reads administrator last-login data
type AdminActivityRepo struct {
	db *database.DB
}

// NewAdminActivityRepo creates the read-only admin activity view
func NewAdminActivityRepo(db *database.DB) *AdminActivityRepo {
	return &AdminActivityRepo{db: db}
}

// ListAdminsWithLastLogin returns every administrator identity with its
// last authentication time; LastLoginAt is nil for admins who have
// never logged in.
func (r *AdminActivityRepo) ListAdminsWithLastLogin(ctx context.Context) ([]biz.AdminActivity, error) {
	var pos []UserPO
	err := r.db.WithContext(ctx).
		Where("is_admin = ?", true).
		Find(&pos).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list admins: %w", err)
	}

	admins := make([]biz.AdminActivity, len(pos))
	for i, po := range pos {
		admins[i] = biz.AdminActivity{
			Name:        po.Username,
			LastLoginAt: po.LastLoginAt,
		}
	}
	return admins, nil
}
