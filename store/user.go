package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/xiaozhang/xiaoblog/models"
	"github.com/xiaozhang/xiaoblog/utils"
)

// UserStore handles account persistence and the admin-floor guard.
type UserStore struct {
	db *gorm.DB
}

// NewUserStore creates a UserStore bound to db.
func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

// UserUpdate carries a partial user update; nil fields are left untouched.
type UserUpdate struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
	IsAdmin  *bool   `json:"is_admin"`
	Avatar   *string `json:"avatar"`
}

// Get returns a user by id.
func (s *UserStore) Get(id uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}

// GetByUsername returns a user by username.
func (s *UserStore) GetByUsername(username string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user by username: %w", err)
	}
	return &user, nil
}

// List returns users with pagination.
func (s *UserStore) List(page, pageSize int) ([]models.User, int64, error) {
	var users []models.User
	var total int64
	if err := s.db.Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}
	err := s.db.Order("created_at DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&users).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	return users, total, nil
}

// Create inserts a new user with a bcrypt password hash. A duplicate
// username or email yields ErrConflict.
func (s *UserStore) Create(username, email, password string, isAdmin bool) (*models.User, error) {
	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	var existing int64
	s.db.Model(&models.User{}).
		Where("username = ? OR email = ?", username, email).
		Count(&existing)
	if existing > 0 {
		return nil, ErrConflict
	}

	user := models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		IsAdmin:      isAdmin,
	}
	if err := s.db.Create(&user).Error; err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &user, nil
}

// Update applies a partial update. When the update would revoke admin from
// the last remaining admin account, the is_admin field is silently dropped
// and the rest of the update still applies. Returns the updated user and
// whether the caller must re-authenticate (own credentials changed).
func (s *UserStore) Update(id uint, patch UserUpdate, currentUserID uint) (*models.User, bool, error) {
	user, err := s.Get(id)
	if err != nil {
		return nil, false, err
	}

	if patch.IsAdmin != nil && !*patch.IsAdmin && user.IsAdmin {
		var admins int64
		if err := s.db.Model(&models.User{}).Where("is_admin = ?", true).Count(&admins).Error; err != nil {
			return nil, false, fmt.Errorf("count admins: %w", err)
		}
		if admins <= 1 {
			// last admin: keep the flag, apply the rest
			patch.IsAdmin = nil
		}
	}

	needRelogin := false
	if patch.Username != nil && *patch.Username != "" {
		user.Username = *patch.Username
		if id == currentUserID {
			needRelogin = true
		}
	}
	if patch.Email != nil && *patch.Email != "" {
		user.Email = *patch.Email
		if id == currentUserID {
			needRelogin = true
		}
	}
	if patch.Password != nil && *patch.Password != "" {
		hash, err := utils.HashPassword(*patch.Password)
		if err != nil {
			return nil, false, fmt.Errorf("hash password: %w", err)
		}
		user.PasswordHash = hash
		if id == currentUserID {
			needRelogin = true
		}
	}
	if patch.IsAdmin != nil {
		user.IsAdmin = *patch.IsAdmin
	}
	if patch.Avatar != nil {
		user.Avatar = *patch.Avatar
	}

	if err := s.db.Save(user).Error; err != nil {
		return nil, false, fmt.Errorf("update user: %w", err)
	}
	return user, needRelogin, nil
}

// FindOrCreateOAuthUser resolves an external login to a local account by the
// (provider, provider_id) pair. Usernames are display material only here: a
// password account that happens to share the external login's name is never
// matched. On first login a fresh account is created with a de-duplicated
// username and an unusable random password; on later logins the stored email
// and avatar are refreshed from the provider profile.
func (s *UserStore) FindOrCreateOAuthUser(provider, providerID, username, email, avatar string) (*models.User, error) {
	var user models.User
	err := s.db.Where("provider = ? AND provider_id = ?", provider, providerID).First(&user).Error
	if err == nil {
		updates := map[string]interface{}{"email": email, "avatar": avatar}
		if err := s.db.Model(&user).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("refresh oauth profile: %w", err)
		}
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("find oauth user: %w", err)
	}

	hash, err := utils.HashPassword(uuid.NewString())
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user = models.User{
		Username:     s.ensureUniqueUsername(username, provider, providerID),
		Email:        email,
		PasswordHash: hash,
		Provider:     provider,
		ProviderID:   providerID,
		Avatar:       avatar,
	}
	if err := s.db.Create(&user).Error; err != nil {
		return nil, fmt.Errorf("create oauth user: %w", err)
	}
	return &user, nil
}

// ensureUniqueUsername sanitizes base and appends a numeric suffix until the
// candidate is free.
func (s *UserStore) ensureUniqueUsername(base, provider, id string) string {
	base = sanitizeUsername(base)
	if base == "" {
		base = sanitizeUsername(fmt.Sprintf("%s_%s", provider, id))
		if base == "" {
			base = fmt.Sprintf("user_%s", id)
		}
	}

	candidate := base
	suffix := 1
	for {
		var count int64
		if err := s.db.Model(&models.User{}).Where("username = ?", candidate).Count(&count).Error; err != nil {
			return candidate
		}
		if count == 0 {
			return candidate
		}
		candidate = fmt.Sprintf("%s_%d", base, suffix)
		suffix++
	}
}

func sanitizeUsername(input string) string {
	input = strings.ToLower(strings.TrimSpace(input))
	var b strings.Builder
	for _, r := range input {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '_' || r == '-' || r == '.':
			b.WriteRune('_')
		}
	}
	return strings.Trim(b.String(), "_")
}

// Authenticate verifies username/password and returns the user on success.
func (s *UserStore) Authenticate(username, password string) (*models.User, error) {
	user, err := s.GetByUsername(username)
	if err != nil {
		return nil, err
	}
	if !utils.CheckPassword(user.PasswordHash, password) {
		return nil, ErrPermissionDenied
	}
	return user, nil
}

// CountAdmins returns the number of accounts holding the admin flag.
func (s *UserStore) CountAdmins() (int64, error) {
	var n int64
	if err := s.db.Model(&models.User{}).Where("is_admin = ?", true).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count admins: %w", err)
	}
	return n, nil
}
