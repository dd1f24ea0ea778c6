package infrastructure

import (
	"context"
	"errors"
	"strings"
	"time"

	"Ecotrack/internal/domain/identity"
	appErrors "Ecotrack/internal/errors"
	"Ecotrack/internal/pkg"

	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"
)

type AdminRepository struct {
	DB *gorm.DB
}

type CitizenRepository struct {
	DB *gorm.DB
}

type TokenRepository struct {
	DB *gorm.DB
}

type adminDB struct {
	Id        string `gorm:"type:varchar(26);primaryKey"`
	Name      string `gorm:"not null"`
	Email     string `gorm:"uniqueIndex;not null"`
	Password  string `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (adminDB) TableName() string { return "admins" }

type citizenDB struct {
	Id        string `gorm:"type:varchar(26);primaryKey"`
	Name      string `gorm:"not null"`
	Email     string `gorm:"uniqueIndex;not null"`
	Password  string `gorm:"not null"`
	Phone     string
	PhotoPath string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (citizenDB) TableName() string { return "users" }

type tokenDB struct {
	Id         string `gorm:"type:varchar(26);primaryKey"`
	OwnerId    string `gorm:"type:varchar(26);index:idx_tokens_owner;not null"`
	OwnerKind  string `gorm:"type:varchar(16);index:idx_tokens_owner;not null"`
	Name       string
	LastUsedAt *time.Time
	ExpiresAt  time.Time `gorm:"not null"`
	CreatedAt  time.Time
}

func (tokenDB) TableName() string { return "personal_access_tokens" }

func toDomainAdmin(a *adminDB) (*identity.Admin, error) {
	id, err := pkg.ParseULID(a.Id)
	if err != nil {
		return nil, appErrors.ErrInternalServer.WithError(err)
	}
	return &identity.Admin{
		Id:        id,
		Name:      a.Name,
		Email:     a.Email,
		Password:  a.Password,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}, nil
}

func toDBAdmin(a *identity.Admin) *adminDB {
	return &adminDB{
		Id:        a.Id.String(),
		Name:      a.Name,
		Email:     a.Email,
		Password:  a.Password,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

func toDomainCitizen(c *citizenDB) (*identity.Citizen, error) {
	id, err := pkg.ParseULID(c.Id)
	if err != nil {
		return nil, appErrors.ErrInternalServer.WithError(err)
	}
	return &identity.Citizen{
		Id:        id,
		Name:      c.Name,
		Email:     c.Email,
		Password:  c.Password,
		Phone:     c.Phone,
		PhotoPath: c.PhotoPath,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}, nil
}

func toDBCitizen(c *identity.Citizen) *citizenDB {
	return &citizenDB{
		Id:        c.Id.String(),
		Name:      c.Name,
		Email:     c.Email,
		Password:  c.Password,
		Phone:     c.Phone,
		PhotoPath: c.PhotoPath,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func toDomainToken(t *tokenDB) (*identity.AuthToken, error) {
	id, err := pkg.ParseULID(t.Id)
	if err != nil {
		return nil, appErrors.ErrInternalServer.WithError(err)
	}
	owner, err := pkg.ParseULID(t.OwnerId)
	if err != nil {
		return nil, appErrors.ErrInternalServer.WithError(err)
	}
	return &identity.AuthToken{
		Id:         id,
		OwnerId:    owner,
		OwnerKind:  identity.Role(t.OwnerKind),
		Name:       t.Name,
		LastUsedAt: t.LastUsedAt,
		ExpiresAt:  t.ExpiresAt,
		CreatedAt:  t.CreatedAt,
	}, nil
}

func (r *AdminRepository) Create(ctx context.Context, a *identity.Admin) error {
	if err := r.DB.WithContext(ctx).Create(toDBAdmin(a)).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return appErrors.NewValidationError("email", "Email já cadastrado")
		}
		return appErrors.NewDatabaseError(err)
	}
	return nil
}

func (r *AdminRepository) Update(ctx context.Context, a *identity.Admin) error {
	result := r.DB.WithContext(ctx).Table("admins").Where("id = ?", a.Id.String()).Updates(map[string]interface{}{
		"name":       a.Name,
		"email":      a.Email,
		"password":   a.Password,
		"updated_at": a.UpdatedAt,
	})
	if result.Error != nil {
		return appErrors.NewDatabaseError(result.Error)
	}
	if result.RowsAffected == 0 {
		return appErrors.ErrAdminNotFound
	}
	return nil
}

func (r *AdminRepository) GetById(ctx context.Context, id ulid.ULID) (*identity.Admin, error) {
	var row adminDB
	if err := r.DB.WithContext(ctx).Table("admins").Where("id = ?", id.String()).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, appErrors.ErrAdminNotFound.WithError(err)
		}
		return nil, appErrors.NewDatabaseError(err)
	}
	return toDomainAdmin(&row)
}

func (r *AdminRepository) GetByEmail(ctx context.Context, email string) (*identity.Admin, error) {
	var row adminDB
	if err := r.DB.WithContext(ctx).Table("admins").Where("email = ?", email).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, appErrors.ErrAdminNotFound.WithError(err)
		}
		return nil, appErrors.NewDatabaseError(err)
	}
	return toDomainAdmin(&row)
}

func (r *CitizenRepository) Create(ctx context.Context, c *identity.Citizen) error {
	if err := r.DB.WithContext(ctx).Create(toDBCitizen(c)).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return appErrors.NewValidationError("email", "Email já cadastrado")
		}
		return appErrors.NewDatabaseError(err)
	}
	return nil
}

func (r *CitizenRepository) Update(ctx context.Context, c *identity.Citizen) error {
	result := r.DB.WithContext(ctx).Table("users").Where("id = ?", c.Id.String()).Updates(map[string]interface{}{
		"name":       c.Name,
		"email":      c.Email,
		"password":   c.Password,
		"phone":      c.Phone,
		"photo_path": c.PhotoPath,
		"updated_at": c.UpdatedAt,
	})
	if result.Error != nil {
		return appErrors.NewDatabaseError(result.Error)
	}
	if result.RowsAffected == 0 {
		return appErrors.ErrCitizenNotFound
	}
	return nil
}

func (r *CitizenRepository) Delete(ctx context.Context, id ulid.ULID) error {
	result := r.DB.WithContext(ctx).Where("id = ?", id.String()).Delete(&citizenDB{})
	if result.Error != nil {
		return appErrors.NewDatabaseError(result.Error)
	}
	if result.RowsAffected == 0 {
		return appErrors.ErrCitizenNotFound
	}
	return nil
}

func (r *CitizenRepository) GetById(ctx context.Context, id ulid.ULID) (*identity.Citizen, error) {
	var row citizenDB
	if err := r.DB.WithContext(ctx).Table("users").Where("id = ?", id.String()).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, appErrors.ErrCitizenNotFound.WithError(err)
		}
		return nil, appErrors.NewDatabaseError(err)
	}
	return toDomainCitizen(&row)
}

func (r *CitizenRepository) GetByEmail(ctx context.Context, email string) (*identity.Citizen, error) {
	var row citizenDB
	if err := r.DB.WithContext(ctx).Table("users").Where("email = ?", email).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, appErrors.ErrCitizenNotFound.WithError(err)
		}
		return nil, appErrors.NewDatabaseError(err)
	}
	return toDomainCitizen(&row)
}

func (r *CitizenRepository) List(ctx context.Context, search string, pagination *pkg.PaginationParams) ([]*identity.Citizen, int64, error) {
	query := r.DB.WithContext(ctx).Model(&citizenDB{})
	if term := strings.TrimSpace(search); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ? OR phone LIKE ?", like, like, like)
	}

	out, total, err := pkg.Paginate[identity.Citizen, citizenDB](query, pagination, "created_at DESC", toDomainCitizen)
	if err != nil {
		if _, ok := appErrors.AsAppError(err); ok {
			return nil, 0, err
		}
		return nil, 0, appErrors.NewDatabaseError(err)
	}
	return out, total, nil
}

func (r *TokenRepository) Create(ctx context.Context, t *identity.AuthToken) error {
	row := &tokenDB{
		Id:         t.Id.String(),
		OwnerId:    t.OwnerId.String(),
		OwnerKind:  string(t.OwnerKind),
		Name:       t.Name,
		LastUsedAt: t.LastUsedAt,
		ExpiresAt:  t.ExpiresAt,
		CreatedAt:  t.CreatedAt,
	}
	if err := r.DB.WithContext(ctx).Create(row).Error; err != nil {
		return appErrors.NewDatabaseError(err)
	}
	return nil
}

func (r *TokenRepository) GetById(ctx context.Context, id ulid.ULID) (*identity.AuthToken, error) {
	var row tokenDB
	if err := r.DB.WithContext(ctx).Table("personal_access_tokens").Where("id = ?", id.String()).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, appErrors.ErrTokenNotFound.WithError(err)
		}
		return nil, appErrors.NewDatabaseError(err)
	}
	return toDomainToken(&row)
}

func (r *TokenRepository) Touch(ctx context.Context, id ulid.ULID, at time.Time) error {
	err := r.DB.WithContext(ctx).Table("personal_access_tokens").
		Where("id = ?", id.String()).
		Update("last_used_at", at).Error
	if err != nil {
		return appErrors.NewDatabaseError(err)
	}
	return nil
}

func (r *TokenRepository) DeleteByOwner(ctx context.Context, ownerID ulid.ULID, kind identity.Role) error {
	err := r.DB.WithContext(ctx).
		Where("owner_id = ? AND owner_kind = ?", ownerID.String(), string(kind)).
		Delete(&tokenDB{}).Error
	if err != nil {
		return appErrors.NewDatabaseError(err)
	}
	return nil
}
