package identity

import (
	"context"
	"strings"
	"time"

	appErrors "Ecotrack/internal/errors"
	"Ecotrack/internal/logger"
	"Ecotrack/internal/pkg"
	"Ecotrack/internal/storage"

	"github.com/oklog/ulid/v2"
)

const photoDir = "profil"

type Service struct {
	Admins       AdminRepository
	Citizens     CitizenRepository
	Tokens       TokenRepository
	Signer       TokenSigner
	Assets       storage.AssetStore
	TokenTTL     time.Duration
	PasswordCost int
}

func NewService(
	admins AdminRepository,
	citizens CitizenRepository,
	tokens TokenRepository,
	signer TokenSigner,
	assets storage.AssetStore,
	tokenTTL time.Duration,
) *Service {
	return &Service{
		Admins:   admins,
		Citizens: citizens,
		Tokens:   tokens,
		Signer:   signer,
		Assets:   assets,
		TokenTTL: tokenTTL,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Service) RegisterCitizen(ctx context.Context, in Register) (*Citizen, error) {
	email := normalizeEmail(in.Email)
	if in.Password != in.PasswordConfirmation {
		return nil, appErrors.NewValidationError("password_confirmation", "A confirmação de senha não confere")
	}
	if err := PasswordRequirements("password", in.Password); err != nil {
		return nil, err
	}
	if err := s.ensureCitizenEmailFree(ctx, email, nil); err != nil {
		return nil, err
	}

	hash, err := s.hash(in.Password)
	if err != nil {
		return nil, err
	}

	now := pkg.SetTimestamps()
	citizen := &Citizen{
		Id:        pkg.GenerateULIDObject(),
		Name:      strings.TrimSpace(in.Name),
		Email:     email,
		Password:  hash,
		Phone:     strings.TrimSpace(in.Phone),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Citizens.Create(ctx, citizen); err != nil {
		return nil, err
	}
	return citizen, nil
}

func (s *Service) LoginCitizen(ctx context.Context, email, password string) (*Session, error) {
	citizen, err := s.Citizens.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if appErrors.HasCode(err, appErrors.ErrCitizenNotFound.Code) {
			passwordMatches(string(dummyHash), password)
			return nil, appErrors.ErrInvalidCredentials
		}
		return nil, err
	}
	if !passwordMatches(citizen.Password, password) {
		return nil, appErrors.ErrInvalidCredentials
	}
	return s.issue(ctx, Principal{Id: citizen.Id, Role: RoleCitizen, Name: citizen.Name, Email: citizen.Email})
}

func (s *Service) LoginAdmin(ctx context.Context, email, password string) (*Session, error) {
	admin, err := s.Admins.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if appErrors.HasCode(err, appErrors.ErrAdminNotFound.Code) {
			passwordMatches(string(dummyHash), password)
			return nil, appErrors.ErrInvalidCredentials
		}
		return nil, err
	}
	if !passwordMatches(admin.Password, password) {
		return nil, appErrors.ErrInvalidCredentials
	}
	return s.issue(ctx, Principal{Id: admin.Id, Role: RoleAdmin, Name: admin.Name, Email: admin.Email})
}

func (s *Service) issue(ctx context.Context, p Principal) (*Session, error) {
	now := pkg.SetTimestamps()
	token := &AuthToken{
		Id:        pkg.GenerateULIDObject(),
		OwnerId:   p.Id,
		OwnerKind: p.Role,
		Name:      "auth_token",
		ExpiresAt: now.Add(s.TokenTTL),
		CreatedAt: now,
	}
	if err := s.Tokens.Create(ctx, token); err != nil {
		return nil, err
	}

	signed, err := s.Signer.Sign(token)
	if err != nil {
		return nil, appErrors.ErrInternalServer.WithError(err)
	}

	p.TokenId = token.Id
	logger.Info().Str("owner_id", p.Id.String()).Str("role", string(p.Role)).Msg("Login realizado")
	return &Session{Token: signed, ExpiresAt: token.ExpiresAt, Principal: p}, nil
}

// Authenticate resolve o principal de um token já verificado criptograficamente.
// O token precisa existir no banco: logout e troca de senha o revogam.
func (s *Service) Authenticate(ctx context.Context, tokenID, ownerID ulid.ULID, role Role) (*Principal, error) {
	token, err := s.Tokens.GetById(ctx, tokenID)
	if err != nil {
		if appErrors.HasCode(err, appErrors.ErrTokenNotFound.Code) {
			return nil, appErrors.ErrUnauthorized.WithError(err)
		}
		return nil, err
	}
	if token.OwnerId != ownerID || token.OwnerKind != role {
		return nil, appErrors.ErrUnauthorized
	}

	now := pkg.SetTimestamps()
	if now.After(token.ExpiresAt) {
		return nil, appErrors.NewAuthError("TOKEN_EXPIRED", "Token expirado")
	}
	if err := s.Tokens.Touch(ctx, tokenID, now); err != nil {
		logger.Warn().Err(err).Str("token_id", tokenID.String()).Msg("Falha ao atualizar último uso do token")
	}

	p := &Principal{Id: ownerID, Role: role, TokenId: tokenID}
	switch role {
	case RoleAdmin:
		admin, err := s.Admins.GetById(ctx, ownerID)
		if err != nil {
			return nil, appErrors.ErrUnauthorized.WithError(err)
		}
		p.Name, p.Email = admin.Name, admin.Email
	case RoleCitizen:
		citizen, err := s.Citizens.GetById(ctx, ownerID)
		if err != nil {
			return nil, appErrors.ErrUnauthorized.WithError(err)
		}
		p.Name, p.Email = citizen.Name, citizen.Email
	default:
		return nil, appErrors.ErrUnauthorized
	}
	return p, nil
}

func (s *Service) Logout(ctx context.Context, p Principal) error {
	return s.Tokens.DeleteByOwner(ctx, p.Id, p.Role)
}

func (s *Service) ChangePassword(ctx context.Context, p Principal, in PasswordChange) error {
	if in.NewPassword != in.PasswordConfirmation {
		return appErrors.NewValidationError("password_confirmation", "A confirmação de senha não confere")
	}
	if in.NewPassword == in.OldPassword {
		return appErrors.NewValidationError("new_password", "A nova senha deve ser diferente da atual")
	}
	if err := PasswordRequirements("new_password", in.NewPassword); err != nil {
		return err
	}

	switch p.Role {
	case RoleAdmin:
		admin, err := s.Admins.GetById(ctx, p.Id)
		if err != nil {
			return err
		}
		if !passwordMatches(admin.Password, in.OldPassword) {
			return appErrors.ErrInvalidCredentials.WithMessage("Senha atual incorreta")
		}
		if admin.Password, err = s.hash(in.NewPassword); err != nil {
			return err
		}
		admin.UpdatedAt = pkg.SetTimestamps()
		if err := s.Admins.Update(ctx, admin); err != nil {
			return err
		}
	case RoleCitizen:
		citizen, err := s.Citizens.GetById(ctx, p.Id)
		if err != nil {
			return err
		}
		if !passwordMatches(citizen.Password, in.OldPassword) {
			return appErrors.ErrInvalidCredentials.WithMessage("Senha atual incorreta")
		}
		if citizen.Password, err = s.hash(in.NewPassword); err != nil {
			return err
		}
		citizen.UpdatedAt = pkg.SetTimestamps()
		if err := s.Citizens.Update(ctx, citizen); err != nil {
			return err
		}
	default:
		return appErrors.ErrForbidden
	}

	return s.Tokens.DeleteByOwner(ctx, p.Id, p.Role)
}

func (s *Service) GetProfile(ctx context.Context, id ulid.ULID) (*Citizen, error) {
	return s.Citizens.GetById(ctx, id)
}

// UpdateProfile aplica as alterações informadas. Com uma nova foto, a anterior
// é removida do storage antes do envio da nova.
func (s *Service) UpdateProfile(ctx context.Context, id ulid.ULID, in ProfileUpdate, photo *storage.File) (*Citizen, error) {
	citizen, err := s.Citizens.GetById(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, appErrors.NewValidationError("name", "nome é obrigatório")
		}
		citizen.Name = name
	}
	if in.Email != nil {
		email := normalizeEmail(*in.Email)
		if email != citizen.Email {
			if err := s.ensureCitizenEmailFree(ctx, email, &citizen.Id); err != nil {
				return nil, err
			}
			citizen.Email = email
		}
	}
	if in.Phone != nil {
		citizen.Phone = strings.TrimSpace(*in.Phone)
	}

	if photo != nil {
		if err := storage.ValidateImage(photo); err != nil {
			return nil, appErrors.NewValidationError("photo", err.Error())
		}
		if citizen.PhotoPath != "" {
			if err := s.Assets.Delete(ctx, citizen.PhotoPath); err != nil {
				return nil, appErrors.ErrInternalServer.WithError(err)
			}
			citizen.PhotoPath = ""
		}
		stored, err := s.Assets.Save(ctx, photoDir, *photo)
		if err != nil {
			return nil, appErrors.ErrInternalServer.WithError(err)
		}
		citizen.PhotoPath = stored
	}

	citizen.UpdatedAt = pkg.SetTimestamps()
	if err := s.Citizens.Update(ctx, citizen); err != nil {
		return nil, err
	}
	return citizen, nil
}

func (s *Service) ListCitizens(ctx context.Context, search string, pagination *pkg.PaginationParams) ([]*Citizen, int64, error) {
	return s.Citizens.List(ctx, strings.TrimSpace(search), pagination)
}

func (s *Service) GetCitizen(ctx context.Context, id ulid.ULID) (*Citizen, error) {
	return s.Citizens.GetById(ctx, id)
}

func (s *Service) DeleteCitizen(ctx context.Context, id ulid.ULID) error {
	citizen, err := s.Citizens.GetById(ctx, id)
	if err != nil {
		return err
	}
	if err := s.Tokens.DeleteByOwner(ctx, id, RoleCitizen); err != nil {
		return err
	}
	if err := s.Citizens.Delete(ctx, id); err != nil {
		return err
	}
	if citizen.PhotoPath != "" {
		if err := s.Assets.Delete(ctx, citizen.PhotoPath); err != nil {
			logger.Warn().Err(err).Str("path", citizen.PhotoPath).Msg("Falha ao remover foto do usuário excluído")
		}
	}
	return nil
}

// CreateAdmin é usado pela CLI para cadastrar administradores.
func (s *Service) CreateAdmin(ctx context.Context, name, email, password string) (*Admin, error) {
	email = normalizeEmail(email)
	if err := PasswordRequirements("password", password); err != nil {
		return nil, err
	}
	_, err := s.Admins.GetByEmail(ctx, email)
	if err == nil {
		return nil, appErrors.NewValidationError("email", "Email já cadastrado")
	}
	if !appErrors.HasCode(err, appErrors.ErrAdminNotFound.Code) {
		return nil, err
	}

	hash, err := s.hash(password)
	if err != nil {
		return nil, err
	}
	now := pkg.SetTimestamps()
	admin := &Admin{
		Id:        pkg.GenerateULIDObject(),
		Name:      strings.TrimSpace(name),
		Email:     email,
		Password:  hash,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Admins.Create(ctx, admin); err != nil {
		return nil, err
	}
	return admin, nil
}

func (s *Service) ensureCitizenEmailFree(ctx context.Context, email string, self *ulid.ULID) error {
	existing, err := s.Citizens.GetByEmail(ctx, email)
	if err != nil {
		if appErrors.HasCode(err, appErrors.ErrCitizenNotFound.Code) {
			return nil
		}
		return err
	}
	if self != nil && existing.Id == *self {
		return nil
	}
	return appErrors.NewValidationError("email", "Email já cadastrado")
}
