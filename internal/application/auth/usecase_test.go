package auth_test

import (
	"testing"

	"github.com/jhoicas/fiscaliza-api/internal/application/auth"
	"github.com/jhoicas/fiscaliza-api/internal/application/dto"
	"github.com/jhoicas/fiscaliza-api/internal/domain"
	"github.com/jhoicas/fiscaliza-api/internal/domain/entity"
	"github.com/jhoicas/fiscaliza-api/pkg/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "secreto-de-prueba"

type memUsers struct{ byEmail map[string]*entity.User }

func (m *memUsers) Create(u *entity.User) error {
	m.byEmail[u.Email] = u
	return nil
}
func (m *memUsers) GetByID(id string) (*entity.User, error) {
	for _, u := range m.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, nil
}
func (m *memUsers) GetByEmail(email string) (*entity.User, error) { return m.byEmail[email], nil }
func (m *memUsers) FindByID(id string) (*entity.User, error)      { return m.GetByID(id) }
func (m *memUsers) FindByEmail(email string) (*entity.User, error) {
	return m.GetByEmail(email)
}

func newAuth() (*auth.AuthUseCase, *memUsers) {
	repo := &memUsers{byEmail: map[string]*entity.User{}}
	return auth.NewAuthUseCase(repo, auth.JWTConfig{Secret: secret, ExpMinutes: 60, Issuer: "fiscaliza"}), repo
}

func TestRegister_EscolaConSchoolID(t *testing.T) {
	uc, repo := newAuth()
	out, err := uc.RegisterUser(dto.RegisterRequest{
		Email: "Diretora@Escola.br", Password: "12345678", Role: entity.RoleEscola, SchoolID: "escola-7",
	})
	require.NoError(t, err)
	assert.Equal(t, "diretora@escola.br", out.Email)
	assert.Equal(t, "escola-7", out.SchoolID)
	assert.Equal(t, "active", out.Status)

	stored := repo.byEmail["diretora@escola.br"]
	require.NotNil(t, stored)
	assert.NotEqual(t, "12345678", stored.PasswordHash)
}

func TestRegister_EscolaSinSchoolID(t *testing.T) {
	uc, _ := newAuth()
	_, err := uc.RegisterUser(dto.RegisterRequest{Email: "a@b.br", Password: "12345678"})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "school_id", verr.Field)
}

func TestRegister_GovernoDescartaSchoolID(t *testing.T) {
	uc, _ := newAuth()
	out, err := uc.RegisterUser(dto.RegisterRequest{
		Email: "fiscal@gov.br", Password: "12345678", Role: entity.RoleGoverno, SchoolID: "escola-1",
	})
	require.NoError(t, err)
	assert.Empty(t, out.SchoolID)
}

func TestRegister_RolDesconocido(t *testing.T) {
	uc, _ := newAuth()
	_, err := uc.RegisterUser(dto.RegisterRequest{Email: "x@y.br", Password: "12345678", Role: "vendedor"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRegister_EmailDuplicado(t *testing.T) {
	uc, _ := newAuth()
	req := dto.RegisterRequest{Email: "fiscal@gov.br", Password: "12345678", Role: entity.RoleGoverno}
	_, err := uc.RegisterUser(req)
	require.NoError(t, err)
	_, err = uc.RegisterUser(req)
	assert.ErrorIs(t, err, domain.ErrEmailAlreadyExists)
}

func TestLogin_TokenLlevaRolYEscuela(t *testing.T) {
	uc, _ := newAuth()
	_, err := uc.RegisterUser(dto.RegisterRequest{
		Email: "dir@escola.br", Password: "12345678", Role: entity.RoleEscola, SchoolID: "escola-9",
	})
	require.NoError(t, err)

	out, err := uc.Login(dto.LoginRequest{Email: "dir@escola.br", Password: "12345678"})
	require.NoError(t, err)
	claims, err := jwt.Parse(secret, out.Token)
	require.NoError(t, err)
	assert.Equal(t, entity.RoleEscola, claims.Role)
	assert.Equal(t, "escola-9", claims.SchoolID)
	assert.Equal(t, out.User.ID, claims.UserID)
}

func TestLogin_Errores(t *testing.T) {
	uc, repo := newAuth()
	_, err := uc.RegisterUser(dto.RegisterRequest{Email: "g@gov.br", Password: "12345678", Role: entity.RoleGoverno})
	require.NoError(t, err)

	_, err = uc.Login(dto.LoginRequest{Email: "nadie@gov.br", Password: "12345678"})
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	_, err = uc.Login(dto.LoginRequest{Email: "g@gov.br", Password: "incorrecta"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	repo.byEmail["g@gov.br"].Status = "suspended"
	_, err = uc.Login(dto.LoginRequest{Email: "g@gov.br", Password: "12345678"})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}
