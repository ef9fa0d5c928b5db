package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"mindtracking/internal/model"
	"mindtracking/internal/platform/logger"
	"mindtracking/internal/repository"
)

var (
	ErrInvalidCredentials = UnauthorizedError("E-mail ou senha incorretos.")
	ErrInvalidToken       = UnauthorizedError("Token inválido ou expirado.")
)

const tokenTTL = time.Hour

const (
	maxPasswordBytes   = 72
	msgPasswordTooLong = "A senha deve ter no máximo 72 caracteres."
)

// AuthService handles accounts and user tokens
type AuthService struct {
	users          repository.UserRepo
	questionnaires repository.QuestionnaireRepo
	diary          repository.DiaryRepo
	diagnoses      repository.DiagnosisRepo
	chat           *ChatService
	gate           *DailyGate
	jwtSecret      []byte
	now            func() time.Time
	log            *logger.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(
	users repository.UserRepo,
	questionnaires repository.QuestionnaireRepo,
	diary repository.DiaryRepo,
	diagnoses repository.DiagnosisRepo,
	chat *ChatService,
	gate *DailyGate,
	secret string,
	log *logger.Logger,
) *AuthService {
	return &AuthService{
		users:          users,
		questionnaires: questionnaires,
		diary:          diary,
		diagnoses:      diagnoses,
		chat:           chat,
		gate:           gate,
		jwtSecret:      []byte(secret),
		now:            time.Now,
		log:            log,
	}
}

// Register creates an account with a bcrypt password hash
func (s *AuthService) Register(ctx context.Context, req *model.RegisterRequest) (*model.Profile, error) {
	if req == nil {
		return nil, ValidationError("Dados inválidos.")
	}
	req.Email = normalizeEmail(req.Email)
	if err := Validate(req); err != nil {
		return nil, err
	}
	birth, err := time.Parse(dayLayout, req.BirthDate)
	if err != nil || birth.After(s.now()) {
		return nil, ValidationError("Data de nascimento inválida.")
	}

	// bcrypt only accepts 72 bytes; the tag counts runes
	if len(req.Password) > maxPasswordBytes {
		return nil, ValidationError(msgPasswordTooLong)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return nil, ValidationError(msgPasswordTooLong)
	}
	if err != nil {
		return nil, InternalError("hash password", err)
	}

	user := &model.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        req.Email,
		PasswordHash: string(hash),
		BirthDate:    birth,
		CreatedAt:    s.now(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ConflictError("Este e-mail já está cadastrado.")
		}
		return nil, StorageError("create user", err)
	}

	s.log.Info("user registered", "user", user.ID)
	profile := user.Profile()
	return &profile, nil
}

// Login validates credentials and returns a signed token
func (s *AuthService) Login(ctx context.Context, req *model.LoginRequest) (*model.LoginResponse, error) {
	if req == nil {
		return nil, ValidationError("E-mail e senha são obrigatórios para realizar o login.")
	}
	req.Email = normalizeEmail(req.Email)
	if err := Validate(req); err != nil {
		return nil, ValidationError("E-mail e senha são obrigatórios para realizar o login.")
	}

	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, StorageError("load user", err)
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.GenerateToken(user)
	if err != nil {
		return nil, err
	}
	return &model.LoginResponse{Token: token, User: user.Profile()}, nil
}

// GenerateToken signs a token for user valid for one hour
func (s *AuthService) GenerateToken(user *model.User) (string, error) {
	now := s.now()
	claims := &model.UserClaims{
		UserID: user.ID,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// ValidateToken validates a user JWT and returns claims
func (s *AuthService) ValidateToken(tokenString string) (*model.UserClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &model.UserClaims{}, func(token *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*model.UserClaims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// DeleteAccount removes the user and everything that belongs to them.
// Children go first so a failure never leaves orphans behind a missing user.
func (s *AuthService) DeleteAccount(ctx context.Context, userID string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return StorageError("load user", err)
	}
	if user == nil {
		return NotFoundError(msgUserNotFound)
	}

	steps := []struct {
		op string
		fn func(context.Context, string) error
	}{
		{"delete diagnoses", s.diagnoses.DeleteByUser},
		{"delete diary", s.diary.DeleteByUser},
		{"delete questionnaires", s.questionnaires.DeleteByUser},
		{"delete user", s.users.Delete},
	}
	for _, step := range steps {
		if err := step.fn(ctx, userID); err != nil {
			return StorageError(step.op, err)
		}
	}

	if s.chat != nil {
		if err := s.chat.Reset(ctx, userID); err != nil {
			s.log.Warn("chat session cleanup failed", "user", userID, "error", err)
		}
	}
	if s.gate != nil {
		s.gate.Forget(ctx, userID)
	}
	s.log.Info("account deleted", "user", userID)
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
