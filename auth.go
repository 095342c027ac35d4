package main

import (
	"errors"
	"strings"
	"time"

	"oracle/models"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrDuplicateUser      = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("incorrect email or password")
	ErrInvalidToken       = errors.New("could not validate credentials")
	ErrMissingCredentials = errors.New("email and password are required")
)

// authService owns user records and bearer tokens.
type authService struct {
	db     *gorm.DB
	secret []byte
	ttl    time.Duration
}

func newAuthService(db *gorm.DB, secret string, ttl time.Duration) *authService {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &authService{db: db, secret: []byte(secret), ttl: ttl}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// RegisterUser creates a password account. An existing email yields ErrDuplicateUser.
func (a *authService) RegisterUser(email, password, firstName, lastName string) (models.User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return models.User{}, ErrMissingCredentials
	}
	// pre-check existing (optimistic)
	var existing models.User
	if err := a.db.Where("email = ?", email).First(&existing).Error; err == nil {
		return models.User{}, ErrDuplicateUser
	}
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, err
	}
	user := models.User{
		Email:          email,
		HashedPassword: hashedPassword,
		FirstName:      strings.TrimSpace(firstName),
		LastName:       strings.TrimSpace(lastName),
	}
	if err := a.db.Create(&user).Error; err != nil {
		if isUniqueConstraintError(err) { // race condition after initial check
			return models.User{}, ErrDuplicateUser
		}
		return models.User{}, err
	}
	return user, nil
}

// Authenticate checks a password login. Accounts without a password never match.
func (a *authService) Authenticate(email, password string) (models.User, error) {
	var user models.User
	if err := a.db.Where("email = ?", normalizeEmail(email)).First(&user).Error; err != nil {
		return models.User{}, ErrInvalidCredentials
	}
	if len(user.HashedPassword) == 0 {
		return models.User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(user.HashedPassword, []byte(password)); err != nil {
		return models.User{}, ErrInvalidCredentials
	}
	return user, nil
}

// UpsertOAuthUser returns the account for email, creating a password-less one if needed.
func (a *authService) UpsertOAuthUser(email, firstName, lastName string) (models.User, error) {
	email = normalizeEmail(email)
	var user models.User
	err := a.db.Where("email = ?", email).First(&user).Error
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.User{}, err
	}
	user = models.User{Email: email, HashedPassword: []byte{}, FirstName: firstName, LastName: lastName}
	if err := a.db.Create(&user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return user, a.db.Where("email = ?", email).First(&user).Error
		}
		return models.User{}, err
	}
	return user, nil
}

// UserByEmail loads the account a token refers to.
func (a *authService) UserByEmail(email string) (models.User, error) {
	var user models.User
	if err := a.db.Where("email = ?", normalizeEmail(email)).First(&user).Error; err != nil {
		return models.User{}, err
	}
	return user, nil
}

// IssueToken signs an HS256 access token with sub=email.
func (a *authService) IssueToken(email string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": email,
		"exp": time.Now().Add(a.ttl).Unix(),
	})
	return token.SignedString(a.secret)
}

// ParseToken validates a token and returns its subject.
func (a *authService) ParseToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrInvalidKeyType
		}
		return a.secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}
	sub, err := token.Claims.GetSubject()
	if err != nil || sub == "" {
		return "", ErrInvalidToken
	}
	return sub, nil
}

func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	s := err.Error()
	return strings.Contains(s, "duplicate key") || strings.Contains(s, "unique constraint") || strings.Contains(s, "UNIQUE constraint")
}
