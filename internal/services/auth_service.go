package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rudigital/backend/internal/config"
	"github.com/rudigital/backend/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// Claims is the payload carried by every session token.
type Claims struct {
	Nome string `json:"nome"`
	Tipo string `json:"tipo"`
	jwt.RegisteredClaims
}

// UserID parses the subject back into the account id.
func (c *Claims) UserID() (int64, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrTokenInvalid
	}
	return id, nil
}

func (c *Claims) IsAdmin() bool {
	return c.Tipo == models.TipoAdmin
}

type LoginResult struct {
	Token   string
	Expira  int64
	Usuario *models.Usuario
}

type AuthService struct {
	db     *sql.DB
	redis  *redis.Client
	config *config.AuthConfig
	now    func() time.Time

	dummyHash []byte
	notify    func(email, link string)
}

func NewAuthService(db *sql.DB, redisClient *redis.Client, cfg *config.AuthConfig) *AuthService {
	dummy, err := bcrypt.GenerateFromPassword([]byte("ru-digital-placeholder"), cfg.BcryptCost)
	if err != nil {
		log.Printf("[AUTH] Failed to prepare placeholder hash: %v", err)
	}
	return &AuthService{
		db:        db,
		redis:     redisClient,
		config:    cfg,
		now:       time.Now,
		dummyHash: dummy,
		notify: func(email, link string) {
			log.Printf("[RECUPERAR] Link gerado para %s: %s", email, link)
		},
	}
}

// Login verifies the credentials and issues a token. Failed attempts are
// counted per client IP and lock the IP out once the limit is reached.
func (s *AuthService) Login(ctx context.Context, email, senha, ip string) (*LoginResult, error) {
	if err := s.checkRateLimit(ctx, ip); err != nil {
		return nil, err
	}

	var u models.Usuario
	err := s.db.QueryRowContext(ctx, `
		SELECT id, nome, email, senha_hash, COALESCE(curso, ''), saldo, tipo
		FROM usuarios
		WHERE email = $1 AND ativo = TRUE
		LIMIT 1`, email).
		Scan(&u.ID, &u.Nome, &u.Email, &u.SenhaHash, &u.Curso, &u.Saldo, &u.Tipo)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("load user: %w", err)
	}
	found := err == nil

	hash := s.dummyHash
	if found {
		hash = []byte(u.SenhaHash)
	}
	// Always run the comparison so unknown emails cost the same as wrong passwords.
	if bcrypt.CompareHashAndPassword(hash, []byte(senha)) != nil || !found {
		if err := s.registerFailure(ctx, ip); err != nil {
			log.Printf("[AUTH] Failed to record login attempt for %s: %v", ip, err)
		}
		return nil, ErrInvalidCredentials
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM login_attempts WHERE ip = $1`, ip); err != nil {
		log.Printf("[AUTH] Failed to clear login attempts for %s: %v", ip, err)
	}

	s.rehashIfNeeded(ctx, &u, senha)

	now := s.now()
	expira := now.Add(s.config.JWTExpiry)
	token, err := s.signToken(&u, now, expira)
	if err != nil {
		return nil, err
	}

	u.Ativo = true
	return &LoginResult{Token: token, Expira: expira.Unix(), Usuario: &u}, nil
}

func (s *AuthService) checkRateLimit(ctx context.Context, ip string) error {
	now := s.now()
	var bloqueadoAte sql.NullTime
	err := s.db.QueryRowContext(ctx, `
		SELECT bloqueado_ate
		FROM login_attempts
		WHERE ip = $1 AND ultima_em > $2
		LIMIT 1`, ip, now.Add(-s.config.LockoutWindow)).Scan(&bloqueadoAte)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("check login attempts: %w", err)
	}
	if bloqueadoAte.Valid && bloqueadoAte.Time.After(now) {
		return &RateLimitError{RetryAfter: bloqueadoAte.Time.Sub(now)}
	}
	return nil
}

// registerFailure bumps the counter. Attempts older than the lockout window
// start a fresh count.
func (s *AuthService) registerFailure(ctx context.Context, ip string) error {
	now := s.now()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO login_attempts (ip, tentativas, ultima_em)
		VALUES ($1, 1, $2)
		ON CONFLICT (ip) DO UPDATE SET
			tentativas = CASE WHEN login_attempts.ultima_em > $3
				THEN login_attempts.tentativas + 1 ELSE 1 END,
			bloqueado_ate = CASE WHEN login_attempts.ultima_em > $3
				AND login_attempts.tentativas + 1 >= $4
				THEN $5::timestamptz ELSE NULL END,
			ultima_em = $2`,
		ip, now, now.Add(-s.config.LockoutWindow), s.config.MaxLoginAttempts, now.Add(s.config.LockoutWindow))
	return err
}

func (s *AuthService) rehashIfNeeded(ctx context.Context, u *models.Usuario, senha string) {
	cost, err := bcrypt.Cost([]byte(u.SenhaHash))
	if err != nil || cost == s.config.BcryptCost {
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(senha), s.config.BcryptCost)
	if err != nil {
		log.Printf("[AUTH] Rehash failed for usuario %d: %v", u.ID, err)
		return
	}
	if _, err := s.db.ExecContext(ctx, `UPDATE usuarios SET senha_hash = $1 WHERE id = $2`, string(hash), u.ID); err != nil {
		log.Printf("[AUTH] Failed to store rehashed password for usuario %d: %v", u.ID, err)
	}
}

func (s *AuthService) signToken(u *models.Usuario, issued, expires time.Time) (string, error) {
	claims := Claims{
		Nome: u.Nome,
		Tipo: u.Tipo,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(u.ID, 10),
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses a bearer token and checks it against the logout
// blacklist.
func (s *AuthService) ValidateToken(ctx context.Context, tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrTokenMissing
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(s.config.JWTSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if errors.Is(err, jwt.ErrTokenExpired) {
		return nil, ErrTokenExpired
	}
	if err != nil {
		return nil, ErrTokenInvalid
	}
	if _, err := claims.UserID(); err != nil {
		return nil, err
	}

	if s.redis != nil {
		n, err := s.redis.Exists(ctx, blacklistKey(tokenString)).Result()
		if err != nil {
			log.Printf("[AUTH] Blacklist lookup failed: %v", err)
		} else if n > 0 {
			return nil, ErrTokenRevoked
		}
	}
	return claims, nil
}

// Logout revokes the token until it would have expired anyway.
func (s *AuthService) Logout(ctx context.Context, tokenString string, claims *Claims) error {
	if s.redis == nil || claims == nil || claims.ExpiresAt == nil {
		return nil
	}
	ttl := claims.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	return s.redis.Set(ctx, blacklistKey(tokenString), "1", ttl).Err()
}

// RequestPasswordReset stores a fresh reset token for an active account.
// Unknown emails are silently ignored.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	var userID int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM usuarios WHERE email = $1 AND ativo = TRUE LIMIT 1`, email).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return err
	}
	token := hex.EncodeToString(raw)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`UPDATE tokens_recuperacao SET usado = TRUE WHERE usuario_id = $1 AND usado = FALSE`, userID); err != nil {
		return fmt.Errorf("invalidate reset tokens: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO tokens_recuperacao (usuario_id, token, expira_em) VALUES ($1, $2, $3)`,
		userID, hashResetToken(token), s.now().Add(s.config.ResetTokenTTL)); err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	s.notify(email, s.config.AppURL+"/reset.html?token="+token)
	return nil
}

// ResetPassword consumes the reset token and replaces the password hash in
// the same transaction.
func (s *AuthService) ResetPassword(ctx context.Context, token, novaSenha string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(novaSenha), s.config.BcryptCost)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var userID int64
	err = tx.QueryRowContext(ctx, `
		UPDATE tokens_recuperacao SET usado = TRUE
		WHERE token = $1 AND usado = FALSE AND expira_em > $2
		RETURNING usuario_id`, hashResetToken(token), s.now()).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrInvalidResetToken
	}
	if err != nil {
		return fmt.Errorf("consume reset token: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE usuarios SET senha_hash = $1, atualizado_em = NOW() WHERE id = $2`, string(hash), userID); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return tx.Commit()
}

func hashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func blacklistKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "blacklist:" + hex.EncodeToString(sum[:])
}
