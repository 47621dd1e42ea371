package services

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"net/smtp"
	"os"
	"time"

	"go-todo-app/backend/internal/models"
	"go-todo-app/backend/internal/repositories"
)

// UserService はユーザー関連のビジネスロジックを扱います。
type UserService struct {
	userRepo       *repositories.UserRepository
	resetTokenRepo repositories.ResetTokenRepository
}

// NewUserService は新しいUserServiceを作成します。
func NewUserService(userRepo *repositories.UserRepository, resetTokenRepo repositories.ResetTokenRepository) *UserService {
	return &UserService{userRepo: userRepo, resetTokenRepo: resetTokenRepo}
}

// RegisterUser はユーザーを登録します。
func (s *UserService) RegisterUser(req models.UserRegisterRequest) (*models.User, error) {
	hashedPassword, err := repositories.HashPassword(req.Password)
	if err != nil {
		log.Printf("Failed to hash password: %v", err)
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	newUser := &models.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hashedPassword,
		Role:         "user",
	}

	createdUser, err := s.userRepo.Create(newUser)
	if err != nil {
		return nil, err
	}
	createdUser.PasswordHash = "" // レスポンスにパスワードを含めない
	return createdUser, nil
}

// AuthenticateUser はユーザーを認証し、成功したらユーザーを返します。
func (s *UserService) AuthenticateUser(req models.UserLoginRequest) (*models.User, error) {
	foundUser, err := s.userRepo.FindByEmail(req.Email)
	if err != nil {
		return nil, err
	}

	if err := repositories.VerifyPassword(foundUser.PasswordHash, req.Password); err != nil {
		return nil, fmt.Errorf("invalid credentials")
	}

	foundUser.PasswordHash = "" // レスポンスにパスワードを含めない
	return foundUser, nil
}

// GetProfile は認証済みユーザーのプロフィールを取得します。
func (s *UserService) GetProfile(userID int) (*models.User, error) {
	foundUser, err := s.userRepo.FindByID(userID)
	if err != nil {
		return nil, err
	}
	foundUser.PasswordHash = ""
	return foundUser, nil
}

// ForgotPasswordUser はパスワードリセットのメール送信を行います。
// メールアドレスの存在有無を外部に漏らさないため、常に成功扱いです。
func (s *UserService) ForgotPasswordUser(email string) error {
	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		// メール存在しない → バレないように成功扱い
		log.Printf("email not found but returning OK: %s", email)
		return nil
	}

	token, err := generateResetToken()
	if err != nil {
		log.Printf("Failed to generate reset token: %v", err)
		return fmt.Errorf("failed to generate reset token: %w", err)
	}

	// トークンをデータベースに保存（有効期限1時間）
	resetToken := &models.PasswordResetToken{
		UserID:    user.ID,
		Token:     token,
		ExpiresAt: time.Now().Add(1 * time.Hour),
	}
	if err := s.resetTokenRepo.Save(resetToken); err != nil {
		return fmt.Errorf("failed to save reset token: %w", err)
	}

	frontendURL := os.Getenv("FRONTEND_URL")
	if frontendURL == "" {
		frontendURL = "http://localhost:3000"
	}
	resetURL := fmt.Sprintf("%s/reset-password/%s", frontendURL, token)

	if err := s.sendPasswordResetEmail(email, resetURL); err != nil {
		log.Printf("failed to send reset email: %v", err)
	}

	return nil
}

// generateResetToken はパスワードリセット用のランダムトークンを生成します。
func generateResetToken() (string, error) {
	bytes := make([]byte, 32)
	_, err := rand.Read(bytes)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// ResetPasswordUser はトークンを使ってパスワードをリセットします。
func (s *UserService) ResetPasswordUser(token, newPassword string) error {
	resetToken, err := s.resetTokenRepo.FindByToken(token)
	if err != nil {
		return fmt.Errorf("invalid or expired token")
	}

	if time.Now().After(resetToken.ExpiresAt) {
		return fmt.Errorf("token expired")
	}
	if resetToken.UsedAt != nil {
		return fmt.Errorf("token already used")
	}

	hashedPassword, err := repositories.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.userRepo.UpdatePassword(resetToken.UserID, hashedPassword); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	// トークンを使用済みにマーク（失敗しても続行）
	if err := s.resetTokenRepo.MarkUsed(resetToken.ID); err != nil {
		log.Printf("Failed to mark token as used: %v", err)
	}

	return nil
}

func (s *UserService) sendPasswordResetEmail(email, resetURL string) error {
	from := os.Getenv("SMTP_USER")
	password := os.Getenv("SMTP_PASSWORD")
	to := []string{email}

	smtpHost := os.Getenv("SMTP_HOST")
	if smtpHost == "" {
		smtpHost = "sandbox.smtp.mailtrap.io"
	}
	smtpPort := os.Getenv("SMTP_PORT")
	if smtpPort == "" {
		smtpPort = "2525"
	}

	message := []byte(fmt.Sprintf(
		"Subject: パスワードリセット\r\n\r\n以下のURLからパスワードを再設定してください。\r\n%s",
		resetURL,
	))

	auth := smtp.PlainAuth("", from, password, smtpHost)

	if err := smtp.SendMail(smtpHost+":"+smtpPort, auth, from, to, message); err != nil {
		// SMTPサーバーが無い環境でも他の機能を試せるように成功扱いにする
		log.Printf("Failed to send reset email: %v", err)
		return nil
	}

	return nil
}
