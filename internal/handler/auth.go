package handler

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"meeting-copilot-backend/internal/auth"
	"meeting-copilot-backend/internal/model"
	"meeting-copilot-backend/internal/session"
)

// GoogleVerifier Google ID Token 검증 인터페이스 (테스트에서 스텁으로 대체)
type GoogleVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.GoogleUserInfo, error)
}

// AuthHandler 인증 핸들러
type AuthHandler struct {
	db           *gorm.DB
	jwtManager   *auth.JWTManager
	googleAuth   GoogleVerifier
	sessions     *session.Store
	secureCookie bool
}

// NewAuthHandler AuthHandler 생성 (sessions는 nil 허용 - 무상태 리프레시)
func NewAuthHandler(db *gorm.DB, jwtManager *auth.JWTManager, googleAuth GoogleVerifier, sessions *session.Store, secureCookie bool) *AuthHandler {
	return &AuthHandler{
		db:           db,
		jwtManager:   jwtManager,
		googleAuth:   googleAuth,
		sessions:     sessions,
		secureCookie: secureCookie,
	}
}

// RegisterRequest 회원가입 요청
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

// LoginRequest 로그인 요청
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// GoogleLoginRequest Google 로그인 요청
type GoogleLoginRequest struct {
	IDToken string `json:"id_token"`
}

// UpdateMeRequest 내 정보 수정 요청
type UpdateMeRequest struct {
	FullName *string `json:"full_name"`
}

// AuthResponse 인증 응답
type AuthResponse struct {
	User        UserResponse `json:"user"`
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresIn   int64        `json:"expires_in"`
}

// UserResponse 사용자 응답
type UserResponse struct {
	ID             int64      `json:"id"`
	Email          string     `json:"email"`
	FullName       *string    `json:"full_name,omitempty"`
	Provider       *string    `json:"provider,omitempty"`
	RecordingsPath *string    `json:"recordings_path,omitempty"`
	LastFolderScan *time.Time `json:"last_folder_scan,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

func toUserResponse(u *model.User) UserResponse {
	return UserResponse{
		ID:             u.ID,
		Email:          u.Email,
		FullName:       u.FullName,
		Provider:       u.Provider,
		RecordingsPath: u.RecordingsPath,
		LastFolderScan: u.LastFolderScan,
		CreatedAt:      u.CreatedAt,
	}
}

// Register 이메일/비밀번호 회원가입
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "valid email is required",
		})
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	// 이메일 중복 확인
	var existing model.User
	if err := h.db.Where("email = ?", req.Email).First(&existing).Error; err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "email already registered",
		})
	} else if err != gorm.ErrRecordNotFound {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "database error",
		})
	}

	provider := "local"
	user := model.User{
		Email:        req.Email,
		PasswordHash: &hash,
		Provider:     &provider,
	}
	if name := strings.TrimSpace(req.FullName); name != "" {
		user.FullName = &name
	}

	if err := h.db.Create(&user).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to create user",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(h.issueTokens(c, &user))
}

// Login 이메일/비밀번호 로그인
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	var user model.User
	result := h.db.Where("email = ?", strings.ToLower(strings.TrimSpace(req.Email))).First(&user)
	if result.Error == gorm.ErrRecordNotFound {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "invalid email or password",
		})
	} else if result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "database error",
		})
	}

	// 소셜 전용 계정은 비밀번호 해시가 없음
	if user.PasswordHash == nil || auth.CheckPassword(*user.PasswordHash, req.Password) != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "invalid email or password",
		})
	}

	return c.JSON(h.issueTokens(c, &user))
}

// GoogleLogin Google OAuth 로그인
func (h *AuthHandler) GoogleLogin(c *fiber.Ctx) error {
	var req GoogleLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	if req.IDToken == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "id_token is required",
		})
	}

	// Google ID Token 검증
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	googleUser, err := h.googleAuth.VerifyIDToken(ctx, req.IDToken)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "invalid google token",
		})
	}

	// 사용자 조회 또는 생성
	var user model.User
	result := h.db.Where("email = ?", googleUser.Email).First(&user)

	provider := "google"
	if result.Error == gorm.ErrRecordNotFound {
		// 신규 사용자 생성
		user = model.User{
			Email:      googleUser.Email,
			Provider:   &provider,
			ProviderID: &googleUser.ID,
		}
		if googleUser.Name != "" {
			user.FullName = &googleUser.Name
		}
		if err := h.db.Create(&user).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to create user",
			})
		}
	} else if result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "database error",
		})
	} else {
		// 기존 사용자 업데이트 (local → google 전환 포함)
		if user.Provider == nil || *user.Provider != "google" {
			user.Provider = &provider
			user.ProviderID = &googleUser.ID
		}
		h.db.Save(&user)
	}

	return c.JSON(h.issueTokens(c, &user))
}

// RefreshToken 리프레시 토큰으로 액세스 토큰 재발급
func (h *AuthHandler) RefreshToken(c *fiber.Ctx) error {
	refreshToken := c.Cookies("refresh_token")
	if refreshToken == "" {
		// 쿠키가 없으면 바디에서 시도
		var body struct {
			RefreshToken string `json:"refresh_token"`
		}
		if err := c.BodyParser(&body); err == nil {
			refreshToken = body.RefreshToken
		}
	}

	if refreshToken == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "refresh token is required",
		})
	}

	userID, err := h.jwtManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "invalid refresh token",
		})
	}

	// 세션 저장소가 구성된 경우 폐기 여부 확인
	if err := h.sessions.Validate(c.Context(), userID, refreshToken); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "refresh token has been revoked",
		})
	}

	var user model.User
	if err := h.db.First(&user, userID).Error; err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "user not found",
		})
	}

	return c.JSON(h.issueTokens(c, &user))
}

// Logout 로그아웃 (리프레시 토큰 폐기 + 쿠키 삭제)
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	userID := c.Locals("userID").(int64)

	if err := h.sessions.Revoke(c.Context(), userID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to revoke session",
		})
	}

	c.Cookie(&fiber.Cookie{
		Name:     "refresh_token",
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Secure:   h.secureCookie,
		HTTPOnly: true,
		SameSite: "Lax",
	})

	return c.JSON(fiber.Map{
		"message": "logged out",
	})
}

// GetMe 내 정보 조회
func (h *AuthHandler) GetMe(c *fiber.Ctx) error {
	userID := c.Locals("userID").(int64)

	var user model.User
	if err := h.db.First(&user, userID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "user not found",
		})
	}

	return c.JSON(toUserResponse(&user))
}

// UpdateMe 내 정보 수정
func (h *AuthHandler) UpdateMe(c *fiber.Ctx) error {
	userID := c.Locals("userID").(int64)

	var req UpdateMeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	var user model.User
	if err := h.db.First(&user, userID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "user not found",
		})
	}

	if req.FullName != nil {
		name := sanitizeString(*req.FullName)
		user.FullName = &name
	}

	if err := h.db.Save(&user).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to update user",
		})
	}

	return c.JSON(toUserResponse(&user))
}

// issueTokens 액세스/리프레시 토큰 발급 및 쿠키 설정
func (h *AuthHandler) issueTokens(c *fiber.Ctx, user *model.User) AuthResponse {
	accessToken, _ := h.jwtManager.GenerateAccessToken(user.ID, user.Email)
	refreshToken, _ := h.jwtManager.GenerateRefreshToken(user.ID)

	// 세션 저장소가 구성된 경우 리프레시 토큰 저장 (실패해도 로그인은 진행)
	_ = h.sessions.Save(c.Context(), user.ID, refreshToken)

	// HTTP-Only 쿠키로 리프레시 토큰 설정
	c.Cookie(&fiber.Cookie{
		Name:     "refresh_token",
		Value:    refreshToken,
		Path:     "/",
		MaxAge:   int(h.jwtManager.RefreshExpiry().Seconds()),
		Secure:   h.secureCookie,
		HTTPOnly: true,
		SameSite: "Lax",
	})

	return AuthResponse{
		User:        toUserResponse(user),
		AccessToken: accessToken,
		TokenType:   "bearer",
		ExpiresIn:   int64(h.jwtManager.AccessExpiry().Seconds()),
	}
}
