package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/danielgtaylor/huma/v2"
	"github.com/gdg-garage/levelup-api/internal/config"
	"github.com/gdg-garage/levelup-api/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"gorm.io/gorm"
)

const (
	DiscordAuthorizeEndpoint = "https://discord.com/api/oauth2/authorize"
	DiscordTokenEndpoint     = "https://discord.com/api/oauth2/token"
	DiscordUserAPI           = "https://discord.com/api/users/@me"
	DiscordUserGuildsAPI     = "https://discord.com/api/users/@me/guilds"

	TokenDuration = 24 * time.Hour
	CookieName    = "auth_token"

	StateCookieName = "oauth_state"
	StateDuration   = 10 * time.Minute
)

// RoleChecker reports whether a Discord user holds a named guild role.
type RoleChecker interface {
	HasRole(discordID, roleName string) (bool, error)
}

// PlayerRegistrar creates the game player behind a freshly logged in user.
type PlayerRegistrar interface {
	EnsurePlayer(ctx context.Context, playerID, username string) error
}

type AuthHandler struct {
	oauthConfig *oauth2.Config
	db          *gorm.DB
	cfg         *config.Config
	roles       RoleChecker
	players     PlayerRegistrar
}

func NewAuthHandler(cfg *config.Config, db *gorm.DB, roles RoleChecker) *AuthHandler {
	return &AuthHandler{
		oauthConfig: &oauth2.Config{
			ClientID:     cfg.DiscordClientID,
			ClientSecret: cfg.DiscordClientSecret,
			RedirectURL:  cfg.DiscordRedirectURL,
			Scopes:       []string{"identify", "email", "guilds"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  DiscordAuthorizeEndpoint,
				TokenURL: DiscordTokenEndpoint,
			},
		},
		db:    db,
		cfg:   cfg,
		roles: roles,
	}
}

// SetPlayerRegistrar wires login to player registration.
func (h *AuthHandler) SetPlayerRegistrar(r PlayerRegistrar) {
	h.players = r
}

// PlayerIDFor derives the game player id of a Discord account.
func PlayerIDFor(discordID string) string {
	return "discord:" + discordID
}

type AuthInput struct {
	Cookie string `header:"Cookie" doc:"Session cookie"`
}

type LoginOutput struct {
	Status    int
	Location  string      `header:"Location"`
	SetCookie http.Cookie `header:"Set-Cookie"`
}

// HandleLogin redirects to Discord with a fresh state value that the
// callback must echo back from the same browser.
func (h *AuthHandler) HandleLogin(ctx context.Context, input *struct{}) (*LoginOutput, error) {
	state := uuid.NewString()
	return &LoginOutput{
		Status:   http.StatusTemporaryRedirect,
		Location: h.oauthConfig.AuthCodeURL(state, oauth2.AccessTypeOnline),
		SetCookie: http.Cookie{
			Name:     StateCookieName,
			Value:    state,
			MaxAge:   int(StateDuration.Seconds()),
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
			Path:     "/auth/discord",
		},
	}, nil
}

type CallbackInput struct {
	Code        string `query:"code" doc:"OAuth authorization code"`
	State       string `query:"state" doc:"OAuth state issued by the login redirect"`
	StateCookie string `cookie:"oauth_state"`
}

type CallbackOutput struct {
	SetCookie http.Cookie `header:"Set-Cookie"`
	Body      struct {
		Message  string `json:"message"`
		PlayerID string `json:"player_id"`
	}
}

func (h *AuthHandler) HandleCallback(ctx context.Context, input *CallbackInput) (*CallbackOutput, error) {
	if input.Code == "" {
		return nil, huma.Error400BadRequest("Code not found")
	}
	if input.State == "" || input.StateCookie == "" || input.State != input.StateCookie {
		return nil, huma.Error403Forbidden("Invalid OAuth state")
	}

	token, err := h.oauthConfig.Exchange(ctx, input.Code)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to exchange token")
	}

	client := h.oauthConfig.Client(ctx, token)

	// Check Guild Membership
	if h.cfg.DiscordGuildID != "" {
		guildsResp, err := client.Get(DiscordUserGuildsAPI)
		if err != nil {
			return nil, huma.Error500InternalServerError("Failed to get user guilds")
		}
		defer guildsResp.Body.Close()

		var guilds []struct {
			ID string `json:"id"`
		}
		if err := json.NewDecoder(guildsResp.Body).Decode(&guilds); err != nil {
			return nil, huma.Error500InternalServerError("Failed to decode user guilds")
		}

		isMember := false
		for _, g := range guilds {
			if g.ID == h.cfg.DiscordGuildID {
				isMember = true
				break
			}
		}
		if !isMember {
			return nil, huma.Error403Forbidden("Access denied: You are not a member of the required guild.")
		}
	}

	resp, err := client.Get(DiscordUserAPI)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to get user info")
	}
	defer resp.Body.Close()

	var discordUser struct {
		ID       string `json:"id"`
		Username string `json:"username"`
		Email    string `json:"email"`
		Avatar   string `json:"avatar"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&discordUser); err != nil {
		return nil, huma.Error500InternalServerError("Failed to decode user info")
	}

	user, err := h.LoginUser(ctx, discordUser.ID, discordUser.Username, discordUser.Email, discordUser.Avatar)
	if err != nil {
		return nil, huma.Error500InternalServerError(err.Error())
	}

	jwtToken, err := h.GenerateToken(user.ID)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to generate token")
	}

	res := &CallbackOutput{
		SetCookie: http.Cookie{
			Name:     CookieName,
			Value:    jwtToken,
			Expires:  time.Now().Add(TokenDuration),
			HttpOnly: true,
			Path:     "/",
		},
	}
	res.Body.Message = fmt.Sprintf("Welcome %s! You are logged in.", user.Username)
	res.Body.PlayerID = user.PlayerID
	return res, nil
}

// LoginUser upserts the Discord user and makes sure a player exists for it.
func (h *AuthHandler) LoginUser(ctx context.Context, discordID, username, email, avatar string) (*models.User, error) {
	var user models.User
	if err := h.db.WithContext(ctx).FirstOrInit(&user, models.User{DiscordID: discordID}).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	user.Username = username
	user.Email = email
	user.Avatar = avatar
	user.PlayerID = PlayerIDFor(discordID)

	if err := h.db.WithContext(ctx).Save(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to save user: %w", err)
	}

	if h.players != nil {
		if err := h.players.EnsurePlayer(ctx, user.PlayerID, user.Username); err != nil {
			return nil, fmt.Errorf("failed to register player: %w", err)
		}
	}
	return &user, nil
}

func (h *AuthHandler) GenerateToken(userID uint) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(TokenDuration).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.cfg.JWTSecret))
}

// ParseToken validates a session token and returns its user id and expiry.
func (h *AuthHandler) ParseToken(tokenString string) (uint, time.Time, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(h.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return 0, time.Time{}, errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, time.Time{}, errors.New("invalid token claims")
	}
	userIDFloat, ok := claims["user_id"].(float64)
	if !ok {
		return 0, time.Time{}, errors.New("invalid token claims")
	}
	var exp time.Time
	if v, ok := claims["exp"].(float64); ok {
		exp = time.Unix(int64(v), 0)
	}
	return uint(userIDFloat), exp, nil
}

// Authorize resolves the caller from the request context (set by
// AuthMiddleware) or from the raw Cookie header.
func (h *AuthHandler) Authorize(ctx context.Context, cookieHeader string) (uint, error) {
	if userID, ok := ctx.Value(UserIDKey).(uint); ok && userID != 0 {
		return userID, nil
	}
	if cookieHeader == "" {
		return 0, huma.Error401Unauthorized("Unauthorized: No token found")
	}

	req := http.Request{Header: http.Header{"Cookie": {cookieHeader}}}
	cookie, err := req.Cookie(CookieName)
	if err != nil {
		return 0, huma.Error401Unauthorized("Unauthorized: No token found")
	}

	userID, _, err := h.ParseToken(cookie.Value)
	if err != nil {
		return 0, huma.Error401Unauthorized("Unauthorized: Invalid token")
	}
	return userID, nil
}

// RequireRole authorizes the caller and checks the given Discord role.
func (h *AuthHandler) RequireRole(ctx context.Context, cookieHeader, role string) (*models.User, error) {
	userID, err := h.Authorize(ctx, cookieHeader)
	if err != nil {
		return nil, err
	}

	var user models.User
	if err := h.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		return nil, huma.Error404NotFound("User not found")
	}

	hasRole, err := h.CheckRole(user.DiscordID, role)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to check role: " + err.Error())
	}
	if !hasRole {
		return nil, huma.Error403Forbidden("Access denied: missing " + role + " role")
	}
	return &user, nil
}

func (h *AuthHandler) CheckRole(discordID, roleName string) (bool, error) {
	if h.roles == nil {
		return false, nil
	}
	return h.roles.HasRole(discordID, roleName)
}

type MeOutput struct {
	Body struct {
		ID        uint   `json:"id"`
		DiscordID string `json:"discord_id"`
		Username  string `json:"username"`
		Email     string `json:"email"`
		Avatar    string `json:"avatar"`
		PlayerID  string `json:"player_id"`
	}
}

func (h *AuthHandler) HandleMe(ctx context.Context, input *AuthInput) (*MeOutput, error) {
	userID, err := h.Authorize(ctx, input.Cookie)
	if err != nil {
		return nil, err
	}

	var user models.User
	if err := h.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		return nil, huma.Error404NotFound("User not found")
	}

	res := &MeOutput{}
	res.Body.ID = user.ID
	res.Body.DiscordID = user.DiscordID
	res.Body.Username = user.Username
	res.Body.Email = user.Email
	res.Body.Avatar = user.Avatar
	res.Body.PlayerID = user.PlayerID
	return res, nil
}

// DiscordRoles checks guild roles by name through a bot session.
type DiscordRoles struct {
	session *discordgo.Session
	guildID string
}

func NewDiscordRoles(session *discordgo.Session, guildID string) *DiscordRoles {
	return &DiscordRoles{session: session, guildID: guildID}
}

func (d *DiscordRoles) HasRole(discordID, roleName string) (bool, error) {
	if d.session == nil {
		return false, errors.New("discord session is nil")
	}

	member, err := d.session.GuildMember(d.guildID, discordID)
	if err != nil {
		return false, fmt.Errorf("failed to get guild member: %w", err)
	}
	roles, err := d.session.GuildRoles(d.guildID)
	if err != nil {
		return false, fmt.Errorf("failed to get guild roles: %w", err)
	}

	names := make(map[string]string, len(roles))
	for _, r := range roles {
		names[r.ID] = r.Name
	}
	for _, id := range member.Roles {
		if names[id] == roleName {
			return true, nil
		}
	}
	slog.Debug("role not held", "discord_id", discordID, "role", roleName)
	return false, nil
}
