package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"digitbot/internal/models"
	auth "digitbot/internal/modules/auth/service"
	"digitbot/internal/modules/config"
	history "digitbot/internal/modules/history/service"
	strategy "digitbot/internal/modules/strategy/service"
	"digitbot/internal/runner"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type Supervisor interface {
	Start(ctx context.Context, token, strategyName string) (*runner.Bot, error)
	Stop(token string) runner.StopResult
	Active() []runner.BotInfo
}

type startBotRequest struct {
	Token   string `json:"token" validate:"required"`
	BotName string `json:"bot_name" validate:"required"`
}

type stopBotRequest struct {
	Token string `json:"token" validate:"required"`
}

type dataResponse struct {
	LastDigit    *int                  `json:"last_digit"`
	DigitHistory []int                 `json:"digit_history"`
	Balance      float64               `json:"balance"`
	Bots         []strategy.Descriptor `json:"bots"`
}

// Handler — HTTP-поверхность дашборда.
type Handler struct {
	cfg      *config.Config
	registry auth.Registry
	history  *history.History
	factory  *strategy.Factory
	bots     Supervisor
	validate *validator.Validate
	log      *zap.Logger
}

func NewHandler(cfg *config.Config, reg auth.Registry, h *history.History, f *strategy.Factory, bots Supervisor, log *zap.Logger) *Handler {
	return &Handler{
		cfg:      cfg,
		registry: reg,
		history:  h,
		factory:  f,
		bots:     bots,
		validate: validator.New(),
		log:      log.Named("api"),
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/", h.Root)
	e.GET("/auth", h.Auth)
	e.GET("/auth/callback", h.AuthCallback)
	e.GET("/data", h.Data)
	e.GET("/bots", h.Bots)
	e.POST("/start-bot", h.StartBot)
	e.POST("/stop-bot", h.StopBot)
}

func (h *Handler) Root(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"message": "Welcome to DigitBot. Use /auth to sign in."})
}

// Auth уводит на OAuth Deriv; токен вернётся в /auth/callback.
func (h *Handler) Auth(c echo.Context) error {
	u, err := url.Parse(h.cfg.Deriv.OAuthURL)
	if err != nil {
		return fmt.Errorf("oauth url: %w", err)
	}
	q := u.Query()
	q.Set("app_id", h.cfg.Deriv.AppID)
	q.Set("redirect_uri", h.cfg.API.RedirectURI)
	q.Set("response_type", "token")
	q.Set("scope", "read trade")
	u.RawQuery = q.Encode()
	return c.Redirect(http.StatusTemporaryRedirect, u.String())
}

func (h *Handler) AuthCallback(c echo.Context) error {
	// Deriv отдаёт token1 (acct1/token1/cur1...), OAuth2 — access_token
	token := c.QueryParam("token1")
	if token == "" {
		token = c.QueryParam("access_token")
	}
	if token == "" {
		return detail(c, http.StatusBadRequest, "Token not received")
	}

	if err := h.registry.Issue(c.Request().Context(), c.RealIP(), token); err != nil {
		h.log.Error("issue token", zap.Error(err))
		return detail(c, http.StatusInternalServerError, "Token registry unavailable")
	}
	h.log.Info("client authorized", zap.String("client", c.RealIP()))
	return c.Redirect(http.StatusTemporaryRedirect, h.cfg.API.DashboardURL)
}

func (h *Handler) Data(c echo.Context) error {
	resp := dataResponse{
		DigitHistory: digitsToInts(h.history.Recent()),
		Bots:         h.factory.Catalog(),
	}
	if d, ok := h.history.Last(); ok {
		v := int(d)
		resp.LastDigit = &v
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *Handler) Bots(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"bots": h.bots.Active()})
}

func (h *Handler) StartBot(c echo.Context) error {
	req := &startBotRequest{}
	if err := h.bind(c, req); err != nil {
		return detail(c, http.StatusBadRequest, err.Error())
	}

	bot, err := h.bots.Start(c.Request().Context(), req.Token, req.BotName)
	switch {
	case errors.Is(err, runner.ErrUnauthorized):
		return detail(c, http.StatusUnauthorized, "Token not authorized")
	case errors.Is(err, strategy.ErrUnknownStrategy):
		return detail(c, http.StatusNotFound, "Bot not found")
	case errors.Is(err, runner.ErrShutdown):
		return detail(c, http.StatusServiceUnavailable, "Shutting down")
	case err != nil:
		h.log.Error("start bot", zap.Error(err))
		return detail(c, http.StatusInternalServerError, "Something went wrong")
	}
	return c.JSON(http.StatusOK, echo.Map{"status": fmt.Sprintf("Bot %s started", bot.Strategy())})
}

func (h *Handler) StopBot(c echo.Context) error {
	req := &stopBotRequest{}
	if err := h.bind(c, req); err != nil {
		return detail(c, http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"status": h.bots.Stop(req.Token).String()})
}

func (h *Handler) bind(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return errors.New("malformed request body")
	}
	var verrs validator.ValidationErrors
	if err := h.validate.StructCtx(c.Request().Context(), req); err != nil {
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("%s is required", verrs[0].Field())
		}
		return err
	}
	return nil
}

func detail(c echo.Context, status int, msg string) error {
	return c.JSON(status, echo.Map{"detail": msg})
}

// []Digit — это []uint8, encoding/json сделал бы из него base64
func digitsToInts(ds []models.Digit) []int {
	out := make([]int, len(ds))
	for i, d := range ds {
		out[i] = int(d)
	}
	return out
}
