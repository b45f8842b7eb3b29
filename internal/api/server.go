package api

import (
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/vietanh2810/squares-api/docs"
	v1 "github.com/vietanh2810/squares-api/internal/api/handler/v1"
	"github.com/vietanh2810/squares-api/internal/api/middleware"
	"github.com/vietanh2810/squares-api/internal/config"
	"github.com/vietanh2810/squares-api/internal/metrics"
	"github.com/vietanh2810/squares-api/internal/service"
)

type Server struct {
	Config *config.AppConfig
	Router *gin.Engine
	Stream *v1.StreamHandler
}

// Services are the wired application services. Users is nil in passcode
// mode.
type Services struct {
	Board   *service.FundraiserService
	Auth    *service.AuthService
	Users   *service.UserService
	Metrics *metrics.Metrics
}

func NewServer(conf *config.AppConfig, svcs Services) *Server {
	gin.SetMode(conf.Gin.Mode)
	engine := gin.New()

	s := &Server{
		Config: conf,
		Router: engine,
	}

	s.MountMiddlewares()

	authHandler := s.initAuthHandler(svcs)
	boardHandler := v1.NewBoardHandler(svcs.Board)
	s.Stream = v1.NewStreamHandler(svcs.Board, svcs.Metrics, conf.API.AllowedCORSDomains)
	svcs.Board.OnChange(s.Stream.Publish)

	s.MountHandlers(authHandler, boardHandler, s.Stream)
	s.Router.GET("/metrics", gin.WrapH(svcs.Metrics.Handler()))

	return s
}

func (s *Server) initAuthHandler(svcs Services) *v1.AuthHandler {
	var users v1.UserService
	if svcs.Users != nil {
		users = svcs.Users
	}

	return v1.NewAuthHandler(s.Config.API, svcs.Auth, svcs.Board, users)
}

func (s *Server) MountMiddlewares() {
	// Logger and Recovery are needed unless we use gin.Default().
	s.Router.Use(gin.Logger())
	s.Router.Use(gin.Recovery())
	s.Router.Use(requestid.New())
	s.Router.Use(middleware.ConfigCORS(s.Config.API.AllowedCORSDomains))
}

func (s *Server) MountHandlers(authHandler *v1.AuthHandler, boardHandler *v1.BoardHandler, streamHandler *v1.StreamHandler) {
	const basePath = "/api/v1"

	authn := middleware.NewAuthenticator(s.Config.API.JWTSigningKey)
	api := s.Router.Group(basePath)

	auth := api.Group("/auth", authn.ParseJWT())
	{
		auth.POST("/passcode", authHandler.HandlePasscode)
		auth.POST("/signup", authHandler.HandleSignup)
		auth.POST("/login", authHandler.HandleLogin)
		auth.POST("/logout", authHandler.HandleLogout)
		auth.GET("/me", authHandler.HandleMe)
	}

	public := api.Group("", authn.ParseJWTOptional())
	{
		public.GET("/board", boardHandler.HandleGetBoard)
		public.GET("/board/stream", streamHandler.HandleStream)
		public.GET("/rules", boardHandler.HandleGetRules)
		public.GET("/intro", boardHandler.HandleGetIntro)
	}

	// Admin checks happen in the service against the current board, since
	// the gate and lock live in the board itself.
	admin := api.Group("/admin", authn.ParseJWT())
	{
		admin.GET("/board", boardHandler.HandleGetAdminBoard)
		admin.PUT("/board", boardHandler.HandleReplaceBoard)
		admin.PUT("/cells/:row/:col", boardHandler.HandleSetCell)
		admin.DELETE("/cells/:row/:col", boardHandler.HandleClearCell)
		admin.DELETE("/cells", boardHandler.HandleClearCells)
		admin.PUT("/scoreboard/:checkpoint", boardHandler.HandleSetScore)
		admin.PUT("/reveals/:checkpoint", boardHandler.HandleSetReveal)
		admin.POST("/numbers/draw", boardHandler.HandleDrawNumbers)
		admin.POST("/numbers/reset", boardHandler.HandleResetNumbers)
		admin.PUT("/settings", boardHandler.HandleUpdateSettings)
		admin.PUT("/lock", boardHandler.HandleSetLock)
		admin.PUT("/gate", boardHandler.HandleSetGate)
		admin.GET("/export", boardHandler.HandleExport)
		admin.POST("/import", boardHandler.HandleImport)
		admin.POST("/reset", boardHandler.HandleReset)
	}

	s.Router.GET("/", v1.HandleHealthcheck)

	// Setup Swagger UI.
	docs.SwaggerInfo.Host = s.Config.API.BaseURL
	docs.SwaggerInfo.BasePath = basePath
	docs.SwaggerInfo.Title = "Super Bowl Squares API"
	docs.SwaggerInfo.Description = "Fundraiser board with squares, quarter scores, reveals and payouts."
	docs.SwaggerInfo.Version = "1.0"
	s.Router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))
}
