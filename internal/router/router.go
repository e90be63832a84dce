package router

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"gorm.io/gorm"

	"acemc/internal/audit"
	"acemc/internal/auth"
	"acemc/internal/cache"
	"acemc/internal/config"
	"acemc/internal/errors"
	"acemc/internal/handler"
	"acemc/internal/mail"
	"acemc/internal/middleware"
	"acemc/internal/model"
	"acemc/internal/repository"
	"acemc/internal/service"
	"acemc/internal/storage"
)

// bodyLimit leaves room for a full-size attachment plus the other form fields.
const bodyLimit = "12M"

// Handlers are the HTTP handlers mounted by Register.
type Handlers struct {
	Auth      *handler.AuthHandler
	Users     *handler.UserHandler
	Dashboard *handler.DashboardHandler
	Patients  *handler.PatientHandler
	Attending *handler.DoctorHandler[model.DocAttending]
	Admitting *handler.DoctorHandler[model.DocAdmitting]
	Rooms     *handler.RoomHandler
	Soa       *handler.SoaHandler
}

// Security is what the authentication middleware needs.
type Security struct {
	JWT    *auth.JWTService
	Tokens auth.TokenStoreInterface
	Users  auth.UserLoader
}

// Build wires repositories, services and handlers over gdb.
func Build(cfg *config.Config, gdb *gorm.DB, cacheClient *cache.Client, disk *storage.Disk, mailer mail.Enqueuer) (Handlers, Security) {
	userRepo := repository.NewUserRepository(gdb)
	logRepo := repository.NewActivityLogRepository(gdb)
	patientRepo := repository.NewPatientRepository(gdb)
	attendingRepo := repository.NewAttendingDoctorRepository(gdb)
	admittingRepo := repository.NewAdmittingDoctorRepository(gdb)
	roomRepo := repository.NewRoomRepository(gdb)
	soaRepo := repository.NewSoaRepository(gdb)

	jwtService := auth.NewJWTService(cfg.JWTSecret)
	tokenStore := auth.NewTokenStore(cacheClient)
	recorder := audit.NewRecorder(logRepo)

	userService := service.NewUserService(userRepo, cacheClient, recorder, mailer)
	authService := service.NewAuthService(userRepo, jwtService, tokenStore)

	h := Handlers{
		Auth:      handler.NewAuthHandler(authService, userService),
		Users:     handler.NewUserHandler(userService, service.NewActivityLogService(logRepo, userRepo)),
		Dashboard: handler.NewDashboardHandler(service.NewDashboardService(userRepo, patientRepo, roomRepo, soaRepo)),
		Patients:  handler.NewPatientHandler(service.NewPatientService(patientRepo, attendingRepo, admittingRepo, disk, recorder)),
		Attending: handler.NewAttendingDoctorHandler(service.NewAttendingDoctorService(attendingRepo)),
		Admitting: handler.NewAdmittingDoctorHandler(service.NewAdmittingDoctorService(admittingRepo)),
		Rooms:     handler.NewRoomHandler(service.NewRoomService(roomRepo)),
		Soa:       handler.NewSoaHandler(service.NewSoaService(soaRepo, patientRepo, disk, cfg.PublicBaseURL)),
	}
	return h, Security{JWT: jwtService, Tokens: tokenStore, Users: userService}
}

// resource is a handler exposing the five resource actions.
type resource interface {
	List(c echo.Context) error
	Get(c echo.Context) error
	Create(c echo.Context) error
	Update(c echo.Context) error
	Delete(c echo.Context) error
}

func mount(g *echo.Group, path string, h resource) {
	g.GET(path, h.List)
	g.POST(path, h.Create)
	g.GET(path+"/:id", h.Get)
	g.Match([]string{http.MethodPut, http.MethodPatch}, path+"/:id", h.Update)
	g.DELETE(path+"/:id", h.Delete)
}

// Register wires routes and middleware.
func Register(e *echo.Echo, cfg *config.Config, logger zerolog.Logger, disk *storage.Disk, sec Security, h Handlers) {
	e.Use(echomw.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.Recovery(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{echo.HeaderAuthorization, echo.HeaderContentType, echo.HeaderXRequestID},
	}))
	e.Use(echomw.BodyLimit(bodyLimit))

	v := validator.New()
	v.RegisterTagNameFunc(errors.FieldName)
	e.Validator = &CustomValidator{validator: v}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/swagger/*", echoSwagger.WrapHandler)
	e.GET("/storage/*", echo.WrapHandler(disk.Handler("/storage/")))

	// Public routes
	e.GET("/soa/view/:token", h.Soa.PublicView)
	e.POST("/auth/login", h.Auth.Login)
	e.POST("/auth/refresh", h.Auth.Refresh)

	jwtAuth := auth.JWT(sec.JWT)
	authn := auth.Authenticate(sec.Tokens, sec.Users)
	verified := auth.RequireVerified()

	e.POST("/auth/logout", h.Auth.Logout, jwtAuth, authn)
	e.GET("/me", h.Auth.Me, jwtAuth, authn)
	e.GET("/me/navigation", h.Auth.Navigation, jwtAuth, authn)
	e.PUT("/settings/profile", h.Auth.UpdateProfile, jwtAuth, authn)
	e.PUT("/settings/password", h.Auth.ChangePassword, jwtAuth, authn)
	e.GET("/dashboard", h.Auth.Dashboard, jwtAuth, authn, verified)

	staff := func(prefix string, role model.Role) *echo.Group {
		return e.Group(prefix, jwtAuth, authn, verified, auth.RequireRole(role))
	}

	admin := staff("/admin", model.RoleAdmin)
	admin.GET("/dashboard", h.Dashboard.Admin)
	admin.GET("/users", h.Users.ListUsers)
	admin.POST("/users", h.Users.CreateUser)
	admin.GET("/users/:id", h.Users.GetUser)
	admin.Match([]string{http.MethodPut, http.MethodPatch}, "/users/:id", h.Users.UpdateUser)
	admin.DELETE("/users/:id", h.Users.DeleteUser)
	admin.POST("/users/:id/reset-password", h.Users.ResetPassword)
	admin.GET("/clients", h.Users.ListClients)
	admin.GET("/clients/:id", h.Users.GetClient)
	admin.GET("/activity-logs", h.Users.ListActivityLogs)

	billing := staff("/billing", model.RoleBilling)
	billing.GET("/dashboard", h.Dashboard.Billing)
	billing.GET("/patient-soa/create", h.Soa.CreateForm)
	mount(billing, "/patient-soa", h.Soa)
	billing.POST("/patient-soa/:id/link", h.Soa.RotateLink)
	billing.DELETE("/patient-soa/:id/link", h.Soa.RevokeLink)
	billing.GET("/patient-soa/:id/qr", h.Soa.QRCode)

	admitting := staff("/admitting", model.RoleAdmitting)
	admitting.GET("/dashboard", h.Dashboard.Admitting)
	mount(admitting, "/patients", h.Patients)
	admitting.GET("/patients/:id/assign-doctors", h.Patients.AssignDoctorsForm)
	admitting.POST("/patients/:id/assign-doctors", h.Patients.AssignDoctors)
	mount(admitting, "/attending-doctors", h.Attending)
	mount(admitting, "/admitting-doctors", h.Admitting)
	mount(admitting, "/rooms", h.Rooms)
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
