package identity

import (
	"log/slog"
	"net"
	"net/http"

	"github.com/asaskevich/govalidator"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"gramsuvidha/pkg/domain"
	dErrors "gramsuvidha/pkg/domain-errors"
	"gramsuvidha/pkg/platform/httputil"
	"gramsuvidha/pkg/requestcontext"
)

// Handler wires auth endpoints to the identity service.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterPublic mounts the endpoints that require no token.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Post("/auth/register", h.handleRegister)
	r.Post("/auth/login", h.handleLogin)
}

// RegisterProtected mounts the endpoints behind the auth middleware.
func (h *Handler) RegisterProtected(r chi.Router) {
	r.Get("/auth/me", h.handleMe)
	r.Patch("/auth/me", h.handleUpdateMe)
	r.Post("/auth/change-password", h.handleChangePassword)

	r.Post("/auth/admin/register-user", h.handleAdminCreateUser)
	r.Get("/auth/admin/users", h.handleAdminListUsers)
	r.Get("/auth/admin/users/{userID}", h.handleAdminGetUser)
	r.Patch("/auth/admin/users/{userID}/role", h.handleAdminUpdateRole)
	r.Delete("/auth/admin/users/{userID}", h.handleAdminDeleteUser)
}

type registerRequest struct {
	Name       string    `json:"name"`
	Phone      string    `json:"phone"`
	Email      string    `json:"email"`
	Password   string    `json:"password"`
	WardNumber int       `json:"ward_number"`
	VillageID  uuid.UUID `json:"village_id"`
}

func (r registerRequest) validate() error {
	if !govalidator.StringLength(r.Name, "1", "100") {
		return dErrors.New(dErrors.CodeBadRequest, "name is required")
	}
	if !govalidator.StringLength(r.Phone, "10", "15") || !govalidator.IsNumeric(r.Phone) {
		return dErrors.New(dErrors.CodeBadRequest, "phone must be 10-15 digits")
	}
	if r.Email != "" && !govalidator.IsEmail(r.Email) {
		return dErrors.New(dErrors.CodeBadRequest, "invalid email")
	}
	return nil
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.Decode[registerRequest](w, r)
	if !ok {
		return
	}
	if err := req.validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	// Self-registration always produces a citizen; any role field in the
	// payload is not even decoded.
	u, err := h.service.Register(r.Context(), RegisterInput{
		Name:       req.Name,
		Phone:      req.Phone,
		Email:      req.Email,
		Password:   req.Password,
		WardNumber: req.WardNumber,
		VillageID:  req.VillageID,
	})
	if err != nil {
		h.fail(w, r, "register", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, u)
}

type loginRequest struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.Decode[loginRequest](w, r)
	if !ok {
		return
	}
	pair, err := h.service.Login(r.Context(), LoginInput{
		Phone:    req.Phone,
		Password: req.Password,
		ClientIP: clientIP(r),
	})
	if err != nil {
		h.fail(w, r, "login", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, pair)
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	caller, _ := requestcontext.Caller(r.Context())
	u, err := h.service.Me(r.Context(), caller.ID)
	if err != nil {
		h.fail(w, r, "me", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, u)
}

type updateMeRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
}

func (h *Handler) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
	caller, _ := requestcontext.Caller(r.Context())
	req, ok := httputil.Decode[updateMeRequest](w, r)
	if !ok {
		return
	}
	if req.Email != nil && *req.Email != "" && !govalidator.IsEmail(*req.Email) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid email"))
		return
	}
	u, err := h.service.UpdateProfile(r.Context(), caller.ID, UpdateProfileInput{
		Name:  req.Name,
		Email: req.Email,
	})
	if err != nil {
		h.fail(w, r, "update profile", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, u)
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

func (h *Handler) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	caller, _ := requestcontext.Caller(r.Context())
	req, ok := httputil.Decode[changePasswordRequest](w, r)
	if !ok {
		return
	}
	if err := h.service.ChangePassword(r.Context(), caller.ID, req.OldPassword, req.NewPassword); err != nil {
		h.fail(w, r, "change password", err)
		return
	}
	httputil.WriteMessage(w, http.StatusOK, "password changed successfully")
}

type adminCreateUserRequest struct {
	Name       string    `json:"name"`
	Phone      string    `json:"phone"`
	Email      string    `json:"email"`
	Password   string    `json:"password"`
	Role       string    `json:"role"`
	WardNumber int       `json:"ward_number"`
	VillageID  uuid.UUID `json:"village_id"`
}

func (h *Handler) handleAdminCreateUser(w http.ResponseWriter, r *http.Request) {
	caller, _ := requestcontext.Caller(r.Context())
	req, ok := httputil.Decode[adminCreateUserRequest](w, r)
	if !ok {
		return
	}
	if err := (registerRequest{Name: req.Name, Phone: req.Phone, Email: req.Email}).validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}
	u, err := h.service.AdminCreateUser(r.Context(), caller, AdminCreateInput{
		Name:       req.Name,
		Phone:      req.Phone,
		Email:      req.Email,
		Password:   req.Password,
		Role:       domain.Role(req.Role),
		WardNumber: req.WardNumber,
		VillageID:  req.VillageID,
	})
	if err != nil {
		h.fail(w, r, "admin create user", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, u)
}

func (h *Handler) handleAdminListUsers(w http.ResponseWriter, r *http.Request) {
	caller, _ := requestcontext.Caller(r.Context())
	users, err := h.service.AdminListUsers(r.Context(), caller)
	if err != nil {
		h.fail(w, r, "admin list users", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, users)
}

func (h *Handler) handleAdminGetUser(w http.ResponseWriter, r *http.Request) {
	caller, _ := requestcontext.Caller(r.Context())
	id, err := httputil.PathUUID(r, "userID")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	u, err := h.service.AdminGetUser(r.Context(), caller, id)
	if err != nil {
		h.fail(w, r, "admin get user", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, u)
}

type updateRoleRequest struct {
	Role       string `json:"role"`
	WardNumber *int   `json:"ward_number"`
}

func (h *Handler) handleAdminUpdateRole(w http.ResponseWriter, r *http.Request) {
	caller, _ := requestcontext.Caller(r.Context())
	id, err := httputil.PathUUID(r, "userID")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.Decode[updateRoleRequest](w, r)
	if !ok {
		return
	}
	u, err := h.service.AdminUpdateRole(r.Context(), caller, id, domain.Role(req.Role), req.WardNumber)
	if err != nil {
		h.fail(w, r, "admin update role", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, u)
}

func (h *Handler) handleAdminDeleteUser(w http.ResponseWriter, r *http.Request) {
	caller, _ := requestcontext.Caller(r.Context())
	id, err := httputil.PathUUID(r, "userID")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.AdminDeleteUser(r.Context(), caller, id); err != nil {
		h.fail(w, r, "admin delete user", err)
		return
	}
	httputil.WriteMessage(w, http.StatusOK, "user deleted successfully")
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(r.Context(), op+" failed",
			"request_id", requestcontext.RequestID(r.Context()),
			"error", err,
		)
	}
	httputil.WriteError(w, err)
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
