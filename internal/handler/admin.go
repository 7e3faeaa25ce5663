package handler

import (
	"net/http"

	"github.com/sakif/whispering-network/internal/model"
	"github.com/sakif/whispering-network/internal/service"
)

// AdminHandler serves admin account management and the recipient directory.
//
// Admin records are returned as model.Admin, whose PasswordHash is tagged
// json:"-", so no response built here can contain a password.
type AdminHandler struct {
	admins *service.AdminService
}

func NewAdminHandler(admins *service.AdminService) *AdminHandler {
	return &AdminHandler{admins: admins}
}

type createAdminRequest struct {
	Username string `json:"username" validate:"required,notblank,max=50"`
	Password string `json:"password" validate:"required,max=72"`
	Nickname string `json:"nickname" validate:"required,notblank,max=50"`
	Role     string `json:"role" validate:"omitempty,max=32"`
	IsActive *bool  `json:"isActive"`
}

type updateAdminRequest struct {
	IsActive *bool `json:"isActive" validate:"required"`
}

// HandleCreate creates an admin account.
//
// HTTP: POST /api/admins
// RESPONSE: 201 with the admin (no password), 409 if username or nickname is taken.
func (h *AdminHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createAdminRequest
	if err := decodeJSON(w, r, &req, "Invalid admin data"); err != nil {
		writeError(w, r, err)
		return
	}

	a, err := h.admins.Create(r.Context(), service.CreateAdminInput{
		Username: req.Username,
		Password: req.Password,
		Nickname: req.Nickname,
		Role:     req.Role,
		IsActive: req.IsActive,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

// HTTP: GET /api/admins
func (h *AdminHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	admins, err := h.admins.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if admins == nil {
		admins = []model.Admin{}
	}
	writeJSON(w, http.StatusOK, admins)
}

// HandleUpdateStatus activates or deactivates an admin.
//
// HTTP: PATCH /api/admins/{id}
// REQUEST BODY: {"isActive":false}
func (h *AdminHandler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req updateAdminRequest
	if err := decodeJSON(w, r, &req, "Invalid admin data"); err != nil {
		writeError(w, r, err)
		return
	}

	a, err := h.admins.SetActive(r.Context(), id, *req.IsActive)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// HandleRecipients lists who a private message can be addressed to.
//
// HTTP: GET /api/recipients
func (h *AdminHandler) HandleRecipients(w http.ResponseWriter, r *http.Request) {
	names, err := h.admins.Recipients(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, names)
}
