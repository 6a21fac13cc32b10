package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-contacts-api/internal/domain/apperror"
	"github.com/oksasatya/go-contacts-api/internal/domain/entity"
	"github.com/oksasatya/go-contacts-api/internal/interface/middleware"
	"github.com/oksasatya/go-contacts-api/pkg/response"
)

type ContactService interface {
	List(ctx context.Context, ownerID int64) ([]entity.Contact, error)
	Get(ctx context.Context, ownerID, id int64) (*entity.Contact, error)
	Create(ctx context.Context, ownerID int64, c *entity.Contact) error
	Update(ctx context.Context, ownerID, id int64, patch entity.ContactPatch) (*entity.Contact, error)
	Delete(ctx context.Context, ownerID, id int64) (*entity.Contact, error)
	Search(ctx context.Context, ownerID int64, text string) ([]entity.Contact, error)
	UpcomingBirthdays(ctx context.Context, ownerID int64) ([]entity.Contact, error)
}

type ContactHandler struct {
	Svc    ContactService
	Logger *logrus.Logger
}

func NewContactHandler(svc ContactService, logger *logrus.Logger) *ContactHandler {
	return &ContactHandler{Svc: svc, Logger: logger}
}

type createContactRequest struct {
	FirstName   string `json:"first_name" binding:"required,max=100"`
	LastName    string `json:"last_name" binding:"required,max=100"`
	Email       string `json:"email" binding:"omitempty,email"`
	PhoneNumber string `json:"phone_number" binding:"required,phone"`
	Birthday    string `json:"birthday" binding:"omitempty,date"`
	ExtraData   string `json:"extra_data" binding:"max=2000"`
}

type updateContactRequest struct {
	FirstName   *string `json:"first_name" binding:"omitempty,min=1,max=100"`
	LastName    *string `json:"last_name" binding:"omitempty,min=1,max=100"`
	Email       *string `json:"email" binding:"omitempty,email"`
	PhoneNumber *string `json:"phone_number" binding:"omitempty,phone"`
	Birthday    *string `json:"birthday" binding:"omitempty,date"`
	ExtraData   *string `json:"extra_data" binding:"omitempty,max=2000"`
}

func (r updateContactRequest) patch() entity.ContactPatch {
	p := entity.ContactPatch{
		FirstName:   r.FirstName,
		LastName:    r.LastName,
		Email:       r.Email,
		PhoneNumber: r.PhoneNumber,
		ExtraData:   r.ExtraData,
	}
	if r.Birthday != nil {
		p.Birthday = parseDate(*r.Birthday)
	}
	return p
}

func ownerID(c *gin.Context) int64 {
	return c.GetInt64(middleware.CtxUserID)
}

func contactID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid contact id", apperror.ErrValidation)
	}
	return id, nil
}

// List GET /api/contacts
func (h *ContactHandler) List(c *gin.Context) {
	cs, err := h.Svc.List(c.Request.Context(), ownerID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, toContactList(cs), "ok", gin.H{"count": len(cs)})
}

// Create POST /api/contacts
func (h *ContactHandler) Create(c *gin.Context) {
	var req createContactRequest
	if !bindJSON(c, &req) {
		return
	}
	ct := &entity.Contact{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		Birthday:    parseDate(req.Birthday),
		ExtraData:   req.ExtraData,
	}
	if err := h.Svc.Create(c.Request.Context(), ownerID(c), ct); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, toContactResponse(ct), "contact created", nil)
}

// Get GET /api/contacts/:id
func (h *ContactHandler) Get(c *gin.Context) {
	id, err := contactID(c)
	if err != nil {
		writeError(c, err)
		return
	}
	ct, err := h.Svc.Get(c.Request.Context(), ownerID(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, toContactResponse(ct), "ok", nil)
}

// Update PUT /api/contacts/:id applies only the fields present in the body.
func (h *ContactHandler) Update(c *gin.Context) {
	id, err := contactID(c)
	if err != nil {
		writeError(c, err)
		return
	}
	var req updateContactRequest
	if !bindJSON(c, &req) {
		return
	}
	ct, err := h.Svc.Update(c.Request.Context(), ownerID(c), id, req.patch())
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, toContactResponse(ct), "contact updated", nil)
}

// Delete DELETE /api/contacts/:id returns the removed contact.
func (h *ContactHandler) Delete(c *gin.Context) {
	id, err := contactID(c)
	if err != nil {
		writeError(c, err)
		return
	}
	ct, err := h.Svc.Delete(c.Request.Context(), ownerID(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, toContactResponse(ct), "contact deleted", nil)
}

// Search GET /api/contacts/search?query=
func (h *ContactHandler) Search(c *gin.Context) {
	cs, err := h.Svc.Search(c.Request.Context(), ownerID(c), c.Query("query"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, toContactList(cs), "ok", gin.H{"count": len(cs)})
}

// Birthdays GET /api/contacts/birthdays
func (h *ContactHandler) Birthdays(c *gin.Context) {
	cs, err := h.Svc.UpcomingBirthdays(c.Request.Context(), ownerID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, toContactList(cs), "ok", gin.H{"count": len(cs)})
}
