package webhook

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AldoPgm/Agente-Inmobiliario/internal/leads/domain"
	"github.com/AldoPgm/Agente-Inmobiliario/platform/httpkit"
	"github.com/AldoPgm/Agente-Inmobiliario/platform/validator"
)

// Handler exposes the inbound message endpoint.
type Handler struct {
	service *Service
	val     *validator.Validator
}

func NewHandler(service *Service, val *validator.Validator) *Handler {
	return &Handler{service: service, val: val}
}

// InboundRequest is the body posted by a channel gateway.
type InboundRequest struct {
	Identity string `json:"identity" validate:"required,max=64"`
	Channel  string `json:"channel" validate:"omitempty,oneof=whatsapp web email"`
	Text     string `json:"text" validate:"required,max=4000"`
}

// InboundResponse carries the agent reply and the lead's current state.
type InboundResponse struct {
	LeadID string `json:"leadId"`
	Reply  string `json:"reply"`
	Score  int    `json:"score"`
	Tier   string `json:"tier"`
	Status string `json:"status"`
}

// HandleInbound processes one inbound client message.
// POST /api/v1/webhook/messages
func (h *Handler) HandleInbound(c *gin.Context) {
	var req InboundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation error", err.Error())
		return
	}

	result, err := h.service.ProcessInbound(c.Request.Context(), InboundMessage{
		Identity: req.Identity,
		Channel:  domain.Channel(req.Channel),
		Text:     req.Text,
	})
	if err != nil {
		if errors.Is(err, ErrUnknownChannel) {
			httpkit.Error(c, http.StatusBadRequest, "unknown channel", req.Channel)
			return
		}
		httpkit.Error(c, http.StatusInternalServerError, "failed to process message", nil)
		return
	}

	httpkit.OK(c, InboundResponse{
		LeadID: result.LeadID.String(),
		Reply:  result.Reply,
		Score:  result.Score,
		Tier:   string(result.Tier),
		Status: string(result.Status),
	})
}

// HandleHealth reports liveness.
// GET /healthz
func (h *Handler) HandleHealth(c *gin.Context) {
	httpkit.OK(c, gin.H{"status": "ok"})
}
