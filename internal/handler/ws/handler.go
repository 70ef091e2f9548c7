package ws

import (
	"errors"
	"net/http"
	"time"

	"UMKMForecast/internal/domain/models"
	"UMKMForecast/internal/domain/repository"
	xhttp "UMKMForecast/pkg/http"
	"UMKMForecast/pkg/logger"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

// Handler upgrades GET /ws/sessions/:id and attaches the connection to the hub.
type Handler struct {
	hub      *Hub
	store    repository.SessionStore
	upgrader websocket.Upgrader
	logger   *logger.Logger
}

// NewHandler creates the websocket route handler. An empty origins list accepts any origin.
func NewHandler(hub *Hub, store repository.SessionStore, l *logger.Logger, origins []string) *Handler {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return &Handler{
		hub:   hub,
		store: store,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return len(allowed) == 0 || allowed["*"] || origin == "" || allowed[origin]
			},
		},
		logger: l,
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws/sessions/:id", h.Subscribe)
}

// Subscribe streams SessionEvents for one session, starting with its current status.
func (h *Handler) Subscribe(c echo.Context) error {
	req := &models.SessionRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	sess, err := h.store.Get(c.Request().Context(), req.ID)
	if err != nil {
		if errors.Is(err, models.ErrSessionNotFound) {
			return xhttp.AppErrorResponse(c, xhttp.NotFoundError("session not found").WithParam("id", req.ID))
		}
		h.logger.Error("ws session lookup failed", logger.String("session_id", req.ID), logger.Error(err))
		return xhttp.InternalServerErrorResponse(c)
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// the upgrader already answered the request
		return nil
	}

	snapshot := snapshotEvent(sess)
	h.hub.Serve(conn, req.ID, &snapshot)
	return nil
}

func snapshotEvent(s *models.Session) models.SessionEvent {
	e := models.SessionEvent{
		ID:         uuid.NewString(),
		Type:       eventForStatus(s.Status),
		SessionID:  s.ID,
		Status:     s.Status,
		Error:      s.Error,
		OccurredAt: time.Now().UTC(),
	}
	if s.Result != nil {
		e.BestModel = s.Result.BestModel
	}
	return e
}

func eventForStatus(st models.SessionStatus) models.EventType {
	switch st {
	case models.StatusTraining:
		return models.EventSessionTraining
	case models.StatusTrained:
		return models.EventSessionTrained
	case models.StatusFailed:
		return models.EventSessionFailed
	default:
		return models.EventSessionUploaded
	}
}
