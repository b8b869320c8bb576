// Package overview реализует HTTP-обработчик сводки по подпискам: ближайшие
// списания, месячная стоимость, остаток к оплате в текущем месяце и срочность строк.
package overview

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/autopay-alert/internal/http/middlewarectx"
	"github.com/magabrotheeeer/autopay-alert/internal/http/response"
	"github.com/magabrotheeeer/autopay-alert/internal/services/subscription"
)

type Handler struct {
	log     *slog.Logger
	service Service
}

type Service interface {
	Overview(ctx context.Context, uid string) (*subscription.Overview, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.overview"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	uid, ok := middlewarectx.RequireUser(w, r, log)
	if !ok {
		return
	}

	res, err := h.service.Overview(r.Context(), uid)
	if err != nil {
		response.FromError(w, r, log, "failed to build overview", err)
		return
	}

	response.JSON(w, r, http.StatusOK, res)
}
