// Package session реализует HTTP-обработчики потоковых сессий ассистента.
//
// Сессия идентифицируется слотом из URL. Start отвечает сразу, как только
// сессия перешла в thinking; текст собирается в фоне и доступен через Get
// или через WebSocket.
package session

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/autopay-alert/internal/ai"
	"github.com/magabrotheeeer/autopay-alert/internal/http/middlewarectx"
	"github.com/magabrotheeeer/autopay-alert/internal/http/response"
	"github.com/magabrotheeeer/autopay-alert/internal/services/assistant"
)

// Registry хранит сессии идентичностей.
type Registry interface {
	Session(uid, slot string) (*ai.Session, error)
	Lookup(uid, slot string) (*ai.Session, bool)
	Remove(uid, slot string) bool
}

// Assistant строит prompt и проверяет квоту.
type Assistant interface {
	Allow(uid string) error
	Prompt(ctx context.Context, uid string, req assistant.Request) (string, error)
}

// Handler обслуживает все операции над сессиями.
type Handler struct {
	log       *slog.Logger
	registry  Registry
	assistant Assistant
}

func New(log *slog.Logger, registry Registry, a Assistant) *Handler {
	return &Handler{
		log:       log,
		registry:  registry,
		assistant: a,
	}
}

// KindForSlot возвращает вид запроса для слота: стандартные слоты совпадают
// с видом, остальные считаются свободным запросом.
func KindForSlot(slot string) string {
	switch slot {
	case ai.SlotTaskPlan, ai.SlotSubAnalysis, ai.SlotSubReview, ai.SlotBriefing:
		return slot
	}
	return ai.SlotFreeForm
}

func (h *Handler) logger(r *http.Request, op string) *slog.Logger {
	return h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("slot", chi.URLParam(r, "slot")),
	)
}

// Start запускает новый запрос в слоте, прерывая предыдущий.
func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.ai.session.start")

	uid, ok := middlewarectx.RequireUser(w, r, log)
	if !ok {
		return
	}
	slot := chi.URLParam(r, "slot")
	if !ai.ValidSlot(slot) {
		response.Fail(w, r, http.StatusBadRequest, "invalid slot")
		return
	}

	var req assistant.Request
	if r.ContentLength != 0 {
		if !response.Decode(w, r, log, nil, &req) {
			return
		}
	}
	req.Kind = KindForSlot(slot)

	if err := h.assistant.Allow(uid); err != nil {
		response.FromError(w, r, log, "session rejected", err)
		return
	}
	prompt, err := h.assistant.Prompt(r.Context(), uid, req)
	if err != nil {
		response.FromError(w, r, log, "failed to build prompt", err)
		return
	}
	sess, err := h.registry.Session(uid, slot)
	if err != nil {
		response.FromError(w, r, log, "failed to open session", err)
		return
	}

	state := sess.Start(context.WithoutCancel(r.Context()), prompt)
	log.Info("session started")
	response.JSON(w, r, http.StatusAccepted, state)
}

// Get возвращает снимок сессии. Несуществующий слот отдаётся как idle.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.ai.session.get")

	uid, ok := middlewarectx.RequireUser(w, r, log)
	if !ok {
		return
	}
	sess, found := h.registry.Lookup(uid, chi.URLParam(r, "slot"))
	if !found {
		response.JSON(w, r, http.StatusOK, ai.State{Status: ai.StatusIdle})
		return
	}
	response.JSON(w, r, http.StatusOK, sess.Snapshot())
}

// Cancel прерывает запрос. Повторная отмена ничего не меняет.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.ai.session.cancel")

	uid, ok := middlewarectx.RequireUser(w, r, log)
	if !ok {
		return
	}
	sess, found := h.registry.Lookup(uid, chi.URLParam(r, "slot"))
	if !found {
		response.Fail(w, r, http.StatusNotFound, "session not found")
		return
	}
	state := sess.Cancel()
	log.Info("session cancel requested", slog.String("status", string(state.Status)))
	response.JSON(w, r, http.StatusOK, state)
}

// Delete сбрасывает сессию и удаляет её из реестра.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.ai.session.delete")

	uid, ok := middlewarectx.RequireUser(w, r, log)
	if !ok {
		return
	}
	if !h.registry.Remove(uid, chi.URLParam(r, "slot")) {
		response.Fail(w, r, http.StatusNotFound, "session not found")
		return
	}
	response.JSON(w, r, http.StatusOK, ai.State{Status: ai.StatusIdle})
}
