package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Faultbox/bodyview/internal/app"
	"github.com/Faultbox/bodyview/internal/focus"
	"github.com/Faultbox/bodyview/internal/injury"
	"github.com/Faultbox/bodyview/internal/loader"
)

// ============================================================
// Health
// ============================================================

func (s *Server) live(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "alive"})
}

func (s *Server) ready(c fiber.Ctx) error {
	ctx, cancel := loopCtx()
	defer cancel()

	if _, err := s.host.State(ctx); err != nil {
		return c.Status(http.StatusServiceUnavailable).JSON(fiber.Map{"status": "not ready", "error": err.Error()})
	}
	if s.store != nil {
		if err := s.store.Ping(ctx); err != nil {
			return c.Status(http.StatusServiceUnavailable).JSON(fiber.Map{"status": "not ready", "error": err.Error()})
		}
	}
	return c.JSON(fiber.Map{"status": "ready"})
}

// ============================================================
// Model
// ============================================================

type loadRequest struct {
	URL string `json:"url"`
}

type attemptPayload struct {
	Strategy   string `json:"strategy"`
	Error      string `json:"error,omitempty"`
	DurationMs int64  `json:"duration_ms"`
}

type loadResponse struct {
	Success  bool             `json:"success"`
	URL      string           `json:"url"`
	Strategy string           `json:"strategy,omitempty"`
	Meshes   int              `json:"meshes"`
	Attempts []attemptPayload `json:"attempts"`
	Error    string           `json:"error,omitempty"`
}

func (s *Server) loadModel(c fiber.Ctx) error {
	var req loadRequest
	if err := decodeBody(c, &req); err != nil {
		return errorJSON(c, http.StatusBadRequest, err.Error())
	}
	if req.URL == "" {
		return errorJSON(c, http.StatusBadRequest, "url required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
	defer cancel()

	res, err := s.host.LoadModel(ctx, req.URL)
	resp := mapLoad(req.URL, res)
	if err == nil {
		return c.JSON(resp)
	}

	resp.Success = false
	resp.Error = err.Error()
	switch {
	case errors.Is(err, app.ErrSuperseded):
		return c.Status(http.StatusConflict).JSON(resp)
	case errors.Is(err, loader.ErrAllStrategiesFailed):
		return c.Status(http.StatusBadGateway).JSON(resp)
	case errors.Is(err, app.ErrStopped):
		return c.Status(http.StatusServiceUnavailable).JSON(resp)
	default:
		return c.Status(http.StatusInternalServerError).JSON(resp)
	}
}

func mapLoad(url string, res *loader.Result) loadResponse {
	resp := loadResponse{URL: url, Attempts: []attemptPayload{}}
	if res == nil {
		return resp
	}
	resp.Success = res.OK()
	resp.Strategy = res.Strategy
	if res.Graph != nil {
		resp.Meshes = len(res.Graph.Meshes())
	}
	for _, a := range res.Attempts {
		p := attemptPayload{Strategy: a.Strategy, DurationMs: a.Duration.Milliseconds()}
		if a.Err != nil {
			p.Error = a.Err.Error()
		}
		resp.Attempts = append(resp.Attempts, p)
	}
	return resp
}

func (s *Server) meshes(c fiber.Ctx) error {
	ctx, cancel := loopCtx()
	defer cancel()

	names, err := s.host.Meshes(ctx)
	if err != nil {
		return loopError(c, err)
	}
	return c.JSON(fiber.Map{"meshes": names})
}

// ============================================================
// Focus & View
// ============================================================

type focusRequest struct {
	Name     string `json:"name"`
	Status   string `json:"status"`
	Severity string `json:"severity"`
}

func (s *Server) focus(c fiber.Ctx) error {
	var req focusRequest
	if err := decodeBody(c, &req); err != nil {
		return errorJSON(c, http.StatusBadRequest, err.Error())
	}
	return s.doFocus(c, req.Name, focus.ParseStatus(req.Status), req.Severity)
}

func (s *Server) doFocus(c fiber.Ctx, name string, status focus.Status, severity string) error {
	ctx, cancel := loopCtx()
	defer cancel()

	res, err := s.host.Focus(ctx, name, status, severity)
	if errors.Is(err, focus.ErrNotFound) {
		return errorJSON(c, http.StatusNotFound, err.Error())
	}
	if err != nil {
		return loopError(c, err)
	}
	return c.JSON(fiber.Map{"focused": res})
}

func (s *Server) clearFocus(c fiber.Ctx) error {
	ctx, cancel := loopCtx()
	defer cancel()

	if err := s.host.ClearFocus(ctx); err != nil {
		return loopError(c, err)
	}
	return c.SendStatus(http.StatusNoContent)
}

func (s *Server) resetView(c fiber.Ctx) error {
	ctx, cancel := loopCtx()
	defer cancel()

	if err := s.host.ResetView(ctx); err != nil {
		return loopError(c, err)
	}
	return c.SendStatus(http.StatusNoContent)
}

func (s *Server) state(c fiber.Ctx) error {
	ctx, cancel := loopCtx()
	defer cancel()

	st, err := s.host.State(ctx)
	if err != nil {
		return loopError(c, err)
	}
	return c.JSON(st)
}

// ============================================================
// Injuries
// ============================================================

func (s *Server) listInjuries(c fiber.Ctx) error {
	records, err := s.store.List(context.Background())
	if err != nil {
		s.log.Error("list injuries", zap.Error(err))
		return errorJSON(c, http.StatusInternalServerError, "storage error")
	}
	return c.JSON(fiber.Map{"injuries": records})
}

func (s *Server) createInjury(c fiber.Ctx) error {
	var in injury.Input
	if err := decodeBody(c, &in); err != nil {
		return errorJSON(c, http.StatusBadRequest, err.Error())
	}

	rec, err := s.store.Create(context.Background(), in)
	if errors.Is(err, injury.ErrInvalid) {
		return errorJSON(c, http.StatusBadRequest, err.Error())
	}
	if err != nil {
		s.log.Error("create injury", zap.Error(err))
		return errorJSON(c, http.StatusInternalServerError, "storage error")
	}
	return c.Status(http.StatusCreated).JSON(rec)
}

func (s *Server) getInjury(c fiber.Ctx) error {
	rec, ok, err := s.lookupInjury(c)
	if !ok {
		return err
	}
	return c.JSON(rec)
}

func (s *Server) deleteInjury(c fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid id")
	}

	err = s.store.Delete(context.Background(), id)
	if errors.Is(err, injury.ErrNotFound) {
		return errorJSON(c, http.StatusNotFound, err.Error())
	}
	if err != nil {
		s.log.Error("delete injury", zap.Error(err))
		return errorJSON(c, http.StatusInternalServerError, "storage error")
	}
	return c.SendStatus(http.StatusNoContent)
}

func (s *Server) focusInjury(c fiber.Ctx) error {
	rec, ok, err := s.lookupInjury(c)
	if !ok {
		return err
	}
	return s.doFocus(c, rec.BodyPart, rec.Status, rec.Severity)
}

// lookupInjury resolves the :id parameter. When ok is false the response
// has already been written and err is the handler's return value.
func (s *Server) lookupInjury(c fiber.Ctx) (injury.Record, bool, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return injury.Record{}, false, errorJSON(c, http.StatusBadRequest, "invalid id")
	}

	rec, err := s.store.Get(context.Background(), id)
	if errors.Is(err, injury.ErrNotFound) {
		return injury.Record{}, false, errorJSON(c, http.StatusNotFound, err.Error())
	}
	if err != nil {
		s.log.Error("get injury", zap.Error(err))
		return injury.Record{}, false, errorJSON(c, http.StatusInternalServerError, "storage error")
	}
	return rec, true, nil
}

func decodeBody(c fiber.Ctx, v any) error {
	if len(c.Body()) == 0 {
		return errors.New("empty body")
	}
	if err := json.Unmarshal(c.Body(), v); err != nil {
		return errors.New("invalid json")
	}
	return nil
}
