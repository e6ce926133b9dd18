// Package handler exposes the camera engine over HTTP for editor
// front ends.
package handler

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ivlev/camrig/internal/bake"
	"github.com/ivlev/camrig/internal/config"
	"github.com/ivlev/camrig/internal/project"
	"github.com/ivlev/camrig/internal/rig"
)

// CameraHandler serves camera evaluation and baking. It keeps no project
// between requests: each request names a project file or carries one.
type CameraHandler struct {
	logger    logrus.FieldLogger
	policy    config.ValidationPolicy
	workers   int
	maxFrames int
}

// NewCameraHandler creates a CameraHandler. srv.Workers bounds concurrent
// channel reduction per bake and srv.FrameLimit() the frames per request.
func NewCameraHandler(logger logrus.FieldLogger, policy config.ValidationPolicy, srv config.Server) *CameraHandler {
	return &CameraHandler{
		logger:    logger,
		policy:    policy,
		workers:   srv.Workers,
		maxFrames: srv.FrameLimit(),
	}
}

// RegisterRoutes registers the bridge routes.
func (h *CameraHandler) RegisterRoutes(router *gin.Engine) {
	router.GET("/health", h.CheckHealth)
	router.POST("/project/load", h.LoadProject)
	router.POST("/project/save", h.SaveProject)
	router.POST("/project/validate", h.ValidateProject)
	router.POST("/evaluate/frame", h.EvaluateFrame)
	router.POST("/evaluate/range", h.EvaluateRange)
	router.POST("/camera_path", h.CameraPath)
	router.POST("/bake", h.Bake)
}

// CheckHealth reports that the bridge is up.
func (h *CameraHandler) CheckHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// LoadProject returns the normalized project stored at the requested path.
func (h *CameraHandler) LoadProject(c *gin.Context) {
	var req LoadRequest
	if !h.bind(c, &req) {
		return
	}

	p, err := project.Load(req.Path)
	if err != nil {
		h.fail(c, statusFor(err), "Ошибка загрузки проекта", err)
		return
	}
	doc, err := p.Document()
	if err != nil {
		h.fail(c, http.StatusInternalServerError, "Ошибка сериализации проекта", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"project":  doc,
		"warnings": nonNil(p.Validate(h.policy)),
	})
}

// SaveProject validates the inline project and writes it to the requested
// path.
func (h *CameraHandler) SaveProject(c *gin.Context) {
	var req SaveRequest
	if !h.bind(c, &req) {
		return
	}

	p, err := project.Parse(req.Project)
	if err != nil {
		h.fail(c, http.StatusBadRequest, "Некорректный проект", err)
		return
	}
	path, err := project.Save(p, req.Path)
	if err != nil {
		h.fail(c, http.StatusInternalServerError, "Ошибка сохранения проекта", err)
		return
	}
	h.log(c).Infof("Проект сохранен: %s", path)
	c.JSON(http.StatusOK, gin.H{"status": "saved", "path": path})
}

// ValidateProject returns the policy warnings of a project.
func (h *CameraHandler) ValidateProject(c *gin.Context) {
	var req ProjectSource
	if !h.bind(c, &req) {
		return
	}
	p, ok := h.project(c, req)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "warnings": nonNil(p.Validate(h.policy))})
}

// EvaluateFrame evaluates the camera at one frame.
func (h *CameraHandler) EvaluateFrame(c *gin.Context) {
	var req FrameRequest
	if !h.bind(c, &req) {
		return
	}
	p, ok := h.project(c, req.ProjectSource)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, NewCameraFrame(h.rig(c, p).Evaluate(*req.Frame)))
}

// EvaluateRange evaluates a frame range with range modifiers applied.
// Start is clamped to 0 and End to at least Start.
func (h *CameraHandler) EvaluateRange(c *gin.Context) {
	var req RangeRequest
	if !h.bind(c, &req) {
		return
	}
	p, ok := h.project(c, req.ProjectSource)
	if !ok {
		return
	}

	start := max(0, req.Start)
	end := p.Meta.Frames - 1
	if req.End != nil {
		end = *req.End
	}
	end = max(start, end)
	if !h.checkSpan(c, start, end) {
		return
	}

	states, err := h.rig(c, p).Sample(start, end, req.Step)
	if err != nil {
		h.fail(c, statusFor(err), "Ошибка вычисления диапазона", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"frames": NewCameraFrames(states)})
}

// CameraPath samples the camera at the project sample step and, unless
// Apply is false, filters the samples through the project constraints.
func (h *CameraHandler) CameraPath(c *gin.Context) {
	var req CameraPathRequest
	if !h.bind(c, &req) {
		return
	}
	p, ok := h.project(c, req.ProjectSource)
	if !ok {
		return
	}

	start := max(0, req.Start)
	end := p.Meta.Frames - 1
	if req.End != nil {
		end = min(*req.End, end)
	}
	if end < start {
		h.fail(c, http.StatusBadRequest, "Пустой диапазон", rig.ErrInvalidRange)
		return
	}
	if !h.checkSpan(c, start, end) {
		return
	}

	cc := p.Timeline.CameraConstraints
	step := cc.GetSampleStep()
	samples, err := h.rig(c, p).Sample(start, end, step)
	if err != nil {
		h.fail(c, statusFor(err), "Ошибка вычисления пути камеры", err)
		return
	}
	if req.Apply == nil || *req.Apply {
		samples = bake.FilterStates(samples, cc)
	}

	meta := gin.H{"start": start, "end": end, "step": step, "constraints": nil}
	if cc != nil {
		meta["constraints"] = cc.Filled()
	}
	c.JSON(http.StatusOK, gin.H{"meta": meta, "samples": NewCameraFrames(samples)})
}

// Bake bakes a frame range into explicit per-channel keys.
func (h *CameraHandler) Bake(c *gin.Context) {
	var req BakeRequest
	if !h.bind(c, &req) {
		return
	}
	p, ok := h.project(c, req.ProjectSource)
	if !ok {
		return
	}

	end := p.Meta.Frames - 1
	if req.End != nil {
		end = *req.End
	}
	opts := bake.Options{
		Start:             req.Start,
		End:               end,
		ReduceKeys:        req.ReduceKeys == nil || *req.ReduceKeys,
		MaxError:          req.MaxError,
		MaxKeysPerChannel: req.MaxKeys,
		Workers:           h.workers,
	}
	if opts.MaxError <= 0 {
		opts.MaxError = DefaultMaxError
	}
	if opts.End >= opts.Start && !h.checkSpan(c, opts.Start, opts.End) {
		return
	}

	id := uuid.NewString()
	log := h.log(c).WithField("bake_id", id)
	baked, err := bake.New(h.rig(c, p), bake.WithLogger(log)).Bake(opts)
	if err != nil {
		h.fail(c, statusFor(err), "Ошибка запекания", err)
		return
	}
	log.Infof("Запечено кадров %d-%d", opts.Start, opts.End)
	c.JSON(http.StatusOK, gin.H{
		"bake_id": id,
		"start":   opts.Start,
		"end":     opts.End,
		"reduced": opts.ReduceKeys,
		"tracks":  baked,
	})
}

// checkSpan rejects ranges longer than the frame limit.
func (h *CameraHandler) checkSpan(c *gin.Context, start, end int) bool {
	if n := float64(end) - float64(start) + 1; n > float64(h.maxFrames) {
		err := fmt.Errorf("%w: %.0f frames requested, limit %d", errRangeTooLarge, n, h.maxFrames)
		h.fail(c, http.StatusBadRequest, "Слишком длинный диапазон", err)
		return false
	}
	return true
}

func (h *CameraHandler) bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		h.fail(c, http.StatusBadRequest, "Некорректный запрос", err)
		return false
	}
	return true
}

func (h *CameraHandler) project(c *gin.Context, src ProjectSource) (*project.Project, bool) {
	p, err := src.load()
	if err != nil {
		h.fail(c, statusFor(err), "Ошибка загрузки проекта", err)
		return nil, false
	}
	return p, true
}

func (h *CameraHandler) rig(c *gin.Context, p *project.Project) *rig.Rig {
	return rig.New(p, rig.WithLogger(h.log(c)))
}

func (h *CameraHandler) log(c *gin.Context) logrus.FieldLogger {
	return h.logger.WithField(requestIDKey, c.GetString(requestIDKey))
}

func (h *CameraHandler) fail(c *gin.Context, status int, msg string, err error) {
	h.log(c).WithError(err).Warn(msg)
	c.JSON(status, gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	if errors.Is(err, fs.ErrNotExist) {
		return http.StatusNotFound
	}
	return http.StatusBadRequest
}

func nonNil(ws []string) []string {
	if ws == nil {
		return []string{}
	}
	return ws
}
