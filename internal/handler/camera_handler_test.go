package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/camrig/internal/bake"
	"github.com/ivlev/camrig/internal/config"
)

const bridgeProject = `{"meta":{"fps":24,"frames":48},` +
	`"timeline":{"camera_constraints":{"max_speed_pos":0.05,"max_accel_pos":10},` +
	`"tracks":[{"id":"camera.transform","channels":{` +
	`"position.x":{"keys":[{"t":0,"v":0,"interp":"linear"},{"t":47,"v":4.7,"interp":"linear"}]}}}]}}`

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger, _ := test.NewNullLogger()
	return NewRouter(config.Server{AllowedOrigins: config.DefaultAllowedOrigins, Workers: 2}, logger)
}

func do(t *testing.T, router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func TestHealth(t *testing.T) {
	router := newTestRouter(t)

	w := do(t, router, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))
}

func TestEvaluateFrame(t *testing.T) {
	router := newTestRouter(t)

	w := do(t, router, http.MethodPost, "/evaluate/frame", `{"frame":47,"project":`+bridgeProject+`}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var got CameraFrame
	decode(t, w, &got)
	assert.Equal(t, 47, got.Frame)
	assert.InDelta(t, 4.7, got.Position[0], 1e-9)
	assert.InDelta(t, 35.0, got.FocalLengthMM, 1e-9)
}

func TestEvaluateFrameErrors(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		name string
		body string
		code int
	}{
		{"no project", `{"frame":0}`, http.StatusBadRequest},
		{"no frame", `{"project":` + bridgeProject + `}`, http.StatusBadRequest},
		{"missing file", `{"frame":0,"path":"` + filepath.Join(t.TempDir(), "none.json") + `"}`, http.StatusNotFound},
		{"broken json", `{"frame":`, http.StatusBadRequest},
		{"unknown constraint", `{"frame":0,"project":{"timeline":{"tracks":[{"id":"cam","constraints":[{"type":"Teleport"}]}]}}}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, router, http.MethodPost, "/evaluate/frame", tt.body)
			assert.Equal(t, tt.code, w.Code, w.Body.String())
			var body map[string]any
			decode(t, w, &body)
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestEvaluateRange(t *testing.T) {
	router := newTestRouter(t)

	w := do(t, router, http.MethodPost, "/evaluate/range", `{"start":-5,"end":9,"project":`+bridgeProject+`}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var got struct {
		Frames []CameraFrame `json:"frames"`
	}
	decode(t, w, &got)
	require.Len(t, got.Frames, 10)
	assert.Equal(t, 0, got.Frames[0].Frame)
	assert.InDelta(t, 0.9, got.Frames[9].Position[0], 1e-9)

	w = do(t, router, http.MethodPost, "/evaluate/range", `{"start":10,"end":2,"project":`+bridgeProject+`}`)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &got)
	require.Len(t, got.Frames, 1)
	assert.Equal(t, 10, got.Frames[0].Frame)
}

func TestCameraPathAppliesConstraints(t *testing.T) {
	router := newTestRouter(t)

	w := do(t, router, http.MethodPost, "/camera_path", `{"end":500,"project":`+bridgeProject+`}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var got struct {
		Meta struct {
			Start, End, Step int
		} `json:"meta"`
		Samples []CameraFrame `json:"samples"`
	}
	decode(t, w, &got)
	assert.Equal(t, 47, got.Meta.End)
	assert.Equal(t, 1, got.Meta.Step)
	require.Len(t, got.Samples, 48)
	for i := 1; i < len(got.Samples); i++ {
		step := got.Samples[i].Position[0] - got.Samples[i-1].Position[0]
		assert.LessOrEqual(t, step, 0.05+1e-9)
	}

	w = do(t, router, http.MethodPost, "/camera_path", `{"apply":false,"project":`+bridgeProject+`}`)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &got)
	assert.InDelta(t, 4.7, got.Samples[47].Position[0], 1e-9)
}

func TestBake(t *testing.T) {
	router := newTestRouter(t)

	w := do(t, router, http.MethodPost, "/bake", `{"project":`+bridgeProject+`,"end":47}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var got struct {
		BakeID  string     `json:"bake_id"`
		Reduced bool       `json:"reduced"`
		Tracks  bake.Baked `json:"tracks"`
	}
	decode(t, w, &got)
	assert.Len(t, got.BakeID, 36)
	assert.True(t, got.Reduced)
	keys := got.Tracks[bake.GroupTransform]["position.x"]
	require.NotEmpty(t, keys)
	assert.Equal(t, 0, keys[0].T)
	assert.Equal(t, 47, keys[len(keys)-1].T)

	w = do(t, router, http.MethodPost, "/bake", `{"start":5,"end":1,"project":`+bridgeProject+`}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProjectSaveLoadValidate(t *testing.T) {
	router := newTestRouter(t)
	dir := t.TempDir()

	w := do(t, router, http.MethodPost, "/project/save", `{"path":"`+dir+`","project":`+bridgeProject+`}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var saved map[string]string
	decode(t, w, &saved)
	assert.Equal(t, "saved", saved["status"])
	assert.Equal(t, filepath.Join(dir, "project.json"), saved["path"])
	_, err := os.Stat(saved["path"])
	require.NoError(t, err)

	w = do(t, router, http.MethodPost, "/project/load", `{"path":"`+dir+`"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var loaded struct {
		Project  map[string]any `json:"project"`
		Warnings []string       `json:"warnings"`
	}
	decode(t, w, &loaded)
	assert.Equal(t, float64(48), loaded.Project["meta"].(map[string]any)["frames"])
	assert.Empty(t, loaded.Warnings)

	w = do(t, router, http.MethodPost, "/project/load", `{"path":"`+filepath.Join(dir, "missing")+`"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, router, http.MethodPost, "/project/load", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	body := `{"project":{"render":{"sampler":"Warp 9"},"timeline":{"shots":[{"start":0,"end":4,"render_overrides":{"zoom":2}}]}}}`
	w = do(t, router, http.MethodPost, "/project/validate", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var validated struct {
		OK       bool     `json:"ok"`
		Warnings []string `json:"warnings"`
	}
	decode(t, w, &validated)
	assert.True(t, validated.OK)
	assert.Len(t, validated.Warnings, 2)
}

func TestRangeLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger, _ := test.NewNullLogger()
	router := NewRouter(config.Server{MaxFrames: 100}, logger)
	huge := `{"meta":{"frames":100000000},"timeline":{}}`

	tests := []struct {
		name string
		path string
		body string
		code int
	}{
		{"range at limit", "/evaluate/range", `{"start":0,"end":99,"project":` + bridgeProject + `}`, http.StatusOK},
		{"range over limit", "/evaluate/range", `{"start":0,"end":100000000,"project":` + bridgeProject + `}`, http.StatusBadRequest},
		{"range from project length", "/evaluate/range", `{"project":` + huge + `}`, http.StatusBadRequest},
		{"range at int max", "/evaluate/range", `{"start":-5,"end":9223372036854775807,"project":` + bridgeProject + `}`, http.StatusBadRequest},
		{"bake across int range", "/bake", `{"start":-9223372036854775808,"end":9223372036854775807,"project":` + bridgeProject + `}`, http.StatusBadRequest},
		{"bake over limit", "/bake", `{"start":-100000000,"end":10,"project":` + bridgeProject + `}`, http.StatusBadRequest},
		{"bake from project length", "/bake", `{"project":` + huge + `}`, http.StatusBadRequest},
		{"bake at limit", "/bake", `{"start":0,"end":99,"project":` + bridgeProject + `}`, http.StatusOK},
		{"camera path from project length", "/camera_path", `{"project":` + huge + `}`, http.StatusBadRequest},
		{"camera path clamped", "/camera_path", `{"end":100000000,"project":` + bridgeProject + `}`, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, router, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.code, w.Code, w.Body.String())
			if tt.code != http.StatusOK {
				assert.Contains(t, w.Body.String(), "frame range too large")
			}
		})
	}
}

func TestCORS(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/evaluate/frame", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://evil.test")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestIDPropagates(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIDHeader, "abc")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "abc", w.Header().Get(requestIDHeader))
}
