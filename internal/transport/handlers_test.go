package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/UnendingLoop/WatermarkCompositor/internal/model"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/ginext"
)

func TestTaskHandler_Ping(t *testing.T) {
	r := gin.New()
	h := NewTaskHandler(nil)

	r.GET("/ping", func(c *gin.Context) {
		h.SimplePinger((*ginext.Context)(c))
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	require.Equal(t, 200, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "pong", body["message"])
}

func newMultipartRequest(t *testing.T, fields map[string]string, files map[string][]byte) *http.Request {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for name, content := range files {
		fw, err := w.CreateFormFile(name, name+".png")
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/watermarks", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func bothFiles() map[string][]byte {
	return map[string][]byte{"image": []byte("img"), "watermark": []byte("wm")}
}

func TestTaskHandler_Create(t *testing.T) {
	tests := []struct {
		name       string
		req        *http.Request
		mock       *mockTaskService
		wantStatus int
	}{
		{
			name: "success",
			req: newMultipartRequest(t,
				map[string]string{
					"position": "single", "x_axis": "10", "y_axis": "20",
					"percent": "40", "color": "255 0 255", "format": "png",
				},
				bothFiles(),
			),
			mock: &mockTaskService{
				createFn: func(ctx context.Context, d *model.TaskCreateData) (*model.Task, error) {
					require.NotNil(t, d.OrigImg)
					require.NotNil(t, d.WMImg)
					require.Equal(t, "single", d.Placement)
					require.Equal(t, 10, *d.X)
					require.Equal(t, 20, *d.Y)
					require.Equal(t, 40, *d.Percent)
					require.Equal(t, &model.RGB{R: 255, G: 0, B: 255}, d.ColorKey)
					require.False(t, d.UseAlpha)
					require.Equal(t, "png", d.Format)
					return &model.Task{UID: uuid.New()}, nil
				},
			},
			wantStatus: 201,
		},
		{
			name: "grid with alpha",
			req: newMultipartRequest(t,
				map[string]string{"position": "grid", "percent": "100", "alpha": "true", "format": "jpg"},
				bothFiles(),
			),
			mock: &mockTaskService{
				createFn: func(ctx context.Context, d *model.TaskCreateData) (*model.Task, error) {
					require.True(t, d.UseAlpha)
					require.Nil(t, d.ColorKey)
					require.Nil(t, d.X)
					return &model.Task{UID: uuid.New()}, nil
				},
			},
			wantStatus: 201,
		},
		{
			name: "missing image",
			req: newMultipartRequest(t,
				map[string]string{"position": "grid", "percent": "10"},
				map[string][]byte{"watermark": []byte("wm")},
			),
			mock:       &mockTaskService{},
			wantStatus: 400,
		},
		{
			name: "missing watermark",
			req: newMultipartRequest(t,
				map[string]string{"position": "grid", "percent": "10"},
				map[string][]byte{"image": []byte("img")},
			),
			mock:       &mockTaskService{},
			wantStatus: 400,
		},
		{
			name: "percent not a number",
			req: newMultipartRequest(t,
				map[string]string{"position": "grid", "percent": "half"},
				bothFiles(),
			),
			mock:       &mockTaskService{},
			wantStatus: 400,
		},
		{
			name: "axis not a number",
			req: newMultipartRequest(t,
				map[string]string{"position": "single", "percent": "10", "x_axis": "a"},
				bothFiles(),
			),
			mock:       &mockTaskService{},
			wantStatus: 400,
		},
		{
			name: "bad color",
			req: newMultipartRequest(t,
				map[string]string{"position": "grid", "percent": "10", "color": "300 1 1"},
				bothFiles(),
			),
			mock:       &mockTaskService{},
			wantStatus: 400,
		},
		{
			name: "service validation error",
			req: newMultipartRequest(t,
				map[string]string{"position": "corner", "percent": "10"},
				bothFiles(),
			),
			mock: &mockTaskService{
				createFn: func(ctx context.Context, d *model.TaskCreateData) (*model.Task, error) {
					return nil, model.ErrIncorrectPlacement
				},
			},
			wantStatus: 400,
		},
		{
			name: "service internal error",
			req: newMultipartRequest(t,
				map[string]string{"position": "grid", "percent": "10"},
				bothFiles(),
			),
			mock: &mockTaskService{
				createFn: func(ctx context.Context, d *model.TaskCreateData) (*model.Task, error) {
					return nil, model.ErrCommon500
				},
			},
			wantStatus: 500,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			h := NewTaskHandler(tt.mock)

			r.POST("/watermarks", func(c *gin.Context) {
				h.Create((*ginext.Context)(c))
			})

			w := httptest.NewRecorder()
			r.ServeHTTP(w, tt.req)

			require.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestTaskHandler_GetAllTasks(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		mock       *mockTaskService
		wantStatus int
	}{
		{
			name:  "success",
			query: "?page=1&limit=10&sort=uid&order=ascend",
			mock: &mockTaskService{
				getListFn: func(ctx context.Context, req *model.ListRequest) ([]model.Task, error) {
					require.Equal(t, 10, req.Limit)
					require.Equal(t, "uid", req.Sort)
					return []model.Task{{}}, nil
				},
			},
			wantStatus: 200,
		},
		{
			name:       "bad query",
			query:      "?page=abc",
			mock:       &mockTaskService{},
			wantStatus: 400,
		},
		{
			name:  "service error",
			query: "",
			mock: &mockTaskService{
				getListFn: func(ctx context.Context, req *model.ListRequest) ([]model.Task, error) {
					return nil, model.ErrCommon500
				},
			},
			wantStatus: 500,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			h := NewTaskHandler(tt.mock)

			r.GET("/watermarks", func(c *gin.Context) {
				h.GetAllTasks((*ginext.Context)(c))
			})

			req := httptest.NewRequest(http.MethodGet, "/watermarks"+tt.query, nil)
			w := httptest.NewRecorder()

			r.ServeHTTP(w, req)
			require.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestTaskHandler_LoadResult(t *testing.T) {
	tests := []struct {
		name       string
		mock       *mockTaskService
		wantStatus int
		wantBody   string
	}{
		{
			name: "success",
			mock: &mockTaskService{
				loadResultFn: func(ctx context.Context, id string) (io.ReadCloser, string, error) {
					require.Equal(t, "123", id)
					return io.NopCloser(bytes.NewReader([]byte("ok"))), model.PNG, nil
				},
			},
			wantStatus: 200,
			wantBody:   "ok",
		},
		{
			name: "not ready",
			mock: &mockTaskService{
				loadResultFn: func(ctx context.Context, id string) (io.ReadCloser, string, error) {
					return nil, "", model.ErrResultNotReady
				},
			},
			wantStatus: 404,
		},
		{
			name: "bad id",
			mock: &mockTaskService{
				loadResultFn: func(ctx context.Context, id string) (io.ReadCloser, string, error) {
					return nil, "", model.ErrIncorrectID
				},
			},
			wantStatus: 400,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			h := NewTaskHandler(tt.mock)

			r.GET("/watermarks/:id", func(c *gin.Context) {
				h.LoadResult((*ginext.Context)(c))
			})

			req := httptest.NewRequest(http.MethodGet, "/watermarks/123", nil)
			w := httptest.NewRecorder()

			r.ServeHTTP(w, req)
			require.Equal(t, tt.wantStatus, w.Code)
			if tt.wantBody != "" {
				require.Equal(t, tt.wantBody, w.Body.String())
				require.Equal(t, model.PNG, w.Header().Get("Content-Type"))
			}
		})
	}
}

func TestTaskHandler_Delete(t *testing.T) {
	tests := []struct {
		name       string
		mock       *mockTaskService
		wantStatus int
	}{
		{
			name: "success",
			mock: &mockTaskService{
				deleteFn: func(ctx context.Context, id string) error {
					return nil
				},
			},
			wantStatus: 204,
		},
		{
			name: "not found",
			mock: &mockTaskService{
				deleteFn: func(ctx context.Context, id string) error {
					return model.ErrTaskNotFound
				},
			},
			wantStatus: 404,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			h := NewTaskHandler(tt.mock)

			r.DELETE("/watermarks/:id", func(c *gin.Context) {
				h.Delete((*ginext.Context)(c))
			})

			req := httptest.NewRequest(http.MethodDelete, "/watermarks/123", nil)
			w := httptest.NewRecorder()

			r.ServeHTTP(w, req)
			require.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestErrorCodeDefiner(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{model.ErrCommon500, 500},
		{model.ErrTaskNotFound, 404},
		{model.ErrResultNotReady, 404},
		{fmt.Errorf("%w: details", model.ErrWatermarkTooLarge), 400},
		{fmt.Errorf("%w: details", model.ErrUnsupportedFormat), 400},
		{model.ErrNoAlphaChannel, 400},
		{errors.New("unknown"), 500},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			require.Equal(t, tt.want, errorCodeDefiner(tt.err))
		})
	}
}
