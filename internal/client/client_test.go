package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticTokens struct{ auth, csrf string }

func (s staticTokens) AuthToken() string { return s.auth }
func (s staticTokens) CSRFToken() string { return s.csrf }

// newTestServer routes handlers on a gorilla/mux router and returns a client for it.
func newTestServer(t *testing.T, register func(r *mux.Router)) *Client {
	t.Helper()
	r := mux.NewRouter()
	register(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return New(srv.URL, staticTokens{auth: "tok-1", csrf: "csrf-1"}, 5*time.Second)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestAddFarmDataMultipart(t *testing.T) {
	var (
		gotAuth, gotCSRF    string
		gotName, gotFormat  string
		gotUpload, gotBytes string
	)
	c := newTestServer(t, func(r *mux.Router) {
		r.HandleFunc(AddFarmPath, func(w http.ResponseWriter, req *http.Request) {
			gotAuth = req.Header.Get("Authorization")
			gotCSRF = req.Header.Get("X-CSRFToken")
			if !assert.NoError(t, req.ParseMultipartForm(1<<20)) {
				return
			}
			gotName = req.FormValue("file_name")
			gotFormat = req.FormValue("format")
			f, hdr, err := req.FormFile("file")
			if !assert.NoError(t, err) {
				return
			}
			defer f.Close()
			gotUpload = hdr.Filename
			b, _ := io.ReadAll(f)
			gotBytes = string(b)
			writeJSON(w, http.StatusCreated, map[string]any{"file_id": 42})
		}).Methods(http.MethodPost)
	})

	var mu sync.Mutex
	var lastSent, lastTotal int64
	resp, err := c.AddFarmData(context.Background(), UploadRequest{
		FileName: "farms",
		Format:   "csv",
		Content:  []byte("a,b\n1,2\n"),
		OnProgress: func(sent, total int64) {
			mu.Lock()
			lastSent, lastTotal = sent, total
			mu.Unlock()
		},
	})
	require.NoError(t, err)
	assert.True(t, resp.OK())
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.JSONEq(t, `{"file_id":42}`, string(resp.Body))

	assert.Equal(t, "Token tok-1", gotAuth)
	assert.Equal(t, "csrf-1", gotCSRF)
	assert.Equal(t, "farms", gotName)
	assert.Equal(t, "csv", gotFormat)
	assert.Equal(t, "farms.csv", gotUpload)
	assert.Equal(t, "a,b\n1,2\n", gotBytes)

	mu.Lock()
	defer mu.Unlock()
	assert.Positive(t, lastTotal)
	assert.Equal(t, lastTotal, lastSent, "progress reaches the full body size")
}

func TestAddFarmDataReturnsErrorStatuses(t *testing.T) {
	c := newTestServer(t, func(r *mux.Router) {
		r.HandleFunc(AddFarmPath, func(w http.ResponseWriter, req *http.Request) {
			writeJSON(w, http.StatusBadRequest, map[string]any{"errors": []string{"bad geometry"}})
		})
	})

	resp, err := c.AddFarmData(context.Background(), UploadRequest{FileName: "f", Format: "csv", Content: []byte("x")})
	require.NoError(t, err, "a 400 is a response, not a transport error")
	assert.False(t, resp.OK())
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAddFarmDataTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	c := New(srv.URL, nil, time.Second)
	_, err := c.AddFarmData(context.Background(), UploadRequest{FileName: "f", Format: "csv", Content: []byte("x")})
	require.Error(t, err)
}

func TestListFarmsSelectsEndpoint(t *testing.T) {
	var hits []string
	c := newTestServer(t, func(r *mux.Router) {
		record := func(name string) http.HandlerFunc {
			return func(w http.ResponseWriter, req *http.Request) {
				hits = append(hits, name)
				assert.Empty(t, req.Header.Get("X-CSRFToken"), "reads carry no CSRF header")
				writeJSON(w, http.StatusOK, []map[string]any{{
					"id": 1, "farmer_name": "John", "analysis": map[string]any{"eudr_risk_level": "low"},
				}})
			}
		}
		r.HandleFunc("/api/farm/list/", record("all"))
		r.HandleFunc("/api/farm/list/file/{id}/", record("file"))
		r.HandleFunc("/api/farm/list/user/{id}/", record("user"))
	})

	ctx := context.Background()
	farms, err := c.ListFarms(ctx, FarmQuery{})
	require.NoError(t, err)
	require.Len(t, farms, 1)
	assert.Equal(t, RiskLow, farms[0].RiskLevel())

	_, err = c.ListFarms(ctx, FarmQuery{FileID: "7", UserID: "3"})
	require.NoError(t, err)
	_, err = c.ListFarms(ctx, FarmQuery{UserID: "3"})
	require.NoError(t, err)

	assert.Equal(t, []string{"all", "file", "user"}, hits)
}

func TestReadErrors(t *testing.T) {
	c := newTestServer(t, func(r *mux.Router) {
		r.HandleFunc("/api/files/list/", func(w http.ResponseWriter, req *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		})
		r.HandleFunc("/api/collection_sites/list/", func(w http.ResponseWriter, req *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		})
	})

	_, err := c.ListFiles(context.Background())
	assert.True(t, errors.Is(err, ErrUnauthorized), "got %v", err)

	_, err = c.ListCollectionSites(context.Background())
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr), "got %v", err)
	assert.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)
	assert.Contains(t, statusErr.Error(), "boom")
}

func TestDownloadTemplate(t *testing.T) {
	c := newTestServer(t, func(r *mux.Router) {
		r.HandleFunc("/api/download-template/", func(w http.ResponseWriter, req *http.Request) {
			assert.Equal(t, "csv", req.URL.Query().Get("file_format"))
			w.Header().Set("Content-Disposition", `attachment; filename="terratrac-upload-template-2024-01-01.csv"`)
			_, _ = io.WriteString(w, "farmer_name,farm_size\n")
		})
	})

	tpl, err := c.DownloadTemplate(context.Background(), "csv")
	require.NoError(t, err)
	assert.Equal(t, "terratrac-upload-template-2024-01-01.csv", tpl.FileName)
	assert.Equal(t, "farmer_name,farm_size\n", string(tpl.Content))
}

func TestLogout(t *testing.T) {
	status := http.StatusOK
	c := newTestServer(t, func(r *mux.Router) {
		r.HandleFunc("/logout/", func(w http.ResponseWriter, req *http.Request) {
			w.WriteHeader(status)
		}).Methods(http.MethodPost)
	})

	require.NoError(t, c.Logout(context.Background()))

	status = http.StatusUnauthorized
	require.NoError(t, c.Logout(context.Background()), "an expired session is already logged out")

	status = http.StatusInternalServerError
	require.Error(t, c.Logout(context.Background()))
}

func TestFarmHasPolygon(t *testing.T) {
	assert.False(t, Farm{}.HasPolygon())
	assert.False(t, Farm{Polygon: json.RawMessage("null")}.HasPolygon())
	assert.False(t, Farm{Polygon: json.RawMessage("[]")}.HasPolygon())
	assert.True(t, Farm{Polygon: json.RawMessage("[[1,2],[3,4]]")}.HasPolygon())
}
