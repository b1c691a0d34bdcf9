package campaign

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T) (*Handler, string) {
	t.Helper()
	root := t.TempDir()
	h, err := NewHandler(root)
	require.NoError(t, err)
	return h, root
}

func TestHandler_ListIncludesOverviewAndCharacter(t *testing.T) {
	h, root := newTestHandler(t)

	campaignDir := filepath.Join(root, "curse-of-strahd")
	require.NoError(t, os.MkdirAll(campaignDir, 0o755))
	s, err := Open(campaignDir)
	require.NoError(t, err)
	require.NoError(t, s.SaveCharacter(Character{Name: "Ireena", Race: "Human", Class: "Fighter", Level: 2}))

	mux := http.NewServeMux()
	h.Routes(mux)

	req := httptest.NewRequest(http.MethodGet, "/campaigns", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var out []summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out, 1)
	require.Equal(t, "curse-of-strahd", out[0].ID)
	require.True(t, out[0].HasCharacter)
	require.Equal(t, "Ireena", out[0].Character.Name)
}

func TestHandler_DetailNotFound(t *testing.T) {
	h, _ := newTestHandler(t)
	mux := http.NewServeMux()
	h.Routes(mux)

	req := httptest.NewRequest(http.MethodGet, "/campaigns/nonexistent", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_ImportAcceptsStub(t *testing.T) {
	h, _ := newTestHandler(t)
	mux := http.NewServeMux()
	h.Routes(mux)

	req := httptest.NewRequest(http.MethodPost, "/campaigns/import?filename=notes.pdf", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)
}
