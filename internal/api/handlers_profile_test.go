package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulsedeck/pulsedeck/server/internal/model"
	"github.com/pulsedeck/pulsedeck/server/internal/store/fake"
)

func profileRouter(st *fake.Store) *mux.Router {
	h := NewProfileHandler(st.Profiles())
	r := mux.NewRouter()
	r.HandleFunc("/api/users/{userId}/profile", h.Get).Methods("GET")
	r.HandleFunc("/api/users/{userId}/profile", h.Put).Methods("PUT")
	return r
}

func TestProfilePutThenGet(t *testing.T) {
	st := fake.New()
	router := profileRouter(st)

	body := `{"name":"Ida","birthday":"03/15","hobbies":["pottery"],"likesCute":true}`
	req := httptest.NewRequest(http.MethodPut, "/api/users/u1/profile", strings.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/api/users/u1/profile", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var got model.Profile
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, "Ida", got.Name)
	assert.Equal(t, "03/15", got.Birthday)
	assert.True(t, got.LikesCute)
}

func TestProfilePutRejectsBadBirthday(t *testing.T) {
	router := profileRouter(fake.New())

	body := `{"name":"Ida","birthday":"March 15"}`
	req := httptest.NewRequest(http.MethodPut, "/api/users/u1/profile", strings.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProfilePutRejectsInvalidJSON(t *testing.T) {
	router := profileRouter(fake.New())

	req := httptest.NewRequest(http.MethodPut, "/api/users/u1/profile", strings.NewReader("{nope"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProfileGetMissingIs404(t *testing.T) {
	router := profileRouter(fake.New())

	req := httptest.NewRequest(http.MethodGet, "/api/users/ghost/profile", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProfileGetRejectsBadUserID(t *testing.T) {
	router := profileRouter(fake.New())

	req := httptest.NewRequest(http.MethodGet, "/api/users/NOT%20OK/profile", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
