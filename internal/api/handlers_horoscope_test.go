package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulsedeck/pulsedeck/server/internal/freshness"
	"github.com/pulsedeck/pulsedeck/server/internal/generation"
	"github.com/pulsedeck/pulsedeck/server/internal/horoscope"
	"github.com/pulsedeck/pulsedeck/server/internal/model"
	"github.com/pulsedeck/pulsedeck/server/internal/rules"
	"github.com/pulsedeck/pulsedeck/server/internal/sampling"
	"github.com/pulsedeck/pulsedeck/server/internal/store/fake"
)

type stubGen struct {
	result *generation.Result
	err    error
}

func (g *stubGen) Generate(ctx context.Context, req generation.Request) (*generation.Result, error) {
	return g.result, g.err
}

func horoscopeRouter(st *fake.Store, gen generation.Generator) *mux.Router {
	engine := rules.NewEngine(st.Rules(), rules.MergeSum, time.Minute, zerolog.Nop())
	svc := horoscope.NewService(st, engine, sampling.CryptoSource{}, freshness.NewPolicy(time.Hour), gen, time.UTC, zerolog.Nop())
	h := NewHoroscopeHandler(svc, st.Artifacts())
	r := mux.NewRouter()
	r.HandleFunc("/api/users/{userId}/horoscope/dates", h.GetDates).Methods("GET")
	r.HandleFunc("/api/users/{userId}/horoscope", h.GetDaily).Methods("GET", "POST")
	return r
}

func horoscopeStore(t *testing.T) *fake.Store {
	t.Helper()
	st := fake.New()
	_, err := st.Profiles().Upsert(context.Background(), &model.Profile{
		UserID:   "u1",
		Name:     "Ida",
		Birthday: "03/15",
	})
	require.NoError(t, err)
	st.SeedRuleset(&model.Ruleset{RulesetID: "rs1", Active: true}, nil)
	st.SeedCatalog(
		[]model.Style{{Key: "watercolor", Label: "Watercolor", Family: "AnalogColor"}},
		[]string{"sea_otter"},
	)
	return st
}

func TestHoroscopeGetDailyGenerates(t *testing.T) {
	gen := &stubGen{result: &generation.Result{
		HoroscopeText: "Trust the process.",
		Dos:           []string{"ship"},
		Donts:         []string{"bikeshed"},
		ImageURL:      "https://cdn.example.com/img.png",
	}}
	router := horoscopeRouter(horoscopeStore(t), gen)

	req := httptest.NewRequest(http.MethodGet, "/api/users/u1/horoscope", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var out horoscope.Outcome
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Equal(t, horoscope.StateGenerated, out.State)
	require.NotNil(t, out.Artifact)
	assert.Equal(t, "pisces", out.Artifact.StarSign)
	assert.Equal(t, "Trust the process.", out.Artifact.HoroscopeText)
}

func TestHoroscopeMissingProfileIs400(t *testing.T) {
	router := horoscopeRouter(fake.New(), &stubGen{})

	req := httptest.NewRequest(http.MethodGet, "/api/users/ghost/horoscope", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHoroscopeUpstreamFailureIs502(t *testing.T) {
	gen := &stubGen{err: &model.UpstreamError{Status: 503, Retryable: true, Reason: "overloaded"}}
	router := horoscopeRouter(horoscopeStore(t), gen)

	req := httptest.NewRequest(http.MethodGet, "/api/users/u1/horoscope", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestHoroscopeDatesListsStoredArtifacts(t *testing.T) {
	st := horoscopeStore(t)
	ctx := context.Background()
	for _, d := range []string{"2026-08-30", "2026-08-31", "2026-09-01"} {
		_, err := st.Artifacts().Upsert(ctx, &model.Artifact{UserID: "u1", Date: d, HoroscopeText: "t"})
		require.NoError(t, err)
	}

	router := horoscopeRouter(st, &stubGen{})
	req := httptest.NewRequest(http.MethodGet, "/api/users/u1/horoscope/dates?limit=2", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var dates []string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &dates))
	assert.Equal(t, []string{"2026-09-01", "2026-08-31"}, dates)
}

func TestHoroscopeDatesEmptyIsEmptyArray(t *testing.T) {
	router := horoscopeRouter(horoscopeStore(t), &stubGen{})

	req := httptest.NewRequest(http.MethodGet, "/api/users/u1/horoscope/dates", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())
}

func TestHoroscopeRejectsBadUserID(t *testing.T) {
	router := horoscopeRouter(fake.New(), &stubGen{})

	req := httptest.NewRequest(http.MethodGet, "/api/users/UPPER/horoscope", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
