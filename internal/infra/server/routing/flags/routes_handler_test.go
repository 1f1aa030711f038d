package flags

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/ghxstship/recordguard/internal/domain/flag"
	"github.com/ghxstship/recordguard/internal/infra/server/routing"
)

func Test_Evaluate_Ok(t *testing.T) {
	router := setupRouter([]flag.Flag{
		{Name: "new-dashboard", Enabled: true, RolloutPercentage: 100},
	})
	resp := performRequest(router, "/flags/new-dashboard?subject=acme")
	assert.EqualValues(t, http.StatusOK, resp.Code)
	var evaluation Evaluation
	if err := json.Unmarshal(resp.Body.Bytes(), &evaluation); err != nil {
		t.Error(err)
	} else {
		assert.EqualValues(t, Evaluation{Name: "new-dashboard", Enabled: true}, evaluation)
	}
}

func Test_Evaluate_DisabledFlag(t *testing.T) {
	router := setupRouter([]flag.Flag{
		{Name: "new-dashboard", Enabled: false, RolloutPercentage: 100},
	})
	resp := performRequest(router, "/flags/new-dashboard?subject=acme")
	assert.EqualValues(t, http.StatusOK, resp.Code)
	var evaluation Evaluation
	if err := json.Unmarshal(resp.Body.Bytes(), &evaluation); err != nil {
		t.Error(err)
	} else {
		assert.False(t, evaluation.Enabled)
	}
}

func Test_Evaluate_MissingSubject(t *testing.T) {
	router := setupRouter([]flag.Flag{
		{Name: "new-dashboard", Enabled: true, RolloutPercentage: 100},
	})
	resp := performRequest(router, "/flags/new-dashboard")
	assert.EqualValues(t, http.StatusBadRequest, resp.Code)
}

func Test_Evaluate_UnknownFlag(t *testing.T) {
	router := setupRouter(nil)
	resp := performRequest(router, "/flags/never-heard-of-it?subject=acme")
	assert.EqualValues(t, http.StatusNotFound, resp.Code)
}

func setupRouter(flags []flag.Flag) *gin.Engine {
	engine := gin.Default()
	topLevelRouterGroup := routing.NewTopLevelRoutesGroup(nil, engine)
	handler := RoutesHandler{Flags: flag.NewRegistry(flags)}
	handler.RegisterRoutes(topLevelRouterGroup)
	return engine
}

func performRequest(r http.Handler, url string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(http.MethodGet, url, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}
