package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/tkoskin/praisecast/internal/app"
	"github.com/tkoskin/praisecast/internal/core"
	"github.com/tkoskin/praisecast/internal/domain"
	"github.com/tkoskin/praisecast/internal/store"
)

type nopSender struct{}

func (nopSender) TrySend(core.Frame) error { return nil }
func (nopSender) Close()                   {}

type resolveEnv struct {
	Screen struct {
		Name        string            `json:"name"`
		DisplayType string            `json:"displayType"`
		Config      map[string]string `json:"config"`
	} `json:"screen"`
	Room *struct {
		Pin   string `json:"pin"`
		Theme string `json:"theme"`
	} `json:"room"`
	Error string `json:"error"`
}

func setupResolveTest(t *testing.T) (*gin.Engine, *store.Screens, *app.Gateway) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := store.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	screens := store.NewScreens(db)
	gw := app.NewGateway(core.NewRegistry(time.Minute), nil, true)

	r := gin.New()
	sc := &screenHandlers{store: screens, gateway: gw}
	r.GET("/api/screens/:ownerId/:screenId", sc.resolve)
	return r, screens, gw
}

func doResolve(t *testing.T, r *gin.Engine, ownerID, screenID string) (int, resolveEnv) {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/screens/"+ownerID+"/"+screenID, nil)
	r.ServeHTTP(w, req)

	var body resolveEnv
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w.Code, body
}

func TestResolveScreen_UnknownPairIs404(t *testing.T) {
	req := require.New(t)
	r, _, _ := setupResolveTest(t)

	code, body := doResolve(t, r, "owner-1", "no-such-screen")
	req.Equal(http.StatusNotFound, code)
	req.Equal("screen_not_found", body.Error)
}

func TestResolveScreen_NoActiveRoomIsWaitingNotError(t *testing.T) {
	req := require.New(t)
	r, screens, _ := setupResolveTest(t)

	rec, err := screens.Create("owner-1", "Lobby", domain.DisplayTypeViewer, nil)
	req.NoError(err)

	code, body := doResolve(t, r, "owner-1", rec.ScreenID)
	req.Equal(http.StatusOK, code)
	req.Equal("Lobby", body.Screen.Name)
	req.Nil(body.Room)
}

func TestResolveScreen_ActiveRoomCarriesPinAndTheme(t *testing.T) {
	req := require.New(t)
	r, screens, gw := setupResolveTest(t)

	rec, err := screens.Create("owner-1", "Stage Left", domain.DisplayTypeStage, nil)
	req.NoError(err)
	pin, err := gw.JoinAsOperator("op-1", nopSender{}, "owner-1", "", "", "theme-dark")
	req.NoError(err)

	code, body := doResolve(t, r, "owner-1", rec.ScreenID)
	req.Equal(http.StatusOK, code)
	req.NotNil(body.Room)
	req.Equal(string(pin), body.Room.Pin)
	req.Equal("theme-dark", body.Room.Theme)
}

func TestResolveScreen_ConfigThemeOverridesRoomTheme(t *testing.T) {
	req := require.New(t)
	r, screens, gw := setupResolveTest(t)

	rec, err := screens.Create("owner-1", "Custom Wall", domain.DisplayTypeCustom, map[string]string{"theme": "neon"})
	req.NoError(err)
	_, err = gw.JoinAsOperator("op-1", nopSender{}, "owner-1", "", "", "theme-dark")
	req.NoError(err)

	code, body := doResolve(t, r, "owner-1", rec.ScreenID)
	req.Equal(http.StatusOK, code)
	req.NotNil(body.Room)
	req.Equal("neon", body.Room.Theme)
}

func TestResolveScreen_RoomDisappearsAfterOperatorGone(t *testing.T) {
	req := require.New(t)
	gin.SetMode(gin.TestMode)

	db, err := store.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	screens := store.NewScreens(db)
	gw := app.NewGateway(core.NewRegistry(15*time.Millisecond), nil, true)
	r := gin.New()
	sc := &screenHandlers{store: screens, gateway: gw}
	r.GET("/api/screens/:ownerId/:screenId", sc.resolve)

	rec, err := screens.Create("owner-1", "Lobby", domain.DisplayTypeViewer, nil)
	req.NoError(err)
	_, err = gw.JoinAsOperator("op-1", nopSender{}, "owner-1", "", "", "")
	req.NoError(err)
	gw.Leave("op-1")

	// After the grace period the poll flips back to room: null
	req.Eventually(func() bool {
		_, body := doResolve(t, r, "owner-1", rec.ScreenID)
		return body.Room == nil
	}, time.Second, 10*time.Millisecond)
}
