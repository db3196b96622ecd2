package controllers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/wineprocure/procurement-api/models"
	"github.com/wineprocure/procurement-api/services"
	"github.com/wineprocure/procurement-api/tests/testutil"
	"gorm.io/gorm"
)

// Signed-in callers, keyed by Auth0 subject
var testIdentities = map[string]testutil.MockIdentity{
	"auth0|producer":  {Subject: "auth0|producer", Role: models.RoleProducer, Company: "Stellenrust"},
	"auth0|producer2": {Subject: "auth0|producer2", Role: models.RoleProducer, Company: "Kanonkop"},
	"auth0|corkco":    {Subject: "auth0|corkco", Role: models.RoleSupplier, Company: "CorkCo"},
	"auth0|glassco":   {Subject: "auth0|glassco", Role: models.RoleSupplier, Company: "GlassCo"},
	"auth0|admin":     {Subject: "auth0|admin", Role: models.RoleAdmin, Scopes: []string{"admin:users"}},
	"auth0|noprofile": {Subject: "auth0|noprofile", Role: models.RoleProducer},
}

type testEnv struct {
	db       *gorm.DB
	router   *gin.Engine
	notifier *services.MockNotifier
	store    *services.MockFileStore
}

// setupTestEnv wires a fresh database, mock notifier and mock file store
// behind the same routes main registers.
func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.SetupTestDB(t)
	testutil.CreateUser(t, db, "auth0|producer", "a@x.com", models.RoleProducer, "Stellenrust")
	testutil.CreateUser(t, db, "auth0|producer2", "b@x.com", models.RoleProducer, "Kanonkop")
	testutil.CreateUser(t, db, "auth0|corkco", "sales@corkco.com", models.RoleSupplier, "CorkCo")
	testutil.CreateUser(t, db, "auth0|glassco", "orders@glassco.com", models.RoleSupplier, "GlassCo")
	testutil.CreateUser(t, db, "auth0|admin", "admin@wineprocure.app", models.RoleAdmin, "")

	notifier := services.NewMockNotifier()
	store := services.NewMockFileStore()

	originalRFQ := services.GetRFQService()
	originalAttachments := services.GetAttachmentService()
	t.Cleanup(func() {
		services.SetRFQService(originalRFQ)
		services.SetAttachmentService(originalAttachments)
	})
	services.SetRFQService(services.NewRFQService(db, notifier, nil))
	services.SetAttachmentService(services.NewAttachmentService(store))

	router := gin.New()
	secured := router.Group("")
	secured.Use(testutil.MockAuthMiddleware(testIdentities))
	{
		secured.POST("/users", CreateUser)
		secured.GET("/users/me", GetMyProfile)
		secured.PUT("/users/me", UpdateMyProfile)

		secured.POST("/rfqs", CreateRFQ)
		secured.GET("/rfqs", ListRFQs)
		secured.GET("/rfqs/:id", GetRFQ)
		secured.POST("/rfqs/:id/quotes", SubmitQuote)
		secured.POST("/rfqs/:id/decision", DecideRFQ)
		secured.POST("/rfqs/:id/attachment", UploadRFQAttachment)
		secured.GET("/uploads/:filename", GetUploadedFile)

		secured.POST("/offenders", CreateOffender)
		secured.GET("/offenders", ListOffenders)
		secured.DELETE("/offenders/:id", DeleteOffender)

		secured.GET("/admin/users", ListUsers)
		secured.PUT("/admin/users/:id/role", UpdateUserRole)
	}

	return &testEnv{db: db, router: router, notifier: notifier, store: store}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// do sends a JSON request as subject and returns the recorder and envelope
func (e *testEnv) do(t *testing.T, method, path, subject string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if subject != "" {
		req.Header.Set("X-Test-User", subject)
	}
	return e.serve(t, req)
}

func (e *testEnv) serve(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var resp envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), "body: %s", w.Body.String())
	return w, resp
}

func decodeData(t *testing.T, resp envelope, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(resp.Data, v))
}
