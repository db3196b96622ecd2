package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"github.com/wineprocure/procurement-api/controllers"
	"github.com/wineprocure/procurement-api/models"
	"github.com/wineprocure/procurement-api/services"
	"github.com/wineprocure/procurement-api/tests/testutil"
	"gorm.io/gorm"
)

var identities = map[string]testutil.MockIdentity{
	"auth0|producer": {Subject: "auth0|producer", Role: models.RoleProducer, Company: "Stellenrust"},
	"auth0|corkco":   {Subject: "auth0|corkco", Role: models.RoleSupplier, Company: "CorkCo"},
	"auth0|glassco":  {Subject: "auth0|glassco", Role: models.RoleSupplier, Company: "GlassCo"},
	"auth0|capsco":   {Subject: "auth0|capsco", Role: models.RoleSupplier, Company: "CapsCo"},
}

// RFQIntegrationTestSuite runs the RFQ controllers against SQLite, a
// Redis listing cache and local attachment storage
type RFQIntegrationTestSuite struct {
	suite.Suite
	router   *gin.Engine
	db       *gorm.DB
	redis    *miniredis.Miniredis
	notifier *services.MockNotifier
}

// SetupTest runs before each test
func (suite *RFQIntegrationTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	t := suite.T()

	suite.db = testutil.SetupTestDB(t)
	testutil.CreateUser(t, suite.db, "auth0|producer", "a@x.com", models.RoleProducer, "Stellenrust")
	testutil.CreateUser(t, suite.db, "auth0|corkco", "sales@corkco.com", models.RoleSupplier, "CorkCo")
	testutil.CreateUser(t, suite.db, "auth0|glassco", "orders@glassco.com", models.RoleSupplier, "GlassCo")
	testutil.CreateUser(t, suite.db, "auth0|capsco", "hello@capsco.com", models.RoleSupplier, "CapsCo")

	suite.redis = miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: suite.redis.Addr()})
	t.Cleanup(func() { client.Close() })

	suite.notifier = services.NewMockNotifier()
	services.InitRFQService(suite.db, suite.notifier, services.NewRedisListingCache(client))
	services.InitAttachmentService(services.NewLocalFileStore(t.TempDir()))

	suite.router = gin.New()
	v1 := suite.router.Group("/api/v1")
	{
		secured := v1.Group("")
		secured.Use(testutil.MockAuthMiddleware(identities))
		secured.POST("/rfqs", controllers.CreateRFQ)
		secured.GET("/rfqs", controllers.ListRFQs)
		secured.GET("/rfqs/:id", controllers.GetRFQ)
		secured.POST("/rfqs/:id/quotes", controllers.SubmitQuote)
		secured.POST("/rfqs/:id/decision", controllers.DecideRFQ)
		secured.POST("/rfqs/:id/attachment", controllers.UploadRFQAttachment)
		secured.GET("/uploads/:filename", controllers.GetUploadedFile)
	}
}

func (suite *RFQIntegrationTestSuite) request(method, path, subject string, body interface{}) (int, json.RawMessage) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		suite.Require().NoError(err)
	}

	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Test-User", subject)
	return suite.serve(req)
}

func (suite *RFQIntegrationTestSuite) serve(req *http.Request) (int, json.RawMessage) {
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	var response struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response), w.Body.String())
	return w.Code, response.Data
}

func (suite *RFQIntegrationTestSuite) createRFQ(title string) models.RFQ {
	status, data := suite.request("POST", "/api/v1/rfqs", "auth0|producer", gin.H{"title": title, "category": "Corks"})
	suite.Require().Equal(http.StatusCreated, status)

	var rfq models.RFQ
	suite.Require().NoError(json.Unmarshal(data, &rfq))
	return rfq
}

func (suite *RFQIntegrationTestSuite) listFor(subject string) []models.RFQ {
	status, data := suite.request("GET", "/api/v1/rfqs", subject, nil)
	suite.Require().Equal(http.StatusOK, status)

	var rfqs []models.RFQ
	suite.Require().NoError(json.Unmarshal(data, &rfqs))
	return rfqs
}

// TestListingsServedFromCacheAndInvalidated checks every write drops the
// cached listings it affects
func (suite *RFQIntegrationTestSuite) TestListingsServedFromCacheAndInvalidated() {
	rfq := suite.createRFQ("Corks Q1")

	suite.Len(suite.listFor("auth0|corkco"), 1)
	suite.Len(suite.listFor("auth0|producer"), 1)
	suite.True(suite.redis.Exists("rfqs:open"))
	suite.True(suite.redis.Exists("rfqs:producer:a@x.com"))

	status, _ := suite.request("POST", "/api/v1/rfqs/"+rfq.ID+"/quotes", "auth0|corkco", gin.H{"price": 1000})
	suite.Require().Equal(http.StatusCreated, status)
	suite.False(suite.redis.Exists("rfqs:open"))
	suite.False(suite.redis.Exists("rfqs:producer:a@x.com"))

	pool := suite.listFor("auth0|corkco")
	suite.Require().Len(pool, 1)
	suite.Equal(models.RFQStatusResponded, pool[0].ViewerStatus)

	// GlassCo reads the same cached open pool but never sees CorkCo's quote
	pool = suite.listFor("auth0|glassco")
	suite.Require().Len(pool, 1)
	suite.Empty(pool[0].Quotes)
	suite.Equal(models.RFQStatusResponded, pool[0].ViewerStatus)

	status, _ = suite.request("POST", "/api/v1/rfqs/"+rfq.ID+"/decision", "auth0|producer", gin.H{"quote_index": 0, "decision": "Reject"})
	suite.Require().Equal(http.StatusOK, status)

	suite.Empty(suite.listFor("auth0|glassco"))
	mine := suite.listFor("auth0|producer")
	suite.Require().Len(mine, 1)
	suite.Equal(models.RFQStatusRejected, mine[0].Status)
}

// TestConcurrentQuotesAndDecisions fires quotes and decisions in parallel;
// exactly one decision wins and no quote is lost
func (suite *RFQIntegrationTestSuite) TestConcurrentQuotesAndDecisions() {
	rfq := suite.createRFQ("Capsules")

	var wg sync.WaitGroup
	for _, supplier := range []string{"auth0|corkco", "auth0|glassco", "auth0|capsco"} {
		wg.Add(1)
		go func(subject string) {
			defer wg.Done()
			status, _ := suite.request("POST", "/api/v1/rfqs/"+rfq.ID+"/quotes", subject, gin.H{"price": 500})
			assert.Equal(suite.T(), http.StatusCreated, status)
		}(supplier)
	}
	wg.Wait()

	var full models.RFQ
	_, data := suite.request("GET", "/api/v1/rfqs/"+rfq.ID, "auth0|producer", nil)
	suite.Require().NoError(json.Unmarshal(data, &full))
	suite.Len(full.Quotes, 3)

	statuses := make(chan int, 3)
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func(index int) {
			defer wg.Done()
			status, _ := suite.request("POST", "/api/v1/rfqs/"+rfq.ID+"/decision", "auth0|producer", gin.H{"quote_index": index, "decision": "Accept"})
			statuses <- status
		}(i)
	}
	wg.Wait()
	close(statuses)

	counts := map[int]int{}
	for status := range statuses {
		counts[status]++
	}
	suite.Equal(1, counts[http.StatusOK], "exactly one decision lands")
	suite.Equal(2, counts[http.StatusConflict])
}

// TestAttachmentUploadAndDownload stores a spec sheet locally and serves it back
func (suite *RFQIntegrationTestSuite) TestAttachmentUploadAndDownload() {
	rfq := suite.createRFQ("Labels")

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", "label_artwork.png")
	suite.Require().NoError(err)
	part.Write([]byte("png artwork"))
	suite.Require().NoError(writer.Close())

	req := httptest.NewRequest("POST", fmt.Sprintf("/api/v1/rfqs/%s/attachment", rfq.ID), body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("X-Test-User", "auth0|producer")
	status, data := suite.serve(req)
	suite.Require().Equal(http.StatusOK, status)

	var updated models.RFQ
	suite.Require().NoError(json.Unmarshal(data, &updated))
	suite.Require().NotNil(updated.AttachmentURL)

	download := httptest.NewRequest("GET", *updated.AttachmentURL, nil)
	download.Header.Set("X-Test-User", "auth0|corkco")
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, download)
	suite.Equal(http.StatusOK, w.Code)
	suite.Equal("image/png", w.Header().Get("Content-Type"))
	suite.Equal("png artwork", w.Body.String())

	w = httptest.NewRecorder()
	suite.router.ServeHTTP(w, httptest.NewRequest("GET", *updated.AttachmentURL, nil))
	suite.Equal(http.StatusUnauthorized, w.Code)
}

func TestRFQIntegrationSuite(t *testing.T) {
	suite.Run(t, new(RFQIntegrationTestSuite))
}
