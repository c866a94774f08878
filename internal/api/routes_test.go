package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/satriahrh/teletale/adapters"
	"github.com/satriahrh/teletale/domain/repositories"
)

func setupTestServer(t testing.TB, store repositories.DocumentStore) *echo.Echo {
	logger := zap.NewNop()
	e := NewEcho(logger)
	InitRoutes(e, store, logger)
	return e
}

func doRequest(t testing.TB, e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t testing.TB, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), "body: %s", rec.Body.String())
	return v
}

func insertedID(t testing.TB, rec *httptest.ResponseRecorder) string {
	t.Helper()

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	result := decode[map[string]interface{}](t, rec)
	assert.Equal(t, true, result["acknowledged"])
	id, ok := result["insertedId"].(string)
	require.True(t, ok, "insertedId should be a hex string: %v", result["insertedId"])
	return id
}

func TestWelcome(t *testing.T) {
	e := setupTestServer(t, adapters.NewMemoryDocumentStore())

	rec := doRequest(t, e, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Welcome to Teletale", rec.Body.String())
}

func TestHealth(t *testing.T) {
	e := setupTestServer(t, adapters.NewMemoryDocumentStore())

	rec := doRequest(t, e, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode[map[string]string](t, rec)["status"])
}

func TestCORS(t *testing.T) {
	e := setupTestServer(t, adapters.NewMemoryDocumentStore())

	req := httptest.NewRequest(http.MethodGet, "/Devices", nil)
	req.Header.Set(echo.HeaderOrigin, "https://teletale.example")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
}

func TestDevices_InsertThenGet(t *testing.T) {
	e := setupTestServer(t, adapters.NewMemoryDocumentStore())

	id := insertedID(t, doRequest(t, e, http.MethodPost, "/Devices",
		`{"name":"DJI Mavic 3","price":2049,"tags":["drone","4k"],"specs":{"weight":895}}`))

	rec := doRequest(t, e, http.MethodGet, "/Devices/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)

	got := decode[map[string]interface{}](t, rec)
	assert.Equal(t, map[string]interface{}{
		"_id":   id,
		"name":  "DJI Mavic 3",
		"price": 2049.0,
		"tags":  []interface{}{"drone", "4k"},
		"specs": map[string]interface{}{"weight": 895.0},
	}, got)

	list := decode[[]map[string]interface{}](t, doRequest(t, e, http.MethodGet, "/Devices", ""))
	require.Len(t, list, 1)
	assert.Equal(t, id, list[0]["_id"])
}

func TestDevices_Delete(t *testing.T) {
	e := setupTestServer(t, adapters.NewMemoryDocumentStore())

	id := insertedID(t, doRequest(t, e, http.MethodPost, "/Devices", `{"name":"DJI Mini 4"}`))

	rec := doRequest(t, e, http.MethodDelete, "/Devices/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]interface{}{"acknowledged": true, "deletedCount": 1.0},
		decode[map[string]interface{}](t, rec))

	rec = doRequest(t, e, http.MethodGet, "/Devices/"+id, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "null", strings.TrimSpace(rec.Body.String()))
}

func TestDevices_EmptyList(t *testing.T) {
	e := setupTestServer(t, adapters.NewMemoryDocumentStore())

	rec := doRequest(t, e, http.MethodGet, "/Devices", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}

func TestInvalidID(t *testing.T) {
	e := setupTestServer(t, adapters.NewMemoryDocumentStore())

	for _, tc := range []struct{ method, target, body string }{
		{http.MethodGet, "/Devices/not-an-id", ""},
		{http.MethodDelete, "/Devices/123", ""},
		{http.MethodGet, "/bookings/xyz", ""},
		{http.MethodPut, "/bookings/xyz", `{"newData":"approved"}`},
		{http.MethodDelete, "/bookings/zzzzzzzzzzzzzzzzzzzzzzzz", ""},
	} {
		t.Run(tc.method+" "+tc.target, func(t *testing.T) {
			rec := doRequest(t, e, tc.method, tc.target, tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, KindInvalidID, decode[ErrorResponse](t, rec).Error)
		})
	}
}

func TestMalformedBody(t *testing.T) {
	e := setupTestServer(t, adapters.NewMemoryDocumentStore())

	rec := doRequest(t, e, http.MethodPost, "/testimonials", `{"text":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, KindInvalidRequest, decode[ErrorResponse](t, rec).Error)
}

func TestUnknownRoute(t *testing.T) {
	e := setupTestServer(t, adapters.NewMemoryDocumentStore())

	rec := doRequest(t, e, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, KindNotFound, decode[ErrorResponse](t, rec).Error)

	rec = doRequest(t, e, http.MethodDelete, "/testimonials", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, KindMethodNotAllowed, decode[ErrorResponse](t, rec).Error)
}

func TestBookings_FilterByEmail(t *testing.T) {
	e := setupTestServer(t, adapters.NewMemoryDocumentStore())

	for _, body := range []string{
		`{"email":"ana@teletale.io","device":"Mavic"}`,
		`{"email":"ben@teletale.io","device":"Mini"}`,
		`{"email":"ana@teletale.io","device":"Avata"}`,
	} {
		insertedID(t, doRequest(t, e, http.MethodPost, "/bookings", body))
	}

	all := decode[[]map[string]interface{}](t, doRequest(t, e, http.MethodGet, "/bookings", ""))
	assert.Len(t, all, 3)

	ana := decode[[]map[string]interface{}](t, doRequest(t, e, http.MethodGet, "/bookings?email=ana@teletale.io", ""))
	require.Len(t, ana, 2)
	for _, b := range ana {
		assert.Equal(t, "ana@teletale.io", b["email"])
	}

	none := decode[[]map[string]interface{}](t, doRequest(t, e, http.MethodGet, "/bookings?email=zoe@teletale.io", ""))
	assert.Empty(t, none)
}

func TestBookings_GetAndDelete(t *testing.T) {
	e := setupTestServer(t, adapters.NewMemoryDocumentStore())

	id := insertedID(t, doRequest(t, e, http.MethodPost, "/bookings", `{"email":"ana@teletale.io"}`))

	got := decode[map[string]interface{}](t, doRequest(t, e, http.MethodGet, "/bookings/"+id, ""))
	assert.Equal(t, "ana@teletale.io", got["email"])

	rec := doRequest(t, e, http.MethodDelete, "/bookings/"+id, "")
	assert.Equal(t, 1.0, decode[map[string]interface{}](t, rec)["deletedCount"])

	rec = doRequest(t, e, http.MethodGet, "/bookings/"+id, "")
	assert.Equal(t, "null", strings.TrimSpace(rec.Body.String()))
}

func TestBookings_UpdateStatus(t *testing.T) {
	e := setupTestServer(t, adapters.NewMemoryDocumentStore())

	t.Run("existing booking", func(t *testing.T) {
		id := insertedID(t, doRequest(t, e, http.MethodPost, "/bookings", `{"email":"ana@teletale.io","data":"pending"}`))

		rec := doRequest(t, e, http.MethodPut, "/bookings/"+id, `{"newData":"approved"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		result := decode[map[string]interface{}](t, rec)
		assert.Equal(t, 1.0, result["matchedCount"])
		assert.Equal(t, 1.0, result["modifiedCount"])
		assert.Nil(t, result["upsertedId"])

		got := decode[map[string]interface{}](t, doRequest(t, e, http.MethodGet, "/bookings/"+id, ""))
		assert.Equal(t, "approved", got["data"])
		assert.Equal(t, "ana@teletale.io", got["email"])
	})

	t.Run("unknown id is upserted", func(t *testing.T) {
		id := primitive.NewObjectID().Hex()

		rec := doRequest(t, e, http.MethodPut, "/bookings/"+id, `{"newData":{"status":"shipped"}}`)
		require.Equal(t, http.StatusOK, rec.Code)
		result := decode[map[string]interface{}](t, rec)
		assert.Equal(t, 0.0, result["matchedCount"])
		assert.Equal(t, 1.0, result["upsertedCount"])
		assert.Equal(t, id, result["upsertedId"])

		got := decode[map[string]interface{}](t, doRequest(t, e, http.MethodGet, "/bookings/"+id, ""))
		assert.Equal(t, map[string]interface{}{
			"_id":  id,
			"data": map[string]interface{}{"status": "shipped"},
		}, got)
	})
}

func TestUsers_AdminFlow(t *testing.T) {
	e := setupTestServer(t, adapters.NewMemoryDocumentStore())

	rec := doRequest(t, e, http.MethodGet, "/users/ghost@teletale.io", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]interface{}{"admin": false}, decode[map[string]interface{}](t, rec))

	rec = doRequest(t, e, http.MethodPut, "/users", `{"email":"ana@teletale.io","displayName":"Ana"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1.0, decode[map[string]interface{}](t, rec)["upsertedCount"])

	rec = doRequest(t, e, http.MethodGet, "/users/ana@teletale.io", "")
	assert.Equal(t, map[string]interface{}{"admin": false}, decode[map[string]interface{}](t, rec))

	rec = doRequest(t, e, http.MethodPut, "/users/admin", `{"email":"ana@teletale.io"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1.0, decode[map[string]interface{}](t, rec)["modifiedCount"])

	rec = doRequest(t, e, http.MethodGet, "/users/ana@teletale.io", "")
	assert.Equal(t, map[string]interface{}{"admin": true}, decode[map[string]interface{}](t, rec))

	// clients that encodeURIComponent the email get the same answer
	rec = doRequest(t, e, http.MethodGet, "/users/ana%40teletale.io", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]interface{}{"admin": true}, decode[map[string]interface{}](t, rec))

	// upserting the same email again updates rather than duplicates
	rec = doRequest(t, e, http.MethodPut, "/users", `{"email":"ana@teletale.io","displayName":"Ana B."}`)
	result := decode[map[string]interface{}](t, rec)
	assert.Equal(t, 1.0, result["matchedCount"])
	assert.Equal(t, 0.0, result["upsertedCount"])

	users := decode[[]map[string]interface{}](t, doRequest(t, e, http.MethodGet, "/users", ""))
	require.Len(t, users, 1)
	assert.Equal(t, "Ana B.", users[0]["displayName"])
	assert.Equal(t, "admin", users[0]["role"])
}

func TestUsers_MakeAdminDoesNotUpsert(t *testing.T) {
	e := setupTestServer(t, adapters.NewMemoryDocumentStore())

	rec := doRequest(t, e, http.MethodPut, "/users/admin", `{"email":"nobody@teletale.io"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	result := decode[map[string]interface{}](t, rec)
	assert.Equal(t, 0.0, result["matchedCount"])
	assert.Equal(t, 0.0, result["upsertedCount"])

	users := decode[[]map[string]interface{}](t, doRequest(t, e, http.MethodGet, "/users", ""))
	assert.Empty(t, users)
}

func TestUsers_Insert(t *testing.T) {
	e := setupTestServer(t, adapters.NewMemoryDocumentStore())

	insertedID(t, doRequest(t, e, http.MethodPost, "/users", `{"email":"ben@teletale.io","role":"admin"}`))

	rec := doRequest(t, e, http.MethodGet, "/users/ben@teletale.io", "")
	assert.Equal(t, map[string]interface{}{"admin": true}, decode[map[string]interface{}](t, rec))
}

func TestTestimonials_InsertOnce(t *testing.T) {
	e := setupTestServer(t, adapters.NewMemoryDocumentStore())

	insertedID(t, doRequest(t, e, http.MethodPost, "/testimonials", `{"name":"Ana","text":"Smooth rental"}`))
	id := insertedID(t, doRequest(t, e, http.MethodPost, "/testimonials", `{"name":"Ben","text":"Great drone"}`))

	list := decode[[]map[string]interface{}](t, doRequest(t, e, http.MethodGet, "/testimonials", ""))
	count := 0
	for _, doc := range list {
		if doc["_id"] == id {
			count++
			assert.Equal(t, "Great drone", doc["text"])
		}
	}
	assert.Equal(t, 1, count)
	assert.Len(t, list, 2)
}

func TestUsers_AdminStatusDecodesEmail(t *testing.T) {
	e := setupTestServer(t, adapters.NewMemoryDocumentStore())

	insertedID(t, doRequest(t, e, http.MethodPost, "/users", `{"email":"ana+x@teletale.io","role":"admin"}`))
	insertedID(t, doRequest(t, e, http.MethodPost, "/users", `{"email":"ben smith@teletale.io","role":"admin"}`))

	for _, target := range []string{
		"/users/ana+x@teletale.io",
		"/users/ana%2Bx%40teletale.io",
		"/users/ben%20smith@teletale.io",
		"/users/ben%20smith%40teletale.io",
	} {
		t.Run(target, func(t *testing.T) {
			rec := doRequest(t, e, http.MethodGet, target, "")
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, map[string]interface{}{"admin": true}, decode[map[string]interface{}](t, rec))
		})
	}
}

func TestUsers_AdminStatusMalformedEscape(t *testing.T) {
	e := setupTestServer(t, adapters.NewMemoryDocumentStore())

	req := httptest.NewRequest(http.MethodGet, "/users/placeholder", nil)
	req.URL.Path = "/users/%zz"
	req.URL.RawPath = "/users/%zz"
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, KindInvalidRequest, decode[ErrorResponse](t, rec).Error)
}

func TestUsers_UpsertCannotChangeID(t *testing.T) {
	e := setupTestServer(t, adapters.NewMemoryDocumentStore())

	insertedID(t, doRequest(t, e, http.MethodPost, "/users", `{"email":"ana@teletale.io"}`))

	rec := doRequest(t, e, http.MethodPut, "/users", `{"email":"ana@teletale.io","_id":"other"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, KindImmutableField, decode[ErrorResponse](t, rec).Error)
}
