package routes

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"thermlink/internal/importer"
	"thermlink/internal/model"
	"thermlink/internal/reconcile"
	"thermlink/internal/service/imports"

	"github.com/gin-gonic/gin"
)

const detail = `<THERM-XML>
<Notes>RhinoUnits-Millimeters, RhinoOrigin-(0,0,0), RhinoXAxis-(1,0,0), RhinoYAxis-(0,1,0), RhinoZAxis-(0,0,1)</Notes>
<Polygons>
<Polygon ID="1" Material="Aluminum Alloy">
<Point index="0" x="0" y="0"/>
<Point index="1" x="10" y="0"/>
<Point index="2" x="10" y="10"/>
<Point index="3" x="0" y="10"/>
</Polygon>
<Polygon ID="2" Material="Air">
<Point index="0" x="100" y="0"/>
<Point index="1" x="110" y="0"/>
<Point index="2" x="110" y="10"/>
<Point index="3" x="100" y="10"/>
</Polygon>
</Polygons>
</THERM-XML>
`

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)

	env := importer.StaticEnvironment{UnitFactor: 0.001, Tolerance: 0.001}
	service := imports.NewImportService(importer.New(env, reconcile.Abort), imports.Settings{UnitSystem: "millimeters", Tolerance: 0.001})

	r := gin.New()
	SetupMainHandlers(r.Group(""), map[string]string{"port": ":8080"})
	SetupImportHandlers(r.Group("/api"), service)
	return r
}

func perform(r *gin.Engine, method, path string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func createImport(t *testing.T, r *gin.Engine) model.ImportSummary {
	t.Helper()
	w := perform(r, http.MethodPost, "/api/imports?name=sill.xml", bytes.NewBufferString(detail), "application/xml")
	if w.Code != http.StatusCreated {
		t.Fatalf("POST /api/imports = %d: %s", w.Code, w.Body.String())
	}
	var summary model.ImportSummary
	if err := json.Unmarshal(w.Body.Bytes(), &summary); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	return summary
}

func TestHealth(t *testing.T) {
	r := setupTestRouter()
	w := perform(r, http.MethodGet, "/health", nil, "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "ok") {
		t.Errorf("GET /health = %d %s", w.Code, w.Body.String())
	}
}

func TestCreateRawBody(t *testing.T) {
	r := setupTestRouter()
	summary := createImport(t, r)

	if summary.ID == "" || summary.SourceName != "sill.xml" {
		t.Errorf("summary = %+v", summary)
	}
	if summary.FaceCount != 2 {
		t.Errorf("expected 2 faces, got %d", summary.FaceCount)
	}

	w := perform(r, http.MethodGet, "/api/imports", nil, "")
	var list []model.ImportSummary
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil || len(list) != 1 {
		t.Errorf("GET /api/imports = %s (%v)", w.Body.String(), err)
	}
}

func TestCreateRawBodyContentTypes(t *testing.T) {
	r := setupTestRouter()

	// curl --data-binary sends application/x-www-form-urlencoded
	for _, contentType := range []string{"application/x-www-form-urlencoded", "text/xml", ""} {
		t.Run(contentType, func(t *testing.T) {
			w := perform(r, http.MethodPost, "/api/imports", bytes.NewBufferString(detail), contentType)
			if w.Code != http.StatusCreated {
				t.Fatalf("POST with %q = %d: %s", contentType, w.Code, w.Body.String())
			}
			if !strings.Contains(w.Body.String(), `"face_count":2`) {
				t.Errorf("expected 2 faces in %s", w.Body.String())
			}
		})
	}
}

func TestCreateMultipartWithoutFile(t *testing.T) {
	r := setupTestRouter()

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	mw.WriteField("name", "window.xml")
	mw.Close()

	w := perform(r, http.MethodPost, "/api/imports", body, mw.FormDataContentType())
	if w.Code != http.StatusBadRequest {
		t.Errorf("POST multipart without file = %d: %s", w.Code, w.Body.String())
	}
}

func TestCreateMultipart(t *testing.T) {
	r := setupTestRouter()

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	part, err := mw.CreateFormFile("file", "window.xml")
	if err != nil {
		t.Fatal(err)
	}
	part.Write([]byte(detail))
	mw.Close()

	w := perform(r, http.MethodPost, "/api/imports", body, mw.FormDataContentType())
	if w.Code != http.StatusCreated {
		t.Fatalf("POST multipart = %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "window.xml") {
		t.Errorf("expected source name in %s", w.Body.String())
	}
}

func TestCreateErrors(t *testing.T) {
	r := setupTestRouter()

	tests := []struct {
		name string
		body string
		want int
	}{
		{"empty", "", http.StatusBadRequest},
		{"unclosed polygon", "<Polygons>\n<Polygon ID=\"1\">\n", http.StatusUnprocessableEntity},
		{"malformed point", "<Polygons>\n<Polygon ID=\"1\">\n<Point index=\"0\" x=\"a\" y=\"0\"/>\n", http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := perform(r, http.MethodPost, "/api/imports", bytes.NewBufferString(tt.body), "application/xml")
			if w.Code != tt.want {
				t.Errorf("got %d, want %d: %s", w.Code, tt.want, w.Body.String())
			}
		})
	}
}

func TestGetAndDelete(t *testing.T) {
	r := setupTestRouter()
	summary := createImport(t, r)

	w := perform(r, http.MethodGet, "/api/imports/"+summary.ID, nil, "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Aluminum Alloy") {
		t.Errorf("GET import = %d %s", w.Code, w.Body.String())
	}

	w = perform(r, http.MethodDelete, "/api/imports/"+summary.ID, nil, "")
	if w.Code != http.StatusNoContent {
		t.Errorf("DELETE = %d", w.Code)
	}

	w = perform(r, http.MethodGet, "/api/imports/"+summary.ID, nil, "")
	if w.Code != http.StatusNotFound {
		t.Errorf("GET after delete = %d", w.Code)
	}
	w = perform(r, http.MethodDelete, "/api/imports/"+summary.ID, nil, "")
	if w.Code != http.StatusNotFound {
		t.Errorf("second DELETE = %d", w.Code)
	}
}

func TestFaces(t *testing.T) {
	r := setupTestRouter()
	summary := createImport(t, r)
	base := "/api/imports/" + summary.ID + "/faces"

	tests := []struct {
		name  string
		query string
		code  int
		count int
	}{
		{"all", "", http.StatusOK, 2},
		// millimeter scene, so the faces keep THERM coordinates
		{"first only", "?min=0,0,-1&max=20,20,1", http.StatusOK, 1},
		{"both", "?min=-1,-1,-1&max=200,200,1", http.StatusOK, 2},
		{"none", "?min=500,500,-1&max=600,600,1", http.StatusOK, 0},
		{"bad min", "?min=0,0&max=1,1,1", http.StatusBadRequest, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := perform(r, http.MethodGet, base+tt.query, nil, "")
			if w.Code != tt.code {
				t.Fatalf("got %d, want %d: %s", w.Code, tt.code, w.Body.String())
			}
			if tt.count < 0 {
				return
			}
			var faces []json.RawMessage
			if err := json.Unmarshal(w.Body.Bytes(), &faces); err != nil {
				t.Fatalf("decode: %v (%s)", err, w.Body.String())
			}
			if len(faces) != tt.count {
				t.Errorf("expected %d faces, got %d", tt.count, len(faces))
			}
		})
	}
}

func TestPolygons(t *testing.T) {
	r := setupTestRouter()
	summary := createImport(t, r)
	base := "/api/imports/" + summary.ID + "/polygons"

	w := perform(r, http.MethodGet, base+"?x=105&y=5", nil, "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Air") || strings.Contains(w.Body.String(), "Aluminum") {
		t.Errorf("polygons at 105,5 = %d %s", w.Code, w.Body.String())
	}

	w = perform(r, http.MethodGet, base+"?x=50&y=5", nil, "")
	if w.Code != http.StatusOK || strings.TrimSpace(w.Body.String()) != "[]" {
		t.Errorf("polygons at 50,5 = %d %s", w.Code, w.Body.String())
	}

	w = perform(r, http.MethodGet, base+"?x=oops&y=5", nil, "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad x = %d", w.Code)
	}

	w = perform(r, http.MethodGet, "/api/imports/missing/polygons?x=1&y=1", nil, "")
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown import = %d", w.Code)
	}
}

func TestGeoJSON(t *testing.T) {
	r := setupTestRouter()
	summary := createImport(t, r)

	w := perform(r, http.MethodGet, "/api/imports/"+summary.ID+"/geojson", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("GET geojson = %d", w.Code)
	}
	var fc struct {
		Type     string            `json:"type"`
		Features []json.RawMessage `json:"features"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &fc); err != nil {
		t.Fatal(err)
	}
	if fc.Type != "FeatureCollection" || len(fc.Features) != 2 {
		t.Errorf("geojson = %s", w.Body.String())
	}
}
