package routes

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"thermlink/internal/export"
	"thermlink/internal/geometry"
	"thermlink/internal/model"
	"thermlink/internal/reconcile"
	"thermlink/internal/service/imports"
	"thermlink/internal/therm"

	"github.com/gin-gonic/gin"
	"github.com/golang/geo/r3"
)

// ImportHandlers serves THERM imports over HTTP
type ImportHandlers struct {
	service *imports.ImportService
}

// SetupImportHandlers registers the import endpoints
func SetupImportHandlers(router *gin.RouterGroup, service *imports.ImportService) {
	h := &ImportHandlers{service: service}
	group := router.Group("/imports")

	group.POST("", h.Create)
	group.GET("", h.List)
	group.GET("/:id", h.Get)
	group.DELETE("/:id", h.Delete)
	group.GET("/:id/faces", h.Faces)
	group.GET("/:id/polygons", h.Polygons)
	group.GET("/:id/geojson", h.GeoJSON)
}

// Create imports a THERM XML document sent as a multipart "file" field or
// as the raw request body
func (h *ImportHandlers) Create(c *gin.Context) {
	name := c.DefaultQuery("name", "upload.xml")
	var body io.Reader = c.Request.Body

	// any other content type is the document itself, form encoded or not
	if c.ContentType() == gin.MIMEMultipartPOSTForm {
		fh, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "multipart upload needs a \"file\" field"})
			return
		}
		f, err := fh.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		defer f.Close()
		name, body = fh.Filename, f
	}

	imp, err := h.service.Import(c.Request.Context(), name, body)
	switch {
	case errors.Is(err, imports.ErrEmptyInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case imports.IsInputError(err):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	case err != nil:
		log.Printf("Import of %s failed: %v", name, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "import failed"})
		return
	}

	c.JSON(http.StatusCreated, imp.Summary())
}

// List returns summaries of all imports
func (h *ImportHandlers) List(c *gin.Context) {
	all := h.service.List()
	summaries := make([]model.ImportSummary, 0, len(all))
	for _, imp := range all {
		summaries = append(summaries, imp.Summary())
	}
	c.JSON(http.StatusOK, summaries)
}

// Get returns one import with its full geometry
func (h *ImportHandlers) Get(c *gin.Context) {
	imp, ok := h.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, imp)
}

// Delete removes an import
func (h *ImportHandlers) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Faces returns the faces of an import, optionally limited to those meeting
// the box given by min=x,y,z and max=x,y,z
func (h *ImportHandlers) Faces(c *gin.Context) {
	minParam, maxParam := c.Query("min"), c.Query("max")
	if minParam == "" && maxParam == "" {
		imp, ok := h.lookup(c)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, imp.Result.Faces)
		return
	}

	lo, err := parseVector(minParam)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "min: " + err.Error()})
		return
	}
	hi, err := parseVector(maxParam)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "max: " + err.Error()})
		return
	}

	box := geometry.EmptyBox().Extend(lo).Extend(hi)
	faces, err := h.service.FacesInBounds(c.Param("id"), box)
	if err != nil {
		h.fail(c, err)
		return
	}
	if faces == nil {
		faces = []*reconcile.Face{}
	}
	c.JSON(http.StatusOK, faces)
}

// Polygons returns the source polygons of an import, optionally only those
// containing the THERM point x, y
func (h *ImportHandlers) Polygons(c *gin.Context) {
	xParam, yParam := c.Query("x"), c.Query("y")
	if xParam == "" && yParam == "" {
		imp, ok := h.lookup(c)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, imp.Result.Polygons)
		return
	}

	x, errX := strconv.ParseFloat(xParam, 64)
	y, errY := strconv.ParseFloat(yParam, 64)
	if errX != nil || errY != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "x and y must both be numbers"})
		return
	}

	polygons, err := h.service.PolygonsAt(c.Param("id"), x, y)
	if err != nil {
		h.fail(c, err)
		return
	}
	if polygons == nil {
		polygons = []therm.PolygonRecord{}
	}
	c.JSON(http.StatusOK, polygons)
}

// GeoJSON returns the source polygons as a GeoJSON feature collection
func (h *ImportHandlers) GeoJSON(c *gin.Context) {
	imp, ok := h.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, export.PolygonsGeoJSON(imp.Result.Polygons))
}

func (h *ImportHandlers) lookup(c *gin.Context) (*model.Import, bool) {
	imp, err := h.service.Get(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return nil, false
	}
	return imp, true
}

func (h *ImportHandlers) fail(c *gin.Context, err error) {
	if errors.Is(err, imports.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	log.Printf("Request %s failed: %v", c.Request.URL.Path, err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

func parseVector(s string) (r3.Vector, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return r3.Vector{}, fmt.Errorf("want x,y,z, got %q", s)
	}
	var c [3]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return r3.Vector{}, err
		}
		c[i] = f
	}
	return r3.Vector{X: c[0], Y: c[1], Z: c[2]}, nil
}
