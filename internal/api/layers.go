package api

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
)

// layers maps the public layer name to its file under the layers directory.
var layers = map[string]string{
	"sleman_kec":    "sleman_kec.geojson",
	"krb":           "krb.geojson",
	"jarak_merapi":  "jarak_merapi.geojson",
	"jalurevakuasi": "jalurevakuasi.geojson",
	"jalan":         "jalan.geojson",
	"sungai":        "sungai.geojson",
}

func (h *Handler) getLayer(c *gin.Context) {
	file, ok := layers[c.Param("name")]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown layer"})
		return
	}

	path := filepath.Join(h.layersDir, file)
	if _, err := os.Stat(path); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "layer not available"})
		return
	}

	c.Header("Content-Type", "application/geo+json")
	c.File(path)
}
