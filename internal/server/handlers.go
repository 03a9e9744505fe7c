package server

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/geonate/geonate/internal/raster"
	"github.com/geonate/geonate/internal/render"
)

// listEntry is one raster in the catalog listing.
type listEntry struct {
	Name  string `json:"name"`
	Bytes int64  `json:"bytes"`
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	var entries []listEntry
	for _, ext := range []string{".tif", ".tiff"} {
		names, err := raster.ListFiles(s.cfg.Root, ext, false)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		for _, name := range names {
			fi, err := os.Stat(filepath.Join(s.cfg.Root, name))
			if err != nil {
				continue
			}
			entries = append(entries, listEntry{Name: name, Bytes: fi.Size()})
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	writeJSON(w, http.StatusOK, map[string]any{"rasters": entries})
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	path, ok := s.rasterPath(w, r)
	if !ok {
		return
	}
	info, err := raster.ReadInfo(path)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	path, ok := s.rasterPath(w, r)
	if !ok {
		return
	}
	rst, err := s.cache.Load(path)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"name":  mux.Vars(r)["name"],
		"bands": raster.Stats(rst),
	})
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	path, ok := s.rasterPath(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	band := 1
	if v := q.Get("band"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("bad band %q", v))
			return
		}
		band = n
	}
	width := 512
	if v := q.Get("width"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 8192 {
			writeError(w, http.StatusBadRequest, fmt.Errorf("bad width %q", v))
			return
		}
		width = n
	}
	name := q.Get("cmap")
	if name == "" {
		name = s.cmap
	}
	cmap, err := render.ParseColormap(name)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	rst, err := s.cache.Load(path)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	res, err := render.Single(rst, band, cmap, &render.Options{Width: width})
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	payload, err := base64.StdEncoding.DecodeString(res.ImageBase64)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	w.Header().Set("Content-Type", res.MimeType)
	w.Header().Set("Content-Length", strconv.Itoa(len(payload)))
	if _, err := w.Write(payload); err != nil {
		log.Printf("preview write: %v", err)
	}
}

// rasterPath resolves the {name} route variable to a file under the
// root, rejecting anything that could escape it.
func (s *Server) rasterPath(w http.ResponseWriter, r *http.Request) (string, bool) {
	name := mux.Vars(r)["name"]
	if name == "" || strings.ContainsAny(name, `/\`) || name != filepath.Base(name) {
		writeError(w, http.StatusBadRequest, fmt.Errorf("bad raster name %q", name))
		return "", false
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".tif", ".tiff":
	default:
		writeError(w, http.StatusBadRequest, fmt.Errorf("%s is not a GeoTIFF name", name))
		return "", false
	}
	path := filepath.Join(s.cfg.Root, name)
	if _, err := os.Stat(path); err != nil {
		writeError(w, http.StatusNotFound, fmt.Errorf("no raster named %s", name))
		return "", false
	}
	return path, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("response encode: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
