package mockapi

import (
	"io"
	"net/http"
	"path"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/farmart/farmart-go/pkg/models"
)

func (s *Server) handleDashboardStats(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	s.respondWithJSON(w, http.StatusOK, s.store.statsFor(user))
}

const maxUploadBytes = 5 << 20

func (s *Server) handleUploadImage(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Missing image file")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		s.respondWithError(w, http.StatusInternalServerError, "Failed to read image")
		return
	}

	name := uuid.New().String() + "-" + path.Base(header.Filename)
	s.store.saveUpload(name, data)

	s.logger.WithField("name", name).Debug("Image stored")
	s.respondWithJSON(w, http.StatusCreated, models.UploadResponse{ImageURL: "/uploads/" + name})
}

func (s *Server) handleServeUpload(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	data, ok := s.store.upload(name)
	if !ok {
		s.respondWithError(w, http.StatusNotFound, "Image not found")
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Write(data)
}
