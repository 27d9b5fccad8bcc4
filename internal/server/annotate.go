// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"

	"github.com/pdiddy/litreview/internal/annotate"
	"github.com/pdiddy/litreview/internal/convert"
)

// handleAnnotate accepts either a multipart upload in the "file" field or
// a JSON document {"name", "text"}.
func (s *Server) handleAnnotate(w http.ResponseWriter, r *http.Request) {
	if s.annotator == nil {
		writeError(w, http.StatusServiceUnavailable, "annotation is not configured")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	var doc annotate.Document
	switch mediaType {
	case "multipart/form-data":
		file, header, err := r.FormFile("file")
		if err != nil {
			writeError(w, uploadStatus(err), "reading upload: "+err.Error())
			return
		}
		defer file.Close()

		c, err := convert.ForFile(header.Filename, s.runtime)
		if err != nil {
			status := http.StatusServiceUnavailable
			if errors.Is(err, convert.ErrUnsupported) {
				status = http.StatusUnsupportedMediaType
			}
			writeError(w, status, err.Error())
			return
		}
		text, err := c.Convert(r.Context(), file)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		doc = annotate.Document{Name: header.Filename, Text: text}

	case "application/json":
		if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
			writeError(w, uploadStatus(err), "invalid request body: "+err.Error())
			return
		}

	default:
		writeError(w, http.StatusUnsupportedMediaType, "expected multipart/form-data or application/json")
		return
	}

	res, err := s.annotator.Annotate(r.Context(), doc)
	switch {
	case errors.Is(err, annotate.ErrEmptyDocument):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case err != nil:
		s.logger.Warnf("annotating %q: %v", doc.Name, err)
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		writeJSON(w, http.StatusOK, res)
	}
}

func uploadStatus(err error) int {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}
