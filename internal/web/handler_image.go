package web

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/vbonduro/dishcarbon/internal/domain"
	"github.com/vbonduro/dishcarbon/internal/estimation"
)

// maxFormOverhead is the room left for multipart framing above the image limit.
const maxFormOverhead = 1 << 20

// isWebP reports whether data is a WebP image (RIFF container with "WEBP" at
// offset 8).
func isWebP(data []byte) bool {
	return len(data) >= 12 &&
		string(data[0:4]) == "RIFF" &&
		string(data[8:12]) == "WEBP"
}

// sniffImageMIME guesses the type of an upload whose part carried no usable
// Content-Type. net/http.DetectContentType has no WebP signature, hence the
// separate check.
func sniffImageMIME(data []byte) string {
	if isWebP(data) {
		return "image/webp"
	}
	return http.DetectContentType(data)
}

// declaredMIME returns the part's declared media type, falling back to the
// file extension and finally to content sniffing.
func declaredMIME(header string, filename string, data []byte) string {
	if mt, _, err := mime.ParseMediaType(header); err == nil && mt != "application/octet-stream" {
		return mt
	}
	if byExt := mime.TypeByExtension(filepath.Ext(filename)); byExt != "" {
		if mt, _, err := mime.ParseMediaType(byExt); err == nil {
			return mt
		}
	}
	return sniffImageMIME(data)
}

func (s *Server) handleEstimateImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, estimation.MaxImageSize+maxFormOverhead)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.rejectUpload(w, r, estimation.ValidateImage("image/jpeg", estimation.MaxImageSize+1))
			return
		}
		http.Error(w, "failed to parse form", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		http.Error(w, "image file required", http.StatusBadRequest)
		return
	}
	defer closeWithLog(file, "upload file", s.logger)

	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "failed to read file", http.StatusInternalServerError)
		s.logger.Error("read upload failed", "error", err)
		return
	}

	img := domain.ImageUpload{
		Filename: header.Filename,
		MimeType: declaredMIME(header.Header.Get("Content-Type"), header.Filename, data),
		Data:     data,
	}
	// Rejected uploads never touch the estimation state.
	if err := estimation.ValidateImage(img.MimeType, img.Size()); err != nil {
		s.logger.Info("image upload rejected", "filename", img.Filename, "mime_type", img.MimeType, "bytes", img.Size())
		s.rejectUpload(w, r, err)
		return
	}

	sess := s.session(w, r)
	ctx := context.WithoutCancel(r.Context())
	seq, accepted := sess.TrySubmit(ctx, domain.MethodImage, func(ctx context.Context) (*domain.EstimationResult, error) {
		return s.service.EstimateImage(ctx, sess.ID, img)
	})
	if accepted {
		s.logger.Debug("image estimation submitted", "session_id", sess.ID, "seq", seq, "filename", img.Filename)
	} else {
		s.logger.Debug("image estimation already loading", "session_id", sess.ID, "seq", seq)
	}

	s.respondResult(w, r, sess)
}

// rejectUpload renders the input-level error next to the image picker.
func (s *Server) rejectUpload(w http.ResponseWriter, r *http.Request, err error) {
	var verr *estimation.ValidationError
	if !errors.As(err, &verr) {
		http.Error(w, "invalid upload", http.StatusBadRequest)
		return
	}
	if !isHTMX(r) {
		http.Error(w, verr.Message, http.StatusUnprocessableEntity)
		return
	}
	w.Header().Set("HX-Retarget", "#image-error")
	w.Header().Set("HX-Reswap", "innerHTML")
	if err := s.renderPartial(w, "partials/upload_error.html", verr); err != nil {
		s.logger.Error("render partial failed", "partial", "upload_error", "error", err)
	}
}

// closeWithLog closes c and logs any error, using label to identify the resource.
func closeWithLog(c io.Closer, label string, logger *slog.Logger) {
	if err := c.Close(); err != nil {
		logger.Error("failed to close resource", "label", label, "error", err)
	}
}
