package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/couchcryptid/shore-hazard-service/internal/domain"
	"github.com/couchcryptid/shore-hazard-service/internal/wizard"
	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
)

const mediaFormField = "files"

type setFieldRequest struct {
	Path  string          `json:"path"`
	Value json.RawMessage `json:"value"`
}

// deviceLocationRequest carries the browser's geolocation result: either a
// fix or the error it reported.
type deviceLocationRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Error     string   `json:"error"`
}

func (s *Server) handleOpenWizard(c *gin.Context) {
	w, err := s.deps.Wizards.Open(identityFrom(c))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, w.Snapshot())
}

func (s *Server) handleGetWizard(c *gin.Context, w *wizard.Wizard) {
	c.JSON(http.StatusOK, w.Snapshot())
}

func (s *Server) handleCloseWizard(c *gin.Context) {
	if err := s.deps.Wizards.Close(c.Param("id"), identityFrom(c).ID); err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleSetField(c *gin.Context, w *wizard.Wizard) {
	var req setFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	value, err := decodeValue(req.Value)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	respond(c, http.StatusOK)(w.SetField(req.Path, value))
}

func (s *Server) handleNext(c *gin.Context, w *wizard.Wizard) {
	respond(c, http.StatusOK)(w.Next())
}

func (s *Server) handleBack(c *gin.Context, w *wizard.Wizard) {
	respond(c, http.StatusOK)(w.Back())
}

// handleSubmit starts the submission and returns at once; clients poll the
// wizard for progress and the receipt.
func (s *Server) handleSubmit(c *gin.Context, w *wizard.Wizard) {
	respond(c, http.StatusAccepted)(w.SubmitAsync())
}

func (s *Server) handleReset(c *gin.Context, w *wizard.Wizard) {
	respond(c, http.StatusOK)(w.Reset())
}

// handleAttachMedia sniffs each uploaded file's type and records its name,
// type, and size. The bytes themselves are discarded.
func (s *Server) handleAttachMedia(c *gin.Context, w *wizard.Wizard) {
	form, err := c.MultipartForm()
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: "expected multipart form data"})
		return
	}
	headers := form.File[mediaFormField]
	if len(headers) == 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("no %q files in form", mediaFormField)})
		return
	}

	refs := make([]domain.MediaRef, 0, len(headers))
	for _, fh := range headers {
		ref, err := describeUpload(fh)
		if err != nil {
			s.writeError(c, err)
			return
		}
		refs = append(refs, ref)
	}
	respond(c, http.StatusOK)(w.AttachMedia(refs...))
}

func (s *Server) handleRemoveMedia(c *gin.Context, w *wizard.Wizard) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: "media index must be an integer"})
		return
	}
	if !w.RemoveMedia(index) {
		snap := w.Snapshot()
		status := http.StatusNotFound
		msg := fmt.Sprintf("no media at index %d", index)
		if snap.Closed || snap.Submitting || snap.Step == wizard.StepComplete {
			status = http.StatusConflict
			msg = domain.ErrWizardLocked.Error()
		}
		c.AbortWithStatusJSON(status, errorResponse{Error: msg, Wizard: &snap})
		return
	}
	c.JSON(http.StatusOK, w.Snapshot())
}

func (s *Server) handleDeviceLocation(c *gin.Context, w *wizard.Wizard) {
	var req deviceLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	locator := domain.LocatorFunc(func(context.Context) (domain.Coordinates, error) {
		if req.Error != "" {
			return domain.Coordinates{}, errors.New(req.Error)
		}
		if req.Latitude == nil || req.Longitude == nil {
			return domain.Coordinates{}, errors.New("latitude and longitude are required")
		}
		return domain.Coordinates{Latitude: *req.Latitude, Longitude: *req.Longitude}, nil
	})
	respond(c, http.StatusOK)(w.RequestDeviceLocation(c.Request.Context(), locator))
}

// respond writes the snapshot with status, or the error with the snapshot
// attached.
func respond(c *gin.Context, status int) func(wizard.Snapshot, error) {
	return func(snap wizard.Snapshot, err error) {
		if err != nil {
			writeWizardError(c, err, snap)
			return
		}
		c.JSON(status, snap)
	}
}

// decodeValue keeps numbers as json.Number so SetField can coerce them.
func decodeValue(raw json.RawMessage) (any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("invalid field value: %w", err)
	}
	return v, nil
}

func describeUpload(fh *multipart.FileHeader) (domain.MediaRef, error) {
	f, err := fh.Open()
	if err != nil {
		return domain.MediaRef{}, fmt.Errorf("open upload %s: %w", fh.Filename, err)
	}
	defer f.Close()

	mt, err := mimetype.DetectReader(f)
	if err != nil {
		return domain.MediaRef{}, fmt.Errorf("sniff upload %s: %w", fh.Filename, err)
	}
	return domain.MediaRef{
		Name:        fh.Filename,
		ContentType: mt.String(),
		Size:        fh.Size,
	}, nil
}
