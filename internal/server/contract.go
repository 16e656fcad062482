package server

import (
	"context"
	"net/http"
	"strconv"

	"github.com/disintegration/imaging"
	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/lovecontract/pkg/blob"
	"github.com/matzehuels/lovecontract/pkg/contract"
	"github.com/matzehuels/lovecontract/pkg/errors"
	"github.com/matzehuels/lovecontract/pkg/render/sheet"
	"github.com/matzehuels/lovecontract/pkg/store"
)

// documentJSON is the wire form of the contract.
type documentJSON struct {
	contract.Record
	BothSigned bool `json:"bothSigned"`
}

func toDocumentJSON(doc contract.Document) documentJSON {
	return documentJSON{Record: doc.Record(), BothSigned: doc.BothSigned()}
}

type signatureRequest struct {
	Image contract.Blob `json:"image"`
}

// readDocument loads the record, treating a missing one as empty.
func (s *Server) readDocument(ctx context.Context) (contract.Document, error) {
	doc, err := s.store.Read(ctx, s.key)
	if store.IsNotFound(err) {
		return contract.NewDocument(s.key), nil
	}
	return doc, err
}

func (s *Server) writeDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.readDocument(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDocumentJSON(doc))
}

func slotParam(r *http.Request) (contract.Slot, error) {
	return contract.ParseSlot(chi.URLParam(r, "slot"))
}

func (s *Server) handleGetContract(w http.ResponseWriter, r *http.Request) {
	s.writeDocument(w, r)
}

func (s *Server) handleGetSignature(w http.ResponseWriter, r *http.Request) {
	slot, err := slotParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	doc, err := s.readDocument(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sig := doc.Signature(slot)
	if !sig.Signed() {
		s.writeError(w, r, errors.New(errors.ErrCodeNotFound, "slot %s is not signed", slot))
		return
	}
	img, err := blob.Decode(r.Context(), sig.Image)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	if err := imaging.Encode(w, img, imaging.PNG); err != nil {
		s.logger.Warn("write signature image", "slot", slot, "err", err)
	}
}

// handlePutSignature stores a pre-rendered blob. A signed slot must be
// cleared first.
func (s *Server) handlePutSignature(w http.ResponseWriter, r *http.Request) {
	slot, err := slotParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req signatureRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Image.IsZero() {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "image is required"))
		return
	}
	if _, err := blob.Decode(r.Context(), req.Image); err != nil {
		s.writeError(w, r, err)
		return
	}

	doc, err := s.readDocument(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if doc.Signed(slot) {
		s.writeError(w, r, errors.New(errors.ErrCodeAlreadySigned, "slot %s is already signed", slot))
		return
	}
	if err := s.store.UpsertSignature(r.Context(), s.key, slot, req.Image, s.clock.Now()); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info("signature stored", "slot", slot, "bytes", req.Image.Size())
	s.writeDocument(w, r)
}

func (s *Server) handleClearSignature(w http.ResponseWriter, r *http.Request) {
	slot, err := slotParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.store.ClearSignature(r.Context(), s.key, slot); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info("signature cleared", "slot", slot)
	s.writeDocument(w, r)
}

func (s *Server) handleAccept(w http.ResponseWriter, r *http.Request) {
	if err := s.store.SetAccepted(r.Context(), s.key, s.clock.Now()); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info("contract accepted")
	s.writeDocument(w, r)
}

// handlePrint renders the printable sheet. ?width= overrides the page width.
func (s *Server) handlePrint(w http.ResponseWriter, r *http.Request) {
	var opts []sheet.Option
	if v := r.URL.Query().Get("width"); v != "" {
		width, err := strconv.Atoi(v)
		if err != nil || width <= 0 || width > 4*sheet.DefaultWidth {
			s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "width must be between 1 and %d", 4*sheet.DefaultWidth))
			return
		}
		opts = append(opts, sheet.WithWidth(width))
	}

	doc, err := s.readDocument(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	in, err := sheet.FromDocument(r.Context(), doc)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", `inline; filename="contract.png"`)
	if err := sheet.Encode(w, sheet.Render(in, opts...)); err != nil {
		s.logger.Warn("write printable sheet", "err", err)
	}
}
