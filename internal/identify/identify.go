// Package identify runs the crystal identification pipeline: the vision
// model describes a photo, the answer is parsed and normalized into a
// crystal.Record, and the record is optionally saved.
package identify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kalambet/grimoire/internal/crystal"
	"github.com/kalambet/grimoire/internal/extract"
	"github.com/kalambet/grimoire/internal/normalize"
	"github.com/kalambet/grimoire/internal/storage"
	"github.com/kalambet/grimoire/internal/vision"
)

const defaultTimeout = 30 * time.Second

// Describer is the vision model collaborator.
type Describer interface {
	Describe(ctx context.Context, img vision.Image) (string, error)
}

// RecordWriter persists identified records.
type RecordWriter interface {
	PutRecord(ctx context.Context, rec crystal.Record) error
}

// Request is one identification request.
type Request struct {
	Image       []byte
	MIMEType    string
	UserContext map[string]any
	OwnerID     string
	Save        bool
}

// Options tune a Service.
type Options struct {
	// Timeout bounds the vision call; defaults to 30s when <= 0.
	Timeout time.Duration
	// RequireOwner rejects saves that carry no owner id.
	RequireOwner bool
	// Model is reported in logs.
	Model string
}

// Service identifies crystals. It holds no per-request state and is safe
// for concurrent use.
type Service struct {
	vision       Describer
	store        RecordWriter
	normalizer   *normalize.Normalizer
	timeout      time.Duration
	requireOwner bool
	model        string
}

// NewService creates a Service. store may be nil, in which case saving
// fails with storage.ErrUnavailable.
func NewService(v Describer, store RecordWriter, opts Options) *Service {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Service{
		vision:       v,
		store:        store,
		normalizer:   normalize.New(),
		timeout:      timeout,
		requireOwner: opts.RequireOwner,
		model:        opts.Model,
	}
}

// Identify runs the full pipeline for req. A model answer that cannot be
// parsed yields a *crystal.MalformedResponseError and nothing is saved.
func (s *Service) Identify(ctx context.Context, req Request) (crystal.Record, error) {
	if err := s.validate(req); err != nil {
		return crystal.Record{}, err
	}
	start := time.Now()

	vctx, cancel := context.WithTimeout(ctx, s.timeout)
	raw, err := s.vision.Describe(vctx, vision.Image{
		Data:        req.Image,
		MIMEType:    req.MIMEType,
		UserContext: req.UserContext,
	})
	cancel()
	if err != nil {
		slog.Warn("vision model call failed", "model", s.model, "error", err, "duration_ms", time.Since(start).Milliseconds())
		return crystal.Record{}, fmt.Errorf("describing image: %w", err)
	}

	rec, err := s.normalizeRaw(raw, req.OwnerID)
	if err != nil {
		slog.Warn("model response rejected", "model", s.model, "error", err)
		return crystal.Record{}, err
	}

	if req.Save {
		if s.store == nil {
			return crystal.Record{}, fmt.Errorf("saving record: %w", storage.ErrUnavailable)
		}
		if err := s.store.PutRecord(ctx, rec); err != nil {
			return crystal.Record{}, fmt.Errorf("saving record: %w", err)
		}
	}

	slog.Info("crystal identified",
		"id", rec.Core.ID,
		"name", rec.Core.Identity.Name,
		"model", s.model,
		"saved", req.Save,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return rec, nil
}

// NormalizeText normalizes a raw model answer without calling the model.
func (s *Service) NormalizeText(raw, owner string) (crystal.Record, error) {
	return s.normalizeRaw(raw, owner)
}

func (s *Service) normalizeRaw(raw, owner string) (crystal.Record, error) {
	doc, err := extract.Parse(raw)
	if err != nil {
		return crystal.Record{}, err
	}
	return s.normalizer.NormalizeFor(extract.Extract(doc), owner), nil
}

func (s *Service) validate(req Request) error {
	if len(req.Image) == 0 {
		return &crystal.ValidationError{Field: "image_data", Message: "is required"}
	}
	if req.Save && s.requireOwner && req.OwnerID == "" {
		return &crystal.ValidationError{Field: "owner_id", Message: "is required when saving"}
	}
	return nil
}
