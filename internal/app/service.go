package app

import (
	"context"
	"fmt"
	"io"
	"log"
	"math"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"datavault/api/internal/auth"
	"datavault/api/internal/autosave"
	"datavault/api/internal/blob"
	"datavault/api/internal/config"
	"datavault/api/internal/docstore"
	"datavault/api/internal/draft"
	"datavault/api/internal/identity"
	"datavault/api/internal/schema"
	"datavault/api/internal/search"
)

// Pinger reports backend liveness for the readiness probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// AccessGate turns a submitted access code into a session.
type AccessGate interface {
	Submit(ctx context.Context, code string) (identity.Session, error)
}

// Identity is the session side of the identity boundary.
type Identity interface {
	SessionFromToken(token string) (auth.Claims, error)
	Refresh(ctx context.Context, refreshToken string) (identity.Session, error)
	SignOut(ctx context.Context, refreshToken string) error
}

// BlobStore stores uploaded files. Nil means uploads are not configured.
type BlobStore interface {
	Upload(ctx context.Context, filename, contentType string, r io.Reader, size int64) (blob.Object, error)
}

// SaveStatus is the autosave state surfaced to admins.
type SaveStatus struct {
	Status    autosave.Status `json:"status"`
	Dirty     bool            `json:"dirty"`
	LastError string          `json:"lastError,omitempty"`
	Source    docstore.Source `json:"loadedFrom"`
}

// Service owns the single company document per deployment: one draft
// controller and one autosave scheduler, shared by every admin session.
type Service struct {
	cfg    config.Config
	db     Pinger
	docs   *docstore.Adapter
	gate   AccessGate
	ident  Identity
	search *search.Service
	blob   BlobStore

	draft  *draft.Controller
	sched  *autosave.Scheduler
	source docstore.Source
}

func New(cfg config.Config, db Pinger, docs *docstore.Adapter, g AccessGate, ident Identity, meili *search.Meili, blobStore BlobStore) *Service {
	s := &Service{
		cfg:   cfg,
		db:    db,
		docs:  docs,
		gate:  g,
		ident: ident,
		blob:  blobStore,
	}
	s.search = search.NewService(meili, search.NewScan(s.committedDocument))
	return s
}

// Bootstrap loads the best available company document and starts the
// autosave machinery. The service is not usable before this runs.
func (s *Service) Bootstrap(ctx context.Context) error {
	doc, source := s.docs.Load(ctx)
	s.source = source
	s.sched = autosave.New(s.saveDraft, s.cfg.SaveDebounce, s.cfg.SavingFloor)
	s.draft = draft.New(doc, s.sched.Notify)
	s.search.IndexLibrary(libraryRecords(doc))
	log.Printf("company document loaded from %s tier", source)
	return nil
}

// Close stops the autosave scheduler. A pending debounce window is dropped.
func (s *Service) Close() {
	if s.sched != nil {
		s.sched.Close()
	}
}

func (s *Service) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// saveDraft is the composed save callback: capture the draft at fire time,
// push it remotely, and only then commit. On failure the draft is kept, a
// local snapshot is written so the work survives a crash, and the error is
// returned so the scheduler re-arms a retry.
func (s *Service) saveDraft(ctx context.Context) error {
	doc := s.draft.Snapshot()
	if err := s.docs.Save(ctx, doc); err != nil {
		if snapErr := s.docs.WriteSnapshot(doc); snapErr != nil {
			log.Printf("app: fallback snapshot write failed: %v", snapErr)
		}
		return err
	}
	s.draft.Commit(doc)
	s.search.IndexLibrary(libraryRecords(doc))
	return nil
}

func (s *Service) committedDocument() schema.Document {
	if s.draft == nil {
		return schema.Default()
	}
	return s.draft.Committed()
}

// SubmitCode runs an access code through the gate.
func (s *Service) SubmitCode(ctx context.Context, code string) (identity.Session, error) {
	return s.gate.Submit(ctx, code)
}

func (s *Service) SessionFromToken(token string) (auth.Claims, error) {
	return s.ident.SessionFromToken(token)
}

func (s *Service) Refresh(ctx context.Context, refreshToken string) (identity.Session, error) {
	return s.ident.Refresh(ctx, refreshToken)
}

func (s *Service) SignOut(ctx context.Context, refreshToken string) error {
	return s.ident.SignOut(ctx, refreshToken)
}

// DraftDocument is what admins see: their pending edits included.
func (s *Service) DraftDocument() schema.Document {
	return s.draft.Snapshot()
}

// CommittedDocument is what investors see: the last successfully saved
// state.
func (s *Service) CommittedDocument() schema.Document {
	return s.committedDocument()
}

// SetField updates a scalar or object field in the draft. Numeric ledger
// fields under financials are coerced so "480000" and 480000 store alike.
func (s *Service) SetField(rawPath []any, value any) error {
	path, err := normalizePath(rawPath)
	if err != nil {
		return err
	}
	if len(path) == 2 {
		if section, ok := path[0].(string); ok && section == "financials" {
			if field, ok := path[1].(string); ok {
				if _, isNumeric := schema.NumericFinancialFields[field]; isNumeric {
					value = schema.CoerceNumber(value)
				}
			}
		}
	}
	return s.draft.SetField(path, value)
}

// AppendListItem appends to a list section. Library documents get a
// server-assigned id and a lastModified date when the caller omits them.
func (s *Service) AppendListItem(rawPath []any, item map[string]any) (map[string]any, error) {
	path, err := normalizePath(rawPath)
	if err != nil {
		return nil, err
	}
	entry := make(map[string]any, len(item)+2)
	for k, v := range item {
		entry[k] = v
	}
	if isDocumentLibrary(path) {
		if str, _ := entry["id"].(string); str == "" {
			entry["id"] = uuid.NewString()
		}
		if str, _ := entry["lastModified"].(string); str == "" {
			entry["lastModified"] = time.Now().Format("2006-01-02")
		}
	}
	if err := s.draft.AppendListItem(path, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *Service) RemoveListItem(rawPath []any, index int) error {
	path, err := normalizePath(rawPath)
	if err != nil {
		return err
	}
	return s.draft.RemoveListItem(path, index)
}

func (s *Service) ReplaceListItemField(rawPath []any, index int, field string, value any) error {
	path, err := normalizePath(rawPath)
	if err != nil {
		return err
	}
	return s.draft.ReplaceListItemField(path, index, field, value)
}

// SaveNow flushes pending edits immediately, bypassing the debounce window.
func (s *Service) SaveNow(ctx context.Context) error {
	return s.sched.Flush(ctx)
}

func (s *Service) SaveState() SaveStatus {
	status := SaveStatus{
		Status: s.sched.Status(),
		Dirty:  s.draft.Dirty(),
		Source: s.source,
	}
	if err := s.sched.LastError(); err != nil {
		status.LastError = err.Error()
	}
	return status
}

func (s *Service) Search(q search.Query) search.Response {
	return s.search.Search(q)
}

// Upload stores a file in the blob store and appends it to the document
// library.
func (s *Service) Upload(ctx context.Context, filename, contentType, category, accessLevel string, r io.Reader, size int64) (map[string]any, error) {
	if s.blob == nil {
		return nil, domainError(503, "UPLOADS_UNAVAILABLE", "Object storage is not configured", nil)
	}
	obj, err := s.blob.Upload(ctx, filename, contentType, r, size)
	if err != nil {
		return nil, fmt.Errorf("store upload: %w", err)
	}
	if category == "" {
		category = "company"
	}
	if accessLevel == "" {
		accessLevel = "public"
	}
	entry := map[string]any{
		"name":        obj.Name,
		"type":        documentType(obj.Name),
		"size":        obj.Size,
		"category":    category,
		"accessLevel": accessLevel,
		"status":      "active",
		"url":         obj.URL,
		"pinned":      false,
	}
	return s.AppendListItem([]any{"documents"}, entry)
}

// normalizePath converts a JSON-decoded path (strings and float64 numbers)
// into draft path steps.
func normalizePath(raw []any) (draft.Path, error) {
	path := make(draft.Path, 0, len(raw))
	for _, step := range raw {
		switch v := step.(type) {
		case string:
			path = append(path, v)
		case int:
			path = append(path, v)
		case float64:
			if v != math.Trunc(v) || math.IsInf(v, 0) || math.IsNaN(v) {
				return nil, draft.ErrBadPathStep
			}
			path = append(path, int(v))
		default:
			return nil, draft.ErrBadPathStep
		}
	}
	return path, nil
}

func isDocumentLibrary(path draft.Path) bool {
	if len(path) != 1 {
		return false
	}
	section, _ := path[0].(string)
	return section == "documents"
}

func documentType(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return "PDF"
	case ".xls", ".xlsx":
		return "Excel"
	case ".doc", ".docx":
		return "Word"
	case ".ppt", ".pptx":
		return "PowerPoint"
	case ".mp4", ".mov", ".webm":
		return "Video"
	case ".png", ".jpg", ".jpeg", ".gif":
		return "Image"
	default:
		return "File"
	}
}

// libraryRecords flattens the document library for the search index.
func libraryRecords(doc schema.Document) []search.LibraryRecord {
	entries, ok := doc["documents"].([]any)
	if !ok {
		return nil
	}
	records := make([]search.LibraryRecord, 0, len(entries))
	for _, raw := range entries {
		entry, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		id, _ := entry["id"].(string)
		if id == "" {
			continue
		}
		records = append(records, search.LibraryRecord{
			ID:          id,
			Name:        asString(entry["name"]),
			Type:        asString(entry["type"]),
			Size:        asString(entry["size"]),
			Category:    asString(entry["category"]),
			AccessLevel: asString(entry["accessLevel"]),
			Status:      asString(entry["status"]),
		})
	}
	return records
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}
