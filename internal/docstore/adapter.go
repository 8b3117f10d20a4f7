// Package docstore normalizes the remote persistence backend into save/load
// over the company document tree, with a local snapshot fallback and schema
// repair on every tier.
package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"datavault/api/internal/schema"
)

// RecordID is the fixed id of the single company document this system
// manages per deployment.
const RecordID = "main"

// Remote is the subset of the persistence backend the adapter needs.
type Remote interface {
	UpsertCompanyData(ctx context.Context, id string, data json.RawMessage) error
	GetCompanyData(ctx context.Context, id string) (json.RawMessage, bool, error)
}

// Source says which tier a load was satisfied from.
type Source string

const (
	SourceRemote   Source = "remote"
	SourceSnapshot Source = "snapshot"
	SourceDefault  Source = "default"
)

type Adapter struct {
	remote   Remote
	snapshot *Snapshot
}

func NewAdapter(remote Remote, snapshot *Snapshot) *Adapter {
	return &Adapter{remote: remote, snapshot: snapshot}
}

// Save upserts the document remotely. On failure the caller is expected to
// fall back to WriteSnapshot; the error is returned either way so the save
// status can surface it.
func (a *Adapter) Save(ctx context.Context, doc schema.Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal company data: %w", err)
	}
	return a.remote.UpsertCompanyData(ctx, RecordID, data)
}

// WriteSnapshot stores the document in the local fallback file.
func (a *Adapter) WriteSnapshot(doc schema.Document) error {
	return a.snapshot.Write(doc)
}

// Load fetches the best available document: remote first, then the local
// snapshot, then the built-in default. Every tier passes through schema
// repair. An empty remote store is seeded with the default document right
// away so subsequent loads succeed.
func (a *Adapter) Load(ctx context.Context) (schema.Document, Source) {
	defaults := schema.Default()

	raw, found, err := a.remote.GetCompanyData(ctx, RecordID)
	if err == nil {
		if !found {
			doc := schema.Repair(defaults, defaults)
			if seedErr := a.Save(ctx, doc); seedErr != nil {
				log.Printf("docstore: seeding default document failed: %v", seedErr)
			}
			return doc, SourceDefault
		}
		var tree any
		if err := json.Unmarshal(raw, &tree); err != nil {
			log.Printf("docstore: stored document is not valid JSON, using defaults: %v", err)
			return schema.Repair(nil, defaults), SourceDefault
		}
		return schema.Repair(tree, defaults), SourceRemote
	}

	log.Printf("docstore: remote load failed, trying snapshot: %v", err)
	if doc, snapErr := a.snapshot.Read(); snapErr == nil {
		return schema.Repair(doc, defaults), SourceSnapshot
	} else {
		log.Printf("docstore: snapshot unavailable, using defaults: %v", snapErr)
	}
	return schema.Repair(nil, defaults), SourceDefault
}
