package knowledge

import (
	"context"
	"fmt"
	"strconv"

	chromem "github.com/philippgille/chromem-go"

	"github.com/finscribe/finscribe/internal/embeddings"
)

const collectionName = "approved_documents"

// VectorCollaborator is a knowledge-store collaborator backed by an
// embedded vector database. Accepted proposals become searchable
// precedent documents for future generation runs.
type VectorCollaborator struct {
	db         *chromem.DB
	collection *chromem.Collection
}

// NewVectorCollaborator creates a collaborator embedding documents with
// the given embedder.
func NewVectorCollaborator(embedder embeddings.Embedder) (*VectorCollaborator, error) {
	db := chromem.NewDB()
	col, err := db.GetOrCreateCollection(collectionName, nil, embeddings.ToChromemFunc(embedder))
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}
	return &VectorCollaborator{db: db, collection: col}, nil
}

// SubmitUpdate embeds and stores every proposal document. A proposal
// with no documents, or one the store cannot absorb, is rejected.
func (c *VectorCollaborator) SubmitUpdate(ctx context.Context, proposal UpdateProposal) (Decision, error) {
	if len(proposal.Documents) == 0 {
		return DecisionRejected, fmt.Errorf("proposal %s has no documents", proposal.ID)
	}

	docs := make([]chromem.Document, 0, len(proposal.Documents))
	for _, d := range proposal.Documents {
		docs = append(docs, chromem.Document{
			ID:      proposal.SessionID + "/" + d.CapabilityID,
			Content: d.Content,
			Metadata: map[string]string{
				"session_id":    proposal.SessionID,
				"capability_id": d.CapabilityID,
				"version":       strconv.Itoa(d.Version),
				"title":         d.Title,
			},
		})
	}
	if err := c.collection.AddDocuments(ctx, docs, 1); err != nil {
		return DecisionRejected, fmt.Errorf("storing proposal %s: %w", proposal.ID, err)
	}
	return DecisionAccepted, nil
}

// Search returns the approved documents most similar to the query.
func (c *VectorCollaborator) Search(ctx context.Context, query string, limit int) ([]chromem.Result, error) {
	if limit <= 0 {
		limit = 5
	}
	if count := c.collection.Count(); count == 0 {
		return nil, nil
	} else if limit > count {
		limit = count
	}
	return c.collection.Query(ctx, query, limit, nil, nil)
}

// Persist writes the vector store to dir for reload on restart.
func (c *VectorCollaborator) Persist(dir string) error {
	return c.db.ExportToFile(dir+"/knowledge.gob.gz", true, "")
}

// Load restores a previously persisted vector store.
func (c *VectorCollaborator) Load(dir string) error {
	err := c.db.ImportFromFile(dir+"/knowledge.gob.gz", "")
	if err != nil {
		return err
	}
	c.collection, err = c.db.GetOrCreateCollection(collectionName, nil, nil)
	return err
}

// AcceptAll is the collaborator used when no embedding provider is
// configured. It accepts any non-empty proposal without storing it.
type AcceptAll struct{}

func (AcceptAll) SubmitUpdate(ctx context.Context, proposal UpdateProposal) (Decision, error) {
	if len(proposal.Documents) == 0 {
		return DecisionRejected, fmt.Errorf("proposal %s has no documents", proposal.ID)
	}
	return DecisionAccepted, nil
}
