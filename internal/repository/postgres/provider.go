package postgres

import (
	"creditdocs/internal/database"
	"creditdocs/internal/repository"
)

// Provider builds PostgreSQL repositories over an arbitrary query handle,
// so the service layer can bind a whole set of repositories to one
// transaction.
type Provider struct{}

// NewProvider returns the PostgreSQL repository factory.
func NewProvider() *Provider {
	return &Provider{}
}

var _ repository.Provider = (*Provider)(nil)

func (p *Provider) Documents(q database.DBTX) repository.DocumentRepository {
	return NewDocumentPostgres(q)
}

func (p *Provider) Activities(q database.DBTX) repository.ActivityRepository {
	return NewActivityPostgres(q)
}

func (p *Provider) Clients(q database.DBTX) repository.ClientRepository {
	return NewClientPostgres(q)
}

func (p *Provider) Disputes(q database.DBTX) repository.DisputeRepository {
	return NewDisputePostgres(q)
}
