package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/kakeibo-dev/kakeibo_app/internal/core/domain"
	portsrepo "github.com/kakeibo-dev/kakeibo_app/internal/core/ports/repositories"
	portssvc "github.com/kakeibo-dev/kakeibo_app/internal/core/ports/services"
)

// NewServiceContainer wires the ledger core: registry, journal store,
// projector and composer, replaying persisted state before returning.
//
// A ledger instance is single-currency: currency (default
// domain.DefaultCurrency when empty) is the only currency the registry and
// the journal store accept, so every balance and statement aggregates
// uniform minor units.
//
// All mutating operations across the registry and the journal store share
// one write mutex, so every mutation appears atomic to concurrent readers
// and cross-component checks (active-account validation on submit, the
// reference check on delete) cannot race with each other. Reads stay
// lock-free with respect to that mutex and only take the short per-service
// state locks.
func NewServiceContainer(ctx context.Context, accountRepo portsrepo.AccountRepository, journalRepo portsrepo.JournalRepository, currency string) (*portssvc.ServiceContainer, error) {
	if currency == "" {
		currency = domain.DefaultCurrency
	}
	writeMu := &sync.Mutex{}

	registry := NewRegistryService(accountRepo, currency, writeMu)
	if err := registry.Load(ctx); err != nil {
		return nil, fmt.Errorf("failed to load account registry: %w", err)
	}

	journal := NewJournalService(journalRepo, registry, currency, writeMu)
	if err := journal.Load(ctx); err != nil {
		return nil, fmt.Errorf("failed to load journal store: %w", err)
	}
	registry.BindReferenceChecker(journal)

	ledger := NewLedgerService(journal, registry)
	reporting := NewReportingService(ledger, journal, registry)

	return &portssvc.ServiceContainer{
		Registry:  registry,
		Journal:   journal,
		Ledger:    ledger,
		Reporting: reporting,
	}, nil
}
