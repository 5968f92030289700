package services

// ServiceContainer bundles the service facades handed to the handler layer.
type ServiceContainer struct {
	Registry  RegistrySvcFacade
	Journal   JournalSvcFacade
	Ledger    LedgerSvcFacade
	Reporting ReportingSvcFacade
}
