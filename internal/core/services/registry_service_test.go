package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/kakeibo-dev/kakeibo_app/internal/apperrors"
	"github.com/kakeibo-dev/kakeibo_app/internal/core/domain"
	portssvc "github.com/kakeibo-dev/kakeibo_app/internal/core/ports/services"
	"github.com/kakeibo-dev/kakeibo_app/internal/core/services"
	"github.com/kakeibo-dev/kakeibo_app/internal/dto"
	"github.com/kakeibo-dev/kakeibo_app/internal/repositories/memory"
)

type RegistryServiceTestSuite struct {
	suite.Suite
	ctx      context.Context
	store    *memory.Store
	services *portssvc.ServiceContainer
}

func (suite *RegistryServiceTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.store = memory.NewStore()

	container, err := services.NewServiceContainer(suite.ctx, suite.store, suite.store, domain.DefaultCurrency)
	suite.Require().NoError(err)
	suite.services = container
}

func (suite *RegistryServiceTestSuite) create(name string, accountType domain.AccountType) *domain.Account {
	account, err := suite.services.Registry.CreateAccount(suite.ctx, dto.CreateAccountRequest{
		Name:        name,
		AccountType: accountType,
	})
	suite.Require().NoError(err)
	return account
}

// --- Test Cases ---

func (suite *RegistryServiceTestSuite) TestCreateAccount_Defaults() {
	account := suite.create("現金", domain.Asset)

	suite.NotEmpty(account.AccountID)
	suite.Equal("現金", account.Name)
	suite.Equal(domain.Asset, account.AccountType)
	suite.Equal("JPY", account.CurrencyCode)
	suite.True(account.IsActive)
	suite.Empty(account.ParentAccountID)
}

func (suite *RegistryServiceTestSuite) TestCreateAccount_EmptyName() {
	_, err := suite.services.Registry.CreateAccount(suite.ctx, dto.CreateAccountRequest{
		Name:        "   ",
		AccountType: domain.Asset,
	})

	suite.Require().Error(err)
	suite.Equal(apperrors.ReasonEmptyName, apperrors.ReasonOf(err))
}

func (suite *RegistryServiceTestSuite) TestCreateAccount_ForeignCurrencyRejected() {
	_, err := suite.services.Registry.CreateAccount(suite.ctx, dto.CreateAccountRequest{
		Name:         "USD Cash",
		AccountType:  domain.Asset,
		CurrencyCode: "USD",
	})

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.Equal(apperrors.ReasonUnsupportedCurrency, apperrors.ReasonOf(err))

	accounts, err := suite.services.Registry.ListAccounts(suite.ctx, dto.ListAccountsParams{IncludeInactive: true})
	suite.Require().NoError(err)
	suite.Empty(accounts)
}

func (suite *RegistryServiceTestSuite) TestLoad_ForeignCurrencyAccountRejected() {
	store := memory.NewStore()
	suite.Require().NoError(store.SaveAccount(suite.ctx, domain.Account{
		AccountID:    "a1",
		Name:         "USD Cash",
		AccountType:  domain.Asset,
		CurrencyCode: "USD",
		IsActive:     true,
		Ordinal:      1,
	}))

	// A store holding a second-currency account cannot be replayed; the
	// mismatch is surfaced at startup instead of during aggregation.
	_, err := services.NewServiceContainer(suite.ctx, store, store, domain.DefaultCurrency)
	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrInternal)
}

func (suite *RegistryServiceTestSuite) TestCreateAccount_DuplicateNameWithinType() {
	suite.create("現金", domain.Asset)

	_, err := suite.services.Registry.CreateAccount(suite.ctx, dto.CreateAccountRequest{
		Name:        "現金",
		AccountType: domain.Asset,
	})
	suite.Require().Error(err)
	suite.Equal(apperrors.ReasonDuplicateName, apperrors.ReasonOf(err))

	// The same name under a different type is a different account.
	_, err = suite.services.Registry.CreateAccount(suite.ctx, dto.CreateAccountRequest{
		Name:        "現金",
		AccountType: domain.Liability,
	})
	suite.NoError(err)
}

func (suite *RegistryServiceTestSuite) TestCreateAccount_ParentMustShareType() {
	parent := suite.create("流動資産", domain.Asset)

	parentID := parent.AccountID
	child, err := suite.services.Registry.CreateAccount(suite.ctx, dto.CreateAccountRequest{
		Name:            "現金",
		AccountType:     domain.Asset,
		ParentAccountID: &parentID,
	})
	suite.Require().NoError(err)
	suite.Equal(parentID, child.ParentAccountID)

	_, err = suite.services.Registry.CreateAccount(suite.ctx, dto.CreateAccountRequest{
		Name:            "売上",
		AccountType:     domain.Revenue,
		ParentAccountID: &parentID,
	})
	suite.Require().Error(err)
	suite.Equal(apperrors.ReasonInvalidAccount, apperrors.ReasonOf(err))

	ghost := "no-such-parent"
	_, err = suite.services.Registry.CreateAccount(suite.ctx, dto.CreateAccountRequest{
		Name:            "普通預金",
		AccountType:     domain.Asset,
		ParentAccountID: &ghost,
	})
	suite.Require().Error(err)
	suite.Equal(apperrors.ReasonInvalidAccount, apperrors.ReasonOf(err))
}

func (suite *RegistryServiceTestSuite) TestRenameAccount() {
	account := suite.create("現金", domain.Asset)
	suite.create("普通預金", domain.Asset)

	renamed, err := suite.services.Registry.RenameAccount(suite.ctx, account.AccountID, "小口現金")
	suite.Require().NoError(err)
	suite.Equal("小口現金", renamed.Name)

	_, err = suite.services.Registry.RenameAccount(suite.ctx, account.AccountID, "普通預金")
	suite.Require().Error(err)
	suite.Equal(apperrors.ReasonDuplicateName, apperrors.ReasonOf(err))

	_, err = suite.services.Registry.RenameAccount(suite.ctx, "no-such-account", "whatever")
	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *RegistryServiceTestSuite) TestDeactivateAccount_Idempotent() {
	account := suite.create("現金", domain.Asset)

	suite.Require().NoError(suite.services.Registry.DeactivateAccount(suite.ctx, account.AccountID))
	// Second deactivation is a no-op, not an error.
	suite.Require().NoError(suite.services.Registry.DeactivateAccount(suite.ctx, account.AccountID))

	visible, err := suite.services.Registry.ListAccounts(suite.ctx, dto.ListAccountsParams{})
	suite.Require().NoError(err)
	suite.Empty(visible)

	all, err := suite.services.Registry.ListAccounts(suite.ctx, dto.ListAccountsParams{IncludeInactive: true})
	suite.Require().NoError(err)
	suite.Require().Len(all, 1)
	suite.False(all[0].IsActive)
}

func (suite *RegistryServiceTestSuite) TestDeleteAccount_Unreferenced() {
	account := suite.create("現金", domain.Asset)

	suite.Require().NoError(suite.services.Registry.DeleteAccount(suite.ctx, account.AccountID))

	_, err := suite.services.Registry.GetAccountByID(suite.ctx, account.AccountID)
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *RegistryServiceTestSuite) TestDeleteAccount_ReferencedConflicts() {
	cash := suite.create("現金", domain.Asset)
	sales := suite.create("売上", domain.Revenue)

	_, err := suite.services.Journal.SubmitEntry(suite.ctx, dto.SubmitEntryRequest{
		Date: "2024-03-01",
		Lines: []dto.SubmitLineRequest{
			{AccountID: cash.AccountID, TransactionType: domain.Debit, Amount: "10000"},
			{AccountID: sales.AccountID, TransactionType: domain.Credit, Amount: "10000"},
		},
	})
	suite.Require().NoError(err)

	err = suite.services.Registry.DeleteAccount(suite.ctx, cash.AccountID)
	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrConflict)

	// The account survives and can still be deactivated.
	_, err = suite.services.Registry.GetAccountByID(suite.ctx, cash.AccountID)
	suite.Require().NoError(err)
	suite.NoError(suite.services.Registry.DeactivateAccount(suite.ctx, cash.AccountID))
}

func (suite *RegistryServiceTestSuite) TestDeleteAccount_ReparentsChildren() {
	grandparent := suite.create("資産", domain.Asset)
	gpID := grandparent.AccountID
	parent, err := suite.services.Registry.CreateAccount(suite.ctx, dto.CreateAccountRequest{
		Name:            "流動資産",
		AccountType:     domain.Asset,
		ParentAccountID: &gpID,
	})
	suite.Require().NoError(err)
	parentID := parent.AccountID
	child, err := suite.services.Registry.CreateAccount(suite.ctx, dto.CreateAccountRequest{
		Name:            "現金",
		AccountType:     domain.Asset,
		ParentAccountID: &parentID,
	})
	suite.Require().NoError(err)

	suite.Require().NoError(suite.services.Registry.DeleteAccount(suite.ctx, parentID))

	reloaded, err := suite.services.Registry.GetAccountByID(suite.ctx, child.AccountID)
	suite.Require().NoError(err)
	suite.Equal(gpID, reloaded.ParentAccountID)
}

func (suite *RegistryServiceTestSuite) TestListAccounts_GroupedByTypeThenCreation() {
	expense := suite.create("消耗品費", domain.Expense)
	asset1 := suite.create("現金", domain.Asset)
	asset2 := suite.create("普通預金", domain.Asset)
	revenue := suite.create("売上", domain.Revenue)

	accounts, err := suite.services.Registry.ListAccounts(suite.ctx, dto.ListAccountsParams{})
	suite.Require().NoError(err)
	suite.Require().Len(accounts, 4)

	// Fixed type order Asset < Revenue < Expense; creation order within type.
	suite.Equal(asset1.AccountID, accounts[0].AccountID)
	suite.Equal(asset2.AccountID, accounts[1].AccountID)
	suite.Equal(revenue.AccountID, accounts[2].AccountID)
	suite.Equal(expense.AccountID, accounts[3].AccountID)
}

func (suite *RegistryServiceTestSuite) TestListAccounts_TypeFilter() {
	suite.create("現金", domain.Asset)
	suite.create("売上", domain.Revenue)

	assetType := domain.Asset
	accounts, err := suite.services.Registry.ListAccounts(suite.ctx, dto.ListAccountsParams{AccountType: &assetType})
	suite.Require().NoError(err)
	suite.Require().Len(accounts, 1)
	suite.Equal(domain.Asset, accounts[0].AccountType)
}

func (suite *RegistryServiceTestSuite) TestGetAccountsByIDs_MissingAreAbsent() {
	cash := suite.create("現金", domain.Asset)

	found, err := suite.services.Registry.GetAccountsByIDs(suite.ctx, []string{cash.AccountID, "no-such-account"})
	suite.Require().NoError(err)
	suite.Len(found, 1)
	suite.Contains(found, cash.AccountID)
}

func (suite *RegistryServiceTestSuite) TestLoad_SurvivesRestart() {
	account := suite.create("現金", domain.Asset)

	reloaded, err := services.NewServiceContainer(suite.ctx, suite.store, suite.store, domain.DefaultCurrency)
	suite.Require().NoError(err)

	got, err := reloaded.Registry.GetAccountByID(suite.ctx, account.AccountID)
	suite.Require().NoError(err)
	suite.Equal(account.Name, got.Name)

	// Ordinal assignment resumes after the highest persisted value.
	next, err := reloaded.Registry.CreateAccount(suite.ctx, dto.CreateAccountRequest{
		Name:        "普通預金",
		AccountType: domain.Asset,
	})
	suite.Require().NoError(err)
	suite.Greater(next.Ordinal, account.Ordinal)
}

func TestRegistryService(t *testing.T) {
	suite.Run(t, new(RegistryServiceTestSuite))
}
