package services_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/quartzmarket/ledger/internal/apperrors"
	"github.com/quartzmarket/ledger/internal/core/domain"
	portsrepo "github.com/quartzmarket/ledger/internal/core/ports/repositories"
	portssvc "github.com/quartzmarket/ledger/internal/core/ports/services"
	"github.com/quartzmarket/ledger/internal/core/services"
	"github.com/quartzmarket/ledger/internal/dto"
)

type LedgerServiceTestSuite struct {
	suite.Suite
	mockLedgerRepo  *MockLedgerRepository
	mockAccountRepo *MockAccountRepository
	service         portssvc.LedgerSvcFacade
	userID          string
	accountA        string
	accountB        string
}

func (suite *LedgerServiceTestSuite) SetupTest() {
	suite.mockLedgerRepo = new(MockLedgerRepository)
	suite.mockAccountRepo = new(MockAccountRepository)
	suite.service = services.NewLedgerService(suite.mockLedgerRepo, suite.mockAccountRepo)
	suite.userID = uuid.NewString()
	suite.accountA = uuid.NewString()
	suite.accountB = uuid.NewString()
}

func (suite *LedgerServiceTestSuite) validRequest() dto.RecordTransactionRequest {
	return dto.RecordTransactionRequest{
		Type:         domain.TxnPayment,
		Description:  "Service payment",
		CurrencyCode: domain.DefaultCurrency,
		Entries: []dto.EntryInput{
			{AccountID: suite.accountA, Direction: domain.Debit, Amount: 10},
			{AccountID: suite.accountB, Direction: domain.Credit, Amount: 10},
		},
	}
}

func (suite *LedgerServiceTestSuite) TestRecordTransaction_Success() {
	req := suite.validRequest()

	suite.mockLedgerRepo.On("SaveTransaction", mock.Anything, mock.AnythingOfType("domain.LedgerTransaction"), mock.AnythingOfType("[]domain.LedgerEntry"), mock.Anything, portsrepo.SaveGuards{}).Return(nil).Once()

	txn, err := suite.service.RecordTransaction(context.Background(), req, suite.userID)

	suite.Require().NoError(err)
	suite.Equal(domain.TxnCompleted, txn.Status)
	suite.Equal(domain.TxnPayment, txn.Type)
	suite.Len(txn.Entries, 2)
	suite.Equal(txn.TransactionID, txn.Entries[0].TransactionID)
	suite.mockLedgerRepo.AssertExpectations(suite.T())
}

func (suite *LedgerServiceTestSuite) TestRecordTransaction_Unbalanced() {
	req := suite.validRequest()
	req.Entries[1].Amount = 9

	_, err := suite.service.RecordTransaction(context.Background(), req, suite.userID)

	suite.ErrorIs(err, services.ErrEntriesUnbalanced)
	suite.mockLedgerRepo.AssertNotCalled(suite.T(), "SaveTransaction", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *LedgerServiceTestSuite) TestRecordTransaction_TooFewEntries() {
	req := suite.validRequest()
	req.Entries = req.Entries[:1]

	_, err := suite.service.RecordTransaction(context.Background(), req, suite.userID)

	suite.ErrorIs(err, services.ErrEntriesMinCount)
}

func (suite *LedgerServiceTestSuite) TestRecordTransaction_SingleAccount() {
	req := suite.validRequest()
	req.Entries[1].AccountID = suite.accountA

	_, err := suite.service.RecordTransaction(context.Background(), req, suite.userID)

	suite.ErrorIs(err, services.ErrEntriesMinAccounts)
}

func (suite *LedgerServiceTestSuite) TestRecordTransaction_NonPositiveAmount() {
	req := suite.validRequest()
	req.Entries[0].Amount = 0

	_, err := suite.service.RecordTransaction(context.Background(), req, suite.userID)

	suite.ErrorIs(err, services.ErrAmountNotPositive)
}

func (suite *LedgerServiceTestSuite) TestRecordTransaction_MissingDescription() {
	req := suite.validRequest()
	req.Description = ""

	_, err := suite.service.RecordTransaction(context.Background(), req, suite.userID)

	suite.ErrorIs(err, services.ErrDescriptionMissing)
}

func (suite *LedgerServiceTestSuite) TestGetBalance_NoAccountReadsZero() {
	suite.mockAccountRepo.On("FindAccountByOwner", mock.Anything, domain.OwnerUser, suite.userID, domain.DefaultCurrency).Return(nil, apperrors.ErrNotFound).Once()

	balance, err := suite.service.GetBalance(context.Background(), suite.userID, domain.DefaultCurrency)

	suite.Require().NoError(err)
	suite.Equal(int64(0), balance)
	suite.mockLedgerRepo.AssertNotCalled(suite.T(), "SumEntriesByAccount", mock.Anything, mock.Anything)
}

func (suite *LedgerServiceTestSuite) TestGetBalance_DerivedFromLedger() {
	acc := &domain.Account{AccountID: suite.accountA, OwnerType: domain.OwnerUser, OwnerID: suite.userID, CurrencyCode: domain.DefaultCurrency, Balance: 99}
	suite.mockAccountRepo.On("FindAccountByOwner", mock.Anything, domain.OwnerUser, suite.userID, domain.DefaultCurrency).Return(acc, nil).Once()
	suite.mockLedgerRepo.On("SumEntriesByAccount", mock.Anything, suite.accountA).Return(int64(42), nil).Once()

	balance, err := suite.service.GetBalance(context.Background(), suite.userID, domain.DefaultCurrency)

	suite.Require().NoError(err)
	// The derived sum wins over the cached column.
	suite.Equal(int64(42), balance)
}

func (suite *LedgerServiceTestSuite) TestListTransactionHistory_NormalizesPaging() {
	suite.mockLedgerRepo.On("ListHistoryByUser", mock.Anything, suite.userID, 20, 0).Return([]domain.HistoryRecord{}, nil).Once()

	page, err := suite.service.ListTransactionHistory(context.Background(), suite.userID, -5, -1)

	suite.Require().NoError(err)
	suite.Equal(20, page.Limit)
	suite.Equal(0, page.Offset)
	suite.mockLedgerRepo.AssertExpectations(suite.T())
}

func (suite *LedgerServiceTestSuite) TestListTransactionHistory_CapsLimit() {
	suite.mockLedgerRepo.On("ListHistoryByUser", mock.Anything, suite.userID, 100, 40).Return([]domain.HistoryRecord{}, nil).Once()

	page, err := suite.service.ListTransactionHistory(context.Background(), suite.userID, 5000, 40)

	suite.Require().NoError(err)
	suite.Equal(100, page.Limit)
}

func (suite *LedgerServiceTestSuite) TestReconcileAccount_ReportsDrift() {
	acc := &domain.Account{AccountID: suite.accountA, Balance: 50}
	suite.mockAccountRepo.On("FindAccountByID", mock.Anything, suite.accountA).Return(acc, nil).Once()
	suite.mockLedgerRepo.On("SumEntriesByAccount", mock.Anything, suite.accountA).Return(int64(48), nil).Once()

	report, err := suite.service.ReconcileAccount(context.Background(), suite.accountA)

	suite.Require().NoError(err)
	suite.False(report.Consistent)
	suite.Equal(int64(2), report.DriftHalves)
}

func (suite *LedgerServiceTestSuite) TestReconcileAccount_Consistent() {
	acc := &domain.Account{AccountID: suite.accountA, Balance: 48}
	suite.mockAccountRepo.On("FindAccountByID", mock.Anything, suite.accountA).Return(acc, nil).Once()
	suite.mockLedgerRepo.On("SumEntriesByAccount", mock.Anything, suite.accountA).Return(int64(48), nil).Once()

	report, err := suite.service.ReconcileAccount(context.Background(), suite.accountA)

	suite.Require().NoError(err)
	suite.True(report.Consistent)
	suite.Equal(int64(0), report.DriftHalves)
}

func TestLedgerService(t *testing.T) {
	suite.Run(t, new(LedgerServiceTestSuite))
}
