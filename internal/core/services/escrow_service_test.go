package services_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/quartzmarket/ledger/internal/apperrors"
	"github.com/quartzmarket/ledger/internal/core/domain"
	portsrepo "github.com/quartzmarket/ledger/internal/core/ports/repositories"
	portssvc "github.com/quartzmarket/ledger/internal/core/ports/services"
	"github.com/quartzmarket/ledger/internal/core/services"
	"github.com/quartzmarket/ledger/internal/dto"
	"github.com/quartzmarket/ledger/internal/platform/config"
)

type EscrowServiceTestSuite struct {
	suite.Suite
	mockEscrowRepo  *MockEscrowRepository
	mockDisputeRepo *MockDisputeRepository
	mockLedgerRepo  *MockLedgerRepository
	mockAccountRepo *MockAccountRepository
	mockUserRepo    *MockUserRepository
	mockNotifier    *MockNotifier
	cfg             *config.Config
	service         portssvc.EscrowSvcFacade
	buyerID         string
	sellerID        string
	holding         *domain.EscrowHolding
	buyerAcc        *domain.Account
	sellerAcc       *domain.Account
	escrowAcc       *domain.Account
	platformAcc     *domain.Account
}

func (suite *EscrowServiceTestSuite) SetupTest() {
	suite.mockEscrowRepo = new(MockEscrowRepository)
	suite.mockDisputeRepo = new(MockDisputeRepository)
	suite.mockLedgerRepo = new(MockLedgerRepository)
	suite.mockAccountRepo = new(MockAccountRepository)
	suite.mockUserRepo = new(MockUserRepository)
	suite.mockNotifier = new(MockNotifier)
	suite.cfg = testConfig()
	suite.service = services.NewEscrowService(suite.mockEscrowRepo, suite.mockDisputeRepo, suite.mockLedgerRepo, suite.mockAccountRepo, suite.mockUserRepo, suite.mockNotifier, suite.cfg)

	suite.buyerID = uuid.NewString()
	suite.sellerID = uuid.NewString()
	suite.holding = &domain.EscrowHolding{
		EscrowID:     uuid.NewString(),
		ContractID:   uuid.NewString(),
		ServiceID:    uuid.NewString(),
		BuyerUserID:  suite.buyerID,
		SellerUserID: suite.sellerID,
		Amount:       100,
		CurrencyCode: domain.DefaultCurrency,
		Status:       domain.EscrowCreated,
	}
	suite.buyerAcc = &domain.Account{AccountID: uuid.NewString(), OwnerType: domain.OwnerUser, OwnerID: suite.buyerID}
	suite.sellerAcc = &domain.Account{AccountID: uuid.NewString(), OwnerType: domain.OwnerUser, OwnerID: suite.sellerID}
	suite.escrowAcc = &domain.Account{AccountID: uuid.NewString(), OwnerType: domain.OwnerEscrow, OwnerID: suite.holding.EscrowID}
	suite.platformAcc = &domain.Account{AccountID: uuid.NewString(), OwnerType: domain.OwnerPlatform}
}

// expectTx wires Begin/Rollback on the escrow repo, which owns the database
// transaction for all lifecycle operations.
func (suite *EscrowServiceTestSuite) expectTx() {
	suite.mockEscrowRepo.On("Begin", mock.Anything).Return(nil, nil).Once()
	suite.mockEscrowRepo.On("Rollback", mock.Anything, mock.Anything).Return(nil)
}

func (suite *EscrowServiceTestSuite) expectAccounts(accounts ...*domain.Account) {
	for _, acc := range accounts {
		acc := acc
		suite.mockAccountRepo.On("GetOrCreateAccountInTx", mock.Anything, mock.Anything, mock.MatchedBy(func(a domain.Account) bool {
			return a.OwnerType == acc.OwnerType && a.OwnerID == acc.OwnerID
		})).Return(acc, nil).Once()
	}
}

func (suite *EscrowServiceTestSuite) TestCreateEscrow_Success() {
	suite.mockUserRepo.On("FindUserByID", mock.Anything, suite.buyerID).Return(&domain.UserRef{UserID: suite.buyerID, IsActive: true}, nil).Once()
	suite.mockUserRepo.On("FindUserByID", mock.Anything, suite.sellerID).Return(&domain.UserRef{UserID: suite.sellerID, IsActive: true}, nil).Once()
	suite.mockEscrowRepo.On("SaveEscrow", mock.Anything, mock.MatchedBy(func(h domain.EscrowHolding) bool {
		return h.Status == domain.EscrowCreated && h.Amount == 100
	})).Return(nil).Once()

	holding, err := suite.service.CreateEscrow(context.Background(), dto.CreateEscrowRequest{
		ContractID:   suite.holding.ContractID,
		ServiceID:    suite.holding.ServiceID,
		BuyerUserID:  suite.buyerID,
		SellerUserID: suite.sellerID,
		Amount:       decimal.RequireFromString("50"),
	}, suite.buyerID)

	suite.Require().NoError(err)
	suite.Equal(domain.EscrowCreated, holding.Status)
	suite.Equal(int64(100), holding.Amount)
}

func (suite *EscrowServiceTestSuite) TestCreateEscrow_SamePartyRejected() {
	_, err := suite.service.CreateEscrow(context.Background(), dto.CreateEscrowRequest{
		ContractID:   uuid.NewString(),
		ServiceID:    uuid.NewString(),
		BuyerUserID:  suite.buyerID,
		SellerUserID: suite.buyerID,
		Amount:       decimal.RequireFromString("50"),
	}, suite.buyerID)

	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *EscrowServiceTestSuite) TestFundEscrow_Success() {
	suite.expectTx()
	suite.mockEscrowRepo.On("FindEscrowByIDForUpdate", mock.Anything, mock.Anything, suite.holding.EscrowID).Return(suite.holding, nil).Once()
	suite.expectAccounts(suite.buyerAcc, suite.escrowAcc)

	var savedGuards portsrepo.SaveGuards
	suite.mockLedgerRepo.On("SaveTransactionInTx", mock.Anything, mock.Anything, mock.MatchedBy(func(t domain.LedgerTransaction) bool {
		return t.Type == domain.TxnEscrowFund
	}), mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { savedGuards = args.Get(5).(portsrepo.SaveGuards) }).
		Return(nil).Once()
	suite.mockEscrowRepo.On("UpdateEscrowStatusInTx", mock.Anything, mock.Anything, suite.holding.EscrowID, domain.EscrowCreated, domain.EscrowFunded, suite.buyerID, mock.Anything).Return(nil).Once()
	suite.mockEscrowRepo.On("Commit", mock.Anything, mock.Anything).Return(nil).Once()
	suite.mockNotifier.On("PublishBalanceEvent", mock.Anything, mock.Anything).Return(nil).Once()

	holding, err := suite.service.FundEscrow(context.Background(), suite.holding.EscrowID, suite.buyerID)

	suite.Require().NoError(err)
	suite.Equal(domain.EscrowFunded, holding.Status)
	suite.Equal([]string{suite.buyerAcc.AccountID}, savedGuards.NonNegativeAccounts)
	suite.mockEscrowRepo.AssertExpectations(suite.T())
}

func (suite *EscrowServiceTestSuite) TestFundEscrow_OnlyBuyer() {
	suite.expectTx()
	suite.mockEscrowRepo.On("FindEscrowByIDForUpdate", mock.Anything, mock.Anything, suite.holding.EscrowID).Return(suite.holding, nil).Once()

	_, err := suite.service.FundEscrow(context.Background(), suite.holding.EscrowID, suite.sellerID)

	suite.ErrorIs(err, apperrors.ErrForbidden)
	suite.mockEscrowRepo.AssertNotCalled(suite.T(), "Commit", mock.Anything, mock.Anything)
}

func (suite *EscrowServiceTestSuite) TestFundEscrow_WrongState() {
	suite.holding.Status = domain.EscrowFunded
	suite.expectTx()
	suite.mockEscrowRepo.On("FindEscrowByIDForUpdate", mock.Anything, mock.Anything, suite.holding.EscrowID).Return(suite.holding, nil).Once()

	_, err := suite.service.FundEscrow(context.Background(), suite.holding.EscrowID, suite.buyerID)

	suite.ErrorIs(err, apperrors.ErrInvalidState)
}

func (suite *EscrowServiceTestSuite) TestReleaseEscrow_FullAmountWithoutFee() {
	suite.holding.Status = domain.EscrowFunded
	suite.expectTx()
	suite.mockEscrowRepo.On("FindEscrowByIDForUpdate", mock.Anything, mock.Anything, suite.holding.EscrowID).Return(suite.holding, nil).Once()
	suite.expectAccounts(suite.escrowAcc, suite.sellerAcc)

	var savedEntries []domain.LedgerEntry
	var savedGuards portsrepo.SaveGuards
	suite.mockLedgerRepo.On("SaveTransactionInTx", mock.Anything, mock.Anything, mock.MatchedBy(func(t domain.LedgerTransaction) bool {
		return t.Type == domain.TxnEscrowRelease
	}), mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			savedEntries = args.Get(3).([]domain.LedgerEntry)
			savedGuards = args.Get(5).(portsrepo.SaveGuards)
		}).Return(nil).Once()
	suite.mockEscrowRepo.On("UpdateEscrowStatusInTx", mock.Anything, mock.Anything, suite.holding.EscrowID, domain.EscrowFunded, domain.EscrowReleased, suite.buyerID, mock.Anything).Return(nil).Once()
	suite.mockEscrowRepo.On("Commit", mock.Anything, mock.Anything).Return(nil).Once()
	suite.mockNotifier.On("PublishBalanceEvent", mock.Anything, mock.MatchedBy(func(ev domain.BalanceEvent) bool {
		return ev.UserID == suite.sellerID && ev.ContractOutcome != nil && *ev.ContractOutcome == domain.ContractCompleted
	})).Return(nil).Once()

	holding, err := suite.service.ReleaseEscrow(context.Background(), suite.holding.EscrowID, suite.buyerID)

	suite.Require().NoError(err)
	suite.Equal(domain.EscrowReleased, holding.Status)
	suite.Require().Len(savedEntries, 2)
	suite.Equal(int64(100), savedEntries[0].Amount)
	suite.Equal(int64(100), savedEntries[1].Amount)
	suite.Equal([]string{suite.escrowAcc.AccountID}, savedGuards.ZeroAfterAccounts)
	suite.mockNotifier.AssertExpectations(suite.T())
}

func (suite *EscrowServiceTestSuite) TestReleaseEscrow_FeeSplitsPayout() {
	suite.cfg.EscrowFeeBasisPoints = 500 // 5%
	suite.holding.Status = domain.EscrowFunded
	suite.expectTx()
	suite.mockEscrowRepo.On("FindEscrowByIDForUpdate", mock.Anything, mock.Anything, suite.holding.EscrowID).Return(suite.holding, nil).Once()
	suite.expectAccounts(suite.escrowAcc, suite.sellerAcc, suite.platformAcc)

	var savedEntries []domain.LedgerEntry
	suite.mockLedgerRepo.On("SaveTransactionInTx", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { savedEntries = args.Get(3).([]domain.LedgerEntry) }).
		Return(nil).Once()
	suite.mockEscrowRepo.On("UpdateEscrowStatusInTx", mock.Anything, mock.Anything, suite.holding.EscrowID, domain.EscrowFunded, domain.EscrowReleased, suite.buyerID, mock.Anything).Return(nil).Once()
	suite.mockEscrowRepo.On("Commit", mock.Anything, mock.Anything).Return(nil).Once()
	suite.mockNotifier.On("PublishBalanceEvent", mock.Anything, mock.Anything).Return(nil).Once()

	_, err := suite.service.ReleaseEscrow(context.Background(), suite.holding.EscrowID, suite.buyerID)

	suite.Require().NoError(err)
	suite.Require().Len(savedEntries, 3)
	suite.Equal(int64(100), savedEntries[0].Amount) // escrow debit
	suite.Equal(int64(95), savedEntries[1].Amount)  // seller net
	suite.Equal(int64(5), savedEntries[2].Amount)   // platform fee
	suite.Equal(suite.platformAcc.AccountID, savedEntries[2].AccountID)
}

func (suite *EscrowServiceTestSuite) TestReleaseEscrow_DisputedBlocksDirectRelease() {
	suite.holding.Status = domain.EscrowDisputed
	suite.expectTx()
	suite.mockEscrowRepo.On("FindEscrowByIDForUpdate", mock.Anything, mock.Anything, suite.holding.EscrowID).Return(suite.holding, nil).Once()

	_, err := suite.service.ReleaseEscrow(context.Background(), suite.holding.EscrowID, suite.buyerID)

	suite.ErrorIs(err, apperrors.ErrInvalidState)
}

func (suite *EscrowServiceTestSuite) TestRefundEscrow_Success() {
	suite.holding.Status = domain.EscrowFunded
	suite.expectTx()
	suite.mockEscrowRepo.On("FindEscrowByIDForUpdate", mock.Anything, mock.Anything, suite.holding.EscrowID).Return(suite.holding, nil).Once()
	suite.expectAccounts(suite.escrowAcc, suite.buyerAcc)

	suite.mockLedgerRepo.On("SaveTransactionInTx", mock.Anything, mock.Anything, mock.MatchedBy(func(t domain.LedgerTransaction) bool {
		return t.Type == domain.TxnEscrowRefund
	}), mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()
	suite.mockEscrowRepo.On("UpdateEscrowStatusInTx", mock.Anything, mock.Anything, suite.holding.EscrowID, domain.EscrowFunded, domain.EscrowRefunded, suite.sellerID, mock.Anything).Return(nil).Once()
	suite.mockEscrowRepo.On("Commit", mock.Anything, mock.Anything).Return(nil).Once()
	suite.mockNotifier.On("PublishBalanceEvent", mock.Anything, mock.MatchedBy(func(ev domain.BalanceEvent) bool {
		return ev.UserID == suite.buyerID && ev.ContractOutcome != nil && *ev.ContractOutcome == domain.ContractCancelled
	})).Return(nil).Once()

	holding, err := suite.service.RefundEscrow(context.Background(), suite.holding.EscrowID, suite.sellerID)

	suite.Require().NoError(err)
	suite.Equal(domain.EscrowRefunded, holding.Status)
}

func (suite *EscrowServiceTestSuite) TestRefundEscrow_OnlySeller() {
	suite.holding.Status = domain.EscrowFunded
	suite.expectTx()
	suite.mockEscrowRepo.On("FindEscrowByIDForUpdate", mock.Anything, mock.Anything, suite.holding.EscrowID).Return(suite.holding, nil).Once()

	_, err := suite.service.RefundEscrow(context.Background(), suite.holding.EscrowID, suite.buyerID)

	suite.ErrorIs(err, apperrors.ErrForbidden)
}

func (suite *EscrowServiceTestSuite) TestCancelEscrow_Success() {
	suite.expectTx()
	suite.mockEscrowRepo.On("FindEscrowByIDForUpdate", mock.Anything, mock.Anything, suite.holding.EscrowID).Return(suite.holding, nil).Once()
	suite.mockEscrowRepo.On("UpdateEscrowStatusInTx", mock.Anything, mock.Anything, suite.holding.EscrowID, domain.EscrowCreated, domain.EscrowCancelled, suite.buyerID, mock.Anything).Return(nil).Once()
	suite.mockEscrowRepo.On("Commit", mock.Anything, mock.Anything).Return(nil).Once()

	holding, err := suite.service.CancelEscrow(context.Background(), suite.holding.EscrowID, suite.buyerID)

	suite.Require().NoError(err)
	suite.Equal(domain.EscrowCancelled, holding.Status)
	// No money moved, so nothing touches the ledger.
	suite.mockLedgerRepo.AssertNotCalled(suite.T(), "SaveTransactionInTx", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *EscrowServiceTestSuite) TestCancelEscrow_FundedRejected() {
	suite.holding.Status = domain.EscrowFunded
	suite.expectTx()
	suite.mockEscrowRepo.On("FindEscrowByIDForUpdate", mock.Anything, mock.Anything, suite.holding.EscrowID).Return(suite.holding, nil).Once()

	_, err := suite.service.CancelEscrow(context.Background(), suite.holding.EscrowID, suite.buyerID)

	suite.ErrorIs(err, apperrors.ErrInvalidState)
}

func (suite *EscrowServiceTestSuite) TestOpenDispute_Success() {
	suite.holding.Status = domain.EscrowFunded
	suite.expectTx()
	suite.mockEscrowRepo.On("FindEscrowByIDForUpdate", mock.Anything, mock.Anything, suite.holding.EscrowID).Return(suite.holding, nil).Once()
	suite.mockDisputeRepo.On("SaveDisputeInTx", mock.Anything, mock.Anything, mock.MatchedBy(func(d domain.Dispute) bool {
		return d.Status == domain.DisputeOpen && d.EscrowID == suite.holding.EscrowID && d.OpenedByUserID == suite.sellerID
	})).Return(nil).Once()
	suite.mockEscrowRepo.On("UpdateEscrowStatusInTx", mock.Anything, mock.Anything, suite.holding.EscrowID, domain.EscrowFunded, domain.EscrowDisputed, suite.sellerID, mock.Anything).Return(nil).Once()
	suite.mockEscrowRepo.On("Commit", mock.Anything, mock.Anything).Return(nil).Once()

	dispute, err := suite.service.OpenDispute(context.Background(), dto.OpenDisputeRequest{EscrowID: suite.holding.EscrowID, Reason: "Work not delivered"}, suite.sellerID)

	suite.Require().NoError(err)
	suite.Equal(domain.DisputeOpen, dispute.Status)
}

func (suite *EscrowServiceTestSuite) TestOpenDispute_OnlyParties() {
	suite.holding.Status = domain.EscrowFunded
	suite.expectTx()
	suite.mockEscrowRepo.On("FindEscrowByIDForUpdate", mock.Anything, mock.Anything, suite.holding.EscrowID).Return(suite.holding, nil).Once()

	_, err := suite.service.OpenDispute(context.Background(), dto.OpenDisputeRequest{EscrowID: suite.holding.EscrowID, Reason: "Nope"}, uuid.NewString())

	suite.ErrorIs(err, apperrors.ErrForbidden)
}

func (suite *EscrowServiceTestSuite) TestOpenDispute_UnfundedRejected() {
	suite.expectTx()
	suite.mockEscrowRepo.On("FindEscrowByIDForUpdate", mock.Anything, mock.Anything, suite.holding.EscrowID).Return(suite.holding, nil).Once()

	_, err := suite.service.OpenDispute(context.Background(), dto.OpenDisputeRequest{EscrowID: suite.holding.EscrowID, Reason: "Too early"}, suite.buyerID)

	suite.ErrorIs(err, apperrors.ErrInvalidState)
}

func TestEscrowService(t *testing.T) {
	suite.Run(t, new(EscrowServiceTestSuite))
}
