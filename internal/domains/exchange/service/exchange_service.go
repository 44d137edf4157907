package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"

	bookmodel "bookexchange-backend/internal/domains/book/model"
	bookrepo "bookexchange-backend/internal/domains/book/repository"
	"bookexchange-backend/internal/domains/exchange/model"
	"bookexchange-backend/internal/domains/exchange/repository"
	txnmodel "bookexchange-backend/internal/domains/transaction/model"
	txnrepo "bookexchange-backend/internal/domains/transaction/repository"
	"bookexchange-backend/internal/shared"
	"bookexchange-backend/pkg/keylock"
	"bookexchange-backend/pkg/logger"
)

type exchangeService struct {
	exchangeRepo repository.ExchangeRepository
	bookRepo     bookrepo.BookRepository
	txnRepo      txnrepo.TransactionRepository
	locks        *keylock.KeyLock
	lockWait     time.Duration
	asynq        *asynq.Client // nil khi chạy không có Redis (seeder, tests)
}

func NewExchangeService(
	exchangeRepo repository.ExchangeRepository,
	bookRepo bookrepo.BookRepository,
	txnRepo txnrepo.TransactionRepository,
	locks *keylock.KeyLock,
	lockWait time.Duration,
	asynqClient *asynq.Client,
) ExchangeService {
	return &exchangeService{
		exchangeRepo: exchangeRepo,
		bookRepo:     bookRepo,
		txnRepo:      txnRepo,
		locks:        locks,
		lockWait:     lockWait,
		asynq:        asynqClient,
	}
}

// lockBook serialize mọi thao tác mutate trên cùng một book.
// Timeout map sang Conflict để client retry.
func (s *exchangeService) lockBook(ctx context.Context, bookID uuid.UUID) (func(), error) {
	release, err := s.locks.Acquire(ctx, bookID.String(), s.lockWait)
	if err != nil {
		if errors.Is(err, keylock.ErrTimeout) {
			return nil, model.NewExchangeError(model.ErrCodeConflict, "Book is being settled by another operation", model.ErrConflict)
		}
		return nil, err
	}
	return release, nil
}

// =====================================================
// OFFER CREATION
// =====================================================
func (s *exchangeService) CreateOffer(ctx context.Context, borrowerID uuid.UUID, req model.CreateOfferRequest) (*model.OfferResponse, error) {
	// 1. Validate request shape
	if err := req.Validate(); err != nil {
		return nil, model.NewExchangeError(model.ErrCodeInvalidOffer, "Invalid offer request", err)
	}

	targetBookID, err := uuid.Parse(req.TargetBookID)
	if err != nil {
		return nil, model.NewExchangeError(model.ErrCodeInvalidOffer, "Invalid target book ID", model.ErrInvalidOffer)
	}
	itemType := model.ItemType(req.ItemType)

	// 2. Serialize với settlement trên cùng book
	release, err := s.lockBook(ctx, targetBookID)
	if err != nil {
		return nil, err
	}
	defer release()

	// 3. Target book phải tồn tại, available, và không phải của chính borrower
	targetBook, err := s.bookRepo.GetByID(ctx, targetBookID)
	if err != nil {
		return nil, err
	}
	if targetBook.OwnerID == borrowerID {
		return nil, model.NewExchangeError(model.ErrCodeInvalidOffer, "Cannot make an offer on your own book", model.ErrInvalidOffer)
	}
	if targetBook.Status != bookmodel.BookStatusAvailable {
		return nil, model.NewExchangeError(
			model.ErrCodeInvalidOffer,
			fmt.Sprintf("Book with status '%s' cannot receive offers", targetBook.Status),
			model.ErrInvalidOffer,
		)
	}

	offer := &model.ExchangeOffer{
		ID:           uuid.New(),
		OwnerID:      targetBook.OwnerID,
		BorrowerID:   borrowerID,
		TargetBookID: targetBookID,
		ItemType:     itemType,
		Status:       model.OfferStatusPending,
		Version:      0,
	}

	var moneyItem *model.MoneyItem

	switch itemType {
	case model.ItemTypeBook:
		// 4a. Book offered in exchange: phải của borrower và available
		bookItemID, err := uuid.Parse(*req.BookItemID)
		if err != nil {
			return nil, model.NewExchangeError(model.ErrCodeInvalidOffer, "Invalid book item ID", model.ErrInvalidOffer)
		}
		if bookItemID == targetBookID {
			return nil, model.NewExchangeError(model.ErrCodeInvalidOffer, "Cannot offer a book for itself", model.ErrInvalidOffer)
		}

		bookItem, err := s.bookRepo.GetByID(ctx, bookItemID)
		if err != nil {
			return nil, err
		}
		if bookItem.OwnerID != borrowerID {
			return nil, model.NewExchangeError(model.ErrCodeInvalidOffer, "Offered book does not belong to you", model.ErrInvalidOffer)
		}
		if bookItem.Status != bookmodel.BookStatusAvailable {
			return nil, model.NewExchangeError(model.ErrCodeInvalidOffer, "Offered book is not available", model.ErrInvalidOffer)
		}

		offer.BookItemID = &bookItemID

	case model.ItemTypeMoney:
		// 4b. Money offer: amount đã validate không âm
		amount, err := decimal.NewFromString(*req.Amount)
		if err != nil {
			return nil, model.NewExchangeError(model.ErrCodeInvalidOffer, "Invalid amount", model.ErrInvalidOffer)
		}

		unit := model.DefaultMoneyUnit
		if req.Unit != nil && *req.Unit != "" {
			unit = *req.Unit
		}

		moneyItem = &model.MoneyItem{
			ID:     uuid.New(),
			Amount: amount,
			Unit:   unit,
		}
		offer.MoneyItemID = &moneyItem.ID
	}

	// 5. Tạo offer và chuyển book sang pending trong một transaction
	tx, err := s.exchangeRepo.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer s.exchangeRepo.RollbackTx(ctx, tx)

	if moneyItem != nil {
		if err := s.exchangeRepo.CreateMoneyItemWithTx(ctx, tx, moneyItem); err != nil {
			return nil, err
		}
	}
	if err := s.exchangeRepo.CreateOfferWithTx(ctx, tx, offer); err != nil {
		return nil, err
	}
	if err := s.bookRepo.UpdateStatusWithTx(ctx, tx, targetBookID, bookmodel.BookStatusPending, targetBook.Version); err != nil {
		if errors.Is(err, bookmodel.ErrVersionMismatch) {
			return nil, model.NewExchangeError(model.ErrCodeConflict, "Book was modified concurrently", model.ErrConflict)
		}
		return nil, err
	}

	if err := s.exchangeRepo.CommitTx(ctx, tx); err != nil {
		return nil, fmt.Errorf("failed to commit offer creation: %w", err)
	}

	logger.Info("Offer created", map[string]interface{}{
		"offer_id":  offer.ID.String(),
		"book_id":   targetBookID.String(),
		"item_type": itemType.String(),
	})

	resp := model.ToOfferResponse(offer)
	resp.TargetBook = summaryOf(targetBook)
	if moneyItem != nil {
		resp.MoneyItem = model.ToMoneyItemResponse(moneyItem)
	}
	return &resp, nil
}

// =====================================================
// OFFER QUERIES
// =====================================================
func (s *exchangeService) GetOffer(ctx context.Context, userID, offerID uuid.UUID) (*model.OfferResponse, error) {
	offer, err := s.exchangeRepo.GetOfferByID(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if offer.OwnerID != userID && offer.BorrowerID != userID {
		return nil, model.NewExchangeError(model.ErrCodeNotParticipant, "Offer does not involve this user", model.ErrNotParticipant)
	}

	resp, err := s.buildOfferResponse(ctx, offer)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *exchangeService) ListOffersForBook(ctx context.Context, userID, bookID uuid.UUID) ([]model.OfferResponse, error) {
	book, err := s.bookRepo.GetByID(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if book.OwnerID != userID {
		return nil, model.NewExchangeError(model.ErrCodeNotParticipant, "Only the book owner can list its offers", model.ErrNotParticipant)
	}

	offers, err := s.exchangeRepo.ListOffersByBook(ctx, bookID)
	if err != nil {
		return nil, err
	}

	return s.buildOfferResponses(ctx, offers)
}

func (s *exchangeService) ListMyOffers(ctx context.Context, userID uuid.UUID, status string) ([]model.OfferResponse, error) {
	offerStatus := model.OfferStatus(status)
	if status != "" && !offerStatus.IsValid() {
		return nil, model.NewExchangeError(model.ErrCodeInvalidOffer, fmt.Sprintf("Invalid offer status '%s'", status), model.ErrInvalidOffer)
	}

	offers, err := s.exchangeRepo.ListOffersByUser(ctx, userID, offerStatus)
	if err != nil {
		return nil, err
	}

	return s.buildOfferResponses(ctx, offers)
}

func (s *exchangeService) ListOffersByStatus(ctx context.Context, status string, page, size int) ([]model.OfferResponse, int, error) {
	offerStatus := model.OfferStatus(status)
	if status != "" && !offerStatus.IsValid() {
		return nil, 0, model.NewExchangeError(model.ErrCodeInvalidOffer, fmt.Sprintf("Invalid offer status '%s'", status), model.ErrInvalidOffer)
	}

	offers, total, err := s.exchangeRepo.ListOffersByStatus(ctx, offerStatus, page, size)
	if err != nil {
		return nil, 0, err
	}

	responses, err := s.buildOfferResponses(ctx, offers)
	if err != nil {
		return nil, 0, err
	}
	return responses, total, nil
}

// =====================================================
// SETTLEMENT
// =====================================================
func (s *exchangeService) AcceptOffer(ctx context.Context, ownerID, targetBookID, offerID uuid.UUID) (*model.SettlementResponse, error) {
	// 1. Serialize mọi settlement trên cùng book: hai accept đồng thời
	// thì một cái thắng, cái kia thấy offer đã đổi trạng thái
	release, err := s.lockBook(ctx, targetBookID)
	if err != nil {
		return nil, err
	}
	defer release()

	// 2. Load và validate offer
	offer, err := s.exchangeRepo.GetOfferByID(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if offer.TargetBookID != targetBookID {
		return nil, model.NewExchangeError(model.ErrCodeConflict, "Offer does not target this book", model.ErrConflict)
	}
	if offer.OwnerID != ownerID {
		return nil, model.NewExchangeError(model.ErrCodeNotParticipant, "Only the book owner can accept this offer", model.ErrNotParticipant)
	}
	if !offer.Status.Active() {
		return nil, model.NewExchangeError(
			model.ErrCodeIllegalState,
			fmt.Sprintf("Offer is already %s", offer.Status),
			model.ErrIllegalState,
		)
	}

	// 3. Target book phải đang pending (bị giữ bởi offer này)
	targetBook, err := s.bookRepo.GetByID(ctx, targetBookID)
	if err != nil {
		return nil, err
	}
	if targetBook.Status != bookmodel.BookStatusPending {
		return nil, model.NewExchangeError(
			model.ErrCodeConflict,
			fmt.Sprintf("Book with status '%s' cannot be settled", targetBook.Status),
			model.ErrConflict,
		)
	}

	// 4. Với book offer, sách đối ứng vẫn phải của borrower và available
	var bookItem *bookmodel.Book
	if offer.ItemType == model.ItemTypeBook {
		bookItem, err = s.bookRepo.GetByID(ctx, *offer.BookItemID)
		if err != nil {
			return nil, err
		}
		if bookItem.OwnerID != offer.BorrowerID || bookItem.Status != bookmodel.BookStatusAvailable {
			return nil, model.NewExchangeError(model.ErrCodeConflict, "Offered book is no longer available for exchange", model.ErrConflict)
		}
	}

	// 5. Denormalize money amount cho transaction record
	var moneyItem *model.MoneyItem
	if offer.ItemType == model.ItemTypeMoney {
		moneyItem, err = s.exchangeRepo.GetMoneyItemByID(ctx, *offer.MoneyItemID)
		if err != nil {
			return nil, err
		}
	}

	// 6. Settle atomically
	txn := &txnmodel.Transaction{
		ID:           uuid.New(),
		OfferID:      offer.ID,
		OwnerID:      offer.OwnerID,
		BorrowerID:   offer.BorrowerID,
		TargetBookID: targetBookID,
		ItemType:     offer.ItemType.String(),
	}
	if bookItem != nil {
		txn.ExchangedBookID = &bookItem.ID
	}
	if moneyItem != nil {
		amount := moneyItem.Amount
		unit := moneyItem.Unit
		txn.Amount = &amount
		txn.Unit = &unit
	}

	if err := s.settle(ctx, offer, targetBook, bookItem, txn); err != nil {
		return nil, err
	}

	logger.Info("Offer settled", map[string]interface{}{
		"transaction_id": txn.ID.String(),
		"offer_id":       offer.ID.String(),
		"book_id":        targetBookID.String(),
		"new_owner_id":   offer.BorrowerID.String(),
	})

	// 7. Post-commit notification, best effort
	s.enqueueSettledNotify(txn, offer)

	return &model.SettlementResponse{
		TransactionID: txn.ID,
		OfferID:       offer.ID,
		TargetBookID:  targetBookID,
		NewOwnerID:    offer.BorrowerID,
		ItemType:      offer.ItemType.String(),
		SettledAt:     txn.CreatedAt,
	}, nil
}

// settle chạy toàn bộ ownership transfer + ledger append trong một DB transaction
func (s *exchangeService) settle(
	ctx context.Context,
	offer *model.ExchangeOffer,
	targetBook *bookmodel.Book,
	bookItem *bookmodel.Book,
	txn *txnmodel.Transaction,
) error {
	tx, err := s.exchangeRepo.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer s.exchangeRepo.RollbackTx(ctx, tx)

	// Target book sang borrower
	if err := s.bookRepo.TransferWithTx(ctx, tx, targetBook.ID, offer.BorrowerID, bookmodel.BookStatusExchanged, targetBook.Version); err != nil {
		return mapVersionConflict(err)
	}

	// Book-for-book: sách đối ứng sang owner
	if bookItem != nil {
		if err := s.bookRepo.TransferWithTx(ctx, tx, bookItem.ID, offer.OwnerID, bookmodel.BookStatusExchanged, bookItem.Version); err != nil {
			return mapVersionConflict(err)
		}
	}

	if err := s.exchangeRepo.UpdateOfferStatusWithTx(ctx, tx, offer.ID, model.OfferStatusAccepted, offer.Version); err != nil {
		return mapVersionConflict(err)
	}

	// Phòng hờ: mọi offer pending khác trên book này chết theo
	if _, err := s.exchangeRepo.RejectOtherActiveOffersWithTx(ctx, tx, targetBook.ID, offer.ID); err != nil {
		return err
	}

	if err := s.txnRepo.CreateWithTx(ctx, tx, txn); err != nil {
		return err
	}

	if err := s.exchangeRepo.CommitTx(ctx, tx); err != nil {
		return fmt.Errorf("failed to commit settlement: %w", err)
	}

	offer.Status = model.OfferStatusAccepted
	return nil
}

func mapVersionConflict(err error) error {
	if errors.Is(err, bookmodel.ErrVersionMismatch) || errors.Is(err, model.ErrVersionMismatch) {
		return model.NewExchangeError(model.ErrCodeConflict, "Concurrent settlement detected, no changes applied", model.ErrConflict)
	}
	return err
}

// =====================================================
// REJECTION / EXPIRY
// =====================================================
func (s *exchangeService) RejectOffer(ctx context.Context, userID, offerID uuid.UUID) error {
	// Load trước để biết book cần lock. Owner reject, hoặc borrower
	// tự rút lại offer của mình - cả hai đi chung một đường.
	offer, err := s.exchangeRepo.GetOfferByID(ctx, offerID)
	if err != nil {
		return err
	}
	if offer.OwnerID != userID && offer.BorrowerID != userID {
		return model.NewExchangeError(model.ErrCodeNotParticipant, "Offer does not involve this user", model.ErrNotParticipant)
	}

	release, err := s.lockBook(ctx, offer.TargetBookID)
	if err != nil {
		return err
	}
	defer release()

	// Re-load dưới lock: trạng thái có thể đã đổi trong lúc chờ
	offer, err = s.exchangeRepo.GetOfferByID(ctx, offerID)
	if err != nil {
		return err
	}

	return s.rejectLocked(ctx, offer)
}

// rejectLocked giả định caller đã giữ lock trên target book
func (s *exchangeService) rejectLocked(ctx context.Context, offer *model.ExchangeOffer) error {
	if !offer.Status.Active() {
		return model.NewExchangeError(
			model.ErrCodeIllegalState,
			fmt.Sprintf("Offer is already %s", offer.Status),
			model.ErrIllegalState,
		)
	}

	tx, err := s.exchangeRepo.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer s.exchangeRepo.RollbackTx(ctx, tx)

	if err := s.exchangeRepo.UpdateOfferStatusWithTx(ctx, tx, offer.ID, model.OfferStatusRejected, offer.Version); err != nil {
		return mapVersionConflict(err)
	}

	// Book quay về available nếu không còn offer pending nào khác giữ nó
	remaining, err := s.exchangeRepo.ListActiveOffersByBook(ctx, offer.TargetBookID)
	if err != nil {
		return err
	}
	holders := 0
	for i := range remaining {
		if remaining[i].ID != offer.ID {
			holders++
		}
	}

	if holders == 0 {
		book, err := s.bookRepo.GetByID(ctx, offer.TargetBookID)
		if err != nil {
			return err
		}
		if book.Status == bookmodel.BookStatusPending {
			if err := s.bookRepo.UpdateStatusWithTx(ctx, tx, book.ID, bookmodel.BookStatusAvailable, book.Version); err != nil {
				return mapVersionConflict(err)
			}
		}
	}

	if err := s.exchangeRepo.CommitTx(ctx, tx); err != nil {
		return fmt.Errorf("failed to commit rejection: %w", err)
	}

	offer.Status = model.OfferStatusRejected
	return nil
}

func (s *exchangeService) ExpireStaleOffers(ctx context.Context, olderThan time.Duration, limit int) (int, error) {
	cutoff := time.Now().Add(-olderThan)

	stale, err := s.exchangeRepo.ListExpiredPending(ctx, cutoff, limit)
	if err != nil {
		return 0, err
	}

	expired := 0
	for i := range stale {
		if s.expireOne(ctx, &stale[i]) {
			expired++
		}
	}

	if expired > 0 {
		logger.Info("Expired stale offers", map[string]interface{}{"count": expired})
	}

	return expired, nil
}

// expireOne reject một offer quá hạn dưới lock của target book.
// Lock không lấy được nghĩa là book đang được settle, batch sau xử lý tiếp.
func (s *exchangeService) expireOne(ctx context.Context, offer *model.ExchangeOffer) bool {
	release, err := s.lockBook(ctx, offer.TargetBookID)
	if err != nil {
		return false
	}
	defer release()

	// Re-load dưới lock
	fresh, err := s.exchangeRepo.GetOfferByID(ctx, offer.ID)
	if err != nil || !fresh.Status.Active() {
		return false
	}
	if err := s.rejectLocked(ctx, fresh); err != nil {
		logger.Error("Failed to expire offer", err)
		return false
	}
	return true
}

// =====================================================
// HELPERS
// =====================================================
func (s *exchangeService) enqueueSettledNotify(txn *txnmodel.Transaction, offer *model.ExchangeOffer) {
	if s.asynq == nil {
		return
	}

	payload := shared.ExchangeSettledPayload{
		TransactionID: txn.ID.String(),
		OfferID:       offer.ID.String(),
		OwnerID:       offer.OwnerID.String(),
		BorrowerID:    offer.BorrowerID.String(),
		TargetBookID:  offer.TargetBookID.String(),
		ItemType:      offer.ItemType.String(),
	}

	b, err := json.Marshal(payload)
	if err != nil {
		return
	}

	task := asynq.NewTask(shared.TypeExchangeSettledNotify, b)
	if _, err := s.asynq.Enqueue(task, asynq.Queue(shared.QueueNotifications)); err != nil {
		logger.Error("Failed to enqueue settlement notification", err)
	}
}

func (s *exchangeService) buildOfferResponse(ctx context.Context, offer *model.ExchangeOffer) (*model.OfferResponse, error) {
	responses, err := s.buildOfferResponses(ctx, []model.ExchangeOffer{*offer})
	if err != nil {
		return nil, err
	}
	return &responses[0], nil
}

// buildOfferResponses enrich offers với book summaries và money items,
// batch load books để tránh N+1
func (s *exchangeService) buildOfferResponses(ctx context.Context, offers []model.ExchangeOffer) ([]model.OfferResponse, error) {
	bookIDs := make([]uuid.UUID, 0, len(offers)*2)
	seen := make(map[uuid.UUID]bool)
	for i := range offers {
		for _, id := range offerBookIDs(&offers[i]) {
			if !seen[id] {
				seen[id] = true
				bookIDs = append(bookIDs, id)
			}
		}
	}

	books := map[uuid.UUID]*bookmodel.Book{}
	if len(bookIDs) > 0 {
		var err error
		books, err = s.bookRepo.GetByIDs(ctx, bookIDs)
		if err != nil {
			return nil, err
		}
	}

	responses := make([]model.OfferResponse, 0, len(offers))
	for i := range offers {
		o := &offers[i]
		resp := model.ToOfferResponse(o)
		resp.TargetBook = summaryOf(books[o.TargetBookID])
		if o.BookItemID != nil {
			resp.BookItem = summaryOf(books[*o.BookItemID])
		}
		if o.MoneyItemID != nil {
			m, err := s.exchangeRepo.GetMoneyItemByID(ctx, *o.MoneyItemID)
			if err == nil {
				resp.MoneyItem = model.ToMoneyItemResponse(m)
			}
		}
		responses = append(responses, resp)
	}

	return responses, nil
}

func offerBookIDs(o *model.ExchangeOffer) []uuid.UUID {
	ids := []uuid.UUID{o.TargetBookID}
	if o.BookItemID != nil {
		ids = append(ids, *o.BookItemID)
	}
	return ids
}

func summaryOf(b *bookmodel.Book) *bookmodel.BookSummary {
	if b == nil {
		return nil
	}
	s := bookmodel.ToBookSummary(b)
	return &s
}
