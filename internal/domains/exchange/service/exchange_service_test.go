package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bookmodel "bookexchange-backend/internal/domains/book/model"
	"bookexchange-backend/internal/domains/exchange/model"
	txnmodel "bookexchange-backend/internal/domains/transaction/model"
	"bookexchange-backend/pkg/keylock"
)

// =====================================================
// IN-MEMORY FAKES
// =====================================================
// Repos dùng chung một store có mutex để race test có ý nghĩa.
// Version checks mô phỏng đúng hành vi optimistic locking của Postgres.

type fakeStore struct {
	mu     sync.Mutex
	books  map[uuid.UUID]*bookmodel.Book
	offers map[uuid.UUID]*model.ExchangeOffer
	money  map[uuid.UUID]*model.MoneyItem
	txns   []txnmodel.Transaction
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		books:  make(map[uuid.UUID]*bookmodel.Book),
		offers: make(map[uuid.UUID]*model.ExchangeOffer),
		money:  make(map[uuid.UUID]*model.MoneyItem),
	}
}

func (s *fakeStore) addBook(ownerID uuid.UUID, title string, status bookmodel.BookStatus) *bookmodel.Book {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := &bookmodel.Book{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Title:     title,
		Status:    status,
		CreatedAt: time.Now(),
	}
	s.books[b.ID] = b
	return copyBook(b)
}

func copyBook(b *bookmodel.Book) *bookmodel.Book {
	c := *b
	return &c
}

func copyOffer(o *model.ExchangeOffer) *model.ExchangeOffer {
	c := *o
	return &c
}

// ---- fakeBookRepo ----

type fakeBookRepo struct {
	store *fakeStore
}

func (r *fakeBookRepo) Create(ctx context.Context, book *bookmodel.Book) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	book.CreatedAt = time.Now()
	r.store.books[book.ID] = copyBook(book)
	return nil
}

func (r *fakeBookRepo) GetByID(ctx context.Context, id uuid.UUID) (*bookmodel.Book, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	b, ok := r.store.books[id]
	if !ok {
		return nil, bookmodel.NewBookError(bookmodel.ErrCodeBookNotFound, "Book not found", bookmodel.ErrBookNotFound)
	}
	return copyBook(b), nil
}

func (r *fakeBookRepo) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*bookmodel.Book, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	result := make(map[uuid.UUID]*bookmodel.Book, len(ids))
	for _, id := range ids {
		if b, ok := r.store.books[id]; ok {
			result[id] = copyBook(b)
		}
	}
	return result, nil
}

func (r *fakeBookRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID, status bookmodel.BookStatus) ([]bookmodel.Book, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var books []bookmodel.Book
	for _, b := range r.store.books {
		if b.OwnerID == ownerID && (status == "" || b.Status == status) {
			books = append(books, *b)
		}
	}
	return books, nil
}

func (r *fakeBookRepo) ListAvailable(ctx context.Context, page, size int) ([]bookmodel.Book, int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var books []bookmodel.Book
	for _, b := range r.store.books {
		if b.Status == bookmodel.BookStatusAvailable {
			books = append(books, *b)
		}
	}
	return books, len(books), nil
}

func (r *fakeBookRepo) UpdateMetadata(ctx context.Context, book *bookmodel.Book) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.books[book.ID]; !ok {
		return bookmodel.ErrBookNotFound
	}
	r.store.books[book.ID] = copyBook(book)
	return nil
}

func (r *fakeBookRepo) UpdateImagePaths(ctx context.Context, id uuid.UUID, imagePath, thumbnailPath *string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	b, ok := r.store.books[id]
	if !ok {
		return bookmodel.ErrBookNotFound
	}
	if imagePath != nil {
		b.ImagePath = imagePath
	}
	if thumbnailPath != nil {
		b.ThumbnailPath = thumbnailPath
	}
	return nil
}

func (r *fakeBookRepo) updateStatus(id uuid.UUID, status bookmodel.BookStatus, version int) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	b, ok := r.store.books[id]
	if !ok || b.Version != version {
		return bookmodel.ErrVersionMismatch
	}
	b.Status = status
	b.Version++
	return nil
}

func (r *fakeBookRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status bookmodel.BookStatus, version int) error {
	return r.updateStatus(id, status, version)
}

func (r *fakeBookRepo) UpdateStatusWithTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, status bookmodel.BookStatus, version int) error {
	return r.updateStatus(id, status, version)
}

func (r *fakeBookRepo) TransferWithTx(ctx context.Context, tx pgx.Tx, id, newOwnerID uuid.UUID, status bookmodel.BookStatus, version int) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	b, ok := r.store.books[id]
	if !ok || b.Version != version {
		return bookmodel.ErrVersionMismatch
	}
	b.OwnerID = newOwnerID
	b.Status = status
	b.Version++
	return nil
}

// ---- fakeExchangeRepo ----

type fakeExchangeRepo struct {
	store *fakeStore
}

func (r *fakeExchangeRepo) BeginTx(ctx context.Context) (pgx.Tx, error)          { return nil, nil }
func (r *fakeExchangeRepo) CommitTx(ctx context.Context, tx pgx.Tx) error        { return nil }
func (r *fakeExchangeRepo) RollbackTx(ctx context.Context, tx pgx.Tx) error      { return nil }

func (r *fakeExchangeRepo) CreateOfferWithTx(ctx context.Context, tx pgx.Tx, offer *model.ExchangeOffer) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	offer.CreatedAt = time.Now()
	offer.UpdatedAt = offer.CreatedAt
	r.store.offers[offer.ID] = copyOffer(offer)
	return nil
}

func (r *fakeExchangeRepo) GetOfferByID(ctx context.Context, id uuid.UUID) (*model.ExchangeOffer, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	o, ok := r.store.offers[id]
	if !ok {
		return nil, model.NewExchangeError(model.ErrCodeOfferNotFound, "Offer not found", model.ErrOfferNotFound)
	}
	return copyOffer(o), nil
}

func (r *fakeExchangeRepo) ListOffersByBook(ctx context.Context, bookID uuid.UUID) ([]model.ExchangeOffer, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var offers []model.ExchangeOffer
	for _, o := range r.store.offers {
		if o.TargetBookID == bookID {
			offers = append(offers, *o)
		}
	}
	return offers, nil
}

func (r *fakeExchangeRepo) ListOffersByUser(ctx context.Context, userID uuid.UUID, status model.OfferStatus) ([]model.ExchangeOffer, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var offers []model.ExchangeOffer
	for _, o := range r.store.offers {
		if (o.OwnerID == userID || o.BorrowerID == userID) && (status == "" || o.Status == status) {
			offers = append(offers, *o)
		}
	}
	return offers, nil
}

func (r *fakeExchangeRepo) ListOffersByStatus(ctx context.Context, status model.OfferStatus, page, size int) ([]model.ExchangeOffer, int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var offers []model.ExchangeOffer
	for _, o := range r.store.offers {
		if status == "" || o.Status == status {
			offers = append(offers, *o)
		}
	}
	return offers, len(offers), nil
}

func (r *fakeExchangeRepo) ListActiveOffersByBook(ctx context.Context, bookID uuid.UUID) ([]model.ExchangeOffer, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var offers []model.ExchangeOffer
	for _, o := range r.store.offers {
		if o.TargetBookID == bookID && o.Status == model.OfferStatusPending {
			offers = append(offers, *o)
		}
	}
	return offers, nil
}

func (r *fakeExchangeRepo) ListExpiredPending(ctx context.Context, before time.Time, limit int) ([]model.ExchangeOffer, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var offers []model.ExchangeOffer
	for _, o := range r.store.offers {
		if o.Status == model.OfferStatusPending && o.CreatedAt.Before(before) {
			offers = append(offers, *o)
			if len(offers) == limit {
				break
			}
		}
	}
	return offers, nil
}

func (r *fakeExchangeRepo) UpdateOfferStatusWithTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, status model.OfferStatus, version int) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	o, ok := r.store.offers[id]
	if !ok || o.Version != version {
		return model.ErrVersionMismatch
	}
	o.Status = status
	o.Version++
	return nil
}

func (r *fakeExchangeRepo) RejectOtherActiveOffersWithTx(ctx context.Context, tx pgx.Tx, bookID, acceptedOfferID uuid.UUID) (int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	rejected := 0
	for _, o := range r.store.offers {
		if o.TargetBookID == bookID && o.ID != acceptedOfferID && o.Status == model.OfferStatusPending {
			o.Status = model.OfferStatusRejected
			o.Version++
			rejected++
		}
	}
	return rejected, nil
}

func (r *fakeExchangeRepo) CreateMoneyItemWithTx(ctx context.Context, tx pgx.Tx, item *model.MoneyItem) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	item.CreatedAt = time.Now()
	c := *item
	r.store.money[item.ID] = &c
	return nil
}

func (r *fakeExchangeRepo) GetMoneyItemByID(ctx context.Context, id uuid.UUID) (*model.MoneyItem, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	m, ok := r.store.money[id]
	if !ok {
		return nil, model.NewExchangeError(model.ErrCodeOfferNotFound, "Money item not found", model.ErrOfferNotFound)
	}
	c := *m
	return &c, nil
}

// ---- fakeTxnRepo ----

type fakeTxnRepo struct {
	store *fakeStore
}

func (r *fakeTxnRepo) CreateWithTx(ctx context.Context, tx pgx.Tx, txn *txnmodel.Transaction) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	txn.CreatedAt = time.Now()
	r.store.txns = append(r.store.txns, *txn)
	return nil
}

func (r *fakeTxnRepo) GetByID(ctx context.Context, id uuid.UUID) (*txnmodel.TransactionDetail, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for i := range r.store.txns {
		if r.store.txns[i].ID == id {
			return &txnmodel.TransactionDetail{Transaction: r.store.txns[i]}, nil
		}
	}
	return nil, txnmodel.ErrTransactionNotFound
}

func (r *fakeTxnRepo) ListAll(ctx context.Context, page, size int) ([]txnmodel.TransactionDetail, int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	details := make([]txnmodel.TransactionDetail, 0, len(r.store.txns))
	for i := range r.store.txns {
		details = append(details, txnmodel.TransactionDetail{Transaction: r.store.txns[i]})
	}
	return details, len(details), nil
}

func (r *fakeTxnRepo) ListByUser(ctx context.Context, userID uuid.UUID, page, size int) ([]txnmodel.TransactionDetail, int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var details []txnmodel.TransactionDetail
	for i := range r.store.txns {
		t := &r.store.txns[i]
		if t.OwnerID == userID || t.BorrowerID == userID {
			details = append(details, txnmodel.TransactionDetail{Transaction: *t})
		}
	}
	return details, len(details), nil
}

func (r *fakeTxnRepo) ListByBook(ctx context.Context, bookID uuid.UUID) ([]txnmodel.TransactionDetail, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var details []txnmodel.TransactionDetail
	for i := range r.store.txns {
		if r.store.txns[i].TargetBookID == bookID {
			details = append(details, txnmodel.TransactionDetail{Transaction: r.store.txns[i]})
		}
	}
	return details, nil
}

func (r *fakeTxnRepo) ListByDateRange(ctx context.Context, from, to time.Time) ([]txnmodel.TransactionDetail, error) {
	return nil, nil
}

func (r *fakeTxnRepo) Search(ctx context.Context, keyword string, page, size int) ([]txnmodel.TransactionDetail, int, error) {
	return nil, 0, nil
}

func (r *fakeTxnRepo) CountTotal(ctx context.Context) (int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return len(r.store.txns), nil
}

func (r *fakeTxnRepo) CountByDate(ctx context.Context, days int) ([]txnmodel.DailyCount, error) {
	return nil, nil
}

func (r *fakeTxnRepo) CountByMonth(ctx context.Context, months int) ([]txnmodel.DailyCount, error) {
	return nil, nil
}

func (r *fakeTxnRepo) RewriteTimestamp(ctx context.Context, id uuid.UUID, createdAt time.Time) error {
	return nil
}

// =====================================================
// TEST SETUP
// =====================================================

func newTestService(store *fakeStore) ExchangeService {
	return NewExchangeService(
		&fakeExchangeRepo{store: store},
		&fakeBookRepo{store: store},
		&fakeTxnRepo{store: store},
		keylock.New(),
		2*time.Second,
		nil,
	)
}

func moneyOfferRequest(targetBookID uuid.UUID, amount string) model.CreateOfferRequest {
	return model.CreateOfferRequest{
		TargetBookID: targetBookID.String(),
		ItemType:     "money",
		Amount:       &amount,
	}
}

// =====================================================
// OFFER CREATION
// =====================================================

func TestCreateOffer_MoneyDefaultsToVND(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	owner := uuid.New()
	borrower := uuid.New()
	book := store.addBook(owner, "Norwegian Wood", bookmodel.BookStatusAvailable)

	resp, err := svc.CreateOffer(context.Background(), borrower, moneyOfferRequest(book.ID, "150000"))
	require.NoError(t, err)

	assert.Equal(t, "pending", resp.Status)
	assert.Equal(t, "money", resp.ItemType)
	require.NotNil(t, resp.MoneyItem)
	assert.Equal(t, "150000", resp.MoneyItem.Amount)
	assert.Equal(t, "VND", resp.MoneyItem.Unit)

	// Book bị giữ lại chờ quyết định của owner
	held, err := (&fakeBookRepo{store: store}).GetByID(context.Background(), book.ID)
	require.NoError(t, err)
	assert.Equal(t, bookmodel.BookStatusPending, held.Status)
}

func TestCreateOffer_OnOwnBookRefused(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	owner := uuid.New()
	book := store.addBook(owner, "Sapiens", bookmodel.BookStatusAvailable)

	_, err := svc.CreateOffer(context.Background(), owner, moneyOfferRequest(book.ID, "50000"))
	require.Error(t, err)

	var exchangeErr *model.ExchangeError
	require.ErrorAs(t, err, &exchangeErr)
	assert.Equal(t, model.ErrCodeInvalidOffer, exchangeErr.Code)
}

func TestCreateOffer_OnPendingBookRefused(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	owner := uuid.New()
	book := store.addBook(owner, "1984", bookmodel.BookStatusAvailable)

	_, err := svc.CreateOffer(context.Background(), uuid.New(), moneyOfferRequest(book.ID, "10000"))
	require.NoError(t, err)

	// Offer thứ hai trên book đang pending bị từ chối ngay khi tạo
	_, err = svc.CreateOffer(context.Background(), uuid.New(), moneyOfferRequest(book.ID, "20000"))
	require.Error(t, err)

	var exchangeErr *model.ExchangeError
	require.ErrorAs(t, err, &exchangeErr)
	assert.Equal(t, model.ErrCodeInvalidOffer, exchangeErr.Code)
}

func TestCreateOffer_NegativeAmountRefused(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	book := store.addBook(uuid.New(), "Clean Code", bookmodel.BookStatusAvailable)

	_, err := svc.CreateOffer(context.Background(), uuid.New(), moneyOfferRequest(book.ID, "-100"))
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "amount") || strings.Contains(err.Error(), "Invalid"))
}

func TestCreateOffer_BookItemMustBelongToBorrower(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	owner := uuid.New()
	borrower := uuid.New()
	target := store.addBook(owner, "Nhà Giả Kim", bookmodel.BookStatusAvailable)
	someoneElses := store.addBook(uuid.New(), "Đắc Nhân Tâm", bookmodel.BookStatusAvailable)

	itemID := someoneElses.ID.String()
	req := model.CreateOfferRequest{
		TargetBookID: target.ID.String(),
		ItemType:     "book",
		BookItemID:   &itemID,
	}

	_, err := svc.CreateOffer(context.Background(), borrower, req)
	require.Error(t, err)

	var exchangeErr *model.ExchangeError
	require.ErrorAs(t, err, &exchangeErr)
	assert.Equal(t, model.ErrCodeInvalidOffer, exchangeErr.Code)
}

func TestCreateOffer_TargetBookMissing(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	_, err := svc.CreateOffer(context.Background(), uuid.New(), moneyOfferRequest(uuid.New(), "10000"))
	require.Error(t, err)

	var bookErr *bookmodel.BookError
	require.ErrorAs(t, err, &bookErr)
	assert.Equal(t, bookmodel.ErrCodeBookNotFound, bookErr.Code)
}

// =====================================================
// QUERIES
// =====================================================

func TestListOffersByStatus(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	ctx := context.Background()

	owner := uuid.New()
	first := store.addBook(owner, "Sapiens", bookmodel.BookStatusAvailable)
	second := store.addBook(owner, "1984", bookmodel.BookStatusAvailable)

	pending, err := svc.CreateOffer(ctx, uuid.New(), moneyOfferRequest(first.ID, "40000"))
	require.NoError(t, err)
	settled, err := svc.CreateOffer(ctx, uuid.New(), moneyOfferRequest(second.ID, "60000"))
	require.NoError(t, err)
	_, err = svc.AcceptOffer(ctx, owner, second.ID, settled.ID)
	require.NoError(t, err)

	results, total, err := svc.ListOffersByStatus(ctx, "pending", 1, 20)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, results, 1)
	assert.Equal(t, pending.ID, results[0].ID)

	accepted, total, err := svc.ListOffersByStatus(ctx, "accepted", 1, 20)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, accepted, 1)
	assert.Equal(t, settled.ID, accepted[0].ID)

	_, _, err = svc.ListOffersByStatus(ctx, "bogus", 1, 20)
	require.Error(t, err)

	var exchangeErr *model.ExchangeError
	require.ErrorAs(t, err, &exchangeErr)
	assert.Equal(t, model.ErrCodeInvalidOffer, exchangeErr.Code)
}

// =====================================================
// SETTLEMENT
// =====================================================

func TestAcceptOffer_MoneySettlement(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	ctx := context.Background()

	owner := uuid.New()
	borrower := uuid.New()
	book := store.addBook(owner, "Norwegian Wood", bookmodel.BookStatusAvailable)

	resp, err := svc.CreateOffer(ctx, borrower, moneyOfferRequest(book.ID, "150000"))
	require.NoError(t, err)

	result, err := svc.AcceptOffer(ctx, owner, book.ID, resp.ID)
	require.NoError(t, err)

	assert.Equal(t, resp.ID, result.OfferID)
	assert.Equal(t, borrower, result.NewOwnerID)

	// Ownership chuyển sang borrower, book hết lưu thông
	settled, err := (&fakeBookRepo{store: store}).GetByID(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, borrower, settled.OwnerID)
	assert.Equal(t, bookmodel.BookStatusExchanged, settled.Status)

	// Ledger có đúng một bản ghi với amount denormalized
	require.Len(t, store.txns, 1)
	txn := store.txns[0]
	assert.Equal(t, owner, txn.OwnerID)
	assert.Equal(t, borrower, txn.BorrowerID)
	assert.Equal(t, "money", txn.ItemType)
	require.NotNil(t, txn.Amount)
	assert.True(t, txn.Amount.Equal(decimal.NewFromInt(150000)))
	require.NotNil(t, txn.Unit)
	assert.Equal(t, "VND", *txn.Unit)
	assert.Nil(t, txn.ExchangedBookID)
}

func TestAcceptOffer_BookSwap(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	ctx := context.Background()

	owner := uuid.New()
	borrower := uuid.New()
	target := store.addBook(owner, "Clean Code", bookmodel.BookStatusAvailable)
	counter := store.addBook(borrower, "The Pragmatic Programmer", bookmodel.BookStatusAvailable)

	itemID := counter.ID.String()
	resp, err := svc.CreateOffer(ctx, borrower, model.CreateOfferRequest{
		TargetBookID: target.ID.String(),
		ItemType:     "book",
		BookItemID:   &itemID,
	})
	require.NoError(t, err)

	_, err = svc.AcceptOffer(ctx, owner, target.ID, resp.ID)
	require.NoError(t, err)

	repo := &fakeBookRepo{store: store}

	// Cả hai sách đều đổi chủ
	targetAfter, _ := repo.GetByID(ctx, target.ID)
	assert.Equal(t, borrower, targetAfter.OwnerID)
	assert.Equal(t, bookmodel.BookStatusExchanged, targetAfter.Status)

	counterAfter, _ := repo.GetByID(ctx, counter.ID)
	assert.Equal(t, owner, counterAfter.OwnerID)
	assert.Equal(t, bookmodel.BookStatusExchanged, counterAfter.Status)

	require.Len(t, store.txns, 1)
	require.NotNil(t, store.txns[0].ExchangedBookID)
	assert.Equal(t, counter.ID, *store.txns[0].ExchangedBookID)
	assert.Nil(t, store.txns[0].Amount)
}

func TestAcceptOffer_SecondAcceptFails(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	ctx := context.Background()

	owner := uuid.New()
	book := store.addBook(owner, "Sapiens", bookmodel.BookStatusAvailable)

	resp, err := svc.CreateOffer(ctx, uuid.New(), moneyOfferRequest(book.ID, "99000"))
	require.NoError(t, err)

	_, err = svc.AcceptOffer(ctx, owner, book.ID, resp.ID)
	require.NoError(t, err)

	_, err = svc.AcceptOffer(ctx, owner, book.ID, resp.ID)
	require.Error(t, err)

	var exchangeErr *model.ExchangeError
	require.ErrorAs(t, err, &exchangeErr)
	assert.Equal(t, model.ErrCodeIllegalState, exchangeErr.Code)

	// Vẫn chỉ một transaction
	assert.Len(t, store.txns, 1)
}

func TestAcceptOffer_OnlyOwnerCanAccept(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	ctx := context.Background()

	owner := uuid.New()
	book := store.addBook(owner, "1984", bookmodel.BookStatusAvailable)

	resp, err := svc.CreateOffer(ctx, uuid.New(), moneyOfferRequest(book.ID, "30000"))
	require.NoError(t, err)

	_, err = svc.AcceptOffer(ctx, uuid.New(), book.ID, resp.ID)
	require.Error(t, err)

	var exchangeErr *model.ExchangeError
	require.ErrorAs(t, err, &exchangeErr)
	assert.Equal(t, model.ErrCodeNotParticipant, exchangeErr.Code)
	assert.Empty(t, store.txns)
}

func TestAcceptOffer_WrongTargetBook(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	ctx := context.Background()

	owner := uuid.New()
	book := store.addBook(owner, "Số Đỏ", bookmodel.BookStatusAvailable)
	other := store.addBook(owner, "Tuổi Thơ Dữ Dội", bookmodel.BookStatusAvailable)

	resp, err := svc.CreateOffer(ctx, uuid.New(), moneyOfferRequest(book.ID, "45000"))
	require.NoError(t, err)

	_, err = svc.AcceptOffer(ctx, owner, other.ID, resp.ID)
	require.Error(t, err)

	var exchangeErr *model.ExchangeError
	require.ErrorAs(t, err, &exchangeErr)
	assert.Equal(t, model.ErrCodeConflict, exchangeErr.Code)
}

// Hai accept chạy đua trên cùng offer: đúng một cái thắng,
// ledger có đúng một bản ghi, ownership chuyển đúng một lần.
func TestAcceptOffer_ConcurrentAcceptsSettleOnce(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	ctx := context.Background()

	owner := uuid.New()
	borrower := uuid.New()
	book := store.addBook(owner, "Norwegian Wood", bookmodel.BookStatusAvailable)

	resp, err := svc.CreateOffer(ctx, borrower, moneyOfferRequest(book.ID, "120000"))
	require.NoError(t, err)

	const attempts = 20
	var wg sync.WaitGroup
	errs := make([]error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.AcceptOffer(ctx, owner, book.ID, resp.ID)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		}
	}

	assert.Equal(t, 1, succeeded, "exactly one accept must win")
	assert.Len(t, store.txns, 1, "ledger must have exactly one record")

	settled, err := (&fakeBookRepo{store: store}).GetByID(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, borrower, settled.OwnerID)
	assert.Equal(t, bookmodel.BookStatusExchanged, settled.Status)
}

// Settlements trên các book khác nhau không chặn nhau
func TestAcceptOffer_IndependentBooksSettleConcurrently(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	ctx := context.Background()

	const pairs = 10
	type pair struct {
		owner, bookID, offerID uuid.UUID
	}
	setups := make([]pair, pairs)

	for i := 0; i < pairs; i++ {
		owner := uuid.New()
		borrower := uuid.New()
		book := store.addBook(owner, "Book", bookmodel.BookStatusAvailable)
		resp, err := svc.CreateOffer(ctx, borrower, moneyOfferRequest(book.ID, "10000"))
		require.NoError(t, err)
		setups[i] = pair{owner: owner, bookID: book.ID, offerID: resp.ID}
	}

	var wg sync.WaitGroup
	errs := make([]error, pairs)
	for i := 0; i < pairs; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.AcceptOffer(ctx, setups[i].owner, setups[i].bookID, setups[i].offerID)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		assert.NoError(t, err, "settlement %d failed", i)
	}
	assert.Len(t, store.txns, pairs)
}

// =====================================================
// REJECTION / EXPIRY
// =====================================================

func TestRejectOffer_ReleasesBook(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	ctx := context.Background()

	owner := uuid.New()
	book := store.addBook(owner, "Sapiens", bookmodel.BookStatusAvailable)

	resp, err := svc.CreateOffer(ctx, uuid.New(), moneyOfferRequest(book.ID, "70000"))
	require.NoError(t, err)

	require.NoError(t, svc.RejectOffer(ctx, owner, resp.ID))

	released, err := (&fakeBookRepo{store: store}).GetByID(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, bookmodel.BookStatusAvailable, released.Status)
	assert.Equal(t, owner, released.OwnerID)
	assert.Empty(t, store.txns)
}

func TestRejectOffer_StrangerRefused(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	ctx := context.Background()

	book := store.addBook(uuid.New(), "1984", bookmodel.BookStatusAvailable)
	resp, err := svc.CreateOffer(ctx, uuid.New(), moneyOfferRequest(book.ID, "20000"))
	require.NoError(t, err)

	err = svc.RejectOffer(ctx, uuid.New(), resp.ID)
	require.Error(t, err)

	var exchangeErr *model.ExchangeError
	require.ErrorAs(t, err, &exchangeErr)
	assert.Equal(t, model.ErrCodeNotParticipant, exchangeErr.Code)
}

// Borrower rút lại offer của mình: cùng đường reject, book được thả
func TestRejectOffer_BorrowerCanWithdraw(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	ctx := context.Background()

	owner := uuid.New()
	borrower := uuid.New()
	book := store.addBook(owner, "Đắc Nhân Tâm", bookmodel.BookStatusAvailable)

	resp, err := svc.CreateOffer(ctx, borrower, moneyOfferRequest(book.ID, "35000"))
	require.NoError(t, err)

	require.NoError(t, svc.RejectOffer(ctx, borrower, resp.ID))

	fresh, err := (&fakeExchangeRepo{store: store}).GetOfferByID(ctx, resp.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OfferStatusRejected, fresh.Status)

	released, err := (&fakeBookRepo{store: store}).GetByID(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, bookmodel.BookStatusAvailable, released.Status)
	assert.Equal(t, owner, released.OwnerID)
}

func TestRejectOffer_AlreadySettled(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	ctx := context.Background()

	owner := uuid.New()
	book := store.addBook(owner, "Clean Code", bookmodel.BookStatusAvailable)

	resp, err := svc.CreateOffer(ctx, uuid.New(), moneyOfferRequest(book.ID, "88000"))
	require.NoError(t, err)

	_, err = svc.AcceptOffer(ctx, owner, book.ID, resp.ID)
	require.NoError(t, err)

	err = svc.RejectOffer(ctx, owner, resp.ID)
	require.Error(t, err)

	var exchangeErr *model.ExchangeError
	require.ErrorAs(t, err, &exchangeErr)
	assert.Equal(t, model.ErrCodeIllegalState, exchangeErr.Code)
}

func TestExpireStaleOffers(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	ctx := context.Background()

	owner := uuid.New()
	book := store.addBook(owner, "Nhà Giả Kim", bookmodel.BookStatusAvailable)

	resp, err := svc.CreateOffer(ctx, uuid.New(), moneyOfferRequest(book.ID, "15000"))
	require.NoError(t, err)

	// Kéo offer về quá khứ
	store.mu.Lock()
	store.offers[resp.ID].CreatedAt = time.Now().Add(-30 * 24 * time.Hour)
	store.mu.Unlock()

	expired, err := svc.ExpireStaleOffers(ctx, 14*24*time.Hour, 100)
	require.NoError(t, err)
	assert.Equal(t, 1, expired)

	fresh, err := (&fakeExchangeRepo{store: store}).GetOfferByID(ctx, resp.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OfferStatusRejected, fresh.Status)

	released, _ := (&fakeBookRepo{store: store}).GetByID(ctx, book.ID)
	assert.Equal(t, bookmodel.BookStatusAvailable, released.Status)
}

func TestExpireStaleOffers_FreshOfferUntouched(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	ctx := context.Background()

	book := store.addBook(uuid.New(), "Sapiens", bookmodel.BookStatusAvailable)
	resp, err := svc.CreateOffer(ctx, uuid.New(), moneyOfferRequest(book.ID, "25000"))
	require.NoError(t, err)

	expired, err := svc.ExpireStaleOffers(ctx, 14*24*time.Hour, 100)
	require.NoError(t, err)
	assert.Equal(t, 0, expired)

	fresh, err := (&fakeExchangeRepo{store: store}).GetOfferByID(ctx, resp.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OfferStatusPending, fresh.Status)
}
