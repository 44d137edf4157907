// cmd/seeder/main.go
//
// Seeder tạo dữ liệu demo: users, books, offers, và settle một phần
// offers qua chính settlement engine để ledger có dữ liệu thật.
// Idempotent: bỏ qua nếu DB đã có user.
package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"bookexchange-backend/internal/config"
	"bookexchange-backend/internal/infrastructure/database"
	"bookexchange-backend/pkg/jwt"
	"bookexchange-backend/pkg/keylock"
	"bookexchange-backend/pkg/logger"

	bookmodel "bookexchange-backend/internal/domains/book/model"
	bookrepo "bookexchange-backend/internal/domains/book/repository"
	bookservice "bookexchange-backend/internal/domains/book/service"
	exchangemodel "bookexchange-backend/internal/domains/exchange/model"
	exchangerepo "bookexchange-backend/internal/domains/exchange/repository"
	exchangeservice "bookexchange-backend/internal/domains/exchange/service"
	txnrepo "bookexchange-backend/internal/domains/transaction/repository"
	usermodel "bookexchange-backend/internal/domains/user/model"
	userrepo "bookexchange-backend/internal/domains/user/repository"
	userservice "bookexchange-backend/internal/domains/user/service"
)

const (
	numUsers        = 8
	offersPerUser   = 2
	maxMoneyAmount  = 200000 // VND
	historyDays     = 90
	settleRatio     = 2 // cứ 2 offer thì settle 1
)

type seeder struct {
	users    userservice.UserService
	userRepo userrepo.UserRepository
	books    bookservice.BookService
	bookRepo bookrepo.BookRepository
	exchange exchangeservice.ExchangeService
	txnRepo  txnrepo.TransactionRepository
	rng      *rand.Rand
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}
	logger.Init(cfg.App.Environment)

	dbConfig, err := config.LoadDatabaseConfig()
	if err != nil {
		log.Fatalf("❌ Failed to load database config: %v", err)
	}

	db := database.NewPostgresDB(dbConfig)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := db.Connect(ctx); err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer db.Close()

	pool := db.Pool
	locks := keylock.New()

	uRepo := userrepo.NewPostgresUserRepository(pool)
	bRepo := bookrepo.NewPostgresBookRepository(pool)
	eRepo := exchangerepo.NewPostgresExchangeRepository(pool)
	tRepo := txnrepo.NewPostgresTransactionRepository(pool)

	jwtManager := jwt.NewManager(
		cfg.JWT.Secret,
		time.Duration(cfg.JWT.AccessTokenExpiry)*time.Hour,
		time.Duration(cfg.JWT.RefreshTokenExpiry)*time.Hour,
	)

	s := &seeder{
		users:    userservice.NewUserService(uRepo, jwtManager),
		userRepo: uRepo,
		books:    bookservice.NewBookService(bRepo, nil, locks, cfg.Exchange.LockWait, nil),
		bookRepo: bRepo,
		exchange: exchangeservice.NewExchangeService(eRepo, bRepo, tRepo, locks, cfg.Exchange.LockWait, nil),
		txnRepo:  tRepo,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	if err := s.Run(context.Background()); err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}
	log.Println("🎉 Seeding finished")
}

func (s *seeder) Run(ctx context.Context) error {
	existing, err := s.userRepo.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to check existing users: %w", err)
	}
	if len(existing) > 0 {
		log.Printf("⏭️  Database already has %d users, skipping seed", len(existing))
		return nil
	}

	userIDs, err := s.seedUsers(ctx)
	if err != nil {
		return err
	}

	booksByUser, err := s.seedBooks(ctx, userIDs)
	if err != nil {
		return err
	}

	offers, err := s.seedOffers(ctx, userIDs, booksByUser)
	if err != nil {
		return err
	}

	if err := s.settleSome(ctx, offers); err != nil {
		return err
	}

	return s.spreadTimestamps(ctx)
}

// =====================================================
// USERS
// =====================================================
func (s *seeder) seedUsers(ctx context.Context) ([]uuid.UUID, error) {
	log.Println("👤 Seeding users...")

	// Admin tạo thẳng qua repo để set role
	admin := &usermodel.User{
		ID:           uuid.New(),
		Email:        "admin@bookexchange.local",
		PasswordHash: "$2a$10$N9qo8uLOickgx2ZMRZoMye1J1xM1PZ7VXhjE8eBdI6tF8vLqGKOyS", // "secret123"
		Name:         "Admin",
		Role:         usermodel.RoleAdmin,
	}
	if err := s.userRepo.Create(ctx, admin); err != nil {
		return nil, fmt.Errorf("failed to create admin: %w", err)
	}

	names := []string{"An", "Binh", "Chi", "Dung", "Giang", "Hoa", "Khanh", "Linh", "Minh", "Ngoc"}

	ids := make([]uuid.UUID, 0, numUsers)
	for i := 0; i < numUsers; i++ {
		req := usermodel.RegisterRequest{
			Email:    fmt.Sprintf("user%d@bookexchange.local", i+1),
			Password: "secret123",
			Name:     names[i%len(names)],
		}
		resp, err := s.users.Register(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("failed to register seed user: %w", err)
		}
		ids = append(ids, resp.User.ID)
	}

	log.Printf("✅ Created %d users + admin", len(ids))
	return ids, nil
}

// =====================================================
// BOOKS
// =====================================================
type catalogEntry struct {
	title      string
	author     string
	layout     string
	categories []string
}

var catalog = []catalogEntry{
	{"Dế Mèn Phiêu Lưu Ký", "Tô Hoài", "Softcover", []string{"Fiction", "Children"}},
	{"Số Đỏ", "Vũ Trọng Phụng", "Softcover", []string{"Fiction", "Classic"}},
	{"Norwegian Wood", "Haruki Murakami", "Softcover", []string{"Fiction"}},
	{"Clean Code", "Robert C. Martin", "Hardcover", []string{"Technology"}},
	{"The Pragmatic Programmer", "Andrew Hunt", "Hardcover", []string{"Technology"}},
	{"Sapiens", "Yuval Noah Harari", "Softcover", []string{"History", "Science"}},
	{"Thinking, Fast and Slow", "Daniel Kahneman", "Softcover", []string{"Psychology"}},
	{"Nhà Giả Kim", "Paulo Coelho", "Softcover", []string{"Fiction"}},
	{"Đắc Nhân Tâm", "Dale Carnegie", "Softcover", []string{"Self-help"}},
	{"The Go Programming Language", "Alan Donovan", "Hardcover", []string{"Technology"}},
	{"Tuổi Thơ Dữ Dội", "Phùng Quán", "Softcover", []string{"Fiction", "History"}},
	{"1984", "George Orwell", "Softcover", []string{"Fiction", "Classic"}},
}

func (s *seeder) seedBooks(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID][]uuid.UUID, error) {
	log.Println("📚 Seeding books...")

	booksByUser := make(map[uuid.UUID][]uuid.UUID, len(userIDs))
	idx := 0
	total := 0

	for _, userID := range userIDs {
		// Mỗi user 2-3 cuốn
		count := 2 + s.rng.Intn(2)
		for j := 0; j < count; j++ {
			entry := catalog[idx%len(catalog)]
			idx++

			author := entry.author
			layout := entry.layout
			year := 1990 + s.rng.Intn(35)
			pages := 150 + s.rng.Intn(500)
			lang := "Vietnamese"
			if s.rng.Intn(2) == 0 {
				lang = "English"
			}

			req := bookmodel.CreateBookRequest{
				Title:       entry.title,
				Author:      &author,
				PublishYear: &year,
				Language:    &lang,
				Pages:       &pages,
				Layout:      &layout,
				Categories:  entry.categories,
			}
			resp, err := s.books.CreateBook(ctx, userID, req)
			if err != nil {
				return nil, fmt.Errorf("failed to create seed book: %w", err)
			}
			booksByUser[userID] = append(booksByUser[userID], resp.ID)
			total++
		}
	}

	log.Printf("✅ Created %d books", total)
	return booksByUser, nil
}

// =====================================================
// OFFERS
// =====================================================
type seededOffer struct {
	offerID      uuid.UUID
	targetBookID uuid.UUID
	ownerID      uuid.UUID
}

func (s *seeder) seedOffers(ctx context.Context, userIDs []uuid.UUID, booksByUser map[uuid.UUID][]uuid.UUID) ([]seededOffer, error) {
	log.Println("🤝 Seeding offers...")

	var offers []seededOffer
	used := make(map[uuid.UUID]bool) // book đã làm target hoặc đã offer đi

	for _, borrowerID := range userIDs {
		for n := 0; n < offersPerUser; n++ {
			_, targetID, ok := s.pickTarget(userIDs, booksByUser, borrowerID, used)
			if !ok {
				continue
			}

			req := exchangemodel.CreateOfferRequest{
				TargetBookID: targetID.String(),
			}

			// Xen kẽ book offer và money offer
			bookItemID, hasBook := s.pickOwnAvailable(booksByUser[borrowerID], used)
			if n%2 == 0 && hasBook {
				itemStr := bookItemID.String()
				req.ItemType = string(exchangemodel.ItemTypeBook)
				req.BookItemID = &itemStr
			} else {
				amount := fmt.Sprintf("%d", 10000+s.rng.Intn(maxMoneyAmount-10000))
				unit := exchangemodel.DefaultMoneyUnit
				req.ItemType = string(exchangemodel.ItemTypeMoney)
				req.Amount = &amount
				req.Unit = &unit
			}

			resp, err := s.exchange.CreateOffer(ctx, borrowerID, req)
			if err != nil {
				// Target có thể đã pending do offer trước, bỏ qua
				continue
			}

			used[targetID] = true
			if req.BookItemID != nil {
				used[bookItemID] = true
			}

			offers = append(offers, seededOffer{
				offerID:      resp.ID,
				targetBookID: targetID,
				ownerID:      resp.OwnerID,
			})
		}
	}

	log.Printf("✅ Created %d offers", len(offers))
	return offers, nil
}

func (s *seeder) pickTarget(userIDs []uuid.UUID, booksByUser map[uuid.UUID][]uuid.UUID, borrowerID uuid.UUID, used map[uuid.UUID]bool) (uuid.UUID, uuid.UUID, bool) {
	perm := s.rng.Perm(len(userIDs))
	for _, i := range perm {
		ownerID := userIDs[i]
		if ownerID == borrowerID {
			continue
		}
		for _, bookID := range booksByUser[ownerID] {
			if !used[bookID] {
				return ownerID, bookID, true
			}
		}
	}
	return uuid.Nil, uuid.Nil, false
}

func (s *seeder) pickOwnAvailable(bookIDs []uuid.UUID, used map[uuid.UUID]bool) (uuid.UUID, bool) {
	for _, id := range bookIDs {
		if !used[id] {
			return id, true
		}
	}
	return uuid.Nil, false
}

// =====================================================
// SETTLEMENT
// =====================================================
func (s *seeder) settleSome(ctx context.Context, offers []seededOffer) error {
	log.Println("⚖️  Settling offers via engine...")

	settled := 0
	rejected := 0
	for i, o := range offers {
		switch i % (settleRatio + 1) {
		case 0:
			// Accept qua đúng đường settlement engine
			if _, err := s.exchange.AcceptOffer(ctx, o.ownerID, o.targetBookID, o.offerID); err != nil {
				log.Printf("⚠️  Failed to settle offer %s: %v", o.offerID, err)
				continue
			}
			settled++
		case 1:
			if err := s.exchange.RejectOffer(ctx, o.ownerID, o.offerID); err != nil {
				continue
			}
			rejected++
		default:
			// Để lại pending
		}
	}

	log.Printf("✅ Settled %d, rejected %d, rest left pending", settled, rejected)
	return nil
}

// spreadTimestamps kéo các transaction về quá khứ ngẫu nhiên
// để thống kê theo ngày/tháng có hình dạng thật
func (s *seeder) spreadTimestamps(ctx context.Context) error {
	details, _, err := s.txnRepo.ListAll(ctx, 1, 1000)
	if err != nil {
		return err
	}

	for i := range details {
		back := time.Duration(s.rng.Intn(historyDays*24)) * time.Hour
		at := time.Now().Add(-back)
		if err := s.txnRepo.RewriteTimestamp(ctx, details[i].ID, at); err != nil {
			return fmt.Errorf("failed to rewrite timestamp: %w", err)
		}
	}

	log.Printf("✅ Spread %d transaction timestamps across %d days", len(details), historyDays)
	return nil
}
