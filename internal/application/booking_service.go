package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rajanshah23/Theatre-Booking-System/internal/domain/booking"
	"github.com/rajanshah23/Theatre-Booking-System/internal/domain/payment"
	"github.com/rajanshah23/Theatre-Booking-System/internal/domain/seat"
	"github.com/rajanshah23/Theatre-Booking-System/internal/domain/show"
	"github.com/rajanshah23/Theatre-Booking-System/internal/domain/ticket"
	"github.com/rajanshah23/Theatre-Booking-System/internal/domain/transaction"
	"github.com/rajanshah23/Theatre-Booking-System/internal/pkg/logger"
	"github.com/rajanshah23/Theatre-Booking-System/internal/pkg/metrics"
)

const (
	defaultListLimit  = 20
	maxListLimit      = 100
	defaultSweepBatch = 100
)

// メトリクスの result ラベル
const (
	resultConfirmed    = "confirmed"
	resultPending      = "pending"
	resultFailed       = "failed"
	resultConflict     = "conflict"
	resultDuplicate    = "duplicate"
	resultGatewayError = "gateway_error"
	resultError        = "error"
)

// SeatLocker は DB スコープの前に座席集合を短時間ロックする（連打の抑止）
// 二重予約を防ぐのは DB の行ロックであり、こちらは補助
type SeatLocker interface {
	LockSeats(ctx context.Context, showID string, seatIDs []string) (func(context.Context) error, error)
}

// SeatCacheInvalidator は空席数キャッシュを破棄する
type SeatCacheInvalidator interface {
	Invalidate(ctx context.Context, showID string) error
}

// BookingService は座席確保から決済確定・キャンセルまでの予約ライフサイクルを調整する
type BookingService struct {
	txManager   transaction.Manager
	bookingRepo booking.Repository
	seatRepo    seat.Repository
	showRepo    show.Repository
	paymentRepo payment.Repository
	gateway     payment.Gateway

	locker     SeatLocker
	cache      SeatCacheInvalidator
	publisher  ticket.Publisher
	metrics    *metrics.Metrics
	now        func() time.Time
	sweepBatch int
}

// BookingServiceOption は BookingService の任意の依存を設定する
type BookingServiceOption func(*BookingService)

func WithSeatLocker(l SeatLocker) BookingServiceOption {
	return func(s *BookingService) { s.locker = l }
}

func WithSeatCacheInvalidator(c SeatCacheInvalidator) BookingServiceOption {
	return func(s *BookingService) { s.cache = c }
}

func WithTicketPublisher(p ticket.Publisher) BookingServiceOption {
	return func(s *BookingService) { s.publisher = p }
}

func WithBookingMetrics(m *metrics.Metrics) BookingServiceOption {
	return func(s *BookingService) { s.metrics = m }
}

func WithClock(now func() time.Time) BookingServiceOption {
	return func(s *BookingService) { s.now = now }
}

func WithSweepBatch(n int) BookingServiceOption {
	return func(s *BookingService) {
		if n > 0 {
			s.sweepBatch = n
		}
	}
}

// NewBookingService は BookingService を作成する
// gateway が nil の場合、外部決済を必要とする支払い方法は受け付けない
func NewBookingService(
	txm transaction.Manager,
	br booking.Repository,
	sr seat.Repository,
	shr show.Repository,
	pr payment.Repository,
	gw payment.Gateway,
	opts ...BookingServiceOption,
) *BookingService {
	s := &BookingService{
		txManager:   txm,
		bookingRepo: br,
		seatRepo:    sr,
		showRepo:    shr,
		paymentRepo: pr,
		gateway:     gw,
		now:         time.Now,
		sweepBatch:  defaultSweepBatch,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateBookingInput の座席は SeatIDs か SeatLabels（A1 など）のどちらか一方で指定する
type CreateBookingInput struct {
	UserID        string
	ShowID        string
	SeatIDs       []string
	SeatLabels    []string
	PaymentMethod string // 空の場合は cash
}

type CreateBookingOutput struct {
	Booking    *booking.Booking
	PaymentURL string // 外部決済の場合のみ
}

// CreateBooking は座席を確保して予約を作成する
// 窓口精算の支払い方法はその場で確定し、外部決済の場合は保留のまま決済URLを返す
func (s *BookingService) CreateBooking(ctx context.Context, input CreateBookingInput) (*CreateBookingOutput, error) {
	if input.UserID == "" {
		return nil, booking.ErrUserIDRequired
	}
	if len(input.SeatIDs) > 0 && len(input.SeatLabels) > 0 {
		return nil, fmt.Errorf("%w: 座席IDと座席ラベルは同時に指定できません", booking.ErrInvalidRequest)
	}
	byLabel := len(input.SeatLabels) > 0
	refs := input.SeatIDs
	if byLabel {
		refs = input.SeatLabels
	}
	seatIDs, err := normalizeSeatRefs(refs, byLabel)
	if err != nil {
		return nil, err
	}
	method := payment.MethodCash
	if input.PaymentMethod != "" {
		if method, err = payment.ParseMethod(input.PaymentMethod); err != nil {
			return nil, err
		}
	}
	if method.RequiresGateway() && s.gateway == nil {
		return nil, fmt.Errorf("%w: 決済ゲートウェイが設定されていません", payment.ErrGateway)
	}

	sh, err := s.showRepo.GetByID(ctx, input.ShowID)
	if err != nil {
		return nil, fmt.Errorf("公演取得に失敗: %w", err)
	}
	total, err := sh.TotalPrice(len(seatIDs))
	if err != nil {
		return nil, err
	}
	if byLabel {
		// ラベルからIDへの解決はロックやスコープの外で行う。空席かどうかは LockAndFetch が判定する
		if seatIDs, err = s.resolveSeatLabels(ctx, sh.ID, seatIDs); err != nil {
			return nil, err
		}
	}

	unlock, err := s.lockSeats(ctx, sh.ID, seatIDs)
	if err != nil {
		if errors.Is(err, booking.ErrSeatConflict) {
			s.metrics.RecordBooking(resultConflict)
		}
		return nil, err
	}

	b := booking.NewBooking(input.UserID, sh.ID, len(seatIDs), method, total, sh.StartsAt)
	b.CreatedAt = s.now()
	b.UpdatedAt = b.CreatedAt

	// 分散ロックはコミット直後に手放す。ゲートウェイ呼び出しや補償処理の間は持たない
	err = s.reserve(ctx, b, seatIDs)
	unlock()
	if err != nil {
		if errors.Is(err, booking.ErrSeatConflict) {
			s.metrics.RecordBooking(resultConflict)
		} else {
			s.metrics.RecordBooking(resultError)
		}
		return nil, err
	}
	s.invalidateSeatCache(ctx, b.ShowID)

	log := logger.With(logger.BookingID(b.ID), logger.ShowID(b.ShowID), logger.UserID(b.UserID))
	if b.Status == booking.StatusConfirmed {
		log.Info("予約を確定しました", logger.Status(string(b.Status)), zap.String("payment_method", string(method)))
		s.metrics.RecordBooking(resultConfirmed)
		s.metrics.RecordTransition(string(booking.StatusPending), string(booking.StatusConfirmed))
		s.publishTicket(ctx, b.ID)
		return &CreateBookingOutput{Booking: b}, nil
	}

	// 外部決済の開始はコミット後、ロックを持たずに行う
	result, err := s.gateway.Initiate(ctx, payment.InitiateRequest{
		Amount:    b.TotalAmount,
		OrderID:   b.ID,
		OrderName: sh.Title,
	})
	if err == nil {
		err = s.bookingRepo.AttachPaymentReference(ctx, b.ID, result.Reference)
	}
	if err != nil {
		log.Error("決済の開始に失敗したため予約を失効させます", zap.Error(err))
		s.metrics.RecordBooking(resultGatewayError)
		if _, cerr := s.failPending(context.WithoutCancel(ctx), b, "", true); cerr != nil && !errors.Is(cerr, booking.ErrInvalidTransition) {
			log.Error("補償処理に失敗", zap.Error(cerr))
		}
		return nil, fmt.Errorf("決済開始に失敗: %w", err)
	}

	ref := result.Reference
	b.PaymentReference = &ref
	log.Info("決済待ちの予約を作成しました", logger.PaymentReference(ref))
	s.metrics.RecordBooking(resultPending)
	return &CreateBookingOutput{Booking: b, PaymentURL: result.RedirectURL}, nil
}

// lockSeats は座席集合の分散ロックを取り、解放関数を返す
// ロッカーがなければ何もしない
func (s *BookingService) lockSeats(ctx context.Context, showID string, seatIDs []string) (func(), error) {
	if s.locker == nil {
		return func() {}, nil
	}
	release, err := s.locker.LockSeats(ctx, showID, seatIDs)
	if err != nil {
		if errors.Is(err, booking.ErrSeatConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("ロック取得に失敗: %w", err)
	}
	return func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			logger.Warn("座席ロックの解放に失敗", logger.ShowID(showID), zap.Error(err))
		}
	}, nil
}

// reserve は座席のロック・予約作成・座席の確保を1つのスコープで行う
func (s *BookingService) reserve(ctx context.Context, b *booking.Booking, seatIDs []string) error {
	var seats []*seat.Seat
	err := transaction.Run(ctx, s.txManager, func(tx transaction.Tx) error {
		var err error
		seats, err = s.seatRepo.LockAndFetch(ctx, tx, b.ShowID, seatIDs)
		if err != nil {
			return fmt.Errorf("座席のロックに失敗: %w", err)
		}
		if len(seats) != len(seatIDs) {
			return booking.ErrSeatConflict
		}
		if err := s.bookingRepo.Create(ctx, tx, b); err != nil {
			return err
		}
		if err := s.seatRepo.MarkOccupied(ctx, tx, seatIDs, b.ID); err != nil {
			return fmt.Errorf("座席の確保に失敗: %w", err)
		}
		if b.PaymentMethod.RequiresGateway() {
			return nil
		}

		confirmed, err := s.bookingRepo.Transition(ctx, tx, b.ID, booking.AllowedSources(booking.StatusConfirmed), booking.StatusConfirmed)
		if err != nil {
			return fmt.Errorf("予約確定に失敗: %w", err)
		}
		p := payment.NewPayment(b.ID, b.TotalAmount, b.PaymentMethod, payment.StatusSuccessful, "")
		if err := s.paymentRepo.Create(ctx, tx, p); err != nil {
			return err
		}
		b.Status = confirmed.Status
		b.UpdatedAt = confirmed.UpdatedAt
		return nil
	})
	if err != nil {
		return err
	}

	for _, st := range seats {
		st.Occupy(b.ID)
	}
	seat.SortByPosition(seats)
	b.Seats = seats
	return nil
}

type PaymentCallbackInput struct {
	Reference     string
	Status        payment.ExternalStatus
	Amount        int // ゲートウェイが報告した金額
	TransactionID string
}

// ConfirmPaymentCallback は外部決済の結果を予約に反映する
// 同じ参照で何度呼ばれても結果は変わらない
func (s *BookingService) ConfirmPaymentCallback(ctx context.Context, input PaymentCallbackInput) (*booking.Booking, error) {
	if input.Reference == "" {
		return nil, fmt.Errorf("%w: 決済参照は必須です", booking.ErrInvalidRequest)
	}
	b, err := s.bookingRepo.FindByPaymentReference(ctx, input.Reference)
	if err != nil {
		return nil, err
	}
	log := logger.With(logger.BookingID(b.ID), logger.PaymentReference(input.Reference))

	if !b.IsPending() {
		log.Info("処理済みの決済通知を無視しました", logger.Status(string(b.Status)))
		s.metrics.RecordCallback(resultDuplicate)
		return s.bookingRepo.FindWithSeats(ctx, b.ID)
	}

	if !input.Status.IsTerminal() {
		// 利用者がまだ支払い中。保留のまま返す
		s.metrics.RecordCallback(resultPending)
		return s.bookingRepo.FindWithSeats(ctx, b.ID)
	}
	switch input.Status {
	case payment.ExternalSuccess:
		if input.Amount != b.TotalAmount {
			log.Warn("決済金額が予約金額と一致しません", zap.Int("expected", b.TotalAmount), zap.Int("actual", input.Amount))
		}
		_, err = s.confirmPending(ctx, b, input.Amount, input.TransactionID)
	default:
		_, err = s.failPending(ctx, b, input.TransactionID, true)
	}
	if errors.Is(err, booking.ErrInvalidTransition) {
		// 並行した通知または期限切れ処理が先に遷移させた
		log.Info("予約は既に遷移済みです")
		s.metrics.RecordCallback(resultDuplicate)
		return s.bookingRepo.FindWithSeats(ctx, b.ID)
	}
	if err != nil {
		s.metrics.RecordCallback(resultError)
		return nil, err
	}

	if input.Status == payment.ExternalSuccess {
		log.Info("決済により予約を確定しました", zap.String("transaction_id", input.TransactionID))
		s.metrics.RecordCallback(resultConfirmed)
	} else {
		log.Info("決済失敗により予約を失効させました", zap.String("external_status", string(input.Status)))
		s.metrics.RecordCallback(resultFailed)
	}
	return s.bookingRepo.FindWithSeats(ctx, b.ID)
}

// VerifyPayment はゲートウェイに決済状況を照会し、その結果を予約に反映する
// 金額はクライアントの申告ではなくゲートウェイの値を使う
func (s *BookingService) VerifyPayment(ctx context.Context, reference string) (*booking.Booking, error) {
	if reference == "" {
		return nil, fmt.Errorf("%w: 決済参照は必須です", booking.ErrInvalidRequest)
	}
	b, err := s.bookingRepo.FindByPaymentReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	if !b.IsPending() {
		s.metrics.RecordCallback(resultDuplicate)
		return s.bookingRepo.FindWithSeats(ctx, b.ID)
	}
	if s.gateway == nil {
		return nil, fmt.Errorf("%w: 決済ゲートウェイが設定されていません", payment.ErrGateway)
	}

	result, err := s.gateway.Lookup(ctx, reference)
	if err != nil {
		logger.Warn("決済照会に失敗", logger.BookingID(b.ID), logger.PaymentReference(reference), zap.Error(err))
		s.metrics.RecordCallback(resultGatewayError)
		return nil, fmt.Errorf("決済照会に失敗: %w", err)
	}
	return s.ConfirmPaymentCallback(ctx, PaymentCallbackInput{
		Reference:     reference,
		Status:        result.Status,
		Amount:        result.Amount,
		TransactionID: result.TransactionID,
	})
}

// ConfirmBooking は予約の決済参照をゲートウェイで検証して確定させる
func (s *BookingService) ConfirmBooking(ctx context.Context, id string, actor Actor) (*booking.Booking, error) {
	b, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.canAccess(b) {
		return nil, booking.ErrForbidden
	}
	if !b.IsPending() {
		return s.bookingRepo.FindWithSeats(ctx, b.ID)
	}
	if !b.HasPaymentReference() {
		return nil, booking.ErrNoPaymentReference
	}
	return s.VerifyPayment(ctx, *b.PaymentReference)
}

// CancelBooking は予約をキャンセルして座席を解放する
// 確定済みの予約は公演開始前のみキャンセルできる
func (s *BookingService) CancelBooking(ctx context.Context, id string, actor Actor) (*booking.Booking, error) {
	b, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.canAccess(b) {
		return nil, booking.ErrForbidden
	}
	switch b.Status {
	case booking.StatusCancelled:
		return nil, booking.ErrAlreadyCancelled
	case booking.StatusFailed:
		return nil, booking.ErrInvalidTransition
	case booking.StatusConfirmed:
		started, err := s.showStarted(ctx, b)
		if err != nil {
			return nil, err
		}
		if started {
			return nil, booking.ErrShowAlreadyStarted
		}
	}

	var (
		cancelled *booking.Booking
		released  int
	)
	err = transaction.Run(ctx, s.txManager, func(tx transaction.Tx) error {
		// 予約の行を先にロックし、その後で座席をロックする
		var err error
		cancelled, err = s.bookingRepo.Transition(ctx, tx, b.ID, booking.AllowedSources(booking.StatusCancelled), booking.StatusCancelled)
		if err != nil {
			return err
		}
		released, err = s.releaseSeats(ctx, tx, b.ID)
		return err
	})
	if errors.Is(err, booking.ErrInvalidTransition) {
		return nil, s.transitionError(ctx, b.ID)
	}
	if err != nil {
		return nil, err
	}

	logger.Info("予約をキャンセルしました",
		logger.BookingID(b.ID),
		logger.UserID(actor.UserID),
		zap.String("from", string(b.Status)),
		zap.Int("released_seats", released),
	)
	s.metrics.RecordTransition(string(b.Status), string(booking.StatusCancelled))
	s.invalidateSeatCache(ctx, b.ShowID)
	return cancelled, nil
}

// transitionError は遷移に失敗した理由を現在の状態から判定する
func (s *BookingService) transitionError(ctx context.Context, id string) error {
	current, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if current.Status == booking.StatusCancelled {
		return booking.ErrAlreadyCancelled
	}
	return booking.ErrInvalidTransition
}

func (s *BookingService) showStarted(ctx context.Context, b *booking.Booking) (bool, error) {
	now := s.now()
	if b.ShowStartsAt != nil {
		return !now.Before(*b.ShowStartsAt), nil
	}
	sh, err := s.showRepo.GetByID(ctx, b.ShowID)
	if err != nil {
		return false, fmt.Errorf("公演取得に失敗: %w", err)
	}
	return sh.HasStarted(now), nil
}

// GetBooking は座席付きで予約を取得する（所有者または管理者のみ）
func (s *BookingService) GetBooking(ctx context.Context, id string, actor Actor) (*booking.Booking, error) {
	b, err := s.bookingRepo.FindWithSeats(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.canAccess(b) {
		return nil, booking.ErrForbidden
	}
	return b, nil
}

// GetTicket は確定済み予約のチケットを組み立てる
func (s *BookingService) GetTicket(ctx context.Context, id string, actor Actor) (*ticket.Ticket, error) {
	b, err := s.GetBooking(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if b.Status != booking.StatusConfirmed {
		return nil, booking.ErrNotConfirmed
	}
	sh, err := s.showRepo.GetByID(ctx, b.ShowID)
	if err != nil {
		return nil, fmt.Errorf("公演取得に失敗: %w", err)
	}
	return ticket.New(b, sh, b.Seats)
}

func (s *BookingService) ListUserBookings(ctx context.Context, userID string, limit, offset int) ([]*booking.Booking, error) {
	if userID == "" {
		return nil, booking.ErrUserIDRequired
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.bookingRepo.ListByUser(ctx, userID, limit, offset)
}

// ListPayments は予約の支払い記録を作成順に返す
func (s *BookingService) ListPayments(ctx context.Context, bookingID string, actor Actor) ([]*payment.Payment, error) {
	b, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !actor.canAccess(b) {
		return nil, booking.ErrForbidden
	}
	return s.paymentRepo.ListByBooking(ctx, b.ID)
}

// ExpirePendingBookings は保留期限を過ぎた予約を失効させ、座席を解放する
// 決済参照がある予約は先にゲートウェイへ照会し、支払い済みなら確定させる
func (s *BookingService) ExpirePendingBookings(ctx context.Context, ttl time.Duration) (int, error) {
	if ttl <= 0 {
		return 0, fmt.Errorf("%w: 保留期限は正の値である必要があります", booking.ErrInvalidRequest)
	}
	now := s.now()
	expired, err := s.bookingRepo.ListExpiredPending(ctx, now.Add(-ttl), s.sweepBatch)
	if err != nil {
		return 0, fmt.Errorf("期限切れ予約の取得に失敗: %w", err)
	}

	reclaimed := 0
	for _, b := range expired {
		if err := ctx.Err(); err != nil {
			s.metrics.RecordReclaimed(reclaimed)
			return reclaimed, err
		}
		ok, err := s.expire(ctx, b, now, ttl)
		if err != nil {
			logger.Error("期限切れ予約の処理に失敗", logger.BookingID(b.ID), zap.Error(err))
			continue
		}
		if ok {
			reclaimed++
		}
	}
	s.metrics.RecordReclaimed(reclaimed)
	return reclaimed, nil
}

// expire は1件の保留予約を処理する。失効させた場合に true を返す
func (s *BookingService) expire(ctx context.Context, b *booking.Booking, now time.Time, ttl time.Duration) (bool, error) {
	log := logger.With(logger.BookingID(b.ID), logger.ShowID(b.ShowID))
	txnID := ""

	if b.HasPaymentReference() && s.gateway != nil {
		result, err := s.gateway.Lookup(ctx, *b.PaymentReference)
		switch {
		case err != nil:
			if b.CreatedAt.After(now.Add(-2 * ttl)) {
				log.Warn("決済照会に失敗したため今回は見送ります", zap.Error(err))
				return false, nil
			}
			log.Warn("決済照会に失敗しましたが保留期限を大きく超えているため失効させます", zap.Error(err))
		case result.Status == payment.ExternalSuccess:
			_, err := s.confirmPending(ctx, b, result.Amount, result.TransactionID)
			if errors.Is(err, booking.ErrInvalidTransition) {
				return false, nil
			}
			if err == nil {
				log.Info("期限切れ処理中に決済完了を確認したため予約を確定しました")
			}
			return false, err
		default:
			txnID = result.TransactionID
		}
	}

	_, err := s.failPending(ctx, b, txnID, b.HasPaymentReference())
	if errors.Is(err, booking.ErrInvalidTransition) {
		// 遅れて届いた確定が先に反映された
		return false, nil
	}
	if err != nil {
		return false, err
	}
	log.Info("期限切れの予約を失効させました", zap.Time("created_at", b.CreatedAt))
	return true, nil
}

// confirmPending は保留中の予約を確定させ、成功した支払いを記録する
func (s *BookingService) confirmPending(ctx context.Context, b *booking.Booking, amount int, transactionID string) (*booking.Booking, error) {
	var confirmed *booking.Booking
	err := transaction.Run(ctx, s.txManager, func(tx transaction.Tx) error {
		var err error
		if confirmed, err = s.bookingRepo.Transition(ctx, tx, b.ID, booking.AllowedSources(booking.StatusConfirmed), booking.StatusConfirmed); err != nil {
			return err
		}
		p := payment.NewPayment(b.ID, amount, b.PaymentMethod, payment.StatusSuccessful, transactionID)
		return s.paymentRepo.Create(ctx, tx, p)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordTransition(string(booking.StatusPending), string(booking.StatusConfirmed))
	s.publishTicket(ctx, b.ID)
	return confirmed, nil
}

// failPending は保留中の予約を失敗にし、座席を解放する
// recordPayment が true の場合は失敗した支払いも記録する
func (s *BookingService) failPending(ctx context.Context, b *booking.Booking, transactionID string, recordPayment bool) (*booking.Booking, error) {
	var failed *booking.Booking
	err := transaction.Run(ctx, s.txManager, func(tx transaction.Tx) error {
		var err error
		if failed, err = s.bookingRepo.Transition(ctx, tx, b.ID, booking.AllowedSources(booking.StatusFailed), booking.StatusFailed); err != nil {
			return err
		}
		if _, err := s.releaseSeats(ctx, tx, b.ID); err != nil {
			return err
		}
		if !recordPayment {
			return nil
		}
		p := payment.NewPayment(b.ID, b.TotalAmount, b.PaymentMethod, payment.StatusFailed, transactionID)
		return s.paymentRepo.Create(ctx, tx, p)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordTransition(string(booking.StatusPending), string(booking.StatusFailed))
	s.invalidateSeatCache(ctx, b.ShowID)
	return failed, nil
}

// releaseSeats は予約が保持している座席をすべて解放し、解放した数を返す
// 予約の行ロックを取得した後に呼ぶこと
func (s *BookingService) releaseSeats(ctx context.Context, tx transaction.Tx, bookingID string) (int, error) {
	seats, err := s.seatRepo.ListByBooking(ctx, bookingID)
	if err != nil {
		return 0, fmt.Errorf("座席取得に失敗: %w", err)
	}
	if err := s.seatRepo.MarkFree(ctx, tx, seat.IDs(seats), bookingID); err != nil {
		return 0, fmt.Errorf("座席の解放に失敗: %w", err)
	}
	return len(seats), nil
}

func (s *BookingService) invalidateSeatCache(ctx context.Context, showID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, showID); err != nil {
		logger.Warn("空席数キャッシュの削除に失敗", logger.ShowID(showID), zap.Error(err))
	}
}

// publishTicket は確定した予約のチケットを外部へ配信する
// 配信の失敗は予約の状態に影響させない
func (s *BookingService) publishTicket(ctx context.Context, bookingID string) {
	if s.publisher == nil {
		return
	}
	log := logger.With(logger.BookingID(bookingID))
	b, err := s.bookingRepo.FindWithSeats(ctx, bookingID)
	if err != nil {
		log.Error("チケット配信用の予約取得に失敗", zap.Error(err))
		return
	}
	sh, err := s.showRepo.GetByID(ctx, b.ShowID)
	if err != nil {
		log.Warn("チケット配信用の公演取得に失敗", zap.Error(err))
		sh = nil
	}
	t, err := ticket.New(b, sh, b.Seats)
	if err != nil {
		log.Error("チケットの組み立てに失敗", zap.Error(err))
		return
	}
	if err := s.publisher.Publish(ctx, t); err != nil {
		log.Error("チケットの配信に失敗", zap.Error(err))
	}
}

// resolveSeatLabels は公演の座席表からラベルをIDに置き換える
// 座席表にないラベルが1つでもあれば seat.ErrSeatNotFound
func (s *BookingService) resolveSeatLabels(ctx context.Context, showID string, labels []string) ([]string, error) {
	seats, err := s.seatRepo.ListByShow(ctx, showID)
	if err != nil {
		return nil, fmt.Errorf("座席取得に失敗: %w", err)
	}
	byLabel := make(map[string]string, len(seats))
	for _, st := range seats {
		byLabel[st.Label] = st.ID
	}
	ids := make([]string, len(labels))
	for i, label := range labels {
		id, ok := byLabel[label]
		if !ok {
			return nil, fmt.Errorf("%w: %s", seat.ErrSeatNotFound, label)
		}
		ids[i] = id
	}
	return ids, nil
}

// normalizeSeatRefs は空・重複を含む座席の指定を拒否する
// ラベルは大文字にそろえる（c5 → C5）
func normalizeSeatRefs(refs []string, labels bool) ([]string, error) {
	if len(refs) == 0 {
		return nil, fmt.Errorf("%w: 座席を1つ以上指定してください", booking.ErrInvalidRequest)
	}
	seen := make(map[string]struct{}, len(refs))
	out := make([]string, 0, len(refs))
	for _, ref := range refs {
		if labels {
			ref = strings.ToUpper(strings.TrimSpace(ref))
		}
		if ref == "" {
			return nil, fmt.Errorf("%w: 空の座席指定が含まれています", booking.ErrInvalidRequest)
		}
		if _, dup := seen[ref]; dup {
			return nil, fmt.Errorf("%w: 座席の指定が重複しています（%s）", booking.ErrInvalidRequest, ref)
		}
		seen[ref] = struct{}{}
		out = append(out, ref)
	}
	return out, nil
}
