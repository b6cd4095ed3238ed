// Package memory は予約コアのインメモリ実装を提供する
// 行単位のロックとアンドゥログで SELECT ... FOR UPDATE とロールバックを再現する
// スコープ外の読み取りには未コミットの変更を見せず、コミット済みの姿を返す（READ COMMITTED 相当）
// テストと STORAGE=memory の開発用途向け
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/rajanshah23/Theatre-Booking-System/internal/domain/booking"
	"github.com/rajanshah23/Theatre-Booking-System/internal/domain/payment"
	"github.com/rajanshah23/Theatre-Booking-System/internal/domain/seat"
	"github.com/rajanshah23/Theatre-Booking-System/internal/domain/show"
	"github.com/rajanshah23/Theatre-Booking-System/internal/domain/transaction"
)

var (
	// ErrForeignTx は他のストアのトランザクションが渡された場合のエラー
	ErrForeignTx = errors.New("このストアのトランザクションではありません")
	// ErrTxClosed は終了済みトランザクションを使用した場合のエラー
	ErrTxClosed = errors.New("トランザクションは既に終了しています")
)

// Store はインメモリのデータストア
type Store struct {
	mu       sync.Mutex
	shows    map[string]*show.Show
	seats    map[string]*seat.Seat
	bookings map[string]*booking.Booking
	payments []*payment.Payment

	// 未コミットの変更がある行のコミット済みの姿
	seatsBefore    map[string]*seat.Seat
	bookingsBefore map[string]*booking.Booking // nil は未コミットの新規作成
	paymentsHidden map[string]struct{}

	locksMu sync.Mutex
	locks   map[string]chan struct{}
}

// NewStore は空のストアを作成する
func NewStore() *Store {
	return &Store{
		shows:    make(map[string]*show.Show),
		seats:    make(map[string]*seat.Seat),
		bookings: make(map[string]*booking.Booking),

		seatsBefore:    make(map[string]*seat.Seat),
		bookingsBefore: make(map[string]*booking.Booking),
		paymentsHidden: make(map[string]struct{}),

		locks: make(map[string]chan struct{}),
	}
}

// Begin は新しいトランザクションを開始する
func (s *Store) Begin(ctx context.Context) (transaction.Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &Tx{store: s, held: make(map[string]chan struct{})}, nil
}

func (s *Store) rowLock(key string) chan struct{} {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	ch, ok := s.locks[key]
	if !ok {
		ch = make(chan struct{}, 1)
		s.locks[key] = ch
	}
	return ch
}

// Tx はインメモリストアのトランザクション
// 取得した行ロックはコミットまたはロールバックまで保持される
type Tx struct {
	store *Store

	mu   sync.Mutex
	held map[string]chan struct{}
	undo []func()
	// 終了時にコミット済みの姿を片付ける処理
	reveal []func()
	done   bool
}

// lock は指定キーの行ロックを取得する（同一トランザクション内では再入可能）
// キーはソートして取得し、同じバッチ内でのデッドロックを避ける
func (t *Tx) lock(ctx context.Context, keys ...string) error {
	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)

	for _, key := range sorted {
		t.mu.Lock()
		if t.done {
			t.mu.Unlock()
			return ErrTxClosed
		}
		_, ok := t.held[key]
		t.mu.Unlock()
		if ok {
			continue
		}

		ch := t.store.rowLock(key)
		select {
		case ch <- struct{}{}:
		case <-ctx.Done():
			return ctx.Err()
		}

		t.mu.Lock()
		t.held[key] = ch
		t.mu.Unlock()
	}
	return nil
}

// record はロールバック時に実行する取り消し処理を積む
// store.mu を保持した状態で呼ぶこと
func (t *Tx) record(fn func()) {
	t.mu.Lock()
	t.undo = append(t.undo, fn)
	t.mu.Unlock()
}

// hideSeat は座席をこのトランザクションで書き換える前に呼び、コミット済みの姿を残す
// store.mu を保持した状態で呼ぶこと
func (t *Tx) hideSeat(current *seat.Seat) {
	id := current.ID
	if _, ok := t.store.seatsBefore[id]; ok {
		return
	}
	t.store.seatsBefore[id] = cloneSeat(current)
	t.onEnd(func() { delete(t.store.seatsBefore, id) })
}

// hideBooking は hideSeat の予約版。current が nil なら新規作成として扱う
func (t *Tx) hideBooking(id string, current *booking.Booking) {
	if _, ok := t.store.bookingsBefore[id]; ok {
		return
	}
	var before *booking.Booking
	if current != nil {
		before = cloneBooking(current)
	}
	t.store.bookingsBefore[id] = before
	t.onEnd(func() { delete(t.store.bookingsBefore, id) })
}

func (t *Tx) hidePayment(id string) {
	t.store.paymentsHidden[id] = struct{}{}
	t.onEnd(func() { delete(t.store.paymentsHidden, id) })
}

func (t *Tx) onEnd(fn func()) {
	t.mu.Lock()
	t.reveal = append(t.reveal, fn)
	t.mu.Unlock()
}

// Commit はトランザクションをコミットする
func (t *Tx) Commit() error {
	t.mu.Lock()
	if t.done {
		t.mu.Unlock()
		return ErrTxClosed
	}
	t.done = true
	t.undo = nil
	reveal := t.reveal
	t.reveal = nil
	t.mu.Unlock()

	// 行ロックを手放す前に公開する。後続の書き込みが残骸を拾わないように
	t.store.mu.Lock()
	for _, fn := range reveal {
		fn()
	}
	t.store.mu.Unlock()

	t.mu.Lock()
	t.releaseLocked()
	t.mu.Unlock()
	return nil
}

// Rollback は変更を取り消してロックを解放する
// コミット後に呼ばれた場合は何もしない
func (t *Tx) Rollback() error {
	t.mu.Lock()
	if t.done {
		t.mu.Unlock()
		return nil
	}
	t.done = true
	undo := t.undo
	reveal := t.reveal
	t.undo = nil
	t.reveal = nil
	t.mu.Unlock()

	t.store.mu.Lock()
	for i := len(undo) - 1; i >= 0; i-- {
		undo[i]()
	}
	for _, fn := range reveal {
		fn()
	}
	t.store.mu.Unlock()

	t.mu.Lock()
	t.releaseLocked()
	t.mu.Unlock()
	return nil
}

func (t *Tx) releaseLocked() {
	for key, ch := range t.held {
		<-ch
		delete(t.held, key)
	}
}

func (s *Store) unwrap(tx transaction.Tx) (*Tx, error) {
	mtx, ok := tx.(*Tx)
	if !ok || mtx.store != s {
		return nil, ErrForeignTx
	}
	mtx.mu.Lock()
	defer mtx.mu.Unlock()
	if mtx.done {
		return nil, ErrTxClosed
	}
	return mtx, nil
}

// committedSeat はスコープ外から見える座席を返す。store.mu を保持した状態で呼ぶこと
func (s *Store) committedSeat(current *seat.Seat) *seat.Seat {
	if before, ok := s.seatsBefore[current.ID]; ok {
		return before
	}
	return current
}

// committedBooking はスコープ外から見える予約を返す。未コミットの新規作成なら nil
func (s *Store) committedBooking(id string) *booking.Booking {
	if before, ok := s.bookingsBefore[id]; ok {
		return before
	}
	return s.bookings[id]
}

func seatKey(id string) string    { return "seat:" + id }
func bookingKey(id string) string { return "booking:" + id }

// Shows は公演リポジトリを返す
func (s *Store) Shows() *ShowRepository { return &ShowRepository{store: s} }

// Seats は座席リポジトリを返す
func (s *Store) Seats() *SeatRepository { return &SeatRepository{store: s} }

// Bookings は予約リポジトリを返す
func (s *Store) Bookings() *BookingRepository { return &BookingRepository{store: s} }

// Payments は支払いリポジトリを返す
func (s *Store) Payments() *PaymentRepository { return &PaymentRepository{store: s} }

var _ transaction.Manager = (*Store)(nil)
