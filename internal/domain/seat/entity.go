package seat

import (
	"sort"
	"time"
)

// Seat は公演ごとの座席を表す
// Occupied == true と BookingID != nil は常に一致する
type Seat struct {
	ID        string
	ShowID    string
	Label     string // 行+番号 (例: A1)
	Row       string
	Number    int
	Occupied  bool
	BookingID *string
	UpdatedAt time.Time
}

// NewSeat は空席の座席を作成する
func NewSeat(showID, row string, number int) *Seat {
	return &Seat{
		ShowID:    showID,
		Label:     FormatLabel(row, number),
		Row:       row,
		Number:    number,
		UpdatedAt: time.Now(),
	}
}

// IsAvailable は座席が予約可能かを返す
func (s *Seat) IsAvailable() bool {
	return !s.Occupied
}

// Occupy は座席を予約に紐付ける
func (s *Seat) Occupy(bookingID string) {
	s.Occupied = true
	s.BookingID = &bookingID
	s.UpdatedAt = time.Now()
}

// Free は座席を解放する
func (s *Seat) Free() {
	s.Occupied = false
	s.BookingID = nil
	s.UpdatedAt = time.Now()
}

// HeldBy は座席が指定の予約に紐付いているかを返す
func (s *Seat) HeldBy(bookingID string) bool {
	return s.BookingID != nil && *s.BookingID == bookingID
}

// Validate は座席の検証を行う
func (s *Seat) Validate() error {
	if s.ShowID == "" {
		return ErrShowIDRequired
	}
	if s.Label == "" {
		return ErrLabelRequired
	}
	if s.Occupied != (s.BookingID != nil) {
		return ErrInconsistentOccupancy
	}
	return nil
}

// Less は座席の並び順（行→番号）を返す
func Less(a, b *Seat) bool {
	if a.Row != b.Row {
		return a.Row < b.Row
	}
	return a.Number < b.Number
}

// SortByPosition は座席を行→番号順に並べ替える
func SortByPosition(seats []*Seat) {
	sort.SliceStable(seats, func(i, j int) bool { return Less(seats[i], seats[j]) })
}

// IDs は座席IDの一覧を返す
func IDs(seats []*Seat) []string {
	ids := make([]string, len(seats))
	for i, s := range seats {
		ids[i] = s.ID
	}
	return ids
}

// Labels は座席ラベルの一覧を返す
func Labels(seats []*Seat) []string {
	labels := make([]string, len(seats))
	for i, s := range seats {
		labels[i] = s.Label
	}
	return labels
}
