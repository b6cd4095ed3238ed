package show

import "time"

// Show は上演（公演回）を表す
// 予約コアからは読み取り専用で、座席数と価格は作成時に固定される
type Show struct {
	ID         string
	Title      string
	StartsAt   time.Time
	TotalSeats int
	Price      int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewShow は新しい公演を作成する
func NewShow(title string, startsAt time.Time, totalSeats, price int) *Show {
	now := time.Now()
	return &Show{
		Title:      title,
		StartsAt:   startsAt,
		TotalSeats: totalSeats,
		Price:      price,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Validate は公演の検証を行う
func (s *Show) Validate() error {
	if s.Title == "" {
		return ErrTitleRequired
	}
	if s.TotalSeats <= 0 {
		return ErrInvalidTotalSeats
	}
	if s.Price <= 0 {
		return ErrInvalidPrice
	}
	return nil
}

// HasStarted は公演が開始済みかを返す
func (s *Show) HasStarted(now time.Time) bool {
	return !now.Before(s.StartsAt)
}

// TotalPrice は座席数に応じた合計金額を返す
func (s *Show) TotalPrice(seatCount int) (int, error) {
	if s.Price <= 0 {
		return 0, ErrInvalidPrice
	}
	return s.Price * seatCount, nil
}
