package seat

import "strconv"

// DefaultSeatsPerRow は1行あたりの座席数
const DefaultSeatsPerRow = 10

const rowLetters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// MaxRows は行ラベル（A〜Z）の上限
const MaxRows = len(rowLetters)

// Position は生成された座席位置
type Position struct {
	Row    string
	Number int
}

// Label は座席ラベルを返す
func (p Position) Label() string {
	return FormatLabel(p.Row, p.Number)
}

// FormatLabel は行と番号からラベルを作る
func FormatLabel(row string, number int) string {
	return row + strconv.Itoa(number)
}

// GenerateLayout は総座席数から決定的に座席位置を生成する
// A1..A10, B1..B10, ... の順で、行がZを超える場合はエラー
func GenerateLayout(total, perRow int) ([]Position, error) {
	if total <= 0 {
		return nil, ErrInvalidSeatCount
	}
	if perRow <= 0 {
		return nil, ErrInvalidRowWidth
	}
	if (total+perRow-1)/perRow > MaxRows {
		return nil, ErrTooManySeats
	}

	positions := make([]Position, total)
	for i := 0; i < total; i++ {
		positions[i] = Position{
			Row:    string(rowLetters[i/perRow]),
			Number: i%perRow + 1,
		}
	}
	return positions, nil
}

// NewLayout は公演の座席を一括生成する
func NewLayout(showID string, total, perRow int) ([]*Seat, error) {
	positions, err := GenerateLayout(total, perRow)
	if err != nil {
		return nil, err
	}
	seats := make([]*Seat, len(positions))
	for i, p := range positions {
		seats[i] = NewSeat(showID, p.Row, p.Number)
	}
	return seats, nil
}
