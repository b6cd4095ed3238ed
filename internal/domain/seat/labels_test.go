package seat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func layoutLabels(total, perRow int) ([]string, error) {
	seats, err := NewLayout("show-1", total, perRow)
	if err != nil {
		return nil, err
	}
	return Labels(seats), nil
}

func TestNewLayout_Labels(t *testing.T) {
	t.Run("10席ごとに行が変わる", func(t *testing.T) {
		labels, err := layoutLabels(12, DefaultSeatsPerRow)

		require.NoError(t, err)
		assert.Equal(t, []string{
			"A1", "A2", "A3", "A4", "A5", "A6", "A7", "A8", "A9", "A10",
			"B1", "B2",
		}, labels)
	})

	t.Run("同じ入力なら同じラベルになる", func(t *testing.T) {
		first, err := layoutLabels(57, DefaultSeatsPerRow)
		require.NoError(t, err)
		second, err := layoutLabels(57, DefaultSeatsPerRow)
		require.NoError(t, err)

		assert.Equal(t, first, second)
		assert.Len(t, first, 57)
		assert.Equal(t, "F7", first[56])
	})

	t.Run("ラベルは一意", func(t *testing.T) {
		labels, err := layoutLabels(260, DefaultSeatsPerRow)
		require.NoError(t, err)

		seen := make(map[string]struct{}, len(labels))
		for _, l := range labels {
			_, dup := seen[l]
			assert.False(t, dup, l)
			seen[l] = struct{}{}
		}
		assert.Equal(t, "Z10", labels[len(labels)-1])
	})

	t.Run("Z行を超えるとエラー", func(t *testing.T) {
		_, err := layoutLabels(261, DefaultSeatsPerRow)
		assert.ErrorIs(t, err, ErrTooManySeats)
	})

	t.Run("座席数が0以下ならエラー", func(t *testing.T) {
		_, err := layoutLabels(0, DefaultSeatsPerRow)
		assert.ErrorIs(t, err, ErrInvalidSeatCount)
	})

	t.Run("行幅が0以下ならエラー", func(t *testing.T) {
		_, err := layoutLabels(10, 0)
		assert.ErrorIs(t, err, ErrInvalidRowWidth)
	})
}

func TestNewLayout(t *testing.T) {
	seats, err := NewLayout("show-1", 3, 2)

	require.NoError(t, err)
	require.Len(t, seats, 3)
	assert.Equal(t, "A1", seats[0].Label)
	assert.Equal(t, "A2", seats[1].Label)
	assert.Equal(t, "B1", seats[2].Label)
	for _, s := range seats {
		assert.Equal(t, "show-1", s.ShowID)
		assert.True(t, s.IsAvailable())
	}
}
