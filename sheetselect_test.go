package diaryfill

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSheetMatcher_MatchesMonth(t *testing.T) {
	m := NewSheetMatcher("", "")
	tests := []struct {
		title string
		month int
		want  bool
	}{
		{"日誌5月", 5, true},
		{"日誌 5 月", 5, true},
		{"日誌05月", 5, true},
		{"日誌５月", 5, true},
		{"日誌5月 ", 5, true},
		{"日誌　5月", 5, true},
		{"日誌5月　", 5, true},
		{"日誌 ５　月", 5, true},
		{"日誌　6月", 5, false},
		{"2024日誌5月", 5, true},
		{"日誌15月", 5, false},
		{"日誌5月分", 5, false},
		{"日誌6月", 5, false},
		{"日誌10月", 10, true},
		{"日誌110月", 10, false},
		{"Sheet1", 5, false},
	}
	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.want, m.MatchesMonth(tt.title, tt.month))
		})
	}
}

func TestSheetMatcher_ExtractMonth(t *testing.T) {
	m := NewSheetMatcher("", "")

	got, ok := m.ExtractMonth("日誌 12 月")
	require.True(t, ok)
	assert.Equal(t, 12, got)

	got, ok = m.ExtractMonth("日誌０３月")
	require.True(t, ok)
	assert.Equal(t, 3, got)

	got, ok = m.ExtractMonth("日誌　5月")
	require.True(t, ok)
	assert.Equal(t, 5, got)

	got, ok = m.ExtractMonth("日誌 ５　月")
	require.True(t, ok)
	assert.Equal(t, 5, got)

	_, ok = m.ExtractMonth("日誌13月")
	assert.False(t, ok)
	_, ok = m.ExtractMonth("日誌0月")
	assert.False(t, ok)
	_, ok = m.ExtractMonth("日誌")
	assert.False(t, ok)
}

func TestSheetMatcher_Select(t *testing.T) {
	m := NewSheetMatcher("", "")

	t.Run("primary", func(t *testing.T) {
		sel, err := m.Select([]string{"表紙", "日誌4月", "日誌５月", "日誌6月"}, "表紙", 5)
		require.NoError(t, err)
		assert.Equal(t, Selection{Sheet: "日誌５月", Reason: SelectedPrimary, Month: 5}, sel)
	})

	t.Run("ideographic space", func(t *testing.T) {
		sel, err := m.Select([]string{"日誌　5月", "日誌　6月"}, "日誌　5月", 5)
		require.NoError(t, err)
		assert.Equal(t, Selection{Sheet: "日誌　5月", Reason: SelectedPrimary, Month: 5}, sel)

		sel, err = m.Select([]string{"日誌 ５　月", "日誌5月　"}, "", 5)
		require.NoError(t, err)
		assert.Equal(t, "日誌 ５　月", sel.Sheet)
		assert.Equal(t, SelectedPrimary, sel.Reason)
	})

	t.Run("month out of range", func(t *testing.T) {
		assert.False(t, m.MatchesMonth("日誌0月", 0))
		assert.False(t, m.MatchesMonth("日誌13月", 13))
	})

	t.Run("first primary wins", func(t *testing.T) {
		sel, err := m.Select([]string{"日誌05月", "日誌5月"}, "", 5)
		require.NoError(t, err)
		assert.Equal(t, "日誌05月", sel.Sheet)
	})

	t.Run("fallback to largest month", func(t *testing.T) {
		sel, err := m.Select([]string{"日誌3月", "日誌11月", "日誌4月"}, "日誌3月", 5)
		require.NoError(t, err)
		assert.Equal(t, Selection{Sheet: "日誌11月", Reason: SelectedFallback, Month: 11}, sel)
	})

	t.Run("fallback tie keeps first", func(t *testing.T) {
		sel, err := m.Select([]string{"日誌4月", "日誌 4月(控)", "日誌 04 月"}, "", 5)
		require.NoError(t, err)
		assert.Equal(t, "日誌4月", sel.Sheet)
		assert.Equal(t, SelectedFallback, sel.Reason)
	})

	t.Run("fallback ignores out of range months", func(t *testing.T) {
		sel, err := m.Select([]string{"日誌99月", "日誌2月"}, "", 5)
		require.NoError(t, err)
		assert.Equal(t, "日誌2月", sel.Sheet)
	})

	t.Run("active sheet", func(t *testing.T) {
		sel, err := m.Select([]string{"Sheet1", "Notes"}, "Notes", 5)
		require.NoError(t, err)
		assert.Equal(t, Selection{Sheet: "Notes", Reason: SelectedActive}, sel)
	})

	t.Run("unknown active sheet", func(t *testing.T) {
		sel, err := m.Select([]string{"Sheet1", "Notes"}, "Missing", 5)
		require.NoError(t, err)
		assert.Equal(t, "Sheet1", sel.Sheet)
		assert.Equal(t, SelectedActive, sel.Reason)
	})

	t.Run("no sheets", func(t *testing.T) {
		_, err := m.Select(nil, "", 5)
		assert.ErrorIs(t, err, ErrNoWorksheets)
	})
}

func TestSheetMatcher_CustomMarkers(t *testing.T) {
	m := NewSheetMatcher("Diary", "M")
	assert.True(t, m.MatchesMonth("Diary 5M", 5))
	assert.True(t, m.MatchesMonth("Diary５M", 5))
	assert.False(t, m.MatchesMonth("日誌5月", 5))

	sel, err := m.Select([]string{"Diary 2M", "Diary 9M"}, "", 5)
	require.NoError(t, err)
	assert.Equal(t, "Diary 9M", sel.Sheet)
	assert.Equal(t, 9, sel.Month)
}
