package reports

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tickethub/models"
)

func TestSortRevenueRows_ByNumberDesc(t *testing.T) {
	rows := []models.RevenueRow{
		{EventID: "a", TotalRevenue: 10},
		{EventID: "b", TotalRevenue: 30},
		{EventID: "c", TotalRevenue: 20},
	}

	sortRevenueRows(rows, "totalRevenue", "desc")

	assert.Equal(t, []string{"b", "c", "a"}, []string{rows[0].EventID, rows[1].EventID, rows[2].EventID})
}

func TestSortRevenueRows_ByStringAsc(t *testing.T) {
	rows := []models.RevenueRow{
		{EventTitle: "Zeta"},
		{EventTitle: "Alpha"},
		{EventTitle: "Mid"},
	}

	sortRevenueRows(rows, "eventTitle", "asc")

	assert.Equal(t, "Alpha", rows[0].EventTitle)
	assert.Equal(t, "Zeta", rows[2].EventTitle)
}

func TestSortRevenueRows_UnknownColumnFallsBack(t *testing.T) {
	rows := []models.RevenueRow{
		{EventID: "low", TotalRevenue: 1},
		{EventID: "high", TotalRevenue: 2},
	}

	sortRevenueRows(rows, "nope", "desc")
	assert.Equal(t, "high", rows[0].EventID)
}

func TestSortAttendanceRows_ByPercentage(t *testing.T) {
	rows := []models.AttendanceRow{
		{EventID: "a", AttendancePercentage: 50},
		{EventID: "b", AttendancePercentage: 90},
	}

	sortAttendanceRows(rows, "attendancePercentage", "desc")
	assert.Equal(t, "b", rows[0].EventID)

	sortAttendanceRows(rows, "attendancePercentage", "asc")
	assert.Equal(t, "a", rows[0].EventID)
}

func TestPaginate_LastPartialPage(t *testing.T) {
	window, p := paginate(45, 3, 20)

	assert.Equal(t, 40, window.start)
	assert.Equal(t, 45, window.end)
	assert.Equal(t, 3, p.CurrentPage)
	assert.Equal(t, 20, p.PageSize)
	assert.Equal(t, 45, p.TotalItems)
	assert.Equal(t, 3, p.TotalPages)
	assert.False(t, p.HasNextPage)
	assert.True(t, p.HasPreviousPage)
}

func TestPaginate_FirstPage(t *testing.T) {
	window, p := paginate(45, 1, 20)

	assert.Equal(t, 0, window.start)
	assert.Equal(t, 20, window.end)
	assert.True(t, p.HasNextPage)
	assert.False(t, p.HasPreviousPage)
}

func TestPaginate_PastTheEnd(t *testing.T) {
	window, p := paginate(5, 4, 20)

	assert.Equal(t, window.start, window.end)
	assert.Equal(t, 1, p.TotalPages)
	assert.False(t, p.HasNextPage)
}

func TestPaginate_Empty(t *testing.T) {
	window, p := paginate(0, 1, 20)

	assert.Equal(t, 0, window.start)
	assert.Equal(t, 0, window.end)
	assert.Equal(t, 0, p.TotalPages)
	assert.False(t, p.HasNextPage)
	assert.False(t, p.HasPreviousPage)
}

func TestPaginate_ClampsBadInput(t *testing.T) {
	_, p := paginate(10, 0, -5)

	require.Equal(t, 1, p.CurrentPage)
	require.Equal(t, 20, p.PageSize)
}
