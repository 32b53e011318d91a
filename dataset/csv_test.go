package dataset

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const csvHeader = "Date Created,To Do Dt,Priority,Assign To,Response Time (min),Resolution Time (min),SLA_Respond_Met,SLA_Resolution_Met"

func TestParseCSV_BasicRows(t *testing.T) {
	input := csvHeader + ",Sub Category\n" +
		"2024-01-01 08:00:00,2024-01-02 08:00:00,High,Team A,10,50,true,false,Hardware\n" +
		"2024-01-03,2024-01-04,Low,Team B,30,200,false,true,Software\n"

	rows, stats, err := ParseCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, 2, stats.Rows)
	assert.Equal(t, 0, stats.CoercedCells)
	assert.True(t, stats.HasSubCategory)

	first := rows[0]
	require.NotNil(t, first.DateCreated)
	assert.Equal(t, time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC), *first.DateCreated)
	assert.Equal(t, "High", first.Priority)
	assert.Equal(t, "Team A", first.AssignTo)
	require.NotNil(t, first.ResponseTimeMin)
	assert.Equal(t, 10.0, *first.ResponseTimeMin)
	require.NotNil(t, first.SLARespondMet)
	assert.True(t, *first.SLARespondMet)
	require.NotNil(t, first.SLAResolutionMet)
	assert.False(t, *first.SLAResolutionMet)
	assert.Equal(t, StatusPass, first.SLARespondStatus)
	assert.Equal(t, StatusFail, first.SLAResolutionStatus)
	require.NotNil(t, first.SubCategory)
	assert.Equal(t, "Hardware", *first.SubCategory)
}

func TestParseCSV_CoercesBadCellsToNull(t *testing.T) {
	input := csvHeader + "\n" +
		"not-a-date,2024-01-02,High,Team A,abc,50,maybe,true\n"

	rows, stats, err := ParseCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 1)

	row := rows[0]
	assert.Nil(t, row.DateCreated)
	assert.Nil(t, row.ResponseTimeMin)
	assert.Nil(t, row.SLARespondMet)
	assert.Equal(t, SLAStatus(""), row.SLARespondStatus)

	// date + float + bool all unparseable
	assert.Equal(t, 3, stats.CoercedCells)

	// The row itself survives; only the bad cells become null
	require.NotNil(t, row.ResolutionTimeMin)
	assert.Equal(t, 50.0, *row.ResolutionTimeMin)
}

func TestParseCSV_EmptyCellsAreNullNotCoerced(t *testing.T) {
	input := csvHeader + "\n" +
		",,High,Team A,,,,\n"

	rows, stats, err := ParseCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 1)

	row := rows[0]
	assert.Nil(t, row.DateCreated)
	assert.Nil(t, row.ToDoDate)
	assert.Nil(t, row.ResponseTimeMin)
	assert.Nil(t, row.ResolutionTimeMin)
	assert.Nil(t, row.SLARespondMet)
	assert.Nil(t, row.SLAResolutionMet)
	assert.Equal(t, 0, stats.CoercedCells, "empty cells are not parse failures")
}

func TestParseCSV_MissingRequiredColumn(t *testing.T) {
	input := "Date Created,Priority,Assign To\n2024-01-01,High,Team A\n"

	_, _, err := ParseCSV(strings.NewReader(input))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingColumns)
	assert.Contains(t, err.Error(), ColRespondMet)
}

func TestParseCSV_WithoutSubCategoryColumn(t *testing.T) {
	input := csvHeader + "\n" +
		"2024-01-01,2024-01-02,High,Team A,10,50,true,true\n"

	rows, stats, err := ParseCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 1)

	assert.False(t, stats.HasSubCategory)
	assert.Nil(t, rows[0].SubCategory)
}

func TestParseCSV_KeepsUnknownColumnsAsExtras(t *testing.T) {
	input := csvHeader + ",Site,Notes\n" +
		"2024-01-01,2024-01-02,High,Team A,10,50,true,true,HQ,urgent\n" +
		"2024-01-01,2024-01-02,Low,Team B,10,50,true,true,,\n"

	rows, _, err := ParseCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	require.NotNil(t, rows[0].Extras)
	assert.Equal(t, "HQ", rows[0].Extras["Site"])
	assert.Equal(t, "urgent", rows[0].Extras["Notes"])

	assert.Nil(t, rows[1].Extras, "blank extra cells are dropped")
}

func TestParseCSV_AcceptsMultipleTimeLayouts(t *testing.T) {
	cases := []struct {
		name string
		cell string
		want time.Time
	}{
		{"rfc3339", "2024-03-15T10:30:00Z", time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)},
		{"datetime", "2024-03-15 10:30:00", time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)},
		{"date only", "2024-03-15", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)},
		{"us style", "3/15/2024 10:30", time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := csvHeader + "\n" +
				tc.cell + ",2024-03-16,High,Team A,10,50,true,true\n"

			rows, stats, err := ParseCSV(strings.NewReader(input))
			require.NoError(t, err)
			require.Len(t, rows, 1)
			require.NotNil(t, rows[0].DateCreated)
			assert.True(t, tc.want.Equal(*rows[0].DateCreated))
			assert.Equal(t, 0, stats.CoercedCells)
		})
	}
}

func TestParseCSV_ShortRecordsPadWithNulls(t *testing.T) {
	// Trailing cells omitted entirely; reader is lenient about field counts.
	input := csvHeader + "\n" +
		"2024-01-01,2024-01-02,High,Team A\n"

	rows, _, err := ParseCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0].ResponseTimeMin)
	assert.Nil(t, rows[0].SLARespondMet)
}

func TestStatusOf(t *testing.T) {
	met := true
	missed := false
	assert.Equal(t, StatusPass, StatusOf(&met))
	assert.Equal(t, StatusFail, StatusOf(&missed))
	assert.Equal(t, SLAStatus(""), StatusOf(nil))
}

func TestWorkOrder_Breached(t *testing.T) {
	met := true
	missed := false

	cases := []struct {
		name       string
		respond    *bool
		resolution *bool
		want       bool
	}{
		{"both met", &met, &met, false},
		{"respond missed", &missed, &met, true},
		{"resolution missed", &met, &missed, true},
		{"both missed", &missed, &missed, true},
		{"both unknown", nil, nil, false},
		{"unknown respond, met resolution", nil, &met, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := WorkOrder{SLARespondMet: tc.respond, SLAResolutionMet: tc.resolution}
			assert.Equal(t, tc.want, w.Breached())
		})
	}
}
