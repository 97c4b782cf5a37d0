package util_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nrql-builder-backend/internal/util"
)

func TestSplitList(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{name: "Single", input: "404", expected: []string{"404"}},
		{name: "Spaces", input: " 404 ,  503 ", expected: []string{"404", "503"}},
		{name: "Empty Entries", input: "404,,503,", expected: []string{"404", "503"}},
		{name: "Only Commas", input: " , ,", expected: []string{}},
		{name: "Empty", input: "", expected: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, util.SplitList(tt.input))
		})
	}
}

func TestQuote(t *testing.T) {
	assert.Equal(t, []string{"'/a'", "'/b'"}, util.Quote([]string{"/a", "/b"}))
}

func TestParseLocal(t *testing.T) {
	loc := time.FixedZone("test", -5*3600)

	got, err := util.ParseLocal("2024-03-05T09:07", loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 5, 9, 7, 0, 0, loc), got)

	got, err = util.ParseLocal("2024-03-05T09:07:42", loc)
	require.NoError(t, err)
	assert.Equal(t, 42, got.Second())

	_, err = util.ParseLocal("05/03/2024 09:07", loc)
	assert.Error(t, err)
}

func TestParseTimeFlexible(t *testing.T) {
	got, err := util.ParseTimeFlexible("2024-03-05T09:07:00+02:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 5, 7, 7, 0, 0, time.UTC), got)

	got, err = util.ParseTimeFlexible("1709629620000")
	require.NoError(t, err)
	assert.Equal(t, int64(1709629620000), got.UnixMilli())

	got, err = util.ParseTimeFlexible("2024-03-05 09:07:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 5, 9, 7, 0, 0, time.UTC), got)

	_, err = util.ParseTimeFlexible("yesterday")
	assert.Error(t, err)
}
