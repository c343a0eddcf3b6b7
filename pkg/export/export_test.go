package export

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSV(t *testing.T) {
	table := Table{
		Columns: []string{"Student", "Filename"},
		Rows: [][]string{
			{"Ana", "essay.pdf"},
			{"Ben", "draft, final.pdf"},
		},
	}

	data, err := CSV(table)
	require.NoError(t, err)
	assert.Equal(t, "Student,Filename\nAna,essay.pdf\nBen,\"draft, final.pdf\"\n", string(data))
}

func TestCSVRejectsRaggedRows(t *testing.T) {
	_, err := CSV(Table{Columns: []string{"A", "B"}, Rows: [][]string{{"only one"}}})
	assert.Error(t, err)
}

func TestCSVRequiresColumns(t *testing.T) {
	_, err := CSV(Table{})
	assert.Error(t, err)
}

func TestPDF(t *testing.T) {
	table := Table{
		Title:   "Essay One",
		Columns: []string{"Student", "Filename"},
		Rows:    [][]string{{"Ana", "essay.pdf"}},
	}

	data, err := PDF(table)
	require.NoError(t, err)
	assert.True(t, len(data) > 0)
	assert.Equal(t, "%PDF", string(data[:4]))
}
