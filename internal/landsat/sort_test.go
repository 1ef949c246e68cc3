package landsat

import (
	"testing"
)

func TestSortNatural(t *testing.T) {
	testCases := []struct {
		name     string
		input    []string
		expected []string
	}{
		{
			name:     "numeric runs",
			input:    []string{"B2.TIF", "B10.TIF", "B1.TIF"},
			expected: []string{"B1.TIF", "B2.TIF", "B10.TIF"},
		},
		{
			name: "landsat tiles",
			input: []string{
				"LC08_L1TP_180031_20130730_20200912_02_T1_QA_RADSAT.TIF",
				"LC08_L1TP_180031_20130730_20200912_02_T1_B11.TIF",
				"LC08_L1TP_180031_20130730_20200912_02_T1_B9.TIF",
				"LC08_L1TP_180031_20130730_20200912_02_T1_QA_PIXEL.TIF",
				"LC08_L1TP_180031_20130730_20200912_02_T1_B1.TIF",
				"LC08_L1TP_180031_20130730_20200912_02_T1_B10.TIF",
			},
			expected: []string{
				"LC08_L1TP_180031_20130730_20200912_02_T1_B1.TIF",
				"LC08_L1TP_180031_20130730_20200912_02_T1_B9.TIF",
				"LC08_L1TP_180031_20130730_20200912_02_T1_B10.TIF",
				"LC08_L1TP_180031_20130730_20200912_02_T1_B11.TIF",
				"LC08_L1TP_180031_20130730_20200912_02_T1_QA_PIXEL.TIF",
				"LC08_L1TP_180031_20130730_20200912_02_T1_QA_RADSAT.TIF",
			},
		},
		{
			name:     "leading digits and prefixes",
			input:    []string{"a10", "a", "a9b", "a9"},
			expected: []string{"a", "a9", "a9b", "a10"},
		},
		{
			name:     "very long digit runs",
			input:    []string{"x123456789012345678901", "x99"},
			expected: []string{"x99", "x123456789012345678901"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			names := append([]string(nil), tc.input...)
			SortNatural(names)

			for i := range tc.expected {
				if names[i] != tc.expected[i] {
					t.Errorf("position %d: expected %s, got %s", i, tc.expected[i], names[i])
				}
			}
		})
	}
}

func TestNaturalLess(t *testing.T) {
	if !NaturalLess("B2", "B10") {
		t.Error("B2 should sort before B10")
	}
	if NaturalLess("B10", "B2") {
		t.Error("B10 should not sort before B2")
	}
	if NaturalLess("B7", "B7") {
		t.Error("equal names are not less")
	}
}
