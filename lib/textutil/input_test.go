package textutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseYears(t *testing.T) {
	require.Equal(t, []int{2021, 2022, 2023, 2024, 2026}, ParseYears("2021-2024,2026"))
	require.Equal(t, []int{2023, 2025, 2026}, ParseYears("2023, 2025-2026"))
	require.Empty(t, ParseYears("abc"))
	require.Empty(t, ParseYears(""))

	// out-of-range years are dropped silently
	require.Empty(t, ParseYears("1999"))
	require.Empty(t, ParseYears("2101"))
	require.Equal(t, []int{2000, 2100}, ParseYears("1998-2000, 2100-2105"))

	// duplicates collapse, output is ascending
	require.Equal(t, []int{2024, 2025}, ParseYears("2025, 2024, 2025"))

	// inverted ranges are ignored
	require.Empty(t, ParseYears("2026-2024"))
}

func TestValidateEmails(t *testing.T) {
	emails, err := ValidateEmails("a@b.com,c@d.org")
	require.NoError(t, err)
	require.Equal(t, []string{"a@b.com", "c@d.org"}, emails)

	emails, err = ValidateEmails("a@b.com; c@d.org")
	require.NoError(t, err)
	require.Equal(t, []string{"a@b.com", "c@d.org"}, emails)

	_, err = ValidateEmails("a@b.com; bad, c@d.org")
	require.Error(t, err)
	require.Contains(t, err.Error(), "bad")

	emails, err = ValidateEmails("")
	require.NoError(t, err)
	require.Empty(t, emails)
}

func TestMatchName(t *testing.T) {
	require.True(t, MatchName("Grand TOTAL", []string{"total"}))
	require.True(t, MatchName("Wheelchair Van", []string{"wheelchair"}))
	require.False(t, MatchName("Mini Coach", []string{"total", "wheelchair"}))
}
