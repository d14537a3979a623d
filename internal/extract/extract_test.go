package extract

import (
	"strings"
	"testing"
)

func TestDOI(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"bare doi with trailing period", "see 10.1038/nature12373.", "10.1038/nature12373"},
		{"doi prefix with closing paren", "(doi: 10.1000/xyz123)", "10.1000/xyz123"},
		{"doi.org url", "https://doi.org/10.5555/abc-def", "10.5555/abc-def"},
		{"dx.doi.org url", "http://dx.doi.org/10.1093/nar/gkw1099", "10.1093/nar/gkw1099"},
		{"repeated trailing punctuation", "[10.1234/abc]>;", "10.1234/abc"},
		{"doi label without registry prefix", "DOI: abc123", ""},
		{"registrant too short", "10.12/ab", ""},
		{"no doi", "nothing to see here", ""},
		{"empty", "", ""},
		{"first of several", "10.1111/first and 10.2222/second", "10.1111/first"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DOI(tt.input)
			if got != tt.want {
				t.Errorf("DOI(%q) = %q, want %q", tt.input, got, tt.want)
			}
			if got != "" && !strings.HasPrefix(got, "10.") {
				t.Errorf("DOI(%q) = %q, does not start with 10.", tt.input, got)
			}
		})
	}
}

func TestYear(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"2018", 2018},
		{"2018-05-01", 2018},
		{"May 1999", 1999},
		{"1899", 0},
		{"D:20190412103000", 0}, // no word boundary after the year
		{"", 0},
	}
	for _, tt := range tests {
		if got := Year(tt.input); got != tt.want {
			t.Errorf("Year(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}
}

func TestYearFromText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{"parenthesized", "Nature (2021) 5:1-10", 2021},
		{"published label", "Published: 2017 by Someone", 2017},
		{"published case-insensitive", "PUBLISHED 2016", 2016},
		{"copyright", "© 2015 Elsevier Ltd.", 2015},
		{"bare recent year", "received 2024-01-03", 2024},
		{"parenthesized wins over later", "(1999) published 2005", 1999},
		{"bare year outside 2000-2029", "written in 1987", 0},
		{"none", "no year", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := YearFromText(tt.input); got != tt.want {
				t.Errorf("YearFromText(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestCleanTitle(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Microsoft Word - My Paper.pdf", "My Paper"},
		{"  Deep   Learning\tfor  Proteins  ", "Deep Learning for Proteins"},
		{"untitled", ""},
		{"paper.PDF", "paper"},
		{"DOCUMENT1", "1"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := CleanTitle(tt.input); got != tt.want {
			t.Errorf("CleanTitle(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestTitleFromText(t *testing.T) {
	long := strings.Repeat("x", 250)

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"skips short lines", "arXiv\n  Short  \nA Reasonably Long Title Line\nAuthors", "A Reasonably Long Title Line"},
		{"truncates to 200", long, strings.Repeat("x", 200)},
		{"exactly ten characters is too short", "0123456789", ""},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TitleFromText(tt.input); got != tt.want {
				t.Errorf("TitleFromText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseAuthors(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Smith, J.; Doe, K.", "Smith, J., Doe, K."},
		{"Jane Smith and John Doe", "Jane Smith, John Doe"},
		{"Jane Smith AND John Doe", "Jane Smith, John Doe"},
		{"Jane Smith & John Doe ", "Jane Smith, John Doe"},
		{"Alexander Anderson", "Alexander Anderson"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := ParseAuthors(tt.input); got != tt.want {
			t.Errorf("ParseAuthors(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestSplitAuthors(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"Jane Smith and John Doe", []string{"Jane Smith", "John Doe"}},
		{"A, B & C", []string{"A", "B", "C"}},
		{"A,, B, ", []string{"A", "B"}},
		{"", nil},
	}
	for _, tt := range tests {
		got := SplitAuthors(tt.input)
		if strings.Join(got, "|") != strings.Join(tt.want, "|") {
			t.Errorf("SplitAuthors(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
