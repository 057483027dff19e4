package catalog

import (
	"errors"
	"strings"
	"testing"

	contractx "github.com/siravitp/agentic-recsys/agent/contract"
)

func TestNormalizeCooccurrencesCanonicalizesPairOrder(t *testing.T) {
	t.Parallel()

	rows := []Cooccurrence{
		{Product1: "Zelda", Product2: "Mario Kart 8", CooccurrenceCount: 7},
	}

	got := NormalizeCooccurrences(rows)
	if len(got) != 1 {
		t.Fatalf("got %d rows, want 1", len(got))
	}
	if got[0].Product1 != "Mario Kart 8" || got[0].Product2 != "Zelda" {
		t.Fatalf("pair not canonical: (%q, %q)", got[0].Product1, got[0].Product2)
	}
}

func TestNormalizeCooccurrencesDropsDuplicatePairs(t *testing.T) {
	t.Parallel()

	rows := []Cooccurrence{
		{Product1: "A", Product2: "B", CooccurrenceCount: 5},
		{Product1: "B", Product2: "A", CooccurrenceCount: 9},
		{Product1: "A", Product2: "C", CooccurrenceCount: 2},
	}

	got := NormalizeCooccurrences(rows)
	if len(got) != 2 {
		t.Fatalf("got %d rows, want 2", len(got))
	}
	if got[0].CooccurrenceCount != 5 {
		t.Fatalf("duplicate resolution kept count %d, want first occurrence 5", got[0].CooccurrenceCount)
	}
}

func TestReadCooccurrenceCSVSkipsHeader(t *testing.T) {
	t.Parallel()

	input := "product1,product2,cooccurrence_count\nMario Kart 8,Zelda,12\nSplatoon 3,Mario Kart 8,4\n"

	rows, err := ReadCooccurrenceCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadCooccurrenceCSV() error = %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[0].Product1 != "Mario Kart 8" || rows[0].CooccurrenceCount != 12 {
		t.Fatalf("unexpected first row: %+v", rows[0])
	}
}

func TestReadCooccurrenceCSVWithoutHeader(t *testing.T) {
	t.Parallel()

	rows, err := ReadCooccurrenceCSV(strings.NewReader("A,B,3\n"))
	if err != nil {
		t.Fatalf("ReadCooccurrenceCSV() error = %v", err)
	}
	if len(rows) != 1 || rows[0].CooccurrenceCount != 3 {
		t.Fatalf("unexpected rows: %+v", rows)
	}
}

func TestReadCooccurrenceCSVRejectsBadCount(t *testing.T) {
	t.Parallel()

	_, err := ReadCooccurrenceCSV(strings.NewReader("A,B,3\nC,D,many\n"))
	if !errors.Is(err, contractx.ErrInvalidInput) {
		t.Fatalf("error = %v, want ErrInvalidInput", err)
	}
}

func TestReadCooccurrenceCSVRejectsNegativeCount(t *testing.T) {
	t.Parallel()

	_, err := ReadCooccurrenceCSV(strings.NewReader("A,B,-1\n"))
	if !errors.Is(err, contractx.ErrInvalidInput) {
		t.Fatalf("error = %v, want ErrInvalidInput", err)
	}
}

func TestProductRecordToModel(t *testing.T) {
	t.Parallel()

	rec := ProductRecord{
		Name:        "Mario Kart 8 Deluxe",
		ReleaseDate: "2017-04-28",
		TimesSold:   100,
		Type:        "Game",
		Category:    "Racing",
		Text:        "Kart racing for the whole family.",
		Tokens:      8,
		Embedding:   make([]float32, EmbeddingDim),
	}

	model, err := rec.ToModel()
	if err != nil {
		t.Fatalf("ToModel() error = %v", err)
	}
	if model.Name != rec.Name {
		t.Fatalf("name = %q, want %q", model.Name, rec.Name)
	}
	if model.ReleaseDate == nil || model.ReleaseDate.Format("2006-01-02") != "2017-04-28" {
		t.Fatalf("release date = %v, want 2017-04-28", model.ReleaseDate)
	}
}

func TestProductRecordToModelValidation(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		rec  ProductRecord
	}{
		{
			name: "missing name",
			rec:  ProductRecord{Text: "text", Embedding: make([]float32, EmbeddingDim)},
		},
		{
			name: "missing text",
			rec:  ProductRecord{Name: "Thing", Embedding: make([]float32, EmbeddingDim)},
		},
		{
			name: "wrong embedding dim",
			rec:  ProductRecord{Name: "Thing", Text: "text", Embedding: make([]float32, 3)},
		},
		{
			name: "bad release date",
			rec: ProductRecord{
				Name: "Thing", Text: "text", ReleaseDate: "April 2017",
				Embedding: make([]float32, EmbeddingDim),
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if _, err := tc.rec.ToModel(); !errors.Is(err, contractx.ErrInvalidInput) {
				t.Fatalf("error = %v, want ErrInvalidInput", err)
			}
		})
	}
}
