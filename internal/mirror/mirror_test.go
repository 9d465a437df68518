package mirror

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fekuna/omnipos-voice-intake/internal/logger"
	"github.com/fekuna/omnipos-voice-intake/internal/model"
	"google.golang.org/api/option"
)

func TestRow(t *testing.T) {
	code := "5499"
	cost := 5.5
	p := model.Product{
		Name:      "Kallektor",
		Code:      &code,
		Quantity:  3,
		CostPrice: &cost,
		CreatedAt: time.Date(2026, 3, 4, 10, 11, 12, 0, time.UTC),
	}
	row := Row(p)
	want := []any{"Kallektor", "", "5499", "", int64(3), 5.5, "", "UZS", "2026-03-04 10:11:12"}
	if len(row) != len(want) {
		t.Fatalf("len = %d", len(row))
	}
	for i := range want {
		if row[i] != want[i] {
			t.Errorf("col %d = %#v, want %#v", i, row[i], want[i])
		}
	}
}

func TestSheetsMirror_Append(t *testing.T) {
	var (
		gotPath  string
		gotQuery string
		gotBody  struct {
			Values [][]any `json:"values"`
		}
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"spreadsheetId":"sheet-1"}`))
	}))
	defer srv.Close()

	m, err := NewSheetsMirror(context.Background(),
		SheetsConfig{SpreadsheetID: "sheet-1", SheetName: "Inventory"},
		logger.NewNop(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
	)
	if err != nil {
		t.Fatalf("NewSheetsMirror: %v", err)
	}

	err = m.Append(context.Background(), []model.Product{{Name: "A", Quantity: 1}, {Name: "B", Quantity: 2}})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if !strings.Contains(gotPath, "sheet-1") || !strings.HasSuffix(gotPath, ":append") {
		t.Fatalf("path = %s", gotPath)
	}
	if !strings.Contains(gotQuery, "valueInputOption=USER_ENTERED") {
		t.Fatalf("query = %s", gotQuery)
	}
	if len(gotBody.Values) != 2 || gotBody.Values[1][0] != "B" {
		t.Fatalf("values = %v", gotBody.Values)
	}
}

func TestSheetsMirror_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":403,"message":"denied"}}`, http.StatusForbidden)
	}))
	defer srv.Close()

	m, err := NewSheetsMirror(context.Background(), SheetsConfig{SpreadsheetID: "x"}, logger.NewNop(),
		option.WithEndpoint(srv.URL+"/"), option.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("NewSheetsMirror: %v", err)
	}
	if err := m.Append(context.Background(), []model.Product{{Name: "A"}}); err == nil {
		t.Fatal("expected error")
	}
}

func TestNewSheetsMirror_RequiresID(t *testing.T) {
	if _, err := NewSheetsMirror(context.Background(), SheetsConfig{}, logger.NewNop()); err == nil {
		t.Fatal("expected error for empty spreadsheet id")
	}
}

func TestNoop(t *testing.T) {
	var m Mirror = Noop{}
	if err := m.Append(context.Background(), []model.Product{{Name: "A"}}); err != nil {
		t.Fatal(err)
	}
}
