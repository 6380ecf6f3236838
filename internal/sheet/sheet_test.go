package sheet_test

import (
	"strings"
	"testing"

	"livelens/internal/sheet"
)

func TestReadCSV(t *testing.T) {
	data := `時間,売上,注文数
18:00,1000,5
18:05,0,0

18:10,500,2
`
	rows, err := sheet.ReadCSV(strings.NewReader(data))
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[0]["時間"] != "18:00" || rows[0]["売上"] != "1000" {
		t.Fatalf("unexpected first row: %v", rows[0])
	}
	if rows[2]["注文数"] != "2" {
		t.Fatalf("unexpected third row: %v", rows[2])
	}
}

func TestReadCSVBlankHeaderGetsPositionalName(t *testing.T) {
	data := "時間,,売上\n18:00,x,100\n"
	rows, err := sheet.ReadCSV(strings.NewReader(data))
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if rows[0]["col_1"] != "x" {
		t.Fatalf("blank header should become col_1, got %v", rows[0])
	}
}

func TestReadCSVHeaderOnly(t *testing.T) {
	rows, err := sheet.ReadCSV(strings.NewReader("時間,売上\n"))
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if rows != nil {
		t.Fatalf("expected no rows, got %v", rows)
	}
}

func TestReadCSVRaggedRows(t *testing.T) {
	data := "時間,売上,注文数\n18:00,100\n18:05,200,3,extra\n"
	rows, err := sheet.ReadCSV(strings.NewReader(data))
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if _, ok := rows[0]["注文数"]; ok {
		t.Fatalf("short row should not carry missing column: %v", rows[0])
	}
	if rows[1]["注文数"] != "3" {
		t.Fatalf("long row lost a cell: %v", rows[1])
	}
}

func TestLoadRejectsUnknownExtension(t *testing.T) {
	if _, err := sheet.Load("data.parquet"); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestProducts(t *testing.T) {
	data := `商品名,ブランド名,価格,画像URL,カテゴリ
京極クレンジングオイル,KYOGOKU,2980,https://cdn.example/oil.jpg,スキンケア
,NoName,100,,misc
カラーシャンプー,KYOGOKU,1980,,ヘアケア
`
	rows, err := sheet.ReadCSV(strings.NewReader(data))
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	products := sheet.Products(rows)
	if len(products) != 2 {
		t.Fatalf("expected 2 products (nameless row dropped), got %d", len(products))
	}
	first := products[0]
	if first.Name != "京極クレンジングオイル" || first.Brand != "KYOGOKU" {
		t.Fatalf("unexpected product: %+v", first)
	}
	if first.ImageURL != "https://cdn.example/oil.jpg" || first.Category != "スキンケア" {
		t.Fatalf("unexpected product: %+v", first)
	}
	if products[1].ImageURL != "" {
		t.Fatalf("expected empty image url, got %q", products[1].ImageURL)
	}
	if first.Raw["価格"] != "2980" {
		t.Fatalf("raw row not preserved: %v", first.Raw)
	}
}

func TestProductsEnglishHeaders(t *testing.T) {
	data := "Product Name,Brand,Price\nCleansing Oil,KYOGOKU,19.99\n"
	rows, err := sheet.ReadCSV(strings.NewReader(data))
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	products := sheet.Products(rows)
	if len(products) != 1 {
		t.Fatalf("expected 1 product, got %d", len(products))
	}
	if products[0].Name != "Cleansing Oil" || products[0].Price != "19.99" {
		t.Fatalf("unexpected product: %+v", products[0])
	}
}
