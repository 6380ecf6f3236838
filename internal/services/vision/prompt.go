package vision

import (
	"fmt"
	"strings"

	"livelens/internal/sheet"
)

// BuildPrompt renders the detection instructions with the live catalogue.
// The model must only report products the presenter is actively showing;
// shelf and background sightings are tagged background_only and discarded.
func BuildPrompt(products []sheet.Product) string {
	lines := make([]string, 0, len(products))
	for i, p := range products {
		name := p.Name
		if name == "" {
			name = fmt.Sprintf("Product_%d", i)
		}
		if p.Brand != "" {
			lines = append(lines, fmt.Sprintf("- %s (%s)", name, p.Brand))
		} else {
			lines = append(lines, "- "+name)
		}
	}

	return fmt.Sprintf(`あなたはライブコマース動画の商品検出AIです。
以下は、このライブ配信で販売されている商品リストです：

%s

このフレーム画像を分析して、**配信者が現在アクティブに紹介・説明している商品**を上記リストから特定してください。

【重要な判定基準 — 以下の状態の商品のみを検出してください】
- 配信者が手に持っている商品 → confidence: 0.85〜0.95
- 配信者がカメラに向けて見せている商品 → confidence: 0.80〜0.95
- 画面の中央に大きく映っている商品（クローズアップ） → confidence: 0.75〜0.90
- 配信者が指差している・触れている商品 → confidence: 0.70〜0.85

【除外すべきもの — 検出しないでください】
- 背景や棚に並んでいるだけの商品
- テーブルの上に置いてあるが、配信者が触れていない商品
- 画面の端に小さく映っているだけの商品
- 前の紹介で使った後、脇に置かれた商品
- 配信者の後ろに見える商品ディスプレイ

【判断のポイント】
- 配信者の手や腕の位置に注目する
- 商品が画面のどの位置にあるか（中央=紹介中の可能性高い、端=背景の可能性高い）
- 商品のサイズ（大きく映っている=紹介中、小さい=背景）
- 配信者の体の向き（商品に向いている=紹介中）

JSON形式で返してください：
{
  "detected_products": [
    {
      "product_name": "商品名（リストと完全一致）",
      "confidence": 0.0〜1.0,
      "detection_reason": "hand_holding|showing_camera|closeup|pointing|background_only"
    }
  ]
}

配信者が商品を紹介していない場合は空配列を返してください：
{"detected_products": []}`, strings.Join(lines, "\n"))
}
