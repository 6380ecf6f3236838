package trends

import (
	"strings"

	"golang.org/x/text/cases"
)

// KPI identifies one canonical metric column. The set is closed; localized
// spreadsheet headers resolve into it through the alias table.
type KPI string

const (
	KPIGMV            KPI = "gmv"
	KPIOrderCount     KPI = "order_count"
	KPIViewerCount    KPI = "viewer_count"
	KPILikeCount      KPI = "like_count"
	KPICommentCount   KPI = "comment_count"
	KPIShareCount     KPI = "share_count"
	KPINewFollowers   KPI = "new_followers"
	KPIProductClicks  KPI = "product_clicks"
	KPIProductImpr    KPI = "product_impressions"
	KPIImpressions    KPI = "impressions"
	KPIGPM            KPI = "gpm"
	KPICTOR           KPI = "ctor"
	KPIAOV            KPI = "aov"
	KPIProductSales   KPI = "product_sales"
	KPICustomers      KPI = "customers"
	KPILiveCTR        KPI = "live_ctr"
	KPICommentRate    KPI = "comment_rate"
	KPIPaymentRate    KPI = "payment_rate"
	KPICartAdds       KPI = "cart_adds"
	KPITapThroughRate KPI = "tap_through_rate"
	KPITime           KPI = "time"
	KPIProductName    KPI = "product_name"
	KPIProductID      KPI = "product_id"
)

// kpiAliases maps each canonical KPI to its ordered, locale-tagged header
// candidates. Order matters: the first alias present in a sheet wins.
// Covered locales: Japanese, Simplified/Traditional Chinese, English,
// Korean, Vietnamese, Thai, Indonesian.
var kpiAliases = map[KPI][]string{
	KPIGMV: {
		"GMV", "gmv", "売上", "成交金额", "成交金額", "销售额", "銷售額",
		"Revenue", "revenue", "Sales", "sales",
		"매출액", "매출", "Doanh thu", "doanh thu",
		"ยอดขาย", "Pendapatan", "pendapatan",
	},
	KPIOrderCount: {
		"注文", "SKU注文数", "订单数", "訂單數", "成交件数", "成交件數",
		"SKU订单数", "SKU訂單數",
		"Orders", "orders", "Order Count", "order_count", "SKU Orders",
		"주문수", "주문", "Đơn hàng", "Số đơn hàng",
		"คำสั่งซื้อ", "Pesanan", "pesanan", "Jumlah Pesanan",
	},
	KPIViewerCount: {
		"視聴者", "視聴者数", "視聴数", "视聴者",
		"观看人数", "观众数", "在线人数", "觀看人數", "觀眾數",
		"Viewers", "viewers", "Viewer Count", "viewer_count",
		"Live Viewers", "live_viewers",
		"시청자", "시청자수", "Người xem", "Lượt xem",
		"ผู้ชม", "Penonton", "penonton", "Jumlah Penonton",
	},
	KPILikeCount: {
		"いいね数", "いいね", "点赞数", "点赞", "點讚數", "按讚數",
		"Likes", "likes", "Like Count", "like_count",
		"좋아요", "좋아요수", "Lượt thích",
		"ถูกใจ", "ยอดไลค์", "Suka", "suka", "Jumlah Suka",
	},
	KPICommentCount: {
		"コメント数", "评论数", "评论", "評論數",
		"Comments", "comments", "Comment Count", "comment_count",
		"댓글수", "댓글", "Bình luận", "Lượt bình luận",
		"ความคิดเห็น", "Komentar", "komentar", "Jumlah Komentar",
	},
	KPIShareCount: {
		"シェア数", "分享次数", "分享数", "分享數", "分享次數",
		"Shares", "shares", "Share Count", "share_count",
		"공유수", "공유", "Chia sẻ", "Lượt chia sẻ",
		"แชร์", "Bagikan", "bagikan", "Jumlah Bagikan",
	},
	KPINewFollowers: {
		"新規フォロワー数", "新增粉丝数", "新增关注", "新增粉絲數",
		"New Followers", "new_followers", "Follower Gain",
		"신규 팔로워", "새 팔로워", "Người theo dõi mới",
		"ผู้ติดตามใหม่", "Pengikut Baru", "pengikut baru",
	},
	KPIProductClicks: {
		"商品クリック数", "商品点击量", "商品点击数", "商品點擊量",
		"Product Clicks", "product_clicks", "Product Click Count",
		"상품 클릭수", "상품클릭", "Lượt nhấp sản phẩm",
		"คลิกสินค้า", "Klik Produk", "klik produk",
	},
	KPIProductImpr: {
		"商品インプレッション", "商品インプレッション数",
		"商品曝光量", "商品展示量", "商品曝光數",
		"Product Impressions", "product_impressions", "Product Impression Count",
		"상품 노출수", "Lượt hiển thị sản phẩm",
		"การแสดงผลสินค้า", "Tayangan Produk", "tayangan produk",
	},
	KPIImpressions: {
		"インプレッション数", "展示量", "曝光量", "展示數",
		"Impressions", "impressions", "Impression Count",
		"노출수", "Lượt hiển thị", "การแสดงผล", "Tayangan", "tayangan",
	},
	KPIGPM: {
		"視聴GPM", "表示GPM", "GPM", "gpm",
		"千次观看成交金额", "千次觀看成交金額",
		"gmv_per_1k_views", "GMV per 1K Views",
	},
	KPICTOR: {
		"CTOR", "ctor", "CTOR（SKU注文数）", "CVR", "cvr",
		"点击成交转化率", "點擊成交轉化率",
		"Click Through Order Rate", "click_conversion",
		"전환율", "Tỷ lệ chuyển đổi",
	},
	KPIAOV: {
		"AOV", "aov", "客単価", "客单价", "客單價",
		"Average Order Value", "average_order_value",
		"평균주문금액", "Giá trị đơn hàng trung bình",
	},
	KPIProductSales: {
		"商品の販売数", "商品销量", "销售量", "商品銷量",
		"Product Sales", "product_sales", "Units Sold", "units_sold",
		"상품 판매수", "Số lượng bán", "ยอดขายสินค้า", "Penjualan Produk",
	},
	KPICustomers: {
		"カスタマー数", "成交客户数", "买家数", "成交客戶數",
		"Customers", "customers", "Buyers", "buyers",
		"고객수", "구매자수", "Khách hàng", "Người mua",
		"ลูกค้า", "Pelanggan", "pelanggan", "Pembeli",
	},
	KPILiveCTR: {
		"LIVE CTR", "live_ctr", "直播点击率", "直播點擊率",
		"Live Click Through Rate", "click_rate",
	},
	KPICommentRate: {
		"コメント率", "评论率", "評論率",
		"Comment Rate", "comment_rate",
		"댓글률", "Tỷ lệ bình luận",
	},
	KPIPaymentRate: {
		"支払率", "支付率",
		"Payment Rate", "payment_rate", "Pay Rate",
		"결제율", "Tỷ lệ thanh toán",
		"อัตราการชำระเงิน", "Tingkat Pembayaran",
	},
	KPICartAdds: {
		"カートに追加された回数", "加购次数", "加入购物车", "加購次數",
		"Add to Cart", "add_to_cart", "Cart Adds", "cart_adds",
		"장바구니 추가", "Thêm vào giỏ hàng",
		"เพิ่มลงตะกร้า", "Tambah ke Keranjang",
	},
	KPITapThroughRate: {
		"タップスルー率", "点击率", "點擊率",
		"Tap Through Rate", "tap_through_rate",
		"탭 스루율", "Tỷ lệ nhấp", "อัตราการแตะ", "Rasio Klik",
	},
	KPITime: {
		"時間", "时间",
		"Time", "time", "Timestamp", "timestamp",
		"시간", "Thời gian", "เวลา", "Waktu", "waktu",
	},
	KPIProductName: {
		"商品名", "商品名称", "产品名称", "商品名稱", "商品タイトル",
		"Product Name", "product_name", "Product Title",
		"상품명", "Tên sản phẩm", "ชื่อสินค้า", "Nama Produk",
	},
	KPIProductID: {
		"商品ID", "产品ID",
		"Product ID", "product_id", "SKU ID", "sku_id",
		"상품ID", "ID sản phẩm", "ID สินค้า", "ID Produk",
	},
}

// timeFallbackWords are substring-matched against headers when no time alias
// resolves exactly.
var timeFallbackWords = []string{"时间", "時間", "time", "timestamp", "시간", "waktu", "เวลา"}

// Aliases returns the ordered candidate headers for a KPI. Unknown KPIs fall
// back to their own name so ad hoc columns still resolve.
func Aliases(kpi KPI) []string {
	if aliases, ok := kpiAliases[kpi]; ok {
		return aliases
	}
	return []string{string(kpi)}
}

// Row is one spreadsheet row keyed by its raw header strings.
type Row map[string]string

var fold = cases.Fold()

// ResolveKey returns the row's actual header matching the first candidate
// alias, comparing case-insensitively with Unicode case folding. The second
// return is false when no candidate is present.
func ResolveKey(row Row, candidates []string) (string, bool) {
	folded := make(map[string]string, len(row))
	for key := range row {
		folded[fold.String(key)] = key
	}
	for _, candidate := range candidates {
		if actual, ok := folded[fold.String(candidate)]; ok {
			return actual, true
		}
	}
	return "", false
}

// DetectTimeColumn finds the header carrying slot timestamps. The canonical
// time aliases are tried first; failing that, any header containing a
// localized word for time wins.
func DetectTimeColumn(rows []Row) (string, bool) {
	if len(rows) == 0 {
		return "", false
	}
	sample := rows[0]
	if key, ok := ResolveKey(sample, Aliases(KPITime)); ok {
		return key, true
	}
	for key := range sample {
		lowered := fold.String(key)
		for _, word := range timeFallbackWords {
			if containsFold(lowered, word) {
				return key, true
			}
		}
	}
	return "", false
}

func containsFold(foldedHaystack, needle string) bool {
	return strings.Contains(foldedHaystack, fold.String(needle))
}
