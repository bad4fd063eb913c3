package carrier

// 内部の配送ステータス
type Status string

const (
	StatusPending   Status = "pending"
	StatusInTransit Status = "in_transit"
	StatusDelivered Status = "delivered"
	StatusException Status = "exception"
	StatusUnknown   Status = "unknown"
)

// プロバイダ固有コード→内部enum。未知のコードはunknownに落とす
var providerStatusMap = map[string]Status{
	"CREATED":          StatusPending,
	"PRE_TRANSIT":      StatusPending,
	"LABEL_PRINTED":    StatusPending,
	"PICKED_UP":        StatusInTransit,
	"TRANSIT":          StatusInTransit,
	"IN_TRANSIT":       StatusInTransit,
	"OUT_FOR_DELIVERY": StatusInTransit,
	"DELIVERED":        StatusDelivered,
	"FAILURE":          StatusException,
	"EXCEPTION":        StatusException,
	"RETURNED":         StatusException,
}

func MapProviderStatus(code string) Status {
	if s, ok := providerStatusMap[code]; ok {
		return s
	}
	return StatusUnknown
}
