package model

// CapacityStatus is the result of evaluating a circle against its owner's
// plan quotas. CurrentCount includes the owner's seat.
type CapacityStatus struct {
	CurrentCount int  `json:"currentCount"`
	Limit        int  `json:"limit"`
	IsFull       bool `json:"isFull"`
}

// BannerKind tags which banner a client should render for a circle.
type BannerKind string

const (
	BannerKindReadOnly      BannerKind = "read_only"
	BannerKindTransferBlock BannerKind = "transfer_block"
)

// Banner is a display decision for one circle, precomputed server-side so
// every client renders the same branching.
type Banner struct {
	Kind        BannerKind `json:"kind"`
	Message     string     `json:"message"`
	ShowUpgrade bool       `json:"show_upgrade"` // owner-facing upgrade call to action
	ShowClaim   bool       `json:"show_claim"`   // non-owner claim action on a transfer-blocked circle
}
