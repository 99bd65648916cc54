// ABOUTME: SharePayload is the compact dataset encoding used for URL sharing
// ABOUTME: Short keys keep the encoded query parameter small
package models

// SharePayload is the wire shape of a shared tier list
type SharePayload struct {
	Title      string            `json:"t"`
	Items      []Item            `json:"i"`
	TierDefs   []TierDef         `json:"r"`
	Placements map[string]Bucket `json:"p,omitempty"`
}
