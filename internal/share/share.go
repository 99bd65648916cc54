// ABOUTME: Share codec packing a tier list into a URL-safe query parameter
// ABOUTME: JSON, zstd-compressed, base64url; decoding never fails loudly
package share

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"

	"github.com/harper/tierworks/internal/models"
)

// QueryParam is the URL query key carrying the payload
const QueryParam = "s"

// DefaultTitle names shared datasets that arrive without one
const DefaultTitle = "Shared dataset"

// maxDecoded bounds decompressed payloads
const maxDecoded = 4 << 20

var (
	encoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	decoder, _ = zstd.NewReader(nil, zstd.WithDecoderConcurrency(1), zstd.WithDecoderMaxMemory(maxDecoded))
)

// Encode packs a payload into a URL-safe string
func Encode(p *models.SharePayload) (string, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("failed to marshal share payload: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(encoder.EncodeAll(raw, nil)), nil
}

// Decode unpacks s. Any malformed input yields (nil, false).
func Decode(s string) (*models.SharePayload, bool) {
	if s == "" {
		return nil, false
	}
	compressed, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, false
	}
	raw, err := decoder.DecodeAll(compressed, nil)
	if err != nil {
		return nil, false
	}
	var p models.SharePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, false
	}
	return &p, true
}

// BuildURL returns base with the encoded payload in the s query parameter
func BuildURL(base string, p *models.SharePayload) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid share base URL: %w", err)
	}
	s, err := Encode(p)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set(QueryParam, s)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// FromURL extracts and decodes the payload from a share URL. A bare encoded
// string is accepted too.
func FromURL(raw string) (*models.SharePayload, bool) {
	u, err := url.Parse(raw)
	if err == nil {
		if s := u.Query().Get(QueryParam); s != "" {
			return Decode(s)
		}
	}
	return Decode(raw)
}

// FromTemplate builds a payload from a template and optional placements
func FromTemplate(tpl *models.Template, placements map[string]models.Bucket) *models.SharePayload {
	p := &models.SharePayload{
		Title:    tpl.Name,
		Items:    models.CloneItems(tpl.Items),
		TierDefs: models.DefaultTierDefs(),
	}
	if len(placements) > 0 {
		p.Placements = make(map[string]models.Bucket, len(placements))
		for id, b := range placements {
			if b.IsTier() {
				p.Placements[id] = b
			}
		}
	}
	return p
}

// ToTemplate turns a decoded payload into a fresh template plus the tier
// placements of its items. Items without ids get new ones; repeated ids and
// placements for unknown items are dropped.
func ToTemplate(p *models.SharePayload) (*models.Template, map[string]models.Bucket) {
	title := p.Title
	if title == "" {
		title = DefaultTitle
	}

	items := make([]models.Item, 0, len(p.Items))
	seen := make(map[string]bool, len(p.Items))
	for _, it := range p.Items {
		if it.ID == "" {
			it.ID = uuid.New().String()
		}
		if seen[it.ID] {
			continue
		}
		if it.Title == "" {
			it.Title = it.ID
		}
		seen[it.ID] = true
		items = append(items, it)
	}

	placements := make(map[string]models.Bucket)
	for id, b := range p.Placements {
		if seen[id] && b.IsTier() {
			placements[id] = b
		}
	}

	tpl := &models.Template{
		ID:        uuid.New().String(),
		Name:      title,
		Items:     items,
		CreatedAt: time.Now().UnixMilli(),
	}
	return tpl, placements
}
