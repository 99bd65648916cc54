// ABOUTME: Tests for the share codec
// ABOUTME: Covers URL round trips and tolerance of malformed payloads
package share

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/harper/tierworks/internal/models"
)

func samplePayload() *models.SharePayload {
	return &models.SharePayload{
		Title: "Best dramas",
		Items: []models.Item{
			{ID: "wire", Title: "The Wire"},
			{ID: "dark", Title: "Dark", ImageRef: "https://img/dark.jpg"},
		},
		TierDefs:   models.DefaultTierDefs(),
		Placements: map[string]models.Bucket{"wire": models.TierS},
	}
}

func TestBuildURLAndFromURL(t *testing.T) {
	link, err := BuildURL("https://tierworks.app/share?ref=cli", samplePayload())
	require.NoError(t, err)
	require.Contains(t, link, "s=")
	require.Contains(t, link, "ref=cli")

	got, ok := FromURL(link)
	require.True(t, ok)
	require.Equal(t, samplePayload(), got)
}

func TestFromURLAcceptsBareString(t *testing.T) {
	s, err := Encode(samplePayload())
	require.NoError(t, err)
	require.NotContains(t, s, "=")

	got, ok := FromURL(s)
	require.True(t, ok)
	require.Equal(t, "Best dramas", got.Title)
}

func TestDecodeMalformed(t *testing.T) {
	notZstd := base64.RawURLEncoding.EncodeToString([]byte("plain text"))
	badJSON := base64.RawURLEncoding.EncodeToString(encoder.EncodeAll([]byte("{nope"), nil))
	badTier := base64.RawURLEncoding.EncodeToString(encoder.EncodeAll([]byte(`{"t":"x","p":{"a":"Z"}}`), nil))

	for name, input := range map[string]string{
		"empty":    "",
		"not b64":  "%%%",
		"not zstd": notZstd,
		"bad json": badJSON,
		"bad tier": badTier,
	} {
		t.Run(name, func(t *testing.T) {
			p, ok := Decode(input)
			require.False(t, ok)
			require.Nil(t, p)
		})
	}

	_, ok := FromURL("https://tierworks.app/share?other=1")
	require.False(t, ok)
}

func TestToTemplate(t *testing.T) {
	p := &models.SharePayload{
		Items: []models.Item{
			{ID: "a", Title: "A"},
			{ID: "a", Title: "A again"},
			{Title: "No id"},
		},
		Placements: map[string]models.Bucket{"a": models.TierB, "ghost": models.TierS},
	}

	tpl, placements := ToTemplate(p)
	require.Equal(t, DefaultTitle, tpl.Name)
	require.Len(t, tpl.Items, 2)
	require.NotEmpty(t, tpl.Items[1].ID)
	require.NoError(t, tpl.Validate())
	require.Equal(t, map[string]models.Bucket{"a": models.TierB}, placements)
}

func TestFromTemplateDropsPool(t *testing.T) {
	tpl := &models.Template{ID: "t", Name: "Shows", Items: samplePayload().Items}
	p := FromTemplate(tpl, map[string]models.Bucket{"wire": models.TierA, "dark": models.Pool})
	require.Equal(t, map[string]models.Bucket{"wire": models.TierA}, p.Placements)
	require.Len(t, p.TierDefs, len(models.Tiers))
}

func TestEncodedLengthIsCompact(t *testing.T) {
	p := &models.SharePayload{Title: "big", TierDefs: models.DefaultTierDefs()}
	for i := 0; i < 200; i++ {
		p.Items = append(p.Items, models.Item{ID: strings.Repeat("x", 3) + string(rune('a'+i%26)), Title: "Repeated title"})
	}
	s, err := Encode(p)
	require.NoError(t, err)
	require.Less(t, len(s), 2000)
}
