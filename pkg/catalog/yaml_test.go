package catalog_test

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oficaz/billing-engine/pkg/catalog"
	"github.com/oficaz/billing-engine/pkg/feature"
)

const catalogYAML = `
plans:
  - key: basic
    name: Basic
    monthly_price: "18.00"
    features: [time_tracking, vacations, messages]
  - key: pro
    name: Pro
    monthly_price: "29.00"
    features: [time_tracking, vacations, messages, reports, shifts]
addons:
  - key: messages
    name: Internal Messaging
    feature: messages
    monthly_price: "6.99"
  - key: reports
    name: Work Reports
    feature: reports
    free_feature: true
seat_prices:
  employee: "1.50"
  manager: "2.50"
  admin: "3.50"
`

func TestYAMLSource(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"catalog.yml": &fstest.MapFile{Data: []byte(catalogYAML)},
	}

	c, err := catalog.NewYAMLSource(fsys, "catalog.yml").Load(context.Background())
	require.NoError(t, err)

	basic, err := c.Plan(catalog.PlanBasic)
	require.NoError(t, err)
	assert.Equal(t, "18", basic.MonthlyPrice.String())
	assert.True(t, basic.Features.Enabled(feature.KeyTimeTracking))

	messages, err := c.Addon("messages")
	require.NoError(t, err)
	assert.Equal(t, "6.99", messages.MonthlyPrice.String())

	price, err := c.SeatPrice(catalog.SeatManager)
	require.NoError(t, err)
	assert.Equal(t, "2.5", price.String())
}

func TestYAMLSource_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := catalog.NewYAMLSource(fstest.MapFS{}, "catalog.yml").Load(context.Background())
	assert.ErrorIs(t, err, catalog.ErrInvalidCatalog)
}

func TestParseYAML_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
	}{
		{name: "not yaml", raw: "{{nope"},
		{name: "bad price", raw: "plans:\n  - key: basic\n    monthly_price: abc\n"},
		{name: "unknown feature", raw: "plans:\n  - key: basic\n    monthly_price: \"1\"\n    features: [teleport]\n"},
		{name: "unknown seat role", raw: "seat_prices:\n  intern: \"1.00\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := catalog.ParseYAML([]byte(tt.raw))
			assert.ErrorIs(t, err, catalog.ErrInvalidCatalog)
		})
	}
}
