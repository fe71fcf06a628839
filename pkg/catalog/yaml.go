package catalog

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/oficaz/billing-engine/pkg/feature"
)

// yamlDefinition is the on-disk shape of a catalog file. Prices are strings
// so they parse through decimal instead of binary floats.
type yamlDefinition struct {
	Plans []struct {
		Key          string   `yaml:"key"`
		Name         string   `yaml:"name"`
		MonthlyPrice string   `yaml:"monthly_price"`
		Features     []string `yaml:"features"`
	} `yaml:"plans"`
	Addons []struct {
		Key          string `yaml:"key"`
		Name         string `yaml:"name"`
		Feature      string `yaml:"feature"`
		MonthlyPrice string `yaml:"monthly_price"`
		FreeFeature  bool   `yaml:"free_feature"`
	} `yaml:"addons"`
	SeatPrices map[string]string `yaml:"seat_prices"`
}

type yamlSource struct {
	fsys fs.FS
	path string
}

// NewYAMLSource returns a Source that loads the catalog from a YAML file.
func NewYAMLSource(fsys fs.FS, path string) Source {
	return &yamlSource{fsys: fsys, path: path}
}

func (s *yamlSource) Load(ctx context.Context) (*Catalog, error) {
	raw, err := fs.ReadFile(s.fsys, s.path)
	if err != nil {
		return nil, errors.Join(ErrInvalidCatalog, err)
	}
	return ParseYAML(raw)
}

// ParseYAML decodes and validates a YAML catalog definition.
func ParseYAML(raw []byte) (*Catalog, error) {
	var def yamlDefinition
	if err := yaml.Unmarshal(raw, &def); err != nil {
		return nil, errors.Join(ErrInvalidCatalog, err)
	}

	plans := make([]Plan, 0, len(def.Plans))
	for _, p := range def.Plans {
		price, err := parsePrice(p.MonthlyPrice, "plan "+p.Key)
		if err != nil {
			return nil, err
		}
		features := make(feature.Set, len(p.Features))
		for _, f := range p.Features {
			features[feature.Key(f)] = true
		}
		plans = append(plans, Plan{
			Key:          PlanKey(p.Key),
			Name:         p.Name,
			MonthlyPrice: price,
			Features:     features,
		})
	}

	addons := make([]Addon, 0, len(def.Addons))
	for _, a := range def.Addons {
		price := decimal.Zero
		if a.MonthlyPrice != "" {
			var err error
			price, err = parsePrice(a.MonthlyPrice, "addon "+a.Key)
			if err != nil {
				return nil, err
			}
		}
		addons = append(addons, Addon{
			Key:          a.Key,
			Name:         a.Name,
			Feature:      feature.Key(a.Feature),
			MonthlyPrice: price,
			FreeFeature:  a.FreeFeature,
		})
	}

	seatPrices := make(map[SeatRole]decimal.Decimal, len(def.SeatPrices))
	for role, raw := range def.SeatPrices {
		price, err := parsePrice(raw, "seat role "+role)
		if err != nil {
			return nil, err
		}
		seatPrices[SeatRole(role)] = price
	}

	return New(plans, addons, seatPrices)
}

func parsePrice(raw, subject string) (decimal.Decimal, error) {
	price, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, errors.Join(ErrInvalidCatalog, fmt.Errorf("%s: invalid price %q", subject, raw))
	}
	return price, nil
}
