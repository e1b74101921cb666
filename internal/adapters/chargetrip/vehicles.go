package chargetrip

import (
	"context"
	"errors"
	"ev-route-service/internal/domain"
	"ev-route-service/internal/platform/obs"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

const vehicleListQuery = `
query vehicleList($page: Int, $size: Int) {
  vehicleList(page: $page, size: $size) {
    id
    naming {
      make
      model
      version
    }
    battery {
      usable_kwh
      full_kwh
    }
    range {
      chargetrip_range {
        best
        worst
      }
    }
  }
}`

const vehiclePageSize = 100

type vehicleListData struct {
	VehicleList []vehicle `json:"vehicleList"`
}

type vehicle struct {
	ID     string `json:"id"`
	Naming struct {
		Make    string `json:"make"`
		Model   string `json:"model"`
		Version string `json:"version"`
	} `json:"naming"`
	Battery struct {
		UsableKWh *float64 `json:"usable_kwh"`
		FullKWh   *float64 `json:"full_kwh"`
	} `json:"battery"`
	Range struct {
		ChargetripRange *struct {
			Best  *float64 `json:"best"`
			Worst *float64 `json:"worst"`
		} `json:"chargetrip_range"`
	} `json:"range"`
}

// ListVehicles pages through vehicleList. Entries without an id are skipped
// and logged rather than failing the whole catalog.
func (c *Client) ListVehicles(ctx context.Context) (_ []domain.VehicleRangeProfile, err error) {
	defer obs.Time(ctx, "chargetrip.ListVehicles")(&err)

	logger := zerolog.Ctx(ctx)
	out := make([]domain.VehicleRangeProfile, 0, vehiclePageSize)

	for page := 0; ; page++ {
		var data vehicleListData
		vars := map[string]any{"page": page, "size": vehiclePageSize}
		if err := c.query(ctx, vehicleListQuery, vars, &data, true); err != nil {
			return nil, fmt.Errorf("list vehicles page %d: %w", page, err)
		}

		for _, v := range data.VehicleList {
			p, err := v.toDomain()
			if err != nil {
				logger.Debug().Err(err).Str("vehicle_id", v.ID).Msg("skipping catalog entry")
				continue
			}
			out = append(out, p)
		}

		if len(data.VehicleList) < vehiclePageSize {
			break
		}
	}

	return out, nil
}

// GetVehicle scans the catalog for id. Callers normally go through a
// catalog snapshot instead of hitting the API per request.
func (c *Client) GetVehicle(ctx context.Context, id string) (domain.VehicleRangeProfile, error) {
	all, err := c.ListVehicles(ctx)
	if err != nil {
		return domain.VehicleRangeProfile{}, err
	}
	for _, v := range all {
		if v.ID == id {
			return v, nil
		}
	}
	return domain.VehicleRangeProfile{}, fmt.Errorf("get vehicle %q: %w", id, domain.ErrVehicleNotFound)
}

// toDomain maps the entry without validating ranges; malformed profiles are
// kept so planning can reject them with domain.ErrInvalidVehicleProfile.
func (v vehicle) toDomain() (domain.VehicleRangeProfile, error) {
	if strings.TrimSpace(v.ID) == "" {
		return domain.VehicleRangeProfile{}, errors.New("catalog entry without id")
	}

	p := domain.VehicleRangeProfile{
		ID:      v.ID,
		Make:    v.Naming.Make,
		Model:   v.Naming.Model,
		Version: v.Naming.Version,
	}
	if v.Battery.UsableKWh != nil {
		p.BatteryUsableKWh = *v.Battery.UsableKWh
	}
	if r := v.Range.ChargetripRange; r != nil {
		if r.Best != nil {
			p.BestRangeKm = *r.Best
		}
		if r.Worst != nil {
			p.WorstRangeKm = *r.Worst
		}
	}
	return p, nil
}
