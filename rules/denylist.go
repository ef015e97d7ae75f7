package rules

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"

	"github.com/redis/go-redis/v9"

	"procurerisk/services"
	"procurerisk/types"
	"procurerisk/util"
)

const (
	defaultDenylistWeight = 30
	denylistReason        = "Awarded to a denylisted vendor"
	denylistKey           = "denylist:vendors"
)

// VendorDenylist holds debarred vendors. A static list is fixed at parse time;
// a redis list can be edited while the service runs and is read once per
// batch, so every contract in a batch sees the same list.
type VendorDenylist struct {
	source  string
	vendors []string
	client  *redis.Client
}

func NewStaticDenylist(vendors []string) *VendorDenylist {
	return &VendorDenylist{source: util.Sources.Static, vendors: foldVendors(vendors)}
}

func NewRedisDenylist(client *redis.Client) *VendorDenylist {
	return &VendorDenylist{source: util.Sources.Redis, client: client}
}

func (d *VendorDenylist) Source() string {
	return d.source
}

// Vendors returns the current list, sorted.
func (d *VendorDenylist) Vendors(ctx context.Context) ([]string, error) {
	if d.source != util.Sources.Redis {
		return append([]string(nil), d.vendors...), nil
	}
	members, err := d.client.SMembers(ctx, denylistKey).Result()
	if err != nil {
		return nil, fmt.Errorf("fetch denylist from redis: %w", err)
	}
	sort.Strings(members)
	return members, nil
}

// Update adds or removes a vendor. It returns the HTTP status the caller
// should answer with.
func (d *VendorDenylist) Update(ctx context.Context, vendor string, operation string) (int, error) {
	if operation != "add" && operation != "remove" {
		return http.StatusBadRequest, errors.New("must provide add or remove for the operation")
	}

	key := types.VendorKey(vendor)
	if key == "" {
		return http.StatusBadRequest, errors.New("must provide a vendor name")
	}

	if d.source != util.Sources.Redis {
		return http.StatusBadRequest, errors.New("no dynamic source configured")
	}

	var cmd *redis.IntCmd
	if operation == "add" {
		cmd = d.client.SAdd(ctx, denylistKey, key)
	} else {
		cmd = d.client.SRem(ctx, denylistKey, key)
	}
	if err := cmd.Err(); err != nil {
		return http.StatusInternalServerError, fmt.Errorf("failed to %s vendor in redis", operation)
	}
	return http.StatusOK, nil
}

// VendorDenylistRule triggers when the batch's denylist snapshot contains the
// vendor.
func VendorDenylistRule(weight int) util.NamedRule {
	return util.NamedRule{
		Name:   util.Rules.VendorDenylist,
		Weight: weight,
		Evaluate: func(record types.ContractRecord, index *types.VendorAwardIndex) (types.Contribution, bool) {
			if !index.Denylisted(record.Vendor) {
				return types.Contribution{}, false
			}
			return types.Contribution{
				Rule:   util.Rules.VendorDenylist,
				Weight: weight,
				Reason: denylistReason,
			}, true
		},
	}
}

func parseDenylistRule(ctx context.Context, raw map[string]interface{}, client *redis.Client) (util.NamedRule, *VendorDenylist, error) {
	var params struct {
		Weight  *int     `mapstructure:"weight"`
		Source  string   `mapstructure:"source"`
		Vendors []string `mapstructure:"vendors"`
	}
	if err := decodeParams(util.Rules.VendorDenylist, raw, &params); err != nil {
		return util.NamedRule{}, nil, err
	}
	weight, err := weightOr(util.Rules.VendorDenylist, params.Weight, defaultDenylistWeight)
	if err != nil {
		return util.NamedRule{}, nil, err
	}

	var list *VendorDenylist
	switch params.Source {
	case "", util.Sources.Static:
		list = NewStaticDenylist(params.Vendors)
	case util.Sources.Redis:
		if client == nil {
			return util.NamedRule{}, nil, &types.ConfigurationError{Rule: util.Rules.VendorDenylist, Reason: "redis source requires services.redis to be enabled"}
		}
		if err := services.PingRedis(ctx, client); err != nil {
			return util.NamedRule{}, nil, &types.ConfigurationError{Rule: util.Rules.VendorDenylist, Reason: "a valid redis connection is required for this rule"}
		}
		if seed := foldVendors(params.Vendors); len(seed) > 0 {
			if err := client.SAdd(ctx, denylistKey, seed).Err(); err != nil {
				return util.NamedRule{}, nil, fmt.Errorf("%s: seed redis: %w", util.Rules.VendorDenylist, err)
			}
		}
		list = NewRedisDenylist(client)
	default:
		return util.NamedRule{}, nil, &types.ConfigurationError{Rule: util.Rules.VendorDenylist, Reason: fmt.Sprintf("invalid source %q", params.Source)}
	}

	return VendorDenylistRule(weight), list, nil
}

func foldVendors(vendors []string) []string {
	seen := make(map[string]struct{}, len(vendors))
	out := make([]string, 0, len(vendors))
	for _, v := range vendors {
		key := types.VendorKey(v)
		if _, dup := seen[key]; key == "" || dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}
