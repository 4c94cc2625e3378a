package datasource

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/kenttraders/aimarketops/backend-go/internal/config"
	"github.com/kenttraders/aimarketops/backend-go/internal/datasource/mock"
	"github.com/kenttraders/aimarketops/backend-go/internal/datasource/sellerdynamics"
	"github.com/kenttraders/aimarketops/backend-go/internal/datasource/shopify"
	"github.com/kenttraders/aimarketops/backend-go/internal/domain"
	"github.com/rs/zerolog/log"
)

const (
	ModeLive   = "live"
	ModeMock   = "mock"
	ModeStored = "stored"
)

// Deps are the collaborators FromConfig cannot build from config alone.
type Deps struct {
	Gate     sellerdynamics.Gate
	History  HistorySource
	Products ProductReader
}

// FromConfig builds the live, mock or stored source set. Live sources that are not
// configured are left out. deps.History overrides the order history source when non-nil;
// mock mode otherwise uses its fixtures and the other modes fall back to NoHistory.
func FromConfig(cfg *config.Config, deps Deps) (Set, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.DataSource.Mode))
	history := deps.History

	switch mode {
	case ModeMock, "":
		src, err := mock.Load(cfg.DataSource.FixturesDir)
		if err != nil {
			return Set{}, fmt.Errorf("load mock fixtures: %w", err)
		}
		set := Set{
			Sources: []Source{src.SellerDynamics(), src.Shopify()},
			History: src,
			Mode:    ModeMock,
		}
		if history != nil {
			set.History = history
		}
		return set, nil

	case ModeStored:
		if deps.Products == nil {
			return Set{}, fmt.Errorf("stored mode requires a product store")
		}
		set := Set{
			Sources: []Source{
				NewStoredSource(deps.Products, domain.SourceSellerDynamics),
				NewStoredSource(deps.Products, domain.SourceShopify),
			},
			History: history,
			Mode:    ModeStored,
		}
		if set.History == nil {
			set.History = NoHistory{}
		}
		return set, nil

	case ModeLive:
		set := Set{Mode: ModeLive, History: history}
		if set.History == nil {
			set.History = NoHistory{}
		}

		sd := cfg.SellerDynamics
		if sd.EncryptedLogin != "" && sd.RetailerID != "" {
			set.Sources = append(set.Sources, sellerdynamics.New(sellerdynamics.Options{
				Endpoint:       sd.Endpoint,
				EncryptedLogin: sd.EncryptedLogin,
				RetailerID:     sd.RetailerID,
				PageSize:       sd.PageSize,
				HTTPClient:     &http.Client{Timeout: seconds(sd.RequestTimeoutSec)},
			}, deps.Gate))
		} else {
			log.Warn().Msg("datasource: SellerDynamics credentials missing, source disabled")
		}

		sh := cfg.Shopify
		if sh.ShopDomain != "" && sh.AccessToken != "" {
			set.Sources = append(set.Sources, shopify.New(shopify.Options{
				ShopDomain:  sh.ShopDomain,
				AccessToken: sh.AccessToken,
				APIVersion:  sh.APIVersion,
				HTTPClient:  &http.Client{Timeout: seconds(sh.RequestTimeoutSec)},
			}))
		} else {
			log.Warn().Msg("datasource: Shopify credentials missing, source disabled")
		}
		return set, nil

	default:
		return Set{}, fmt.Errorf("unknown data source mode %q", cfg.DataSource.Mode)
	}
}

func seconds(n int) time.Duration {
	if n <= 0 {
		return 0
	}
	return time.Duration(n) * time.Second
}
