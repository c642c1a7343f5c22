package vendors

import (
	"fmt"

	"hmisync/internal/config"
	"hmisync/internal/pkg/hmis"
	"hmisync/internal/pkg/hxzy"
	"hmisync/internal/pkg/jtv"
	"hmisync/internal/pkg/jtvxzb"
	"hmisync/internal/pkg/kh"
)

const (
	HXZY   = "hxzy"
	JTV    = "jtv"
	JTVXZB = "jtv_xuzhoubei"
	KH     = "kh"
)

// Names lists the supported HMIS vendors.
func Names() []string {
	return []string{HXZY, JTV, JTVXZB, KH}
}

// Adapter builds a vendor adapter from the current configuration, together
// with that vendor's base settings. Adapters are cheap and constructed per
// call so a settings change needs no invalidation anywhere.
func Adapter(cfg *config.Config, name string) (hmis.Adapter, config.VendorSettings, error) {
	switch name {
	case HXZY:
		return hxzy.New(hxzy.Config{
			Host: cfg.HXZY.Host,
			GD:   cfg.HXZY.GD,
		}), cfg.HXZY.VendorSettings, nil
	case JTV:
		return jtv.New(jtv.Config{
			Host:       cfg.JTV.Host,
			UnitCode:   cfg.JTV.UnitCode,
			DeviceIP:   cfg.JTV.DeviceIP,
			DevicePort: cfg.JTV.DevicePort,
		}), cfg.JTV.VendorSettings, nil
	case JTVXZB:
		return jtvxzb.New(jtvxzb.Config{
			Host:           cfg.JTVXZB.Host,
			UsernamePrefix: cfg.JTVXZB.UsernamePrefix,
		}), cfg.JTVXZB.VendorSettings, nil
	case KH:
		return kh.New(kh.Config{
			Host:  cfg.KH.Host,
			TSGZ:  cfg.KH.TSGZ,
			TSZJY: cfg.KH.TSZJY,
			TSYSY: cfg.KH.TSYSY,
		}), cfg.KH.VendorSettings, nil
	}
	return nil, config.VendorSettings{}, fmt.Errorf("unknown vendor: %s", name)
}
