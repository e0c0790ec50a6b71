package config

import (
	"net/netip"
	"reflect"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// CustomHooks are the decode hooks used when unmarshalling configuration and scenario files.
// viper.DecodeHook replaces the decoder's hook, so all hooks are composed into a single option.
var CustomHooks = []viper.DecoderConfigOption{
	viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
		IpListDecodeHook(),
		IpAddrDecodeHook(),
		IpPrefixDecodeHook(),
	)),
}

var (
	addrType     = reflect.TypeOf(netip.Addr{})
	addrListType = reflect.TypeOf([]netip.Addr{})
	prefixType   = reflect.TypeOf(netip.Prefix{})
)

// IpAddrDecodeHook decodes strings such as "10.0.0.1" into netip.Addr.
func IpAddrDecodeHook() mapstructure.DecodeHookFuncType {
	return func(
		f reflect.Type,
		t reflect.Type,
		data interface{},
	) (interface{}, error) {
		if f.Kind() != reflect.String || t != addrType {
			return data, nil
		}
		s := data.(string)
		if s == "" {
			return netip.Addr{}, nil
		}
		addr, err := netip.ParseAddr(s)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		return addr, nil
	}
}

// IpPrefixDecodeHook decodes strings such as "10.0.0.0/24" into netip.Prefix.
func IpPrefixDecodeHook() mapstructure.DecodeHookFuncType {
	return func(
		f reflect.Type,
		t reflect.Type,
		data interface{},
	) (interface{}, error) {
		if f.Kind() != reflect.String || t != prefixType {
			return data, nil
		}
		s := data.(string)
		if s == "" {
			return netip.Prefix{}, nil
		}
		prefix, err := netip.ParsePrefix(s)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		return prefix, nil
	}
}

// IpListDecodeHook decodes lists of addresses and address ranges, e.g., ["10.0.0.1 - 10.0.0.3", "10.0.0.7"],
// into a flat []netip.Addr.
func IpListDecodeHook() mapstructure.DecodeHookFuncType {
	return func(
		f reflect.Type,
		t reflect.Type,
		data interface{},
	) (interface{}, error) {
		if t != addrListType {
			return data, nil
		}
		var entries []string
		switch f.Kind() {
		case reflect.String:
			entries = []string{data.(string)}
		case reflect.Slice, reflect.Array:
			v := reflect.ValueOf(data)
			for i := 0; i < v.Len(); i++ {
				entry, ok := v.Index(i).Interface().(string)
				if !ok {
					// Already decoded, e.g., when merging defaults.
					return data, nil
				}
				entries = append(entries, entry)
			}
		default:
			return data, nil
		}
		return ParseIpList(entries)
	}
}
