package config

import (
	"reflect"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/kbukum/getfnative/descale"
)

// decodeHooks extends viper's default duration and comma-list hooks with
// fraction parsing for descale.Fraction fields.
var decodeHooks = viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
	mapstructure.StringToTimeDurationHookFunc(),
	mapstructure.StringToSliceHookFunc(","),
	FractionHookFunc(),
))

// FractionHookFunc decodes "1/3" or "0.25" into a descale.Fraction.
func FractionHookFunc() mapstructure.DecodeHookFuncType {
	return func(
		f reflect.Type,
		t reflect.Type,
		data interface{},
	) (interface{}, error) {
		if f.Kind() != reflect.String || t != reflect.TypeOf(descale.Fraction(0)) {
			return data, nil
		}
		v, err := descale.ParseFraction(data.(string))
		if err != nil {
			return nil, err
		}
		return descale.Fraction(v), nil
	}
}
