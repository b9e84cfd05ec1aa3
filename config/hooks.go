package config

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-viper/mapstructure/v2"

	"github.com/kbukum/authmaster/auth"
)

var (
	keyListType   = reflect.TypeOf([]auth.KeyConfig{})
	basicUserType = reflect.TypeOf([]auth.BasicUser{})
)

// KeyListHook decodes "name=secret,name2=secret2" strings into key and
// Basic user lists. Names keep their case.
func KeyListHook() mapstructure.DecodeHookFuncType {
	return func(from, to reflect.Type, data any) (any, error) {
		if from.Kind() != reflect.String {
			return data, nil
		}
		if to != keyListType && to != basicUserType {
			return data, nil
		}
		pairs, err := ParsePairs(data.(string))
		if err != nil {
			return nil, err
		}
		if to == keyListType {
			out := make([]auth.KeyConfig, 0, len(pairs))
			for _, p := range pairs {
				out = append(out, auth.KeyConfig{Name: p[0], Secret: p[1]})
			}
			return out, nil
		}
		out := make([]auth.BasicUser, 0, len(pairs))
		for _, p := range pairs {
			out = append(out, auth.BasicUser{Username: p[0], Hash: p[1]})
		}
		return out, nil
	}
}

// ParsePairs splits "a=x,b=y" into ordered name/value pairs. Only the first
// "=" of each entry separates name from value. Empty input yields no pairs.
func ParsePairs(s string) ([][2]string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	var pairs [][2]string
	for i, entry := range strings.Split(s, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		name, value, ok := strings.Cut(entry, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("config: entry %d must have the form name=value", i)
		}
		pairs = append(pairs, [2]string{name, value})
	}
	return pairs, nil
}
