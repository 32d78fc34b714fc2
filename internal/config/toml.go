package config

import (
	"bytes"

	"github.com/BurntSushi/toml"
	"github.com/RaveNoX/go-jsonmerge"
	"gopkg.in/yaml.v3"
)

func tomlDecode(data string) (interface{}, error) {
	var out interface{}
	_, err := toml.Decode(data, &out)
	return out, err
}

func yamlDecode(data string) (interface{}, error) {
	var out interface{}
	err := yaml.Unmarshal([]byte(data), &out)
	return out, err
}

// merge overlays patch on data. jsonmerge only replaces keys data already
// has, so tables present only in patch (custom data bindings and databases)
// are copied over first.
func merge(data, patch interface{}) (interface{}, error) {
	addMissing(data, patch)
	out, info := jsonmerge.Merge(data, patch)
	if len(info.Errors) > 0 {
		return nil, info.Errors[0]
	}
	return out, nil
}

func tomlEncode(in interface{}) (string, error) {
	buf := new(bytes.Buffer)
	if err := toml.NewEncoder(buf).Encode(in); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func addMissing(data, patch interface{}) {
	dst, ok := data.(map[string]interface{})
	if !ok {
		return
	}
	src, ok := patch.(map[string]interface{})
	if !ok {
		return
	}
	for k, v := range src {
		if existing, found := dst[k]; found {
			addMissing(existing, v)
			continue
		}
		dst[k] = v
	}
}
