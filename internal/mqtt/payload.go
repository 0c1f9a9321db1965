// Copyright 2024 The MaxMQ Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package mqtt

import (
	"encoding"
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
)

// encodePayload converts a payload given by the application into the bytes sent in the PUBLISH.
// Bytes and strings are sent as they are, values which know how to represent themselves as text
// use that representation, structured values (maps, structs, slices) are encoded as JSON and any
// other value is formatted with the fmt package. A nil payload, or a nil pointer, is encoded as the
// JSON null.
func encodePayload(v any) ([]byte, error) {
	switch p := v.(type) {
	case nil:
		return []byte("null"), nil
	case []byte:
		return p, nil
	case string:
		return []byte(p), nil
	case json.RawMessage:
		return p, nil
	case bool:
		return strconv.AppendBool(nil, p), nil
	case fmt.Stringer:
		return []byte(p.String()), nil
	case encoding.TextMarshaler:
		return p.MarshalText()
	case error:
		return []byte(p.Error()), nil
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return []byte("null"), nil
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Map, reflect.Struct, reflect.Slice, reflect.Array:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("failed to encode payload: %w", err)
		}
		return data, nil
	default:
		return []byte(fmt.Sprint(rv.Interface())), nil
	}
}
