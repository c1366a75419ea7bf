package cbstore

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// ViewOptions is the legacy-shaped option bag accepted by View. The keys and
// their accepted value types mirror the classic view query API: "skip" and
// "limit" (integers), "startkey"/"endkey"/"key"/"keys" (JSON-encoded before
// forwarding), "full_set"/"descending"/"inclusive_end" (booleans),
// "connection_timeout" (time.Duration or an integer microsecond count) and
// "stale" (true, false or "update_after").
type ViewOptions map[string]interface{}

// ViewRow is a single row of an index query result.
type ViewRow struct {
	ID    string          `json:"id"`
	Key   json.RawMessage `json:"key"`
	Value json.RawMessage `json:"value"`
}

// ViewError is a per-node error reported inside an otherwise successful
// index query response.
type ViewError struct {
	From   string `json:"from"`
	Reason string `json:"reason"`
}

// ViewResult is the outcome of an index query.
type ViewResult struct {
	TotalRows int         `json:"total_rows"`
	Rows      []ViewRow   `json:"rows"`
	Errors    []ViewError `json:"errors,omitempty"`
}

// Index staleness modes understood by the view engine.
const (
	staleOK          = "ok"
	staleFalse       = "false"
	staleUpdateAfter = "update_after"
)

// buildViewParams translates a legacy option bag into the query parameters
// the view engine accepts. When no staleness option is present the query
// demands a fully updated index.
func buildViewParams(opts ViewOptions) (url.Values, error) {
	params := url.Values{}

	staleSeen := false
	for name, value := range opts {
		switch name {
		case "skip", "limit":
			num, err := toIntParam(name, value)
			if err != nil {
				return nil, err
			}
			params.Set(name, strconv.FormatInt(num, 10))
		case "startkey", "endkey", "key", "keys":
			encoded, err := json.Marshal(value)
			if err != nil {
				return nil, err
			}
			params.Set(name, string(encoded))
		case "full_set", "descending", "inclusive_end":
			flag, ok := value.(bool)
			if !ok {
				return nil, KvError{
					InnerError: ErrInvalidArgs,
					Operation:  "view",
					Key:        name,
				}
			}
			params.Set(name, strconv.FormatBool(flag))
		case "connection_timeout":
			switch timeout := value.(type) {
			case time.Duration:
				params.Set(name, strconv.FormatInt(timeout.Microseconds(), 10))
			default:
				num, err := toIntParam(name, value)
				if err != nil {
					return nil, err
				}
				params.Set(name, strconv.FormatInt(num, 10))
			}
		case "stale":
			mode, err := toStaleParam(value)
			if err != nil {
				return nil, err
			}
			params.Set(name, mode)
			staleSeen = true
		default:
			params.Set(name, fmt.Sprintf("%v", value))
		}
	}

	if !staleSeen {
		params.Set("stale", staleFalse)
	}

	return params, nil
}

func toIntParam(name string, value interface{}) (int64, error) {
	switch num := value.(type) {
	case int:
		return int64(num), nil
	case int32:
		return int64(num), nil
	case int64:
		return num, nil
	case uint32:
		return int64(num), nil
	case uint64:
		return int64(num), nil
	case float64:
		return int64(num), nil
	default:
		return 0, KvError{
			InnerError: ErrInvalidArgs,
			Operation:  "view",
			Key:        name,
		}
	}
}

// toStaleParam maps the tri-state staleness option: boolean true permits a
// stale index with no forced update, boolean false demands an update before
// querying, and "update_after" permits a stale index but schedules an update
// once the query completes.
func toStaleParam(value interface{}) (string, error) {
	switch mode := value.(type) {
	case bool:
		if mode {
			return staleOK, nil
		}
		return staleFalse, nil
	case string:
		if mode == staleUpdateAfter {
			return staleUpdateAfter, nil
		}
	}

	return "", KvError{
		InnerError: ErrInvalidArgs,
		Operation:  "view",
		Key:        "stale",
	}
}
