package parser

import (
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/mcpm-dev/mcpm/internal/agents"
	"github.com/mcpm-dev/mcpm/internal/server"
)

// ErrInvalidEntry indicates a connector entry was not an object.
var ErrInvalidEntry = errors.New("invalid server config")

// RecordFromAny normalizes one agent-native connector entry into the
// canonical record, applying the profile's quirks. All format parsers and
// the config normalizer funnel through here; per-agent shape differences
// live in the Quirks flags, not in callers.
//
// Reads are permissive: both "env" and "environment", and both "url" and
// "serverUrl", are accepted as aliases regardless of quirks. Quirks decide
// which alias gets written, not which gets read.
func RecordFromAny(name string, raw any, q agents.Quirks) (*server.Server, error) {
	entry, ok := asStringMap(raw)
	if !ok {
		return nil, errors.Wrapf(ErrInvalidEntry, "server %q", name)
	}

	s := &server.Server{Name: name}

	switch cmd := entry["command"].(type) {
	case nil:
	case string:
		s.Command = cmd
	case []any:
		// Array-form command: head is the executable, tail the args.
		parts, err := stringSlice(cmd)
		if err != nil {
			return nil, errors.Wrapf(err, "server %q command", name)
		}
		if len(parts) > 0 {
			s.Command = parts[0]
			s.Args = parts[1:]
		}
	default:
		return nil, errors.Wrapf(ErrInvalidEntry, "server %q: command must be a string or array", name)
	}

	if rawArgs, ok := entry["args"].([]any); ok {
		args, err := stringSlice(rawArgs)
		if err != nil {
			return nil, errors.Wrapf(err, "server %q args", name)
		}
		// Array-form commands already carry their args; explicit args
		// extend them.
		s.Args = append(s.Args, args...)
	}

	if url, ok := firstString(entry, "url", "serverUrl"); ok {
		s.URL = url
	}

	if t, ok := entry["type"].(string); ok {
		s.Transport = server.NormalizeTransport(t)
	}

	env, err := valueMap(entry, "env", "environment")
	if err != nil {
		return nil, errors.Wrapf(err, "server %q", name)
	}
	s.Env = env

	headers, err := valueMap(entry, "headers")
	if err != nil {
		return nil, errors.Wrapf(err, "server %q", name)
	}
	s.Headers = headers

	return s, nil
}

// RecordToAny builds the agent-native entry for a canonical record,
// applying the profile's quirks. Env and header values are written in
// scalar form; extended metadata stays in the registry only.
func RecordToAny(s *server.Server, q agents.Quirks) map[string]any {
	entry := make(map[string]any)

	if s.Command != "" {
		if q.CommandIsArray {
			cmd := make([]any, 0, len(s.Args)+1)
			cmd = append(cmd, s.Command)
			for _, a := range s.Args {
				cmd = append(cmd, a)
			}
			entry["command"] = cmd
		} else {
			entry["command"] = s.Command
			if len(s.Args) > 0 {
				args := make([]any, len(s.Args))
				for i, a := range s.Args {
					args[i] = a
				}
				entry["args"] = args
			}
		}
		if len(s.Env) > 0 {
			key := "env"
			if q.EnvKeyEnvironment {
				key = "environment"
			}
			entry[key] = scalarMap(s.Env)
		}
		return entry
	}

	urlKey := "url"
	if q.URLKeyServerURL {
		urlKey = "serverUrl"
	}
	entry[urlKey] = s.URL
	entry["type"] = s.EffectiveTransport()
	if len(s.Headers) > 0 {
		entry["headers"] = scalarMap(s.Headers)
	}
	return entry
}

// descend walks a dotted nesting key through nested objects. When create
// is set, missing levels are added; otherwise absence returns false.
func descend(doc map[string]any, dotted string, create bool) (map[string]any, bool) {
	cur := doc
	for _, part := range strings.Split(dotted, ".") {
		next, ok := asStringMap(cur[part])
		if !ok {
			if !create {
				return nil, false
			}
			next = make(map[string]any)
			cur[part] = next
		}
		cur = next
	}
	return cur, true
}

// asStringMap converts the two map shapes decoders produce.
func asStringMap(raw any) (map[string]any, bool) {
	switch m := raw.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, v := range m {
			ks, ok := k.(string)
			if !ok {
				return nil, false
			}
			out[ks] = v
		}
		return out, true
	default:
		return nil, false
	}
}

func stringSlice(raw []any) ([]string, error) {
	out := make([]string, len(raw))
	for i, v := range raw {
		s, ok := v.(string)
		if !ok {
			return nil, errors.Newf("element %d is %T, want string", i, v)
		}
		out[i] = s
	}
	return out, nil
}

func firstString(entry map[string]any, keys ...string) (string, bool) {
	for _, k := range keys {
		if s, ok := entry[k].(string); ok && s != "" {
			return s, true
		}
	}
	return "", false
}

// valueMap reads the first present alias key as a map of env/header values.
func valueMap(entry map[string]any, keys ...string) (map[string]server.Value, error) {
	for _, k := range keys {
		raw, present := entry[k]
		if !present {
			continue
		}
		m, ok := asStringMap(raw)
		if !ok {
			return nil, errors.Newf("%s must be an object", k)
		}
		out := make(map[string]server.Value, len(m))
		for key, v := range m {
			val, err := server.FromAny(v)
			if err != nil {
				return nil, errors.Wrapf(err, "%s[%s]", k, key)
			}
			out[key] = val
		}
		return out, nil
	}
	return nil, nil
}

// scalarMap flattens values for agent files: strings for provided values,
// nil for pending ones.
func scalarMap(values map[string]server.Value) map[string]any {
	out := make(map[string]any, len(values))
	for k, v := range values {
		out[k] = v.Scalar()
	}
	return out
}
